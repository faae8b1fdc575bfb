package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts tried, in order, for dates stored as text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02.01.2006",
	"02/01/2006",
}

// text scans any column into its string form. NULL becomes "".
// Integer seasons (the table-tennis Year column) arrive as int64.
type text string

func (t *text) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = ""
	case string:
		*t = text(v)
	case []byte:
		*t = text(v)
	case int64:
		*t = text(strconv.FormatInt(v, 10))
	case float64:
		*t = text(strconv.FormatFloat(v, 'f', -1, 64))
	case time.Time:
		*t = text(v.Format("2006-01-02"))
	default:
		return fmt.Errorf("unsupported text value %T", src)
	}
	return nil
}

// matchDate scans DATE/TIMESTAMP values as well as dates stored as text.
// NULL and unrecognized text leave Valid false; Raw keeps the text.
type matchDate struct {
	time.Time
	Valid bool
	Raw   string
}

func (d *matchDate) Scan(src any) error {
	*d = matchDate{}
	switch v := src.(type) {
	case time.Time:
		d.Time, d.Valid = v, true
	case string:
		d.parse(v)
	case []byte:
		d.parse(string(v))
	case int64:
		d.Time, d.Valid = time.Unix(v, 0).UTC(), true
	case nil:
	default:
		return fmt.Errorf("unsupported match date value %T", src)
	}
	return nil
}

func (d *matchDate) parse(value string) {
	d.Raw = value
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d.Time, d.Valid = t, true
			return
		}
	}
}
