package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Schema variant names
const (
	SchemaSoccer      = "soccer"
	SchemaTableTennis = "tabletennis"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Schema maps the canonical MatchRecord fields onto the physical results
// table of one deployment. Names come from configuration, never from requests.
type Schema struct {
	Name         string
	Table        string
	League       string
	Season       string
	Player       string
	Opponent     string
	Date         string
	ScoreFor     string
	ScoreAgainst string
	Result       string

	// Points is empty when the deployment does not track points.
	Points string
}

// SoccerSchema is the layout of the soccer divisions database
func SoccerSchema() Schema {
	return Schema{
		Name:         SchemaSoccer,
		Table:        "results",
		League:       "division",
		Season:       "season",
		Player:       "team",
		Opponent:     "opponent",
		Date:         "date",
		ScoreFor:     "goals",
		ScoreAgainst: "goals_opp",
		Result:       "result",
		Points:       "points",
	}
}

// TableTennisSchema is the layout of the table-tennis league database
func TableTennisSchema() Schema {
	return Schema{
		Name:         SchemaTableTennis,
		Table:        "results",
		League:       "League",
		Season:       "Year",
		Player:       "Player",
		Opponent:     "Opponent",
		Date:         "Date",
		ScoreFor:     "Player_games",
		ScoreAgainst: "Opponent_games",
		Result:       "Player_result",
	}
}

var schemas = map[string]func() Schema{
	SchemaSoccer:      SoccerSchema,
	SchemaTableTennis: TableTennisSchema,
}

// SchemaByName returns the registered schema variant with the given name
func SchemaByName(name string) (Schema, error) {
	build, ok := schemas[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownSchema, name, strings.Join(SchemaNames(), ", "))
	}
	return build(), nil
}

// SchemaNames lists the registered schema variants
func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasPoints reports whether the deployment tracks league points per match
func (s Schema) HasPoints() bool {
	return s.Points != ""
}

// Validate checks that every configured table and column name is a plain identifier.
func (s Schema) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"table", s.Table},
		{"league", s.League},
		{"season", s.Season},
		{"player", s.Player},
		{"opponent", s.Opponent},
		{"date", s.Date},
		{"score_for", s.ScoreFor},
		{"score_against", s.ScoreAgainst},
		{"result", s.Result},
	}

	for _, col := range required {
		if col.value == "" {
			return fmt.Errorf("schema %s: %s column is required", s.Name, col.field)
		}
		if !identPattern.MatchString(col.value) {
			return fmt.Errorf("schema %s: invalid %s identifier %q", s.Name, col.field, col.value)
		}
	}

	if s.Points != "" && !identPattern.MatchString(s.Points) {
		return fmt.Errorf("schema %s: invalid points identifier %q", s.Name, s.Points)
	}

	return nil
}

// QuoteIdentifier quotes a table or column name for use in query text on
// driver. SQLite reads a double-quoted name that matches no column as a string
// literal, so it gets backticks, which always name a column or fail.
func QuoteIdentifier(driver, name string) string {
	if driver == DriverSQLite {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return pq.QuoteIdentifier(name)
}
