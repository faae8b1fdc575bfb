package rest

import (
	"fmt"
	"html/template"
	"io"

	"github.com/fortuna/matchboard/internal/service"
)

var tableTemplate = template.Must(template.New("matches").Parse(`<table class="matches">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
`))

type tableView struct {
	Columns []string
	Rows    [][]string
}

// RenderTable writes the first maxRows rows of table as an HTML table.
func RenderTable(w io.Writer, table service.Table, maxRows int) error {
	rows := table.Rows
	if maxRows >= 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	view := tableView{
		Columns: table.Columns,
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		cells := make([]string, 0, len(table.Columns))
		for _, col := range table.Columns {
			cells = append(cells, cell(row[col]))
		}
		view.Rows = append(view.Rows, cells)
	}

	if err := tableTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render matches table: %w", err)
	}
	return nil
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
