// Package storetest seeds throwaway SQLite results databases for tests.
package storetest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fortuna/matchboard/internal/store"
)

// Row is one fixture match. Season is inserted as-is so integer seasons can be
// exercised; Points is ignored for schemas without a points column.
type Row struct {
	League       string
	Season       any
	Player       string
	Opponent     string
	Date         string
	ScoreFor     int
	ScoreAgainst int
	Result       string
	Points       *int
}

// Pts returns a pointer to a points value.
func Pts(v int) *int {
	return &v
}

// SoccerRows is a small soccer fixture: two divisions, two seasons.
func SoccerRows() []Row {
	return []Row{
		{"E0", "2017-18", "Arsenal", "Leicester", "2017-08-11", 4, 3, "W", Pts(3)},
		{"E0", "2017-18", "Arsenal", "Stoke", "2017-08-19", 0, 1, "L", Pts(0)},
		{"E0", "2017-18", "Arsenal", "Liverpool", "2017-08-27", 0, 4, "L", Pts(0)},
		{"E0", "2017-18", "Arsenal", "Bournemouth", "2017-09-09", 3, 0, "W", Pts(3)},
		{"E0", "2017-18", "Arsenal", "Chelsea", "2017-09-17", 0, 0, "D", Pts(1)},
		{"E0", "2017-18", "Chelsea", "Burnley", "2017-08-12", 2, 3, "L", Pts(0)},
		{"E0", "2017-18", "Chelsea", "Tottenham", "2017-08-20", 2, 1, "W", Pts(3)},
		{"E0", "2016-17", "Arsenal", "Liverpool", "2016-08-14", 3, 4, "L", Pts(0)},
		{"E0", "2016-17", "Burnley", "Swansea", "2016-08-13", 0, 1, "L", Pts(0)},
		{"E1", "2017-18", "Leeds", "Bolton", "2017-08-06", 3, 2, "W", Pts(3)},
		{"E1", "2017-18", "O'Higgins", "Leeds", "2017-08-13", 1, 1, "D", Pts(1)},
	}
}

// TableTennisRows is a small table-tennis fixture with integer years and
// day-first dates that do not sort correctly as text.
func TableTennisRows() []Row {
	return []Row{
		{"Высшая лига", 2018, "Иванов", "Петров", "05.03.2018", 3, 1, "W", nil},
		{"Высшая лига", 2018, "Иванов", "Сидоров", "20.02.2018", 2, 3, "L", nil},
		{"Высшая лига", 2018, "Иванов", "Козлов", "11.04.2018", 3, 0, "W", nil},
		{"Высшая лига", 2018, "Петров", "Иванов", "05.03.2018", 1, 3, "L", nil},
		{"Высшая лига", 2017, "Иванов", "Петров", "14.10.2017", 3, 2, "W", nil},
		{"Высшая лига", 9, "Ветеран", "Козлов", "01.01.2009", 3, 2, "W", nil},
		{"Первая лига", 2018, "Смирнов", "Волков", "02.02.2018", 0, 3, "L", nil},
	}
}

// Seed writes rows into a new SQLite file laid out per schema and returns its path.
func Seed(t testing.TB, schema store.Schema, rows []Row) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "results.db")
	db, err := sql.Open(store.DriverSQLite, path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	id := func(name string) string { return store.QuoteIdentifier(store.DriverSQLite, name) }
	seasonType := "TEXT"
	dateType := "DATE"
	if schema.Name == store.SchemaTableTennis {
		seasonType = "INTEGER"
		dateType = "TEXT"
	}

	columns := []string{
		id(schema.League) + " TEXT",
		id(schema.Season) + " " + seasonType,
		id(schema.Player) + " TEXT",
		id(schema.Opponent) + " TEXT",
		id(schema.Date) + " " + dateType,
		id(schema.ScoreFor) + " INTEGER",
		id(schema.ScoreAgainst) + " INTEGER",
		id(schema.Result) + " TEXT",
	}
	names := []string{
		id(schema.League), id(schema.Season), id(schema.Player), id(schema.Opponent), id(schema.Date),
		id(schema.ScoreFor), id(schema.ScoreAgainst), id(schema.Result),
	}
	if schema.HasPoints() {
		columns = append(columns, id(schema.Points)+" INTEGER")
		names = append(names, id(schema.Points))
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", id(schema.Table), strings.Join(columns, ", "))
	if _, err := db.Exec(create); err != nil {
		t.Fatalf("create fixture table: %v", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", id(schema.Table), strings.Join(names, ", "), placeholders)
	for _, row := range rows {
		args := []any{row.League, row.Season, row.Player, row.Opponent, row.Date, row.ScoreFor, row.ScoreAgainst, row.Result}
		if schema.HasPoints() {
			var points any
			if row.Points != nil {
				points = *row.Points
			}
			args = append(args, points)
		}
		if _, err := db.Exec(insert, args...); err != nil {
			t.Fatalf("insert fixture row %+v: %v", row, err)
		}
	}

	return path
}

// Open seeds a fixture and opens it read-only through store.NewDatabase.
func Open(t testing.TB, schema store.Schema, rows []Row) *store.Database {
	t.Helper()

	db, err := store.NewDatabase(store.DriverSQLite, Seed(t, schema, rows))
	if err != nil {
		t.Fatalf("open fixture store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
