package store_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/matchboard/internal/store"
	"github.com/fortuna/matchboard/internal/store/storetest"
)

// region Database tests

func TestNewDatabase_RequiresDSN(t *testing.T) {
	_, err := store.NewDatabase(store.DriverSQLite, "  ")
	require.Error(t, err)
}

func TestNewDatabase_RejectsUnknownDriver(t *testing.T) {
	_, err := store.NewDatabase("mysql", "results.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestNewDatabase_MissingSQLiteFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := store.NewDatabase(store.DriverSQLite, path)
	require.Error(t, err)
}

func TestNewDatabase_OpensReadOnly(t *testing.T) {
	db := storetest.Open(t, store.SoccerSchema(), storetest.SoccerRows())

	require.NoError(t, db.HealthCheck(context.Background()))
	assert.Equal(t, store.DriverSQLite, db.Driver())

	_, err := db.DB().Exec(`DELETE FROM results`)
	require.Error(t, err, "writes must be rejected")

	var count int
	require.NoError(t, db.DB().Get(&count, `SELECT COUNT(*) FROM results`))
	assert.Equal(t, len(storetest.SoccerRows()), count)
}

func TestReadOnlySQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stats.db", "file:stats.db?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)"},
		{"file:stats.db", "file:stats.db?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)"},
		{"file:stats.db?cache=shared", "file:stats.db?cache=shared&mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)"},
		{"file:stats.db?mode=memory", "file:stats.db?mode=memory&_pragma=query_only(1)&_pragma=busy_timeout(5000)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, store.ReadOnlySQLiteDSN(tt.in), tt.in)
	}
}

// endregion

// region Schema tests

func TestSchemaByName(t *testing.T) {
	soccer, err := store.SchemaByName("Soccer")
	require.NoError(t, err)
	assert.Equal(t, "division", soccer.League)
	assert.True(t, soccer.HasPoints())

	tt, err := store.SchemaByName("tabletennis")
	require.NoError(t, err)
	assert.Equal(t, "Player_result", tt.Result)
	assert.False(t, tt.HasPoints())

	_, err = store.SchemaByName("cricket")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrUnknownSchema))
}

func TestSchemaValidate(t *testing.T) {
	require.NoError(t, store.SoccerSchema().Validate())
	require.NoError(t, store.TableTennisSchema().Validate())

	bad := store.SoccerSchema()
	bad.League = "division; DROP TABLE results"
	require.Error(t, bad.Validate())

	missing := store.TableTennisSchema()
	missing.Date = ""
	require.Error(t, missing.Validate())

	badPoints := store.SoccerSchema()
	badPoints.Points = "pts-total"
	require.Error(t, badPoints.Validate())
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"Player_result"`, store.QuoteIdentifier(store.DriverPostgres, "Player_result"))
	assert.Equal(t, "`Player_result`", store.QuoteIdentifier(store.DriverSQLite, "Player_result"))
	assert.Equal(t, "`a``b`", store.QuoteIdentifier(store.DriverSQLite, "a`b"))
}

// endregion

// region Model tests

func TestParseResult(t *testing.T) {
	tests := map[string]store.Result{
		"W":     store.ResultWin,
		" win ": store.ResultWin,
		"l":     store.ResultLoss,
		"Loss":  store.ResultLoss,
		"D":     store.ResultDraw,
		"draw":  store.ResultDraw,
		"":      store.ResultUnknown,
		"X":     store.ResultUnknown,
	}

	for in, want := range tests {
		assert.Equal(t, want, store.ParseResult(in), in)
	}
}

func TestDataAccessError(t *testing.T) {
	cause := errors.New("no such table: results")
	err := fmt.Errorf("listing: %w", &store.DataAccessError{Op: "list leagues", Err: cause})

	assert.True(t, store.IsDataAccess(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "listing: data access: list leagues: no such table: results", err.Error())
	assert.False(t, store.IsDataAccess(cause))
}

// endregion
