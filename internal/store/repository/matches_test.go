package repository

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/matchboard/internal/logger"
	"github.com/fortuna/matchboard/internal/store"
	"github.com/fortuna/matchboard/internal/store/storetest"
)

func newSoccerRepo(t *testing.T) *MatchRepository {
	t.Helper()
	db := storetest.Open(t, store.SoccerSchema(), storetest.SoccerRows())
	repo, err := NewMatchRepository(db, store.SoccerSchema())
	require.NoError(t, err)
	return repo
}

func newTableTennisRepo(t *testing.T) *MatchRepository {
	t.Helper()
	db := storetest.Open(t, store.TableTennisSchema(), storetest.TableTennisRows())
	repo, err := NewMatchRepository(db, store.TableTennisSchema())
	require.NoError(t, err)
	return repo
}

// region ListLeagues tests

func TestListLeagues_SortedAndDistinct(t *testing.T) {
	repo := newSoccerRepo(t)

	leagues, err := repo.ListLeagues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"E0", "E1"}, leagues)
}

func TestListLeagues_EmptyStore(t *testing.T) {
	db := storetest.Open(t, store.SoccerSchema(), nil)
	repo, err := NewMatchRepository(db, store.SoccerSchema())
	require.NoError(t, err)

	leagues, err := repo.ListLeagues(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leagues)
}

func TestListLeagues_SchemaMismatchIsDataAccessError(t *testing.T) {
	db := storetest.Open(t, store.SoccerSchema(), storetest.SoccerRows())
	repo, err := NewMatchRepository(db, store.TableTennisSchema())
	require.NoError(t, err)

	_, err = repo.ListLeagues(context.Background())
	require.Error(t, err)

	var dae *store.DataAccessError
	require.ErrorAs(t, err, &dae)
	assert.Equal(t, "list leagues", dae.Op)
}

func TestQueries_SchemaMismatchIsDataAccessError(t *testing.T) {
	db := storetest.Open(t, store.SoccerSchema(), storetest.SoccerRows())
	repo, err := NewMatchRepository(db, store.TableTennisSchema())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		op  string
		run func() (any, error)
	}{
		{"list seasons", func() (any, error) { return repo.ListSeasons(ctx, "E0") }},
		{"list players", func() (any, error) { return repo.ListPlayers(ctx, "E0", "2017-18") }},
		{"list matches", func() (any, error) { return repo.ListMatches(ctx, "E0", "2017-18", "Arsenal") }},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, err := tt.run()
			require.Error(t, err, "got %v", got)

			var dae *store.DataAccessError
			require.ErrorAs(t, err, &dae)
			assert.Equal(t, tt.op, dae.Op)
			assert.Contains(t, err.Error(), "no such column")
		})
	}
}

// endregion

// region ListSeasons tests

func TestListSeasons(t *testing.T) {
	repo := newSoccerRepo(t)

	seasons, err := repo.ListSeasons(context.Background(), "E0")
	require.NoError(t, err)
	assert.Equal(t, []string{"2016-17", "2017-18"}, seasons)
}

func TestListSeasons_UnsetOrUnknownLeague(t *testing.T) {
	repo := newSoccerRepo(t)

	seasons, err := repo.ListSeasons(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, seasons)
	assert.Empty(t, seasons)

	seasons, err = repo.ListSeasons(context.Background(), "LeagueX")
	require.NoError(t, err)
	assert.Empty(t, seasons)
}

func TestListSeasons_EmptyStore(t *testing.T) {
	db := storetest.Open(t, store.TableTennisSchema(), nil)
	repo, err := NewMatchRepository(db, store.TableTennisSchema())
	require.NoError(t, err)

	seasons, err := repo.ListSeasons(context.Background(), "LeagueX")
	require.NoError(t, err)
	assert.Equal(t, []string{}, seasons)
}

func TestListSeasons_IntegerYearsOrderNumerically(t *testing.T) {
	repo := newTableTennisRepo(t)

	seasons, err := repo.ListSeasons(context.Background(), "Высшая лига")
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "2017", "2018"}, seasons)
}

func TestListSeasons_ExactCaseSensitiveMatch(t *testing.T) {
	repo := newSoccerRepo(t)

	for _, league := range []string{"e0", "E", "E0 ", "%"} {
		seasons, err := repo.ListSeasons(context.Background(), league)
		require.NoError(t, err)
		assert.Empty(t, seasons, league)
	}
}

// endregion

// region ListPlayers tests

func TestListPlayers(t *testing.T) {
	repo := newSoccerRepo(t)

	players, err := repo.ListPlayers(context.Background(), "E0", "2017-18")
	require.NoError(t, err)
	assert.Equal(t, []string{"Arsenal", "Chelsea"}, players)

	players, err = repo.ListPlayers(context.Background(), "E0", "2016-17")
	require.NoError(t, err)
	assert.Equal(t, []string{"Arsenal", "Burnley"}, players)
}

func TestListPlayers_UnsetInputs(t *testing.T) {
	repo := newSoccerRepo(t)

	for _, tc := range [][2]string{{"", ""}, {"E0", ""}, {"", "2017-18"}} {
		players, err := repo.ListPlayers(context.Background(), tc[0], tc[1])
		require.NoError(t, err)
		assert.Empty(t, players)
	}
}

func TestListPlayers_IntegerSeasonBoundAsText(t *testing.T) {
	repo := newTableTennisRepo(t)

	players, err := repo.ListPlayers(context.Background(), "Высшая лига", "2018")
	require.NoError(t, err)
	assert.Equal(t, []string{"Иванов", "Петров"}, players)
}

// endregion

// region ListMatches tests

func TestListMatches_OrderedByDate(t *testing.T) {
	repo := newSoccerRepo(t)

	matches, err := repo.ListMatches(context.Background(), "E0", "2017-18", "Arsenal")
	require.NoError(t, err)
	require.Len(t, matches, 5)

	for i := 1; i < len(matches); i++ {
		assert.False(t, matches[i].Date.Before(matches[i-1].Date), "matches out of order at %d", i)
	}

	first := matches[0]
	assert.Equal(t, "Leicester", first.Opponent)
	assert.Equal(t, 4, first.ScoreFor)
	assert.Equal(t, 3, first.ScoreAgainst)
	assert.Equal(t, store.ResultWin, first.Result)
	require.NotNil(t, first.Points)
	assert.Equal(t, 3, *first.Points)
	assert.Equal(t, time.Date(2017, 8, 11, 0, 0, 0, 0, time.UTC), first.Date.UTC())
}

func TestListMatches_TextDatesSortedChronologically(t *testing.T) {
	repo := newTableTennisRepo(t)

	matches, err := repo.ListMatches(context.Background(), "Высшая лига", "2018", "Иванов")
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "Сидоров", matches[0].Opponent)
	assert.Equal(t, "Петров", matches[1].Opponent)
	assert.Equal(t, "Козлов", matches[2].Opponent)
	for _, m := range matches {
		assert.Nil(t, m.Points)
		assert.Equal(t, "2018", m.Season)
	}
}

func TestListMatches_ValuesAreBoundNotInterpolated(t *testing.T) {
	repo := newSoccerRepo(t)

	matches, err := repo.ListMatches(context.Background(), "E1", "2017-18", "O'Higgins")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, store.ResultDraw, matches[0].Result)

	matches, err = repo.ListMatches(context.Background(), "E0", "2017-18", "x' OR '1'='1")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestListMatches_EmptyWhenUnsetOrNoRows(t *testing.T) {
	repo := newSoccerRepo(t)

	matches, err := repo.ListMatches(context.Background(), "E0", "2017-18", "")
	require.NoError(t, err)
	assert.Equal(t, []store.MatchRecord{}, matches)

	matches, err = repo.ListMatches(context.Background(), "E0", "1999-00", "Arsenal")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestListMatches_UnreadableDateRowSkipped(t *testing.T) {
	rows := append(storetest.TableTennisRows(),
		storetest.Row{League: "Высшая лига", Season: 2018, Player: "Иванов", Opponent: "Орлов", Date: "TBD", ScoreFor: 3, ScoreAgainst: 0, Result: "W"},
	)
	db := storetest.Open(t, store.TableTennisSchema(), rows)
	var logs bytes.Buffer
	repo, err := NewMatchRepository(db, store.TableTennisSchema(), WithLogger(logger.New(&logs)))
	require.NoError(t, err)

	matches, err := repo.ListMatches(context.Background(), "Высшая лига", "2018", "Иванов")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.NotEqual(t, "Орлов", m.Opponent)
	}

	assert.Contains(t, logs.String(), `msg="skipped match with unreadable date"`)
	assert.Contains(t, logs.String(), "date=TBD")
	assert.Contains(t, logs.String(), "opponent=Орлов")
}

func TestListMatches_CancelledContext(t *testing.T) {
	repo := newSoccerRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListMatches(ctx, "E0", "2017-18", "Arsenal")
	require.Error(t, err)
	assert.True(t, store.IsDataAccess(err))
}

// endregion

// region helper tests

func TestNewMatchRepository_RejectsInvalidSchema(t *testing.T) {
	db := storetest.Open(t, store.SoccerSchema(), nil)
	schema := store.SoccerSchema()
	schema.Table = "results r"

	_, err := NewMatchRepository(db, schema)
	require.Error(t, err)
}

func TestSortedDistinct(t *testing.T) {
	in := []text{"b", "a", "b", "10", "9"}
	assert.Equal(t, []string{"10", "9", "a", "b"}, sortedDistinct(in, true))

	nums := []text{"2018", "9", "2017", "9"}
	assert.Equal(t, []string{"9", "2017", "2018"}, sortedDistinct(nums, true))
	assert.Equal(t, []string{"2017", "2018", "9"}, sortedDistinct(nums, false))
}

func TestMatchDateScan(t *testing.T) {
	tests := []struct {
		src  any
		want time.Time
	}{
		{"2017-08-11", time.Date(2017, 8, 11, 0, 0, 0, 0, time.UTC)},
		{[]byte("2017-08-11 19:45:00"), time.Date(2017, 8, 11, 19, 45, 0, 0, time.UTC)},
		{"05.03.2018", time.Date(2018, 3, 5, 0, 0, 0, 0, time.UTC)},
		{time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		var d matchDate
		require.NoError(t, d.Scan(tt.src))
		assert.True(t, tt.want.Equal(d.Time), "%v: got %v", tt.src, d.Time)
	}

	var d matchDate
	require.NoError(t, d.Scan("next tuesday"))
	assert.False(t, d.Valid)
	assert.Equal(t, "next tuesday", d.Raw)

	require.NoError(t, d.Scan(nil))
	assert.False(t, d.Valid)
	assert.Empty(t, d.Raw)

	assert.Error(t, d.Scan(true))
}

func TestTextScan(t *testing.T) {
	var v text
	require.NoError(t, v.Scan(int64(2018)))
	assert.Equal(t, text("2018"), v)
	require.NoError(t, v.Scan(nil))
	assert.Equal(t, text(""), v)
	assert.Error(t, v.Scan(true))
}

// endregion
