package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fortuna/matchboard/internal/logger"
	"github.com/fortuna/matchboard/internal/store"
)

const tracerName = "github.com/fortuna/matchboard/internal/store/repository"

// MatchRepository handles read access to the results table
type MatchRepository struct {
	db      *store.Database
	schema  store.Schema
	queries matchQueries
	tracer  trace.Tracer
	log     *logger.Logger
}

// Option configures a MatchRepository
type Option func(*MatchRepository)

// WithLogger sets the logger used to report rows that are skipped while reading.
func WithLogger(log *logger.Logger) Option {
	return func(r *MatchRepository) {
		if log != nil {
			r.log = log.With(logger.M{"component": "repository"})
		}
	}
}

// matchQueries holds the query text for one schema, rebound for the driver.
// Column names come from the validated schema; filter values are always bound.
type matchQueries struct {
	leagues string
	seasons string
	players string
	matches string
}

// NewMatchRepository creates a new match repository for the given schema
func NewMatchRepository(db *store.Database, schema store.Schema, opts ...Option) (*MatchRepository, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	r := &MatchRepository{
		db:      db,
		schema:  schema,
		queries: buildQueries(db, schema),
		tracer:  otel.Tracer(tracerName),
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Schema returns the schema the repository reads
func (r *MatchRepository) Schema() store.Schema {
	return r.schema
}

func buildQueries(db *store.Database, s store.Schema) matchQueries {
	id := func(name string) string { return store.QuoteIdentifier(db.Driver(), name) }
	table := id(s.Table)
	league, season, player := id(s.League), id(s.Season), id(s.Player)

	points := "NULL"
	if s.HasPoints() {
		points = id(s.Points)
	}

	return matchQueries{
		leagues: db.DB().Rebind(fmt.Sprintf(`
			SELECT DISTINCT %[1]s
			FROM %[2]s
			WHERE %[1]s IS NOT NULL
			ORDER BY %[1]s
		`, league, table)),

		seasons: db.DB().Rebind(fmt.Sprintf(`
			SELECT DISTINCT %[1]s
			FROM %[2]s
			WHERE %[3]s = ? AND %[1]s IS NOT NULL
			ORDER BY %[1]s
		`, season, table, league)),

		players: db.DB().Rebind(fmt.Sprintf(`
			SELECT DISTINCT %[1]s
			FROM %[2]s
			WHERE %[3]s = ? AND %[4]s = ? AND %[1]s IS NOT NULL
			ORDER BY %[1]s
		`, player, table, league, season)),

		matches: db.DB().Rebind(fmt.Sprintf(`
			SELECT %[2]s AS league, %[3]s AS season, %[4]s AS player,
				%[5]s AS opponent, %[6]s AS match_date, %[7]s AS score_for,
				%[8]s AS score_against, %[9]s AS result, %[10]s AS points
			FROM %[1]s
			WHERE %[2]s = ? AND %[3]s = ? AND %[4]s = ?
			ORDER BY %[6]s ASC
		`, table, league, season, player, id(s.Opponent), id(s.Date),
			id(s.ScoreFor), id(s.ScoreAgainst), id(s.Result), points)),
	}
}

// ListLeagues returns the distinct leagues, ascending and deduplicated
func (r *MatchRepository) ListLeagues(ctx context.Context) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "repository.ListLeagues")
	defer span.End()

	var values []text
	if err := r.db.DB().SelectContext(ctx, &values, r.queries.leagues); err != nil {
		return nil, r.fail(span, "list leagues", err)
	}

	return sortedDistinct(values, false), nil
}

// ListSeasons returns the distinct seasons played in a league.
// An unset league yields an empty list without querying.
func (r *MatchRepository) ListSeasons(ctx context.Context, league string) ([]string, error) {
	if league == "" {
		return []string{}, nil
	}

	ctx, span := r.tracer.Start(ctx, "repository.ListSeasons", trace.WithAttributes(
		attribute.String("matchboard.league", league),
	))
	defer span.End()

	var values []text
	if err := r.db.DB().SelectContext(ctx, &values, r.queries.seasons, league); err != nil {
		return nil, r.fail(span, "list seasons", err)
	}

	return sortedDistinct(values, true), nil
}

// ListPlayers returns the distinct players or teams with results in a league season.
// An unset league or season yields an empty list without querying.
func (r *MatchRepository) ListPlayers(ctx context.Context, league, season string) ([]string, error) {
	if league == "" || season == "" {
		return []string{}, nil
	}

	ctx, span := r.tracer.Start(ctx, "repository.ListPlayers", trace.WithAttributes(
		attribute.String("matchboard.league", league),
		attribute.String("matchboard.season", season),
	))
	defer span.End()

	var values []text
	if err := r.db.DB().SelectContext(ctx, &values, r.queries.players, league, season); err != nil {
		return nil, r.fail(span, "list players", err)
	}

	return sortedDistinct(values, false), nil
}

// matchRow is one results row aliased onto canonical column names
type matchRow struct {
	League       text          `db:"league"`
	Season       text          `db:"season"`
	Player       text          `db:"player"`
	Opponent     text          `db:"opponent"`
	Date         matchDate     `db:"match_date"`
	ScoreFor     sql.NullInt64 `db:"score_for"`
	ScoreAgainst sql.NullInt64 `db:"score_against"`
	Result       text          `db:"result"`
	Points       sql.NullInt64 `db:"points"`
}

// ListMatches returns every match for a league, season and player, oldest first.
// Any unset input yields an empty list without querying. Rows whose date is
// NULL or unrecognized are skipped and logged; the rest are still returned.
func (r *MatchRepository) ListMatches(ctx context.Context, league, season, player string) ([]store.MatchRecord, error) {
	if league == "" || season == "" || player == "" {
		return []store.MatchRecord{}, nil
	}

	ctx, span := r.tracer.Start(ctx, "repository.ListMatches", trace.WithAttributes(
		attribute.String("matchboard.league", league),
		attribute.String("matchboard.season", season),
		attribute.String("matchboard.player", player),
	))
	defer span.End()

	var rows []matchRow
	if err := r.db.DB().SelectContext(ctx, &rows, r.queries.matches, league, season, player); err != nil {
		return nil, r.fail(span, "list matches", err)
	}

	matches := make([]store.MatchRecord, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if !row.Date.Valid {
			skipped++
			r.log.Warn("skipped match with unreadable date", logger.M{
				"league":   league,
				"season":   season,
				"player":   player,
				"opponent": string(row.Opponent),
				"date":     row.Date.Raw,
			})
			continue
		}

		match := store.MatchRecord{
			League:       string(row.League),
			Season:       string(row.Season),
			Player:       string(row.Player),
			Opponent:     string(row.Opponent),
			Date:         row.Date.Time,
			ScoreFor:     int(row.ScoreFor.Int64),
			ScoreAgainst: int(row.ScoreAgainst.Int64),
			Result:       store.ParseResult(string(row.Result)),
		}
		if row.Points.Valid {
			points := int(row.Points.Int64)
			match.Points = &points
		}
		matches = append(matches, match)
	}

	// Text dates such as 02.01.2006 do not order correctly in SQL.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Date.Before(matches[j].Date)
	})

	span.SetAttributes(
		attribute.Int("matchboard.matches", len(matches)),
		attribute.Int("matchboard.skipped", skipped),
	)
	return matches, nil
}

func (r *MatchRepository) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return &store.DataAccessError{Op: op, Err: err}
}

// sortedDistinct deduplicates values and sorts them ascending. With numeric
// set, values that are all integers are ordered by value rather than as text.
func sortedDistinct(values []text, numeric bool) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		s := string(v)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if numeric && allIntegers(out) {
		sort.Slice(out, func(i, j int) bool {
			a, _ := strconv.ParseInt(out[i], 10, 64)
			b, _ := strconv.ParseInt(out[j], 10, 64)
			return a < b
		})
		return out
	}

	sort.Strings(out)
	return out
}

func allIntegers(values []string) bool {
	for _, v := range values {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return false
		}
	}
	return true
}
