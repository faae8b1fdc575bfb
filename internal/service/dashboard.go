package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/language"

	"github.com/fortuna/matchboard/internal/cache"
	"github.com/fortuna/matchboard/internal/logger"
	"github.com/fortuna/matchboard/internal/store"
)

// Selection fields
const (
	FieldLeague = "league"
	FieldSeason = "season"
	FieldPlayer = "player"
)

// ErrUnknownField is returned when a selection change names no known field.
var ErrUnknownField = errors.New("unknown selection field")

// Selection is the league, season and player currently chosen on a dashboard.
// Empty fields are unset.
type Selection struct {
	League string `json:"league"`
	Season string `json:"season"`
	Player string `json:"player"`
}

// Apply sets one field and clears every field below it in the cascade:
// a new league clears season and player, a new season clears player.
func (s Selection) Apply(field, value string) (Selection, error) {
	switch field {
	case FieldLeague:
		return Selection{League: value}, nil
	case FieldSeason:
		return Selection{League: s.League, Season: value}, nil
	case FieldPlayer:
		return Selection{League: s.League, Season: s.Season, Player: value}, nil
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// Complete reports whether league, season and player are all set.
func (s Selection) Complete() bool {
	return s.League != "" && s.Season != "" && s.Player != ""
}

// Option is one dropdown entry
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Options turns values into dropdown options labelled by their value.
func Options(values []string) []Option {
	options := make([]Option, 0, len(values))
	for _, v := range values {
		options = append(options, Option{Label: v, Value: v})
	}
	return options
}

// Table is a row-oriented match listing. Rows are keyed by the labels in Columns.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// View is everything a dashboard renders for one selection
type View struct {
	Selection Selection `json:"selection"`
	Leagues   []Option  `json:"leagues"`
	Seasons   []Option  `json:"seasons"`
	Players   []Option  `json:"players"`
	Table     Table     `json:"table"`
	Summary   *Summary  `json:"summary"`
	Chart     Chart     `json:"chart"`
}

// Querier is the read-only query layer the dashboard depends on.
// *repository.MatchRepository implements it.
type Querier interface {
	ListLeagues(ctx context.Context) ([]string, error)
	ListSeasons(ctx context.Context, league string) ([]string, error)
	ListPlayers(ctx context.Context, league, season string) ([]string, error)
	ListMatches(ctx context.Context, league, season, player string) ([]store.MatchRecord, error)
}

// DashboardService answers dashboard selections. Data access failures are
// logged and degrade to empty output; they never fail a request.
type DashboardService struct {
	repo     Querier
	schema   store.Schema
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewDashboardService creates a new dashboard service. A nil cache disables
// option caching and a nil logger discards diagnostics.
func NewDashboardService(repo Querier, schema store.Schema, c cache.Cache, cacheTTL time.Duration, log *logger.Logger) *DashboardService {
	if c == nil {
		c = cache.NopCache{}
	}
	if log == nil {
		log = logger.Discard()
	}

	return &DashboardService{
		repo:     repo,
		schema:   schema,
		cache:    c,
		cacheTTL: cacheTTL,
		log:      log.With(logger.M{"component": "dashboard"}),
	}
}

// Schema returns the results schema the dashboard reads
func (s *DashboardService) Schema() store.Schema {
	return s.schema
}

// LeagueOptions returns the league dropdown
func (s *DashboardService) LeagueOptions(ctx context.Context) []Option {
	leagues := s.cachedList(ctx, s.optionsKey("leagues"), "list leagues", Selection{},
		func() ([]string, error) { return s.repo.ListLeagues(ctx) })
	return Options(leagues)
}

// SeasonOptions returns the season dropdown for a league
func (s *DashboardService) SeasonOptions(ctx context.Context, league string) []Option {
	if league == "" {
		return []Option{}
	}
	seasons := s.cachedList(ctx, s.optionsKey("seasons", league), "list seasons", Selection{League: league},
		func() ([]string, error) { return s.repo.ListSeasons(ctx, league) })
	return Options(seasons)
}

// PlayerOptions returns the player or team dropdown for a league season
func (s *DashboardService) PlayerOptions(ctx context.Context, league, season string) []Option {
	if league == "" || season == "" {
		return []Option{}
	}
	players := s.cachedList(ctx, s.optionsKey("players", league, season), "list players", Selection{League: league, Season: season},
		func() ([]string, error) { return s.repo.ListPlayers(ctx, league, season) })
	return Options(players)
}

// SearchPlayers ranks the players of the selected league season against a
// free-text query, best match first. Selection filters stay exact; this only
// helps find a value to select.
func (s *DashboardService) SearchPlayers(ctx context.Context, sel Selection, query string) []Option {
	players := s.PlayerOptions(ctx, sel.League, sel.Season)
	if query == "" {
		return players
	}

	values := make([]string, 0, len(players))
	for _, p := range players {
		values = append(values, p.Value)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, values)
	sort.Stable(ranks)

	matches := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		matches = append(matches, rank.Target)
	}
	return Options(matches)
}

// Matches returns the matches of a complete selection, oldest first
func (s *DashboardService) Matches(ctx context.Context, sel Selection) []store.MatchRecord {
	if !sel.Complete() {
		return []store.MatchRecord{}
	}

	matches, err := s.repo.ListMatches(ctx, sel.League, sel.Season, sel.Player)
	if err != nil {
		s.logFailure("list matches", sel, err)
		return []store.MatchRecord{}
	}
	return matches
}

// Summary returns the season tally of a selection
func (s *DashboardService) Summary(ctx context.Context, sel Selection) Summary {
	return SummarizeRecord(s.Matches(ctx, sel))
}

// Chart returns the season chart of a selection
func (s *DashboardService) Chart(ctx context.Context, sel Selection) Chart {
	return ChartFor(s.schema, s.Matches(ctx, sel))
}

// Table returns the match listing of a selection with labels in lang
func (s *DashboardService) Table(ctx context.Context, sel Selection, lang language.Tag) Table {
	return s.buildTable(s.Matches(ctx, sel), lang)
}

// View builds the full dashboard for a selection, querying matches once
func (s *DashboardService) View(ctx context.Context, sel Selection, lang language.Tag) View {
	matches := s.Matches(ctx, sel)

	view := View{
		Selection: sel,
		Leagues:   s.LeagueOptions(ctx),
		Seasons:   s.SeasonOptions(ctx, sel.League),
		Players:   s.PlayerOptions(ctx, sel.League, sel.Season),
		Table:     s.buildTable(matches, lang),
		Chart:     ChartFor(s.schema, matches),
	}
	if len(matches) > 0 {
		summary := SummarizeRecord(matches)
		view.Summary = &summary
	}
	return view
}

// TableColumns returns the column keys of the match listing for the schema
func (s *DashboardService) TableColumns() []string {
	columns := []string{ColumnDate, ColumnOpponent, ColumnScoreFor, ColumnScoreAgainst, ColumnResult}
	if s.schema.HasPoints() {
		columns = append(columns, ColumnPoints)
	}
	return columns
}

func (s *DashboardService) buildTable(matches []store.MatchRecord, lang language.Tag) Table {
	keys := s.TableColumns()
	labels := make([]string, 0, len(keys))
	for _, key := range keys {
		labels = append(labels, ColumnLabel(lang, key))
	}

	rows := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		row := make(map[string]any, len(keys))
		for i, key := range keys {
			row[labels[i]] = columnValue(m, key)
		}
		rows = append(rows, row)
	}

	return Table{Columns: labels, Rows: rows}
}

func columnValue(m store.MatchRecord, key string) any {
	switch key {
	case ColumnDate:
		return m.Date.Format("2006-01-02")
	case ColumnOpponent:
		return m.Opponent
	case ColumnScoreFor:
		return m.ScoreFor
	case ColumnScoreAgainst:
		return m.ScoreAgainst
	case ColumnResult:
		return string(m.Result)
	case ColumnPoints:
		if m.Points == nil {
			return nil
		}
		return *m.Points
	default:
		return nil
	}
}

// optionsKey namespaces an option-list key by schema and table, so deployments
// sharing one Redis never see each other's lists.
func (s *DashboardService) optionsKey(kind string, parts ...string) string {
	return cache.Key(append([]string{"options", s.schema.Name, s.schema.Table, kind}, parts...)...)
}

// cachedList reads an option list through the cache. Cache failures are
// logged and bypassed; query failures are logged and yield an empty list.
func (s *DashboardService) cachedList(ctx context.Context, key, op string, sel Selection, fetch func() ([]string, error)) []string {
	var values []string
	found, err := s.cache.GetJSON(ctx, key, &values)
	if err != nil {
		s.log.Warn("cache read failed", logger.M{"key": key, "err": err})
	}
	if found {
		return values
	}

	values, err = fetch()
	if err != nil {
		s.logFailure(op, sel, err)
		return []string{}
	}

	if err := s.cache.SetJSON(ctx, key, values, s.cacheTTL); err != nil {
		s.log.Warn("cache write failed", logger.M{"key": key, "err": err})
	}
	return values
}

func (s *DashboardService) logFailure(op string, sel Selection, err error) {
	fields := logger.M{
		"op":     op,
		"league": sel.League,
		"season": sel.Season,
		"player": sel.Player,
		"err":    err,
	}

	msg := "query failed"
	if store.IsDataAccess(err) {
		msg = "data access failed"
	}
	s.log.Error(msg, fields)
}
