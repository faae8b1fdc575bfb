// Package config loads matchboard settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/fortuna/matchboard/internal/store"
)

// Config holds all matchboard settings. Every key is prefixed MATCHBOARD_.
type Config struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	StoreDSN    string `env:"STORE_DSN" envDefault:"results.db"`

	// Schema picks the column layout; the Column* fields override single names.
	Schema             string `env:"SCHEMA" envDefault:"soccer"`
	ResultsTable       string `env:"RESULTS_TABLE"`
	ColumnLeague       string `env:"COLUMN_LEAGUE"`
	ColumnSeason       string `env:"COLUMN_SEASON"`
	ColumnPlayer       string `env:"COLUMN_PLAYER"`
	ColumnOpponent     string `env:"COLUMN_OPPONENT"`
	ColumnDate         string `env:"COLUMN_DATE"`
	ColumnScoreFor     string `env:"COLUMN_SCORE_FOR"`
	ColumnScoreAgainst string `env:"COLUMN_SCORE_AGAINST"`
	ColumnResult       string `env:"COLUMN_RESULT"`
	ColumnPoints       string `env:"COLUMN_POINTS"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	RESTPort     string `env:"REST_PORT" envDefault:"8050"`
	WSPort       string `env:"WS_PORT" envDefault:"8051"`
	DefaultLang  string `env:"DEFAULT_LANG" envDefault:"en"`
	TableMaxRows int    `env:"TABLE_MAX_ROWS" envDefault:"50"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

const envPrefix = "MATCHBOARD_"

// Load reads an optional .env file and then parses the environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse parses the environment into a Config and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.TableMaxRows <= 0 {
		return Config{}, fmt.Errorf("parse env: %sTABLE_MAX_ROWS must be positive, got %d", envPrefix, cfg.TableMaxRows)
	}
	if _, err := cfg.ResultsSchema(); err != nil {
		return Config{}, err
	}
	if _, err := language.Parse(cfg.DefaultLang); err != nil {
		return Config{}, fmt.Errorf("parse env: %sDEFAULT_LANG: %w", envPrefix, err)
	}
	return cfg, nil
}

// ResultsSchema returns the named schema with any table or column overrides applied.
func (c Config) ResultsSchema() (store.Schema, error) {
	schema, err := store.SchemaByName(c.Schema)
	if err != nil {
		return store.Schema{}, err
	}

	overrides := []struct {
		value string
		field *string
	}{
		{c.ResultsTable, &schema.Table},
		{c.ColumnLeague, &schema.League},
		{c.ColumnSeason, &schema.Season},
		{c.ColumnPlayer, &schema.Player},
		{c.ColumnOpponent, &schema.Opponent},
		{c.ColumnDate, &schema.Date},
		{c.ColumnScoreFor, &schema.ScoreFor},
		{c.ColumnScoreAgainst, &schema.ScoreAgainst},
		{c.ColumnResult, &schema.Result},
		{c.ColumnPoints, &schema.Points},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.field = o.value
		}
	}

	if err := schema.Validate(); err != nil {
		return store.Schema{}, fmt.Errorf("results schema: %w", err)
	}
	return schema, nil
}

// Language returns the default label language
func (c Config) Language() language.Tag {
	tag, err := language.Parse(c.DefaultLang)
	if err != nil {
		return language.English
	}
	return tag
}
