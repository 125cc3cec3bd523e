package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"cdr-tool/internal/content/editions"
	"gopkg.in/yaml.v3"
)

// Content sources.
const (
	SourceEmbedded = "embedded"
	SourceDir      = "dir"
	SourcePostgres = "postgres"
	SourceMongo    = "mongo"
)

// Result store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Content struct {
		Source         string `yaml:"source"`
		Dir            string `yaml:"dir"`
		DefaultEdition string `yaml:"default_edition"`
		TTL            string `yaml:"ttl"`
	} `yaml:"content"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI        string `yaml:"uri"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"mongo"`
	Results struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"results"`
	Scoring struct {
		ImprovementOnSkip *bool `yaml:"improvement_on_skip"`
	} `yaml:"scoring"`
	Survey struct {
		AllowLeaveCategory bool `yaml:"allow_leave_category"`
	} `yaml:"survey"`
	Glossary struct {
		Strict bool `yaml:"strict"`
	} `yaml:"glossary"`
}

// Default returns the configuration used when no file is present: embedded
// content, in-memory results.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Content.Source == "" {
		c.Content.Source = SourceEmbedded
	}
	if c.Content.DefaultEdition == "" {
		c.Content.DefaultEdition = editions.Current
	}
	if c.Results.Driver == "" {
		c.Results.Driver = DriverMemory
	}
	if c.Results.SQLitePath == "" {
		c.Results.SQLitePath = "cdr-results.db"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "cdr"
	}
	if c.Scoring.ImprovementOnSkip == nil {
		on := true
		c.Scoring.ImprovementOnSkip = &on
	}
}

// ImprovementOnSkip reports whether skipped rules also show the improvement text.
func (c Config) ImprovementOnSkip() bool {
	return c.Scoring.ImprovementOnSkip == nil || *c.Scoring.ImprovementOnSkip
}

// Validate rejects unknown sources and drivers and missing connection settings.
func (c Config) Validate() error {
	var errs []error
	switch c.Content.Source {
	case SourceEmbedded:
	case SourceDir:
		if c.Content.Dir == "" {
			errs = append(errs, errors.New("content.dir is required for source dir"))
		}
	case SourcePostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres.url is required for source postgres"))
		}
	case SourceMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo.uri is required for source mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown content.source %q", c.Content.Source))
	}

	switch c.Results.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres.url is required for results driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown results.driver %q", c.Results.Driver))
	}

	for name, raw := range map[string]string{"content.ttl": c.Content.TTL, "redis.ttl": c.Redis.TTL} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
