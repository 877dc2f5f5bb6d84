package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/urfave/cli/v2"
)

const (
	AppName = "iceslurp"

	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	CheckpointEach = "each"
	CheckpointEnd  = "end"

	DefaultBudget          = 14 * time.Hour
	DefaultGeoTag          = "Iceland"
	DefaultSeedLimit       = 100
	DefaultBatchSize       = 100
	DefaultRequestInterval = 750 * time.Millisecond
	DefaultRetryInterval   = 5 * time.Second
)

type AppConfig struct {
	Token     string
	TokenFile string
	ProxyFile string
	APIURL    string

	ConfigFile string
	DataDir    string
	Backend    string

	Budget          time.Duration
	Checkpoint      string
	GeoTag          string
	SeedLimit       int
	BatchSize       int
	RequestInterval time.Duration
	RetryInterval   time.Duration

	MetricsFile string
	Verbose     bool
	Env         string
}

func Defaults() *AppConfig {
	return &AppConfig{
		DataDir:         XDGDataDir(),
		Backend:         BackendJSON,
		Budget:          DefaultBudget,
		Checkpoint:      CheckpointEach,
		GeoTag:          DefaultGeoTag,
		SeedLimit:       DefaultSeedLimit,
		BatchSize:       DefaultBatchSize,
		RequestInterval: DefaultRequestInterval,
		RetryInterval:   DefaultRetryInterval,
		Env:             "development",
	}
}

// XDGDataDir is where crawl state lives unless --data-dir says otherwise.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ParseConfig layers defaults, the YAML file and explicitly set flags (or
// their environment variables), in that order of precedence.
func ParseConfig(c *cli.Context) (*AppConfig, error) {
	cfg := Defaults()
	cfg.ConfigFile = c.String("config")

	if path := FindConfigFile(cfg.ConfigFile); path != "" {
		file, err := LoadConfigFile(path)
		switch {
		case errors.Is(err, ErrConfigNotFound):
			return nil, fmt.Errorf("%w: %s", err, path)
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		file.apply(cfg)
		cfg.ConfigFile = path
	}

	stringFlags := map[string]*string{
		"token":        &cfg.Token,
		"token-file":   &cfg.TokenFile,
		"proxy-file":   &cfg.ProxyFile,
		"api-url":      &cfg.APIURL,
		"data-dir":     &cfg.DataDir,
		"backend":      &cfg.Backend,
		"checkpoint":   &cfg.Checkpoint,
		"geo-tag":      &cfg.GeoTag,
		"metrics-file": &cfg.MetricsFile,
		"env":          &cfg.Env,
	}
	for name, dst := range stringFlags {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	durationFlags := map[string]*time.Duration{
		"budget":           &cfg.Budget,
		"request-interval": &cfg.RequestInterval,
		"retry-interval":   &cfg.RetryInterval,
	}
	for name, dst := range durationFlags {
		if c.IsSet(name) {
			*dst = c.Duration(name)
		}
	}

	if c.IsSet("seed-limit") {
		cfg.SeedLimit = c.Int("seed-limit")
	}
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	cfg.Verbose = c.Bool("verbose")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.DataDir == "" {
		return ErrNoDataDir
	}
	if c.Backend != BackendJSON && c.Backend != BackendSQLite {
		return ErrInvalidBackend
	}
	if c.Budget < 0 {
		return ErrInvalidBudget
	}
	if c.Checkpoint != CheckpointEach && c.Checkpoint != CheckpointEnd {
		return ErrInvalidCheckpoint
	}
	if c.GeoTag == "" {
		return ErrEmptyGeoTag
	}
	if c.SeedLimit <= 0 || c.SeedLimit > 100 {
		return ErrInvalidSeedLimit
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.RequestInterval < 0 || c.RetryInterval < 0 {
		return ErrInvalidInterval
	}
	return nil
}
