package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the XDG config directory.
const DefaultConfigFile = "config.yaml"

var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file. Unset fields keep their defaults.
type File struct {
	DataDir         string        `yaml:"data_dir,omitempty"`
	Backend         string        `yaml:"backend,omitempty"`
	Budget          time.Duration `yaml:"budget,omitempty"`
	Checkpoint      string        `yaml:"checkpoint,omitempty"`
	GeoTag          string        `yaml:"geo_tag,omitempty"`
	SeedLimit       int           `yaml:"seed_limit,omitempty"`
	BatchSize       int           `yaml:"batch_size,omitempty"`
	RequestInterval time.Duration `yaml:"request_interval,omitempty"`
	RetryInterval   time.Duration `yaml:"retry_interval,omitempty"`
	TokenFile       string        `yaml:"token_file,omitempty"`
	ProxyFile       string        `yaml:"proxy_file,omitempty"`
	APIURL          string        `yaml:"api_url,omitempty"`
	MetricsFile     string        `yaml:"metrics_file,omitempty"`
}

func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile returns configPath if given, otherwise the default file in
// the XDG config directory. An empty result means there is nothing to load.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	path := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// LoadDotEnv loads .env files into the environment before flags are parsed.
// Missing files are not an error.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

func (f *File) apply(cfg *AppConfig) {
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.Backend, f.Backend)
	if f.Budget != 0 {
		cfg.Budget = f.Budget
	}
	setString(&cfg.Checkpoint, f.Checkpoint)
	setString(&cfg.GeoTag, f.GeoTag)
	if f.SeedLimit != 0 {
		cfg.SeedLimit = f.SeedLimit
	}
	if f.BatchSize != 0 {
		cfg.BatchSize = f.BatchSize
	}
	if f.RequestInterval != 0 {
		cfg.RequestInterval = f.RequestInterval
	}
	if f.RetryInterval != 0 {
		cfg.RetryInterval = f.RetryInterval
	}
	setString(&cfg.TokenFile, f.TokenFile)
	setString(&cfg.ProxyFile, f.ProxyFile)
	setString(&cfg.APIURL, f.APIURL)
	setString(&cfg.MetricsFile, f.MetricsFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
