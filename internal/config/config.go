// Package config provides configuration loading and validation for the aggregator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultReadmeURL       = "https://raw.githubusercontent.com/lirantal/awesome-opensource-israel/master/README.md"
	DefaultGraphQLURL      = "https://api.github.com/graphql"
	DefaultCacheMaxAge     = 72 * time.Hour
	DefaultRefreshInterval = 3 * time.Hour
	DefaultConcurrency     = 8
	DefaultEnrichTimeout   = 20 * time.Second
	DefaultPort            = 8080
)

// Duration is a time.Duration that reads as "90s" or "3h" from JSON and YAML.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"3h\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the aggregator configuration. Every field is optional in a file;
// MergeWithDefaults fills what is left unset.
type Config struct {
	// Upstream
	ReadmeURL  string `json:"readme_url,omitempty" yaml:"readme_url" validate:"omitempty,url"`
	GraphQLURL string `json:"graphql_url,omitempty" yaml:"graphql_url" validate:"omitempty,url"`
	Token      string `json:"github_token,omitempty" yaml:"github_token"` // read-only API token

	// Storage
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url"`

	// Refresh
	CacheMaxAge       Duration `json:"cache_max_age,omitempty" yaml:"cache_max_age" validate:"gte=0"`
	RefreshInterval   Duration `json:"refresh_interval,omitempty" yaml:"refresh_interval" validate:"gte=0"`
	EnrichConcurrency int      `json:"enrich_concurrency,omitempty" yaml:"enrich_concurrency" validate:"gte=0,lte=64"`
	EnrichTimeout     Duration `json:"enrich_timeout,omitempty" yaml:"enrich_timeout" validate:"gte=0"`

	// Server
	Port int `json:"port,omitempty" yaml:"port" validate:"gte=0,lte=65535"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose"`
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields with any of the recognized environment variables.
// Malformed numeric or duration values are reported rather than ignored.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("README_URL"); v != "" {
		c.ReadmeURL = v
	}
	if v := os.Getenv("GITHUB_GRAPHQL_URL"); v != "" {
		c.GraphQLURL = v
	}
	if v := os.Getenv("GITHUB_READ_ONLY"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}

	durations := map[string]*Duration{
		"CACHE_MAX_AGE":    &c.CacheMaxAge,
		"REFRESH_INTERVAL": &c.RefreshInterval,
		"ENRICH_TIMEOUT":   &c.EnrichTimeout,
	}
	for key, field := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config error: %s: %w", key, err)
			}
			*field = Duration(d)
		}
	}

	ints := map[string]*int{
		"ENRICH_CONCURRENCY": &c.EnrichConcurrency,
		"PORT":               &c.Port,
	}
	for key, field := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config error: %s: %w", key, err)
			}
			*field = n
		}
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Required fields are checked by the commands that need them.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.ReadmeURL == "" {
		result.ReadmeURL = defaults.ReadmeURL
	}
	if result.GraphQLURL == "" {
		result.GraphQLURL = defaults.GraphQLURL
	}
	if result.Token == "" {
		result.Token = defaults.Token
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.CacheMaxAge == 0 {
		result.CacheMaxAge = defaults.CacheMaxAge
	}
	if result.RefreshInterval == 0 {
		result.RefreshInterval = defaults.RefreshInterval
	}
	if result.EnrichConcurrency == 0 {
		result.EnrichConcurrency = defaults.EnrichConcurrency
	}
	if result.EnrichTimeout == 0 {
		result.EnrichTimeout = defaults.EnrichTimeout
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ReadmeURL:         DefaultReadmeURL,
		GraphQLURL:        DefaultGraphQLURL,
		CacheMaxAge:       Duration(DefaultCacheMaxAge),
		RefreshInterval:   Duration(DefaultRefreshInterval),
		EnrichConcurrency: DefaultConcurrency,
		EnrichTimeout:     Duration(DefaultEnrichTimeout),
		Port:              DefaultPort,
	}
}

// Load resolves the configuration from an optional file, the environment and
// the defaults, then validates it. Flags are applied by the caller afterwards.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
