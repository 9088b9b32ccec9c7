package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchdeck server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Backend  BackendConfig  `yaml:"backend"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Sessions SessionConfig  `yaml:"sessions"`
	Features FeaturesConfig `yaml:"features"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // 0 keeps streamed searches open
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// BackendConfig holds search backend settings.
type BackendConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"` // time to response headers
}

// CacheConfig holds resource cache settings.
type CacheConfig struct {
	Driver                   string   `yaml:"driver"` // memory, redis, valkey (default: memory)
	Addrs                    []string `yaml:"addrs"`
	Username                 string   `yaml:"username"`
	Password                 string   `yaml:"password"`
	DB                       int      `yaml:"db"`
	Standalone               bool     `yaml:"standalone"`
	ReadinessTimeout         int      `yaml:"readiness_timeout_sec"`
	SnapshotTTLSec           int      `yaml:"snapshot_ttl_sec"`
	IndexingStatusRefreshSec int      `yaml:"indexing_status_refresh_sec"`
}

// SearchConfig describes what users can search.
type SearchConfig struct {
	DefaultSearchType string              `yaml:"default_search_type"` // semantic, keyword, hybrid
	Sources           []string            `yaml:"sources"`
	DocumentSets      []DocumentSetConfig `yaml:"document_sets"`
	Personas          []PersonaConfig     `yaml:"personas"`
}

// DocumentSetConfig is a named document set.
type DocumentSetConfig struct {
	ID      int64    `yaml:"id"`
	Name    string   `yaml:"name"`
	Sources []string `yaml:"sources"`
}

// PersonaConfig is a persona; DocumentSets reference SearchConfig.DocumentSets by name.
type PersonaConfig struct {
	ID           int64    `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	DocumentSets []string `yaml:"document_sets"`
}

// SessionConfig holds BFF search session settings.
type SessionConfig struct {
	IdleTTLSec int `yaml:"idle_ttl_sec"`
}

// FeaturesConfig toggles optional capabilities.
type FeaturesConfig struct {
	EnterpriseEnabled bool `yaml:"enterprise_enabled"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backend.TimeoutSec <= 0 {
		c.Backend.TimeoutSec = 30
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.SnapshotTTLSec <= 0 {
		c.Cache.SnapshotTTLSec = 600
	}
	if c.Cache.IndexingStatusRefreshSec <= 0 {
		c.Cache.IndexingStatusRefreshSec = 30
	}
	if c.Search.DefaultSearchType == "" {
		c.Search.DefaultSearchType = "semantic"
	}
	if c.Sessions.IdleTTLSec <= 0 {
		c.Sessions.IdleTTLSec = 1800
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis", "valkey":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be \"memory\", \"redis\" or \"valkey\", got %q", c.Cache.Driver)
	}
	switch c.Search.DefaultSearchType {
	case "semantic", "keyword", "hybrid":
	default:
		return fmt.Errorf("search.default_search_type must be semantic, keyword or hybrid, got %q", c.Search.DefaultSearchType)
	}

	sets := make(map[string]struct{}, len(c.Search.DocumentSets))
	for _, ds := range c.Search.DocumentSets {
		sets[ds.Name] = struct{}{}
	}
	ids := make(map[int64]struct{}, len(c.Search.Personas))
	for _, p := range c.Search.Personas {
		if _, dup := ids[p.ID]; dup {
			return fmt.Errorf("search.personas: duplicate id %d", p.ID)
		}
		ids[p.ID] = struct{}{}
		for _, name := range p.DocumentSets {
			if _, ok := sets[name]; !ok {
				return fmt.Errorf("search.personas.%s: unknown document set %q", p.Name, name)
			}
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
