package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
)

// Config holds the tosarchive API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Cache     CacheConfig     `yaml:"cache"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	BasePath        string   `yaml:"base_path"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// CorpusConfig locates the snapshot tree.
type CorpusConfig struct {
	Root            string `yaml:"root"`
	TimestampLayout string `yaml:"timestamp_layout"` // Go reference layout of snapshot file names
	ReadmeFilename  string `yaml:"readme_filename"`
	IndexCache      bool   `yaml:"index_cache"`
}

// ScannerConfig tunes full-corpus term scans.
type ScannerConfig struct {
	Workers      int    `yaml:"workers"` // 0 = GOMAXPROCS
	MaxLineBytes int    `yaml:"max_line_bytes"`
	OnUnreadable string `yaml:"on_unreadable"` // "abort" (default) | "skip"
}

// CacheConfig holds the scan result cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none (default), redis
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// DatasetConfig points at the release marker and the taxonomy URL.
type DatasetConfig struct {
	MarkerPath string `yaml:"marker_path"`
	DoctypeURL string `yaml:"doctype_url"`
}

// RateLimitConfig holds per-client request limits. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// Scanner on_unreadable values.
const (
	OnUnreadableAbort = "abort"
	OnUnreadableSkip  = "skip"
)

// Cache drivers.
const (
	CacheNone  = "none"
	CacheRedis = "redis"
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120 // full scans are slow on large corpora
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	c.HTTP.BasePath = strings.TrimRight(c.HTTP.BasePath, "/")
	if c.Corpus.TimestampLayout == "" {
		c.Corpus.TimestampLayout = snapshot.DefaultLayout
	}
	if c.Corpus.ReadmeFilename == "" {
		c.Corpus.ReadmeFilename = "README.md"
	}
	if c.Scanner.OnUnreadable == "" {
		c.Scanner.OnUnreadable = OnUnreadableAbort
	}
	if c.Scanner.MaxLineBytes <= 0 {
		c.Scanner.MaxLineBytes = 16 << 20
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 24 * 60 * 60
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = c.RateLimit.RequestsPerMinute
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.BasePath != "" && !strings.HasPrefix(c.HTTP.BasePath, "/") {
		return fmt.Errorf("http.base_path must start with \"/\", got %q", c.HTTP.BasePath)
	}
	if c.Corpus.Root == "" {
		return errors.New("corpus.root is required")
	}
	if _, err := snapshot.NewLayout(c.Corpus.TimestampLayout); err != nil {
		return fmt.Errorf("corpus.timestamp_layout: %w", err)
	}
	if c.Scanner.Workers < 0 {
		return fmt.Errorf("scanner.workers must not be negative, got %d", c.Scanner.Workers)
	}
	switch c.Scanner.OnUnreadable {
	case OnUnreadableAbort, OnUnreadableSkip:
	default:
		return fmt.Errorf("scanner.on_unreadable must be %q or %q, got %q",
			OnUnreadableAbort, OnUnreadableSkip, c.Scanner.OnUnreadable)
	}
	switch c.Cache.Driver {
	case CacheNone:
	case CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return errors.New("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be %q or %q, got %q", CacheNone, CacheRedis, c.Cache.Driver)
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must not be negative, got %d", c.RateLimit.RequestsPerMinute)
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
