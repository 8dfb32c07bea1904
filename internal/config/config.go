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

// Config holds the gateway configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Primary     PrimaryConfig     `yaml:"primary"`
	Seed        SeedConfig        `yaml:"seed"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit"`
	Recommender RecommenderConfig `yaml:"recommender"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds cache-tier connection settings.
type CacheConfig struct {
	Addrs        []string `yaml:"addrs"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	DB           int      `yaml:"db"`
	OpTimeoutSec int      `yaml:"op_timeout_sec"`
}

// PrimaryConfig holds primary-store connection settings.
type PrimaryConfig struct {
	URI          string `yaml:"uri"`
	Database     string `yaml:"database"`
	Collection   string `yaml:"collection"`
	OpTimeoutSec int    `yaml:"op_timeout_sec"`
}

// SeedConfig holds startup seeding settings.
type SeedConfig struct {
	Enabled   bool `yaml:"enabled"`
	Target    int  `yaml:"target"`
	BatchSize int  `yaml:"batch_size"`
}

// RateLimitConfig holds request-limiter settings.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
}

// RecommenderConfig holds similarity-model settings. An empty artifact
// path or API key disables the model entirely.
type RecommenderConfig struct {
	ArtifactPath string `yaml:"artifact_path"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.Cache.Addrs) == 0 {
		c.Cache.Addrs = []string{"127.0.0.1:6379"}
	}
	if c.Cache.OpTimeoutSec <= 0 {
		c.Cache.OpTimeoutSec = 1
	}
	if c.Primary.URI == "" {
		c.Primary.URI = "mongodb://127.0.0.1:27017"
	}
	if c.Primary.Database == "" {
		c.Primary.Database = "catalog"
	}
	if c.Primary.Collection == "" {
		c.Primary.Collection = "products"
	}
	if c.Primary.OpTimeoutSec <= 0 {
		c.Primary.OpTimeoutSec = 3
	}
	if c.Seed.Target <= 0 {
		c.Seed.Target = 2000
	}
	if c.Seed.BatchSize <= 0 {
		c.Seed.BatchSize = 400
	}
	if c.RateLimit.PerMinute <= 0 {
		c.RateLimit.PerMinute = 60
	}
	if c.Recommender.Model == "" {
		c.Recommender.Model = "text-embedding-3-small"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Seed.BatchSize > c.Seed.Target {
		return fmt.Errorf("seed.batch_size %d exceeds seed.target %d", c.Seed.BatchSize, c.Seed.Target)
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
