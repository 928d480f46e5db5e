package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model. It captures the
// HTTP surface, storage, write rate limiting, and the profile
// directory endpoint.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Directory DirectoryConfig `yaml:"directory"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Tokens maps bearer tokens to principal ids. This stands in for
	// the real session provider, which is outside this service.
	Tokens map[string]string `yaml:"tokens"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type RateLimitConfig struct {
	// At most Capacity posts per author in any window of WindowSeconds.
	WindowSeconds int `yaml:"windowSeconds"`
	Capacity      int `yaml:"capacity"`
	// FailOpen admits writes when the limiter backend itself fails.
	// Default is closed: the at-most-Capacity guarantee wins.
	FailOpen bool `yaml:"failOpen"`
}

// Window returns the sliding window length as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type DirectoryConfig struct {
	BaseURL string `yaml:"baseURL"`
	// Bearer token for the directory. If empty, read from env
	// CHIRPD_DIRECTORY_TOKEN.
	Token     string  `yaml:"token"`
	BatchSize int     `yaml:"batchSize"`
	RPS       float64 `yaml:"rps"`
	Burst     int     `yaml:"burst"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", Tokens: map[string]string{}},
		Storage: StorageConfig{DBPath: "./chirpd.db"},
		RateLimit: RateLimitConfig{WindowSeconds: 60, Capacity: 3, FailOpen: false},
		Directory: DirectoryConfig{
			BaseURL:   "http://localhost:9000",
			BatchSize: 100,
			RPS:       5,
			Burst:     10,
		},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Directory.Token == "" {
		c.Directory.Token = os.Getenv("CHIRPD_DIRECTORY_TOKEN")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("CHIRPD_METRICS_ADDR")
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
