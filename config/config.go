package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Snippet SnippetConfig `yaml:"snippet"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxRequestBytes int64         `yaml:"maxRequestBytes"`
}

// StorageConfig controls where snapshots live and how they are written.
type StorageConfig struct {
	DataDir  string `yaml:"dataDir"`
	Compress bool   `yaml:"compress"`
	// LoadOnStart restores the last snapshot when the server starts.
	LoadOnStart bool `yaml:"loadOnStart"`
}

// LoggingConfig controls structured logging level, output format and the
// optional Seq sink.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	SeqURL string `yaml:"seqUrl"`
}

// SnippetConfig holds excerpt defaults for query responses.
type SnippetConfig struct {
	DefaultWidth int  `yaml:"defaultWidth"`
	MaxResults   int  `yaml:"maxResults"`
	HTMLEscape   bool `yaml:"htmlEscape"`
}

// JobsConfig bounds background work.
type JobsConfig struct {
	MaxWorkers int `yaml:"maxWorkers"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from the command line
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxRequestBytes: 10 << 20,
		},
		Storage: StorageConfig{
			DataDir:     "./data",
			Compress:    true,
			LoadOnStart: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Snippet: SnippetConfig{
			DefaultWidth: 100,
			MaxResults:   3,
		},
		Jobs: JobsConfig{
			MaxWorkers: 2,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports every invalid value.
func (c *Config) Validate() []string {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Storage.DataDir == "" {
		problems = append(problems, "storage.dataDir cannot be empty")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format '%s' must be 'text' or 'json'", c.Logging.Format))
	}
	if c.Snippet.DefaultWidth <= 0 {
		problems = append(problems, "snippet.defaultWidth must be positive")
	}
	if c.Snippet.MaxResults <= 0 {
		problems = append(problems, "snippet.maxResults must be positive")
	}
	if c.Jobs.MaxWorkers <= 0 {
		problems = append(problems, "jobs.maxWorkers must be positive")
	}
	return problems
}

// applyEnvOverrides reads CS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CS_STORAGE_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("CS_STORAGE_COMPRESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.Compress = b
		}
	}
	if v := os.Getenv("CS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CS_LOGGING_SEQ_URL"); v != "" {
		cfg.Logging.SeqURL = v
	}
	if v := os.Getenv("CS_JOBS_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Jobs.MaxWorkers = n
		}
	}
	if v := os.Getenv("CS_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}
