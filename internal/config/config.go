// Package config provides configuration loading, validation and hot reload for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

// EnvPrefix prefixes every environment override, e.g. SCREENER_SERVER_ADDR
const EnvPrefix = "SCREENER"

// Config represents the full application configuration.
// Every field has a default; a config file and environment variables override them.
type Config struct {
	Scoring   types.ScoringConfig `mapstructure:"scoring"`
	Server    ServerConfig        `mapstructure:"server"`
	Database  DatabaseConfig      `mapstructure:"database"`
	Log       LogConfig           `mapstructure:"log"`
	Metrics   MetricsConfig       `mapstructure:"metrics"`
	RateLimit RateLimitConfig     `mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxCandidates   int           `mapstructure:"max_candidates"` // per run request
	CORSOrigins     []string      `mapstructure:"cors_origins"`

	// Finished sessions leave memory after SessionTTL or beyond MaxSessions when a database is configured
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

// DatabaseConfig configures persistence. An empty URL keeps sessions in memory only.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig configures per-client token buckets on the HTTP API
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	Burst             int      `mapstructure:"burst"`
	AllowIPs          []string `mapstructure:"allow_ips"` // never limited
	DenyIPs           []string `mapstructure:"deny_ips"`  // always rejected
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	scoring := types.DefaultScoringConfig()
	for name, w := range scoring.Weights {
		v.SetDefault("scoring.weights."+name, w)
	}
	v.SetDefault("scoring.bias_check", scoring.BiasCheck)
	v.SetDefault("scoring.concurrency", scoring.Concurrency)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_candidates", 1000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.session_ttl", time.Hour)
	v.SetDefault("server.max_sessions", 500)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.allow_ips", []string{})
	v.SetDefault("rate_limit.deny_ips", []string{})
}

// Loader reads configuration through a viper instance
type Loader struct {
	v *viper.Viper
}

// NewLoader wraps v, or a fresh viper instance when v is nil
func NewLoader(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load reads the config file at path, or screener.yaml in the working directory when path is empty.
// A missing default file is not an error.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.AddConfigPath(".")
		l.v.SetConfigName("screener")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File returns the config file in use, or "" when running on defaults
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch re-reads the config file whenever it changes and passes valid configurations to onChange.
// Invalid edits are logged and ignored. It returns false when no config file is in use.
func (l *Loader) Watch(logger *zap.Logger, onChange func(*Config)) bool {
	if l.File() == "" {
		return false
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			logger.Warn("ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.String("file", e.Name))
		onChange(cfg)
	})
	l.v.WatchConfig()
	return true
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	if len(c.Scoring.Weights) == 0 {
		return fmt.Errorf("config error: 'scoring.weights' must name at least one dimension")
	}
	dims := ranking.DefaultRegistry()
	for name, w := range c.Scoring.Weights {
		if _, ok := dims.Get(name); !ok {
			return fmt.Errorf("config error: 'scoring.weights.%s' is not a known dimension (known: %s)",
				name, strings.Join(dims.Names(), ", "))
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("config error: weight for %q must be a non-negative number", name)
		}
	}
	if c.Scoring.Concurrency < 0 {
		return fmt.Errorf("config error: 'scoring.concurrency' must be non-negative")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("config error: 'server.addr' is required")
	}
	if c.Server.MaxCandidates < 0 {
		return fmt.Errorf("config error: 'server.max_candidates' must be non-negative")
	}
	if c.Server.SessionTTL < 0 || c.Server.MaxSessions < 0 {
		return fmt.Errorf("config error: 'server.session_ttl' and 'server.max_sessions' must be non-negative")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("config error: 'database.max_conns' must be non-negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("config error: 'rate_limit.requests_per_second' must be positive")
		}
		if c.RateLimit.Burst < 1 {
			return fmt.Errorf("config error: 'rate_limit.burst' must be at least 1")
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("config error: 'metrics.path' must start with '/'")
	}

	return nil
}
