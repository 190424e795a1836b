// Package config loads process configuration for the FAQ JSON-LD service.
// Values come from defaults, an optional faqjsonld.yaml, and FAQJ_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "FAQJ"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Site     SiteConfig     `mapstructure:"site"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Defaults SettingsSeed   `mapstructure:"defaults"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite3 (cgo), sqlite (pure Go) or libsql (Turso).
	Driver             string        `mapstructure:"driver"`
	DSN                string        `mapstructure:"dsn"`
	AuthToken          string        `mapstructure:"auth_token"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
}

type SiteConfig struct {
	// URL is the absolute base that relative FAQ urls are resolved against.
	URL string `mapstructure:"url"`
}

type CacheConfig struct {
	MaxEntries    int           `mapstructure:"max_entries"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type QueueConfig struct {
	Retention      time.Duration `mapstructure:"retention"`
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
	WorkerEnabled  bool          `mapstructure:"worker_enabled"`
	WorkerVerbose  bool          `mapstructure:"worker_verbose"`
	LogCap         int           `mapstructure:"log_cap"`
	SampleSize     int           `mapstructure:"sample_size"`
}

type AuthConfig struct {
	JWTSecret        string        `mapstructure:"jwt_secret"`
	OperatorPassword string        `mapstructure:"operator_password"`
	EditorPassword   string        `mapstructure:"editor_password"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
}

type LoggingConfig struct {
	Directory string `mapstructure:"directory"`
	ToFile    bool   `mapstructure:"to_file"`
	JSON      bool   `mapstructure:"json"`
	Level     string `mapstructure:"level"`
}

// SettingsSeed holds the values written to the settings record the first time
// the database is opened. After that the stored record wins.
type SettingsSeed struct {
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	BatchSize  int           `mapstructure:"batch_size"`
	OutputType string        `mapstructure:"output_type"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:             "sqlite3",
			DSN:                "faqjsonld.db",
			MaxOpenConns:       10,
			MaxIdleConns:       3,
			ConnMaxLifetime:    30 * time.Minute,
			ConnMaxIdleTime:    3 * time.Minute,
			SlowQueryThreshold: 200 * time.Millisecond,
		},
		Site: SiteConfig{
			URL: "http://localhost:8080",
		},
		Cache: CacheConfig{
			MaxEntries:    50000,
			SweepInterval: 5 * time.Minute,
		},
		Queue: QueueConfig{
			Retention:      24 * time.Hour,
			WorkerInterval: 5 * time.Minute,
			WorkerEnabled:  true,
			WorkerVerbose:  false,
			LogCap:         200,
			SampleSize:     20,
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
		Logging: LoggingConfig{
			Directory: "logs",
			ToFile:    false,
			JSON:      true,
			Level:     "info",
		},
		Defaults: SettingsSeed{
			CacheTTL:   12 * time.Hour,
			BatchSize:  500,
			OutputType: "FAQSection",
		},
	}
}

// defaultsMap flattens Default() into viper keys so AutomaticEnv can see every key.
func defaultsMap(d *Config) map[string]any {
	return map[string]any{
		"server.port":             d.Server.Port,
		"server.read_timeout":     d.Server.ReadTimeout,
		"server.write_timeout":    d.Server.WriteTimeout,
		"server.idle_timeout":     d.Server.IdleTimeout,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,
		"server.allowed_origins":  d.Server.AllowedOrigins,

		"database.driver":               d.Database.Driver,
		"database.dsn":                  d.Database.DSN,
		"database.auth_token":           d.Database.AuthToken,
		"database.max_open_conns":       d.Database.MaxOpenConns,
		"database.max_idle_conns":       d.Database.MaxIdleConns,
		"database.conn_max_lifetime":    d.Database.ConnMaxLifetime,
		"database.conn_max_idle_time":   d.Database.ConnMaxIdleTime,
		"database.slow_query_threshold": d.Database.SlowQueryThreshold,

		"site.url": d.Site.URL,

		"cache.max_entries":    d.Cache.MaxEntries,
		"cache.sweep_interval": d.Cache.SweepInterval,

		"queue.retention":       d.Queue.Retention,
		"queue.worker_interval": d.Queue.WorkerInterval,
		"queue.worker_enabled":  d.Queue.WorkerEnabled,
		"queue.worker_verbose":  d.Queue.WorkerVerbose,
		"queue.log_cap":         d.Queue.LogCap,
		"queue.sample_size":     d.Queue.SampleSize,

		"auth.jwt_secret":        d.Auth.JWTSecret,
		"auth.operator_password": d.Auth.OperatorPassword,
		"auth.editor_password":   d.Auth.EditorPassword,
		"auth.token_ttl":         d.Auth.TokenTTL,

		"logging.directory": d.Logging.Directory,
		"logging.to_file":   d.Logging.ToFile,
		"logging.json":      d.Logging.JSON,
		"logging.level":     d.Logging.Level,

		"defaults.cache_ttl":   d.Defaults.CacheTTL,
		"defaults.batch_size":  d.Defaults.BatchSize,
		"defaults.output_type": d.Defaults.OutputType,
	}
}

var secretKeys = map[string]bool{
	"auth.jwt_secret":        true,
	"auth.operator_password": true,
	"auth.editor_password":   true,
	"database.auth_token":    true,
}

// Load reads configuration. An empty path searches the usual locations for
// faqjsonld.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("faqjsonld")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.faqjsonld")
		}
		v.AddConfigPath("/etc/faqjsonld")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := defaultsMap(Default())
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Loading configuration overrides from %s", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	logOverrides(v, defaults)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func logOverrides(v *viper.Viper, defaults map[string]any) {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def := fmt.Sprint(defaults[key])
		val := fmt.Sprint(v.Get(key))
		if val == def {
			continue
		}
		if secretKeys[key] {
			log.Printf("Config override: %s=**** (set)", key)
			continue
		}
		log.Printf("Config override: %s=%s (default: %s)", key, val, def)
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case "sqlite3", "sqlite", "libsql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite3, sqlite or libsql", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required")
	}
	if c.Site.URL == "" || !strings.Contains(c.Site.URL, "://") {
		errs = append(errs, fmt.Sprintf("site.url %q must be an absolute URL", c.Site.URL))
	}
	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, "cache.max_entries must be positive")
	}
	if c.Queue.LogCap <= 0 {
		errs = append(errs, "queue.log_cap must be positive")
	}
	if c.Queue.Retention < 0 {
		errs = append(errs, "queue.retention must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
