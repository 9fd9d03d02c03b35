package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Scanner  ScannerConfig
	Cache    CacheConfig
	Stores   StoresConfig
	Sheets   SheetsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ScannerConfig carries the order lookup and deduplication knobs.
type ScannerConfig struct {
	MaxDigits       int           // max digits in a cleaned order number
	OrderCutoffDays int           // max age of an upstream order to resolve to
	RetryAttempts   int           // per-store lookup attempts
	RetryDelay      time.Duration // base linear-backoff delay between attempts
	RequestTimeout  time.Duration // per-call budget against a store API
	RecentScanDays  int           // order-identity dedup window
	PhoneWindowDays int           // phone dedup window, independent of RecentScanDays
}

// CacheConfig holds resolution cache settings
type CacheConfig struct {
	Backend string // memory or redis
	TTL     time.Duration
}

// StoresConfig holds the upstream store credential source. JSON carries the
// structured blob form; when empty the registry falls back to scanning the
// environment for <ID>_API_KEY/_PASSWORD/_DOMAIN triplets.
type StoresConfig struct {
	JSON string
}

// SheetsConfig holds the spreadsheet export sink settings. Export is
// disabled when SpreadsheetID or the credentials are empty.
type SheetsConfig struct {
	SpreadsheetID     string
	Worksheet         string
	CredentialsBase64 string // base64-encoded service account JSON
	QueueSize         int
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SCANNER_ prefix (e.g. SCANNER_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SCANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Scanner: ScannerConfig{
			MaxDigits:       v.GetInt("scanner.max_digits"),
			OrderCutoffDays: v.GetInt("scanner.order_cutoff_days"),
			RetryAttempts:   v.GetInt("scanner.retry_attempts"),
			RetryDelay:      v.GetDuration("scanner.retry_delay"),
			RequestTimeout:  v.GetDuration("scanner.request_timeout"),
			RecentScanDays:  v.GetInt("scanner.recent_scan_days"),
			PhoneWindowDays: v.GetInt("scanner.phone_window_days"),
		},
		Cache: CacheConfig{
			Backend: v.GetString("cache.backend"),
			TTL:     v.GetDuration("cache.ttl"),
		},
		Stores: StoresConfig{
			JSON: v.GetString("stores.json"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:     v.GetString("sheets.spreadsheet_id"),
			Worksheet:         v.GetString("sheets.worksheet"),
			CredentialsBase64: v.GetString("sheets.credentials_b64"),
			QueueSize:         v.GetInt("sheets.queue_size"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "order-scanner"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "scanner"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.Scanner.MaxDigits == 0 {
		cfg.Scanner.MaxDigits = 6
	}
	if cfg.Scanner.OrderCutoffDays == 0 {
		cfg.Scanner.OrderCutoffDays = 50
	}
	if cfg.Scanner.RetryAttempts == 0 {
		cfg.Scanner.RetryAttempts = 3
	}
	if cfg.Scanner.RetryDelay == 0 {
		cfg.Scanner.RetryDelay = time.Second
	}
	if cfg.Scanner.RequestTimeout == 0 {
		cfg.Scanner.RequestTimeout = 15 * time.Second
	}
	if cfg.Scanner.RecentScanDays == 0 {
		cfg.Scanner.RecentScanDays = 7
	}
	if cfg.Scanner.PhoneWindowDays == 0 {
		cfg.Scanner.PhoneWindowDays = 3
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 300 * time.Second
	}
	if cfg.Sheets.Worksheet == "" {
		cfg.Sheets.Worksheet = "Scans"
	}
	if cfg.Sheets.QueueSize == 0 {
		cfg.Sheets.QueueSize = 256
	}
}

// validate checks configuration consistency
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Scanner.MaxDigits < 1 {
		return fmt.Errorf("scanner.max_digits must be positive")
	}
	if c.Scanner.RetryAttempts < 1 {
		return fmt.Errorf("scanner.retry_attempts must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for Redis
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
