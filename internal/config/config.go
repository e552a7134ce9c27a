// Package config loads the server configuration from a YAML file, an
// optional .env file and REALTY_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSON     = "json"
)

// Config holds the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Backup   BackupConfig   `yaml:"backup"`
}

type ServerConfig struct {
	Port    int    `yaml:"port"`
	DevMode bool   `yaml:"dev_mode"`
	BaseURL string `yaml:"base_url"`
	// RateLimit is the number of API requests one client may make per
	// 15 minutes. Zero disables limiting.
	RateLimit int `yaml:"rate_limit"`
}

// StoreConfig selects where listings live. Customers, contact submissions
// and blog posts always use the SQL database (sqlite_path or postgres).
type StoreConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
	JSONPath   string `yaml:"json_path"`
}

type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig enables the result cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SMTPConfig enables contact notifications when Host and NotifyTo are set.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"pass"`
	From     string `yaml:"from"`
	NotifyTo string `yaml:"notify_to"`
}

// Enabled reports whether notifications can be sent.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.NotifyTo != ""
}

// BackupConfig enables scheduled JSON backups when Schedule is set.
type BackupConfig struct {
	Schedule string `yaml:"schedule"` // standard 5-field cron spec or @every/@daily
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"`
}

// DataDir returns ~/.realty, the default home of local data files.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".realty"), nil
}

// DefaultPath returns the default config file: ~/.config/realty/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "realty", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	dir, err := DataDir()
	if err != nil {
		dir = ".realty"
	}
	return &Config{
		Server: ServerConfig{Port: 8080, BaseURL: "http://localhost:8080", RateLimit: 100},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: filepath.Join(dir, "realty.db"),
			JSONPath:   filepath.Join(dir, "properties.json"),
		},
		Postgres: PostgresConfig{MaxOpenConns: 10, MaxIdleConns: 2},
		Redis:    RedisConfig{TTL: 5 * time.Minute},
		SMTP:     SMTPConfig{Port: "587"},
		Backup:   BackupConfig{Dir: filepath.Join(dir, "backups"), Keep: 14},
	}
}

// Load reads the configuration. An empty path means DefaultPath, which may
// be absent; an explicit path must exist. envFiles are loaded with
// godotenv when present and never override variables already set.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid boolean %q", key, v))
				return
			}
			*dst = b
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
				return
			}
			*dst = d
		}
	}

	setInt("REALTY_PORT", &c.Server.Port)
	setBool("REALTY_DEV_MODE", &c.Server.DevMode)
	setString("REALTY_BASE_URL", &c.Server.BaseURL)
	setInt("REALTY_RATE_LIMIT", &c.Server.RateLimit)

	setString("REALTY_STORE", &c.Store.Backend)
	setString("REALTY_SQLITE_PATH", &c.Store.SQLitePath)
	setString("REALTY_JSON_PATH", &c.Store.JSONPath)

	setString("REALTY_POSTGRES_DSN", &c.Postgres.DSN)
	setInt("REALTY_POSTGRES_MAX_OPEN", &c.Postgres.MaxOpenConns)
	setInt("REALTY_POSTGRES_MAX_IDLE", &c.Postgres.MaxIdleConns)

	setString("REALTY_REDIS_ADDR", &c.Redis.Addr)
	setString("REALTY_REDIS_PASSWORD", &c.Redis.Password)
	setInt("REALTY_REDIS_DB", &c.Redis.DB)
	setDuration("REALTY_CACHE_TTL", &c.Redis.TTL)

	setString("REALTY_SMTP_HOST", &c.SMTP.Host)
	setString("REALTY_SMTP_PORT", &c.SMTP.Port)
	setString("REALTY_SMTP_USER", &c.SMTP.User)
	setString("REALTY_SMTP_PASS", &c.SMTP.Pass)
	setString("REALTY_SMTP_FROM", &c.SMTP.From)
	setString("REALTY_NOTIFY_TO", &c.SMTP.NotifyTo)

	setString("REALTY_BACKUP_SCHEDULE", &c.Backup.Schedule)
	setString("REALTY_BACKUP_DIR", &c.Backup.Dir)
	setInt("REALTY_BACKUP_KEEP", &c.Backup.Keep)

	return errors.Join(errs...)
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	if c.Server.RateLimit < 0 {
		problems = append(problems, "server.rate_limit must not be negative")
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case BackendSQLite, BackendJSON:
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required")
		}
		if c.Store.Backend == BackendJSON && c.Store.JSONPath == "" {
			problems = append(problems, "store.json_path is required for the json backend")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			problems = append(problems, "postgres.dsn is required for the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q must be sqlite, postgres or json", c.Store.Backend))
	}

	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		problems = append(problems, "redis.ttl must be positive")
	}

	if c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("backup.schedule: %v", err))
		}
		if c.Backup.Dir == "" {
			problems = append(problems, "backup.dir is required when backup.schedule is set")
		}
	}
	if c.Backup.Keep < 0 {
		problems = append(problems, "backup.keep must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
