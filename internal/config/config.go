package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aqasim81/cql-migrate/internal/database"
)

// Default values for configuration fields.
const (
	DefaultMigrationsDir   = "./migrations"
	DefaultMigrationsTable = "schema_migrations"
	DefaultConsistency     = database.DefaultConsistency
	DefaultTimeout         = database.DefaultTimeout
	DefaultConnectTimeout  = database.DefaultConnectTimeout
	DefaultLockTTL         = database.DefaultLockTTL
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"

	envPrefix = "CQLMIGRATE_"
)

// ErrNoContactPoints is returned when neither a database URL nor hosts are configured.
var ErrNoContactPoints = errors.New(
	"no contact points (set --database-url, --hosts, CQLMIGRATE_DATABASE_URL, or database_url/hosts in config)",
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL     string
	Hosts           []string
	Keyspace        string
	MigrationsDir   string
	MigrationsTable string
	Consistency     string
	Timeout         time.Duration
	ConnectTimeout  time.Duration
	Username        string
	Password        string
	Lock            bool
	LockTTL         time.Duration
	LogLevel        string
	LogFormat       string
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	DatabaseURL     string   `yaml:"database_url"`
	Hosts           []string `yaml:"hosts"`
	Keyspace        string   `yaml:"keyspace"`
	MigrationsDir   string   `yaml:"migrations_dir"`
	MigrationsTable string   `yaml:"migrations_table"`
	Consistency     string   `yaml:"consistency"`
	Timeout         string   `yaml:"timeout"`
	ConnectTimeout  string   `yaml:"connect_timeout"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	Lock            *bool    `yaml:"lock"`
	LockTTL         string   `yaml:"lock_ttl"`
	LogLevel        string   `yaml:"log_level"`
	LogFormat       string   `yaml:"log_format"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		MigrationsDir:   DefaultMigrationsDir,
		MigrationsTable: DefaultMigrationsTable,
		Consistency:     DefaultConsistency,
		Timeout:         DefaultTimeout,
		ConnectTimeout:  DefaultConnectTimeout,
		Lock:            true,
		LockTTL:         DefaultLockTTL,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.DatabaseURL, raw.DatabaseURL)
	setString(&cfg.Keyspace, raw.Keyspace)
	setString(&cfg.MigrationsDir, raw.MigrationsDir)
	setString(&cfg.MigrationsTable, raw.MigrationsTable)
	setString(&cfg.Consistency, raw.Consistency)
	setString(&cfg.Username, raw.Username)
	setString(&cfg.Password, raw.Password)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)

	if len(raw.Hosts) > 0 {
		cfg.Hosts = raw.Hosts
	}

	if raw.Lock != nil {
		cfg.Lock = *raw.Lock
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"timeout", raw.Timeout, &cfg.Timeout},
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"lock_ttl", raw.LockTTL, &cfg.LockTTL},
	}

	for _, d := range durations {
		if d.raw == "" {
			continue
		}

		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s %q: %w", d.key, d.raw, err)
		}

		*d.dst = v
	}

	return cfg, nil
}

// MergeEnv overrides config fields from CQLMIGRATE_* environment variables.
// Values that fail to parse are ignored.
func MergeEnv(cfg *Config) {
	envString("DATABASE_URL", &cfg.DatabaseURL)
	envString("KEYSPACE", &cfg.Keyspace)
	envString("MIGRATIONS_DIR", &cfg.MigrationsDir)
	envString("MIGRATIONS_TABLE", &cfg.MigrationsTable)
	envString("CONSISTENCY", &cfg.Consistency)
	envString("USERNAME", &cfg.Username)
	envString("PASSWORD", &cfg.Password)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("LOG_FORMAT", &cfg.LogFormat)
	envDuration("TIMEOUT", &cfg.Timeout)
	envDuration("CONNECT_TIMEOUT", &cfg.ConnectTimeout)
	envDuration("LOCK_TTL", &cfg.LockTTL)

	if v := os.Getenv(envPrefix + "HOSTS"); v != "" {
		cfg.Hosts = SplitHosts(v)
	}

	if v := os.Getenv(envPrefix + "LOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Lock = b
		}
	}
}

// ClusterOptions resolves the connection settings. Values carried by the
// database URL take precedence over the individual fields.
func (c *Config) ClusterOptions() (*database.ClusterOptions, error) {
	opts := &database.ClusterOptions{
		Hosts:          c.Hosts,
		Keyspace:       c.Keyspace,
		Username:       c.Username,
		Password:       c.Password,
		Consistency:    c.Consistency,
		Timeout:        c.Timeout,
		ConnectTimeout: c.ConnectTimeout,
	}

	if c.DatabaseURL != "" {
		u, err := database.ParseURL(c.DatabaseURL)
		if err != nil {
			return nil, err
		}

		opts.Hosts = u.Hosts
		opts.Port = u.Port
		setString(&opts.Keyspace, u.Keyspace)
		setString(&opts.Username, u.Username)
		setString(&opts.Password, u.Password)
		setString(&opts.Consistency, u.Consistency)

		if u.Timeout > 0 {
			opts.Timeout = u.Timeout
		}

		if u.ConnectTimeout > 0 {
			opts.ConnectTimeout = u.ConnectTimeout
		}
	}

	if len(opts.Hosts) == 0 {
		return nil, ErrNoContactPoints
	}

	return opts, nil
}

// SplitHosts splits a comma-separated contact point list, dropping blanks.
func SplitHosts(s string) []string {
	var hosts []string

	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}

	return hosts
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envString(key string, dst *string) {
	setString(dst, os.Getenv(envPrefix+key))
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
