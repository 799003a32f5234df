// Package config provides configuration loading for the plasma migrator.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrUnknownNetwork is returned when a profile name is not configured.
var ErrUnknownNetwork = errors.New("config: unknown network")

// Config holds all configuration for the migrator.
type Config struct {
	Networks  map[string]NetworkProfile `mapstructure:"networks" validate:"dive"`
	Artifacts ArtifactsConfig           `mapstructure:"artifacts"`
	Plan      PlanConfig                `mapstructure:"plan"`
	Log       LogConfig                 `mapstructure:"log"`
	Report    ReportConfig              `mapstructure:"report"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Redis     RedisConfig               `mapstructure:"redis"`
}

// ArtifactsConfig locates compiled contract artifacts.
type ArtifactsConfig struct {
	Dir      string `mapstructure:"dir"`
	Bundle   string `mapstructure:"bundle"`   // zip path or http(s) URL
	Checksum string `mapstructure:"checksum"` // sha256:<hex>
}

// PlanConfig points at an optional YAML migration plan.
type PlanConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// ReportConfig controls the post-run gas report.
type ReportConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	ShowTimeSpent bool `mapstructure:"show_time_spent"`
}

// MetricsConfig controls the Prometheus Pushgateway export.
type MetricsConfig struct {
	PushURL string `mapstructure:"push_url" validate:"omitempty,url"`
	Job     string `mapstructure:"job"`
}

// DatabaseConfig holds PostgreSQL configuration for run history.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the postgres:// URL used by golang-migrate.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the deploy lock.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Options tune where Load looks for configuration.
type Options struct {
	// File is an explicit config file path. Empty searches the default locations.
	File string
	// EnvFile is loaded into the process environment before reading config.
	// Empty means ".env"; a missing file is ignored.
	EnvFile string
}

// Load reads configuration from files and environment variables.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	v := viper.New()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("plasma")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".plasma"))
		}
	}

	v.SetEnvPrefix("PLASMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for name, p := range cfg.Networks {
		p.Name = name
		cfg.Networks[name] = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the config against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Profile returns the named network profile.
func (c *Config) Profile(name string) (NetworkProfile, error) {
	p, ok := c.Networks[strings.ToLower(name)]
	if !ok {
		return NetworkProfile{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownNetwork, name, strings.Join(c.NetworkNames(), ", "))
	}
	return p, nil
}

// NetworkNames returns the configured profile names in sorted order.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Networks
	v.SetDefault("networks.development.host", "localhost")
	v.SetDefault("networks.development.port", 8545)
	v.SetDefault("networks.development.network_id", "15")

	v.SetDefault("networks.coverage.host", "localhost")
	v.SetDefault("networks.coverage.port", 8555)
	v.SetDefault("networks.coverage.network_id", AnyNetwork)
	v.SetDefault("networks.coverage.gas_limit", uint64(0xfffffffffff))
	v.SetDefault("networks.coverage.gas_price", 1)

	v.SetDefault("networks.rinkeby.url", "https://rinkeby.infura.io/v3/${INFURA_API_KEY}")
	v.SetDefault("networks.rinkeby.network_id", "4")
	v.SetDefault("networks.rinkeby.gas_limit", 7_500_000)
	v.SetDefault("networks.rinkeby.gas_price", 5_000_000_000) // 5 gwei
	v.SetDefault("networks.rinkeby.credentials.mnemonic_env", "RINKEBY_MNEMONIC")
	v.SetDefault("networks.rinkeby.credentials.from_env", "RINKEBY_ADDRESS")

	// Artifacts
	v.SetDefault("artifacts.dir", "build/contracts")

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Gas report
	v.SetDefault("report.enabled", true)
	v.SetDefault("report.show_time_spent", true)

	// Metrics
	v.SetDefault("metrics.job", "plasma_migrate")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "plasma")
	v.SetDefault("database.password", "plasma")
	v.SetDefault("database.database", "plasma")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "5m")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "30m")
}
