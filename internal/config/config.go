package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration surface: a connection pool to a
// single Postgres database and the structured logger's output shape.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig names the Postgres endpoint and pool tuning knobs. These
// map directly onto database/sql's connection pool, not a driver-level
// session pool, since lib/pq has no pooling of its own.
type DatabaseConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Name           string        `mapstructure:"name"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxPoolSize    int           `mapstructure:"max_pool_size"`
	MinPoolSize    int           `mapstructure:"min_pool_size"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoggingConfig controls the slog handler built at startup.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

var cfg *Config

// Load reads configuration from (in ascending priority) built-in defaults,
// a config.yaml under configPath (or ".", "./config", "/etc/docdb" when
// configPath is empty), and DOCDB_-prefixed environment variables.
func Load(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.AddConfigPath(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/docdb")
	}

	setDefaults()

	viper.SetEnvPrefix("DOCDB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg = &config
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "docdb")
	viper.SetDefault("database.user", "docdb")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_pool_size", 20)
	viper.SetDefault("database.min_pool_size", 2)
	viper.SetDefault("database.max_idle_time", 10*time.Minute)
	viper.SetDefault("database.connect_timeout", 5*time.Second)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// Get returns the most recently Load-ed configuration. Panics if Load has
// not been called, mirroring the fail-fast startup sequencing the rest of
// the package assumes.
func Get() *Config {
	if cfg == nil {
		panic("config not loaded")
	}
	return cfg
}
