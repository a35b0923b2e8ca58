// Package config holds the server's typed configuration.
//
// Values come from the environment (after main loads .env), optionally from
// a YAML file named by CONFIG_PATH, and otherwise from env-default tags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Metrics MetricsConfig `yaml:"metrics"`
	Persist PersistConfig `yaml:"persist"`
	Words   WordsConfig   `yaml:"words"`
	Auth    AuthConfig    `yaml:"auth"`
}

type ServerConfig struct {
	Port           string        `yaml:"port" env:"PORT" env-default:"5175"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"10s"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"` // json | console
}

// StorageConfig selects where the sessions and scores documents live.
type StorageConfig struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"` // file | sqlite | redis | postgres
	Dir         string `yaml:"dir" env:"STORAGE_DIR" env-default:"./data"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"./data/corner.db"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"wordle-corner:"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

// PersistConfig bounds how hard a flush is retried.
type PersistConfig struct {
	RetryAttempts int           `yaml:"retry_attempts" env:"PERSIST_RETRY_ATTEMPTS" env-default:"3"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"PERSIST_RETRY_INTERVAL" env-default:"50ms"`
	FatalAfter    int           `yaml:"fatal_after" env:"PERSIST_FATAL_AFTER" env-default:"5"`
}

type WordsConfig struct {
	AnswersFile  string `yaml:"answers_file" env:"WORDS_ANSWERS_FILE"`
	AllowedFile  string `yaml:"allowed_file" env:"WORDS_ALLOWED_FILE"`
	SolutionMode string `yaml:"solution_mode" env:"SOLUTION_MODE" env-default:"random"` // random | daily
	DailySalt    string `yaml:"daily_salt" env:"DAILY_SALT" env-default:"local_dev_salt"`
}

// AuthConfig enables bearer-token auth on the command API when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
}

// Load reads configuration. Priority: ENV > YAML (CONFIG_PATH) > defaults.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks enumerations and ranges. Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must be set")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console (got %q)", c.Log.Format)
	}
	switch c.Storage.Driver {
	case "file":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir must be set for the file driver")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path must be set for the sqlite driver")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr must be set for the redis driver")
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be file, sqlite, redis or postgres (got %q)", c.Storage.Driver)
	}
	if c.Persist.RetryAttempts < 1 {
		return fmt.Errorf("persist.retry_attempts must be >= 1 (got %d)", c.Persist.RetryAttempts)
	}
	if c.Persist.RetryInterval <= 0 {
		return fmt.Errorf("persist.retry_interval must be > 0 (got %v)", c.Persist.RetryInterval)
	}
	if c.Persist.FatalAfter < 1 {
		return fmt.Errorf("persist.fatal_after must be >= 1 (got %d)", c.Persist.FatalAfter)
	}
	switch c.Words.SolutionMode {
	case "random", "daily":
	default:
		return fmt.Errorf("words.solution_mode must be random or daily (got %q)", c.Words.SolutionMode)
	}
	if s := c.Auth.JWTSecret; s != "" && len(s) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters (got %d)", len(s))
	}
	return nil
}
