// Package config loads server configuration.
//
// Precedence: environment (BIZSYNC_*) > config file > defaults. A .env file
// in the working directory is loaded into the environment first, if present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const EnvPrefix = "BIZSYNC"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Log         LogConfig         `mapstructure:"log"`
	Publication PublicationConfig `mapstructure:"publication"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig points at the SQLite file; ":memory:" for a throwaway store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig enables the publication cache when Enabled is set.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type PublicationConfig struct {
	Day              string        `mapstructure:"day"` // weekday name, e.g. "friday"
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	ReminderEnabled  bool          `mapstructure:"reminder_enabled"`
}

// Weekday parses Day. Call after Validate.
func (p PublicationConfig) Weekday() time.Weekday {
	wd, _ := ParseWeekday(p.Day)
	return wd
}

// Load reads configuration from path, or ./config.yaml / ./config/config.yaml
// when path is empty. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.allow_origins", []string{"*"})

	v.SetDefault("db.path", "bizsync.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "6h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("publication.day", "friday")
	v.SetDefault("publication.reminder_interval", "1h")
	v.SetDefault("publication.reminder_enabled", true)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("invalid config: db.path is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid config: log.level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid config: log.format must be json or console, got %q", c.Log.Format)
	}
	if _, err := ParseWeekday(c.Publication.Day); err != nil {
		return fmt.Errorf("invalid config: publication.day: %w", err)
	}
	if c.Publication.ReminderEnabled && c.Publication.ReminderInterval <= 0 {
		return errors.New("invalid config: publication.reminder_interval must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("invalid config: redis.addr is required when redis is enabled")
	}
	return nil
}

// ParseWeekday accepts English weekday names, case-insensitive, full or
// three-letter.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
