package common

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	Port            string
	DBURI           string
	DBName          string
	LogLevel        string
	RedisURL        string
	FeedChannel     string
	ShutdownTimeout time.Duration
}

// LoadConfig reads a .env file if there is one and then the process environment.
func LoadConfig() (*Config, error) {
	// a missing .env is fine, real deployments set the variables directly
	_ = godotenv.Load()

	return configFrom(viper.New())
}

func configFrom(v *viper.Viper) (*Config, error) {
	v.SetDefault("port", "3000")
	v.SetDefault("db_name", "marathonDB")
	v.SetDefault("log_level", "info")
	v.SetDefault("feed_channel", "marathon-feed")
	v.SetDefault("shutdown_timeout", "10s")

	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("db_uri", "DB_URI", "MONGODB_URI")
	_ = v.BindEnv("db_name", "DB_NAME")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("feed_channel", "FEED_CHANNEL")
	_ = v.BindEnv("shutdown_timeout", "SHUTDOWN_TIMEOUT")

	cfg := &Config{
		Port:            v.GetString("port"),
		DBURI:           v.GetString("db_uri"),
		DBName:          v.GetString("db_name"),
		LogLevel:        v.GetString("log_level"),
		RedisURL:        v.GetString("redis_url"),
		FeedChannel:     v.GetString("feed_channel"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	if cfg.DBURI == "" {
		return nil, errors.New("DB_URI is not set")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return cfg, nil
}

// Addr is the address the HTTP server listens on.
func (c Config) Addr() string {
	return ":" + c.Port
}
