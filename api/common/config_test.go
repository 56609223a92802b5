package common

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_NAME", "LOG_LEVEL", "REDIS_URL", "FEED_CHANNEL", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_URI", "mongodb://localhost:27017")

	cfg, err := configFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "marathonDB", cfg.DBName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.RedisURL)
	assert.Equal(t, "marathon-feed", cfg.FeedChannel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_URI", "")
	t.Setenv("MONGODB_URI", "mongodb+srv://cluster.example.net")
	t.Setenv("DB_NAME", "races")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := configFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb+srv://cluster.example.net", cfg.DBURI)
	assert.Equal(t, "races", cfg.DBName)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestConfigRequiresDatabase(t *testing.T) {
	t.Setenv("DB_URI", "")
	t.Setenv("MONGODB_URI", "")

	_, err := configFrom(viper.New())
	assert.Error(t, err)
}
