package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validBase() *Config {
	return &Config{
		Env:              "development",
		Port:             "8480",
		JWTSecret:        "secure-secret-at-least-32-chars-long",
		DBPassword:       "secure-password",
		DBSSLMode:        "disable",
		RedisURL:         "redis://localhost:6379",
		FeedDefaultLimit: 10,
		FeedMaxLimit:     100,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validBase()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDriver(t *testing.T) {
	c := validBase()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c.DBDriver = "sqlite"
	assert.NoError(t, c.Validate())

	c.Env = "production"
	c.DBSSLMode = "require"
	assert.Error(t, c.Validate(), "sqlite must be rejected in production")
}

func TestConfig_ValidateFeedLimits(t *testing.T) {
	c := validBase()
	c.FeedDefaultLimit = 200
	c.FeedMaxLimit = 100
	assert.Error(t, c.Validate())

	c.FeedDefaultLimit = 10
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
}
