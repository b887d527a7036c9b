package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "access-secret")
	t.Setenv("REFRESH_SECRET_KEY", "refresh-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "https://api.chatpdf.com", cfg.ChatPDFBaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "access-secret")
	t.Setenv("REFRESH_SECRET_KEY", "refresh-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CHANNEL_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 4*time.Hour, cfg.ChannelTTL)
}

func TestLoad_SecretsRequired(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
	}{
		{name: "missing access secret", access: "", refresh: "refresh"},
		{name: "missing refresh secret", access: "access", refresh: ""},
		{name: "identical secrets", access: "same", refresh: "same"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SECRET_KEY", tt.access)
			t.Setenv("REFRESH_SECRET_KEY", tt.refresh)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
