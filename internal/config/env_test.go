package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 20, cfg.MaxMessages)
	assert.Equal(t, 1500*time.Millisecond, cfg.FormDelay)
	assert.Equal(t, 2*time.Minute, cfg.BackendTimeout)
	assert.Equal(t, "593968676893", cfg.AdvisorPhone)
	assert.Equal(t, "ControlAccesoWeb", cfg.SheetName)
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAX_MESSAGES", "15")
	t.Setenv("FORM_DELAY", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("IDENTITY_STORE", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.MaxMessages)
	assert.Equal(t, 250*time.Millisecond, cfg.FormDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfigBadNumbersFallBack(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAX_MESSAGES", "many")
	t.Setenv("FORM_DELAY", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MaxMessages)
	assert.Equal(t, 1500*time.Millisecond, cfg.FormDelay)
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8080", AIAPIKey: "k", JWTSecret: "s", MaxMessages: 20, AdvisorPhone: "1", IdentityStore: "memory"}

	ok := base
	require.NoError(t, ok.Validate())

	noKey := base
	noKey.AIAPIKey = ""
	assert.Error(t, noKey.Validate())

	badStore := base
	badStore.IdentityStore = "redis"
	assert.Error(t, badStore.Validate())

	zeroCeiling := base
	zeroCeiling.MaxMessages = 0
	assert.Error(t, zeroCeiling.Validate())
}
