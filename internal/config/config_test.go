package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PIPELINE_MODE", "")
	t.Setenv("LOG_DEV", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8431", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, ModeSimulated, cfg.Pipeline.Mode)
	assert.Equal(t, ProviderAnthropic, cfg.Pipeline.Provider)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.Pipeline.AnthropicModel)
	assert.Equal(t, 4096, cfg.Pipeline.MaxTokens)
	assert.Equal(t, "aud", cfg.Payment.Currency)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("DATABASE_URL", "postgres://raas@db/raas")
	t.Setenv("DATABASE_AUTO_MIGRATE", "true")
	t.Setenv("LOG_DEV", "1")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("APP_URL", "https://raas.example.com/")
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("PIPELINE_MODE", "LIVE")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("AUTH_JWT_PUBLIC_KEY", `-----BEGIN PUBLIC KEY-----\nabc\n-----END PUBLIC KEY-----`)

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres://raas@db/raas", cfg.Database.DSN)
	assert.True(t, cfg.AutoMigrate)
	assert.True(t, cfg.Log.Dev)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://raas.example.com", cfg.Payment.AppURL)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, ModeLive, cfg.Pipeline.Mode)
	assert.Equal(t, ProviderGemini, cfg.Pipeline.Provider)
	assert.Contains(t, cfg.Auth.PublicKeyPEM, "\nabc\n")
}

func TestValidate(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		t.Setenv("PIPELINE_MODE", "turbo")
		_, err := Load("testdata/does-not-exist.env")
		assert.ErrorContains(t, err, "PIPELINE_MODE")
	})

	t.Run("live without key", func(t *testing.T) {
		t.Setenv("PIPELINE_MODE", "live")
		t.Setenv("LLM_PROVIDER", "anthropic")
		t.Setenv("ANTHROPIC_API_KEY", "")
		_, err := Load("testdata/does-not-exist.env")
		assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("PIPELINE_MODE", "live")
		t.Setenv("LLM_PROVIDER", "parrot")
		_, err := Load("testdata/does-not-exist.env")
		assert.ErrorContains(t, err, "LLM_PROVIDER")
	})
}

func TestPipelineModeOverride(t *testing.T) {
	cfg := &Config{Pipeline: PipelineConfig{Mode: ModeSimulated, Provider: ProviderAnthropic, MaxTokens: 10}}
	require.NoError(t, cfg.PipelineModeOverride(""))
	assert.Equal(t, ModeSimulated, cfg.Pipeline.Mode)

	assert.Error(t, cfg.PipelineModeOverride("live"))

	cfg.Pipeline.AnthropicAPIKey = "k"
	require.NoError(t, cfg.PipelineModeOverride("Live"))
	assert.Equal(t, ModeLive, cfg.Pipeline.Mode)
}
