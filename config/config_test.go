package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/config"
	"github.com/alejandrodnm/polyarb/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, "config.yaml", "log:\n  level: debug\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 10*time.Second, cfg.PipelineInterval())
	assert.Equal(t, 150, cfg.Pipeline.EventLimit)
	assert.Equal(t, 5, cfg.Pipeline.TopEvents)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.API.GammaBase)
	assert.Equal(t, "config/risk_params.yaml", cfg.Risk.Path)
	assert.InDelta(t, domain.DefaultDrawdownPct, cfg.Monitoring.Alerts.DrawdownPctGt, 1e-9)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "pipeline:\n  interval_seconds: 30\nstorage:\n  dsn: from-yaml.db\n")
	t.Setenv("PIPELINE_INTERVAL_SEC", "7")
	t.Setenv("STORAGE_DSN", "from-env.db")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, cfg.PipelineInterval())
	assert.Equal(t, "from-env.db", cfg.Storage.DSN)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.True(t, cfg.Telegram.Enabled())
}

func TestLoad_GoogleKeyWinsOverGeminiKey(t *testing.T) {
	path := writeFile(t, "config.yaml", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "google")
	t.Setenv("GEMINI_API_KEY", "gemini")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "google", cfg.LLM.APIKey)
}

func TestLoad_BadIntervalEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", "")
	t.Setenv("PIPELINE_INTERVAL_SEC", "soon")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_SecretsIgnoredInYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "wallet:\n  PrivateKey: abc\n")
	t.Setenv("PRIVATE_KEY", "")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Wallet.HasPrivateKey())
}
