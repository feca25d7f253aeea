package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwatts/pricewatch/internal/config"
	"github.com/mwatts/pricewatch/internal/pricing"
)

const modelsYAML = `
models:
  - name: iPhone 15 Pro Max
    strategy: storefront-single-value
    source_url: https://store.test/iphone-15
    image_url: https://img.test/15.jpg
    threshold_key: "15"
  - name: iPhone 16 Pro Max
    strategy: marketplace-aggregate-min
    source_url: https://market.test/search?q=iphone16
    threshold_key: "16"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, modelsYAML))
	require.NoError(t, err)

	assert.InDelta(t, 2.5, cfg.Monitor.DelaySeconds, 0.001)
	assert.Equal(t, 10*time.Second, cfg.Monitor.RequestTimeout())
	assert.Equal(t, 2500*time.Millisecond, cfg.Monitor.Delay())
	assert.Equal(t, "prices.json", cfg.Monitor.HistoryPath)
	assert.InDelta(t, 5.0, cfg.Monitor.DefaultThresholdPercent, 0.001)
	assert.True(t, cfg.Extract.AssumeCents)
	assert.InDelta(t, 100, cfg.Extract.MinPrice, 0.001)
	assert.InDelta(t, 5000, cfg.Extract.MaxPrice, 0.001)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Contains(t, cfg.Monitor.UserAgent, "Mozilla/5.0")
}

func TestLoadModels(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, modelsYAML))
	require.NoError(t, err)

	require.Len(t, cfg.Models, 2)
	assert.Equal(t, "iPhone 15 Pro Max", cfg.Models[0].Name)
	assert.Equal(t, pricing.StrategyStorefrontSingleValue, cfg.Models[0].Strategy)
	assert.Equal(t, "https://store.test/iphone-15", cfg.Models[0].SourceURL)
	assert.Equal(t, pricing.StrategyMarketplaceAggregateMin, cfg.Models[1].Strategy)
	assert.InDelta(t, 5.0, cfg.Models[0].ThresholdPercent, 0.001)
	assert.InDelta(t, 5.0, cfg.Models[1].ThresholdPercent, 0.001)
}

func TestThresholdOverride(t *testing.T) {
	t.Run("env override applies per model", func(t *testing.T) {
		t.Setenv("PRICE_THRESHOLD_16", "3.5")

		cfg, err := config.Load(writeConfig(t, modelsYAML))
		require.NoError(t, err)

		assert.InDelta(t, 5.0, cfg.Models[0].ThresholdPercent, 0.001)
		assert.InDelta(t, 3.5, cfg.Models[1].ThresholdPercent, 0.001)
	})

	t.Run("malformed override is an error", func(t *testing.T) {
		t.Setenv("PRICE_THRESHOLD_15", "lots")

		_, err := config.Load(writeConfig(t, modelsYAML))
		assert.Error(t, err)
	})
}

func TestSMTPActivation(t *testing.T) {
	t.Run("fully configured enables the sink", func(t *testing.T) {
		t.Setenv("SMTP_HOST", "smtp.test")
		t.Setenv("SMTP_USER", "alerts@test")
		t.Setenv("SMTP_PASSWORD", "secret")
		t.Setenv("SMTP_TO", "me@test")

		cfg, err := config.Load(writeConfig(t, modelsYAML))
		require.NoError(t, err)

		assert.True(t, cfg.SMTP.Enabled())
		assert.Equal(t, 587, cfg.SMTP.Port)
	})

	t.Run("missing recipient disables the sink", func(t *testing.T) {
		t.Setenv("SMTP_HOST", "smtp.test")
		t.Setenv("SMTP_USER", "alerts@test")
		t.Setenv("SMTP_PASSWORD", "secret")

		cfg, err := config.Load(writeConfig(t, modelsYAML))
		require.NoError(t, err)

		assert.False(t, cfg.SMTP.Enabled())
	})

	t.Run("webhook activates independently", func(t *testing.T) {
		t.Setenv("WEBHOOK_URL", "https://hooks.test/prices")

		cfg, err := config.Load(writeConfig(t, modelsYAML))
		require.NoError(t, err)

		assert.False(t, cfg.SMTP.Enabled())
		assert.True(t, cfg.Webhook.Enabled())
		assert.Equal(t, "https://hooks.test/prices", cfg.Webhook.URL)
	})
}

func TestValidate(t *testing.T) {
	t.Run("unknown strategy rejected", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, `
models:
  - name: Widget
    strategy: crystal-ball
    source_url: https://store.test/widget
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown strategy")
	})

	t.Run("missing source url rejected", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, `
models:
  - name: Widget
    strategy: storefront-single-value
`))
		assert.Error(t, err)
	})

	t.Run("invalid extract bounds rejected", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, modelsYAML+`
extract:
  min_price: 5000
  max_price: 100
`))
		assert.Error(t, err)
	})

	t.Run("empty model list is allowed", func(t *testing.T) {
		cfg, err := config.Load(writeConfig(t, "server:\n  port: 5001\n"))
		require.NoError(t, err)
		assert.Empty(t, cfg.Models)
	})
}
