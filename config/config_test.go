package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customPricing = `
currencies: [NGN]
plans:
  NGN:
    starter: 1200.50
    single-course: "800"
  GHS:
    starter: "90"
express_addon:
  NGN: "300"
`

func writePricing(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/pigent")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_123")
	t.Setenv("PAYSTACK_TIMEOUT", "5s")
	t.Setenv("APP_URL", "https://pigent.example/")
	t.Setenv("PRICING_FILE", writePricing(t, customPricing))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "https://pigent.example", cfg.AppURL)
	assert.Equal(t, 5*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, "sk_test_123", cfg.Paystack.WebhookSecret, "webhook secret falls back to the secret key")
	assert.Equal(t, "https://pigent.example/payments/success", cfg.Paystack.CallbackURL)
	assert.Equal(t, uint(DefaultVerifyRetries), cfg.Paystack.VerifyRetries)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, cfg.AllowedModels)

	assert.Equal(t, []string{"NGN"}, cfg.Pricing.Currencies())
	price, ok := cfg.Pricing.Price("NGN", "starter")
	require.True(t, ok)
	assert.Equal(t, "1200.50", price.StringFixed(2))
	addon, ok := cfg.Pricing.ExpressAddon("NGN")
	require.True(t, ok)
	assert.Equal(t, "300", addon.String())
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PRICING_FILE", writePricing(t, customPricing))

	_, err := Load()
	assert.ErrorContains(t, err, "DB_URL")
}

func TestLoadPricingDefaultsAndOverride(t *testing.T) {
	catalog, err := LoadPricing(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"NGN", "USD"}, catalog.Currencies())
	assert.Equal(t, []string{"pro", "single-course", "starter"}, catalog.PlanNames("NGN"))

	catalog, err = LoadPricing(filepath.Join(t.TempDir(), "missing.yaml"), []string{"usd"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USD"}, catalog.Currencies())
	assert.False(t, catalog.Allowed("NGN"))
}

func TestLoadPricingRejectsBadAmount(t *testing.T) {
	_, err := LoadPricing(writePricing(t, "plans:\n  NGN:\n    starter: \"abc\"\n"), nil)
	assert.ErrorContains(t, err, "plans.ngn.starter")
}
