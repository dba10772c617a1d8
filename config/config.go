package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pigent-app/internal/domain/pricing"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

//go:embed pricing.yaml
var defaultPricing []byte

const (
	DefaultPort             = "8080"
	DefaultPaystackBaseURL  = "https://api.paystack.co"
	DefaultPaystackTimeout  = 15 * time.Second
	DefaultVerifyRetries    = 3
	DefaultRetryInterval    = 300 * time.Millisecond
	DefaultPricingFile      = "config/pricing.yaml"
	DefaultAppURL           = "http://localhost:5173"
	DefaultAllowedModelList = "gpt-4o-mini,gpt-4o"
)

// Config is loaded once at startup and handed to every component that needs
// it. Nothing reads process environment after Load returns.
type Config struct {
	Port       string
	AppEnv     string
	AppURL     string
	DBURL      string
	JWTSecret  string
	CORSOrigin string

	Paystack      Paystack
	AllowedModels []string
	Pricing       *pricing.Catalog
}

type Paystack struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	CallbackURL   string
	Timeout       time.Duration
	VerifyRetries uint
	RetryInterval time.Duration
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads .env (if any), the process environment and the pricing catalog.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_URL", DefaultAppURL)
	v.SetDefault("PAYSTACK_BASE_URL", DefaultPaystackBaseURL)
	v.SetDefault("PAYSTACK_TIMEOUT", DefaultPaystackTimeout)
	v.SetDefault("PAYSTACK_VERIFY_RETRIES", DefaultVerifyRetries)
	v.SetDefault("PAYSTACK_RETRY_INTERVAL", DefaultRetryInterval)
	v.SetDefault("PRICING_FILE", DefaultPricingFile)
	v.SetDefault("ALLOWED_MODELS", DefaultAllowedModelList)

	cfg := &Config{
		Port:       v.GetString("PORT"),
		AppEnv:     v.GetString("APP_ENV"),
		AppURL:     strings.TrimRight(v.GetString("APP_URL"), "/"),
		DBURL:      v.GetString("DB_URL"),
		JWTSecret:  v.GetString("JWT_SECRET"),
		CORSOrigin: v.GetString("CORS_ORIGIN"),
		Paystack: Paystack{
			BaseURL:       strings.TrimRight(v.GetString("PAYSTACK_BASE_URL"), "/"),
			SecretKey:     v.GetString("PAYSTACK_SECRET_KEY"),
			WebhookSecret: v.GetString("PAYSTACK_WEBHOOK_SECRET"),
			CallbackURL:   v.GetString("PAYSTACK_CALLBACK_URL"),
			Timeout:       v.GetDuration("PAYSTACK_TIMEOUT"),
			VerifyRetries: v.GetUint("PAYSTACK_VERIFY_RETRIES"),
			RetryInterval: v.GetDuration("PAYSTACK_RETRY_INTERVAL"),
		},
		AllowedModels: splitList(v.GetString("ALLOWED_MODELS")),
	}

	// Paystack signs webhooks with the secret key unless a dedicated secret is set.
	if cfg.Paystack.WebhookSecret == "" {
		cfg.Paystack.WebhookSecret = cfg.Paystack.SecretKey
	}
	if cfg.Paystack.CallbackURL == "" {
		cfg.Paystack.CallbackURL = cfg.AppURL + "/payments/success"
	}

	catalog, err := LoadPricing(v.GetString("PRICING_FILE"), splitList(v.GetString("PAYSTACK_ALLOWED_CURRENCIES")))
	if err != nil {
		return nil, err
	}
	cfg.Pricing = catalog

	return cfg, validate(cfg)
}

func validate(cfg *Config) error {
	if cfg.DBURL == "" {
		return errors.New("missing required environment variable: DB_URL")
	}
	if cfg.JWTSecret == "" {
		return errors.New("missing required environment variable: JWT_SECRET")
	}
	if cfg.Paystack.Timeout <= 0 {
		return errors.New("PAYSTACK_TIMEOUT must be positive")
	}
	if len(cfg.Pricing.Currencies()) == 0 {
		return errors.New("no allowed currencies configured")
	}
	return nil
}

// LoadPricing reads the catalog file, falling back to the embedded default
// when the file does not exist. A non-empty currencies list replaces the
// allow-list from the file.
func LoadPricing(path string, currencies []string) (*pricing.Catalog, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		raw = defaultPricing
	case err != nil:
		return nil, fmt.Errorf("read pricing file %s: %w", path, err)
	}
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("parse pricing file %s: %w", path, err)
	}

	if len(currencies) == 0 {
		currencies = v.GetStringSlice("currencies")
	}

	plans := make(map[string]map[string]decimal.Decimal)
	if sub := v.Sub("plans"); sub != nil {
		for _, cur := range sub.AllKeys() {
			// AllKeys flattens to "ngn.starter".
			currency, plan, ok := strings.Cut(cur, ".")
			if !ok {
				continue
			}
			price, err := decimal.NewFromString(sub.GetString(cur))
			if err != nil {
				return nil, fmt.Errorf("plans.%s: %w", cur, err)
			}
			currency = pricing.NormalizeCurrency(currency)
			if plans[currency] == nil {
				plans[currency] = make(map[string]decimal.Decimal)
			}
			plans[currency][plan] = price
		}
	}

	express := make(map[string]decimal.Decimal)
	for cur, s := range v.GetStringMapString("express_addon") {
		price, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("express_addon.%s: %w", cur, err)
		}
		express[cur] = price
	}

	return pricing.NewCatalog(currencies, plans, express), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
