package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	AppURL   string `envconfig:"APP_URL" default:"http://localhost:8080"`
	DBDSN    string `envconfig:"DATABASE_URL" required:"true"`
	MediaDir string `envconfig:"MEDIA_DIR" default:"./web/media"`
	LogFile  string `envconfig:"LOG_FILE"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`

	PaymentProviders []string `envconfig:"PAYMENT_PROVIDERS" default:"stripe,flutterwave"`
	PaymentDefault   string   `envconfig:"PAYMENT_DEFAULT" default:"stripe"`
	StripeSecretKey  string   `envconfig:"STRIPE_SECRET_KEY"`
	StripeCurrency   string   `envconfig:"STRIPE_CURRENCY" default:"usd"`
	FlwSecretKey     string   `envconfig:"FLW_SECRET_KEY"`
	FlwCurrency      string   `envconfig:"FLW_CURRENCY" default:"NGN"`
	FlwBaseURL       string   `envconfig:"FLW_BASE_URL" default:"https://api.flutterwave.com"`

	TaxRate           float64 `envconfig:"TAX_RATE" default:"0.10"`
	ShippingFlat      float64 `envconfig:"SHIPPING_FLAT" default:"10"`
	LowStockThreshold int     `envconfig:"LOW_STOCK_THRESHOLD" default:"10"`
}

// Load reads .env (when present) and the process environment, then validates the result.
// A non-nil error means the process must not start.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] could not read .env: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	log.Printf("[config] PORT=%s APP_URL=%s PAYMENT_PROVIDERS=%s LOG_LEVEL=%s",
		cfg.Port, cfg.AppURL, strings.Join(cfg.PaymentProviders, ","), cfg.LogLevel)
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.SessionSecret) < 20 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 20 characters"))
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		errs = append(errs, fmt.Errorf("TAX_RATE %v out of range [0,1)", c.TaxRate))
	}
	if c.ShippingFlat < 0 {
		errs = append(errs, errors.New("SHIPPING_FLAT must not be negative"))
	}
	if len(c.PaymentProviders) == 0 {
		errs = append(errs, errors.New("PAYMENT_PROVIDERS must name at least one provider"))
	}
	for _, p := range c.PaymentProviders {
		switch strings.TrimSpace(p) {
		case "stripe":
			if !strings.HasPrefix(c.StripeSecretKey, "sk_") {
				errs = append(errs, errors.New("STRIPE_SECRET_KEY missing or malformed"))
			}
		case "flutterwave":
			if !strings.HasPrefix(c.FlwSecretKey, "FLWSECK") {
				errs = append(errs, errors.New("FLW_SECRET_KEY missing or malformed"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown payment provider %q", p))
		}
	}
	if !c.ProviderEnabled(c.PaymentDefault) {
		errs = append(errs, fmt.Errorf("PAYMENT_DEFAULT %q is not enabled", c.PaymentDefault))
	}
	return errors.Join(errs...)
}

func (c Config) ProviderEnabled(name string) bool {
	for _, p := range c.PaymentProviders {
		if strings.TrimSpace(p) == name {
			return true
		}
	}
	return false
}
