package config_test

import (
	"strings"
	"testing"

	"jamde/internal/config"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadValid(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":      "file:test.db",
		"SESSION_SECRET":    "0123456789abcdefghij-secret",
		"STRIPE_SECRET_KEY": "sk_test_123",
		"FLW_SECRET_KEY":    "FLWSECK_TEST-abc",
		"TAX_RATE":          "0.08",
	})
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.PaymentDefault != "stripe" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.TaxRate != 0.08 || cfg.ShippingFlat != 10 {
		t.Fatalf("pricing config = %v/%v", cfg.TaxRate, cfg.ShippingFlat)
	}
	if len(cfg.PaymentProviders) != 2 {
		t.Fatalf("providers = %v", cfg.PaymentProviders)
	}
}

func TestLoadFailsFast(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":      "file:test.db",
		"SESSION_SECRET":    "short",
		"STRIPE_SECRET_KEY": "pk_live_wrong",
		"PAYMENT_PROVIDERS": "stripe",
	})
	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"SESSION_SECRET", "STRIPE_SECRET_KEY"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %s", msg, want)
		}
	}
}

func TestValidateDefaultMustBeEnabled(t *testing.T) {
	cfg := config.Config{
		DBDSN:            "x",
		SessionSecret:    strings.Repeat("s", 24),
		PaymentProviders: []string{"flutterwave"},
		PaymentDefault:   "stripe",
		FlwSecretKey:     "FLWSECK-1",
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "PAYMENT_DEFAULT") {
		t.Fatalf("err = %v", err)
	}
	cfg.PaymentDefault = "flutterwave"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
