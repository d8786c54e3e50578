package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8099" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.JWT.AccessExpiry != 15*time.Minute {
		t.Errorf("access expiry = %v", cfg.JWT.AccessExpiry)
	}
	if cfg.Platform.DefaultCommissionPercentage != 5 {
		t.Errorf("default commission = %v", cfg.Platform.DefaultCommissionPercentage)
	}
	if cfg.Stripe.Currency != "usd" {
		t.Errorf("currency = %q", cfg.Stripe.Currency)
	}
}

func TestLoadEnvFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	env := "SERVER_PORT=9000\nDEFAULT_COMMISSION_PERCENTAGE=12\nSTRIPE_API_KEY=sk_test_file\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STRIPE_API_KEY", "sk_test_env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port from file = %q", cfg.Server.Port)
	}
	if cfg.Platform.DefaultCommissionPercentage != 12 {
		t.Errorf("commission from file = %v", cfg.Platform.DefaultCommissionPercentage)
	}
	if cfg.Stripe.SecretKey != "sk_test_env" {
		t.Errorf("environment should win, got %q", cfg.Stripe.SecretKey)
	}
}
