package service

import (
	"testing"

	"jobmarket/config"
	"jobmarket/internal/database"
	"jobmarket/internal/domain"
)

func TestSeedKeepsAdminCommission(t *testing.T) {
	e := newEnv(t)
	if _, err := e.commission.Update(12); err != nil {
		t.Fatal(err)
	}
	if err := database.SeedSettings(e.store.DB(), &config.PlatformConfig{DefaultCommissionPercentage: 30}); err != nil {
		t.Fatal(err)
	}
	if pct, err := e.commission.Percentage(nil); err != nil || pct != 12 {
		t.Errorf("commission after reseed = %v, %v", pct, err)
	}
	raw, err := e.store.Settings.Get(domain.SettingAdminCommission)
	if err != nil || raw != "12" {
		t.Errorf("stored = %q, %v", raw, err)
	}
}

func TestSeedCommissionOnlyOnce(t *testing.T) {
	e := newEnv(t)
	seeded, err := e.store.Settings.SeedCommission(25)
	if err != nil {
		t.Fatal(err)
	}
	if seeded {
		t.Error("seed overwrote the existing commission")
	}
	if pct, _ := e.store.Settings.Commission(); pct != 10 {
		t.Errorf("commission = %v", pct)
	}
}
