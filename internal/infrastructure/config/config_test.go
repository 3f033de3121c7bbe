package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "gopagos" {
		t.Errorf("expected default app name gopagos, got %q", cfg.App.Name)
	}
	if cfg.Payments.TransferCap != 7_000_000 {
		t.Errorf("expected default transfer cap 7000000, got %d", cfg.Payments.TransferCap)
	}
	if cfg.Payments.CessionThreshold != 10_000_000 {
		t.Errorf("expected default cession threshold 10000000, got %d", cfg.Payments.CessionThreshold)
	}
	if cfg.Payments.DueDays != 30 || cfg.Payments.CessionDueDays != 60 {
		t.Errorf("expected default terms 30/60, got %d/%d", cfg.Payments.DueDays, cfg.Payments.CessionDueDays)
	}
	if cfg.Kame.TokenTTL != time.Hour {
		t.Errorf("expected default Kame token TTL 1h, got %s", cfg.Kame.TokenTTL)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero transfer cap", "PAGOS_TOPE_TRANSFERENCIA", "0"},
		{"negative cession threshold", "PAGOS_UMBRAL_CESION", "-1"},
		{"negative months back", "PAGOS_MESES_ATRAS", "-2"},
		{"zero detail concurrency", "ICONSTRUYE_DETAIL_MAX_CONCURRENT", "0"},
		{"zero due days", "PAGOS_DIAS_VENCIMIENTO", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadCessionTermNotShorter(t *testing.T) {
	t.Setenv("PAGOS_DIAS_VENCIMIENTO", "60")
	t.Setenv("PAGOS_DIAS_VENCIMIENTO_CESION", "30")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when cession term is shorter than the default term")
	}
}

func TestLoadAuthRequiresURIs(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_ISSUER_URI", "")
	t.Setenv("JWT_JWK_SET_URI", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when auth enabled without issuer/jwks URIs")
	}
}

func TestAddress(t *testing.T) {
	h := HTTPSettings{Port: 9090}
	if got := h.Address(); got != ":9090" {
		t.Errorf("expected :9090, got %q", got)
	}
}
