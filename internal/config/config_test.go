package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigs(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestMustLoad(t *testing.T) {
	dir := writeConfigs(t,
		"jwt_ttl_seconds: 2592000\ndelivery_fee: 300\nverification_code_ttl_seconds: 600\nverification_code_len: 6\nlog_level: info\n",
		"jwt_key: 'k'\npg:\n  host: localhost\n  port: 5432\n  user: u\n  password: p\n  dbname: shoply\n",
	)

	cfg := MustLoad(dir)

	if cfg.JwtTTL() != 720*time.Hour {
		t.Errorf("jwt ttl: got %v", cfg.JwtTTL())
	}
	if cfg.Public.DeliveryFee != 300 {
		t.Errorf("delivery fee: got %d", cfg.Public.DeliveryFee)
	}
	if cfg.VerificationCodeTTL() != 10*time.Minute {
		t.Errorf("code ttl: got %v", cfg.VerificationCodeTTL())
	}
	if cfg.JwtKey() != "k" {
		t.Errorf("jwt key: got %q", cfg.JwtKey())
	}
	if cfg.Private.Pg.Dbname != "shoply" {
		t.Errorf("dbname: got %q", cfg.Private.Pg.Dbname)
	}
}

func TestMustLoad_RequiredFields(t *testing.T) {
	// verification_code_ttl_seconds intentionally missing
	dir := writeConfigs(t,
		"jwt_ttl_seconds: 2592000\ndelivery_fee: 300\nverification_code_len: 6\n",
		"jwt_key: 'k'\n",
	)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic due to missing required field, got none")
		}
	}()

	_ = MustLoad(dir)
}
