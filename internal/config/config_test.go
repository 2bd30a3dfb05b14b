package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/vamoapp/vamo/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Ensure environment does not interfere
	_ = os.Unsetenv("VAMO_ADDR")
	_ = os.Unsetenv("VAMO_JWT_SECRET")
	_ = os.Unsetenv("VAMO_DATABASE_PATH")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.DatabasePath != "vamo.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "vamo.db")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 15*time.Second)
	}
	if cfg.TokenDuration != 1*time.Hour {
		t.Fatalf("unexpected TokenDuration: got %v want %v", cfg.TokenDuration, 1*time.Hour)
	}
	if cfg.Rewards.MinRedemption != 50 {
		t.Fatalf("unexpected MinRedemption: got %d want 50", cfg.Rewards.MinRedemption)
	}
	if cfg.Rewards.PromptsPerHour != 60 {
		t.Fatalf("unexpected PromptsPerHour: got %d want 60", cfg.Rewards.PromptsPerHour)
	}
	if cfg.Rewards.OffersPerHour != 5 {
		t.Fatalf("unexpected OffersPerHour: got %d want 5", cfg.Rewards.OffersPerHour)
	}
}

func TestLoadConfig_DefaultSchedule(t *testing.T) {
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	want := map[string]int64{
		"prompt":          1,
		"tag_bonus":       1,
		"link_linkedin":   5,
		"link_github":     5,
		"link_website":    3,
		"feature_shipped": 3,
		"customer_added":  5,
		"revenue_logged":  10,
	}
	for event, amount := range want {
		if got := cfg.Rewards.Schedule[event]; got != amount {
			t.Errorf("schedule[%s] = %d, want %d", event, got, amount)
		}
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	content := []byte("addr: \":9090\"\n" +
		"jwt_secret: \"filekey\"\n" +
		"timeout: \"30s\"\n" +
		"database_path: \"test.db\"\n" +
		"token_duration: \"2h\"\n" +
		"rewards:\n" +
		"  min_redemption: 100\n" +
		"  prompts_per_hour: 10\n" +
		"  schedule:\n" +
		"    prompt: 2\n")
	if err := os.WriteFile(f.Name(), content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.JWTSecret != "filekey" {
		t.Fatalf("unexpected JWTSecret: got %q want %q", cfg.JWTSecret, "filekey")
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 30*time.Second)
	}
	if cfg.TokenDuration != 2*time.Hour {
		t.Fatalf("unexpected TokenDuration: got %v want %v", cfg.TokenDuration, 2*time.Hour)
	}
	if cfg.Rewards.MinRedemption != 100 {
		t.Fatalf("unexpected MinRedemption: got %d want 100", cfg.Rewards.MinRedemption)
	}
	if cfg.Rewards.PromptsPerHour != 10 {
		t.Fatalf("unexpected PromptsPerHour: got %d want 10", cfg.Rewards.PromptsPerHour)
	}
	if cfg.Rewards.Schedule["prompt"] != 2 {
		t.Fatalf("unexpected schedule override: got %d want 2", cfg.Rewards.Schedule["prompt"])
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	f, err := os.CreateTemp("", "bad-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	if err := os.WriteFile(f.Name(), []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}
