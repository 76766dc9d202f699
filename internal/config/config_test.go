package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Set some test environment variables
	if err := os.Setenv("SERVER_PORT", "9090"); err != nil {
		t.Fatalf("Failed to set SERVER_PORT: %v", err)
	}
	if err := os.Setenv("POSTGRES_HOST", "testhost"); err != nil {
		t.Fatalf("Failed to set POSTGRES_HOST: %v", err)
	}
	if err := os.Setenv("DATA_API_PAGE_TIMEOUT", "3s"); err != nil {
		t.Fatalf("Failed to set DATA_API_PAGE_TIMEOUT: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("SERVER_PORT")
		_ = os.Unsetenv("POSTGRES_HOST")
		_ = os.Unsetenv("DATA_API_PAGE_TIMEOUT")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}

	if cfg.Database.Postgres.Host != "testhost" {
		t.Errorf("Database.Postgres.Host = %v, want %v", cfg.Database.Postgres.Host, "testhost")
	}

	if cfg.DataAPI.PageTimeout != 3*time.Second {
		t.Errorf("DataAPI.PageTimeout = %v, want %v", cfg.DataAPI.PageTimeout, 3*time.Second)
	}
}

func TestSyncDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Sync.WalletConcurrency != 30 {
		t.Errorf("Sync.WalletConcurrency = %v, want 30", cfg.Sync.WalletConcurrency)
	}
	if cfg.Sync.LookupConcurrency != 10 {
		t.Errorf("Sync.LookupConcurrency = %v, want 10", cfg.Sync.LookupConcurrency)
	}
	if cfg.Sync.MaxBackfillPages != 5000 {
		t.Errorf("Sync.MaxBackfillPages = %v, want 5000", cfg.Sync.MaxBackfillPages)
	}
	if cfg.Sync.MaxIncrementalPage != 100 {
		t.Errorf("Sync.MaxIncrementalPage = %v, want 100", cfg.Sync.MaxIncrementalPage)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		want         int
	}{
		{name: "parses valid integer", envValue: "42", defaultValue: 7, want: 42},
		{name: "falls back on invalid integer", envValue: "abc", defaultValue: 7, want: 7},
		{name: "falls back on empty", envValue: "", defaultValue: 7, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_INT_KEY"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
				defer os.Unsetenv(key)
			}
			if got := getEnvAsInt(key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	key := "TEST_FLOAT_KEY"
	os.Setenv(key, "2.5")
	defer os.Unsetenv(key)

	if got := getEnvAsFloat(key, 1.0); got != 2.5 {
		t.Errorf("getEnvAsFloat() = %v, want 2.5", got)
	}
	if got := getEnvAsFloat("TEST_FLOAT_MISSING", 1.0); got != 1.0 {
		t.Errorf("getEnvAsFloat() default = %v, want 1.0", got)
	}
}
