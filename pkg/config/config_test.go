package config

import (
	"os"
	"testing"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageMode != "file" {
		t.Errorf("expected default storage mode 'file', got %q", cfg.StorageMode)
	}
	if cfg.NotifyMode != "log" {
		t.Errorf("expected default notify mode 'log', got %q", cfg.NotifyMode)
	}
	if cfg.RiskMaxOpenPositions != 10 {
		t.Errorf("expected default max open positions 10, got %d", cfg.RiskMaxOpenPositions)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty http port", func(c *Config) { c.HTTPPort = "" }, true},
		{"threshold at 1.0", func(c *Config) { c.DetectParityThreshold = 1.0 }, true},
		{"threshold zero", func(c *Config) { c.DetectParityThreshold = 0 }, true},
		{"negative exposure", func(c *Config) { c.RiskMaxExposureUSD = -1 }, true},
		{"zero open positions", func(c *Config) { c.RiskMaxOpenPositions = 0 }, true},
		{"negative starting cash", func(c *Config) { c.BrokerStartingCashUSD = -100 }, true},
		{"depth frac over 1", func(c *Config) { c.BrokerMaxDepthFrac = 1.5 }, true},
		{"depth frac zero", func(c *Config) { c.BrokerMaxDepthFrac = 0 }, true},
		{"negative iterations", func(c *Config) { c.EngineIterations = -1 }, true},
		{"bad storage mode", func(c *Config) { c.StorageMode = "mongo" }, true},
		{"bad notify mode", func(c *Config) { c.NotifyMode = "sms" }, true},
		{"telegram without token", func(c *Config) { c.NotifyMode = "telegram"; c.TelegramBotToken = "" }, true},
		{"telegram with token", func(c *Config) { c.NotifyMode = "telegram"; c.TelegramBotToken = "xyz" }, false},
		{"max allocation over 1", func(c *Config) { c.RiskMaxAllocationPerMkt = 1.5 }, true},
		{"max allocation zero", func(c *Config) { c.RiskMaxAllocationPerMkt = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("unexpected error loading defaults: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGetEnvOrDefault_ReadsOverride(t *testing.T) {
	os.Setenv("ARB_TEST_ENV_KEY", "custom")
	defer os.Unsetenv("ARB_TEST_ENV_KEY")

	if got := getEnvOrDefault("ARB_TEST_ENV_KEY", "default"); got != "custom" {
		t.Errorf("expected override 'custom', got %q", got)
	}
	if got := getEnvOrDefault("ARB_TEST_ENV_MISSING", "default"); got != "default" {
		t.Errorf("expected default, got %q", got)
	}
}

func TestGetFloat64OrDefault_FallsBackOnBadValue(t *testing.T) {
	os.Setenv("ARB_TEST_FLOAT_KEY", "not-a-number")
	defer os.Unsetenv("ARB_TEST_FLOAT_KEY")

	if got := getFloat64OrDefault("ARB_TEST_FLOAT_KEY", 1.5); got != 1.5 {
		t.Errorf("expected fallback 1.5, got %f", got)
	}
}
