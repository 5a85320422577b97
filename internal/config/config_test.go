package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d", cfg.TopK)
	}
	if cfg.MaxToolIterations != 8 {
		t.Errorf("MaxToolIterations = %d", cfg.MaxToolIterations)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Errorf("LLMTimeout = %s", cfg.LLMTimeout)
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TOP_K", "3")
	t.Setenv("MAX_TOOL_ITERATIONS", "2")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TopK != 3 || cfg.MaxToolIterations != 2 || cfg.LLMTimeout != 5*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Error("production env reported as development")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing OPENAI_API_KEY")
	}
}

func TestLoad_InvalidNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("TOP_K", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for TOP_K=0")
	}
}

func TestValidateServe(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.ValidateServe(); err == nil {
		t.Error("expected error without JWT_SECRET")
	}

	cfg.JWTSecret = "secret"
	if err := cfg.ValidateServe(); err != nil {
		t.Errorf("ValidateServe = %v", err)
	}
}
