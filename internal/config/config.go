// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env               string        `mapstructure:"ENV"`
	Port              string        `mapstructure:"PORT"`
	DataDir           string        `mapstructure:"DATA_DIR"`
	UsersFile         string        `mapstructure:"USERS_FILE"`
	OpenAIBaseURL     string        `mapstructure:"OPENAI_BASE_URL"`
	OpenAIAPIKey      string        `mapstructure:"OPENAI_API_KEY"`
	ChatModel         string        `mapstructure:"CHAT_MODEL"`
	EmbeddingModel    string        `mapstructure:"EMBEDDING_MODEL"`
	TopK              int           `mapstructure:"TOP_K"`
	MaxToolIterations int           `mapstructure:"MAX_TOOL_ITERATIONS"`
	LLMTimeout        time.Duration `mapstructure:"LLM_TIMEOUT"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("USERS_FILE", "data/user_credentials.csv")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("CHAT_MODEL", "gpt-4o-mini")
	v.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	v.SetDefault("TOP_K", 5)
	v.SetDefault("MAX_TOOL_ITERATIONS", 8)
	v.SetDefault("LLM_TIMEOUT", "60s")
	v.SetDefault("SESSION_TTL", "12h")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("PORT")
	v.BindEnv("DATA_DIR")
	v.BindEnv("USERS_FILE")
	v.BindEnv("OPENAI_BASE_URL")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("CHAT_MODEL")
	v.BindEnv("EMBEDDING_MODEL")
	v.BindEnv("TOP_K")
	v.BindEnv("MAX_TOOL_ITERATIONS")
	v.BindEnv("LLM_TIMEOUT")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("SESSION_TTL")
	v.BindEnv("DATABASE_URL")

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("TOP_K must be positive, got %d", cfg.TopK)
	}
	if cfg.MaxToolIterations <= 0 {
		return nil, fmt.Errorf("MAX_TOOL_ITERATIONS must be positive, got %d", cfg.MaxToolIterations)
	}
	return cfg, nil
}

// ValidateServe checks the extra keys the HTTP mode needs.
func (c *Config) ValidateServe() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in serve mode")
	}
	return nil
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
