package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime settings for a grading run. The api key and policy
// live in the keystore, not here; everything else is env-driven with
// defaults.
type Config struct {
	Model          string        `validate:"required"`
	BatchSize      int           `validate:"gte=1"`
	Cooldown       time.Duration `validate:"gte=0"`
	MaxRetries     int           `validate:"gte=1"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

// Load reads configuration from GRADER_* environment variables with
// sensible defaults. A local .env file is loaded best-effort for dev
// convenience.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("batch.size", 5)
	v.SetDefault("batch.cooldown_ms", 2000)
	v.SetDefault("max_retries", 5)
	v.SetDefault("request_timeout_s", 120)

	cfg := Config{
		Model:          v.GetString("model"),
		BatchSize:      v.GetInt("batch.size"),
		Cooldown:       time.Duration(v.GetInt("batch.cooldown_ms")) * time.Millisecond,
		MaxRetries:     v.GetInt("max_retries"),
		RequestTimeout: time.Duration(v.GetInt("request_timeout_s")) * time.Second,
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
