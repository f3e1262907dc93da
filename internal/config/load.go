package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
// The key server.port maps to REPURPOSER_SERVER_PORT.
const EnvPrefix = "REPURPOSER"

// defaults lists every configuration key with its default value. Keys must be
// registered here for environment overrides to reach Unmarshal.
var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.shutdown_timeout": 10 * time.Second,

	"database.url":            "",
	"database.max_open_conns": 10,
	"database.max_idle_conns": 5,

	"auth.jwt_secret":     "",
	"auth.token_lifetime": 24 * time.Hour,

	"llm.gemini_api_key":     "",
	"llm.gemini_text_model":  "gemini-2.0-flash",
	"llm.gemini_image_model": "imagen-3.0-generate-002",
	"llm.openai_api_key":     "",
	"llm.openai_text_model":  "gpt-4o",
	"llm.openai_image_model": "dall-e-3",
	"llm.image_size":         "1024x1024",
	"llm.temperature":        0.7,
	"llm.max_attempts":       3,
	"llm.retry_delay":        time.Second,
	"llm.max_retry_delay":    30 * time.Second,
	"llm.call_timeout":       60 * time.Second,

	"storage.backend":              "local",
	"storage.local_path":           "storage",
	"storage.gcs_bucket":           "",
	"storage.gcs_prefix":           "",
	"storage.gcs_credentials_file": "",

	"queue.backend":          "memory",
	"queue.rabbitmq_url":     "",
	"queue.name":             "content_jobs",
	"queue.size":             100,
	"queue.max_deliveries":   10,
	"queue.redelivery_delay": 60 * time.Second,

	"redis.enabled":  false,
	"redis.url":      "",
	"redis.lock_ttl": 15 * time.Minute,

	"worker.count":                    2,
	"worker.max_concurrency":          4,
	"worker.stuck_job_age":            30 * time.Minute,
	"worker.stuck_job_check_interval": 5 * time.Minute,
	"worker.metrics_port":             9090,
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the file. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// 1. Defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Optional config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 3. Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
