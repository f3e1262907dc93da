package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains the job record store settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains the API authentication settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// TokenLifetime applies to tokens minted by cmd/token.
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
}

// LLMConfig contains the text and image provider settings.
// Gemini is the primary provider and OpenAI the fallback. With neither key
// set the worker runs against the offline static provider.
type LLMConfig struct {
	GeminiAPIKey     string `mapstructure:"gemini_api_key"`
	GeminiTextModel  string `mapstructure:"gemini_text_model" validate:"required"`
	GeminiImageModel string `mapstructure:"gemini_image_model" validate:"required"`

	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	OpenAITextModel  string `mapstructure:"openai_text_model" validate:"required"`
	OpenAIImageModel string `mapstructure:"openai_image_model" validate:"required"`

	ImageSize   string  `mapstructure:"image_size" validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`

	// MaxAttempts bounds the total number of calls per generation request.
	MaxAttempts   int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" validate:"gt=0"`
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay" validate:"gtefield=RetryDelay"`
	CallTimeout   time.Duration `mapstructure:"call_timeout" validate:"gt=0"`
}

// StorageConfig selects and configures the binary asset backend.
type StorageConfig struct {
	Backend            string `mapstructure:"backend" validate:"required,oneof=local gcs"`
	LocalPath          string `mapstructure:"local_path" validate:"required_if=Backend local"`
	GCSBucket          string `mapstructure:"gcs_bucket" validate:"required_if=Backend gcs"`
	GCSPrefix          string `mapstructure:"gcs_prefix"`
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`
}

// QueueConfig selects and configures the job queue transport.
type QueueConfig struct {
	Backend         string        `mapstructure:"backend" validate:"required,oneof=memory rabbitmq"`
	RabbitMQURL     string        `mapstructure:"rabbitmq_url" validate:"required_if=Backend rabbitmq"`
	Name            string        `mapstructure:"name" validate:"required"`
	Size            int           `mapstructure:"size" validate:"gte=1"`
	MaxDeliveries   int           `mapstructure:"max_deliveries" validate:"gte=1"`
	RedeliveryDelay time.Duration `mapstructure:"redelivery_delay" validate:"gte=0"`
}

// RedisConfig configures the per-job processing lock.
type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url" validate:"required_if=Enabled true"`
	LockTTL time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
}

// WorkerConfig contains the job worker settings.
type WorkerConfig struct {
	Count                 int           `mapstructure:"count" validate:"gte=1"`
	MaxConcurrency        int           `mapstructure:"max_concurrency" validate:"gte=1"`
	StuckJobAge           time.Duration `mapstructure:"stuck_job_age" validate:"gt=0"`
	StuckJobCheckInterval time.Duration `mapstructure:"stuck_job_check_interval" validate:"gt=0"`
	MetricsPort           int           `mapstructure:"metrics_port" validate:"gt=0,lt=65536"`
}
