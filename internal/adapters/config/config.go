package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"insight/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	AWS           AWSConfig
	Azure         AzureConfig
	Fetch         FetchConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"insight"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"150s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxBodyBytes    int64         `envconfig:"HTTP_MAX_BODY_BYTES" default:"10485760"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AWSConfig holds fallback credentials used when a request carries none.
type AWSConfig struct {
	AccessKey string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	Region    string `envconfig:"AWS_REGION"`
}

// AzureConfig holds fallback endpoints and subscription keys.
type AzureConfig struct {
	TextURL   string `envconfig:"AZURE_TEXT_URL"`
	TextKey   string `envconfig:"AZURE_TEXT_KEY"`
	VisionURL string `envconfig:"AZURE_VISION_URL"`
	VisionKey string `envconfig:"AZURE_VISION_KEY"`
}

// FetchConfig bounds image downloads for providers that need raw bytes.
type FetchConfig struct {
	Timeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	MaxBytes int64         `envconfig:"FETCH_MAX_BYTES" default:"5242880"` // Rekognition inline image limit
}

type KafkaConfig struct {
	Enabled  bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers  []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic    string   `envconfig:"KAFKA_TOPIC" default:"analysis.calls"`
	Encoding string   `envconfig:"KAFKA_ENCODING" default:"json"` // json|protobuf
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.NewValidationError("KAFKA_BROKERS", "required when KAFKA_ENABLED is true", cfg.Kafka.Brokers)
	}

	return &cfg, nil
}
