package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	aws_pkg "github.com/yashrajoria/payment-api/pkg/aws"

	"github.com/joho/godotenv"
)

// Event sinks a deployment can publish payment events to.
const (
	EventSinkNone  = "none"
	EventSinkSNS   = "sns"
	EventSinkKafka = "kafka"
)

// Config holds all configuration for the payment API.
type Config struct {
	Port               string
	AppEnv             string
	AllowedOrigins     []string
	RateLimitPerMinute int

	StripeSecretKey string
	StripeAPIURL    string

	EventSink          string
	PaymentSNSTopicARN string
	KafkaBrokers       []string
	KafkaPaymentTopic  string

	CloudWatchEnabled bool
	UseAWSSecrets     bool
	StripeSecretName  string
}

// SecretGetter resolves a named secret. *aws_pkg.SecretsClient satisfies it.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// IsDevelopment reports whether detailed error output is allowed.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// LoadConfig reads configuration from an optional .env file and the
// environment, with a Secrets Manager override for the Stripe key when
// AWS_USE_SECRETS is true.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	return load(context.Background(), func(ctx context.Context) (SecretGetter, error) {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		return aws_pkg.NewSecretsClient(awsCfg), nil
	})
}

func load(ctx context.Context, secrets func(context.Context) (SecretGetter, error)) (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		AppEnv:             getEnv("APP_ENV", "production"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute: 100,
		StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
		StripeAPIURL:       os.Getenv("STRIPE_API_URL"),
		EventSink:          strings.ToLower(getEnv("EVENT_SINK", EventSinkNone)),
		PaymentSNSTopicARN: os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaPaymentTopic:  getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),
		CloudWatchEnabled:  os.Getenv("CLOUDWATCH_ENABLED") == "true",
		UseAWSSecrets:      os.Getenv("AWS_USE_SECRETS") == "true",
		StripeSecretName:   getEnv("STRIPE_SECRET_NAME", "payments/STRIPE_SECRET_KEY"),
	}

	if raw := os.Getenv("RATE_LIMIT_PER_MINUTE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be a positive integer, got %q", raw)
		}
		cfg.RateLimitPerMinute = n
	}

	if cfg.UseAWSSecrets {
		sm, err := secrets(ctx)
		if err != nil {
			return nil, fmt.Errorf("secrets manager unavailable: %w", err)
		}
		v, err := sm.GetSecret(ctx, cfg.StripeSecretName)
		if err != nil {
			return nil, fmt.Errorf("read %s from secrets manager: %w", cfg.StripeSecretName, err)
		}
		if v == "" {
			return nil, fmt.Errorf("secret %s is empty", cfg.StripeSecretName)
		}
		cfg.StripeSecretKey = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and sink-specific settings.
func (c *Config) Validate() error {
	var errs []error
	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
	}
	switch c.EventSink {
	case EventSinkNone:
	case EventSinkSNS:
		if c.PaymentSNSTopicARN == "" {
			errs = append(errs, errors.New("PAYMENT_SNS_TOPIC_ARN is required when EVENT_SINK=sns"))
		}
	case EventSinkKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when EVENT_SINK=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENT_SINK must be one of none, sns, kafka, got %q", c.EventSink))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSuffix(strings.TrimSpace(part), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
