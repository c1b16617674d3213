package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Inference service
	InferenceBaseURL  string
	InferenceToken    string
	InferenceTimeout  time.Duration
	InferenceCacheTTL time.Duration
	IntentModelID     string
	SentimentModelID  string
	GenerationModelID string

	// GenerationProvider selects the reply backend: "inference" or "bedrock".
	GenerationProvider string
	BedrockModelID     string
	AnthropicAPIKey    string
	AnthropicModelID   string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Async inbound processing
	InboundQueueURL  string
	InboundJobsTable string
	AMQPURL          string
	InboundQueueName string
	UseMemoryQueue   bool
	WorkerCount      int

	// Lead archive
	ArchiveBucket string

	// Urgent lead alerts; EmailProvider is "ses", "sendgrid" or "stub".
	AlertEmailTo   string
	AlertEmailFrom string
	EmailProvider  string
	SendGridAPIKey string

	AutoDraft          bool
	DefaultOrgID       string
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		InferenceBaseURL:  getEnv("INFERENCE_BASE_URL", "https://api-inference.huggingface.co/models"),
		InferenceToken:    getEnv("INFERENCE_TOKEN", ""),
		InferenceTimeout:  getEnvAsDuration("INFERENCE_TIMEOUT", 60*time.Second),
		InferenceCacheTTL: getEnvAsDuration("INFERENCE_CACHE_TTL", 10*time.Minute),
		IntentModelID:     getEnv("INTENT_MODEL_ID", "MoritzLaurer/mDeBERTa-v3-base-mnli-xnli"),
		SentimentModelID:  getEnv("SENTIMENT_MODEL_ID", "cardiffnlp/twitter-xlm-roberta-base-sentiment"),
		GenerationModelID: getEnv("GENERATION_MODEL_ID", "TinyLlama/TinyLlama-1.1B-Chat-v1.0"),

		GenerationProvider: strings.ToLower(strings.TrimSpace(getEnv("GENERATION_PROVIDER", "inference"))),
		BedrockModelID:     getEnv("BEDROCK_MODEL_ID", ""),
		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModelID:   getEnv("ANTHROPIC_MODEL_ID", "claude-haiku-4-5"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		InboundQueueURL:  getEnv("INBOUND_QUEUE_URL", ""),
		InboundJobsTable: getEnv("INBOUND_JOBS_TABLE", ""),
		AMQPURL:          getEnv("AMQP_URL", ""),
		InboundQueueName: getEnv("INBOUND_QUEUE_NAME", "crm.inbound"),
		UseMemoryQueue:   getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 2),

		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),

		AlertEmailTo:   getEnv("ALERT_EMAIL_TO", ""),
		AlertEmailFrom: getEnv("ALERT_EMAIL_FROM", ""),
		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "ses"))),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		AutoDraft:          getEnvAsBool("AUTO_DRAFT", false),
		DefaultOrgID:       getEnv("DEFAULT_ORG_ID", ""),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
