package bootstrap

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/crm-lead-fusion/internal/config"
	"github.com/wolfman30/crm-lead-fusion/internal/inference"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// Models bundles the three inference capabilities and the model id used for
// reply generation.
type Models struct {
	ZeroShot        inference.ZeroShotClassifier
	Sentiment       inference.SentimentScorer
	Generator       inference.TextGenerator
	GenerationModel string
}

// BuildModels wires the hosted inference client, wraps classification in the
// Redis cache when available, and picks the generation backend.
func BuildModels(cfg *appconfig.Config, awsCfg aws.Config, redisClient *redis.Client, logger *logging.Logger) (*Models, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := inference.NewClient(inference.Config{
		BaseURL: cfg.InferenceBaseURL,
		Token:   cfg.InferenceToken,
		Timeout: cfg.InferenceTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: inference client: %w", err)
	}

	models := &Models{
		ZeroShot:        client,
		Sentiment:       client,
		Generator:       client,
		GenerationModel: cfg.GenerationModelID,
	}
	if redisClient != nil {
		cached := inference.NewCachedClient(client, client, redisClient, cfg.InferenceCacheTTL, logger)
		models.ZeroShot = cached
		models.Sentiment = cached
		logger.Info("inference cache enabled", "ttl", cfg.InferenceCacheTTL.String())
	}

	switch cfg.GenerationProvider {
	case "", "inference":
	case "bedrock":
		if cfg.BedrockModelID == "" {
			return nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for the bedrock generation provider")
		}
		models.Generator = inference.NewBedrockGenerator(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		models.GenerationModel = cfg.BedrockModelID
	case "anthropic":
		if cfg.AnthropicAPIKey == "" || cfg.AnthropicModelID == "" {
			return nil, fmt.Errorf("bootstrap: ANTHROPIC_API_KEY and ANTHROPIC_MODEL_ID are required for the anthropic generation provider")
		}
		models.Generator = inference.NewAnthropicGenerator(inference.NewAnthropicClient(cfg.AnthropicAPIKey), cfg.AnthropicModelID)
		models.GenerationModel = cfg.AnthropicModelID
	default:
		return nil, fmt.Errorf("bootstrap: unknown generation provider %q", cfg.GenerationProvider)
	}
	logger.Info("inference wired",
		"intent_model", cfg.IntentModelID,
		"sentiment_model", cfg.SentimentModelID,
		"generation_provider", cfg.GenerationProvider,
		"generation_model", models.GenerationModel,
	)
	return models, nil
}
