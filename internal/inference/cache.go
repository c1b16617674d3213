package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

const (
	zeroShotKeyPrefix  = "inference:zs:"
	sentimentKeyPrefix = "inference:sent:"
	defaultCacheTTL    = 10 * time.Minute
)

// CachedClient memoizes classification and sentiment results in Redis.
// Generation is never cached because it samples.
type CachedClient struct {
	classifier ZeroShotClassifier
	scorer     SentimentScorer
	redis      *redis.Client
	ttl        time.Duration
	logger     *logging.Logger
}

// NewCachedClient wraps the given capabilities. A nil Redis client disables caching.
func NewCachedClient(classifier ZeroShotClassifier, scorer SentimentScorer, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedClient {
	if classifier == nil || scorer == nil {
		panic("inference: classifier and scorer required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedClient{
		classifier: classifier,
		scorer:     scorer,
		redis:      client,
		ttl:        ttl,
		logger:     logger,
	}
}

// Classify returns a cached result when available, otherwise calls through.
func (c *CachedClient) Classify(ctx context.Context, req ZeroShotRequest) ([]ZeroShotResult, error) {
	key := zeroShotKeyPrefix + cacheKey(req.Model, Truncate(req.Text, MaxClassifyInput), req.CandidateLabels, req.HypothesisTemplate, req.MultiLabel)
	var cached []ZeroShotResult
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	out, err := c.classifier.Classify(ctx, req)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

// Sentiment returns a cached distribution when available, otherwise calls through.
func (c *CachedClient) Sentiment(ctx context.Context, model, text string) ([][]LabelScore, error) {
	key := sentimentKeyPrefix + cacheKey(model, Truncate(text, MaxSentimentInput))
	var cached [][]LabelScore
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	out, err := c.scorer.Sentiment(ctx, model, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *CachedClient) load(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("inference cache read failed", "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("inference cache entry corrupt", "error", err, "key", key)
		return false
	}
	return true
}

func (c *CachedClient) store(ctx context.Context, key string, value any) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("inference cache write failed", "error", err)
	}
}

func cacheKey(parts ...any) string {
	raw, _ := json.Marshal(parts)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
