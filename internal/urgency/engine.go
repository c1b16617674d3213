package urgency

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/crm-lead-fusion/internal/inference"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

var tracer = otel.Tracer("crm/urgency-engine")

// Band is the 3-level urgency label derived from the fused score.
type Band string

const (
	Low    Band = "low"
	Medium Band = "medium"
	High   Band = "high"
)

// Sentiment is the dominant label of the sentiment distribution.
type Sentiment string

const (
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
	Positive Sentiment = "positive"
)

const (
	baseNegative = 35
	baseNeutral  = 15
	basePositive = 10

	highThreshold   = 60
	mediumThreshold = 30
	maxScore        = 100

	fallbackSentimentScore = 0.33
	fallbackStage          = "sentiment"
)

// SentimentResult is the label chosen from the model distribution.
type SentimentResult struct {
	Label Sentiment
	Score float64
}

// Fusion is the deterministic combination of sentiment and rule score.
type Fusion struct {
	Urgency Band
	Score   int
}

// Assessment is the full output attached to a lead.
type Assessment struct {
	Urgency   Band      `json:"urgency"`
	Score     int       `json:"urgency_score"`
	Reasons   []string  `json:"urgency_reasons"`
	Sentiment Sentiment `json:"sentiment"`
}

// FallbackRecorder is notified when sentiment falls back to neutral.
type FallbackRecorder interface {
	ObserveFallback(stage string)
}

// Engine fuses external sentiment with local rule signals.
type Engine struct {
	model    string
	scorer   inference.SentimentScorer
	logger   *logging.Logger
	fallback FallbackRecorder
}

// NewEngine builds an engine around the sentiment capability.
func NewEngine(scorer inference.SentimentScorer, model string, logger *logging.Logger, fallback FallbackRecorder) *Engine {
	if scorer == nil {
		panic("urgency: sentiment scorer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{model: model, scorer: scorer, logger: logger, fallback: fallback}
}

// Assess never fails; sentiment errors degrade to neutral.
func (e *Engine) Assess(ctx context.Context, text string) Assessment {
	ctx, span := tracer.Start(ctx, "urgency.Assess")
	defer span.End()

	sentiment := e.sentiment(ctx, text)
	signals := RuleSignals(text)
	fused := Fuse(sentiment.Label, signals.Score)

	span.SetAttributes(
		attribute.String("sentiment", string(sentiment.Label)),
		attribute.Int("rule_score", signals.Score),
		attribute.Int("urgency_score", fused.Score),
		attribute.String("urgency", string(fused.Urgency)),
	)
	return Assessment{
		Urgency:   fused.Urgency,
		Score:     fused.Score,
		Reasons:   signals.Reasons,
		Sentiment: sentiment.Label,
	}
}

func (e *Engine) sentiment(ctx context.Context, text string) SentimentResult {
	fallback := SentimentResult{Label: Neutral, Score: fallbackSentimentScore}

	dist, err := e.scorer.Sentiment(ctx, e.model, inference.Truncate(text, inference.MaxSentimentInput))
	if err != nil {
		e.logger.Warn("sentiment call failed, defaulting to neutral", "error", err)
		e.observeFallback()
		return fallback
	}
	if len(dist) == 0 || len(dist[0]) == 0 {
		e.logger.Warn("unexpected sentiment response shape", "sequences", len(dist))
		e.observeFallback()
		return fallback
	}
	return PickSentiment(dist[0])
}

func (e *Engine) observeFallback() {
	if e.fallback != nil {
		e.fallback.ObserveFallback(fallbackStage)
	}
}

// PickSentiment takes the highest scoring label and maps it onto the three
// canonical sentiments.
func PickSentiment(scores []inference.LabelScore) SentimentResult {
	if len(scores) == 0 {
		return SentimentResult{Label: Neutral, Score: fallbackSentimentScore}
	}
	sorted := make([]inference.LabelScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	best := sorted[0]
	return SentimentResult{Label: normalizeSentiment(best.Label), Score: best.Score}
}

func normalizeSentiment(label string) Sentiment {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "neg"):
		return Negative
	case strings.Contains(l, "pos"):
		return Positive
	default:
		return Neutral
	}
}

// Fuse combines sentiment and rule score into a bounded score and band.
func Fuse(sentiment Sentiment, ruleScore int) Fusion {
	base := basePositive
	switch sentiment {
	case Negative:
		base = baseNegative
	case Neutral:
		base = baseNeutral
	}

	total := min(maxScore, max(0, base+ruleScore))

	band := Low
	switch {
	case total >= highThreshold:
		band = High
	case total >= mediumThreshold:
		band = Medium
	}
	return Fusion{Urgency: band, Score: total}
}
