package intent

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/crm-lead-fusion/internal/inference"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

var tracer = otel.Tracer("crm/intent-classifier")

// Label is the classified purpose of an inbound message.
type Label string

const (
	Sales   Label = "sales"
	Support Label = "support"
	Spam    Label = "spam"
)

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	return l == Sales || l == Support || l == Spam
}

// Hypotheses sent to the zero-shot model.
const (
	HypothesisSales   = "a sales inquiry about buying a product or service"
	HypothesisSupport = "a customer support/bug report request"
	HypothesisSpam    = "unsolicited spam or promotion"

	hypothesisTemplate = "This message is {}."
)

// Decision thresholds. These are part of the classification contract.
const (
	SupportNudge  = 0.15
	SupportMargin = 0.10
	SpamThreshold = 0.50
)

const fallbackStage = "intent"

// Scores are the per-hypothesis model scores, 0 when not reported.
type Scores struct {
	Sales   float64
	Support float64
	Spam    float64
}

// FallbackRecorder is notified whenever the model call fails and rules alone decide.
type FallbackRecorder interface {
	ObserveFallback(stage string)
}

// Classifier decides sales/support/spam with rules first and the zero-shot
// model second.
type Classifier struct {
	model    string
	client   inference.ZeroShotClassifier
	logger   *logging.Logger
	fallback FallbackRecorder
}

// NewClassifier builds a classifier around the zero-shot capability.
func NewClassifier(client inference.ZeroShotClassifier, model string, logger *logging.Logger, fallback FallbackRecorder) *Classifier {
	if client == nil {
		panic("intent: zero-shot client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{
		model:    model,
		client:   client,
		logger:   logger,
		fallback: fallback,
	}
}

// Classify never fails: a model error leaves all scores at zero and the
// rules decide.
func (c *Classifier) Classify(ctx context.Context, text string) Label {
	ctx, span := tracer.Start(ctx, "intent.Classify", trace.WithAttributes(
		attribute.Int("text_length", len(text)),
	))
	defer span.End()

	if IsSpam(text) {
		span.SetAttributes(attribute.Bool("spam_rule", true), attribute.String("intent", string(Spam)))
		return Spam
	}

	scores, err := c.modelScores(ctx, text)
	if err != nil {
		c.logger.Warn("zero-shot intent failed, falling back to rules", "error", err)
		span.RecordError(err)
		if c.fallback != nil {
			c.fallback.ObserveFallback(fallbackStage)
		}
		scores = Scores{}
	}

	label := Decide(scores, HasSupportHint(text))
	span.SetAttributes(
		attribute.Float64("score_sales", scores.Sales),
		attribute.Float64("score_support", scores.Support),
		attribute.Float64("score_spam", scores.Spam),
		attribute.String("intent", string(label)),
	)
	return label
}

func (c *Classifier) modelScores(ctx context.Context, text string) (Scores, error) {
	results, err := c.client.Classify(ctx, inference.ZeroShotRequest{
		Model:              c.model,
		Text:               inference.Truncate(text, inference.MaxClassifyInput),
		CandidateLabels:    []string{HypothesisSales, HypothesisSupport, HypothesisSpam},
		HypothesisTemplate: hypothesisTemplate,
		MultiLabel:         true,
	})
	if err != nil {
		return Scores{}, err
	}
	if len(results) == 0 {
		return Scores{}, nil
	}
	first := results[0]
	return Scores{
		Sales:   first.ScoreFor(HypothesisSales),
		Support: first.ScoreFor(HypothesisSupport),
		Spam:    first.ScoreFor(HypothesisSpam),
	}, nil
}

// Decide applies the support nudge and thresholds to model scores.
func Decide(scores Scores, supportHit bool) Label {
	support := scores.Support
	if supportHit {
		support += SupportNudge
	}

	if support >= max(scores.Sales, scores.Spam)+SupportMargin || (supportHit && scores.Spam < SpamThreshold) {
		return Support
	}
	if scores.Spam >= SpamThreshold {
		return Spam
	}
	return Sales
}
