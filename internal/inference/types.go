package inference

import "context"

// Input limits of the hosted models, in characters.
const (
	MaxClassifyInput   = 2000
	MaxSentimentInput  = 512
	MaxGenerationInput = 2000
)

// ZeroShotRequest asks the classifier to score text against candidate labels.
type ZeroShotRequest struct {
	Model              string
	Text               string
	CandidateLabels    []string
	HypothesisTemplate string
	MultiLabel         bool
}

// ZeroShotResult is one classified sequence; Labels and Scores are parallel.
type ZeroShotResult struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ScoreFor returns the score reported for label, or 0 when absent.
func (r ZeroShotResult) ScoreFor(label string) float64 {
	for i, l := range r.Labels {
		if l == label && i < len(r.Scores) {
			return r.Scores[i]
		}
	}
	return 0
}

// LabelScore is one entry of a sentiment distribution.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// GenerationParams are the decoding parameters sent with a generation call.
type GenerationParams struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

// GenerationRequest carries a fully rendered prompt.
type GenerationRequest struct {
	Model  string
	System string
	Prompt string
	Params GenerationParams
}

// ZeroShotClassifier scores text against candidate hypotheses.
type ZeroShotClassifier interface {
	Classify(ctx context.Context, req ZeroShotRequest) ([]ZeroShotResult, error)
}

// SentimentScorer returns label distributions, one per input sequence.
type SentimentScorer interface {
	Sentiment(ctx context.Context, model, text string) ([][]LabelScore, error)
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := 0
	for i := range s {
		if runes == n {
			return s[:i]
		}
		runes++
	}
	return s
}
