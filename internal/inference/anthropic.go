package inference

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 512

// AnthropicMessagesAPI is the subset of the SDK messages service used here.
type AnthropicMessagesAPI interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicGenerator implements TextGenerator on the Anthropic Messages API.
// Like BedrockGenerator it ignores the request model id.
type AnthropicGenerator struct {
	api     AnthropicMessagesAPI
	modelID string
}

// NewAnthropicClient builds the SDK client for apiKey and returns its
// messages service.
func NewAnthropicClient(apiKey string) AnthropicMessagesAPI {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return &client.Messages
}

func NewAnthropicGenerator(api AnthropicMessagesAPI, modelID string) *AnthropicGenerator {
	if api == nil {
		panic("inference: anthropic messages client cannot be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		panic("inference: anthropic model id required")
	}
	return &AnthropicGenerator{api: api, modelID: modelID}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("inference: anthropic prompt required")
	}

	maxTokens := int64(req.Params.MaxNewTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.modelID),
		MaxTokens: maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	}
	if s := strings.TrimSpace(req.System); s != "" {
		params.System = []sdk.TextBlockParam{{Text: s}}
	}
	if req.Params.Temperature > 0 {
		params.Temperature = sdk.Float(req.Params.Temperature)
	}
	if req.Params.TopP > 0 {
		params.TopP = sdk.Float(req.Params.TopP)
	}

	msg, err := g.api.New(ctx, params)
	if err != nil {
		return "", &ServiceError{Op: "generate", Model: g.modelID, Message: "anthropic messages call failed", Err: err}
	}
	if msg == nil {
		return "", &ServiceError{Op: "generate", Model: g.modelID, Message: "empty anthropic response"}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return CleanGeneration(b.String()), nil
}
