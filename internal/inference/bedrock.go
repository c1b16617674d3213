package inference

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockGenerator implements TextGenerator on top of the Bedrock Converse API.
// The request model id is ignored in favour of the configured one.
type BedrockGenerator struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockGenerator(api bedrockConverseAPI, modelID string) *BedrockGenerator {
	if api == nil {
		panic("inference: bedrock converse client cannot be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		panic("inference: bedrock model id required")
	}
	return &BedrockGenerator{api: api, modelID: modelID}
}

func (g *BedrockGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("inference: bedrock prompt required")
	}

	var system []brtypes.SystemContentBlock
	if s := strings.TrimSpace(req.System); s != "" {
		system = append(system, &brtypes.SystemContentBlockMemberText{Value: s})
	}

	inference := &brtypes.InferenceConfiguration{
		Temperature: aws.Float32(float32(req.Params.Temperature)),
	}
	if req.Params.MaxNewTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(req.Params.MaxNewTokens))
	}
	if req.Params.TopP > 0 {
		inference.TopP = aws.Float32(float32(req.Params.TopP))
	}

	out, err := g.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.modelID),
		System:  system,
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: inference,
	})
	if err != nil {
		return "", &ServiceError{Op: "generate", Model: g.modelID, Message: "bedrock converse failed", Err: err}
	}

	if out == nil {
		return "", &ServiceError{Op: "generate", Model: g.modelID, Message: "empty bedrock response"}
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", &ServiceError{Op: "generate", Model: g.modelID, Message: "unexpected bedrock output"}
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	return CleanGeneration(b.String()), nil
}
