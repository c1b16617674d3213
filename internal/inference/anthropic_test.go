package inference

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	params sdk.MessageNewParams
	out    *sdk.Message
	err    error
}

func (f *fakeMessages) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	f.params = body
	return f.out, f.err
}

func TestAnthropicGenerator(t *testing.T) {
	api := &fakeMessages{out: &sdk.Message{Content: []sdk.ContentBlockUnion{
		{Type: "text", Text: "Assistant: Hi Ana, "},
		{Type: "text", Text: "thanks for reaching out."},
	}}}
	gen := NewAnthropicGenerator(api, "claude-haiku-4-5")

	got, err := gen.Generate(context.Background(), GenerationRequest{
		Model:  "ignored",
		System: "sys",
		Prompt: "draft",
		Params: GenerationParams{MaxNewTokens: 220, Temperature: 0.3, TopP: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana, thanks for reaching out.", got)

	assert.Equal(t, sdk.Model("claude-haiku-4-5"), api.params.Model)
	assert.Equal(t, int64(220), api.params.MaxTokens)
	require.Len(t, api.params.System, 1)
	assert.Equal(t, "sys", api.params.System[0].Text)
	assert.Len(t, api.params.Messages, 1)
}

func TestAnthropicGeneratorDefaultsMaxTokens(t *testing.T) {
	api := &fakeMessages{out: &sdk.Message{Content: []sdk.ContentBlockUnion{{Type: "text", Text: "ok"}}}}
	_, err := NewAnthropicGenerator(api, "m").Generate(context.Background(), GenerationRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, int64(defaultAnthropicMaxTokens), api.params.MaxTokens)
	assert.Empty(t, api.params.System)
}

func TestAnthropicGeneratorErrors(t *testing.T) {
	gen := NewAnthropicGenerator(&fakeMessages{err: errors.New("overloaded")}, "m")
	_, err := gen.Generate(context.Background(), GenerationRequest{Prompt: "p"})
	require.ErrorIs(t, err, ErrService)

	_, err = gen.Generate(context.Background(), GenerationRequest{Prompt: "  "})
	require.Error(t, err)

	_, err = NewAnthropicGenerator(&fakeMessages{}, "m").Generate(context.Background(), GenerationRequest{Prompt: "p"})
	require.ErrorIs(t, err, ErrService)

	assert.Panics(t, func() { NewAnthropicGenerator(nil, "m") })
	assert.Panics(t, func() { NewAnthropicGenerator(&fakeMessages{}, " ") })
}
