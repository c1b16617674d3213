package drafts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserPrompt(t *testing.T) {
	got := BuildUserPrompt(PromptContext{
		Intent:     "support",
		Urgency:    "high",
		OrgName:    "Acme",
		ClientName: "Ana",
		RawText:    "Login is broken",
	})

	want := "Intent: support • Urgency: high\n" +
		"Organization: Acme\n" +
		"Client: Ana\n" +
		"\nOriginal message:\n\"\"\"\nLogin is broken\n\"\"\"\n\n" +
		"Draft the full reply (with greeting and signoff). Plain text only."
	assert.Equal(t, want, got)
}

func TestBuildUserPromptTruncatesMessage(t *testing.T) {
	got := BuildUserPrompt(PromptContext{OrgName: "Acme", RawText: strings.Repeat("ë", 2500)})

	assert.True(t, strings.HasPrefix(got, "Intent: n/a\n"))
	assert.Equal(t, 2000, strings.Count(got, "ë"))
}

func TestSystemPromptRules(t *testing.T) {
	p := SystemPrompt()
	assert.Contains(t, p, "SAME language")
	assert.Contains(t, p, "Max ~120 words")
	assert.Contains(t, p, "output exactly: [NO_REPLY_SPAM]")
}
