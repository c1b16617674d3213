package drafts

import (
	"strings"

	"github.com/wolfman30/crm-lead-fusion/internal/inference"
)

// systemPrompt still carries the spam rule; spam leads normally short-circuit
// before generation.
const systemPrompt = `You draft short, professional email replies in the SAME language as the original message (auto-detect).
Rules:
- Max ~120 words, plain text (no markdown).
- If intent is "spam", output exactly: ` + NoReplySpam + `
- If intent is "support": ask for ONE clarifying detail max and propose the next step.
- If intent is "sales": summarize the ask, propose 1-2 concrete next steps, ask for quick confirmation.
- Be polite, clear, and actionable.
- End with a signoff using the organization name.`

// replyParams are the fixed decoding parameters for reply drafts.
var replyParams = inference.GenerationParams{
	MaxNewTokens:      220,
	Temperature:       0.3,
	TopP:              0.9,
	RepetitionPenalty: 1.05,
}

// PromptContext is everything the reply prompt is grounded on.
type PromptContext struct {
	Intent     string
	Urgency    string
	Sentiment  string
	OrgName    string
	ClientName string
	RawText    string
}

// SystemPrompt returns the instruction block sent with every reply request.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt renders the per-lead prompt.
func BuildUserPrompt(pc PromptContext) string {
	var meta []string
	if pc.Intent != "" {
		meta = append(meta, "Intent: "+pc.Intent)
	}
	if pc.Urgency != "" {
		meta = append(meta, "Urgency: "+pc.Urgency)
	}
	if pc.Sentiment != "" {
		meta = append(meta, "Sentiment: "+pc.Sentiment)
	}
	metaLine := strings.Join(meta, " • ")
	if metaLine == "" {
		metaLine = "Intent: n/a"
	}

	var b strings.Builder
	b.WriteString(metaLine)
	b.WriteString("\nOrganization: ")
	b.WriteString(pc.OrgName)
	b.WriteString("\n")
	if name := strings.TrimSpace(pc.ClientName); name != "" {
		b.WriteString("Client: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("\nOriginal message:\n\"\"\"\n")
	b.WriteString(inference.Truncate(pc.RawText, inference.MaxGenerationInput))
	b.WriteString("\n\"\"\"\n\nDraft the full reply (with greeting and signoff). Plain text only.")
	return b.String()
}
