package drafts

import "time"

// TypeReply marks a generated email reply.
const TypeReply = "reply"

// NoReplySpam is the body stored for leads that should not be answered.
const NoReplySpam = "[NO_REPLY_SPAM]"

// Draft is a generated reply persisted against a lead.
type Draft struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	LeadID    string    `json:"lead_id"`
	Type      string    `json:"type"`
	Content   Content   `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Content is the jsonb payload of a draft.
type Content struct {
	Body string `json:"body"`
}

// IsSpam reports whether the draft carries the no-reply sentinel.
func (d *Draft) IsSpam() bool {
	return d.Content.Body == NoReplySpam
}

// ListFilter pages draft listings.
type ListFilter struct {
	Limit  int
	Offset int
}
