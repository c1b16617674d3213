package archive

import "time"

// LeadRecord is the scrubbed snapshot written once a lead is tagged.
type LeadRecord struct {
	LeadID         string    `json:"lead_id"`
	OrgID          string    `json:"org_id"`
	ClientID       string    `json:"client_id,omitempty"`
	Source         string    `json:"source"`
	Subject        string    `json:"subject,omitempty"`
	Text           string    `json:"text"`
	Intent         string    `json:"intent"`
	Urgency        string    `json:"urgency"`
	UrgencyScore   int       `json:"urgency_score"`
	UrgencyReasons []string  `json:"urgency_reasons"`
	Sentiment      string    `json:"sentiment"`
	ContactHash    string    `json:"contact_hash,omitempty"`
	ArchivedAt     time.Time `json:"archived_at"`
}
