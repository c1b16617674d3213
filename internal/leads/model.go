package leads

import (
	"strings"
	"time"
)

// Lead is the lifecycle record of one inbound message.
type Lead struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"org_id"`
	ClientID       string    `json:"client_id,omitempty"`
	Source         string    `json:"source"`
	ExternalID     string    `json:"external_id,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	RawText        string    `json:"raw_text"`
	Intent         string    `json:"intent,omitempty"`
	Urgency        string    `json:"urgency,omitempty"`
	UrgencyScore   int       `json:"urgency_score"`
	UrgencyReasons []string  `json:"urgency_reasons"`
	Sentiment      string    `json:"sentiment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ResolveInput carries the fields used to find or create a lead.
type ResolveInput struct {
	OrgID      string
	Source     string
	ExternalID string
	Subject    string
	RawText    string
	ClientID   string
}

// Validate checks the fields every lead needs.
func (in ResolveInput) Validate() error {
	if strings.TrimSpace(in.OrgID) == "" {
		return ErrMissingOrgID
	}
	if strings.TrimSpace(in.Source) == "" {
		return ErrMissingSource
	}
	return nil
}

// Classification is the tag set written onto a lead once per pipeline run.
type Classification struct {
	Intent         string
	Urgency        string
	UrgencyScore   int
	UrgencyReasons []string
	Sentiment      string
}

// ListFilter pages lead listings.
type ListFilter struct {
	Limit  int
	Offset int
	Intent string
}

// Stats holds per-org lead counts for the dashboard.
type Stats struct {
	Total     int            `json:"totalLeads"`
	Recent    int            `json:"recentLeads"`
	ByIntent  map[string]int `json:"leadsByIntent"`
	ByUrgency map[string]int `json:"leadsByUrgency"`
}
