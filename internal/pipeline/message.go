package pipeline

import (
	"strings"

	"github.com/wolfman30/crm-lead-fusion/internal/clients"
)

// Source is the channel an inbound message arrived on.
type Source string

const (
	SourceEmail    Source = "email"
	SourceWeb      Source = "web"
	SourceWhatsApp Source = "whatsapp"
	SourceManual   Source = "manual"
)

// Valid reports whether s is a known channel.
func (s Source) Valid() bool {
	switch s {
	case SourceEmail, SourceWeb, SourceWhatsApp, SourceManual:
		return true
	}
	return false
}

// Message is one inbound delivery.
type Message struct {
	OrgID      string           `json:"org_id,omitempty"`
	Source     Source           `json:"source,omitempty"`
	Subject    string           `json:"subject,omitempty"`
	ExternalID string           `json:"external_id,omitempty"`
	Text       string           `json:"text"`
	Contact    *clients.Contact `json:"contact,omitempty"`
	// Draft requests a reply draft for this message regardless of the process default.
	Draft bool `json:"draft,omitempty"`
}

// Normalize trims fields and defaults the source to email.
func (m *Message) Normalize() {
	m.OrgID = strings.TrimSpace(m.OrgID)
	m.Subject = strings.TrimSpace(m.Subject)
	m.ExternalID = strings.TrimSpace(m.ExternalID)
	m.Source = Source(strings.ToLower(strings.TrimSpace(string(m.Source))))
	if m.Source == "" {
		m.Source = SourceEmail
	}
}

// Validate checks the fields that do not depend on org resolution.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return ErrEmptyText
	}
	if !m.Source.Valid() {
		return ErrInvalidSource
	}
	return nil
}

// HasContact reports whether any contact field carries a value.
func (m *Message) HasContact() bool {
	return m.Contact != nil && !m.Contact.IsEmpty()
}
