package clients

import (
	"strings"
	"time"
)

// Client is a deduplicated contact identity within an organization.
// Empty optional fields are stored as NULL.
type Client struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Contact is the raw contact block of an inbound message.
type Contact struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// IsEmpty reports whether every field is blank.
func (c Contact) IsEmpty() bool {
	return strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.Email) == "" &&
		strings.TrimSpace(c.Phone) == "" &&
		strings.TrimSpace(c.Company) == ""
}

// ListFilter pages client listings.
type ListFilter struct {
	Limit  int
	Offset int
}
