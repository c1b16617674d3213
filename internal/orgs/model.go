package orgs

import (
	"strings"
	"time"
	"unicode"
)

// Organization is a CRM tenant.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the body of POST /admin/orgs.
type CreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Validate trims the request and derives a slug from the name when absent.
func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Slug) == "" {
		r.Slug = r.Name
	}
	r.Slug = Slugify(r.Slug)
	if r.Slug == "" {
		return ErrInvalidSlug
	}
	return nil
}

// Slugify lowercases s and collapses every run of non-alphanumerics into one '-'.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
