package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrubPII(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email", "reach me at dana@example.com please", "reach me at [EMAIL] please"},
		{"phone", "call +1 555-123-4567 today", "call [PHONE] today"},
		{"both", "jo@acme.io or (555) 123-4567", "[EMAIL] or [PHONE]"},
		{"clean", "no contact details here", "no contact details here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScrubPII(tt.in))
		})
	}
}

func TestHashContact(t *testing.T) {
	a := HashContact("Dana@Example.com ", "")
	b := HashContact("dana@example.com", "+15551234567")
	assert.Equal(t, a, b, "email wins and is case-insensitive")
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, HashContact("", "+15551234567"))
	assert.Empty(t, HashContact(" ", ""))
}

func TestScrubRecord(t *testing.T) {
	rec := &LeadRecord{Subject: "from dana@example.com", Text: "call 555-123-4567"}
	Scrub(rec)
	assert.Equal(t, "from [EMAIL]", rec.Subject)
	assert.Equal(t, "call [PHONE]", rec.Text)
}
