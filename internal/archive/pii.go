package archive

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`)
)

// HashContact returns a stable hex SHA-256 of the lowercased email, or of the
// phone when no email is present. Blank input hashes to "".
func HashContact(email, phone string) string {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		key = strings.TrimSpace(phone)
	}
	if key == "" {
		return ""
	}
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// ScrubPII replaces emails with [EMAIL] and phone numbers with [PHONE].
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	return text
}

// Scrub applies ScrubPII to the free-text fields of rec in place.
func Scrub(rec *LeadRecord) {
	rec.Subject = ScrubPII(rec.Subject)
	rec.Text = ScrubPII(rec.Text)
}
