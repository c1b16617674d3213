package clients

import "strings"

// NormalizeEmail lowercases and trims an email. Blank input yields "".
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizePhone converts a phone number into an E.164-like key: digits with
// a leading '+'. A "00" international prefix becomes '+'. Input without any
// digits yields "".
func NormalizePhone(raw string) string {
	var kept strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			kept.WriteRune(r)
		}
	}
	s := kept.String()

	switch {
	case strings.HasPrefix(s, "00"):
		s = s[2:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	digits := strings.ReplaceAll(s, "+", "")
	if digits == "" {
		return ""
	}
	return "+" + digits
}
