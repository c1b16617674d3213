package intent

import (
	"regexp"
	"strings"
)

var supportHintsEN = []string{
	"bug", "issue", "error", "500", "crash", "fails", "down", "not working", "problem",
	"refund", "warranty", "help", "support", "fix", "debug", "cannot", "can’t", "can't",
}

// Albanian support vocabulary, including unaccented spellings.
var supportHintsSQ = []string{
	"gabim", "problem", "defekt", "ndahet", "nuk punon", "jo funksionon", "ndihmë", "ndihme",
	"mbështetje", "support", "rimbursim", "faturë nuk", "nuk mund", "s’punon", "spunon",
}

var spamHints = []string{
	"click here", "make $", "win $", "crypto", "bitcoin", "pump", "investment opportunity",
	"adult", "xxx", "viagra", "loan approval", "betting", "casino", "airdrop", "bonus",
}

// spamSignature matches income promises ("$500 per day"), links, WhatsApp
// and Telegram handles, and long international phone numbers.
var spamSignature = regexp.MustCompile(`(?i)(?:\$?\b\d{3,}\s*(?:per\s*(?:day|week)|/\s*(?:day|week))\b|https?://\S+|\bwa\.me/\d+|\+\d{7,}\b|\btelegram\b|\bt\.me/\S+)`)

// IsSpam reports whether text trips the hard spam rules. No model is consulted.
func IsSpam(text string) bool {
	t := strings.ToLower(text)
	return spamSignature.MatchString(t) || containsAny(t, spamHints)
}

// HasSupportHint reports whether text contains English or Albanian support vocabulary.
func HasSupportHint(text string) bool {
	t := strings.ToLower(text)
	return containsAny(t, supportHintsEN) || containsAny(t, supportHintsSQ)
}

func containsAny(hay string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(hay, n) {
			return true
		}
	}
	return false
}
