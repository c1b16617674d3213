package urgency

import (
	"regexp"
	"strings"
)

// Reason tags appended when a rule category fires.
const (
	ReasonUrgentKeyword = "urgent_keyword"
	ReasonTimeWindow    = "time_window"
	ReasonWeekDeadline  = "week_deadline"
	ReasonBudgetReady   = "budget_ready"
	ReasonManyQuestions = "many_questions"
)

// Points contributed by each rule category.
const (
	pointsUrgentKeyword = 40
	pointsTimeWindow    = 25
	pointsWeekDeadline  = 20
	pointsBudgetReady   = 10
	pointsManyQuestions = 5

	manyQuestionsThreshold = 3
)

var urgentKeywordsSQ = []string{
	"urgjent", "sa më shpejt", "sa me shpejt", "menjëherë", "menjehere",
	"sot", "nesër", "neser", "tani", "brenda ditës", "brenda dites", "brenda javës", "brenda javes",
}

var urgentKeywordsEN = []string{"urgent", "asap", "right away", "today", "tomorrow", "this week", "by friday"}

var (
	timeWindowRe   = regexp.MustCompile(`\b(?:\d+\s?(?:day|days|dit|dite|week|weeks|jav|jave)|24h|48h)\b`)
	weekDeadlineRe = regexp.MustCompile(`\bthis week\b|këtë javë|\bkete jave\b|\bby (?:mon|tue|wed|thu|fri)\b`)
	budgetNowRe    = regexp.MustCompile(`\b(?:budget|buxhet).*(?:now|ready|gati|tani)\b`)
)

// Signals is the outcome of the local rule scan.
type Signals struct {
	Score   int
	Reasons []string
}

// RuleSignals scans text case-insensitively; categories stack additively and
// reasons keep a fixed order.
func RuleSignals(text string) Signals {
	t := strings.ToLower(text)
	out := Signals{Reasons: []string{}}

	if containsAny(t, urgentKeywordsSQ) || containsAny(t, urgentKeywordsEN) {
		out.add(pointsUrgentKeyword, ReasonUrgentKeyword)
	}
	if timeWindowRe.MatchString(t) {
		out.add(pointsTimeWindow, ReasonTimeWindow)
	}
	if weekDeadlineRe.MatchString(t) {
		out.add(pointsWeekDeadline, ReasonWeekDeadline)
	}
	if budgetNowRe.MatchString(t) {
		out.add(pointsBudgetReady, ReasonBudgetReady)
	}
	if strings.Count(t, "?") >= manyQuestionsThreshold {
		out.add(pointsManyQuestions, ReasonManyQuestions)
	}
	return out
}

func (s *Signals) add(points int, reason string) {
	s.Score += points
	s.Reasons = append(s.Reasons, reason)
}

func containsAny(hay string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(hay, n) {
			return true
		}
	}
	return false
}
