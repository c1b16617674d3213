package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

const (
	defaultFromName = "CRM Lead Desk"
	alertPreviewLen = 400
)

// LeadAlert describes a freshly tagged lead that needs a fast human response.
type LeadAlert struct {
	LeadID       string
	OrgID        string
	Source       string
	Intent       string
	Urgency      string
	UrgencyScore int
	Reasons      []string
	Subject      string
	Text         string
	ContactName  string
	ContactEmail string
	ContactPhone string
}

// Alerter emails urgent leads to a fixed operations address.
type Alerter struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

// NewAlerter panics on a nil sender or empty recipient.
func NewAlerter(email EmailSender, to string, logger *logging.Logger) *Alerter {
	if email == nil {
		panic("notify: email sender required")
	}
	if strings.TrimSpace(to) == "" {
		panic("notify: alert recipient required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Alerter{email: email, to: strings.TrimSpace(to), logger: logger}
}

// NotifyUrgentLead sends one alert email for the lead.
func (a *Alerter) NotifyUrgentLead(ctx context.Context, alert LeadAlert) error {
	if alert.LeadID == "" {
		return errors.New("notify: lead id required")
	}
	msg := Email{
		To:       a.to,
		Subject:  alertSubject(alert),
		Text:     alertBody(alert),
		Category: CategoryUrgentLead,
	}
	if err := a.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: urgent lead %s: %w", alert.LeadID, err)
	}
	a.logger.Info("urgent lead alert sent", "lead_id", alert.LeadID, "org_id", alert.OrgID, "urgency_score", alert.UrgencyScore)
	return nil
}

func alertSubject(alert LeadAlert) string {
	topic := strings.TrimSpace(alert.Subject)
	if topic == "" {
		topic = preview(alert.Text, 60)
	}
	return fmt.Sprintf("[%s urgency] %s lead: %s", alert.Urgency, alert.Intent, topic)
}

func alertBody(alert LeadAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead %s (org %s) via %s\n", alert.LeadID, alert.OrgID, alert.Source)
	fmt.Fprintf(&b, "Intent: %s\nUrgency: %s (%d/100)\n", alert.Intent, alert.Urgency, alert.UrgencyScore)
	if len(alert.Reasons) > 0 {
		fmt.Fprintf(&b, "Signals: %s\n", strings.Join(alert.Reasons, ", "))
	}
	contact := strings.TrimSpace(strings.Join(nonEmpty(alert.ContactName, alert.ContactEmail, alert.ContactPhone), " / "))
	if contact != "" {
		fmt.Fprintf(&b, "Contact: %s\n", contact)
	}
	fmt.Fprintf(&b, "\n%s\n", preview(alert.Text, alertPreviewLen))
	return b.String()
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
