package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// CategoryUrgentLead tags alert mail so providers can report on it.
const CategoryUrgentLead = "urgent-lead"

// Email is a plain-text message to a single recipient.
type Email struct {
	To       string
	Subject  string
	Text     string
	Category string
}

// EmailSender delivers one email.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// Sender identifies the From address used for alert mail.
type Sender struct {
	Address string
	Name    string
}

func (s Sender) name() string {
	if strings.TrimSpace(s.Name) == "" {
		return defaultFromName
	}
	return s.Name
}

type sendgridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender posts alert mail to the SendGrid v3 API.
type SendGridSender struct {
	api    sendgridAPI
	from   Sender
	logger *logging.Logger
}

// NewSendGridSender returns nil when apiKey is blank.
func NewSendGridSender(apiKey string, from Sender, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return newSendGridSender(sendgrid.NewSendClient(apiKey), from, logger)
}

func newSendGridSender(api sendgridAPI, from Sender, logger *logging.Logger) *SendGridSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{api: api, from: from, logger: logger}
}

func (s *SendGridSender) Send(ctx context.Context, msg Email) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("notify: sendgrid not configured")
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.from.name(), s.from.Address))
	m.Subject = msg.Subject
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.Category != "" {
		m.AddCategories(msg.Category)
	}

	resp, err := s.api.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("notify: sendgrid to %s: %w", msg.To, err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected alert", "status", resp.StatusCode, "body", resp.Body, "to", msg.To)
		return fmt.Errorf("notify: sendgrid to %s: status %d", msg.To, resp.StatusCode)
	}
	s.logger.Debug("alert mail accepted by sendgrid", "to", msg.To, "status", resp.StatusCode)
	return nil
}

// LogSender writes alerts to the log instead of mailing them.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Email) error {
	s.logger.Info("alert mail (log only)", "to", msg.To, "subject", msg.Subject, "category", msg.Category)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*LogSender)(nil)
)
