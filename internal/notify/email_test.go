package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type fakeSendGrid struct {
	sent   *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "{}"}, nil
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	if NewSendGridSender("  ", Sender{Address: "alerts@example.com"}, nil) != nil {
		t.Error("expected nil sender when API key is blank")
	}
	if NewSendGridSender("sg-key", Sender{Address: "alerts@example.com"}, nil) == nil {
		t.Error("expected sender when API key is set")
	}
}

func TestSendGridSender_Send(t *testing.T) {
	api := &fakeSendGrid{status: 202}
	sender := newSendGridSender(api, Sender{Address: "alerts@example.com"}, nil)

	err := sender.Send(context.Background(), Email{To: "ops@example.com", Subject: "Urgent lead", Text: "call now", Category: CategoryUrgentLead})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := api.sent
	if m.From.Name != defaultFromName || m.From.Address != "alerts@example.com" {
		t.Errorf("from = %+v", m.From)
	}
	if m.Subject != "Urgent lead" {
		t.Errorf("subject = %q", m.Subject)
	}
	if len(m.Personalizations) != 1 || m.Personalizations[0].To[0].Address != "ops@example.com" {
		t.Errorf("unexpected recipients %+v", m.Personalizations)
	}
	if len(m.Content) != 1 || m.Content[0].Type != "text/plain" || m.Content[0].Value != "call now" {
		t.Errorf("unexpected content %+v", m.Content)
	}
	if len(m.Categories) != 1 || m.Categories[0] != CategoryUrgentLead {
		t.Errorf("categories = %v", m.Categories)
	}
}

func TestSendGridSender_SendErrors(t *testing.T) {
	sender := newSendGridSender(&fakeSendGrid{status: 400}, Sender{Address: "alerts@example.com"}, nil)
	err := sender.Send(context.Background(), Email{To: "ops@example.com"})
	if err == nil || !strings.Contains(err.Error(), "status 400") || !strings.Contains(err.Error(), "ops@example.com") {
		t.Fatalf("expected status error naming the recipient, got %v", err)
	}

	sender = newSendGridSender(&fakeSendGrid{err: errors.New("dial tcp")}, Sender{Address: "alerts@example.com"}, nil)
	if err := sender.Send(context.Background(), Email{To: "ops@example.com"}); err == nil || !strings.Contains(err.Error(), "dial tcp") {
		t.Fatalf("expected transport error, got %v", err)
	}

	var unset *SendGridSender
	if err := unset.Send(context.Background(), Email{To: "ops@example.com"}); err == nil {
		t.Error("expected error from an unconfigured sender")
	}
}

func TestLogSender_Send(t *testing.T) {
	if err := NewLogSender(nil).Send(context.Background(), Email{To: "ops@example.com"}); err != nil {
		t.Errorf("log sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, Sender{Address: "alerts@example.com"}, nil) != nil {
		t.Error("expected nil sender without a client")
	}
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, Sender{Address: "alerts@example.com", Name: "Lead Desk"}, nil)

	err := sender.Send(context.Background(), Email{To: "ops@example.com", Subject: "Urgent lead", Text: "call now", Category: CategoryUrgentLead})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := client.input
	if got := aws.ToString(in.FromEmailAddress); got != "Lead Desk <alerts@example.com>" {
		t.Errorf("from = %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "ops@example.com" {
		t.Errorf("to = %v", in.Destination.ToAddresses)
	}
	if got := aws.ToString(in.Content.Simple.Subject.Data); got != "Urgent lead" {
		t.Errorf("subject = %q", got)
	}
	if got := aws.ToString(in.Content.Simple.Body.Text.Data); got != "call now" {
		t.Errorf("text body = %q", got)
	}
	if len(in.EmailTags) != 1 || aws.ToString(in.EmailTags[0].Value) != CategoryUrgentLead {
		t.Errorf("tags = %+v", in.EmailTags)
	}
}

func TestSESSender_Send_Error(t *testing.T) {
	sender := NewSESSender(&fakeSES{err: errors.New("throttled")}, Sender{Address: "alerts@example.com"}, nil)
	err := sender.Send(context.Background(), Email{To: "ops@example.com", Subject: "s", Text: "b"})
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped SES error, got %v", err)
	}
}
