package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/crm-lead-fusion/internal/config"
	"github.com/wolfman30/crm-lead-fusion/internal/notify"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

// BuildAlerts returns the urgent lead alerter, or nil when ALERT_EMAIL_TO is unset.
func BuildAlerts(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*notify.Alerter, error) {
	to := strings.TrimSpace(cfg.AlertEmailTo)
	if to == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "stub":
		sender = notify.NewLogSender(logger)
	case "sendgrid":
		if cfg.AlertEmailFrom == "" {
			return nil, fmt.Errorf("bootstrap: ALERT_EMAIL_FROM is required for alerts")
		}
		sg := notify.NewSendGridSender(cfg.SendGridAPIKey, notify.Sender{Address: cfg.AlertEmailFrom}, logger)
		if sg == nil {
			return nil, fmt.Errorf("bootstrap: SENDGRID_API_KEY is required when EMAIL_PROVIDER=sendgrid")
		}
		sender = sg
	case "ses", "":
		if cfg.AlertEmailFrom == "" {
			return nil, fmt.Errorf("bootstrap: ALERT_EMAIL_FROM is required for alerts")
		}
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.Sender{Address: cfg.AlertEmailFrom}, logger)
	default:
		return nil, fmt.Errorf("bootstrap: unsupported EMAIL_PROVIDER %q", cfg.EmailProvider)
	}

	logger.Info("urgent lead alerts enabled", "provider", cfg.EmailProvider, "to", to)
	return notify.NewAlerter(sender, to, logger), nil
}
