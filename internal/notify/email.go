// internal/notify/email.go

// Package notify sends decision outcome emails to applicants.
package notify

import (
	"context"
	"fmt"

	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the slice of the SES client the notifier needs.
type SESAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier emails the applicant when a decision lands. Failures are
// logged and swallowed; notification never blocks or fails the decision.
type EmailNotifier struct {
	ses     SESAPI
	from    string
	enabled bool
	logger  logger.Logger
}

func NewEmailNotifier(api SESAPI, from string, enabled bool, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		ses:     api,
		from:    from,
		enabled: enabled,
		logger:  log.WithFields(map[string]interface{}{"component": "email-notifier"}),
	}
}

// DecisionCreated notifies the applicant of the outcome on their application.
func (n *EmailNotifier) DecisionCreated(ctx context.Context, to string, app *models.Application, decision *models.Decision) {
	if !n.enabled || to == "" {
		return
	}

	subject := fmt.Sprintf("Your loan application has been %s", decision.Decision)
	body := fmt.Sprintf(
		"Your loan application %s for amount %.2f has been %s.",
		app.ID, app.Amount, decision.Decision,
	)
	if decision.Comment != "" {
		body += fmt.Sprintf("\n\nReviewer comment: %s", decision.Comment)
	}

	input := &ses.SendEmailInput{
		Source: awssdk.String(n.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: awssdk.String(body)},
			},
		},
	}

	if _, err := n.ses.SendEmail(ctx, input); err != nil {
		n.logger.WithError(err).Warn("decision email failed", map[string]interface{}{
			"applicationId": app.ID.String(),
			"decision":      string(decision.Decision),
		})
		return
	}

	n.logger.Info("decision email sent", map[string]interface{}{
		"applicationId": app.ID.String(),
		"decision":      string(decision.Decision),
	})
}
