// Package notify raises alerts when a sync run discovers recall
// campaigns that were not in the warehouse before. Delivery failures
// are logged and never fail the run.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/common/logger"
	"bmw-vin-connector/internal/models"
)

// Publisher is the SNS surface the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Emailer is the SES surface the notifier needs.
type Emailer interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// Config selects the channels and their addressing.
type Config struct {
	TopicARN  string
	FromEmail string
	ToEmails  []string
}

type RecallNotifier struct {
	publisher Publisher
	emailer   Emailer
	config    Config
	logger    logger.Logger
}

// NewRecallNotifier builds a notifier. Either client may be nil, in
// which case that channel is skipped.
func NewRecallNotifier(publisher Publisher, emailer Emailer, cfg Config, log logger.Logger) *RecallNotifier {
	return &RecallNotifier{
		publisher: publisher,
		emailer:   emailer,
		config:    cfg,
		logger:    log,
	}
}

// NotifyNewRecalls sends one alert summarizing the newly inserted
// campaigns. It returns the per-channel errors for the caller to log;
// all channels are attempted regardless of individual failures.
func (n *RecallNotifier) NotifyNewRecalls(ctx context.Context, recalls []models.RecallRecord) []error {
	if len(recalls) == 0 {
		return nil
	}

	subject := fmt.Sprintf("BMW recall alert: %d new campaign(s)", len(recalls))
	body := buildAlertBody(recalls)

	var errs []error

	if n.publisher != nil && n.config.TopicARN != "" {
		_, err := n.publisher.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(n.config.TopicARN),
			Subject:  aws.String(subject),
			Message:  aws.String(body),
		})
		if err != nil {
			n.logger.Warn("SNS recall alert failed", map[string]interface{}{
				"topic_arn": n.config.TopicARN,
				"error":     err.Error(),
			})
			errs = append(errs, errors.NewNotificationSendFailedError("sns", err))
		}
	}

	if n.emailer != nil && n.config.FromEmail != "" && len(n.config.ToEmails) > 0 {
		_, err := n.emailer.SendEmail(ctx, &ses.SendEmailInput{
			Source: aws.String(n.config.FromEmail),
			Destination: &sestypes.Destination{
				ToAddresses: n.config.ToEmails,
			},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		})
		if err != nil {
			n.logger.Warn("SES recall alert failed", map[string]interface{}{
				"from":  n.config.FromEmail,
				"error": err.Error(),
			})
			errs = append(errs, errors.NewNotificationSendFailedError("ses", err))
		}
	}

	return errs
}

func buildAlertBody(recalls []models.RecallRecord) string {
	var b strings.Builder
	b.WriteString("New NHTSA recall campaigns detected:\n\n")
	for _, r := range recalls {
		fmt.Fprintf(&b, "VIN %s | campaign %s | %s\n", r.VIN, r.CampaignNumber, r.Component)
		if r.Summary != "" {
			fmt.Fprintf(&b, "  %s\n", r.Summary)
		}
	}
	return b.String()
}
