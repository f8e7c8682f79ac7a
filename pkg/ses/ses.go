package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/carvalholeo/sistema-caronas-sub001/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// API is the subset of *ses.Client used by Mailer.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SendError carries a fixed description of an SES failure; the raw error
// is reachable through Unwrap.
type SendError struct {
	Reason string
	Err    error
}

func (e *SendError) Error() string { return "ses: " + e.Reason }
func (e *SendError) Unwrap() error { return e.Err }

// Mailer sends plain-text email through Amazon SES.
type Mailer struct {
	api    API
	sender string
}

// NewMailer loads the default AWS configuration for region.
func NewMailer(ctx context.Context, region, sender string) (*Mailer, error) {
	if sender == "" {
		return nil, errors.New("ses: sender address is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewMailerWithAPI(ses.NewFromConfig(cfg), sender), nil
}

func NewMailerWithAPI(api API, sender string) *Mailer {
	return &Mailer{api: api, sender: sender}
}

// Send delivers a single message to one recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
		Source: aws.String(m.sender),
	}

	out, err := m.api.SendEmail(ctx, input)
	if err != nil {
		logging.Get().Warn().Str("component", "ses").Err(err).Msg("send failed")
		return classify(err)
	}
	logging.Get().Debug().Str("component", "ses").Str("message_id", aws.ToString(out.MessageId)).Msg("email sent")
	return nil
}

type apiError interface {
	ErrorCode() string
}

// classify keeps provider error text out of callers that persist it.
func classify(err error) error {
	var rejected *types.MessageRejected
	var unverified *types.MailFromDomainNotVerifiedException
	var paused *types.AccountSendingPausedException
	var ae apiError
	switch {
	case errors.As(err, &rejected):
		return &SendError{Reason: "message rejected", Err: err}
	case errors.As(err, &unverified):
		return &SendError{Reason: "sender domain not verified", Err: err}
	case errors.As(err, &paused):
		return &SendError{Reason: "account sending paused", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &SendError{Reason: "timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &SendError{Reason: "canceled", Err: err}
	case errors.As(err, &ae) && ae.ErrorCode() == "Throttling":
		return &SendError{Reason: "throttled", Err: err}
	}
	return &SendError{Reason: "send failed", Err: err}
}
