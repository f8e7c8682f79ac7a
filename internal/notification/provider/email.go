package provider

import (
	"context"
	"strings"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
)

// EmailSender is implemented by *ses.Mailer.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailProvider renders a payload as plain-text email.
type EmailProvider struct {
	sender EmailSender
}

func NewEmailProvider(sender EmailSender) *EmailProvider {
	return &EmailProvider{sender: sender}
}

func (p *EmailProvider) Send(ctx context.Context, sub *domain.Subscription, payload domain.NotificationPayload) error {
	return p.sender.Send(ctx, sub.Destination, payload.Title, renderBody(payload))
}

func renderBody(payload domain.NotificationPayload) string {
	var b strings.Builder
	b.WriteString(payload.Body)
	if payload.URL != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(payload.URL)
	}
	return b.String()
}
