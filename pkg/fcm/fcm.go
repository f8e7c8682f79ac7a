package fcm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carvalholeo/sistema-caronas-sub001/pkg/logging"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// ErrUnregistered means the registration will never accept messages again.
var ErrUnregistered = errors.New("fcm: destination no longer registered")

// SendError is a transport failure. Its message is a fixed description of
// the failure class; the raw Firebase error is reachable through Unwrap.
type SendError struct {
	Reason string
	Err    error
}

func (e *SendError) Error() string { return "fcm: " + e.Reason }
func (e *SendError) Unwrap() error { return e.Err }

// Target selects the platform-specific block of the message.
type Target string

const (
	TargetWeb     Target = "web"
	TargetAndroid Target = "android"
	TargetAPNS    Target = "apns"
)

// Messenger is the subset of *messaging.Client used here.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient Messenger
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	logging.Get().Info().Str("component", "fcm").Msg("client initialized")
	return &Client{messagingClient: messagingClient}, nil
}

// NewClientWithMessenger builds a Client over an existing Messenger.
func NewClientWithMessenger(m Messenger) *Client {
	return &Client{messagingClient: m}
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title    string
	Body     string
	ImageURL string
	Icon     string
	Data     map[string]string
	// ClickAction is the URL opened when the notification is clicked
	ClickAction string
	// Critical raises delivery priority on every platform
	Critical bool
}

// SendToDevice sends a push notification to a single registration
func (c *Client) SendToDevice(ctx context.Context, registration string, target Target, n NotificationData) error {
	message := BuildMessage(registration, target, n)

	id, err := c.messagingClient.Send(ctx, message)
	if err != nil {
		return classify(err)
	}

	logging.Get().Debug().Str("component", "fcm").Str("message_id", id).Str("target", string(target)).Msg("message sent")
	return nil
}

// BuildMessage assembles the FCM message for a target platform.
func BuildMessage(registration string, target Target, n NotificationData) *messaging.Message {
	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	if n.ClickAction != "" {
		data["click_action"] = n.ClickAction
	}

	message := &messaging.Message{
		Token: registration,
		Notification: &messaging.Notification{
			Title:    n.Title,
			Body:     n.Body,
			ImageURL: n.ImageURL,
		},
		Data: data,
	}

	switch target {
	case TargetWeb:
		icon := n.Icon
		if icon == "" {
			icon = "/icon-192.svg"
		}
		message.Webpush = &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title:              n.Title,
				Body:               n.Body,
				Icon:               icon,
				RequireInteraction: n.Critical,
			},
		}
		// FCM only accepts absolute HTTPS links here
		if strings.HasPrefix(n.ClickAction, "https://") {
			message.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: n.ClickAction}
		}
		if n.Critical {
			message.Webpush.Headers = map[string]string{"Urgency": "high"}
		}
	case TargetAndroid:
		priority := "normal"
		if n.Critical {
			priority = "high"
		}
		message.Android = &messaging.AndroidConfig{
			Priority: priority,
			Notification: &messaging.AndroidNotification{
				Icon:        n.Icon,
				ClickAction: n.ClickAction,
			},
		}
	case TargetAPNS:
		priority := "5"
		if n.Critical {
			priority = "10"
		}
		message.APNS = &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": priority},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		}
	}
	return message
}

// classify maps Firebase errors to messages safe to persist in the audit log.
func classify(err error) error {
	switch {
	case messaging.IsUnregistered(err), messaging.IsSenderIDMismatch(err):
		return fmt.Errorf("%w", ErrUnregistered)
	case messaging.IsInvalidArgument(err):
		return &SendError{Reason: "invalid message or destination", Err: err}
	case messaging.IsQuotaExceeded(err):
		return &SendError{Reason: "quota exceeded", Err: err}
	case messaging.IsThirdPartyAuthError(err):
		return &SendError{Reason: "platform credentials rejected", Err: err}
	case messaging.IsUnavailable(err):
		return &SendError{Reason: "service unavailable", Err: err}
	case messaging.IsInternal(err):
		return &SendError{Reason: "internal service error", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &SendError{Reason: "timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &SendError{Reason: "canceled", Err: err}
	}
	return &SendError{Reason: "send failed", Err: err}
}
