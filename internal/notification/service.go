package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/usecase"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/clock"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/logging"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// dedupWindow is how long a processed request id is remembered
const dedupWindow = 10 * time.Minute

// Service consumes notification requests from a Pub/Sub subscription
type Service struct {
	pubsubClient *pubsub.Client
	dispatcher   usecase.Dispatcher
	clock        clock.Clock
	topicName    string
	subName      string
	log          zerolog.Logger

	// Deduplication: request ids already dispatched, with the time they were seen
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewService(ctx context.Context, projectID, topicName, subName, credentialsFile string, dispatcher usecase.Dispatcher, c clock.Clock) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	if subName == "" {
		subName = topicName + "-sub" // Convention: topic-sub
	}
	return newService(client, dispatcher, c, topicName, subName), nil
}

func newService(client *pubsub.Client, dispatcher usecase.Dispatcher, c clock.Clock, topicName, subName string) *Service {
	return &Service{
		pubsubClient: client,
		dispatcher:   dispatcher,
		clock:        c,
		topicName:    topicName,
		subName:      subName,
		log:          logging.Component("pubsub"),
		seen:         make(map[string]time.Time),
	}
}

// Start blocks receiving messages until ctx is done
func (s *Service) Start(ctx context.Context) error {
	s.log.Info().Str("topic", s.topicName).Str("subscription", s.subName).Msg("starting notification intake")

	sub, err := s.ensureSubscription(ctx)
	if err != nil {
		return err
	}

	s.log.Info().Str("subscription", s.subName).Msg("listening for messages")
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if s.handleMessage(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
	if err != nil {
		return fmt.Errorf("receive on %s: %w", s.subName, err)
	}
	return nil
}

// Close releases the Pub/Sub client
func (s *Service) Close() error {
	return s.pubsubClient.Close()
}

func (s *Service) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check subscription %s: %w", s.subName, err)
	}
	if exists {
		return sub, nil
	}

	topic := s.pubsubClient.Topic(s.topicName)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", s.topicName, err)
	}
	if !topicExists {
		return nil, fmt.Errorf("topic %s does not exist, cannot create subscription", s.topicName)
	}

	sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 60 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription %s: %w", s.subName, err)
	}
	s.log.Info().Str("subscription", s.subName).Msg("created subscription")
	return sub, nil
}

// handleMessage dispatches one request and reports whether it may be acked.
// Malformed messages are acked so they are not redelivered forever.
func (s *Service) handleMessage(ctx context.Context, messageID string, data []byte) bool {
	req, err := decodeRequest(data)
	if err != nil {
		s.log.Error().Err(err).Str("message_id", messageID).Msg("dropping malformed notification request")
		return true
	}

	key := req.RequestID
	if key == "" {
		key = messageID
	}
	if s.isDuplicate(key) {
		s.log.Info().Str("request_id", key).Msg("skipping duplicate notification request")
		return true
	}

	if err := s.dispatcher.SendNotification(ctx, req.Users(), req.Payload); err != nil {
		s.log.Error().Err(err).Str("request_id", key).Msg("dispatch failed, requesting redelivery")
		return false
	}

	s.markSeen(key)
	s.log.Debug().Str("request_id", key).Int("users", len(req.UserIDs)).Msg("notification request dispatched")
	return true
}

func decodeRequest(data []byte) (*usecase.SendRequest, error) {
	var req usecase.SendRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode notification request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Service) isDuplicate(key string) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.seen[key]
	return ok && s.clock.Now().Sub(at) < dedupWindow
}

func (s *Service) markSeen(key string) {
	if key == "" {
		return
	}
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, at := range s.seen {
		if now.Sub(at) >= dedupWindow {
			delete(s.seen, k)
		}
	}
	s.seen[key] = now
}
