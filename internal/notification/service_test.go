package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls [][]domain.UserRef
	last  domain.NotificationPayload
	err   error
}

func (r *recordingDispatcher) SendNotification(_ context.Context, users []domain.UserRef, payload domain.NotificationPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, users)
	r.last = payload
	return r.err
}

func (r *recordingDispatcher) SendAndLog(context.Context, *domain.Subscription, domain.NotificationPayload) (bool, error) {
	return false, nil
}

func newTestService(d *recordingDispatcher, c clock.Clock) *Service {
	return newService(nil, d, c, "notification-requests", "notification-requests-sub")
}

const validMessage = `{"request_id":"r-1","user_ids":["u1","u2"],"payload":{"title":"Ride cancelled","body":"Your 8am ride was cancelled","category":"RIDE"}}`

func TestDecodeRequest(t *testing.T) {
	req, err := decodeRequest([]byte(validMessage))
	require.NoError(t, err)
	assert.Equal(t, "r-1", req.RequestID)
	assert.Equal(t, []domain.UserRef{{ID: "u1"}, {ID: "u2"}}, req.Users())
	assert.Equal(t, domain.CategoryRide, req.Payload.Category)
}

func TestDecodeRequestRejects(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"user_ids":`,
		"no users":       `{"user_ids":[],"payload":{"title":"t","category":"ride"}}`,
		"no title":       `{"user_ids":["u1"],"payload":{"category":"ride"}}`,
		"unknown family": `{"user_ids":["u1"],"payload":{"title":"t","category":"weather"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeRequest([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestHandleMessageDispatches(t *testing.T) {
	d := &recordingDispatcher{}
	s := newTestService(d, clock.NewManual(time.Now()))

	assert.True(t, s.handleMessage(context.Background(), "m-1", []byte(validMessage)))
	require.Len(t, d.calls, 1)
	assert.Len(t, d.calls[0], 2)
	assert.Equal(t, "Ride cancelled", d.last.Title)
}

func TestHandleMessageAcksMalformed(t *testing.T) {
	d := &recordingDispatcher{}
	s := newTestService(d, clock.NewManual(time.Now()))

	assert.True(t, s.handleMessage(context.Background(), "m-1", []byte("garbage")))
	assert.Empty(t, d.calls)
}

func TestHandleMessageNacksStoreFailure(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("connection refused")}
	s := newTestService(d, clock.NewManual(time.Now()))

	assert.False(t, s.handleMessage(context.Background(), "m-1", []byte(validMessage)))

	// A redelivery is dispatched again since the first attempt never completed
	d.err = nil
	assert.True(t, s.handleMessage(context.Background(), "m-1", []byte(validMessage)))
	assert.Len(t, d.calls, 2)
}

func TestHandleMessageDeduplicates(t *testing.T) {
	d := &recordingDispatcher{}
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	s := newTestService(d, clk)

	assert.True(t, s.handleMessage(context.Background(), "m-1", []byte(validMessage)))
	assert.True(t, s.handleMessage(context.Background(), "m-2", []byte(validMessage)))
	assert.Len(t, d.calls, 1)

	clk.Advance(dedupWindow)
	assert.True(t, s.handleMessage(context.Background(), "m-3", []byte(validMessage)))
	assert.Len(t, d.calls, 2)
}

func TestHandleMessageFallsBackToMessageID(t *testing.T) {
	d := &recordingDispatcher{}
	s := newTestService(d, clock.NewManual(time.Now()))
	body := []byte(`{"user_ids":["u1"],"payload":{"title":"Hi","category":"chat"}}`)

	s.handleMessage(context.Background(), "m-1", body)
	s.handleMessage(context.Background(), "m-1", body)
	s.handleMessage(context.Background(), "m-2", body)
	assert.Len(t, d.calls, 2)
}
