package usecase

import (
	"context"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/repository"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/clock"

	"github.com/google/uuid"
)

// AuditLog writes the append-only trail of a delivery attempt.
type AuditLog struct {
	repo  repository.AuditRepository
	clock clock.Clock
}

func NewAuditLog(repo repository.AuditRepository, c clock.Clock) *AuditLog {
	return &AuditLog{repo: repo, clock: c}
}

// Begin persists the sent record. The attempt is only returned once the
// record is stored.
func (l *AuditLog) Begin(ctx context.Context, sub *domain.Subscription, payload domain.NotificationPayload) (*domain.Attempt, error) {
	attempt := domain.NewAttempt(uuid.New().String(), sub, payload, l.clock.Now())
	if err := l.repo.Append(ctx, attempt.Record(uuid.New().String())); err != nil {
		return nil, err
	}
	return attempt, nil
}

// Complete persists the terminal record: delivered when sendErr is nil,
// failed with the error message otherwise.
func (l *AuditLog) Complete(ctx context.Context, attempt *domain.Attempt, sendErr error) error {
	to, details := domain.StatusDelivered, ""
	if sendErr != nil {
		to, details = domain.StatusFailed, sendErr.Error()
	}
	if err := attempt.Transition(to, l.clock.Now(), details); err != nil {
		return err
	}
	return l.repo.Append(ctx, attempt.Record(uuid.New().String()))
}
