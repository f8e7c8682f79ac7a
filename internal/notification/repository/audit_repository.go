package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditRepository is the append-only store for events. There is no update
// or delete.
type AuditRepository interface {
	Append(ctx context.Context, ev domain.Event) error
	ListByAttempt(ctx context.Context, attemptID string) ([]domain.AuditEvent, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Event, error)
}

// auditRecord is the single-table storage form of domain.Event; Kind is the
// discriminator.
type auditRecord struct {
	ID             string               `gorm:"primaryKey"`
	Kind           domain.EventKind     `gorm:"size:32;index;not null"`
	AttemptID      string               `gorm:"index"`
	Step           int                  `gorm:"not null;default:0"`
	SubscriptionID *string              `gorm:"index"`
	UserID         *string              `gorm:"index"`
	Platform       string               `gorm:"size:16"`
	Category       string               `gorm:"size:32"`
	Status         string               `gorm:"size:16;index"`
	StatusHistory  []domain.StatusEntry `gorm:"serializer:json"`
	Payload        datatypes.JSON
	IsCritical     bool
	RideID         string
	Origin         string
	Destination    string
	Timestamp      time.Time `gorm:"column:occurred_at;index;not null"`
}

func (auditRecord) TableName() string { return "audit_events" }

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a gorm-backed AuditRepository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Append validates ev and inserts it as a new row. Validation failures are
// returned unchanged so callers can match *domain.ValidationError.
func (r *auditRepository) Append(ctx context.Context, ev domain.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	rec, err := toRecord(ev)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListByAttempt returns the records of one attempt in transition order
func (r *auditRepository) ListByAttempt(ctx context.Context, attemptID string) ([]domain.AuditEvent, error) {
	var recs []auditRecord
	err := r.db.WithContext(ctx).
		Where("kind = ? AND attempt_id = ?", domain.KindNotification, attemptID).
		Order("step ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.AuditEvent, 0, len(recs))
	for i := range recs {
		ev, err := recs[i].toAuditEvent()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// ListByUser returns the most recent events of a user, newest first
func (r *auditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []auditRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC, step DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Event, 0, len(recs))
	for i := range recs {
		ev, err := recs[i].toEvent()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func toRecord(ev domain.Event) (*auditRecord, error) {
	meta := ev.Meta()
	rec := &auditRecord{
		ID:        meta.ID,
		Kind:      ev.Kind(),
		UserID:    meta.UserID,
		Timestamp: meta.Timestamp,
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	switch e := ev.(type) {
	case domain.AuditEvent:
		fillNotification(rec, &e)
	case *domain.AuditEvent:
		fillNotification(rec, e)
	case domain.RideViewEvent:
		rec.RideID = e.RideID
	case domain.SearchEvent:
		rec.Origin = e.Origin
		rec.Destination = e.Destination
	default:
		return nil, fmt.Errorf("unsupported event kind %q", ev.Kind())
	}

	return rec, nil
}

func fillNotification(rec *auditRecord, e *domain.AuditEvent) {
	rec.AttemptID = e.AttemptID
	rec.Step = len(e.StatusHistory)
	rec.SubscriptionID = e.SubscriptionID
	rec.Platform = string(e.Platform)
	rec.Category = string(e.Category)
	rec.Status = string(e.Status())
	rec.StatusHistory = e.StatusHistory
	rec.IsCritical = e.IsCritical
	if e.Payload != nil {
		// marshalling a struct of strings cannot fail
		raw, _ := json.Marshal(e.Payload)
		rec.Payload = datatypes.JSON(raw)
	}
}

func (rec *auditRecord) envelope() domain.Envelope {
	return domain.Envelope{ID: rec.ID, Timestamp: rec.Timestamp, UserID: rec.UserID}
}

func (rec *auditRecord) toAuditEvent() (domain.AuditEvent, error) {
	ev := domain.AuditEvent{
		Envelope:       rec.envelope(),
		AttemptID:      rec.AttemptID,
		SubscriptionID: rec.SubscriptionID,
		Platform:       domain.Platform(rec.Platform),
		Category:       domain.Category(rec.Category),
		StatusHistory:  rec.StatusHistory,
		IsCritical:     rec.IsCritical,
	}
	if len(rec.Payload) > 0 && string(rec.Payload) != "null" {
		var p domain.NotificationPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return domain.AuditEvent{}, fmt.Errorf("decode payload of %s: %w", rec.ID, err)
		}
		ev.Payload = &p
	}
	return ev, nil
}

func (rec *auditRecord) toEvent() (domain.Event, error) {
	switch rec.Kind {
	case domain.KindNotification:
		return rec.toAuditEvent()
	case domain.KindRideView:
		return domain.RideViewEvent{Envelope: rec.envelope(), RideID: rec.RideID}, nil
	case domain.KindSearch:
		return domain.SearchEvent{Envelope: rec.envelope(), Origin: rec.Origin, Destination: rec.Destination}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q in record %s", rec.Kind, rec.ID)
}
