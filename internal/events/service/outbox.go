package service

import (
	"context"
	"encoding/json"
	"time"

	eventsdomain "github.com/Mayne0963/otw-chi-sub000/internal/events/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Outbox writes domain events transactionally alongside the state change
// that produced them.
type Outbox interface {
	PublishTx(ctx context.Context, tx *gorm.DB, eventType eventsdomain.EventType, dedupeKey string, payload any) error
	Pending(ctx context.Context, limit int) ([]eventsdomain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id snowflake.ID) error
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type OutboxImpl struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewOutbox(p Params) Outbox {
	return &OutboxImpl{
		db:    p.DB,
		log:   p.Log.Named("events.outbox"),
		genID: p.GenID,
	}
}

// PublishTx queues one event. A retried writer hitting the same dedupe key
// inserts zero rows and returns nil; the event is already queued.
func (o *OutboxImpl) PublishTx(ctx context.Context, tx *gorm.DB, eventType eventsdomain.EventType, dedupeKey string, payload any) error {
	if tx == nil {
		tx = o.db
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	result := tx.WithContext(ctx).Exec(
		`INSERT INTO miles_events (id, event_type, dedupe_key, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		eventType,
		dedupeKey,
		body,
		time.Now().UTC(),
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		o.log.Debug("event already queued",
			zap.String("event_type", string(eventType)),
			zap.String("dedupe_key", dedupeKey),
		)
	}
	return nil
}

func (o *OutboxImpl) Pending(ctx context.Context, limit int) ([]eventsdomain.OutboxEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var events []eventsdomain.OutboxEvent
	err := o.db.WithContext(ctx).Raw(
		`SELECT id, event_type, dedupe_key, payload, published_at, created_at
		 FROM miles_events
		 WHERE published_at IS NULL
		 ORDER BY created_at ASC, id ASC
		 LIMIT ?`,
		limit,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (o *OutboxImpl) MarkPublished(ctx context.Context, id snowflake.ID) error {
	return o.db.WithContext(ctx).Exec(
		`UPDATE miles_events SET published_at = ? WHERE id = ? AND published_at IS NULL`,
		time.Now().UTC(),
		id,
	).Error
}
