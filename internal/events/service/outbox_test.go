package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupOutbox(t *testing.T) (*OutboxImpl, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.Exec(`CREATE TABLE miles_events (
		id BIGINT PRIMARY KEY,
		event_type TEXT NOT NULL,
		dedupe_key TEXT NOT NULL UNIQUE,
		payload TEXT,
		published_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`).Error
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &OutboxImpl{db: db, log: zap.NewNop(), genID: node}, db
}

func TestPublishPendingMarkPublished(t *testing.T) {
	outbox, _ := setupOutbox(t)
	ctx := context.Background()

	if err := outbox.PublishTx(ctx, nil, "miles.granted", "inv_1:granted", map[string]any{"miles": 40}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := outbox.PublishTx(ctx, nil, "miles.expired", "inv_1:expired", map[string]any{"miles": 12}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	pending, err := outbox.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	if err := outbox.MarkPublished(ctx, pending[0].ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	pending, err = outbox.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending after publish = %d, want 1", len(pending))
	}
	if pending[0].DedupeKey != "inv_1:expired" {
		t.Fatalf("remaining dedupe key = %q", pending[0].DedupeKey)
	}
}

func TestPublishSameDedupeKeyOnce(t *testing.T) {
	outbox, db := setupOutbox(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := outbox.PublishTx(ctx, nil, "request.submitted", "req_9:submitted", nil); err != nil {
			t.Fatalf("publish attempt %d: %v", i, err)
		}
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM miles_events`).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("event rows = %d, want 1", count)
	}
}
