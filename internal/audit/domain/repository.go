package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

// Recorder is the write-side facade services call. Failures to record are
// logged, never surfaced; an audit miss must not roll back a wallet mutation.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, action, targetType string, targetID snowflake.ID, metadata map[string]any)
}
