package service

import (
	"context"
	"fmt"

	auditdomain "github.com/Mayne0963/otw-chi-sub000/internal/audit/domain"
	"github.com/Mayne0963/otw-chi-sub000/internal/reqcontext"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo auditdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo auditdomain.Repository
}

func NewService(p Params) auditdomain.Recorder {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("audit.service"),
		repo: p.Repo,
	}
}

// Record writes one audit row, pulling actor and client details from the
// request context. Insert failures are logged and swallowed.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, action, targetType string, targetID snowflake.ID, metadata map[string]any) {
	if tx == nil {
		tx = s.db
	}

	entry := &auditdomain.AuditLog{
		ActorType:  string(auditdomain.ActorTypeSystem),
		Action:     action,
		TargetType: targetType,
		Metadata:   metadata,
	}
	if targetID != 0 {
		id := targetID.String()
		entry.TargetID = &id
	}
	if userID := reqcontext.UserIDFromContext(ctx); userID != "" {
		entry.ActorType = string(auditdomain.ActorTypeUser)
		entry.ActorID = &userID
	}
	if ip := reqcontext.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := reqcontext.UserAgentFromContext(ctx); ua != "" {
		entry.UserAgent = &ua
	}

	if err := s.repo.Insert(ctx, tx, entry); err != nil {
		s.log.Warn("audit insert failed",
			zap.String("action", action),
			zap.String("target", fmt.Sprintf("%s:%s", targetType, targetID)),
			zap.Error(err),
		)
	}
}
