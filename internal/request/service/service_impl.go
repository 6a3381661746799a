package service

import (
	"context"

	auditdomain "github.com/Mayne0963/otw-chi-sub000/internal/audit/domain"
	"github.com/Mayne0963/otw-chi-sub000/internal/clock"
	eventsservice "github.com/Mayne0963/otw-chi-sub000/internal/events/service"
	ledgerdomain "github.com/Mayne0963/otw-chi-sub000/internal/ledger/domain"
	membershiprepo "github.com/Mayne0963/otw-chi-sub000/internal/membership/repository"
	"github.com/Mayne0963/otw-chi-sub000/internal/observability/metrics"
	planrepo "github.com/Mayne0963/otw-chi-sub000/internal/plan/repository"
	requestdomain "github.com/Mayne0963/otw-chi-sub000/internal/request/domain"
	walletrepo "github.com/Mayne0963/otw-chi-sub000/internal/wallet/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Plans       planrepo.Repository
	Memberships membershiprepo.Repository
	Wallets     walletrepo.Repository
	Ledger      ledgerdomain.Service
	Outbox      eventsservice.Outbox
	Audit       auditdomain.Recorder
	Metrics     *metrics.MilesMetrics
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	plans       planrepo.Repository
	memberships membershiprepo.Repository
	wallets     walletrepo.Repository
	ledger      ledgerdomain.Service
	outbox      eventsservice.Outbox
	audit       auditdomain.Recorder
	metrics     *metrics.MilesMetrics
}

func NewService(p Params) requestdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("request.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		plans:       p.Plans,
		memberships: p.Memberships,
		wallets:     p.Wallets,
		ledger:      p.Ledger,
		outbox:      p.Outbox,
		audit:       p.Audit,
		metrics:     p.Metrics,
	}
}

func (s *Service) GetByID(ctx context.Context, userID string, requestID snowflake.ID) (*requestdomain.DeliveryRequest, error) {
	return s.findByID(ctx, s.db, userID, requestID)
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]requestdomain.DeliveryRequest, error) {
	if userID == "" {
		return nil, requestdomain.ErrRequestNotFound
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var requests []requestdomain.DeliveryRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *Service) findByID(ctx context.Context, tx *gorm.DB, userID string, requestID snowflake.ID) (*requestdomain.DeliveryRequest, error) {
	if userID == "" || requestID == 0 {
		return nil, requestdomain.ErrRequestNotFound
	}
	var req requestdomain.DeliveryRequest
	err := tx.WithContext(ctx).
		Where("id = ? AND user_id = ?", requestID, userID).
		First(&req).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, requestdomain.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *Service) findByIdempotencyKey(ctx context.Context, tx *gorm.DB, userID, key string) (*requestdomain.DeliveryRequest, error) {
	var req requestdomain.DeliveryRequest
	err := tx.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&req).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}
