package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	affiliationsvc "github.com/smallbiznis/dealerhub/internal/affiliation/service"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
	"github.com/smallbiznis/dealerhub/internal/observability/metrics"
	"github.com/smallbiznis/dealerhub/internal/transfer/domain"
	"github.com/smallbiznis/dealerhub/pkg/db"
	"github.com/smallbiznis/dealerhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Rules           *config.RulesHolder
	Repo            domain.Repository
	AffiliationRepo affiliationdomain.Repository
	Affiliations    affiliationdomain.Service
	Dealers         dealerdomain.Service
	Identity        identitydomain.Service
	Metrics         *metrics.Metrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	rules           *config.RulesHolder
	repo            domain.Repository
	affiliationRepo affiliationdomain.Repository
	affiliations    affiliationdomain.Service
	dealers         dealerdomain.Service
	identity        identitydomain.Service
	metrics         *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("transfer.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		rules:           p.Rules,
		repo:            p.Repo,
		affiliationRepo: p.AffiliationRepo,
		affiliations:    p.Affiliations,
		dealers:         p.Dealers,
		identity:        p.Identity,
		metrics:         p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTransferRequest) (domain.TransferRequest, error) {
	if req.ClientID == 0 {
		return domain.TransferRequest{}, domain.ErrInvalidClient
	}
	if req.FromDealerID == 0 {
		return domain.TransferRequest{}, domain.ErrInvalidFromDealer
	}
	if req.ToDealerID == 0 {
		return domain.TransferRequest{}, domain.ErrInvalidToDealer
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return domain.TransferRequest{}, domain.ErrInvalidActor
	}
	reason := strings.TrimSpace(req.Reason)
	if len(reason) > 1000 {
		return domain.TransferRequest{}, domain.ErrInvalidReason
	}

	rules := s.rules.Get().Transfers
	if rules.RejectSameDealer && req.FromDealerID == req.ToDealerID {
		return domain.TransferRequest{}, domain.ErrSameDealer
	}

	if _, err := s.identity.GetClient(ctx, req.ClientID); err != nil {
		return domain.TransferRequest{}, err
	}
	for _, dealerID := range []snowflake.ID{req.FromDealerID, req.ToDealerID} {
		if _, err := s.dealers.GetByID(ctx, dealerID); err != nil {
			return domain.TransferRequest{}, err
		}
	}

	if rules.RequireActiveSource {
		link, err := s.affiliations.GetActiveClientLink(ctx, req.ClientID)
		if err != nil {
			return domain.TransferRequest{}, err
		}
		if link == nil || link.DealerID != req.FromDealerID {
			return domain.TransferRequest{}, domain.ErrSourceNotActive
		}
	}
	if rules.RejectDuplicatePending {
		pending, err := s.repo.FindPendingByClient(ctx, s.db, req.ClientID)
		if err != nil {
			return domain.TransferRequest{}, err
		}
		if pending != nil {
			return domain.TransferRequest{}, domain.ErrPendingTransferExists
		}
	}

	transfer := domain.TransferRequest{
		ID:           s.genID.Generate(),
		ClientID:     req.ClientID,
		FromDealerID: req.FromDealerID,
		ToDealerID:   req.ToDealerID,
		Status:       domain.StatusPending,
		RequestedBy:  actor,
		CreatedAt:    s.clock.Now(),
	}
	if reason != "" {
		transfer.Reason = &reason
	}

	if err := s.repo.Insert(ctx, s.db, &transfer); err != nil {
		return domain.TransferRequest{}, err
	}

	s.log.Info("transfer requested",
		zap.String("transfer_id", transfer.ID.String()),
		zap.String("client_id", transfer.ClientID.String()),
	)
	return transfer, nil
}

func (s *Service) Approve(ctx context.Context, id snowflake.ID, actor string) (domain.TransferRequest, error) {
	if id == 0 {
		return domain.TransferRequest{}, domain.ErrInvalidID
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return domain.TransferRequest{}, domain.ErrInvalidActor
	}

	now := s.clock.Now()
	var approved domain.TransferRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transfer, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if !transfer.Status.CanTransitionTo(domain.StatusApproved) {
			return domain.ErrInvalidState
		}

		source, err := s.affiliationRepo.FindActiveClientLink(ctx, tx, transfer.ClientID)
		if err != nil {
			return err
		}
		if source == nil || source.DealerID != transfer.FromDealerID {
			return domain.ErrInvalidState
		}

		affected, err := s.affiliationRepo.DeactivateClientLink(ctx, tx, source.ID, affiliationdomain.OffboardingReasonTransfer, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidState
		}

		link, err := affiliationsvc.NewClientLink(s.genID, now, transfer.ClientID, transfer.ToDealerID, now)
		if err != nil {
			return err
		}
		if err := s.affiliationRepo.InsertClientLink(ctx, tx, &link); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrInvalidState
			}
			return err
		}

		affected, err = s.repo.Decide(ctx, tx, id, domain.StatusPending, domain.StatusApproved, actor, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidState
		}

		approved = decided(*transfer, domain.StatusApproved, actor, now)
		return nil
	})
	if err != nil {
		return domain.TransferRequest{}, err
	}

	s.metrics.RecordTransferDecision(ctx, string(domain.StatusApproved))
	s.log.Info("transfer approved",
		zap.String("transfer_id", id.String()),
		zap.String("client_id", approved.ClientID.String()),
		zap.String("to_dealer_id", approved.ToDealerID.String()),
	)
	return approved, nil
}

func (s *Service) Reject(ctx context.Context, id snowflake.ID, actor string) (domain.TransferRequest, error) {
	return s.close(ctx, id, actor, domain.StatusRejected)
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID, actor string) (domain.TransferRequest, error) {
	return s.close(ctx, id, actor, domain.StatusCanceled)
}

// close ends a transfer without touching client links.
func (s *Service) close(ctx context.Context, id snowflake.ID, actor string, to domain.Status) (domain.TransferRequest, error) {
	if id == 0 {
		return domain.TransferRequest{}, domain.ErrInvalidID
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return domain.TransferRequest{}, domain.ErrInvalidActor
	}

	now := s.clock.Now()
	var out domain.TransferRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transfer, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if !transfer.Status.CanTransitionTo(to) {
			return domain.ErrInvalidState
		}
		affected, err := s.repo.Decide(ctx, tx, id, transfer.Status, to, actor, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidState
		}
		out = decided(*transfer, to, actor, now)
		return nil
	})
	if err != nil {
		return domain.TransferRequest{}, err
	}

	s.metrics.RecordTransferDecision(ctx, string(to))
	return out, nil
}

func decided(transfer domain.TransferRequest, status domain.Status, actor string, at time.Time) domain.TransferRequest {
	transfer.Status = status
	transfer.DecidedBy = &actor
	transfer.DecidedAt = &at
	return transfer
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.TransferRequest, error) {
	if id == 0 {
		return domain.TransferRequest{}, domain.ErrInvalidID
	}
	transfer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.TransferRequest{}, err
	}
	if transfer == nil {
		return domain.TransferRequest{}, domain.ErrNotFound
	}
	return *transfer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTransferRequest) (domain.ListTransferResponse, error) {
	filter := domain.ListFilter{
		ClientID: req.ClientID,
		DealerID: req.DealerID,
		Limit:    pagination.NormalizePageSize(req.PageSize),
	}
	if status := strings.ToUpper(strings.TrimSpace(req.Status)); status != "" {
		filter.Status = domain.Status(status)
		if !filter.Status.Valid() {
			return domain.ListTransferResponse{}, domain.ErrInvalidStatus
		}
	}

	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := decodeCursor(token)
		if err != nil {
			return domain.ListTransferResponse{}, err
		}
		filter.Cursor = cursor
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListTransferResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, filter.Limit, func(item *domain.TransferRequest) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	transfers := make([]domain.TransferRequest, 0, len(items))
	for _, item := range items {
		if item != nil {
			transfers = append(transfers, *item)
		}
	}
	return domain.ListTransferResponse{PageInfo: pageInfo, Transfers: transfers}, nil
}

func decodeCursor(token string) (*domain.Cursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return nil, pagination.ErrInvalidCursor
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, pagination.ErrInvalidCursor
	}
	return &domain.Cursor{ID: id, CreatedAt: createdAt.UTC()}, nil
}
