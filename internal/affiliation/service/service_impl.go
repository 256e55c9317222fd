package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("affiliation.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) GetActiveEmployment(ctx context.Context, personID snowflake.ID) (*domain.Employment, error) {
	if personID == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.FindActiveEmployment(ctx, s.db, personID)
}

func (s *Service) GetEmployment(ctx context.Context, id snowflake.ID) (domain.Employment, error) {
	if id == 0 {
		return domain.Employment{}, domain.ErrInvalidID
	}
	employment, err := s.repo.FindEmploymentByID(ctx, s.db, id)
	if err != nil {
		return domain.Employment{}, err
	}
	if employment == nil {
		return domain.Employment{}, domain.ErrEmploymentNotFound
	}
	return *employment, nil
}

func (s *Service) CreateEmployment(ctx context.Context, personID, dealerID snowflake.ID, dateOfJoining time.Time) (domain.Employment, error) {
	employment, err := NewEmployment(s.genID, s.clock.Now(), personID, dealerID, dateOfJoining)
	if err != nil {
		return domain.Employment{}, err
	}
	if err := s.repo.InsertEmployment(ctx, s.db, &employment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Employment{}, domain.ErrActiveAffiliationExists
		}
		return domain.Employment{}, err
	}
	return employment, nil
}

// NewEmployment builds an ACTIVE employment row without persisting it.
func NewEmployment(genID *snowflake.Node, now time.Time, personID, dealerID snowflake.ID, dateOfJoining time.Time) (domain.Employment, error) {
	if personID == 0 {
		return domain.Employment{}, domain.ErrInvalidID
	}
	if dealerID == 0 {
		return domain.Employment{}, domain.ErrInvalidDealer
	}
	if dateOfJoining.IsZero() {
		return domain.Employment{}, domain.ErrInvalidDateOfJoining
	}
	return domain.Employment{
		ID:            genID.Generate(),
		PersonID:      personID,
		DealerID:      dealerID,
		DateOfJoining: dateOfJoining.UTC(),
		Status:        domain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *Service) EndEmployment(ctx context.Context, id snowflake.ID, req domain.EndEmploymentRequest) (domain.SeparationEvent, error) {
	if id == 0 {
		return domain.SeparationEvent{}, domain.ErrInvalidID
	}
	if req.SeparationDate.IsZero() {
		return domain.SeparationEvent{}, domain.ErrInvalidSeparationDate
	}
	separationType := domain.SeparationType(strings.ToUpper(strings.TrimSpace(string(req.SeparationType))))
	if !separationType.Valid() {
		return domain.SeparationEvent{}, domain.ErrInvalidSeparationType
	}
	remarks := strings.TrimSpace(req.Remarks)
	if remarks == "" {
		return domain.SeparationEvent{}, domain.ErrInvalidRemarks
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return domain.SeparationEvent{}, domain.ErrInvalidActor
	}

	now := s.clock.Now()
	event := domain.SeparationEvent{
		ID:             s.genID.Generate(),
		EmploymentID:   id,
		SeparationDate: req.SeparationDate.UTC(),
		SeparationType: separationType,
		Remarks:        remarks,
		RecordedBy:     actor,
		CreatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		employment, err := s.repo.FindEmploymentByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if employment == nil {
			return domain.ErrEmploymentNotFound
		}
		if !employment.Status.CanTransitionTo(domain.StatusInactive) {
			return domain.ErrInvalidState
		}
		if event.SeparationDate.Before(employment.DateOfJoining) {
			return domain.ErrInvalidSeparationDate
		}

		affected, err := s.repo.CloseEmployment(ctx, tx, id, event.SeparationDate, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidState
		}

		if err := s.repo.InsertSeparationEvent(ctx, tx, &event); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrInvalidState
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.SeparationEvent{}, err
	}

	s.log.Info("employment ended",
		zap.String("employment_id", id.String()),
		zap.String("separation_type", string(separationType)),
	)
	return event, nil
}

func (s *Service) ListEmploymentsByPersons(ctx context.Context, personIDs []snowflake.ID) (map[snowflake.ID][]domain.Employment, error) {
	items, err := s.repo.ListEmploymentsByPersons(ctx, s.db, personIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID][]domain.Employment, len(personIDs))
	for _, item := range items {
		if item != nil {
			out[item.PersonID] = append(out[item.PersonID], *item)
		}
	}
	return out, nil
}

func (s *Service) ListEmploymentsByDealer(ctx context.Context, dealerID snowflake.ID, status domain.Status) ([]domain.Employment, error) {
	if dealerID == 0 {
		return nil, domain.ErrInvalidDealer
	}
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	items, err := s.repo.ListEmploymentsByDealer(ctx, s.db, dealerID, status)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Employment, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) GetActiveClientLink(ctx context.Context, clientID snowflake.ID) (*domain.ClientLink, error) {
	if clientID == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.FindActiveClientLink(ctx, s.db, clientID)
}

func (s *Service) ActiveClientLinks(ctx context.Context, clientIDs []snowflake.ID) (map[snowflake.ID]domain.ClientLink, error) {
	items, err := s.repo.FindActiveClientLinks(ctx, s.db, clientIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.ClientLink, len(items))
	for _, item := range items {
		if item != nil {
			out[item.ClientID] = *item
		}
	}
	return out, nil
}

func (s *Service) CreateClientLink(ctx context.Context, clientID, dealerID snowflake.ID, dateOfOnboarding time.Time) (domain.ClientLink, error) {
	link, err := NewClientLink(s.genID, s.clock.Now(), clientID, dealerID, dateOfOnboarding)
	if err != nil {
		return domain.ClientLink{}, err
	}
	if err := s.repo.InsertClientLink(ctx, s.db, &link); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ClientLink{}, domain.ErrActiveAffiliationExists
		}
		return domain.ClientLink{}, err
	}
	return link, nil
}

// NewClientLink builds an ACTIVE client-dealer link without persisting it.
func NewClientLink(genID *snowflake.Node, now time.Time, clientID, dealerID snowflake.ID, dateOfOnboarding time.Time) (domain.ClientLink, error) {
	if clientID == 0 {
		return domain.ClientLink{}, domain.ErrInvalidID
	}
	if dealerID == 0 {
		return domain.ClientLink{}, domain.ErrInvalidDealer
	}
	if dateOfOnboarding.IsZero() {
		dateOfOnboarding = now
	}
	return domain.ClientLink{
		ID:               genID.Generate(),
		ClientID:         clientID,
		DealerID:         dealerID,
		Status:           domain.StatusActive,
		DateOfOnboarding: dateOfOnboarding.UTC(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *Service) DeactivateClientLink(ctx context.Context, id snowflake.ID, reason string) (domain.ClientLink, error) {
	if id == 0 {
		return domain.ClientLink{}, domain.ErrInvalidID
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.ClientLink{}, domain.ErrInvalidReason
	}

	now := s.clock.Now()
	var updated domain.ClientLink
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link, err := s.repo.FindClientLinkByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if link == nil {
			return domain.ErrClientLinkNotFound
		}
		if !link.Status.CanTransitionTo(domain.StatusInactive) {
			return domain.ErrInvalidState
		}
		affected, err := s.repo.DeactivateClientLink(ctx, tx, id, reason, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidState
		}

		updated = *link
		updated.Status = domain.StatusInactive
		updated.DateOfOffboarding = &now
		updated.OffboardingReason = &reason
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.ClientLink{}, err
	}
	return updated, nil
}

func (s *Service) ListClientLinksByDealer(ctx context.Context, dealerID snowflake.ID, status domain.Status) ([]domain.ClientLink, error) {
	if dealerID == 0 {
		return nil, domain.ErrInvalidDealer
	}
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	items, err := s.repo.ListClientLinksByDealer(ctx, s.db, dealerID, status)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ClientLink, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}
