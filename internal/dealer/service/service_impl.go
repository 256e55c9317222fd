package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/dealer/domain"
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
		log:   p.Log.Named("dealer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateDealerRequest) (domain.Dealer, error) {
	legalName := strings.TrimSpace(req.LegalName)
	if legalName == "" {
		return domain.Dealer{}, domain.ErrInvalidLegalName
	}
	outletName := strings.TrimSpace(req.OutletName)
	if outletName == "" {
		return domain.Dealer{}, domain.ErrInvalidOutletName
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return domain.Dealer{}, domain.ErrInvalidLocation
	}

	code, err := s.uniqueCode(ctx, outletName, location)
	if err != nil {
		return domain.Dealer{}, err
	}

	now := s.clock.Now()
	dealer := domain.Dealer{
		ID:         s.genID.Generate(),
		Code:       code,
		LegalName:  legalName,
		OutletName: outletName,
		Location:   location,
		Status:     domain.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, &dealer); err != nil {
		return domain.Dealer{}, err
	}

	s.log.Info("dealer registered", zap.String("dealer_id", dealer.ID.String()), zap.String("code", code))
	return dealer, nil
}

// uniqueCode slugs the outlet name and falls back to outlet plus location,
// then a numeric suffix, until the code is free.
func (s *Service) uniqueCode(ctx context.Context, outletName, location string) (string, error) {
	base := slug.Make(outletName)
	if base == "" {
		base = "dealer"
	}
	candidates := []string{base, slug.Make(outletName + " " + location)}
	for i := 2; i < 100; i++ {
		candidates = append(candidates, fmt.Sprintf("%s-%d", base, i))
	}

	for _, code := range candidates {
		existing, err := s.repo.FindByCode(ctx, s.db, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return fmt.Sprintf("%s-%s", base, s.genID.Generate().String()), nil
}

func (s *Service) List(ctx context.Context, req domain.ListDealerRequest) ([]domain.Dealer, error) {
	filter := domain.ListFilter{Name: strings.TrimSpace(req.Name)}
	if status := strings.ToUpper(strings.TrimSpace(req.Status)); status != "" {
		filter.Status = domain.Status(status)
		if !filter.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	dealers := make([]domain.Dealer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		dealers = append(dealers, *item)
	}
	return dealers, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Dealer, error) {
	if id == 0 {
		return domain.Dealer{}, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Dealer{}, err
	}
	if item == nil {
		return domain.Dealer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.Status) (domain.Dealer, error) {
	if id == 0 {
		return domain.Dealer{}, domain.ErrInvalidID
	}
	status = domain.Status(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return domain.Dealer{}, domain.ErrInvalidStatus
	}

	affected, err := s.repo.UpdateStatus(ctx, s.db, id, status, s.clock.Now())
	if err != nil {
		return domain.Dealer{}, err
	}
	if affected == 0 {
		return domain.Dealer{}, domain.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *Service) Lookup(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Dealer, error) {
	out := make(map[snowflake.ID]domain.Dealer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	seen := make(map[snowflake.ID]struct{}, len(ids))
	unique := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	items, err := s.repo.FindByIDs(ctx, s.db, unique)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		out[item.ID] = *item
	}
	return out, nil
}
