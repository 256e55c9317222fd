package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	"github.com/smallbiznis/dealerhub/internal/config"
	"github.com/smallbiznis/dealerhub/internal/conflict/domain"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	unknownDealerName = "Unknown Dealer"
	candidateFactor   = 10
	maxCandidates     = 200
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Rules        *config.RulesHolder
	Repo         domain.Repository
	Affiliations affiliationdomain.Service
	Dealers      dealerdomain.Service
	Identity     identitydomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	rules        *config.RulesHolder
	repo         domain.Repository
	affiliations affiliationdomain.Service
	dealers      dealerdomain.Service
	identity     identitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("conflict.service"),
		rules:        p.Rules,
		repo:         p.Repo,
		affiliations: p.Affiliations,
		dealers:      p.Dealers,
		identity:     p.Identity,
	}
}

func (s *Service) CheckEmployeeConflict(ctx context.Context, personID, requestingDealerID snowflake.ID) (*domain.Conflict, error) {
	if personID == 0 {
		return nil, domain.ErrInvalidID
	}
	if requestingDealerID == 0 {
		return nil, domain.ErrInvalidDealer
	}

	active, err := s.affiliations.GetActiveEmployment(ctx, personID)
	if err != nil {
		return nil, err
	}
	if active == nil || active.DealerID == requestingDealerID {
		return nil, nil
	}

	name, err := s.dealerName(ctx, active.DealerID)
	if err != nil {
		return nil, err
	}
	return &domain.Conflict{
		Code:          domain.CodeEmployeeActiveElsewhere,
		AffiliationID: active.ID,
		DealerID:      active.DealerID,
		DealerName:    name,
		Since:         active.DateOfJoining,
	}, nil
}

func (s *Service) CheckClientConflict(ctx context.Context, clientID, requestingDealerID snowflake.ID) (*domain.Conflict, error) {
	if clientID == 0 {
		return nil, domain.ErrInvalidID
	}
	if requestingDealerID == 0 {
		return nil, domain.ErrInvalidDealer
	}

	active, err := s.affiliations.GetActiveClientLink(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if active == nil || active.DealerID == requestingDealerID {
		return nil, nil
	}

	name, err := s.dealerName(ctx, active.DealerID)
	if err != nil {
		return nil, err
	}
	return &domain.Conflict{
		Code:          domain.CodeClientActiveElsewhere,
		AffiliationID: active.ID,
		DealerID:      active.DealerID,
		DealerName:    name,
		Since:         active.DateOfOnboarding,
	}, nil
}

func (s *Service) dealerName(ctx context.Context, dealerID snowflake.ID) (string, error) {
	dealer, err := s.dealers.GetByID(ctx, dealerID)
	if err != nil {
		if errors.Is(err, dealerdomain.ErrNotFound) {
			return unknownDealerName, nil
		}
		return "", err
	}
	return dealer.DisplayName(), nil
}

func (s *Service) candidateFilter(query domain.SimilarQuery) (domain.CandidateFilter, int) {
	limit := s.rules.Get().SimilarMatchLimit
	pool := limit * candidateFactor
	if pool > maxCandidates {
		pool = maxCandidates
	}
	return domain.CandidateFilter{
		Name:            strings.TrimSpace(query.Name),
		Mobile:          strings.TrimSpace(query.Mobile),
		Email:           strings.ToLower(strings.TrimSpace(query.Email)),
		TaxID:           strings.ToUpper(strings.TrimSpace(query.TaxID)),
		ExcludeDealerID: query.ExcludeDealerID,
		Limit:           pool,
	}, limit
}

func (s *Service) FindSimilarEmployees(ctx context.Context, query domain.SimilarQuery) ([]domain.SimilarEmployee, error) {
	if query.ExcludeDealerID == 0 {
		return nil, domain.ErrInvalidDealer
	}
	filter, limit := s.candidateFilter(query)
	filter.TaxID = ""
	if filter.Empty() {
		return []domain.SimilarEmployee{}, nil
	}

	candidates, err := s.repo.EmploymentCandidates(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[snowflake.ID]struct{}, len(candidates))
	employments := make([]affiliationdomain.Employment, 0, len(candidates))
	personIDs := make([]snowflake.ID, 0, len(candidates))
	dealerIDs := make([]snowflake.ID, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if _, ok := seen[candidate.PersonID]; ok {
			continue
		}
		seen[candidate.PersonID] = struct{}{}
		employments = append(employments, *candidate)
		personIDs = append(personIDs, candidate.PersonID)
		dealerIDs = append(dealerIDs, candidate.DealerID)
	}

	persons, err := s.identity.LookupPersons(ctx, personIDs)
	if err != nil {
		return nil, err
	}
	dealers, err := s.dealers.Lookup(ctx, dealerIDs)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(employments))
	exact := make([]bool, len(employments))
	for i, employment := range employments {
		person := persons[employment.PersonID]
		names[i] = person.Name
		exact[i] = (filter.Mobile != "" && equalPtr(person.Mobile, filter.Mobile, false)) ||
			(filter.Email != "" && equalPtr(person.Email, filter.Email, true))
	}

	out := make([]domain.SimilarEmployee, 0, limit)
	for _, idx := range rankOrder(filter.Name, names, exact) {
		if len(out) == limit {
			break
		}
		employment := employments[idx]
		dealer := dealers[employment.DealerID]
		out = append(out, domain.SimilarEmployee{
			Employment: employment,
			Person:     persons[employment.PersonID],
			Dealer:     dealer,
			DealerName: legalName(dealer),
		})
	}
	return out, nil
}

func (s *Service) FindSimilarClients(ctx context.Context, query domain.SimilarQuery) ([]domain.SimilarClient, error) {
	if query.ExcludeDealerID == 0 {
		return nil, domain.ErrInvalidDealer
	}
	filter, limit := s.candidateFilter(query)
	if filter.Empty() {
		return []domain.SimilarClient{}, nil
	}

	candidates, err := s.repo.ClientLinkCandidates(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[snowflake.ID]struct{}, len(candidates))
	links := make([]affiliationdomain.ClientLink, 0, len(candidates))
	clientIDs := make([]snowflake.ID, 0, len(candidates))
	dealerIDs := make([]snowflake.ID, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if _, ok := seen[candidate.ClientID]; ok {
			continue
		}
		seen[candidate.ClientID] = struct{}{}
		links = append(links, *candidate)
		clientIDs = append(clientIDs, candidate.ClientID)
		dealerIDs = append(dealerIDs, candidate.DealerID)
	}

	clients, err := s.identity.LookupClients(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	dealers, err := s.dealers.Lookup(ctx, dealerIDs)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(links))
	exact := make([]bool, len(links))
	for i, link := range links {
		client := clients[link.ClientID]
		names[i] = client.Name
		exact[i] = (filter.Mobile != "" && equalPtr(client.Mobile, filter.Mobile, false)) ||
			(filter.Email != "" && equalPtr(client.Email, filter.Email, true)) ||
			(filter.TaxID != "" && equalPtr(client.TaxID, filter.TaxID, false))
	}

	out := make([]domain.SimilarClient, 0, limit)
	for _, idx := range rankOrder(filter.Name, names, exact) {
		if len(out) == limit {
			break
		}
		link := links[idx]
		dealer := dealers[link.DealerID]
		out = append(out, domain.SimilarClient{
			ClientLink: link,
			Client:     clients[link.ClientID],
			Dealer:     dealer,
			DealerName: legalName(dealer),
		})
	}
	return out, nil
}

func legalName(dealer dealerdomain.Dealer) string {
	if dealer.LegalName == "" {
		return unknownDealerName
	}
	return dealer.LegalName
}

func equalPtr(value *string, want string, fold bool) bool {
	if value == nil {
		return false
	}
	if fold {
		return strings.EqualFold(*value, want)
	}
	return *value == want
}
