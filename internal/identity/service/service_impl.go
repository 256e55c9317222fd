package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	conflictdomain "github.com/smallbiznis/dealerhub/internal/conflict/domain"
	"github.com/smallbiznis/dealerhub/internal/identity/domain"
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
	Rules *config.RulesHolder
	Repo  domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	rules    *config.RulesHolder
	repo     domain.Repository
	validate *validator.Validate
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("identity.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		rules:    p.Rules,
		repo:     p.Repo,
		validate: validator.New(),
	}
}

func (s *Service) NewPerson(input domain.PersonInput) (domain.Person, error) {
	input.NationalID = strings.TrimSpace(input.NationalID)
	input.Name = strings.TrimSpace(input.Name)
	input.Mobile = strings.TrimSpace(input.Mobile)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Address = strings.TrimSpace(input.Address)

	if err := s.validate.Struct(input); err != nil {
		return domain.Person{}, translateValidation(err)
	}
	if len(input.NationalID) != s.rules.Get().NationalIDLength {
		return domain.Person{}, domain.ErrInvalidNationalID
	}

	now := s.clock.Now()
	person := domain.Person{
		ID:         s.genID.Generate(),
		NationalID: input.NationalID,
		Name:       input.Name,
		Mobile:     optional(input.Mobile),
		Email:      optional(input.Email),
		Address:    optional(input.Address),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.DateOfBirth != nil {
		dob := input.DateOfBirth.UTC()
		person.DateOfBirth = &dob
	}
	return person, nil
}

func (s *Service) CreatePerson(ctx context.Context, input domain.PersonInput) (domain.Person, error) {
	person, err := s.NewPerson(input)
	if err != nil {
		return domain.Person{}, err
	}
	if err := s.repo.InsertPerson(ctx, s.db, &person); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Person{}, domain.ErrPersonExists
		}
		return domain.Person{}, err
	}
	return person, nil
}

func (s *Service) FindPersonByNationalID(ctx context.Context, nationalID string) (*domain.Person, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, domain.ErrInvalidNationalID
	}
	return s.repo.FindPersonByNationalID(ctx, s.db, nationalID)
}

func (s *Service) GetPerson(ctx context.Context, id snowflake.ID) (domain.Person, error) {
	if id == 0 {
		return domain.Person{}, domain.ErrInvalidID
	}
	person, err := s.repo.FindPersonByID(ctx, s.db, id)
	if err != nil {
		return domain.Person{}, err
	}
	if person == nil {
		return domain.Person{}, domain.ErrPersonNotFound
	}
	return *person, nil
}

func (s *Service) LookupPersons(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Person, error) {
	items, err := s.repo.FindPersonsByIDs(ctx, s.db, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.Person, len(items))
	for _, item := range items {
		if item != nil {
			out[item.ID] = *item
		}
	}
	return out, nil
}

func (s *Service) SearchPersons(ctx context.Context, filter domain.PersonSearch) ([]domain.Person, error) {
	filter = domain.PersonSearch{
		NationalID: strings.TrimSpace(filter.NationalID),
		Name:       strings.TrimSpace(filter.Name),
		Mobile:     strings.TrimSpace(filter.Mobile),
	}
	if filter.Empty() {
		return nil, domain.ErrInvalidSearch
	}

	items, err := s.repo.SearchPersons(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	persons := make([]domain.Person, 0, len(items))
	for _, item := range items {
		if item != nil {
			persons = append(persons, *item)
		}
	}
	return persons, nil
}

func (s *Service) NewClient(input domain.ClientInput) (domain.Client, error) {
	input.ClientType = domain.ClientType(strings.ToUpper(strings.TrimSpace(string(input.ClientType))))
	input.Name = strings.TrimSpace(input.Name)
	input.ContactPerson = strings.TrimSpace(input.ContactPerson)
	input.Mobile = strings.TrimSpace(input.Mobile)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Address = strings.TrimSpace(input.Address)
	input.GSTNumber = strings.ToUpper(strings.TrimSpace(input.GSTNumber))

	client := domain.Client{ClientType: input.ClientType}
	switch input.ClientType {
	case domain.ClientTypePrivate:
		taxID := strings.ToUpper(strings.TrimSpace(input.TaxID))
		if !taxIDPattern.MatchString(taxID) {
			return domain.Client{}, domain.ErrInvalidTaxID
		}
		client.TaxID = &taxID
	case domain.ClientTypeGovernment:
		orgName := strings.TrimSpace(input.OrgName)
		officeCode := strings.TrimSpace(input.OfficeCode)
		reference := strings.TrimSpace(input.OfficialReference)
		if orgName == "" {
			return domain.Client{}, domain.ErrInvalidOrgName
		}
		if officeCode == "" {
			return domain.Client{}, domain.ErrInvalidOfficeCode
		}
		if reference == "" {
			return domain.Client{}, domain.ErrInvalidOfficialReference
		}
		orgID := conflictdomain.DeriveOrgID(orgName, officeCode, reference)
		client.OrgID = &orgID
		if input.Name == "" {
			input.Name = orgName
		}
	default:
		return domain.Client{}, domain.ErrInvalidClientType
	}

	if err := s.validate.Struct(input); err != nil {
		return domain.Client{}, translateValidation(err)
	}

	now := s.clock.Now()
	client.ID = s.genID.Generate()
	client.Name = input.Name
	client.ContactPerson = optional(input.ContactPerson)
	client.Mobile = optional(input.Mobile)
	client.Email = optional(input.Email)
	client.Address = optional(input.Address)
	client.GSTNumber = optional(input.GSTNumber)
	client.CreatedAt = now
	client.UpdatedAt = now
	return client, nil
}

func (s *Service) CreateClient(ctx context.Context, input domain.ClientInput) (domain.Client, error) {
	client, err := s.NewClient(input)
	if err != nil {
		return domain.Client{}, err
	}
	if err := s.repo.InsertClient(ctx, s.db, &client); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Client{}, domain.ErrClientExists
		}
		return domain.Client{}, err
	}
	return client, nil
}

func (s *Service) FindClientByTaxID(ctx context.Context, taxID string) (*domain.Client, error) {
	taxID = strings.ToUpper(strings.TrimSpace(taxID))
	if taxID == "" {
		return nil, domain.ErrInvalidTaxID
	}
	return s.repo.FindClientByTaxID(ctx, s.db, taxID)
}

func (s *Service) FindClientByOrgID(ctx context.Context, orgID string) (*domain.Client, error) {
	orgID = strings.ToUpper(strings.TrimSpace(orgID))
	if orgID == "" {
		return nil, domain.ErrInvalidOrgName
	}
	return s.repo.FindClientByOrgID(ctx, s.db, orgID)
}

func (s *Service) FindClientByIdentity(ctx context.Context, client domain.Client) (*domain.Client, error) {
	switch {
	case client.TaxID != nil:
		return s.FindClientByTaxID(ctx, *client.TaxID)
	case client.OrgID != nil:
		return s.FindClientByOrgID(ctx, *client.OrgID)
	default:
		return nil, domain.ErrInvalidClientType
	}
}

func (s *Service) GetClient(ctx context.Context, id snowflake.ID) (domain.Client, error) {
	if id == 0 {
		return domain.Client{}, domain.ErrInvalidID
	}
	client, err := s.repo.FindClientByID(ctx, s.db, id)
	if err != nil {
		return domain.Client{}, err
	}
	if client == nil {
		return domain.Client{}, domain.ErrClientNotFound
	}
	return *client, nil
}

func (s *Service) LookupClients(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Client, error) {
	items, err := s.repo.FindClientsByIDs(ctx, s.db, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.Client, len(items))
	for _, item := range items {
		if item != nil {
			out[item.ID] = *item
		}
	}
	return out, nil
}

func (s *Service) SearchClients(ctx context.Context, filter domain.ClientSearch) ([]domain.Client, error) {
	filter = domain.ClientSearch{
		TaxID:               strings.TrimSpace(filter.TaxID),
		OrgID:               strings.TrimSpace(filter.OrgID),
		Name:                strings.TrimSpace(filter.Name),
		VehicleRegistration: strings.TrimSpace(filter.VehicleRegistration),
	}
	if filter.Empty() {
		return nil, domain.ErrInvalidSearch
	}

	items, err := s.repo.SearchClients(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item != nil {
			clients = append(clients, *item)
		}
	}
	return clients, nil
}

// NormalizeRegistration upper-cases a registration number and drops spaces.
func NormalizeRegistration(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), ""))
}

func (s *Service) NewVehicle(clientID snowflake.ID, input domain.VehicleInput) (domain.Vehicle, error) {
	registration := NormalizeRegistration(input.RegistrationNumber)
	if registration == "" || len(registration) > 20 {
		return domain.Vehicle{}, domain.ErrInvalidRegistrationNumber
	}
	return domain.Vehicle{
		ID:                 s.genID.Generate(),
		ClientID:           clientID,
		RegistrationNumber: registration,
		FuelType:           optional(strings.ToUpper(strings.TrimSpace(input.FuelType))),
		CreatedAt:          s.clock.Now(),
	}, nil
}

func (s *Service) AddVehicle(ctx context.Context, clientID snowflake.ID, input domain.VehicleInput) (domain.Vehicle, error) {
	vehicle, err := s.NewVehicle(clientID, input)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return domain.Vehicle{}, err
	}

	existing, err := s.repo.FindVehicleByRegistration(ctx, s.db, vehicle.RegistrationNumber)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if existing != nil {
		return domain.Vehicle{}, domain.ErrVehicleExists
	}

	if err := s.repo.InsertVehicle(ctx, s.db, &vehicle); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Vehicle{}, domain.ErrVehicleExists
		}
		return domain.Vehicle{}, err
	}
	return vehicle, nil
}

func (s *Service) ListVehicles(ctx context.Context, clientIDs []snowflake.ID) (map[snowflake.ID][]domain.Vehicle, error) {
	items, err := s.repo.ListVehiclesByClientIDs(ctx, s.db, uniqueIDs(clientIDs))
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID][]domain.Vehicle, len(clientIDs))
	for _, item := range items {
		if item != nil {
			out[item.ClientID] = append(out[item.ClientID], *item)
		}
	}
	return out, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func uniqueIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
