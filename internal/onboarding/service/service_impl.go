package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	affiliationsvc "github.com/smallbiznis/dealerhub/internal/affiliation/service"
	"github.com/smallbiznis/dealerhub/internal/clock"
	conflictdomain "github.com/smallbiznis/dealerhub/internal/conflict/domain"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
	"github.com/smallbiznis/dealerhub/internal/lock"
	"github.com/smallbiznis/dealerhub/internal/observability/metrics"
	"github.com/smallbiznis/dealerhub/internal/onboarding/domain"
	"github.com/smallbiznis/dealerhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	kindEmployee = "employee"
	kindClient   = "client"

	outcomeCreated  = "created"
	outcomeReused   = "reused"
	outcomeConflict = "conflict"
)

// errIdentityRace marks a lost insert race on the identity row itself. The
// registration is retried once so the winner's row is reused.
var errIdentityRace = errors.New("identity_race")

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Locker          lock.Locker
	Identity        identitydomain.Service
	IdentityRepo    identitydomain.Repository
	Affiliations    affiliationdomain.Service
	AffiliationRepo affiliationdomain.Repository
	Conflicts       conflictdomain.Service
	Dealers         dealerdomain.Service
	Metrics         *metrics.Metrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	locker          lock.Locker
	identity        identitydomain.Service
	identityRepo    identitydomain.Repository
	affiliations    affiliationdomain.Service
	affiliationRepo affiliationdomain.Repository
	conflicts       conflictdomain.Service
	dealers         dealerdomain.Service
	metrics         *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("onboarding.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		locker:          p.Locker,
		identity:        p.Identity,
		identityRepo:    p.IdentityRepo,
		affiliations:    p.Affiliations,
		affiliationRepo: p.AffiliationRepo,
		conflicts:       p.Conflicts,
		dealers:         p.Dealers,
		metrics:         p.Metrics,
	}
}

func (s *Service) RegisterEmployee(ctx context.Context, req domain.RegisterEmployeeRequest) (domain.EmployeeRegistration, error) {
	if req.DealerID == 0 {
		return domain.EmployeeRegistration{}, domain.ErrInvalidDealer
	}
	candidate, err := s.identity.NewPerson(req.PersonInput)
	if err != nil {
		return domain.EmployeeRegistration{}, err
	}
	if req.DateOfJoining.IsZero() {
		return domain.EmployeeRegistration{}, affiliationdomain.ErrInvalidDateOfJoining
	}
	if _, err := s.dealers.GetByID(ctx, req.DealerID); err != nil {
		return domain.EmployeeRegistration{}, err
	}

	unlock, err := s.locker.Lock(ctx, "person:"+candidate.NationalID)
	if err != nil {
		return domain.EmployeeRegistration{}, err
	}
	defer unlock()

	out, err := s.registerEmployee(ctx, candidate, req)
	if errors.Is(err, errIdentityRace) {
		out, err = s.registerEmployee(ctx, candidate, req)
	}
	if errors.Is(err, errIdentityRace) {
		err = identitydomain.ErrPersonExists
	}
	if err != nil {
		s.recordFailure(ctx, kindEmployee, err)
		return domain.EmployeeRegistration{}, err
	}

	s.metrics.RecordRegistration(ctx, kindEmployee, outcome(out.PersonCreated))
	s.log.Info("employee registered",
		zap.String("person_id", out.Person.ID.String()),
		zap.String("employment_id", out.Employment.ID.String()),
		zap.String("dealer_id", req.DealerID.String()),
		zap.Bool("person_created", out.PersonCreated),
	)
	return out, nil
}

func (s *Service) registerEmployee(ctx context.Context, candidate identitydomain.Person, req domain.RegisterEmployeeRequest) (domain.EmployeeRegistration, error) {
	existing, err := s.identity.FindPersonByNationalID(ctx, candidate.NationalID)
	if err != nil {
		return domain.EmployeeRegistration{}, err
	}

	person := candidate
	created := existing == nil
	if existing != nil {
		person = *existing

		conflict, err := s.conflicts.CheckEmployeeConflict(ctx, person.ID, req.DealerID)
		if err != nil {
			return domain.EmployeeRegistration{}, err
		}
		if conflict != nil {
			return domain.EmployeeRegistration{}, conflictdomain.NewError(*conflict)
		}

		active, err := s.affiliations.GetActiveEmployment(ctx, person.ID)
		if err != nil {
			return domain.EmployeeRegistration{}, err
		}
		if active != nil {
			return domain.EmployeeRegistration{Person: person, Employment: *active, Reused: true}, nil
		}
	}

	employment, err := affiliationsvc.NewEmployment(s.genID, s.clock.Now(), person.ID, req.DealerID, req.DateOfJoining)
	if err != nil {
		return domain.EmployeeRegistration{}, err
	}

	personInserted := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if created {
			if err := s.identityRepo.InsertPerson(ctx, tx, &person); err != nil {
				return err
			}
			personInserted = true
		}
		return s.affiliationRepo.InsertEmployment(ctx, tx, &employment)
	})
	if err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return domain.EmployeeRegistration{}, err
		}
		if created && !personInserted {
			return domain.EmployeeRegistration{}, errIdentityRace
		}
		return domain.EmployeeRegistration{}, s.employmentRace(ctx, person.ID, req.DealerID)
	}

	return domain.EmployeeRegistration{Person: person, Employment: employment, PersonCreated: created}, nil
}

// employmentRace runs after the active-employment index rejected an insert
// and reports who holds the slot.
func (s *Service) employmentRace(ctx context.Context, personID, dealerID snowflake.ID) error {
	conflict, err := s.conflicts.CheckEmployeeConflict(ctx, personID, dealerID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return conflictdomain.NewError(*conflict)
	}
	return affiliationdomain.ErrActiveAffiliationExists
}

func (s *Service) RegisterClient(ctx context.Context, req domain.RegisterClientRequest) (domain.ClientRegistration, error) {
	if req.DealerID == 0 {
		return domain.ClientRegistration{}, domain.ErrInvalidDealer
	}
	candidate, err := s.identity.NewClient(req.ClientInput)
	if err != nil {
		return domain.ClientRegistration{}, err
	}
	if candidate.ClientType == identitydomain.ClientTypePrivate && len(req.Vehicles) == 0 {
		return domain.ClientRegistration{}, domain.ErrVehiclesRequired
	}

	vehicles := make([]identitydomain.Vehicle, 0, len(req.Vehicles))
	seen := make(map[string]struct{}, len(req.Vehicles))
	for _, input := range req.Vehicles {
		vehicle, err := s.identity.NewVehicle(candidate.ID, input)
		if err != nil {
			return domain.ClientRegistration{}, err
		}
		if _, ok := seen[vehicle.RegistrationNumber]; ok {
			continue
		}
		seen[vehicle.RegistrationNumber] = struct{}{}
		vehicles = append(vehicles, vehicle)
	}

	if _, err := s.dealers.GetByID(ctx, req.DealerID); err != nil {
		return domain.ClientRegistration{}, err
	}

	unlock, err := s.locker.Lock(ctx, "client:"+identityKey(candidate))
	if err != nil {
		return domain.ClientRegistration{}, err
	}
	defer unlock()

	out, err := s.registerClient(ctx, candidate, vehicles, req)
	if errors.Is(err, errIdentityRace) {
		out, err = s.registerClient(ctx, candidate, vehicles, req)
	}
	if errors.Is(err, errIdentityRace) {
		err = identitydomain.ErrClientExists
	}
	if err != nil {
		s.recordFailure(ctx, kindClient, err)
		return domain.ClientRegistration{}, err
	}

	s.metrics.RecordRegistration(ctx, kindClient, outcome(out.ClientCreated))
	s.log.Info("client registered",
		zap.String("client_id", out.Client.ID.String()),
		zap.String("link_id", out.Link.ID.String()),
		zap.String("dealer_id", req.DealerID.String()),
		zap.Bool("client_created", out.ClientCreated),
		zap.Int("vehicles", len(out.Vehicles)),
	)
	return out, nil
}

func (s *Service) registerClient(ctx context.Context, candidate identitydomain.Client, requested []identitydomain.Vehicle, req domain.RegisterClientRequest) (domain.ClientRegistration, error) {
	existing, err := s.identity.FindClientByIdentity(ctx, candidate)
	if err != nil {
		return domain.ClientRegistration{}, err
	}

	client := candidate
	created := existing == nil
	var active *affiliationdomain.ClientLink
	if existing != nil {
		client = *existing

		conflict, err := s.conflicts.CheckClientConflict(ctx, client.ID, req.DealerID)
		if err != nil {
			return domain.ClientRegistration{}, err
		}
		if conflict != nil {
			return domain.ClientRegistration{}, conflictdomain.NewError(*conflict)
		}

		active, err = s.affiliations.GetActiveClientLink(ctx, client.ID)
		if err != nil {
			return domain.ClientRegistration{}, err
		}
	}

	vehicles := make([]identitydomain.Vehicle, 0, len(requested))
	pending := make([]identitydomain.Vehicle, 0, len(requested))
	for _, vehicle := range requested {
		vehicle.ClientID = client.ID
		owned, err := s.identityRepo.FindVehicleByRegistration(ctx, s.db, vehicle.RegistrationNumber)
		if err != nil {
			return domain.ClientRegistration{}, err
		}
		if owned != nil {
			if owned.ClientID != client.ID {
				return domain.ClientRegistration{}, identitydomain.ErrVehicleExists
			}
			vehicles = append(vehicles, *owned)
			continue
		}
		pending = append(pending, vehicle)
	}

	var link affiliationdomain.ClientLink
	if active != nil {
		link = *active
	} else {
		link, err = affiliationsvc.NewClientLink(s.genID, s.clock.Now(), client.ID, req.DealerID, req.DateOfOnboarding)
		if err != nil {
			return domain.ClientRegistration{}, err
		}
	}

	const (
		stageClient = iota
		stageLink
		stageVehicles
	)
	stage := stageClient
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if created {
			if err := s.identityRepo.InsertClient(ctx, tx, &client); err != nil {
				return err
			}
		}
		stage = stageLink
		if active == nil {
			if err := s.affiliationRepo.InsertClientLink(ctx, tx, &link); err != nil {
				return err
			}
		}
		stage = stageVehicles
		for i := range pending {
			if err := s.identityRepo.InsertVehicle(ctx, tx, &pending[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return domain.ClientRegistration{}, err
		}
		switch stage {
		case stageClient:
			return domain.ClientRegistration{}, errIdentityRace
		case stageLink:
			return domain.ClientRegistration{}, s.clientLinkRace(ctx, client.ID, req.DealerID)
		default:
			return domain.ClientRegistration{}, identitydomain.ErrVehicleExists
		}
	}

	return domain.ClientRegistration{
		Client:        client,
		Link:          link,
		Vehicles:      append(vehicles, pending...),
		ClientCreated: created,
		Reused:        active != nil,
	}, nil
}

func (s *Service) clientLinkRace(ctx context.Context, clientID, dealerID snowflake.ID) error {
	conflict, err := s.conflicts.CheckClientConflict(ctx, clientID, dealerID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return conflictdomain.NewError(*conflict)
	}
	return affiliationdomain.ErrActiveAffiliationExists
}

func (s *Service) recordFailure(ctx context.Context, kind string, err error) {
	conflict, ok := conflictdomain.AsError(err)
	if !ok {
		return
	}
	s.metrics.RecordConflict(ctx, string(conflict.Conflict.Code))
	s.metrics.RecordRegistration(ctx, kind, outcomeConflict)
}

func outcome(created bool) string {
	if created {
		return outcomeCreated
	}
	return outcomeReused
}

func identityKey(client identitydomain.Client) string {
	switch {
	case client.TaxID != nil:
		return "tax:" + *client.TaxID
	case client.OrgID != nil:
		return "org:" + *client.OrgID
	default:
		return client.ID.String()
	}
}
