package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	affiliationrepo "github.com/smallbiznis/dealerhub/internal/affiliation/repository"
	affiliationsvc "github.com/smallbiznis/dealerhub/internal/affiliation/service"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	conflictdomain "github.com/smallbiznis/dealerhub/internal/conflict/domain"
	conflictrepo "github.com/smallbiznis/dealerhub/internal/conflict/repository"
	conflictsvc "github.com/smallbiznis/dealerhub/internal/conflict/service"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
	dealerrepo "github.com/smallbiznis/dealerhub/internal/dealer/repository"
	dealersvc "github.com/smallbiznis/dealerhub/internal/dealer/service"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
	identityrepo "github.com/smallbiznis/dealerhub/internal/identity/repository"
	identitysvc "github.com/smallbiznis/dealerhub/internal/identity/service"
	"github.com/smallbiznis/dealerhub/internal/lock"
	"github.com/smallbiznis/dealerhub/internal/onboarding/domain"
	"github.com/smallbiznis/dealerhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	svc          *Service
	db           *gorm.DB
	clock        *clock.FakeClock
	identity     identitydomain.Service
	affiliations affiliationdomain.Service
	d1, d2       snowflake.ID
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.MustNode(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	holder := config.NewStaticRulesHolder(config.DefaultRegistryRules())
	log := zap.NewNop()

	dealers := dealersvc.New(dealersvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: dealerrepo.Provide()})
	idRepo := identityrepo.Provide()
	identity := identitysvc.New(identitysvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Rules: holder, Repo: idRepo})
	affRepo := affiliationrepo.Provide()
	affiliations := affiliationsvc.New(affiliationsvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: affRepo})
	conflicts := conflictsvc.New(conflictsvc.Params{
		DB: db, Log: log, Rules: holder, Repo: conflictrepo.Provide(),
		Affiliations: affiliations, Dealers: dealers, Identity: identity,
	})

	h := harness{
		svc: New(Params{
			DB: db, Log: log, GenID: node, Clock: fc, Locker: lock.NewLocalLocker(),
			Identity: identity, IdentityRepo: idRepo,
			Affiliations: affiliations, AffiliationRepo: affRepo,
			Conflicts: conflicts, Dealers: dealers,
		}).(*Service),
		db:           db,
		clock:        fc,
		identity:     identity,
		affiliations: affiliations,
		d1:           node.Generate(),
		d2:           node.Generate(),
	}
	testutil.InsertDealer(t, db, h.d1, "Hilal Petroleum")
	testutil.InsertDealer(t, db, h.d2, "Bharat Fuel Services")
	return h
}

func employee(dealerID snowflake.ID, joined time.Time) domain.RegisterEmployeeRequest {
	return domain.RegisterEmployeeRequest{
		PersonInput:   identitydomain.PersonInput{NationalID: "123456789012", Name: "Asha Bhat", Mobile: "9876543210"},
		DealerID:      dealerID,
		DateOfJoining: joined,
	}
}

func TestRegisterEmployeeBlocksActiveElsewhere(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	joined := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	first, err := h.svc.RegisterEmployee(ctx, employee(h.d1, joined))
	require.NoError(t, err)
	assert.True(t, first.PersonCreated)
	assert.Equal(t, affiliationdomain.StatusActive, first.Employment.Status)

	_, err = h.svc.RegisterEmployee(ctx, employee(h.d2, joined))
	conflict, ok := conflictdomain.AsError(err)
	require.True(t, ok, "expected conflict, got %v", err)
	assert.Equal(t, conflictdomain.CodeEmployeeActiveElsewhere, conflict.Conflict.Code)
	assert.Equal(t, "Hilal Petroleum", conflict.Conflict.DealerName)
	assert.True(t, conflict.Conflict.Since.Equal(joined))

	assert.EqualValues(t, 1, testutil.CountActive(t, h.db, "employments", "person_id", first.Person.ID))
}

func TestRegisterEmployeeAfterSeparationReusesPerson(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.RegisterEmployee(ctx, employee(h.d1, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	_, err = h.affiliations.EndEmployment(ctx, first.Employment.ID, affiliationdomain.EndEmploymentRequest{
		SeparationDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
		SeparationType: affiliationdomain.SeparationResigned,
		Remarks:        "Moved to Jammu",
		Actor:          "DEALER:Hilal Petroleum",
	})
	require.NoError(t, err)

	second, err := h.svc.RegisterEmployee(ctx, employee(h.d2, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.False(t, second.PersonCreated)
	assert.Equal(t, first.Person.ID, second.Person.ID)
	assert.NotEqual(t, first.Employment.ID, second.Employment.ID)
	assert.Equal(t, h.d2, second.Employment.DealerID)

	history, err := h.affiliations.ListEmploymentsByPersons(ctx, []snowflake.ID{first.Person.ID})
	require.NoError(t, err)
	assert.Len(t, history[first.Person.ID], 2)

	var persons int64
	require.NoError(t, h.db.Raw(`SELECT COUNT(*) FROM persons`).Scan(&persons).Error)
	assert.EqualValues(t, 1, persons)
}

func TestRegisterEmployeeSameDealerIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	joined := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	first, err := h.svc.RegisterEmployee(ctx, employee(h.d1, joined))
	require.NoError(t, err)
	again, err := h.svc.RegisterEmployee(ctx, employee(h.d1, joined))
	require.NoError(t, err)
	assert.True(t, again.Reused)
	assert.Equal(t, first.Employment.ID, again.Employment.ID)
}

func TestRegisterEmployeeValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bad := employee(h.d1, time.Now())
	bad.NationalID = "12345"
	_, err := h.svc.RegisterEmployee(ctx, bad)
	assert.ErrorIs(t, err, identitydomain.ErrInvalidNationalID)

	_, err = h.svc.RegisterEmployee(ctx, employee(0, time.Now()))
	assert.ErrorIs(t, err, domain.ErrInvalidDealer)

	_, err = h.svc.RegisterEmployee(ctx, employee(h.d1, time.Time{}))
	assert.ErrorIs(t, err, affiliationdomain.ErrInvalidDateOfJoining)

	_, err = h.svc.RegisterEmployee(ctx, employee(999, time.Now()))
	assert.ErrorIs(t, err, dealerdomain.ErrNotFound)
}

func TestConcurrentRegistrationsKeepOneActive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	joined := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for _, dealerID := range []snowflake.ID{h.d1, h.d2, h.d1, h.d2} {
		wg.Add(1)
		go func(dealerID snowflake.ID) {
			defer wg.Done()
			_, err := h.svc.RegisterEmployee(ctx, employee(dealerID, joined))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if _, isConflict := conflictdomain.AsError(err); isConflict {
				conflicts++
			}
		}(dealerID)
	}
	wg.Wait()

	assert.Equal(t, 4, ok+conflicts)
	assert.Equal(t, 2, conflicts)

	person, err := h.identity.FindPersonByNationalID(ctx, "123456789012")
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.EqualValues(t, 1, testutil.CountActive(t, h.db, "employments", "person_id", person.ID))
}

func privateClient(dealerID snowflake.ID, regs ...string) domain.RegisterClientRequest {
	vehicles := make([]identitydomain.VehicleInput, 0, len(regs))
	for _, reg := range regs {
		vehicles = append(vehicles, identitydomain.VehicleInput{RegistrationNumber: reg})
	}
	return domain.RegisterClientRequest{
		ClientInput: identitydomain.ClientInput{
			ClientType: identitydomain.ClientTypePrivate,
			TaxID:      "abcty1234d",
			Name:       "ABC Trading Corp",
		},
		Vehicles: vehicles,
		DealerID: dealerID,
	}
}

func TestRegisterClientBlocksActiveElsewhere(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.RegisterClient(ctx, privateClient(h.d1, "jk01 ab 1234"))
	require.NoError(t, err)
	assert.True(t, first.ClientCreated)
	require.NotNil(t, first.Client.TaxID)
	assert.Equal(t, "ABCTY1234D", *first.Client.TaxID)
	require.Len(t, first.Vehicles, 1)
	assert.Equal(t, "JK01AB1234", first.Vehicles[0].RegistrationNumber)
	assert.True(t, first.Link.DateOfOnboarding.Equal(h.clock.Now()))

	_, err = h.svc.RegisterClient(ctx, privateClient(h.d2, "JK01AB1234"))
	conflict, ok := conflictdomain.AsError(err)
	require.True(t, ok, "expected conflict, got %v", err)
	assert.Equal(t, conflictdomain.CodeClientActiveElsewhere, conflict.Conflict.Code)
	assert.Equal(t, "Hilal Petroleum", conflict.Conflict.DealerName)
}

func TestRegisterClientReuseAppendsVehicles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.RegisterClient(ctx, privateClient(h.d1, "JK01AB1234"))
	require.NoError(t, err)

	again, err := h.svc.RegisterClient(ctx, privateClient(h.d1, "JK01AB1234", "JK02CD5678"))
	require.NoError(t, err)
	assert.False(t, again.ClientCreated)
	assert.True(t, again.Reused)
	assert.Equal(t, first.Client.ID, again.Client.ID)
	assert.Equal(t, first.Link.ID, again.Link.ID)
	assert.Len(t, again.Vehicles, 2)

	vehicles, err := h.identity.ListVehicles(ctx, []snowflake.ID{first.Client.ID})
	require.NoError(t, err)
	assert.Len(t, vehicles[first.Client.ID], 2)
}

func TestRegisterClientAfterOffboardingRelinks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.RegisterClient(ctx, privateClient(h.d1, "JK01AB1234"))
	require.NoError(t, err)
	_, err = h.affiliations.DeactivateClientLink(ctx, first.Link.ID, "CLOSED")
	require.NoError(t, err)

	second, err := h.svc.RegisterClient(ctx, privateClient(h.d2, "JK01AB1234"))
	require.NoError(t, err)
	assert.False(t, second.ClientCreated)
	assert.False(t, second.Reused)
	assert.Equal(t, h.d2, second.Link.DealerID)
}

func TestRegisterClientVehicleRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.RegisterClient(ctx, privateClient(h.d1))
	assert.ErrorIs(t, err, domain.ErrVehiclesRequired)

	_, err = h.svc.RegisterClient(ctx, privateClient(h.d1, "JK01AB1234"))
	require.NoError(t, err)

	other := privateClient(h.d2, "JK01AB1234")
	other.TaxID = "XYZAB6789K"
	other.Name = "XYZ Logistics"
	_, err = h.svc.RegisterClient(ctx, other)
	assert.ErrorIs(t, err, identitydomain.ErrVehicleExists)

	var clients int64
	require.NoError(t, h.db.Raw(`SELECT COUNT(*) FROM clients`).Scan(&clients).Error)
	assert.EqualValues(t, 1, clients)
}

func TestRegisterGovernmentClientCollapsesOnDerivedID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req := domain.RegisterClientRequest{
		ClientInput: identitydomain.ClientInput{
			ClientType:        identitydomain.ClientTypeGovernment,
			OrgName:           "Public Works Department",
			OfficeCode:        "PWD-SGR-01",
			OfficialReference: "ORD/2024/17",
		},
		DealerID: h.d1,
	}
	first, err := h.svc.RegisterClient(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, first.Client.OrgID)
	assert.Equal(t, conflictdomain.DeriveOrgID("Public Works Department", "PWD-SGR-01", "ORD/2024/17"), *first.Client.OrgID)
	assert.Equal(t, "Public Works Department", first.Client.Name)
	assert.Empty(t, first.Vehicles)

	again, err := h.svc.RegisterClient(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.Client.ID, again.Client.ID)
	assert.True(t, again.Reused)
}
