package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	conflictdomain "github.com/smallbiznis/dealerhub/internal/conflict/domain"
	"github.com/smallbiznis/dealerhub/internal/identity/domain"
	"github.com/smallbiznis/dealerhub/internal/identity/repository"
	"github.com/smallbiznis/dealerhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(Params{
		DB:    testutil.NewDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.MustNode(t),
		Clock: clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		Rules: config.NewStaticRulesHolder(config.DefaultRegistryRules()),
		Repo:  repository.Provide(),
	}).(*Service)
}

func TestNewPersonValidation(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name  string
		input domain.PersonInput
		want  error
	}{
		{"short national id", domain.PersonInput{NationalID: "12345", Name: "Asha"}, domain.ErrInvalidNationalID},
		{"non numeric national id", domain.PersonInput{NationalID: "12345678901A", Name: "Asha"}, domain.ErrInvalidNationalID},
		{"missing name", domain.PersonInput{NationalID: "123456789012"}, domain.ErrInvalidName},
		{"bad email", domain.PersonInput{NationalID: "123456789012", Name: "Asha", Email: "nope"}, domain.ErrInvalidEmail},
		{"bad mobile", domain.PersonInput{NationalID: "123456789012", Name: "Asha", Mobile: "12ab"}, domain.ErrInvalidMobile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.NewPerson(tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	p, err := svc.NewPerson(domain.PersonInput{NationalID: " 123456789012 ", Name: " Asha ", Email: "Asha@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "123456789012", p.NationalID)
	assert.Equal(t, "Asha", p.Name)
	require.NotNil(t, p.Email)
	assert.Equal(t, "asha@example.com", *p.Email)
	assert.Nil(t, p.Mobile)
}

func TestCreatePersonRejectsDuplicateNationalID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePerson(ctx, domain.PersonInput{NationalID: "123456789012", Name: "Asha"})
	require.NoError(t, err)

	found, err := svc.FindPersonByNationalID(ctx, "123456789012")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.CreatePerson(ctx, domain.PersonInput{NationalID: "123456789012", Name: "Someone Else"})
	assert.ErrorIs(t, err, domain.ErrPersonExists)

	missing, err := svc.FindPersonByNationalID(ctx, "999999999999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSearchPersons(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePerson(ctx, domain.PersonInput{NationalID: "123456789012", Name: "Asha Bhat", Mobile: "9876543210"})
	require.NoError(t, err)
	_, err = svc.CreatePerson(ctx, domain.PersonInput{NationalID: "123456789013", Name: "Bilal Ahmad"})
	require.NoError(t, err)

	_, err = svc.SearchPersons(ctx, domain.PersonSearch{})
	assert.ErrorIs(t, err, domain.ErrInvalidSearch)

	byName, err := svc.SearchPersons(ctx, domain.PersonSearch{Name: "BHAT"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Asha Bhat", byName[0].Name)

	byMobile, err := svc.SearchPersons(ctx, domain.PersonSearch{Mobile: "9876543210"})
	require.NoError(t, err)
	require.Len(t, byMobile, 1)

	none, err := svc.SearchPersons(ctx, domain.PersonSearch{Name: "Bilal", Mobile: "9876543210"})
	require.NoError(t, err)
	assert.Empty(t, none)

	wildcard, err := svc.SearchPersons(ctx, domain.PersonSearch{Name: "%"})
	require.NoError(t, err)
	assert.Empty(t, wildcard)
}

func TestNewClientPrivateAndGovernment(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.NewClient(domain.ClientInput{ClientType: "PRIVATE", TaxID: "ABC123", Name: "ABC Trading Corp"})
	assert.ErrorIs(t, err, domain.ErrInvalidTaxID)

	_, err = svc.NewClient(domain.ClientInput{ClientType: "OTHER", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidClientType)

	private, err := svc.NewClient(domain.ClientInput{ClientType: "private", TaxID: "abcty1234d", Name: "ABC Trading Corp"})
	require.NoError(t, err)
	require.NotNil(t, private.TaxID)
	assert.Equal(t, "ABCTY1234D", *private.TaxID)
	assert.Nil(t, private.OrgID)

	_, err = svc.NewClient(domain.ClientInput{ClientType: "GOVERNMENT", OrgName: "PWD", OfficeCode: "SGR-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidOfficialReference)

	gov, err := svc.NewClient(domain.ClientInput{ClientType: "GOVERNMENT", OrgName: "PWD", OfficeCode: "SGR-01", OfficialReference: "PWD/117"})
	require.NoError(t, err)
	require.NotNil(t, gov.OrgID)
	assert.Equal(t, conflictdomain.DeriveOrgID("PWD", "SGR-01", "PWD/117"), *gov.OrgID)
	assert.Equal(t, "PWD", gov.Name)
	assert.Nil(t, gov.TaxID)
}

func TestCreateClientAndLookupByIdentity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateClient(ctx, domain.ClientInput{ClientType: domain.ClientTypePrivate, TaxID: "ABCTY1234D", Name: "ABC Trading Corp"})
	require.NoError(t, err)

	candidate, err := svc.NewClient(domain.ClientInput{ClientType: domain.ClientTypePrivate, TaxID: "ABCTY1234D", Name: "ABC Trading"})
	require.NoError(t, err)
	found, err := svc.FindClientByIdentity(ctx, candidate)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.CreateClient(ctx, domain.ClientInput{ClientType: domain.ClientTypePrivate, TaxID: "ABCTY1234D", Name: "Dup"})
	assert.ErrorIs(t, err, domain.ErrClientExists)

	gov, err := svc.CreateClient(ctx, domain.ClientInput{ClientType: domain.ClientTypeGovernment, OrgName: "PWD", OfficeCode: "SGR-01", OfficialReference: "PWD/117"})
	require.NoError(t, err)
	byOrg, err := svc.FindClientByOrgID(ctx, *gov.OrgID)
	require.NoError(t, err)
	require.NotNil(t, byOrg)
	assert.Equal(t, gov.ID, byOrg.ID)
}

func TestAddVehicleAndSearchByRegistration(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, domain.ClientInput{ClientType: domain.ClientTypePrivate, TaxID: "ABCTY1234D", Name: "ABC Trading Corp"})
	require.NoError(t, err)

	v, err := svc.AddVehicle(ctx, client.ID, domain.VehicleInput{RegistrationNumber: "jk01 ab 1234", FuelType: "diesel"})
	require.NoError(t, err)
	assert.Equal(t, "JK01AB1234", v.RegistrationNumber)

	_, err = svc.AddVehicle(ctx, client.ID, domain.VehicleInput{RegistrationNumber: "JK01AB1234"})
	assert.ErrorIs(t, err, domain.ErrVehicleExists)

	_, err = svc.AddVehicle(ctx, client.ID, domain.VehicleInput{RegistrationNumber: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidRegistrationNumber)

	_, err = svc.AddVehicle(ctx, 12345, domain.VehicleInput{RegistrationNumber: "JK02CD0001"})
	assert.ErrorIs(t, err, domain.ErrClientNotFound)

	found, err := svc.SearchClients(ctx, domain.ClientSearch{VehicleRegistration: "ab12"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, client.ID, found[0].ID)

	vehicles, err := svc.ListVehicles(ctx, []snowflake.ID{client.ID})
	require.NoError(t, err)
	require.Len(t, vehicles[client.ID], 1)
}
