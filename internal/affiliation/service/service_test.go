package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	"github.com/smallbiznis/dealerhub/internal/affiliation/repository"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc     *Service
	db      *gorm.DB
	clock   *clock.FakeClock
	d1, d2  snowflake.ID
	person  snowflake.ID
	client  snowflake.ID
	joining time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.MustNode(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	d1, d2, person, client := node.Generate(), node.Generate(), node.Generate(), node.Generate()
	testutil.InsertDealer(t, db, d1, "Hilal Petroleum")
	testutil.InsertDealer(t, db, d2, "Bharat Fuel Services")
	testutil.InsertPerson(t, db, person, "123456789012", "Asha Bhat")
	testutil.InsertPrivateClient(t, db, client, "ABCTY1234D", "ABC Trading Corp")

	svc := New(Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: fc, Repo: repository.Provide()}).(*Service)
	return fixture{
		svc: svc, db: db, clock: fc,
		d1: d1, d2: d2, person: person, client: client,
		joining: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateEmploymentEnforcesSingleActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	emp, err := f.svc.CreateEmployment(ctx, f.person, f.d1, f.joining)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, emp.Status)

	active, err := f.svc.GetActiveEmployment(ctx, f.person)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, emp.ID, active.ID)

	_, err = f.svc.CreateEmployment(ctx, f.person, f.d2, f.joining)
	assert.ErrorIs(t, err, domain.ErrActiveAffiliationExists)
	assert.EqualValues(t, 1, testutil.CountActive(t, f.db, "employments", "person_id", f.person))
}

func TestEndEmploymentIsAtomicAndGuarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	emp, err := f.svc.CreateEmployment(ctx, f.person, f.d1, f.joining)
	require.NoError(t, err)

	req := domain.EndEmploymentRequest{
		SeparationDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
		SeparationType: "resigned",
		Remarks:        "Moved to Jammu",
		Actor:          "DEALER:Hilal Petroleum",
	}
	event, err := f.svc.EndEmployment(ctx, emp.ID, req)
	require.NoError(t, err)
	assert.Equal(t, domain.SeparationResigned, event.SeparationType)

	ended, err := f.svc.GetEmployment(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, ended.Status)
	require.NotNil(t, ended.DateOfResignation)
	assert.True(t, ended.DateOfResignation.Equal(req.SeparationDate))

	_, err = f.svc.EndEmployment(ctx, emp.ID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var events int64
	require.NoError(t, f.db.Table("separation_events").Where("employment_id = ?", emp.ID).Count(&events).Error)
	assert.EqualValues(t, 1, events)

	rehired, err := f.svc.CreateEmployment(ctx, f.person, f.d2, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	history, err := f.svc.ListEmploymentsByPersons(ctx, []snowflake.ID{f.person})
	require.NoError(t, err)
	require.Len(t, history[f.person], 2)
	assert.Equal(t, rehired.ID, history[f.person][0].ID)
}

func TestEndEmploymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	emp, err := f.svc.CreateEmployment(ctx, f.person, f.d1, f.joining)
	require.NoError(t, err)

	valid := domain.EndEmploymentRequest{
		SeparationDate: f.joining.Add(24 * time.Hour),
		SeparationType: domain.SeparationConduct,
		Remarks:        "r",
		Actor:          "ADMIN",
	}

	cases := []struct {
		name   string
		id     snowflake.ID
		mutate func(*domain.EndEmploymentRequest)
		want   error
	}{
		{"unknown type", emp.ID, func(r *domain.EndEmploymentRequest) { r.SeparationType = "FIRED" }, domain.ErrInvalidSeparationType},
		{"missing remarks", emp.ID, func(r *domain.EndEmploymentRequest) { r.Remarks = " " }, domain.ErrInvalidRemarks},
		{"missing date", emp.ID, func(r *domain.EndEmploymentRequest) { r.SeparationDate = time.Time{} }, domain.ErrInvalidSeparationDate},
		{"before joining", emp.ID, func(r *domain.EndEmploymentRequest) { r.SeparationDate = f.joining.Add(-time.Hour) }, domain.ErrInvalidSeparationDate},
		{"missing employment", 987654321, func(*domain.EndEmploymentRequest) {}, domain.ErrEmploymentNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			_, err := f.svc.EndEmployment(ctx, tc.id, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	still, err := f.svc.GetActiveEmployment(ctx, f.person)
	require.NoError(t, err)
	require.NotNil(t, still)
}

func TestClientLinkLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.svc.CreateClientLink(ctx, f.client, f.d1, time.Time{})
	require.NoError(t, err)
	assert.True(t, link.DateOfOnboarding.Equal(f.clock.Now()))

	_, err = f.svc.CreateClientLink(ctx, f.client, f.d2, f.clock.Now())
	assert.ErrorIs(t, err, domain.ErrActiveAffiliationExists)

	f.clock.Advance(time.Hour)
	closed, err := f.svc.DeactivateClientLink(ctx, link.ID, "TERMINATED")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, closed.Status)
	require.NotNil(t, closed.OffboardingReason)
	assert.Equal(t, "TERMINATED", *closed.OffboardingReason)

	_, err = f.svc.DeactivateClientLink(ctx, link.ID, "TERMINATED")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.DeactivateClientLink(ctx, 42, "TERMINATED")
	assert.ErrorIs(t, err, domain.ErrClientLinkNotFound)

	active, err := f.svc.GetActiveClientLink(ctx, f.client)
	require.NoError(t, err)
	assert.Nil(t, active)

	moved, err := f.svc.CreateClientLink(ctx, f.client, f.d2, f.clock.Now())
	require.NoError(t, err)

	byClient, err := f.svc.ActiveClientLinks(ctx, []snowflake.ID{f.client})
	require.NoError(t, err)
	assert.Equal(t, moved.ID, byClient[f.client].ID)

	d1Links, err := f.svc.ListClientLinksByDealer(ctx, f.d1, "")
	require.NoError(t, err)
	require.Len(t, d1Links, 1)
	d1Active, err := f.svc.ListClientLinksByDealer(ctx, f.d1, domain.StatusActive)
	require.NoError(t, err)
	assert.Empty(t, d1Active)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, domain.StatusActive.CanTransitionTo(domain.StatusInactive))
	assert.False(t, domain.StatusInactive.CanTransitionTo(domain.StatusActive))
	assert.False(t, domain.StatusInactive.CanTransitionTo(domain.StatusInactive))
}
