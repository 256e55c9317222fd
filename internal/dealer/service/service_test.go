package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/dealer/domain"
	"github.com/smallbiznis/dealerhub/internal/dealer/repository"
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
		Repo:  repository.Provide(),
	}).(*Service)
}

func TestCreateDealerAssignsCodeAndActiveStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, domain.CreateDealerRequest{
		LegalName:  "Hilal Enterprises Pvt Ltd",
		OutletName: "Hilal Petroleum",
		Location:   "Srinagar",
	})
	require.NoError(t, err)
	assert.Equal(t, "hilal-petroleum", d.Code)
	assert.Equal(t, domain.StatusActive, d.Status)

	again, err := svc.Create(ctx, domain.CreateDealerRequest{
		LegalName:  "Hilal Two",
		OutletName: "Hilal Petroleum",
		Location:   "Baramulla",
	})
	require.NoError(t, err)
	assert.Equal(t, "hilal-petroleum-baramulla", again.Code)

	got, err := svc.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hilal Petroleum", got.DisplayName())
}

func TestCreateDealerValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateDealerRequest
		want error
	}{
		{"missing legal name", domain.CreateDealerRequest{OutletName: "A", Location: "B"}, domain.ErrInvalidLegalName},
		{"missing outlet", domain.CreateDealerRequest{LegalName: "A", Location: "B"}, domain.ErrInvalidOutletName},
		{"missing location", domain.CreateDealerRequest{LegalName: "A", OutletName: "B"}, domain.ErrInvalidLocation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateStatusAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, domain.CreateDealerRequest{LegalName: "Bharat Petroleum Dealers", OutletName: "Bharat Fuel Services", Location: "Anantnag"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateDealerRequest{LegalName: "Alpine Fuels", OutletName: "Alpine", Location: "Sopore"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, a.ID, "inactive")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, updated.Status)

	active, err := svc.List(ctx, domain.ListDealerRequest{Status: "ACTIVE"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Alpine Fuels", active[0].LegalName)

	all, err := svc.List(ctx, domain.ListDealerRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alpine Fuels", all[0].LegalName)

	_, err = svc.UpdateStatus(ctx, 42, domain.StatusActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, a.ID, "CLOSED")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestLookupSkipsUnknownIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, domain.CreateDealerRequest{LegalName: "L", OutletName: "O", Location: "X"})
	require.NoError(t, err)

	got, err := svc.Lookup(ctx, []snowflake.ID{d.ID, d.ID, 77})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "O", got[d.ID].OutletName)
}
