package service

import (
	"context"
	"testing"
	"time"

	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	affiliationrepo "github.com/smallbiznis/dealerhub/internal/affiliation/repository"
	affiliationsvc "github.com/smallbiznis/dealerhub/internal/affiliation/service"
	"github.com/smallbiznis/dealerhub/internal/cache"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	"github.com/smallbiznis/dealerhub/internal/dashboard/domain"
	"github.com/smallbiznis/dealerhub/internal/dashboard/repository"
	"github.com/smallbiznis/dealerhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComputeHomeMetricsCountsAndCaches(t *testing.T) {
	db := testutil.NewDB(t)
	node := testutil.MustNode(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	ctx := context.Background()

	affiliations := affiliationsvc.New(affiliationsvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: affiliationrepo.Provide()})
	svc := New(Params{
		DB: db, Log: log, Clock: fc,
		Config: config.Config{MetricsCacheTTL: 30 * time.Second},
		Repo:   repository.Provide(),
		Cache:  cache.NewTTLCache[string, domain.HomeMetrics](fc),
	})

	d1, d2 := node.Generate(), node.Generate()
	testutil.InsertDealer(t, db, d1, "Hilal Petroleum")
	testutil.InsertDealer(t, db, d2, "Bharat Fuel Services")

	p1, p2, c1 := node.Generate(), node.Generate(), node.Generate()
	testutil.InsertPerson(t, db, p1, "123456789012", "Asha Bhat")
	testutil.InsertPerson(t, db, p2, "210987654321", "Imran Dar")
	testutil.InsertPrivateClient(t, db, c1, "ABCTY1234D", "ABC Trading Corp")

	today := clock.StartOfDay(fc.Now())
	_, err := affiliations.CreateEmployment(ctx, p1, d1, today)
	require.NoError(t, err)
	old, err := affiliations.CreateEmployment(ctx, p2, d2, today.AddDate(0, -2, 0))
	require.NoError(t, err)
	_, err = affiliations.EndEmployment(ctx, old.ID, affiliationdomain.EndEmploymentRequest{
		SeparationDate: today,
		SeparationType: "RESIGNED",
		Remarks:        "Relocated",
		Actor:          "ADMIN",
	})
	require.NoError(t, err)
	_, err = affiliations.CreateClientLink(ctx, c1, d1, today)
	require.NoError(t, err)

	metrics, err := svc.ComputeHomeMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.HomeMetrics{
		ActiveDealers:     2,
		ActiveEmployees:   1,
		ActiveClients:     1,
		TodaysJoins:       1,
		TodaysSeparations: 1,
	}, metrics)

	_, err = affiliations.CreateEmployment(ctx, p2, d1, today)
	require.NoError(t, err)

	cached, err := svc.ComputeHomeMetrics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cached.ActiveEmployees)

	svc.Invalidate(ctx)
	fresh, err := svc.ComputeHomeMetrics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fresh.ActiveEmployees)
	assert.EqualValues(t, 2, fresh.TodaysJoins)

	fc.Advance(24 * time.Hour)
	tomorrow, err := svc.ComputeHomeMetrics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, tomorrow.TodaysJoins)
	assert.EqualValues(t, 0, tomorrow.TodaysSeparations)
	assert.EqualValues(t, 2, tomorrow.ActiveEmployees)
}

func TestComputeHomeMetricsExcludesRowsDatedTomorrow(t *testing.T) {
	db := testutil.NewDB(t)
	node := testutil.MustNode(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	ctx := context.Background()

	affiliations := affiliationsvc.New(affiliationsvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: affiliationrepo.Provide()})
	svc := New(Params{
		DB: db, Log: log, Clock: fc,
		Config: config.Config{MetricsCacheTTL: 30 * time.Second},
		Repo:   repository.Provide(),
		Cache:  cache.NewTTLCache[string, domain.HomeMetrics](fc),
	})

	d1 := node.Generate()
	testutil.InsertDealer(t, db, d1, "Hilal Petroleum")
	p1, p2, p3 := node.Generate(), node.Generate(), node.Generate()
	testutil.InsertPerson(t, db, p1, "123456789012", "Asha Bhat")
	testutil.InsertPerson(t, db, p2, "210987654321", "Imran Dar")
	testutil.InsertPerson(t, db, p3, "345678901234", "Zahid Lone")

	today := clock.StartOfDay(fc.Now())
	tomorrow := today.AddDate(0, 0, 1)
	_, err := affiliations.CreateEmployment(ctx, p1, d1, today.Add(23*time.Hour+59*time.Minute))
	require.NoError(t, err)
	_, err = affiliations.CreateEmployment(ctx, p2, d1, tomorrow)
	require.NoError(t, err)
	leaving, err := affiliations.CreateEmployment(ctx, p3, d1, today.AddDate(0, -1, 0))
	require.NoError(t, err)
	_, err = affiliations.EndEmployment(ctx, leaving.ID, affiliationdomain.EndEmploymentRequest{
		SeparationDate: tomorrow,
		SeparationType: "RESIGNED",
		Remarks:        "Notice served",
		Actor:          "ADMIN",
	})
	require.NoError(t, err)

	metrics, err := svc.ComputeHomeMetrics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, metrics.TodaysJoins)
	assert.EqualValues(t, 0, metrics.TodaysSeparations)
}
