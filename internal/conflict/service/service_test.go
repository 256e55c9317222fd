package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	affiliationrepo "github.com/smallbiznis/dealerhub/internal/affiliation/repository"
	affiliationsvc "github.com/smallbiznis/dealerhub/internal/affiliation/service"
	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/smallbiznis/dealerhub/internal/config"
	"github.com/smallbiznis/dealerhub/internal/conflict/domain"
	"github.com/smallbiznis/dealerhub/internal/conflict/repository"
	dealerrepo "github.com/smallbiznis/dealerhub/internal/dealer/repository"
	dealersvc "github.com/smallbiznis/dealerhub/internal/dealer/service"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
	identityrepo "github.com/smallbiznis/dealerhub/internal/identity/repository"
	identitysvc "github.com/smallbiznis/dealerhub/internal/identity/service"
	"github.com/smallbiznis/dealerhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	svc          *Service
	identity     identitydomain.Service
	affiliations affiliationdomain.Service
	node         *snowflake.Node
	db           *gorm.DB
	d1, d2, d3   snowflake.ID
}

func newHarness(t *testing.T, rules config.RegistryRules) harness {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.MustNode(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	holder := config.NewStaticRulesHolder(rules)
	log := zap.NewNop()

	dealers := dealersvc.New(dealersvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: dealerrepo.Provide()})
	identity := identitysvc.New(identitysvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Rules: holder, Repo: identityrepo.Provide()})
	affiliations := affiliationsvc.New(affiliationsvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: affiliationrepo.Provide()})

	h := harness{
		svc: New(Params{
			DB: db, Log: log, Rules: holder, Repo: repository.Provide(),
			Affiliations: affiliations, Dealers: dealers, Identity: identity,
		}).(*Service),
		identity:     identity,
		affiliations: affiliations,
		node:         node,
		db:           db,
		d1:           node.Generate(),
		d2:           node.Generate(),
		d3:           node.Generate(),
	}
	testutil.InsertDealer(t, db, h.d1, "Hilal Petroleum")
	testutil.InsertDealer(t, db, h.d2, "Bharat Fuel Services")
	testutil.InsertDealer(t, db, h.d3, "Alpine Fuels")
	return h
}

func TestCheckEmployeeConflict(t *testing.T) {
	h := newHarness(t, config.DefaultRegistryRules())
	ctx := context.Background()

	person, err := h.identity.CreatePerson(ctx, identitydomain.PersonInput{NationalID: "123456789012", Name: "Asha Bhat"})
	require.NoError(t, err)

	none, err := h.svc.CheckEmployeeConflict(ctx, person.ID, h.d2)
	require.NoError(t, err)
	assert.Nil(t, none)

	joined := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	emp, err := h.affiliations.CreateEmployment(ctx, person.ID, h.d1, joined)
	require.NoError(t, err)

	same, err := h.svc.CheckEmployeeConflict(ctx, person.ID, h.d1)
	require.NoError(t, err)
	assert.Nil(t, same)

	c, err := h.svc.CheckEmployeeConflict(ctx, person.ID, h.d2)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, domain.CodeEmployeeActiveElsewhere, c.Code)
	assert.Equal(t, "Hilal Petroleum", c.DealerName)
	assert.Equal(t, emp.ID, c.AffiliationID)
	assert.True(t, c.Since.Equal(joined))

	_, err = h.svc.CheckEmployeeConflict(ctx, person.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidDealer)
}

func TestCheckClientConflict(t *testing.T) {
	h := newHarness(t, config.DefaultRegistryRules())
	ctx := context.Background()

	client, err := h.identity.CreateClient(ctx, identitydomain.ClientInput{ClientType: identitydomain.ClientTypePrivate, TaxID: "ABCTY1234D", Name: "ABC Trading Corp"})
	require.NoError(t, err)
	_, err = h.affiliations.CreateClientLink(ctx, client.ID, h.d1, time.Time{})
	require.NoError(t, err)

	c, err := h.svc.CheckClientConflict(ctx, client.ID, h.d2)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, domain.CodeClientActiveElsewhere, c.Code)
	assert.Equal(t, "Hilal Petroleum", c.DealerName)

	wrapped := domain.NewError(*c)
	got, ok := domain.AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Client is already active with another dealer", got.Conflict.Message())
}

func TestFindSimilarClientsMatchesOtherDealersByNameSubstring(t *testing.T) {
	h := newHarness(t, config.DefaultRegistryRules())
	ctx := context.Background()

	client, err := h.identity.CreateClient(ctx, identitydomain.ClientInput{ClientType: identitydomain.ClientTypePrivate, TaxID: "ABCTY1234D", Name: "ABC Trading Corp"})
	require.NoError(t, err)
	_, err = h.affiliations.CreateClientLink(ctx, client.ID, h.d1, time.Time{})
	require.NoError(t, err)

	matches, err := h.svc.FindSimilarClients(ctx, domain.SimilarQuery{Name: "abc", ExcludeDealerID: h.d2})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, client.ID, matches[0].Client.ID)
	assert.Equal(t, "Hilal Petroleum Pvt Ltd", matches[0].DealerName)
	assert.Equal(t, h.d1, matches[0].DealerID)

	own, err := h.svc.FindSimilarClients(ctx, domain.SimilarQuery{Name: "abc", ExcludeDealerID: h.d1})
	require.NoError(t, err)
	assert.Empty(t, own)

	byTax, err := h.svc.FindSimilarClients(ctx, domain.SimilarQuery{TaxID: "abcty1234d", ExcludeDealerID: h.d2})
	require.NoError(t, err)
	require.Len(t, byTax, 1)

	_, err = h.svc.FindSimilarClients(ctx, domain.SimilarQuery{Name: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidDealer)
}

func TestFindSimilarEmployeesIsOrFilteredAndLimited(t *testing.T) {
	rules := config.DefaultRegistryRules()
	rules.SimilarMatchLimit = 2
	h := newHarness(t, rules)
	ctx := context.Background()

	hire := func(nationalID, name, mobile string, dealer snowflake.ID) identitydomain.Person {
		p, err := h.identity.CreatePerson(ctx, identitydomain.PersonInput{NationalID: nationalID, Name: name, Mobile: mobile})
		require.NoError(t, err)
		_, err = h.affiliations.CreateEmployment(ctx, p.ID, dealer, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		return p
	}
	hire("100000000001", "Mohammad Yousuf", "", h.d1)
	hire("100000000002", "Yousuf Mir", "", h.d3)
	byMobile := hire("100000000003", "Zahid Lone", "9000000001", h.d1)
	hire("100000000004", "Yousuf Dar", "", h.d2)

	matches, err := h.svc.FindSimilarEmployees(ctx, domain.SimilarQuery{Name: "yousuf", Mobile: "9000000001", ExcludeDealerID: h.d2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, byMobile.ID, matches[0].Person.ID, "exact mobile hit ranks first")
	for _, m := range matches {
		assert.NotEqual(t, h.d2, m.DealerID)
		assert.NotEmpty(t, m.DealerName)
	}

	empty, err := h.svc.FindSimilarEmployees(ctx, domain.SimilarQuery{ExcludeDealerID: h.d2})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFindSimilarEmployeesKeepsOlderExactHitAheadOfNamePool(t *testing.T) {
	h := newHarness(t, config.DefaultRegistryRules())
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		p, err := h.identity.CreatePerson(ctx, identitydomain.PersonInput{
			NationalID: fmt.Sprintf("2000000%05d", i),
			Name:       fmt.Sprintf("Yousuf N%d", i),
		})
		require.NoError(t, err)
		_, err = h.affiliations.CreateEmployment(ctx, p.ID, h.d1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i))
		require.NoError(t, err)
	}
	zahid, err := h.identity.CreatePerson(ctx, identitydomain.PersonInput{NationalID: "300000000001", Name: "Zahid Lone", Mobile: "9000000001"})
	require.NoError(t, err)
	_, err = h.affiliations.CreateEmployment(ctx, zahid.ID, h.d3, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	matches, err := h.svc.FindSimilarEmployees(ctx, domain.SimilarQuery{Name: "yousuf", Mobile: "9000000001", ExcludeDealerID: h.d2})
	require.NoError(t, err)
	require.Len(t, matches, 5)
	assert.Equal(t, zahid.ID, matches[0].Person.ID)
	assert.Equal(t, h.d3, matches[0].DealerID)
}

func TestFindSimilarEmployeesCountsEachPersonOnce(t *testing.T) {
	rules := config.DefaultRegistryRules()
	rules.SimilarMatchLimit = 2
	h := newHarness(t, rules)
	ctx := context.Background()

	rehired, err := h.identity.CreatePerson(ctx, identitydomain.PersonInput{NationalID: "400000000001", Name: "Yousuf Khan"})
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		joined := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i*7)
		require.NoError(t, h.db.Exec(
			`INSERT INTO employments (id, person_id, dealer_id, date_of_joining, date_of_resignation, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 'INACTIVE', ?, ?)`,
			h.node.Generate(), rehired.ID, h.d1, joined, joined.AddDate(0, 0, 5), joined, joined,
		).Error)
	}
	older, err := h.identity.CreatePerson(ctx, identitydomain.PersonInput{NationalID: "400000000002", Name: "Yousuf Mir"})
	require.NoError(t, err)
	_, err = h.affiliations.CreateEmployment(ctx, older.ID, h.d3, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	matches, err := h.svc.FindSimilarEmployees(ctx, domain.SimilarQuery{Name: "yousuf", ExcludeDealerID: h.d2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	ids := []snowflake.ID{matches[0].Person.ID, matches[1].Person.ID}
	assert.ElementsMatch(t, []snowflake.ID{rehired.ID, older.ID}, ids)

	for _, m := range matches {
		if m.Person.ID == rehired.ID {
			assert.True(t, m.DateOfJoining.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 24*7)))
		}
	}
}

func TestFindSimilarClientsKeepsOlderTaxIDHitAheadOfNamePool(t *testing.T) {
	rules := config.DefaultRegistryRules()
	rules.SimilarMatchLimit = 1
	h := newHarness(t, rules)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		c, err := h.identity.CreateClient(ctx, identitydomain.ClientInput{
			ClientType: identitydomain.ClientTypePrivate,
			TaxID:      fmt.Sprintf("ABCDE%04dF", i),
			Name:       fmt.Sprintf("ABC Fuels %d", i),
		})
		require.NoError(t, err)
		_, err = h.affiliations.CreateClientLink(ctx, c.ID, h.d1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i))
		require.NoError(t, err)
	}
	zed, err := h.identity.CreateClient(ctx, identitydomain.ClientInput{ClientType: identitydomain.ClientTypePrivate, TaxID: "ZEDTR1234Q", Name: "Zed Traders"})
	require.NoError(t, err)
	_, err = h.affiliations.CreateClientLink(ctx, zed.ID, h.d3, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	matches, err := h.svc.FindSimilarClients(ctx, domain.SimilarQuery{Name: "abc", TaxID: "zedtr1234q", ExcludeDealerID: h.d2})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, zed.ID, matches[0].Client.ID)
}

func TestFindSimilarEmployeesIncludesInactiveEmployments(t *testing.T) {
	h := newHarness(t, config.DefaultRegistryRules())
	ctx := context.Background()

	p, err := h.identity.CreatePerson(ctx, identitydomain.PersonInput{NationalID: "123456789012", Name: "Asha Bhat"})
	require.NoError(t, err)
	emp, err := h.affiliations.CreateEmployment(ctx, p.ID, h.d1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = h.affiliations.EndEmployment(ctx, emp.ID, affiliationdomain.EndEmploymentRequest{
		SeparationDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		SeparationType: affiliationdomain.SeparationResigned,
		Remarks:        "left",
		Actor:          "ADMIN",
	})
	require.NoError(t, err)

	matches, err := h.svc.FindSimilarEmployees(ctx, domain.SimilarQuery{Name: "asha", ExcludeDealerID: h.d2})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, affiliationdomain.StatusInactive, matches[0].Status)
}

func TestRankOrder(t *testing.T) {
	names := []string{"Yousuf Mir", "Zahid Lone", "Yousuf"}
	order := rankOrder("yousuf", names, []bool{false, true, false})
	assert.Equal(t, []int{1, 2, 0}, order)
}
