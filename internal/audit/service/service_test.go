package service

import (
	"context"
	"testing"
	"time"

	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	"github.com/smallbiznis/dealerhub/internal/audit/repository"
	"github.com/smallbiznis/dealerhub/internal/clock"
	obscontext "github.com/smallbiznis/dealerhub/internal/observability/context"
	"github.com/smallbiznis/dealerhub/internal/testutil"
	"github.com/smallbiznis/dealerhub/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (*Service, *clock.FakeClock) {
	t.Helper()
	db := testutil.NewDB(t)
	fc := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB: db, Log: zap.NewNop(), GenID: testutil.MustNode(t), Clock: fc, Repo: repository.Provide(),
	}).(*Service)
	return svc, fc
}

func TestRecordStoresActorVerbatimAndMasksIdentity(t *testing.T) {
	svc, _ := newService(t)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")

	err := svc.Record(ctx, "DEALER:Hilal Petroleum", auditdomain.ActionCreate, auditdomain.EntityEmployment, "42", map[string]any{
		"nationalId": "123456789012",
		"dealerId":   "7",
	})
	require.NoError(t, err)

	resp, err := svc.Query(context.Background(), auditdomain.QueryRequest{Entity: "employment", EntityID: "42"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	entry := resp.AuditLogs[0]
	assert.Equal(t, "DEALER:Hilal Petroleum", entry.Actor)
	assert.Equal(t, auditdomain.ActionCreate, entry.Action)
	assert.Equal(t, "****9012", entry.Metadata["nationalId"])
	assert.Equal(t, "7", entry.Metadata["dealerId"])
	assert.Equal(t, "req-1", entry.Metadata["requestId"])
}

func TestRecordRejectsUnknownVocabulary(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Record(ctx, "", auditdomain.ActionCreate, auditdomain.EntityDealer, "1", nil), auditdomain.ErrInvalidActor)
	assert.ErrorIs(t, svc.Record(ctx, "ADMIN", "DELETE", auditdomain.EntityDealer, "1", nil), auditdomain.ErrInvalidAction)
	assert.ErrorIs(t, svc.Record(ctx, "ADMIN", auditdomain.ActionCreate, "VEHICLE", "1", nil), auditdomain.ErrInvalidEntity)
	assert.ErrorIs(t, svc.Record(ctx, "ADMIN", auditdomain.ActionCreate, auditdomain.EntityDealer, " ", nil), auditdomain.ErrInvalidEntityID)
}

func TestQueryNewestFirstWithPagesAndCursor(t *testing.T) {
	svc, fc := newService(t)
	ctx := context.Background()

	ids := []string{"1", "2", "3"}
	for _, id := range ids {
		fc.Advance(time.Second)
		require.NoError(t, svc.Record(ctx, "ADMIN", auditdomain.ActionUpdate, auditdomain.EntityDealer, id, nil))
	}
	require.NoError(t, svc.Record(ctx, "ADMIN", auditdomain.ActionApprove, auditdomain.EntityTransfer, "9", nil))

	first, err := svc.Query(ctx, auditdomain.QueryRequest{Entity: "DEALER", Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.Equal(t, "3", first.AuditLogs[0].EntityID)
	assert.Equal(t, "2", first.AuditLogs[1].EntityID)
	assert.True(t, first.HasMore)

	second, err := svc.Query(ctx, auditdomain.QueryRequest{Entity: "DEALER", Pagination: pagination.Pagination{PageSize: 2, Page: 2}})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.Equal(t, "1", second.AuditLogs[0].EntityID)
	assert.False(t, second.HasMore)

	byCursor, err := svc.Query(ctx, auditdomain.QueryRequest{Entity: "DEALER", Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, byCursor.AuditLogs, 1)
	assert.Equal(t, "1", byCursor.AuditLogs[0].EntityID)

	all, err := svc.Query(ctx, auditdomain.QueryRequest{})
	require.NoError(t, err)
	assert.Len(t, all.AuditLogs, 4)

	_, err = svc.Query(ctx, auditdomain.QueryRequest{Entity: "VEHICLE"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidEntity)
	_, err = svc.Query(ctx, auditdomain.QueryRequest{Pagination: pagination.Pagination{PageToken: "nope"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
