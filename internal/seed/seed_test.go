package seed_test

import (
	"testing"

	"github.com/smallbiznis/dealerhub/internal/seed"
	"github.com/smallbiznis/dealerhub/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestEnsureDemoDealersIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	node := testutil.MustNode(t)

	created, err := seed.EnsureDemoDealers(db, node)
	require.NoError(t, err)
	require.Equal(t, 2, created)

	created, err = seed.EnsureDemoDealers(db, node)
	require.NoError(t, err)
	require.Zero(t, created)

	var count int64
	require.NoError(t, db.Table("dealers").Count(&count).Error)
	require.EqualValues(t, 2, count)
}
