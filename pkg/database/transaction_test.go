package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/internal/dbtest"
	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
)

func countBrands(t *testing.T, ctx context.Context, db database.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Executor(ctx).GetContext(ctx, &n, "SELECT COUNT(*) FROM brands"))
	return n
}

func insertBrand(t *testing.T, ctx context.Context, db database.DB, id string) {
	t.Helper()
	_, err := db.Executor(ctx).ExecContext(ctx,
		"INSERT INTO brands (id, name, slug, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)", id, id, id)
	require.NoError(t, err)
}

func TestGetTx_CommitAndRollback(t *testing.T) {
	db := dbtest.New(t)

	ctx, tx, err := db.GetTx(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, tx.IsOwner())
	insertBrand(t, ctx, db, "a")
	require.NoError(t, tx.Rollback(ctx))
	assert.False(t, tx.IsOpen())
	assert.Equal(t, 0, countBrands(t, context.Background(), db))

	ctx, tx, err = db.GetTx(context.Background(), nil)
	require.NoError(t, err)
	insertBrand(t, ctx, db, "b")
	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, 1, countBrands(t, context.Background(), db))

	// closed transactions are no longer picked up from the context
	_, ok := database.TxFromContext(ctx)
	assert.False(t, ok)
}

func TestGetTx_JoinsOpenTransaction(t *testing.T) {
	db := dbtest.New(t)

	ctx, outer, err := db.GetTx(context.Background(), nil)
	require.NoError(t, err)

	innerCtx, inner, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	assert.False(t, inner.IsOwner())

	insertBrand(t, innerCtx, db, "a")
	require.NoError(t, inner.Commit(innerCtx))
	assert.True(t, outer.IsOpen(), "joined handle must not end the transaction")

	require.NoError(t, outer.Rollback(ctx))
	assert.False(t, inner.IsOpen())
	assert.Equal(t, 0, countBrands(t, context.Background(), db))
}

func TestTransaction_Savepoints(t *testing.T) {
	db := dbtest.New(t)

	ctx, tx, err := db.GetTx(context.Background(), nil)
	require.NoError(t, err)

	insertBrand(t, ctx, db, "kept")

	require.NoError(t, tx.Savepoint(ctx, "listing_1"))
	insertBrand(t, ctx, db, "discarded")
	require.NoError(t, tx.RollbackToSavepoint(ctx, "listing_1"))
	require.NoError(t, tx.ReleaseSavepoint(ctx, "listing_1"))

	require.NoError(t, tx.Savepoint(ctx, "listing_2"))
	insertBrand(t, ctx, db, "released")
	require.NoError(t, tx.ReleaseSavepoint(ctx, "listing_2"))

	require.NoError(t, tx.Commit(ctx))

	var ids []string
	require.NoError(t, db.SelectContext(context.Background(), &ids, "SELECT id FROM brands ORDER BY id"))
	assert.Equal(t, []string{"kept", "released"}, ids)
}

func TestTransaction_SavepointNameValidation(t *testing.T) {
	db := dbtest.New(t)

	ctx, tx, err := db.GetTx(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	assert.Error(t, tx.Savepoint(ctx, "listing-1; DROP TABLE brands"))
	assert.Error(t, tx.Savepoint(ctx, "1abc"))
	assert.NoError(t, tx.Savepoint(ctx, "_ok"))
}
