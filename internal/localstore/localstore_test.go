package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "slots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_GetMissingKey(t *testing.T) {
	// given
	store := openTestStore(t)

	// when
	value, found, err := store.Get(context.Background(), "monthlyBudget_nobody")

	// then
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestStore_SetOverwritesAndDeletes(t *testing.T) {
	// given
	ctx := context.Background()
	store := openTestStore(t)

	// when
	require.NoError(t, store.Set(ctx, "monthlyBudget_u1", "1000"))
	require.NoError(t, store.Set(ctx, "monthlyBudget_u1", "2500.50"))
	require.NoError(t, store.Set(ctx, "monthlyBudget_u2", "10"))

	// then
	value, found, err := store.Get(ctx, "monthlyBudget_u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2500.50", value)

	require.NoError(t, store.Delete(ctx, "monthlyBudget_u1"))
	_, found, err = store.Get(ctx, "monthlyBudget_u1")
	require.NoError(t, err)
	assert.False(t, found)

	value, _, _ = store.Get(ctx, "monthlyBudget_u2")
	assert.Equal(t, "10", value)
}

func TestOpen_ReopensExistingFile(t *testing.T) {
	// given
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slots.db")
	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", "v"))
	require.NoError(t, first.Close())

	// when
	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	// then
	value, found, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}
