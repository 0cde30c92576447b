package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/squad-roster/internal/repository"
)

func openTempStore(t *testing.T, quota int) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.db")
	store, err := Open(path, quota)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", 0)
	assert.Error(t, err)
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := openTempStore(t, 0)

	_, err := store.Get(ctx, repository.KeyState)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Put(ctx, repository.KeyState, []byte("payload")))
	got, err := store.Get(ctx, repository.KeyState)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	require.NoError(t, store.Delete(ctx, repository.KeyState))
	_, err = store.Get(ctx, repository.KeyState)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Error(t, store.Put(ctx, "", []byte("x")))
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := openTempStore(t, 0)

	require.NoError(t, store.Put(ctx, repository.KeySavedSets, []byte("[]")))
	require.NoError(t, store.Close())

	reopened, err := Open(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, repository.KeySavedSets)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestStore_Quota(t *testing.T) {
	ctx := context.Background()
	store, _ := openTempStore(t, 3)

	err := store.Put(ctx, "k", []byte("1234"))
	assert.ErrorIs(t, err, repository.ErrQuotaExceeded)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store, _ := openTempStore(t, 0)

	assert.ErrorIs(t, store.Put(ctx, "k", []byte("v")), context.Canceled)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Delete(ctx, "k"), context.Canceled)
}
