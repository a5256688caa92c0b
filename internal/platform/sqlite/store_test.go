package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syh52/lexicon-srs/internal/platform/sqlite"
	"github.com/syh52/lexicon-srs/internal/store"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewStore(db, nil)
}

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "session:abc", []byte(`{"n":1}`)))

	value, err := s.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"n":1}`), value)
}

func TestSetOverwrites(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("one")))
	require.NoError(t, s.Set(ctx, "k", []byte("two")))

	value, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), value)
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	_, err := s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Remove(ctx, "k"))
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, s.Remove(ctx, "k"), "removing an absent key is fine")
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "engine.db")
	ctx := context.Background()

	db, err := sqlite.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, sqlite.NewStore(db, nil).Set(ctx, "k", []byte("v")))
	require.NoError(t, db.Close())

	db, err = sqlite.Open(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	value, err := sqlite.NewStore(db, nil).Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}
