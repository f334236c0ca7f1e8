package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "roomkit.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Cleanup() })

	_, err = os.Stat(path)
	require.NoError(t, err)

	var fk int
	require.NoError(t, store.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, store.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roomkit.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.UpsertSubscription(ctx, domain.Subscription{Id: "sub1", RoomId: "room1", Name: "general"}))
	require.NoError(t, store.Cleanup())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Cleanup() })

	sub, err := store.GetSubscription(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, "general", sub.Name)
}
