package service

import (
	"context"
	"errors"
	"testing"

	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSubscriptionRemote struct {
	sub   domain.Subscription
	err   error
	calls int
}

func (m *mockSubscriptionRemote) GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error) {
	m.calls++
	return m.sub, m.err
}

func TestEnsureSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("local subscription is used as is", func(t *testing.T) {
		w := baseTime
		store := newMemStore(testSubscription(&w))
		remote := &mockSubscriptionRemote{}

		sub, err := EnsureSubscription(ctx, store, remote, "room1")
		require.NoError(t, err)
		assert.Equal(t, "sub1", sub.Id)
		assert.True(t, sub.Synced())
		assert.Equal(t, 0, remote.calls)
	})

	t.Run("missing subscription is fetched and stored", func(t *testing.T) {
		store := newMemStore()
		remote := &mockSubscriptionRemote{sub: testSubscription(nil)}

		sub, err := EnsureSubscription(ctx, store, remote, "room1")
		require.NoError(t, err)
		assert.Equal(t, "sub1", sub.Id)
		assert.False(t, sub.Synced())
		assert.Equal(t, "sub1", store.subscription("room1").Id)

		_, err = EnsureSubscription(ctx, store, remote, "room1")
		require.NoError(t, err)
		assert.Equal(t, 1, remote.calls)
	})

	t.Run("remote error", func(t *testing.T) {
		store := newMemStore()
		remote := &mockSubscriptionRemote{err: &internal_errors.ErrorWithStatusCode{Message: "nope", StatusCode: 404}}

		_, err := EnsureSubscription(ctx, store, remote, "room1")
		require.Error(t, err)
		assert.Equal(t, 404, internal_errors.StatusCode(err))
	})
}

type mockEmojiSource struct {
	emojis []domain.CustomEmoji
	err    error
}

func (m *mockEmojiSource) ListCustomEmoji(ctx context.Context) ([]domain.CustomEmoji, error) {
	return m.emojis, m.err
}

func TestEmojiCatalog(t *testing.T) {
	source := &mockEmojiSource{emojis: []domain.CustomEmoji{
		{Name: "parrot", Aliases: []string{"party"}, Extension: "gif"},
		{Name: "party", Extension: "png"},
		{Name: "cat", Aliases: []string{"kitty"}, Extension: "png"},
	}}
	catalog := NewEmojiCatalog(source)

	_, ok := catalog.Lookup("parrot")
	assert.False(t, ok, "empty before refresh")

	require.NoError(t, catalog.Refresh(context.Background()))
	assert.Equal(t, 4, catalog.Len())

	e, ok := catalog.Lookup("kitty")
	require.True(t, ok)
	assert.Equal(t, "cat", e.Name)

	e, ok = catalog.Lookup("party")
	require.True(t, ok)
	assert.Equal(t, "png", e.Extension, "a name shadows an alias")

	source.err = errors.New("offline")
	require.Error(t, catalog.Refresh(context.Background()))
	_, ok = catalog.Lookup("parrot")
	assert.True(t, ok, "failed refresh keeps the previous catalog")
}
