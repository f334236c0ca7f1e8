package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
)

type SubscriptionRemote interface {
	GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error)
}

type SubscriptionStore interface {
	GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error)
	UpsertSubscription(ctx context.Context, sub domain.Subscription) error
}

// EnsureSubscription returns the local subscription of a room, fetching and
// storing it first when the room was never opened here.
func EnsureSubscription(ctx context.Context, store SubscriptionStore, remote SubscriptionRemote, rid domain.RoomId) (domain.Subscription, error) {
	sub, err := store.GetSubscription(ctx, rid)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, internal_errors.ErrNotFound) {
		return domain.Subscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}

	sub, err = remote.GetSubscription(ctx, rid)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	if err := store.UpsertSubscription(ctx, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("failed to store subscription: %w", err)
	}
	return store.GetSubscription(ctx, rid)
}
