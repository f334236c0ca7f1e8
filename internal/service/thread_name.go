package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
)

// MessageFetcher fetches a single message from the server.
type MessageFetcher interface {
	GetSingleMessage(ctx context.Context, id domain.ThreadId) (domain.ThreadSummary, error)
}

// ThreadNameStore is what ResolveThreadName needs from the local store.
type ThreadNameStore interface {
	GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadRecord, error)
	Apply(ctx context.Context, ops []domain.BatchOp) error
}

// ResolveThreadName returns the title of thread tmid: the text of its root
// message, or its first attachment title. A thread missing locally is
// fetched from the server and stored in one batch.
func ResolveThreadName(ctx context.Context, store ThreadNameStore, remote MessageFetcher, rid domain.RoomId, tmid domain.ThreadId) (string, error) {
	rec, err := store.GetThread(ctx, tmid)
	if err == nil {
		return rec.Title(), nil
	}
	if !errors.Is(err, internal_errors.ErrNotFound) {
		return "", fmt.Errorf("failed to get thread: %w", err)
	}

	msg, err := remote.GetSingleMessage(ctx, tmid)
	if err != nil {
		return "", fmt.Errorf("failed to fetch thread message: %w", err)
	}
	sub, err := store.GetSubscription(ctx, rid)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}

	op := domain.BatchOp{
		Kind:   domain.OpCreate,
		Thread: domain.ThreadRecord{ThreadSummary: msg, SubscriptionId: sub.Id},
	}
	if err := store.Apply(ctx, []domain.BatchOp{op}); err != nil {
		return "", fmt.Errorf("failed to store thread: %w", err)
	}
	return msg.Title(), nil
}
