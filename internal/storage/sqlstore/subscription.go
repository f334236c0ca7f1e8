package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
)

const subscriptionColumns = `id, room_id, name, fname, type, unread, user_mentions, alert, is_open,
	archived, last_open, last_thread_sync, draft_message, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (domain.Subscription, error) {
	var (
		sub                domain.Subscription
		lastOpen, lastSync sql.NullInt64
		updatedAt          int64
	)
	err := row.Scan(&sub.Id, &sub.RoomId, &sub.Name, &sub.Fname, &sub.Type, &sub.Unread, &sub.UserMentions,
		&sub.Alert, &sub.Open, &sub.Archived, &lastOpen, &lastSync, &sub.DraftMessage, &updatedAt)
	if err != nil {
		return domain.Subscription{}, err
	}
	sub.LastOpen = fromNullNanos(lastOpen)
	sub.LastThreadSync = fromNullNanos(lastSync)
	sub.UpdatedAt = fromNanos(updatedAt)
	return sub, nil
}

func (s *Store) GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE room_id = ?`), rid)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subscription{}, internal_errors.ErrNotFound
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}

// UpsertSubscription stores the server view of a subscription. The local
// watermark and draft are never overwritten.
func (s *Store) UpsertSubscription(ctx context.Context, sub domain.Subscription) error {
	query := s.rebind(`
		INSERT INTO subscriptions (id, room_id, name, fname, type, unread, user_mentions, alert, is_open,
			archived, last_open, last_thread_sync, draft_message, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			room_id = excluded.room_id,
			name = excluded.name,
			fname = excluded.fname,
			type = excluded.type,
			unread = excluded.unread,
			user_mentions = excluded.user_mentions,
			alert = excluded.alert,
			is_open = excluded.is_open,
			archived = excluded.archived,
			last_open = excluded.last_open,
			updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, query,
		sub.Id, sub.RoomId, sub.Name, sub.Fname, sub.Type, sub.Unread, sub.UserMentions, sub.Alert, sub.Open,
		sub.Archived, nullNanos(sub.LastOpen), nullNanos(sub.LastThreadSync), sub.DraftMessage, toNanos(sub.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	s.notifySubscription(ctx, sub.RoomId)
	return nil
}

// SaveDraft stores the composer text of a room, or of thread tmid when it
// is not empty.
func (s *Store) SaveDraft(ctx context.Context, subID domain.SubscriptionId, tmid domain.ThreadId, text string) error {
	var (
		res sql.Result
		err error
	)
	if tmid != "" {
		res, err = s.db.ExecContext(ctx, s.rebind(`UPDATE threads SET draft_message = ? WHERE id = ?`), text, tmid)
	} else {
		res, err = s.db.ExecContext(ctx, s.rebind(`UPDATE subscriptions SET draft_message = ? WHERE id = ?`), text, subID)
	}
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	if n == 0 {
		return internal_errors.ErrNotFound
	}
	if tmid != "" {
		s.notifyThreads(ctx, subID)
	} else if rid, err := s.roomOf(ctx, subID); err == nil {
		s.notifySubscription(ctx, rid)
	}
	return nil
}

func (s *Store) roomOf(ctx context.Context, subID domain.SubscriptionId) (domain.RoomId, error) {
	var rid domain.RoomId
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT room_id FROM subscriptions WHERE id = ?`), subID).Scan(&rid)
	return rid, err
}
