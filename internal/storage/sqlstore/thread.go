package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
)

const threadColumns = `id, subscription_id, room_id, msg, attachments, author_id, author_username, author_name,
	alias, ts, updated_at, edited_at, tlm, tcount, draft_message`

func scanThread(row rowScanner) (domain.ThreadRecord, error) {
	var (
		rec               domain.ThreadRecord
		attachments       string
		ts, updatedAt     int64
		editedAt, lastMsg sql.NullInt64
	)
	err := row.Scan(&rec.Id, &rec.SubscriptionId, &rec.RoomId, &rec.Msg, &attachments,
		&rec.Author.Id, &rec.Author.Username, &rec.Author.Name, &rec.Alias,
		&ts, &updatedAt, &editedAt, &lastMsg, &rec.Tcount, &rec.DraftMessage)
	if err != nil {
		return domain.ThreadRecord{}, err
	}
	if err := json.Unmarshal([]byte(attachments), &rec.Attachments); err != nil {
		return domain.ThreadRecord{}, fmt.Errorf("failed to decode attachments of %s: %w", rec.Id, err)
	}
	if len(rec.Attachments) == 0 {
		rec.Attachments = nil
	}
	rec.Ts = fromNanos(ts)
	rec.UpdatedAt = fromNanos(updatedAt)
	rec.EditedAt = fromNullNanos(editedAt)
	rec.Tlm = fromNullNanos(lastMsg)
	return rec, nil
}

func (s *Store) GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+threadColumns+` FROM threads WHERE id = ?`), id)
	rec, err := scanThread(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ThreadRecord{}, internal_errors.ErrNotFound
	}
	if err != nil {
		return domain.ThreadRecord{}, fmt.Errorf("failed to get thread: %w", err)
	}
	return rec, nil
}

// ListThreads returns the thread records of a subscription, newest first.
func (s *Store) ListThreads(ctx context.Context, subID domain.SubscriptionId) ([]domain.ThreadRecord, error) {
	query := s.rebind(`SELECT ` + threadColumns + ` FROM threads WHERE subscription_id = ? ORDER BY ts DESC, id`)
	rows, err := s.db.QueryContext(ctx, query, subID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []domain.ThreadRecord
	for rows.Next() {
		rec, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate threads: %w", err)
	}
	return threads, nil
}

// Apply writes a batch in one transaction. Observers are notified after
// the commit, never for a batch that was rolled back.
func (s *Store) Apply(ctx context.Context, ops []domain.BatchOp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	touchedSubs := make(map[domain.SubscriptionId]struct{})
	watermarked := make(map[domain.SubscriptionId]struct{})
	for i, op := range ops {
		switch op.Kind {
		case domain.OpCreate, domain.OpUpdate:
			if err := s.upsertThread(ctx, tx, op.Thread); err != nil {
				return fmt.Errorf("failed to apply op %d (%s %s): %w", i, op.Kind, op.Thread.Id, err)
			}
			touchedSubs[op.Thread.SubscriptionId] = struct{}{}
		case domain.OpDelete:
			subID, err := s.deleteThread(ctx, tx, op.ThreadId)
			if err != nil {
				return fmt.Errorf("failed to apply op %d (%s %s): %w", i, op.Kind, op.ThreadId, err)
			}
			if subID != "" {
				touchedSubs[subID] = struct{}{}
			}
		case domain.OpWatermark:
			if err := s.advanceWatermark(ctx, tx, op); err != nil {
				return fmt.Errorf("failed to apply op %d (%s): %w", i, op.Kind, err)
			}
			watermarked[op.SubscriptionId] = struct{}{}
		default:
			return fmt.Errorf("failed to apply op %d: unknown kind %d", i, op.Kind)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for subID := range touchedSubs {
		s.notifyThreads(ctx, subID)
	}
	for subID := range watermarked {
		if rid, err := s.roomOf(ctx, subID); err == nil {
			s.notifySubscription(ctx, rid)
		}
	}
	return nil
}

// upsertThread never touches the draft of an existing record.
func (s *Store) upsertThread(ctx context.Context, tx *sql.Tx, rec domain.ThreadRecord) error {
	attachments := rec.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	encoded, err := json.Marshal(attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}

	query := s.rebind(`
		INSERT INTO threads (id, subscription_id, room_id, msg, attachments, author_id, author_username,
			author_name, alias, ts, updated_at, edited_at, tlm, tcount, draft_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			subscription_id = excluded.subscription_id,
			room_id = excluded.room_id,
			msg = excluded.msg,
			attachments = excluded.attachments,
			author_id = excluded.author_id,
			author_username = excluded.author_username,
			author_name = excluded.author_name,
			alias = excluded.alias,
			ts = excluded.ts,
			updated_at = excluded.updated_at,
			edited_at = excluded.edited_at,
			tlm = excluded.tlm,
			tcount = excluded.tcount`)
	_, err = tx.ExecContext(ctx, query,
		rec.Id, rec.SubscriptionId, rec.RoomId, rec.Msg, string(encoded),
		rec.Author.Id, rec.Author.Username, rec.Author.Name, rec.Alias,
		toNanos(rec.Ts), toNanos(rec.UpdatedAt), nullNanos(rec.EditedAt), nullNanos(rec.Tlm),
		rec.Tcount, rec.DraftMessage)
	return err
}

func (s *Store) deleteThread(ctx context.Context, tx *sql.Tx, id domain.ThreadId) (domain.SubscriptionId, error) {
	var subID domain.SubscriptionId
	err := tx.QueryRowContext(ctx, s.rebind(`SELECT subscription_id FROM threads WHERE id = ?`), id).Scan(&subID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM threads WHERE id = ?`), id); err != nil {
		return "", err
	}
	return subID, nil
}

// advanceWatermark moves last_thread_sync forward only.
func (s *Store) advanceWatermark(ctx context.Context, tx *sql.Tx, op domain.BatchOp) error {
	w := toNanos(op.Watermark)
	res, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE subscriptions SET last_thread_sync = ?
		WHERE id = ? AND (last_thread_sync IS NULL OR last_thread_sync < ?)`), w, op.SubscriptionId, w)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM subscriptions WHERE id = ?`), op.SubscriptionId).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return internal_errors.ErrNotFound
		}
		return err
	}
	return nil
}
