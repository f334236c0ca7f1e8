// Package sqlstore is the local record store on top of database/sql. The
// sqlite and pg packages open a connection and hand it to New.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/itchan-dev/roomkit/shared/logger"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	hub     *hub
	log     *slog.Logger
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		hub:     newHub(),
		log:     logger.Component("sqlstore").With("dialect", dialect.String()),
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Cleanup() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id               TEXT PRIMARY KEY,
		room_id          TEXT NOT NULL UNIQUE,
		name             TEXT NOT NULL,
		fname            TEXT NOT NULL DEFAULT '',
		type             TEXT NOT NULL DEFAULT '',
		unread           INTEGER NOT NULL DEFAULT 0,
		user_mentions    INTEGER NOT NULL DEFAULT 0,
		alert            BOOLEAN NOT NULL DEFAULT FALSE,
		is_open          BOOLEAN NOT NULL DEFAULT FALSE,
		archived         BOOLEAN NOT NULL DEFAULT FALSE,
		last_open        BIGINT,
		last_thread_sync BIGINT,
		draft_message    TEXT NOT NULL DEFAULT '',
		updated_at       BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS threads (
		id              TEXT PRIMARY KEY,
		subscription_id TEXT NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
		room_id         TEXT NOT NULL,
		msg             TEXT NOT NULL DEFAULT '',
		attachments     TEXT NOT NULL DEFAULT '[]',
		author_id       TEXT NOT NULL DEFAULT '',
		author_username TEXT NOT NULL DEFAULT '',
		author_name     TEXT NOT NULL DEFAULT '',
		alias           TEXT NOT NULL DEFAULT '',
		ts              BIGINT NOT NULL,
		updated_at      BIGINT NOT NULL,
		edited_at       BIGINT,
		tlm             BIGINT,
		tcount          INTEGER NOT NULL DEFAULT 0,
		draft_message   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS threads_subscription_ts_idx ON threads (subscription_id, ts)`,
}

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the numbered form postgres expects.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Timestamps are stored as unix nanoseconds so both drivers round-trip
// them without zone or precision surprises.

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64).UTC()
	return &t
}
