package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
	"github.com/itchan-dev/roomkit/shared/logger"
)

// SessionStore is the local store with live change notification.
type SessionStore interface {
	GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadRecord, error)
	ListThreads(ctx context.Context, subID domain.SubscriptionId) ([]domain.ThreadRecord, error)
	ObserveSubscription(rid domain.RoomId, fn func(domain.Subscription)) (unsubscribe func())
	ObserveThreads(subID domain.SubscriptionId, fn func([]domain.ThreadRecord)) (unsubscribe func())
	SaveDraft(ctx context.Context, subID domain.SubscriptionId, tmid domain.ThreadId, text string) error
}

// Syncer runs thread sync passes for a room.
type Syncer interface {
	Init(ctx context.Context, rid domain.RoomId) (SyncResult, error)
	LoadMore(ctx context.Context, rid domain.RoomId) (SyncResult, error)
}

var ErrSessionClosed = errors.New("room session closed")

// RoomSession is the state of one open room or thread view. It follows the
// store through observers while open. Results that arrive after Close are
// dropped.
type RoomSession struct {
	rid    domain.RoomId
	tmid   domain.ThreadId
	store  SessionStore
	syncer Syncer
	log    *slog.Logger

	mu          sync.Mutex
	opened      bool
	closed      bool
	sub         domain.Subscription
	threads     []domain.ThreadRecord
	end         bool
	draft       string
	unsubscribe []func()
}

// NewRoomSession creates a session for room rid, or for thread tmid of
// that room when tmid is not empty.
func NewRoomSession(rid domain.RoomId, tmid domain.ThreadId, store SessionStore, syncer Syncer) *RoomSession {
	return &RoomSession{
		rid:    rid,
		tmid:   tmid,
		store:  store,
		syncer: syncer,
		log:    logger.Component("room_session").With("room_id", rid),
	}
}

// Open loads the subscription, starts observing it and its threads and runs
// the initial sync pass.
func (s *RoomSession) Open(ctx context.Context) error {
	sub, err := s.store.GetSubscription(ctx, s.rid)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	threads, err := s.store.ListThreads(ctx, sub.Id)
	if err != nil {
		return fmt.Errorf("failed to list threads: %w", err)
	}
	draft := sub.DraftMessage
	if s.tmid != "" {
		rec, err := s.store.GetThread(ctx, s.tmid)
		switch {
		case err == nil:
			draft = rec.DraftMessage
		case errors.Is(err, internal_errors.ErrNotFound):
			draft = ""
		default:
			return fmt.Errorf("failed to get thread: %w", err)
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.opened = true
	s.sub = sub
	s.threads = threads
	s.draft = draft
	s.mu.Unlock()

	unsubSub := s.store.ObserveSubscription(s.rid, s.onSubscription)
	unsubThreads := s.store.ObserveThreads(sub.Id, s.onThreads)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsubSub()
		unsubThreads()
		return ErrSessionClosed
	}
	s.unsubscribe = append(s.unsubscribe, unsubSub, unsubThreads)
	s.mu.Unlock()

	res, err := s.syncer.Init(ctx, s.rid)
	if err != nil {
		s.abort()
		return fmt.Errorf("failed to sync threads: %w", err)
	}
	s.setResult(res)
	return nil
}

// abort closes a session whose Open failed. Nothing was edited yet, so the
// draft is not written back.
func (s *RoomSession) abort() {
	s.mu.Lock()
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
}

// LoadMore fetches the next page of threads unless the list is complete.
func (s *RoomSession) LoadMore(ctx context.Context) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	if s.End() {
		return nil
	}
	res, err := s.syncer.LoadMore(ctx, s.rid)
	if err != nil {
		return fmt.Errorf("failed to load threads: %w", err)
	}
	s.setResult(res)
	return nil
}

func (s *RoomSession) setResult(res SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("discarding sync result of closed session", "pass_id", res.PassId)
		return
	}
	if res.Mode == ModeLoad {
		s.end = res.End
	}
}

func (s *RoomSession) onSubscription(sub domain.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.sub = sub
}

func (s *RoomSession) onThreads(threads []domain.ThreadRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.threads = threads
}

// SetDraft records the composer text. It is persisted on Close.
func (s *RoomSession) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Close stops observing the store and persists the draft of the room, or of
// the thread for thread sessions. Closing twice is a no-op.
func (s *RoomSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	opened := s.opened
	subID, draft := s.sub.Id, s.draft
	s.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	if !opened {
		return nil
	}
	if err := s.store.SaveDraft(ctx, subID, s.tmid, draft); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *RoomSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *RoomSession) End() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end
}

func (s *RoomSession) Subscription() domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

// Threads returns the thread records as last reported by the store.
func (s *RoomSession) Threads() []domain.ThreadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ThreadRecord, len(s.threads))
	copy(out, s.threads)
	return out
}

func (s *RoomSession) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}
