package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
)

// --- Mocks ---

// MockThreadRemote mocks the ThreadRemote and MessageFetcher interfaces.
type MockThreadRemote struct {
	listThreadsFunc      func(rid domain.RoomId, count, offset int) ([]domain.ThreadSummary, error)
	listPageFunc         func(rid domain.RoomId, count, offset int) (domain.ThreadPage, error)
	syncThreadsFunc      func(rid domain.RoomId, since time.Time) ([]domain.ThreadSummary, []domain.ThreadId, error)
	getSingleMessageFunc func(id domain.ThreadId) (domain.ThreadSummary, error)

	mu         sync.Mutex
	listCalls  int
	syncCalls  int
	fetchCalls int
	lastOffset int
	lastCount  int
	lastSince  time.Time
}

func (m *MockThreadRemote) ListThreads(ctx context.Context, rid domain.RoomId, count, offset int) (domain.ThreadPage, error) {
	m.mu.Lock()
	m.listCalls++
	m.lastCount = count
	m.lastOffset = offset
	m.mu.Unlock()

	if m.listPageFunc != nil {
		return m.listPageFunc(rid, count, offset)
	}
	if m.listThreadsFunc != nil {
		threads, err := m.listThreadsFunc(rid, count, offset)
		return domain.ThreadPage{Threads: threads, Count: len(threads)}, err
	}
	return domain.ThreadPage{}, nil
}

func (m *MockThreadRemote) SyncThreads(ctx context.Context, rid domain.RoomId, since time.Time) ([]domain.ThreadSummary, []domain.ThreadId, error) {
	m.mu.Lock()
	m.syncCalls++
	m.lastSince = since
	m.mu.Unlock()

	if m.syncThreadsFunc != nil {
		return m.syncThreadsFunc(rid, since)
	}
	return nil, nil, nil
}

func (m *MockThreadRemote) GetSingleMessage(ctx context.Context, id domain.ThreadId) (domain.ThreadSummary, error) {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()

	if m.getSingleMessageFunc != nil {
		return m.getSingleMessageFunc(id)
	}
	return domain.ThreadSummary{}, internal_errors.ErrNotFound
}

func (m *MockThreadRemote) calls() (list, sync, fetch int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.syncCalls, m.fetchCalls
}

// memStore is an in-memory local store. Apply is all-or-nothing and
// notifies observers after the batch is in place.
type memStore struct {
	mu      sync.Mutex
	subs    map[domain.RoomId]domain.Subscription
	threads map[domain.ThreadId]domain.ThreadRecord
	drafts  map[domain.ThreadId]string

	applyErr   error
	applyCalls int

	subObservers    map[int]func(domain.Subscription)
	threadObservers map[int]func([]domain.ThreadRecord)
	nextObserver    int
}

func newMemStore(subs ...domain.Subscription) *memStore {
	s := &memStore{
		subs:            make(map[domain.RoomId]domain.Subscription),
		threads:         make(map[domain.ThreadId]domain.ThreadRecord),
		drafts:          make(map[domain.ThreadId]string),
		subObservers:    make(map[int]func(domain.Subscription)),
		threadObservers: make(map[int]func([]domain.ThreadRecord)),
	}
	for _, sub := range subs {
		s.subs[sub.RoomId] = sub
	}
	return s
}

func (s *memStore) GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[rid]
	if !ok {
		return domain.Subscription{}, internal_errors.ErrNotFound
	}
	return sub, nil
}

func (s *memStore) GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.threads[id]
	if !ok {
		return domain.ThreadRecord{}, internal_errors.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) ListThreads(ctx context.Context, subID domain.SubscriptionId) ([]domain.ThreadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(subID), nil
}

func (s *memStore) listLocked(subID domain.SubscriptionId) []domain.ThreadRecord {
	var out []domain.ThreadRecord
	for _, rec := range s.threads {
		if rec.SubscriptionId == subID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func (s *memStore) Apply(ctx context.Context, ops []domain.BatchOp) error {
	s.mu.Lock()
	s.applyCalls++
	if s.applyErr != nil {
		s.mu.Unlock()
		return s.applyErr
	}
	var touched []domain.SubscriptionId
	for _, op := range ops {
		switch op.Kind {
		case domain.OpCreate, domain.OpUpdate:
			s.threads[op.Thread.Id] = op.Thread
			touched = append(touched, op.Thread.SubscriptionId)
		case domain.OpDelete:
			if rec, ok := s.threads[op.ThreadId]; ok {
				touched = append(touched, rec.SubscriptionId)
			}
			delete(s.threads, op.ThreadId)
		case domain.OpWatermark:
			for rid, sub := range s.subs {
				if sub.Id == op.SubscriptionId {
					w := op.Watermark
					sub.LastThreadSync = &w
					s.subs[rid] = sub
				}
			}
		}
	}
	subObservers := make([]func(domain.Subscription), 0, len(s.subObservers))
	for _, fn := range s.subObservers {
		subObservers = append(subObservers, fn)
	}
	threadObservers := make([]func([]domain.ThreadRecord), 0, len(s.threadObservers))
	for _, fn := range s.threadObservers {
		threadObservers = append(threadObservers, fn)
	}
	var list []domain.ThreadRecord
	if len(touched) > 0 {
		list = s.listLocked(touched[0])
	}
	s.mu.Unlock()

	for _, fn := range threadObservers {
		fn(list)
	}
	for _, fn := range subObservers {
		for _, sub := range s.snapshotSubs() {
			fn(sub)
		}
	}
	return nil
}

func (s *memStore) snapshotSubs() []domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

func (s *memStore) ObserveSubscription(rid domain.RoomId, fn func(domain.Subscription)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObserver
	s.nextObserver++
	s.subObservers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subObservers, id)
	}
}

func (s *memStore) ObserveThreads(subID domain.SubscriptionId, fn func([]domain.ThreadRecord)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObserver
	s.nextObserver++
	s.threadObservers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.threadObservers, id)
	}
}

func (s *memStore) SaveDraft(ctx context.Context, subID domain.SubscriptionId, tmid domain.ThreadId, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tmid != "" {
		rec, ok := s.threads[tmid]
		if !ok {
			return internal_errors.ErrNotFound
		}
		rec.DraftMessage = text
		s.threads[tmid] = rec
		return nil
	}
	for rid, sub := range s.subs {
		if sub.Id == subID {
			sub.DraftMessage = text
			s.subs[rid] = sub
			return nil
		}
	}
	return internal_errors.ErrNotFound
}

func (s *memStore) UpsertSubscription(ctx context.Context, sub domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.subs[sub.RoomId]; ok {
		sub.LastThreadSync = old.LastThreadSync
		sub.DraftMessage = old.DraftMessage
	}
	s.subs[sub.RoomId] = sub
	return nil
}

func (s *memStore) observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subObservers) + len(s.threadObservers)
}

func (s *memStore) subscription(rid domain.RoomId) domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[rid]
}

// --- Helpers ---

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func summary(id string, msg string) domain.ThreadSummary {
	return domain.ThreadSummary{
		Id:        id,
		RoomId:    "room1",
		Msg:       msg,
		Ts:        baseTime,
		UpdatedAt: baseTime,
	}
}

func record(id string, msg string) domain.ThreadRecord {
	return domain.ThreadRecord{ThreadSummary: summary(id, msg), SubscriptionId: "sub1"}
}

func testSubscription(lastSync *time.Time) domain.Subscription {
	return domain.Subscription{Id: "sub1", RoomId: "room1", Name: "general", Open: true, LastThreadSync: lastSync}
}
