package sqlstore

import (
	"context"
	"sync"

	"github.com/itchan-dev/roomkit/shared/domain"
)

type subscriptionObserver struct {
	rid domain.RoomId
	fn  func(domain.Subscription)
}

type threadsObserver struct {
	subID domain.SubscriptionId
	fn    func([]domain.ThreadRecord)
}

// hub keeps the live observers of the store.
type hub struct {
	mu      sync.Mutex
	next    int
	subs    map[int]subscriptionObserver
	threads map[int]threadsObserver
}

func newHub() *hub {
	return &hub{
		subs:    make(map[int]subscriptionObserver),
		threads: make(map[int]threadsObserver),
	}
}

// ObserveSubscription calls fn with the subscription of room rid after
// every committed change to it.
func (s *Store) ObserveSubscription(rid domain.RoomId, fn func(domain.Subscription)) func() {
	h := s.hub
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = subscriptionObserver{rid: rid, fn: fn}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// ObserveThreads calls fn with the full thread list of subscription subID
// after every committed change to it.
func (s *Store) ObserveThreads(subID domain.SubscriptionId, fn func([]domain.ThreadRecord)) func() {
	h := s.hub
	h.mu.Lock()
	id := h.next
	h.next++
	h.threads[id] = threadsObserver{subID: subID, fn: fn}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.threads, id)
			h.mu.Unlock()
		})
	}
}

func (s *Store) notifySubscription(ctx context.Context, rid domain.RoomId) {
	s.hub.mu.Lock()
	var fns []func(domain.Subscription)
	for _, o := range s.hub.subs {
		if o.rid == rid {
			fns = append(fns, o.fn)
		}
	}
	s.hub.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	sub, err := s.GetSubscription(ctx, rid)
	if err != nil {
		s.log.Error("failed to load subscription for observers", "room_id", rid, "error", err)
		return
	}
	for _, fn := range fns {
		fn(sub)
	}
}

func (s *Store) notifyThreads(ctx context.Context, subID domain.SubscriptionId) {
	s.hub.mu.Lock()
	var fns []func([]domain.ThreadRecord)
	for _, o := range s.hub.threads {
		if o.subID == subID {
			fns = append(fns, o.fn)
		}
	}
	s.hub.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	threads, err := s.ListThreads(ctx, subID)
	if err != nil {
		s.log.Error("failed to load threads for observers", "subscription_id", subID, "error", err)
		return
	}
	for _, fn := range fns {
		fn(threads)
	}
}
