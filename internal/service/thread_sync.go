package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/itchan-dev/roomkit/shared/logger"
	"github.com/itchan-dev/roomkit/shared/middleware/metrics"
	"golang.org/x/sync/singleflight"
)

const DefaultThreadsPageSize = 50

// ThreadRemote is the slice of the chat server API the sync needs.
type ThreadRemote interface {
	ListThreads(ctx context.Context, rid domain.RoomId, count, offset int) (domain.ThreadPage, error)
	SyncThreads(ctx context.Context, rid domain.RoomId, since time.Time) (update []domain.ThreadSummary, remove []domain.ThreadId, err error)
}

// ThreadStore is the local record store as seen by the sync.
type ThreadStore interface {
	GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error)
	ListThreads(ctx context.Context, subID domain.SubscriptionId) ([]domain.ThreadRecord, error)
	Apply(ctx context.Context, ops []domain.BatchOp) error
}

type SyncMode string

const (
	ModeLoad SyncMode = "load"
	ModeSync SyncMode = "sync"
)

// SyncResult describes one finished pass.
type SyncResult struct {
	PassId    string    `json:"passId"`
	Mode      SyncMode  `json:"mode"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Deleted   int       `json:"deleted"`
	End       bool      `json:"end"`
	Watermark time.Time `json:"watermark"`
}

// ThreadSync keeps the thread records of a room in step with the server.
// Passes for the same room never overlap. A caller arriving while a pass of
// the same mode is running waits for it and gets its result; a pass of the
// other mode runs after it.
type ThreadSync struct {
	remote   ThreadRemote
	store    ThreadStore
	pageSize int
	now      func() time.Time
	log      *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	ends  map[domain.RoomId]bool
	rooms map[domain.RoomId]chan struct{}
	// server list items paged past without becoming a local record
	skipped map[domain.RoomId]int
}

func NewThreadSync(remote ThreadRemote, store ThreadStore, pageSize int) *ThreadSync {
	if pageSize <= 0 {
		pageSize = DefaultThreadsPageSize
	}
	return &ThreadSync{
		remote:   remote,
		store:    store,
		pageSize: pageSize,
		now:      time.Now,
		log:      logger.Component("thread_sync"),
		ends:     make(map[domain.RoomId]bool),
		rooms:    make(map[domain.RoomId]chan struct{}),
		skipped:  make(map[domain.RoomId]int),
	}
}

// Init runs a full page load for a room that was never synced and a delta
// sync otherwise.
func (s *ThreadSync) Init(ctx context.Context, rid domain.RoomId) (SyncResult, error) {
	sub, err := s.store.GetSubscription(ctx, rid)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub.Synced() {
		return s.Sync(ctx, rid)
	}
	return s.LoadMore(ctx, rid)
}

// End reports whether the last page load of the room came back short.
func (s *ThreadSync) End(rid domain.RoomId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ends[rid]
}

// LoadMore fetches the next page of threads. The offset is the number of
// records already stored for the room plus the server items earlier pages
// carried that were not stored.
func (s *ThreadSync) LoadMore(ctx context.Context, rid domain.RoomId) (SyncResult, error) {
	if s.End(rid) {
		return SyncResult{Mode: ModeLoad, End: true}, nil
	}
	return s.guarded(ctx, rid, ModeLoad, s.loadPass)
}

// Sync applies the changes made on the server since the watermark. A room
// without a watermark gets a page load instead.
func (s *ThreadSync) Sync(ctx context.Context, rid domain.RoomId) (SyncResult, error) {
	return s.guarded(ctx, rid, ModeSync, s.syncPass)
}

type passFunc func(ctx context.Context, sub domain.Subscription, passLog *slog.Logger) (SyncResult, error)

// lockRoom serializes passes of one room.
func (s *ThreadSync) lockRoom(ctx context.Context, rid domain.RoomId) (func(), error) {
	s.mu.Lock()
	sem, ok := s.rooms[rid]
	if !ok {
		sem = make(chan struct{}, 1)
		s.rooms[rid] = sem
	}
	s.mu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *ThreadSync) guarded(ctx context.Context, rid domain.RoomId, mode SyncMode, pass passFunc) (SyncResult, error) {
	v, err, shared := s.group.Do(rid+"/"+string(mode), func() (any, error) {
		unlock, err := s.lockRoom(ctx, rid)
		if err != nil {
			return SyncResult{Mode: mode}, err
		}
		defer unlock()

		run, runMode := pass, mode
		if runMode == ModeLoad && s.End(rid) {
			return SyncResult{Mode: ModeLoad, End: true}, nil
		}

		passId := uuid.NewString()
		start := s.now()

		sub, err := s.store.GetSubscription(ctx, rid)
		if err != nil {
			return SyncResult{}, fmt.Errorf("failed to get subscription: %w", err)
		}
		if runMode == ModeSync && !sub.Synced() {
			run, runMode = s.loadPass, ModeLoad
		}
		passLog := s.log.With("room_id", rid, "pass_id", passId, "mode", runMode)

		res, err := run(ctx, sub, passLog)
		res.PassId = passId
		res.Mode = runMode
		metrics.SyncDuration.WithLabelValues(string(runMode)).Observe(s.now().Sub(start).Seconds())
		if err != nil {
			metrics.SyncPasses.WithLabelValues(string(runMode), "error").Inc()
			passLog.Error("thread sync pass failed", "error", err)
			return res, err
		}
		metrics.SyncPasses.WithLabelValues(string(runMode), "ok").Inc()
		passLog.Info("thread sync pass done",
			"created", res.Created, "updated", res.Updated, "deleted", res.Deleted, "end", res.End)
		return res, nil
	})
	if shared {
		metrics.SyncPasses.WithLabelValues(string(mode), "shared").Inc()
	}
	res, _ := v.(SyncResult)
	return res, err
}

func (s *ThreadSync) loadPass(ctx context.Context, sub domain.Subscription, passLog *slog.Logger) (SyncResult, error) {
	local, err := s.store.ListThreads(ctx, sub.Id)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to list local threads: %w", err)
	}

	s.mu.Lock()
	skipped := s.skipped[sub.RoomId]
	s.mu.Unlock()
	offset := len(local) + skipped

	requested := s.now()
	page, err := s.remote.ListThreads(ctx, sub.RoomId, s.pageSize, offset)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to fetch threads: %w", err)
	}
	sent := page.Count
	if sent < len(page.Threads) {
		sent = len(page.Threads)
	}
	passLog.Debug("fetched thread page", "offset", offset, "count", sent, "valid", len(page.Threads))

	res, err := s.apply(ctx, sub, local, page.Threads, nil, requested)
	if err != nil {
		return res, err
	}

	kept := 0
	for _, th := range page.Threads {
		if !th.Removed() {
			kept++
		}
	}
	res.End = sent < s.pageSize

	s.mu.Lock()
	s.skipped[sub.RoomId] = skipped + sent - kept
	if res.End {
		s.ends[sub.RoomId] = true
	}
	s.mu.Unlock()
	return res, nil
}

func (s *ThreadSync) syncPass(ctx context.Context, sub domain.Subscription, passLog *slog.Logger) (SyncResult, error) {
	requested := s.now()
	update, remove, err := s.remote.SyncThreads(ctx, sub.RoomId, *sub.LastThreadSync)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to sync threads: %w", err)
	}
	passLog.Debug("fetched thread delta", "since", *sub.LastThreadSync, "update", len(update), "remove", len(remove))

	local, err := s.store.ListThreads(ctx, sub.Id)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to list local threads: %w", err)
	}
	return s.apply(ctx, sub, local, update, remove, requested)
}

func (s *ThreadSync) apply(ctx context.Context, sub domain.Subscription, local []domain.ThreadRecord, update []domain.ThreadSummary, remove []domain.ThreadId, watermark time.Time) (SyncResult, error) {
	ops := Reconcile(sub, local, update, remove, watermark)
	if err := s.store.Apply(ctx, ops); err != nil {
		return SyncResult{}, fmt.Errorf("failed to apply thread batch: %w", err)
	}

	var res SyncResult
	for _, op := range ops {
		metrics.SyncOps.WithLabelValues(op.Kind.String()).Inc()
		switch op.Kind {
		case domain.OpCreate:
			res.Created++
		case domain.OpUpdate:
			res.Updated++
		case domain.OpDelete:
			res.Deleted++
		case domain.OpWatermark:
			res.Watermark = op.Watermark
		}
	}
	return res, nil
}
