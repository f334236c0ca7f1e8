package handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itchan-dev/roomkit/internal/service"
	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/itchan-dev/roomkit/shared/logger"
)

type ThreadSyncer interface {
	Init(ctx context.Context, rid domain.RoomId) (service.SyncResult, error)
	LoadMore(ctx context.Context, rid domain.RoomId) (service.SyncResult, error)
	End(rid domain.RoomId) bool
}

// Store is the local record store as seen by the handlers.
type Store interface {
	service.SessionStore
	UpsertSubscription(ctx context.Context, sub domain.Subscription) error
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	Apply(ctx context.Context, ops []domain.BatchOp) error
	Ping(ctx context.Context) error
}

type Remote interface {
	service.MessageFetcher
	service.SubscriptionRemote
}

// Settings are the server settings the views depend on.
type Settings struct {
	BaseURL     string
	UseRealName bool
	UseMarkdown bool
}

type Handler struct {
	settings Settings
	store    Store
	remote   Remote
	threads  ThreadSyncer
	emoji    func(name string) (domain.CustomEmoji, bool)
	now      func() time.Time
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*service.RoomSession
}

func New(settings Settings, store Store, remote Remote, threads ThreadSyncer, emoji func(name string) (domain.CustomEmoji, bool)) *Handler {
	return &Handler{
		settings: settings,
		store:    store,
		remote:   remote,
		threads:  threads,
		emoji:    emoji,
		now:      time.Now,
		log:      logger.Component("handler"),
		sessions: make(map[string]*service.RoomSession),
	}
}
