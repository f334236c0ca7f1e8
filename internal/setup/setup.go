package setup

import (
	"context"
	"fmt"

	"github.com/itchan-dev/roomkit/internal/apiclient"
	"github.com/itchan-dev/roomkit/internal/handler"
	"github.com/itchan-dev/roomkit/internal/service"
	"github.com/itchan-dev/roomkit/internal/storage/pg"
	"github.com/itchan-dev/roomkit/internal/storage/sqlite"
	"github.com/itchan-dev/roomkit/internal/storage/sqlstore"
	"github.com/itchan-dev/roomkit/shared/config"
	"github.com/itchan-dev/roomkit/shared/logger"
)

// Dependencies holds everything the router and main need.
type Dependencies struct {
	Config  *config.Config
	Store   *sqlstore.Store
	API     *apiclient.APIClient
	Sync    *service.ThreadSync
	Emoji   *service.EmojiCatalog
	Handler *handler.Handler
}

func OpenStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	switch cfg.Public.Storage.Driver {
	case config.DriverPostgres:
		return pg.Open(ctx, cfg.Private.Pg)
	case config.DriverSQLite, "":
		return sqlite.Open(ctx, cfg.Public.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Public.Storage.Driver)
	}
}

// SetupDependencies opens the store and wires the services. Server settings
// and custom emoji are fetched once; when the server is unreachable the
// configured values are used and the emoji catalog starts empty.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	log := logger.Component("setup")

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	api := apiclient.NewFromConfig(cfg)
	settings := handler.Settings{
		BaseURL:     cfg.Public.Server,
		UseRealName: cfg.Public.UseRealName,
		UseMarkdown: cfg.Public.UseMarkdown,
	}
	if public, err := api.PublicSettings(ctx); err != nil {
		log.Warn("failed to fetch public settings, using config", "error", err)
	} else {
		if public.SiteURL != "" {
			settings.BaseURL = public.SiteURL
		}
		settings.UseRealName = public.UseRealName
	}

	emoji := service.NewEmojiCatalog(api)
	if err := emoji.Refresh(ctx); err != nil {
		log.Warn("custom emoji unavailable", "error", err)
	} else {
		log.Info("loaded custom emoji", "count", emoji.Len())
	}

	threadSync := service.NewThreadSync(api, store, cfg.Public.ThreadsPageSize)
	h := handler.New(settings, store, api, threadSync, emoji.Lookup)

	return &Dependencies{
		Config:  cfg,
		Store:   store,
		API:     api,
		Sync:    threadSync,
		Emoji:   emoji,
		Handler: h,
	}, nil
}

// Close persists the drafts of open rooms and closes the store.
func (d *Dependencies) Close(ctx context.Context) error {
	if err := d.Handler.Close(ctx); err != nil {
		logger.Log.Error("failed to close room sessions", "error", err)
	}
	return d.Store.Cleanup()
}
