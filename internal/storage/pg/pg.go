package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itchan-dev/roomkit/internal/storage/sqlstore"
	"github.com/itchan-dev/roomkit/shared/config"
	"github.com/itchan-dev/roomkit/shared/logger"

	_ "github.com/lib/pq"
)

// Open connects to postgres and migrates the schema.
func Open(ctx context.Context, cfg config.Pg) (*sqlstore.Store, error) {
	logger.Log.Info("connecting to postgres", "host", cfg.Host, "port", cfg.Port, "dbname", cfg.Dbname)
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := sqlstore.New(db, sqlstore.Postgres)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Log.Info("connected to postgres")
	return store, nil
}

func Connect(ctx context.Context, cfg config.Pg) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}
