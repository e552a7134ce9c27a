package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arsarazi/realty/internal/cache"
	"github.com/arsarazi/realty/internal/catalog"
	"github.com/arsarazi/realty/internal/config"
	"github.com/arsarazi/realty/internal/db"
	"github.com/arsarazi/realty/internal/store"
	"github.com/arsarazi/realty/internal/store/jsonfile"
	"github.com/arsarazi/realty/internal/store/sqlstore"
)

// stack is the server-side object graph opened from a config.
type stack struct {
	db      *db.DB
	store   store.Properties
	cache   *cache.Redis
	catalog *catalog.Catalog
}

// loadConfig reads the server config named by --config, if any.
func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}

// openStack opens the database, the listing store selected by the config
// and, when configured, the Redis result cache.
func openStack(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *stack, err error) {
	s := &stack{}
	defer func() {
		if err != nil {
			s.close(logger)
		}
	}()

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		s.db, err = db.OpenPostgres(ctx, db.PostgresOptions{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
	default:
		path := cfg.Store.SQLitePath
		if flagDB != "" {
			path = flagDB
		}
		s.db, err = db.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.Store.Backend == config.BackendJSON {
		s.store, err = jsonfile.Open(cfg.Store.JSONPath)
		if err != nil {
			return nil, fmt.Errorf("opening json store: %w", err)
		}
	} else {
		s.store = sqlstore.NewRepository(s.db)
	}

	opts := []catalog.Option{catalog.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		s.cache, err = cache.Dial(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		opts = append(opts, catalog.WithCache(s.cache))
	}

	s.catalog = catalog.New(s.store, opts...)
	logger.Info("store opened", "backend", cfg.Store.Backend, "cache", s.cache != nil)
	return s, nil
}

func (s *stack) close(logger *slog.Logger) {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logger.Warn("closing stack", "error", err)
	}
}
