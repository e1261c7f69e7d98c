// Package app wires configuration to the storage backends and the tutoring
// registry. Both the server and tutorctl build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/platform/cache"
	"github.com/p-n-ai/exam-tutor/internal/platform/config"
	"github.com/p-n-ai/exam-tutor/internal/platform/database"
	"github.com/p-n-ai/exam-tutor/internal/progress"
	"github.com/p-n-ai/exam-tutor/internal/tutor"
)

// Backends holds the connections opened for a configuration.
type Backends struct {
	Store  progress.Store
	Events tutor.EventLogger
	Locker tutor.Locker // nil unless distributed locking is enabled

	DB    *database.DB // nil unless the postgres backend is selected
	Cache *cache.Cache // nil unless a component needs Redis/Dragonfly
}

// Open connects everything cfg asks for. On error, anything already opened is
// closed.
func Open(ctx context.Context, cfg *config.Config) (_ *Backends, err error) {
	b := &Backends{Events: tutor.NopEventLogger{}}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	if cfg.NeedsDatabase() {
		b.DB, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err = b.DB.Migrate(ctx); err != nil {
			return nil, err
		}
		b.Events = tutor.NewPostgresEventLogger(b.DB.Pool)
		slog.Info("database connected", "max_conns", cfg.Database.MaxConns)
	}

	if cfg.NeedsCache() {
		b.Cache, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		slog.Info("cache connected")
	}

	switch cfg.Progress.Backend {
	case config.BackendFile:
		b.Store, err = progress.NewFileStore(cfg.Progress.Dir)
	case config.BackendPostgres:
		b.Store, err = progress.NewPostgresStore(b.DB.Pool)
	case config.BackendRedis:
		b.Store = progress.NewRedisStore(b.Cache.Client, cfg.Progress.KeyPrefix)
	default:
		err = fmt.Errorf("unknown progress backend %q", cfg.Progress.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening progress store: %w", err)
	}

	if cfg.Progress.DistributedLock {
		b.Locker = b.Cache.Locker(cache.DefaultLockPrefix, time.Duration(cfg.Progress.LockTTL)*time.Second)
	}

	slog.Info("progress store ready",
		"backend", cfg.Progress.Backend,
		"distributed_lock", cfg.Progress.DistributedLock,
	)
	return b, nil
}

// Ready reports whether every open connection answers.
func (b *Backends) Ready(ctx context.Context) error {
	var errs []error
	if b.DB != nil {
		if err := b.DB.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if b.Cache != nil {
		if err := b.Cache.HealthCheck(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the connections. It is safe on a partially opened value.
func (b *Backends) Close() {
	if b == nil {
		return
	}
	if b.Cache != nil {
		if err := b.Cache.Close(); err != nil {
			slog.Warn("closing cache", "error", err)
		}
	}
	if b.DB != nil {
		b.DB.Close()
	}
}

// NewRegistry builds the tutoring registry over the opened backends.
// Conversations unused for idleTTL are dropped from memory.
func (b *Backends) NewRegistry(catalog *knowledge.Catalog, idleTTL time.Duration) *tutor.Registry {
	return tutor.NewRegistry(tutor.RegistryConfig{
		Catalog: catalog,
		Store:   b.Store,
		Events:  b.Events,
		Locker:  b.Locker,
		IdleTTL: idleTTL,
	})
}
