package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/p-n-ai/exam-tutor/internal/app"
	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/platform/config"
	"github.com/p-n-ai/exam-tutor/internal/progress"
	"github.com/p-n-ai/exam-tutor/internal/tutor"
)

func fileConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Progress: config.ProgressConfig{
			Backend: config.BackendFile,
			Dir:     filepath.Join(t.TempDir(), "students"),
			LockTTL: 10,
		},
	}
}

func TestOpen_FileBackend(t *testing.T) {
	ctx := context.Background()
	b, err := app.Open(ctx, fileConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	if _, ok := b.Store.(*progress.FileStore); !ok {
		t.Errorf("Store = %T, want *progress.FileStore", b.Store)
	}
	if _, ok := b.Events.(tutor.NopEventLogger); !ok {
		t.Errorf("Events = %T, want tutor.NopEventLogger", b.Events)
	}
	if b.Locker != nil || b.DB != nil || b.Cache != nil {
		t.Error("file backend should open no network connections")
	}
	if err := b.Ready(ctx); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
}

func TestOpen_RegistryPersistsToFiles(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)
	b, err := app.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	catalog, err := knowledge.Load(filepath.Join("..", "..", "content"))
	if err != nil {
		t.Fatalf("knowledge.Load() error = %v", err)
	}

	reg := b.NewRegistry(catalog, time.Hour)
	err = reg.Do(ctx, "alice", func(c *tutor.Conversation) error {
		_, err := c.MarkTopicCompleted(ctx, "domain_1", "security_controls")
		return err
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	p, err := b.Store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Store.Load() error = %v", err)
	}
	if !p.TopicsCovered.Has(progress.TopicKey("domain_1", "security_controls")) {
		t.Errorf("TopicsCovered = %v, want domain_1/security_controls", p.TopicsCovered.Keys())
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Progress.Backend = "sqlite"
	if _, err := app.Open(context.Background(), cfg); err == nil {
		t.Fatal("Open() should reject an unknown backend")
	}
}

func TestOpen_UnreachableCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	cfg := fileConfig(t)
	cfg.Progress.Backend = config.BackendRedis
	cfg.Cache.URL = "redis://localhost:59999"
	if _, err := app.Open(context.Background(), cfg); err == nil {
		t.Fatal("Open() should fail when the cache is unreachable")
	}
}

func TestBackends_CloseNil(t *testing.T) {
	var b *app.Backends
	b.Close()
}
