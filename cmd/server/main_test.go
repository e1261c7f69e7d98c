package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/platform/config"
	"github.com/p-n-ai/exam-tutor/internal/transport"
	"github.com/p-n-ai/exam-tutor/internal/tutor"
)

func testDispatcher(t *testing.T) *transport.Dispatcher {
	t.Helper()
	catalog, err := knowledge.Load("../../content")
	if err != nil {
		t.Fatalf("knowledge.Load() error = %v", err)
	}
	return transport.NewDispatcher(transport.DispatcherConfig{
		Registry: tutor.NewRegistry(tutor.RegistryConfig{Catalog: catalog}),
	})
}

func TestHealthEndpoints(t *testing.T) {
	healthy := newMux(testDispatcher(t), func(context.Context) error { return nil })
	broken := newMux(testDispatcher(t), func(context.Context) error { return errors.New("cache down") })

	tests := []struct {
		name       string
		mux        *http.ServeMux
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			mux:        healthy,
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			mux:        healthy,
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "healthz ignores backends",
			mux:        broken,
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 503 when a backend is down",
			mux:        broken,
			path:       "/readyz",
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			tt.mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestMux_ToolsAndMetrics(t *testing.T) {
	mux := newMux(testDispatcher(t), func(context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodPost, "/v1/students/alice/tools/get_exam_overview", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("tool status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tutor_tool_calls_total") {
		t.Error("metrics output should include tutor_tool_calls_total")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantDebug bool
	}{
		{"debug json", config.LogConfig{Level: "debug", Format: "json"}, true},
		{"info text", config.LogConfig{Level: "info", Format: "text"}, false},
		{"bad level falls back to info", config.LogConfig{Level: "loud", Format: "json"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLogger(tt.cfg)
			if got := l.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := &config.Config{Progress: config.ProgressConfig{Backend: "sqlite"}}
	if err := run(cfg); err == nil {
		t.Fatal("run() should reject an invalid config")
	}
}
