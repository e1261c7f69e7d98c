package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", false},
		{"valid-with-db", "redis://localhost:6379/0", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseURL_Timeouts(t *testing.T) {
	opts, err := ParseURL("redis://localhost:6379/2")
	if err != nil {
		t.Fatalf("ParseURL() error = %v", err)
	}
	if opts.DB != 2 {
		t.Errorf("DB = %d, want 2", opts.DB)
	}
	if opts.DialTimeout != dialTimeout || opts.ReadTimeout != ioTimeout || opts.WriteTimeout != ioTimeout {
		t.Errorf("timeouts = %v/%v/%v, want %v/%v/%v",
			opts.DialTimeout, opts.ReadTimeout, opts.WriteTimeout, dialTimeout, ioTimeout, ioTimeout)
	}
}

func TestCache_LockerPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:59999"})
	defer client.Close()
	c := &Cache{Client: client}

	if got := c.Locker("", time.Second).Key("bob"); got != DefaultLockPrefix+"bob" {
		t.Errorf("default prefix key = %q, want %q", got, DefaultLockPrefix+"bob")
	}
	if got := c.Locker("custom:", time.Second).Key("bob"); got != "custom:bob" {
		t.Errorf("custom prefix key = %q, want custom:bob", got)
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	ctx := t.Context()
	_, err := New(ctx, "redis://localhost:59999")
	if err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}

func TestLocker_Key(t *testing.T) {
	l := NewLocker(nil, "tutor:lock:", time.Second)
	if got := l.Key("student-1"); got != "tutor:lock:student-1" {
		t.Errorf("Key() = %q, want tutor:lock:student-1", got)
	}
}

func TestLocker_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:59999", DialTimeout: 200 * time.Millisecond})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	l := NewLocker(client, "tutor:lock:", time.Second)
	if _, err := l.Lock(ctx, "student-1"); err == nil {
		t.Fatal("Lock() should return error for unreachable host")
	}
}
