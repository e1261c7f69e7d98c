package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/progress"
)

// DefaultIdleTTL is how long a conversation nobody uses stays in memory.
const DefaultIdleTTL = 30 * time.Minute

// Locker serializes work on one student across processes. *cache.Locker
// satisfies it.
type Locker interface {
	Lock(ctx context.Context, name string) (func(), error)
}

// RegistryConfig holds dependencies for the conversation registry.
type RegistryConfig struct {
	Catalog *knowledge.Catalog
	Store   progress.Store
	Events  EventLogger
	Locker  Locker // optional; when set each turn reloads the stored record under the lock

	// Rand returns the quiz sampling source for a new conversation. Nil uses
	// the package-level source.
	Rand  func() *rand.Rand
	Clock func() time.Time

	// IdleTTL evicts conversations unused for this long. Their stored record
	// is reloaded on the next call, but an unfinished quiz or open session is
	// dropped. Zero uses DefaultIdleTTL.
	IdleTTL time.Duration
}

// Registry hands out one Conversation per student and runs one turn at a
// time for each of them.
type Registry struct {
	catalog *knowledge.Catalog
	store   progress.Store
	events  EventLogger
	locker  Locker
	rand    func() *rand.Rand
	clock   func() time.Time
	idleTTL time.Duration

	mu        sync.Mutex
	convs     map[string]*slot
	lastSweep time.Time
}

type slot struct {
	mu   sync.Mutex
	conv *Conversation

	// guarded by Registry.mu
	users    int
	lastUsed time.Time
}

// NewRegistry creates a registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	store := cfg.Store
	if store == nil {
		store = progress.NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	idleTTL := cfg.IdleTTL
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		catalog: cfg.Catalog,
		store:   store,
		events:  events,
		locker:  cfg.Locker,
		rand:    cfg.Rand,
		clock:   clock,
		idleTTL: idleTTL,
		convs:   make(map[string]*slot),
	}
}

// Do runs fn against the student's conversation, loading it on first use.
// Calls for the same student never overlap.
func (r *Registry) Do(ctx context.Context, studentID string, fn func(*Conversation) error) error {
	if studentID == "" {
		return fmt.Errorf("student id is required")
	}

	s := r.acquire(studentID)
	defer r.release(s)
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, studentID)
		if err != nil {
			return fmt.Errorf("lock student %s: %w", studentID, err)
		}
		defer unlock()
	}

	if s.conv == nil {
		s.conv = r.open(ctx, studentID)
	} else if r.locker != nil {
		s.conv.tracker.Reload(ctx)
	}
	return fn(s.conv)
}

// Students returns the ids of the loaded conversations.
func (r *Registry) Students() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.convs))
	for id := range r.convs {
		ids = append(ids, id)
	}
	return ids
}

// acquire returns the student's slot, marked in use so a sweep keeps it.
func (r *Registry) acquire(studentID string) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	if now.Sub(r.lastSweep) >= r.idleTTL {
		r.sweep(now)
	}

	s, ok := r.convs[studentID]
	if !ok {
		s = &slot{}
		r.convs[studentID] = s
	}
	s.users++
	s.lastUsed = now
	return s
}

func (r *Registry) release(s *slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.users--
	s.lastUsed = r.clock()
}

// sweep drops idle conversations. Callers hold r.mu.
func (r *Registry) sweep(now time.Time) {
	r.lastSweep = now
	for id, s := range r.convs {
		if s.users == 0 && now.Sub(s.lastUsed) >= r.idleTTL {
			delete(r.convs, id)
			slog.Debug("conversation evicted", "student_id", id, "idle", now.Sub(s.lastUsed))
		}
	}
}

func (r *Registry) open(ctx context.Context, studentID string) *Conversation {
	tracker := progress.Open(ctx, r.store, studentID, r.catalog, progress.WithClock(r.clock))
	var rng *rand.Rand
	if r.rand != nil {
		rng = r.rand()
	}
	slog.Info("conversation loaded", "student_id", studentID)
	return NewConversation(r.catalog, tracker, r.events, rng)
}
