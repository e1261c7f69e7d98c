package progress_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/progress"
	"github.com/p-n-ai/exam-tutor/internal/quiz"
)

type fakeDomains map[string]string

func (f fakeDomains) Domain(id string) (knowledge.Domain, error) {
	name, ok := f[id]
	if !ok {
		return knowledge.Domain{}, knowledge.ErrUnknownDomain
	}
	return knowledge.Domain{ID: id, Name: name}, nil
}

var domains = fakeDomains{
	"domain_1": "General Security Concepts",
	"domain_2": "Threats, Vulnerabilities, and Mitigations",
}

// clock advances one minute per call.
func clock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func openTracker(t *testing.T, store progress.Store) *progress.Tracker {
	t.Helper()
	return progress.Open(t.Context(), store, "alice", domains, progress.WithClock(clock()))
}

func TestOpen_EmptyStore(t *testing.T) {
	tr := openTracker(t, progress.NewMemoryStore())

	snap := tr.Snapshot()
	if snap.QuestionsAnswered != 0 || snap.TopicsCovered != 0 || snap.Accuracy != nil {
		t.Errorf("Snapshot() = %+v, want empty", snap)
	}
	if snap.AccuracyLabel() != "N/A" {
		t.Errorf("AccuracyLabel() = %q, want N/A", snap.AccuracyLabel())
	}
}

func TestOpen_CorruptRecordFallsBackToEmpty(t *testing.T) {
	store := progress.NewMemoryStore()
	store.Put("alice", []byte("{not json"))

	tr := openTracker(t, store)
	if got := tr.Snapshot().TopicsCovered; got != 0 {
		t.Errorf("TopicsCovered = %d, want 0", got)
	}
	if got := tr.StartSession(); !strings.HasPrefix(got, "Welcome to your first") {
		t.Errorf("StartSession() = %q, want first-session welcome", got)
	}
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context, string) (*progress.StudentProgress, error) {
	return nil, f.err
}

func (f failingStore) Save(context.Context, string, *progress.StudentProgress) error {
	return f.err
}

func TestTracker_StoreFailuresAreNotFatal(t *testing.T) {
	tr := openTracker(t, failingStore{err: errors.New("disk on fire")})

	tr.MarkTopicCovered(t.Context(), "domain_1", "zero_trust")
	tr.StartSession()
	tr.EndSession(t.Context())

	if got := tr.Snapshot().TopicsCovered; got != 1 {
		t.Errorf("TopicsCovered = %d, want 1", got)
	}
}

func TestMarkTopicCovered_Idempotent(t *testing.T) {
	tr := openTracker(t, progress.NewMemoryStore())
	ctx := t.Context()

	if !tr.MarkTopicCovered(ctx, "domain_2", "malware") {
		t.Error("first MarkTopicCovered() = false, want true")
	}
	if tr.MarkTopicCovered(ctx, "domain_2", "malware") {
		t.Error("second MarkTopicCovered() = true, want false")
	}

	p := tr.Progress()
	if len(p.TopicsCovered) != 1 || !p.TopicsCovered.Has("domain_2_malware") {
		t.Errorf("TopicsCovered = %v, want exactly domain_2_malware", p.TopicsCovered.Keys())
	}
}

func TestMarkTopicCovered_MostRecentWins(t *testing.T) {
	tr := openTracker(t, progress.NewMemoryStore())
	ctx := t.Context()

	tr.MarkTopicCovered(ctx, "domain_1", "zero_trust")
	tr.MarkTopicCovered(ctx, "domain_2", "malware")
	tr.MarkTopicCovered(ctx, "domain_1", "zero_trust")

	snap := tr.Snapshot()
	if snap.CurrentDomain != "domain_1" || snap.CurrentTopic != "zero_trust" {
		t.Errorf("current = %s/%s, want domain_1/zero_trust", snap.CurrentDomain, snap.CurrentTopic)
	}
	if snap.TopicsCovered != 2 {
		t.Errorf("TopicsCovered = %d, want 2", snap.TopicsCovered)
	}
}

func TestMarkTopicCovered_Persists(t *testing.T) {
	store := progress.NewMemoryStore()
	openTracker(t, store).MarkTopicCovered(t.Context(), "domain_2", "malware")

	reopened := openTracker(t, store)
	if !reopened.Progress().TopicsCovered.Has("domain_2_malware") {
		t.Error("covered topic not persisted")
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := progress.NewMemoryStore()
	ctx := t.Context()

	tr := openTracker(t, store)
	welcome := tr.StartSession()
	if !strings.HasPrefix(welcome, "Welcome to your first Security+ session!") {
		t.Errorf("first StartSession() = %q", welcome)
	}
	if strings.Contains(welcome, "previous sessions") {
		t.Error("first-session welcome mentions previous sessions")
	}
	firstID := tr.CurrentSessionID()
	if firstID == "" {
		t.Fatal("CurrentSessionID() empty after StartSession")
	}

	// The in-progress session is not persisted.
	if _, err := store.Load(ctx, "alice"); !progress.IsNotFound(err) {
		t.Errorf("store.Load() error = %v, want not found before EndSession", err)
	}

	tr.MarkTopicCovered(ctx, "domain_1", "zero_trust")
	rec := tr.EndSession(ctx)
	if rec == nil || rec.EndedAt == nil || !rec.EndedAt.After(rec.StartedAt) {
		t.Fatalf("EndSession() = %+v, want closed record", rec)
	}
	if tr.CurrentSessionID() != "" {
		t.Error("session still in progress after EndSession")
	}

	tr = openTracker(t, store)
	welcome = tr.StartSession()
	for _, want := range []string{
		"Welcome back!",
		"completed 1 previous sessions and covered 1 topics",
		"We were working on General Security Concepts.",
	} {
		if !strings.Contains(welcome, want) {
			t.Errorf("StartSession() = %q, missing %q", welcome, want)
		}
	}
	if strings.Contains(welcome, "review some areas") {
		t.Error("weak-area hint shown without weak areas")
	}

	tr.EndSession(ctx)
	p := tr.Progress()
	if len(p.SessionsCompleted) != 2 {
		t.Fatalf("SessionsCompleted = %d, want 2", len(p.SessionsCompleted))
	}
	if p.SessionsCompleted[1].PreviousSessionID != firstID {
		t.Errorf("PreviousSessionID = %q, want %q", p.SessionsCompleted[1].PreviousSessionID, firstID)
	}
	if p.LastSession == nil || p.LastSession.ID != p.SessionsCompleted[1].ID {
		t.Error("LastSession is not the most recent session")
	}
}

func TestEndSession_WithoutStart(t *testing.T) {
	store := progress.NewMemoryStore()
	tr := openTracker(t, store)

	if rec := tr.EndSession(t.Context()); rec != nil {
		t.Errorf("EndSession() = %+v, want nil", rec)
	}
	if got := len(tr.Progress().SessionsCompleted); got != 0 {
		t.Errorf("SessionsCompleted = %d, want 0", got)
	}
	if _, err := store.Load(t.Context(), "alice"); err != nil {
		t.Errorf("EndSession() should still persist, Load() error = %v", err)
	}
}

func grade(t *testing.T, domain string, answers string) quiz.Result {
	t.Helper()
	s := &quiz.Session{
		Domain: domain,
		Questions: []knowledge.Question{
			{ID: "q1", Correct: "B", Options: []knowledge.Option{{Label: "A"}, {Label: "B"}}},
			{ID: "q2", Correct: "A", Options: []knowledge.Option{{Label: "A"}, {Label: "B"}}},
			{ID: "q3", Correct: "C", Options: []knowledge.Option{{Label: "A"}, {Label: "C"}}},
		},
	}
	r, err := quiz.Grade(s, answers)
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	return r
}

func TestRecordQuizResult_WeakArea(t *testing.T) {
	tr := openTracker(t, progress.NewMemoryStore())
	ctx := t.Context()

	rec := tr.RecordQuizResult(ctx, grade(t, "domain_1", "B, B, B"))
	if rec.Correct != 1 || rec.Total != 3 || rec.Domain != "domain_1" {
		t.Errorf("QuizResult = %+v", rec)
	}

	tr.RecordQuizResult(ctx, grade(t, "domain_1", "A, A, A"))

	snap := tr.Snapshot()
	if len(snap.WeakAreas) != 1 || snap.WeakAreas[0] != "domain_1" {
		t.Errorf("WeakAreas = %v, want [domain_1]", snap.WeakAreas)
	}
	if snap.QuestionsAnswered != 6 || snap.CorrectAnswers != 2 {
		t.Errorf("answered/correct = %d/%d, want 6/2", snap.QuestionsAnswered, snap.CorrectAnswers)
	}
	if got := snap.AccuracyLabel(); got != "33.3%" {
		t.Errorf("AccuracyLabel() = %q, want 33.3%%", got)
	}
	if got := len(tr.Progress().QuizHistory); got != 2 {
		t.Errorf("QuizHistory = %d entries, want 2", got)
	}
}

func TestRecordQuizResult_StrongAreaUsesCurrentDomain(t *testing.T) {
	tr := openTracker(t, progress.NewMemoryStore())
	ctx := t.Context()

	// Combined-pool quiz with no current domain is not attributed.
	tr.RecordQuizResult(ctx, grade(t, "", "B, A, C"))
	if snap := tr.Snapshot(); len(snap.StrongAreas) != 0 {
		t.Errorf("StrongAreas = %v, want none", snap.StrongAreas)
	}

	tr.MarkTopicCovered(ctx, "domain_2", "malware")
	tr.RecordQuizResult(ctx, grade(t, "", "B, A, C"))
	tr.RecordQuizResult(ctx, grade(t, "", "B, A, C"))

	snap := tr.Snapshot()
	if len(snap.StrongAreas) != 1 || snap.StrongAreas[0] != "domain_2" {
		t.Errorf("StrongAreas = %v, want [domain_2]", snap.StrongAreas)
	}
	if len(snap.WeakAreas) != 0 {
		t.Errorf("WeakAreas = %v, want none", snap.WeakAreas)
	}
}

func TestStartSession_WeakAreaHint(t *testing.T) {
	store := progress.NewMemoryStore()
	ctx := t.Context()

	tr := openTracker(t, store)
	tr.StartSession()
	tr.RecordQuizResult(ctx, grade(t, "domain_1", "A, B, A"))
	tr.EndSession(ctx)

	welcome := openTracker(t, store).StartSession()
	if !strings.Contains(welcome, "review some areas that need more practice") {
		t.Errorf("StartSession() = %q, want weak-area hint", welcome)
	}
}

func TestSnapshot_RecentSessionsMostRecentFirst(t *testing.T) {
	tr := openTracker(t, progress.NewMemoryStore())
	ctx := t.Context()

	var ids []string
	for range 5 {
		tr.StartSession()
		ids = append(ids, tr.CurrentSessionID())
		tr.EndSession(ctx)
	}

	snap := tr.Snapshot()
	if snap.SessionsCompleted != 5 {
		t.Errorf("SessionsCompleted = %d, want 5", snap.SessionsCompleted)
	}
	if len(snap.RecentSessions) != 3 {
		t.Fatalf("len(RecentSessions) = %d, want 3", len(snap.RecentSessions))
	}
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if snap.RecentSessions[i].ID != want {
			t.Errorf("RecentSessions[%d] = %s, want %s", i, snap.RecentSessions[i].ID, want)
		}
	}
	// Stored order is untouched.
	if tr.Progress().SessionsCompleted[4].ID != ids[4] {
		t.Error("Snapshot() reordered stored sessions")
	}
}

func TestContinueLastTopic(t *testing.T) {
	tr := openTracker(t, progress.NewMemoryStore())

	if got := tr.ContinueLastTopic(); !strings.Contains(got, "Let's start fresh") {
		t.Errorf("ContinueLastTopic() = %q, want fresh start", got)
	}

	tr.MarkTopicCovered(t.Context(), "domain_1", "zero_trust")
	if got := tr.ContinueLastTopic(); !strings.Contains(got, "Let's continue with Zero Trust in General Security Concepts.") {
		t.Errorf("ContinueLastTopic() = %q", got)
	}
}

func TestReload_KeepsInProgressSession(t *testing.T) {
	store := progress.NewMemoryStore()
	ctx := t.Context()

	a := openTracker(t, store)
	a.StartSession()
	id := a.CurrentSessionID()

	b := openTracker(t, store)
	b.MarkTopicCovered(ctx, "domain_2", "malware")

	a.Reload(ctx)
	if a.CurrentSessionID() != id {
		t.Error("Reload() dropped the in-progress session")
	}
	if a.Snapshot().TopicsCovered != 1 {
		t.Error("Reload() did not pick up the stored record")
	}
}
