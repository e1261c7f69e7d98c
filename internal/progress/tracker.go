package progress

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/platform/metrics"
	"github.com/p-n-ai/exam-tutor/internal/quiz"
)

// RecentSessionLimit is how many completed sessions a Snapshot includes.
const RecentSessionLimit = 3

// DomainLookup resolves domain display names. *knowledge.Catalog satisfies it.
type DomainLookup interface {
	Domain(id string) (knowledge.Domain, error)
}

// Tracker owns one student's progress and writes it through to a Store.
// It is not safe for concurrent use; callers serialize turns per student.
type Tracker struct {
	studentID string
	store     Store
	domains   DomainLookup
	now       func() time.Time
	p         *StudentProgress
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Open loads the student's record from store. Missing or unreadable records
// start the student from an empty record; the failure is only logged.
func Open(ctx context.Context, store Store, studentID string, domains DomainLookup, opts ...Option) *Tracker {
	t := &Tracker{
		studentID: studentID,
		store:     store,
		domains:   domains,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	p, err := store.Load(ctx, studentID)
	switch {
	case err == nil:
		t.p = p
	case IsNotFound(err):
		slog.Debug("no stored progress, starting fresh", "student_id", studentID)
		t.p = New()
	default:
		slog.Warn("progress unreadable, starting fresh",
			"student_id", studentID,
			"error", err,
		)
		t.p = New()
	}
	return t
}

// Reload replaces the record with the stored one, keeping the in-progress
// session. A failed load keeps what is in memory.
func (t *Tracker) Reload(ctx context.Context) {
	p, err := t.store.Load(ctx, t.studentID)
	if err != nil {
		if !IsNotFound(err) {
			slog.Warn("reloading progress", "student_id", t.studentID, "error", err)
		}
		return
	}
	p.CurrentSession = t.p.CurrentSession
	t.p = p
}

// StudentID returns the id the tracker persists under.
func (t *Tracker) StudentID() string {
	return t.studentID
}

// Progress returns a copy of the current record.
func (t *Tracker) Progress() *StudentProgress {
	return t.p.Clone()
}

// CurrentSessionID is empty when no session is in progress.
func (t *Tracker) CurrentSessionID() string {
	if t.p.CurrentSession == nil {
		return ""
	}
	return t.p.CurrentSession.ID
}

// MarkTopicCovered records a topic as covered and moves the current
// domain/topic pointers to it. It reports whether the topic was new.
func (t *Tracker) MarkTopicCovered(ctx context.Context, domainID, topicID string) bool {
	added := t.p.TopicsCovered.Add(TopicKey(domainID, topicID))
	t.p.CurrentDomain = domainID
	t.p.CurrentTopic = topicID
	t.save(ctx)
	return added
}

// StartSession opens a new session record linked to the last completed one
// and returns the welcome text. Nothing is persisted until EndSession.
func (t *Tracker) StartSession() string {
	rec := &SessionRecord{
		ID:        uuid.NewString(),
		StartedAt: t.now(),
	}
	if t.p.LastSession != nil {
		rec.PreviousSessionID = t.p.LastSession.ID
	}
	t.p.CurrentSession = rec

	if t.p.LastSession == nil {
		return "Welcome to your first Security+ session! I'm excited to help you prepare for the exam. Let's get started!"
	}

	var b strings.Builder
	b.WriteString("Welcome back! [break:1s] I can see we've been making progress. ")
	fmt.Fprintf(&b, "You've completed %d previous sessions and covered %d topics. ",
		len(t.p.SessionsCompleted), len(t.p.TopicsCovered))
	if t.p.CurrentDomain != "" && t.p.CurrentTopic != "" {
		fmt.Fprintf(&b, "We were working on %s. ", t.domainName(t.p.CurrentDomain))
	}
	b.WriteString("Let's pick up right where we left off! [break:2s] ")
	if len(t.p.WeakAreas) > 0 {
		b.WriteString("I notice we might want to review some areas that need more practice. ")
	}
	b.WriteString("Are you ready to continue with today's session?")
	return b.String()
}

// EndSession closes the in-progress session, if any, and persists.
// It returns the closed record, or nil when no session was open.
func (t *Tracker) EndSession(ctx context.Context) *SessionRecord {
	rec := t.p.CurrentSession
	if rec != nil {
		end := t.now()
		rec.EndedAt = &end
		t.p.SessionsCompleted = append(t.p.SessionsCompleted, *rec)
		last := *rec
		t.p.LastSession = &last
		t.p.CurrentSession = nil
	}
	t.save(ctx)
	return rec
}

// RecordQuizResult folds a graded quiz into the counters and history. The
// result is attributed to its own domain, or to the current domain for
// combined-pool quizzes; below PassScore the domain becomes a weak area and
// at StrongScore or above a strong one.
func (t *Tracker) RecordQuizResult(ctx context.Context, r quiz.Result) QuizResult {
	area := r.Domain
	if area == "" {
		area = t.p.CurrentDomain
	}

	rec := QuizResult{
		Timestamp: t.now(),
		Domain:    area,
		Score:     r.Score,
		Correct:   r.Correct,
		Total:     r.Total,
		Answers:   r.Answers,
		Questions: r.Questions,
	}
	t.p.QuestionsAnswered += r.Total
	t.p.CorrectAnswers += r.Correct
	t.p.QuizHistory = append(t.p.QuizHistory, rec)

	if area != "" {
		switch {
		case r.Score < quiz.PassScore:
			if !lo.Contains(t.p.WeakAreas, area) {
				t.p.WeakAreas = append(t.p.WeakAreas, area)
			}
		case r.Score >= quiz.StrongScore:
			if !lo.Contains(t.p.StrongAreas, area) {
				t.p.StrongAreas = append(t.p.StrongAreas, area)
			}
		}
	}

	t.save(ctx)
	return rec
}

// Snapshot is the read-only progress summary.
type Snapshot struct {
	QuestionsAnswered int
	CorrectAnswers    int
	Accuracy          *float64
	TopicsCovered     int
	SessionsCompleted int
	WeakAreas         []string
	StrongAreas       []string
	RecentSessions    []SessionRecord // most recent first
	CurrentDomain     string
	CurrentTopic      string
}

// AccuracyLabel formats Accuracy, "N/A" before any answer.
func (s Snapshot) AccuracyLabel() string {
	if s.Accuracy == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *s.Accuracy)
}

// Snapshot summarizes the current record.
func (t *Tracker) Snapshot() Snapshot {
	p := t.p
	recent := slices.Clone(lo.Subset(p.SessionsCompleted, -RecentSessionLimit, RecentSessionLimit))
	slices.Reverse(recent)
	return Snapshot{
		QuestionsAnswered: p.QuestionsAnswered,
		CorrectAnswers:    p.CorrectAnswers,
		Accuracy:          p.Accuracy(),
		TopicsCovered:     len(p.TopicsCovered),
		SessionsCompleted: len(p.SessionsCompleted),
		WeakAreas:         append([]string(nil), p.WeakAreas...),
		StrongAreas:       append([]string(nil), p.StrongAreas...),
		RecentSessions:    recent,
		CurrentDomain:     p.CurrentDomain,
		CurrentTopic:      p.CurrentTopic,
	}
}

// ContinueLastTopic points the student back at where they stopped.
func (t *Tracker) ContinueLastTopic() string {
	if t.p.CurrentDomain == "" {
		return "I don't see a previous topic. Let's start fresh! What domain would you like to study?"
	}
	domain := t.domainName(t.p.CurrentDomain)
	if t.p.CurrentTopic == "" {
		return fmt.Sprintf("Let's continue with %s. [break:1s] We'll move on to a new topic in this domain.", domain)
	}
	return fmt.Sprintf("Let's continue with %s in %s. [break:1s] We'll pick up right where we left off and cover some new material.",
		knowledge.DisplayName(t.p.CurrentTopic), domain)
}

func (t *Tracker) domainName(id string) string {
	if t.domains != nil {
		if d, err := t.domains.Domain(id); err == nil {
			return d.Name
		}
	}
	return knowledge.DisplayName(id)
}

func (t *Tracker) save(ctx context.Context) {
	t.p.UpdatedAt = t.now()
	if err := t.store.Save(ctx, t.studentID, t.p); err != nil {
		metrics.ProgressSaveFailures.Inc()
		slog.Error("saving progress",
			"student_id", t.studentID,
			"error", err,
		)
	}
}
