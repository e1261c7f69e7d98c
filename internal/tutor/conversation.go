// Package tutor implements the tool operations a voice agent calls during a
// tutoring conversation.
package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/lesson"
	"github.com/p-n-ai/exam-tutor/internal/platform/metrics"
	"github.com/p-n-ai/exam-tutor/internal/progress"
	"github.com/p-n-ai/exam-tutor/internal/quiz"
)

// NoScriptedLessonError names the topic that has no stored lesson.
type NoScriptedLessonError struct {
	Domain string
	Topic  string
}

func (e *NoScriptedLessonError) Error() string {
	return fmt.Sprintf("no scripted lesson for %s/%s", e.Domain, e.Topic)
}

func (e *NoScriptedLessonError) Unwrap() error { return lesson.ErrNoScriptedLesson }

// Conversation is one student's tutoring state: their progress and, while a
// quiz is awaiting answers, the active quiz. It is not safe for concurrent
// use; Registry serializes access.
type Conversation struct {
	catalog *knowledge.Catalog
	tracker *progress.Tracker
	events  EventLogger
	rng     *rand.Rand

	activeQuiz *quiz.Session
}

// NewConversation wires a conversation around an opened tracker. A nil rng
// samples quizzes from the package-level source.
func NewConversation(catalog *knowledge.Catalog, tracker *progress.Tracker, events EventLogger, rng *rand.Rand) *Conversation {
	if events == nil {
		events = NopEventLogger{}
	}
	return &Conversation{
		catalog: catalog,
		tracker: tracker,
		events:  events,
		rng:     rng,
	}
}

// StudentID returns the student this conversation belongs to.
func (c *Conversation) StudentID() string {
	return c.tracker.StudentID()
}

// ActiveQuiz returns the quiz awaiting answers, or nil.
func (c *Conversation) ActiveQuiz() *quiz.Session {
	return c.activeQuiz
}

// Snapshot returns the progress summary.
func (c *Conversation) Snapshot() progress.Snapshot {
	return c.tracker.Snapshot()
}

// Record returns a copy of the full progress record.
func (c *Conversation) Record() *progress.StudentProgress {
	return c.tracker.Progress()
}

// ListTopics renders the topics of a domain with their descriptions.
func (c *Conversation) ListTopics(domainID string) (string, error) {
	d, topics, err := c.catalog.ListTopics(domainID)
	if err != nil {
		return "", err
	}
	return topicListText(d, topics), nil
}

// RenderTopic renders a topic in the given mode and marks it covered.
func (c *Conversation) RenderTopic(ctx context.Context, domainID, topicID string, mode lesson.Mode) (string, error) {
	d, t, err := c.catalog.Topic(domainID, topicID)
	if err != nil {
		return "", err
	}

	text, err := lesson.Render(mode, d, t)
	if err != nil {
		if mode == lesson.ModeScripted {
			return "", &NoScriptedLessonError{Domain: d.ID, Topic: t.ID}
		}
		return "", err
	}

	added := c.tracker.MarkTopicCovered(ctx, d.ID, t.ID)
	metrics.TopicsCovered.WithLabelValues(d.ID, string(mode)).Inc()
	c.logEvent(EventTopicCovered, map[string]any{
		"domain": d.ID,
		"topic":  t.ID,
		"mode":   string(mode),
		"new":    added,
	})
	return text, nil
}

// MarkTopicCompleted records a topic as covered without rendering it.
func (c *Conversation) MarkTopicCompleted(ctx context.Context, domainID, topicID string) (string, error) {
	d, t, err := c.catalog.Topic(domainID, topicID)
	if err != nil {
		return "", err
	}
	added := c.tracker.MarkTopicCovered(ctx, d.ID, t.ID)
	c.logEvent(EventTopicCovered, map[string]any{
		"domain": d.ID,
		"topic":  t.ID,
		"mode":   "completed",
		"new":    added,
	})
	return fmt.Sprintf("Great! I've marked %s as completed. [break:1s] You're making excellent progress through %s!",
		knowledge.DisplayName(t.ID), d.Name), nil
}

// StartQuiz samples a quiz from one domain's pool, or from every domain when
// domainID is empty, and makes it the active quiz. Any unanswered quiz is
// discarded.
func (c *Conversation) StartQuiz(domainID string, count int) (string, error) {
	var (
		pool []knowledge.Question
		d    knowledge.Domain
		err  error
	)
	if domainID == "" {
		pool = c.catalog.AllQuestions()
	} else {
		if pool, err = c.catalog.Pool(domainID); err != nil {
			return "", err
		}
		if d, err = c.catalog.Domain(domainID); err != nil {
			return "", err
		}
	}

	s := quiz.Start(pool, count, c.rng)
	s.Domain, s.DomainName = d.ID, d.Name

	if c.activeQuiz != nil {
		slog.Info("replacing unanswered quiz",
			"student_id", c.StudentID(),
			"questions", len(c.activeQuiz.Questions),
		)
	}
	c.activeQuiz = s

	label := s.Domain
	if label == "" {
		label = "all"
	}
	metrics.QuizzesStarted.WithLabelValues(label).Inc()
	c.logEvent(EventQuizStarted, map[string]any{
		"domain":    label,
		"questions": questionIDs(s.Questions),
	})
	return s.Prompt(), nil
}

// GradeQuiz grades the active quiz. A count mismatch keeps the quiz active so
// the student can answer again; a successful grade consumes it.
func (c *Conversation) GradeQuiz(ctx context.Context, answers string) (string, error) {
	r, err := quiz.Grade(c.activeQuiz, answers)
	if err != nil {
		return "", err
	}
	c.activeQuiz = nil

	rec := c.tracker.RecordQuizResult(ctx, r)

	metrics.QuizzesGraded.WithLabelValues(string(r.Tier())).Inc()
	metrics.AnswersGraded.WithLabelValues("true").Add(float64(r.Correct))
	metrics.AnswersGraded.WithLabelValues("false").Add(float64(r.Total - r.Correct))
	c.logEvent(EventQuizGraded, map[string]any{
		"domain":  rec.Domain,
		"score":   r.Score,
		"correct": r.Correct,
		"total":   r.Total,
	})
	slog.Info("quiz graded",
		"student_id", c.StudentID(),
		"domain", rec.Domain,
		"score", strconv.FormatFloat(r.Score, 'f', 0, 64),
	)
	return r.Text(), nil
}

// StartSession opens a session and returns the welcome text.
func (c *Conversation) StartSession() string {
	text := c.tracker.StartSession()
	c.logEvent(EventSessionStarted, nil)
	return text
}

// EndSession closes the session and persists progress.
func (c *Conversation) EndSession(ctx context.Context) string {
	sessionID := c.tracker.CurrentSessionID()
	if rec := c.tracker.EndSession(ctx); rec != nil {
		c.logSessionEvent(sessionID, EventSessionEnded, map[string]any{
			"duration_seconds": int(rec.EndedAt.Sub(rec.StartedAt).Seconds()),
		})
	}
	return "Great session today! I've saved your progress and we'll pick up right where we left off next time. See you then!"
}

// ContinueLastTopic points the student back at where they stopped.
func (c *Conversation) ContinueLastTopic() string {
	return c.tracker.ContinueLastTopic()
}

func (c *Conversation) logEvent(eventType string, data map[string]any) {
	c.logSessionEvent(c.tracker.CurrentSessionID(), eventType, data)
}

func (c *Conversation) logSessionEvent(sessionID, eventType string, data map[string]any) {
	err := c.events.LogEvent(Event{
		StudentID: c.StudentID(),
		SessionID: sessionID,
		EventType: eventType,
		Data:      data,
	})
	if err != nil {
		slog.Warn("failed to log event",
			"type", eventType,
			"student_id", c.StudentID(),
			"error", err,
		)
	}
}

func questionIDs(qs []knowledge.Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
