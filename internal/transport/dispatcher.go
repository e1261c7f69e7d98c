package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/p-n-ai/exam-tutor/internal/lesson"
	"github.com/p-n-ai/exam-tutor/internal/platform/metrics"
	"github.com/p-n-ai/exam-tutor/internal/quiz"
	"github.com/p-n-ai/exam-tutor/internal/tutor"
)

const internalErrorMessage = "Sorry, something went wrong on my side. Please try that again."

type tool struct {
	required []string
	run      func(ctx context.Context, c *tutor.Conversation, a Args) (string, error)
}

func render(mode lesson.Mode) tool {
	return tool{
		required: []string{"domain", "topic"},
		run: func(ctx context.Context, c *tutor.Conversation, a Args) (string, error) {
			return c.RenderTopic(ctx, a.Domain, a.Topic, mode)
		},
	}
}

func text(fn func(c *tutor.Conversation) string) tool {
	return tool{run: func(_ context.Context, c *tutor.Conversation, _ Args) (string, error) {
		return fn(c), nil
	}}
}

func count(a Args, def int) int {
	if a.NumQuestions == nil {
		return def
	}
	return *a.NumQuestions
}

var tools = map[string]tool{
	"explain_topic":           render(lesson.ModeExplain),
	"teach_lesson":            render(lesson.ModeTeach),
	"deliver_scripted_lesson": render(lesson.ModeScripted),
	"list_topics": {
		required: []string{"domain"},
		run: func(_ context.Context, c *tutor.Conversation, a Args) (string, error) {
			return c.ListTopics(a.Domain)
		},
	},
	"list_domains": text((*tutor.Conversation).ListDomains),
	"quiz_me": {
		run: func(_ context.Context, c *tutor.Conversation, a Args) (string, error) {
			return c.StartQuiz("", count(a, quiz.MinQuestions))
		},
	},
	"quiz_domain": {
		required: []string{"domain"},
		run: func(_ context.Context, c *tutor.Conversation, a Args) (string, error) {
			return c.StartQuiz(a.Domain, count(a, quiz.DefaultCount))
		},
	},
	"list_quiz_domains": text((*tutor.Conversation).ListQuizDomains),
	"check_answer": {
		required: []string{"answer"},
		run: func(ctx context.Context, c *tutor.Conversation, a Args) (string, error) {
			return c.GradeQuiz(ctx, a.Answer)
		},
	},
	"get_progress":        text((*tutor.Conversation).Progress),
	"get_session_history": text((*tutor.Conversation).SessionHistory),
	"start_session":       text((*tutor.Conversation).StartSession),
	"end_current_session": {
		run: func(ctx context.Context, c *tutor.Conversation, _ Args) (string, error) {
			return c.EndSession(ctx), nil
		},
	},
	"continue_last_topic": text((*tutor.Conversation).ContinueLastTopic),
	"mark_topic_completed": {
		required: []string{"domain", "topic"},
		run: func(ctx context.Context, c *tutor.Conversation, a Args) (string, error) {
			return c.MarkTopicCompleted(ctx, a.Domain, a.Topic)
		},
	},
	"get_exam_overview": text((*tutor.Conversation).ExamOverview),
	"get_study_tips":    text((*tutor.Conversation).StudyTips),
}

// ToolNames lists every tool in sorted order.
func ToolNames() []string {
	names := lo.Keys(tools)
	slices.Sort(names)
	return names
}

// DispatcherConfig holds dependencies for the tool dispatcher.
type DispatcherConfig struct {
	Registry *tutor.Registry
	// RateLimit is the sustained tool calls per second allowed per student.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int
	// OriginPatterns are the host patterns allowed to open a WebSocket.
	OriginPatterns []string
	// MaxRequestSize caps an HTTP body or WebSocket frame. Defaults to 64 KiB.
	MaxRequestSize int64
	// IdleTTL drops a student's limiter after this long without calls.
	// Zero uses tutor.DefaultIdleTTL.
	IdleTTL time.Duration
	Clock   func() time.Time
}

// Dispatcher routes tool calls to a student's conversation.
type Dispatcher struct {
	registry       *tutor.Registry
	rateLimit      rate.Limit
	rateBurst      int
	originPatterns []string
	maxBody        int64
	idleTTL        time.Duration
	clock          func() time.Time

	mu        sync.Mutex
	limiters  map[string]*studentLimiter
	lastSweep time.Time
}

type studentLimiter struct {
	*rate.Limiter
	lastUsed time.Time
}

// NewDispatcher creates a tool dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	maxBody := cfg.MaxRequestSize
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	idleTTL := cfg.IdleTTL
	if idleTTL <= 0 {
		idleTTL = tutor.DefaultIdleTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Dispatcher{
		registry:       cfg.Registry,
		rateLimit:      rate.Limit(cfg.RateLimit),
		rateBurst:      burst,
		originPatterns: cfg.OriginPatterns,
		maxBody:        maxBody,
		idleTTL:        idleTTL,
		clock:          clock,
		limiters:       make(map[string]*studentLimiter),
	}
}

// Dispatch runs one tool call for a student. Failures are reported in the
// Response, never as a Go error.
func (d *Dispatcher) Dispatch(ctx context.Context, studentID string, req Request) Response {
	resp := d.dispatch(ctx, studentID, req)
	resp.ID = req.ID

	outcome := "ok"
	if resp.Error != nil {
		outcome = "user_error"
		if resp.Error.Code == CodeInternal {
			outcome = "error"
		}
	}
	toolLabel := req.Tool
	if _, ok := tools[toolLabel]; !ok {
		toolLabel = "unknown"
	}
	metrics.ToolCalls.WithLabelValues(toolLabel, outcome).Inc()
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, studentID string, req Request) Response {
	t, ok := tools[req.Tool]
	if !ok {
		return failure(CodeUnknownTool, fmt.Sprintf("Unknown tool %q.", req.Tool), ToolNames())
	}

	var args Args
	if raw := bytes.TrimSpace(req.Args); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &args); err != nil {
			return failure(CodeInvalidArgs, "The tool arguments could not be read: "+err.Error(), nil)
		}
	}
	for _, name := range t.required {
		if argValue(args, name) == "" {
			return failure(CodeMissingArgument, fmt.Sprintf("%s needs the %s argument.", req.Tool, name), nil)
		}
	}

	if !d.allow(studentID) {
		return failure(CodeRateLimited, "One moment please, I'm still working on your last request.", nil)
	}

	var out string
	err := d.registry.Do(ctx, studentID, func(c *tutor.Conversation) error {
		var err error
		out, err = t.run(ctx, c, args)
		return err
	})
	if err != nil {
		if corr, ok := tutor.UserMessage(err); ok {
			return failure(corr.Code, corr.Message, corr.Choices)
		}
		slog.Error("tool call failed",
			"tool", req.Tool,
			"student_id", studentID,
			"error", err,
		)
		return failure(CodeInternal, internalErrorMessage, nil)
	}
	return Response{OK: true, Text: out}
}

func (d *Dispatcher) allow(studentID string) bool {
	if d.rateLimit <= 0 {
		return true
	}
	d.mu.Lock()
	now := d.clock()
	if now.Sub(d.lastSweep) >= d.idleTTL {
		d.sweep(now)
	}
	l, ok := d.limiters[studentID]
	if !ok {
		l = &studentLimiter{Limiter: rate.NewLimiter(d.rateLimit, d.rateBurst)}
		d.limiters[studentID] = l
	}
	l.lastUsed = now
	d.mu.Unlock()
	return l.AllowN(now, 1)
}

// sweep drops limiters idle long enough to have refilled. Callers hold d.mu.
func (d *Dispatcher) sweep(now time.Time) {
	d.lastSweep = now
	for id, l := range d.limiters {
		if now.Sub(l.lastUsed) >= d.idleTTL && l.TokensAt(now) >= float64(d.rateBurst) {
			delete(d.limiters, id)
		}
	}
}

func argValue(a Args, name string) string {
	switch name {
	case "domain":
		return a.Domain
	case "topic":
		return a.Topic
	case "answer":
		return a.Answer
	}
	return ""
}

func failure(code, message string, choices []string) Response {
	return Response{Error: &Error{Code: code, Message: message, Choices: choices}}
}
