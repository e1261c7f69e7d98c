// Package quiz selects practice questions and grades spoken answers.
package quiz

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
)

const (
	MinQuestions = 1
	MaxQuestions = 5

	// DefaultCount is used for domain quizzes when no count is given.
	DefaultCount = 3
)

const answerHint = "Tell me your answer(s) - e.g., 'A' or 'B, C, A'"

// Session is the set of questions awaiting an answer. Domain is empty when
// the questions came from the combined pool.
type Session struct {
	Domain     string
	DomainName string
	Questions  []knowledge.Question
	StartedAt  time.Time
}

// Start samples count distinct questions from pool. count is clamped to
// [MinQuestions, MaxQuestions] and then to the pool size. A nil rng uses the
// package-level source.
func Start(pool []knowledge.Question, count int, rng *rand.Rand) *Session {
	n := ClampCount(count, len(pool))

	var perm []int
	if rng != nil {
		perm = rng.Perm(len(pool))
	} else {
		perm = rand.Perm(len(pool))
	}

	questions := make([]knowledge.Question, n)
	for i := range n {
		questions[i] = pool[perm[i]]
	}
	return &Session{Questions: questions, StartedAt: time.Now()}
}

// ClampCount bounds a requested question count by the allowed range and poolSize.
func ClampCount(count, poolSize int) int {
	n := min(max(count, MinQuestions), MaxQuestions)
	return min(n, poolSize)
}

// Prompt renders the numbered questions and their options. Correct answers
// are never included.
func (s *Session) Prompt() string {
	var b strings.Builder
	if s.Domain == "" {
		fmt.Fprintf(&b, "Practice Quiz - %d Question(s)\n\n", len(s.Questions))
	} else {
		fmt.Fprintf(&b, "Practice Quiz - %s\nQuestions: %d\n\n", s.DomainName, len(s.Questions))
	}
	for i, q := range s.Questions {
		fmt.Fprintf(&b, "Q%d: %s\n", i+1, q.Prompt)
		for _, o := range q.Options {
			fmt.Fprintf(&b, "%s) %s\n", o.Label, o.Text)
		}
		b.WriteString("\n")
	}
	b.WriteString(answerHint)
	return b.String()
}

// ParseAnswers splits a comma separated answer string into upper-case letters.
// A blank string yields no answers.
func ParseAnswers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	answers := make([]string, len(parts))
	for i, p := range parts {
		answers[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	return answers
}
