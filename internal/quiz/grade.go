package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
)

var (
	ErrNoActiveQuiz        = errors.New("no active quiz")
	ErrAnswerCountMismatch = errors.New("answer count mismatch")
)

// AnswerCountMismatchError reports how many answers the active quiz expects.
type AnswerCountMismatchError struct {
	Want int
	Got  int
}

func (e *AnswerCountMismatchError) Error() string {
	return fmt.Sprintf("expected %d answer(s), got %d", e.Want, e.Got)
}

func (e *AnswerCountMismatchError) Unwrap() error { return ErrAnswerCountMismatch }

// Tier is the encouragement band a score falls into.
type Tier string

const (
	TierPerfect  Tier = "perfect"
	TierGood     Tier = "good"
	TierKeepWork Tier = "keep_studying"
)

// Passing and strong thresholds, in percent.
const (
	PassScore   = 70
	StrongScore = 90
)

// Verdict is the outcome for one question.
type Verdict struct {
	Question knowledge.Question
	Answer   string
	Correct  bool
}

// Result is a graded quiz.
type Result struct {
	Domain    string
	Questions []knowledge.Question
	Answers   []string
	Verdicts  []Verdict
	Correct   int
	Total     int
	Score     float64
}

// Grade compares answers positionally against the session's questions. On a
// count mismatch the session is left as is so the student can retry.
func Grade(s *Session, raw string) (Result, error) {
	if s == nil || len(s.Questions) == 0 {
		return Result{}, ErrNoActiveQuiz
	}
	answers := ParseAnswers(raw)
	if len(answers) != len(s.Questions) {
		return Result{}, &AnswerCountMismatchError{Want: len(s.Questions), Got: len(answers)}
	}

	r := Result{
		Domain:    s.Domain,
		Questions: append([]knowledge.Question(nil), s.Questions...),
		Answers:   answers,
		Verdicts:  make([]Verdict, len(answers)),
		Total:     len(answers),
	}
	for i, q := range s.Questions {
		ok := answers[i] == q.Correct
		if ok {
			r.Correct++
		}
		r.Verdicts[i] = Verdict{Question: q, Answer: answers[i], Correct: ok}
	}
	if r.Total > 0 {
		r.Score = 100 * float64(r.Correct) / float64(r.Total)
	}
	return r, nil
}

// Tier returns the encouragement band for the score.
func (r Result) Tier() Tier {
	switch {
	case r.Score >= 100:
		return TierPerfect
	case r.Score >= PassScore:
		return TierGood
	default:
		return TierKeepWork
	}
}

// Text renders per-question verdicts, the score line and an encouragement.
func (r Result) Text() string {
	var b strings.Builder
	b.WriteString("📊 Results:\n\n")
	for i, v := range r.Verdicts {
		if v.Correct {
			fmt.Fprintf(&b, "Q%d: ✓ Correct!\n", i+1)
		} else {
			fmt.Fprintf(&b, "Q%d: ✗ Wrong. Answer: %s\n", i+1, v.Question.Correct)
		}
		fmt.Fprintf(&b, "%s\n\n", v.Question.Explanation)
	}
	fmt.Fprintf(&b, "Score: %d/%d (%.0f%%)\n", r.Correct, r.Total, r.Score)

	switch r.Tier() {
	case TierPerfect:
		b.WriteString("🎉 Perfect!")
	case TierGood:
		b.WriteString("👍 Good work!")
	default:
		b.WriteString("📚 Keep studying!")
	}
	return b.String()
}
