package tutor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/quiz"
)

// Correction codes returned to the tool caller.
const (
	CodeUnknownDomain       = "unknown_domain"
	CodeUnknownTopic        = "unknown_topic"
	CodeUnknownQuizDomain   = "unknown_quiz_domain"
	CodeNoScriptedLesson    = "no_scripted_lesson"
	CodeNoActiveQuiz        = "no_active_quiz"
	CodeAnswerCountMismatch = "answer_count_mismatch"
)

// Correction is the corrective prompt for a user input error. Choices lists
// valid values the student can pick from, when there are any.
type Correction struct {
	Code    string
	Message string
	Choices []string
}

// UserMessage turns a user input error into a corrective prompt. It reports
// false for errors that are not the student's to fix.
func UserMessage(err error) (Correction, bool) {
	var (
		unknownDomain *knowledge.UnknownDomainError
		unknownTopic  *knowledge.UnknownTopicError
		unknownPool   *knowledge.UnknownQuizDomainError
		noScript      *NoScriptedLessonError
		mismatch      *quiz.AnswerCountMismatchError
	)

	switch {
	case errors.As(err, &unknownTopic):
		msg := fmt.Sprintf("I couldn't find %q in %s.", unknownTopic.ID, unknownTopic.Domain)
		if len(unknownTopic.Suggestions) > 0 {
			msg += fmt.Sprintf(" Did you mean %s?", unknownTopic.Suggestions[0])
		}
		msg += " Available topics: " + strings.Join(unknownTopic.Valid, ", ")
		return Correction{Code: CodeUnknownTopic, Message: msg, Choices: unknownTopic.Valid}, true

	case errors.As(err, &unknownDomain):
		return Correction{
			Code:    CodeUnknownDomain,
			Message: "Use " + strings.Join(unknownDomain.Valid, ", "),
			Choices: unknownDomain.Valid,
		}, true

	case errors.As(err, &unknownPool):
		return Correction{
			Code:    CodeUnknownQuizDomain,
			Message: "Invalid domain. Available domains: " + strings.Join(unknownPool.Valid, ", "),
			Choices: unknownPool.Valid,
		}, true

	case errors.As(err, &noScript):
		return Correction{
			Code:    CodeNoScriptedLesson,
			Message: fmt.Sprintf("No scripted lesson available for %s. Try using 'teach_lesson' or 'explain_topic' instead.", noScript.Topic),
			Choices: []string{"teach_lesson", "explain_topic"},
		}, true

	case errors.Is(err, quiz.ErrNoActiveQuiz):
		return Correction{
			Code:    CodeNoActiveQuiz,
			Message: "No active quiz. Use quiz_me or quiz_domain first!",
			Choices: []string{"quiz_me", "quiz_domain"},
		}, true

	case errors.As(err, &mismatch):
		return Correction{
			Code:    CodeAnswerCountMismatch,
			Message: fmt.Sprintf("Provide %d answer(s)", mismatch.Want),
		}, true
	}
	return Correction{}, false
}
