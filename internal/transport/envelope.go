// Package transport exposes the tutor tools to a voice agent over HTTP and
// WebSocket using a small JSON envelope.
package transport

import "encoding/json"

// Error codes that are not tutor corrections.
const (
	CodeUnknownTool     = "unknown_tool"
	CodeInvalidArgs     = "invalid_args"
	CodeMissingArgument = "missing_argument"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal"
)

// Request is one tool call.
type Request struct {
	ID   string          `json:"id,omitempty"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response answers one Request. Text is what the agent should say.
type Response struct {
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok"`
	Text  string `json:"text,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a failed call. Message is safe to speak to the student.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Choices []string `json:"choices,omitempty"`
}

// Args is the union of every tool's arguments.
type Args struct {
	Domain       string `json:"domain,omitempty"`
	Topic        string `json:"topic,omitempty"`
	NumQuestions *int   `json:"num_questions,omitempty"`
	Answer       string `json:"answer,omitempty"`
}
