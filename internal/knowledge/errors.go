package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownDomain     = errors.New("unknown domain")
	ErrUnknownTopic      = errors.New("unknown topic")
	ErrUnknownQuizDomain = errors.New("unknown quiz domain")
	ErrIntegrity         = errors.New("content integrity")
)

// UnknownDomainError carries the valid domain ids so callers can re-prompt.
type UnknownDomainError struct {
	ID    string
	Valid []string
}

func (e *UnknownDomainError) Error() string {
	return fmt.Sprintf("unknown domain %q (valid: %s)", e.ID, strings.Join(e.Valid, ", "))
}

func (e *UnknownDomainError) Unwrap() error { return ErrUnknownDomain }

// UnknownTopicError lists every topic id of the resolved domain, plus the
// closest matches to what was asked for.
type UnknownTopicError struct {
	Domain      string
	ID          string
	Valid       []string
	Suggestions []string
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("unknown topic %q in %s (valid: %s)", e.ID, e.Domain, strings.Join(e.Valid, ", "))
}

func (e *UnknownTopicError) Unwrap() error { return ErrUnknownTopic }

// UnknownQuizDomainError is returned when no question pool exists for a domain.
type UnknownQuizDomainError struct {
	ID    string
	Valid []string
}

func (e *UnknownQuizDomainError) Error() string {
	return fmt.Sprintf("no questions for domain %q (valid: %s)", e.ID, strings.Join(e.Valid, ", "))
}

func (e *UnknownQuizDomainError) Unwrap() error { return ErrUnknownQuizDomain }

// IntegrityError collects every problem found while validating content.
type IntegrityError struct {
	Problems []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("content integrity: %d problem(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }
