package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrNothingToExport is returned when an export is requested for a form
	// without responses.
	ErrNothingToExport   = errors.New("no responses to export")
	ErrSubmitInProgress  = errors.New("submission already in progress")
	ErrAlreadySubmitted  = errors.New("response already submitted")
	ErrForbidden         = errors.New("not allowed to manage this form")
	ErrRequiredAnswer    = errors.New("this question is required")
	ErrUnknownQuestion   = errors.New("unknown question type")
	ErrDuplicateQuestion = errors.New("duplicate answer for question")
)

// ValidationError maps question ids to the message shown next to them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	ids := make([]string, 0, len(e.Fields))
	for id := range e.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return "invalid answers for questions: " + strings.Join(ids, ", ")
}

// NetworkError reports a failed call to the forms API, either a transport
// failure (Err set) or a non-success status.
type NetworkError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }
