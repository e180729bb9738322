package taskid

import "fmt"

// Kind classifies engine failures.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindDuplicateIdentifier Kind = "duplicate_identifier"
	KindInvalidIdentifier   Kind = "invalid_identifier"
)

// Error is the typed failure returned by every engine entry point.
type Error struct {
	Kind   Kind
	ID     string
	Detail string
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.ID != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.ID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches on Kind so callers can use errors.Is(err, taskid.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.ID == "" || t.ID == e.ID)
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrDuplicateIdentifier = &Error{Kind: KindDuplicateIdentifier}
	ErrInvalidIdentifier   = &Error{Kind: KindInvalidIdentifier}
)

// NotFound builds a KindNotFound error for id.
func NotFound(id string) *Error {
	return &Error{Kind: KindNotFound, ID: id}
}

// Duplicate builds a KindDuplicateIdentifier error for id.
func Duplicate(id string, detail string) *Error {
	return &Error{Kind: KindDuplicateIdentifier, ID: id, Detail: detail}
}

// Invalid builds a KindInvalidIdentifier error for id.
func Invalid(id string, detail string) *Error {
	return &Error{Kind: KindInvalidIdentifier, ID: id, Detail: detail}
}
