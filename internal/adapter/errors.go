package adapter

import "fmt"

// ErrKind identifies one of the adapter's hard structural error conditions.
// Errors are returned, never panicked, and compare with errors.Is against
// the package-level sentinels below.
type ErrKind int

const (
	KindWildcardInCRUD ErrKind = iota
	KindParamOnNonSequence
	KindMissingContainer
	KindParamElementAbsent
	KindParamLeafNotMapping
)

// Error is the adapter's structural error type.
type Error struct {
	Kind ErrKind
	Path string
}

func (e *Error) Error() string {
	msg := kindMessage(e.Kind)
	if e.Path == "" {
		return "adapter: " + msg
	}
	return fmt.Sprintf("adapter: %s at %q", msg, e.Path)
}

// Is compares by Kind so callers can use errors.Is(err, adapter.ErrWildcardInCRUD).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func kindMessage(k ErrKind) string {
	switch k {
	case KindWildcardInCRUD:
		return "wildcard segment in CRUD path"
	case KindParamOnNonSequence:
		return "param segment addressed a non-sequence"
	case KindMissingContainer:
		return "missing container and auto_create is disabled"
	case KindParamElementAbsent:
		return "param element absent and auto_create is disabled"
	case KindParamLeafNotMapping:
		return "param leaf target or value is not a mapping"
	}
	return "unknown adapter error"
}

// Package-level sentinels for errors.Is comparisons.
var (
	ErrWildcardInCRUD      = &Error{Kind: KindWildcardInCRUD}
	ErrParamOnNonSequence  = &Error{Kind: KindParamOnNonSequence}
	ErrMissingContainer    = &Error{Kind: KindMissingContainer}
	ErrParamElementAbsent  = &Error{Kind: KindParamElementAbsent}
	ErrParamLeafNotMapping = &Error{Kind: KindParamLeafNotMapping}
)
