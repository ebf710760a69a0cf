package req

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. Typed errors below match them via errors.Is.
var (
	ErrValueNotFound      = errors.New("value not found")
	ErrCircularReference  = errors.New("circular reference")
	ErrMissingMethod      = errors.New("missing definition of method and url")
	ErrDuplicateMethod    = errors.New("duplicate definition of method and url")
	ErrBodyConflict       = errors.New("multiple body definitions")
	ErrMalformedMultipart = errors.New("malformed multipart entry")
	ErrInvalidField       = errors.New("invalid field")
	ErrTaskNotFound       = errors.New("task not defined")
)

// InterpolationErrorKind distinguishes the two ways placeholder resolution can fail.
type InterpolationErrorKind int

const (
	KindValueNotFound InterpolationErrorKind = iota
	KindCircularReference
)

// InterpolationError reports the variable name that could not be resolved.
type InterpolationError struct {
	Kind InterpolationErrorKind
	Name string
}

func (e *InterpolationError) Error() string {
	if e.Kind == KindCircularReference {
		return fmt.Sprintf("found circular reference in %q", e.Name)
	}
	return fmt.Sprintf("value named %q not defined", e.Name)
}

// Is lets callers match with ErrValueNotFound / ErrCircularReference.
func (e *InterpolationError) Is(target error) bool {
	switch target {
	case ErrValueNotFound:
		return e.Kind == KindValueNotFound
	case ErrCircularReference:
		return e.Kind == KindCircularReference
	}
	return false
}

func valueNotFound(name string) error {
	return &InterpolationError{Kind: KindValueNotFound, Name: name}
}

func circularReference(name string) error {
	return &InterpolationError{Kind: KindCircularReference, Name: name}
}

// DefinitionError is raised while decoding a document when a task has an invalid shape.
// Task is empty for document-level fields.
type DefinitionError struct {
	Task  string
	Field string
	Err   error
}

func (e *DefinitionError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Task != "" {
		msg = fmt.Sprintf("task %q: %s", e.Task, msg)
	}
	return msg
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

func invalidField(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidField, fmt.Sprintf(format, args...))
}

// IsDefinitionError reports whether err (or any error it wraps) is a *DefinitionError.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}
