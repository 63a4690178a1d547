package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// SiteSpec is the brief the generator turns into a site document.
type SiteSpec struct {
	Industry     string   `json:"industry"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	ContactInfo  string   `json:"contactInfo"`
	ColorPalette []string `json:"colorPalette"`
	Language     string   `json:"language"`
}

// ContentGenerator produces an opaque site document from a spec. Failures
// must be reported as *Error so callers can classify them without looking
// at provider message text.
type ContentGenerator interface {
	Generate(ctx context.Context, spec SiteSpec) (json.RawMessage, error)
}

type ErrorKind int

const (
	// KindConfiguration covers missing credentials, a disabled generator and
	// provider-reported auth or rate-limit failures. These need operator
	// action and must not be papered over.
	KindConfiguration ErrorKind = iota
	// KindTransient covers network failures, timeouts and malformed provider
	// responses. Callers are expected to degrade gracefully.
	KindTransient
)

type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConfiguration:
		return fmt.Sprintf("generator configuration: %v", e.Err)
	default:
		return fmt.Sprintf("generator transient: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies an error from a ContentGenerator. Anything that is not a
// tagged *Error counts as transient.
func KindOf(err error) ErrorKind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindTransient
}

func configurationError(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

func transientError(format string, args ...any) *Error {
	return &Error{Kind: KindTransient, Err: fmt.Errorf(format, args...)}
}
