package domain

import "fmt"

// FetchErrorKind classifies why a package source could not deliver a package.
type FetchErrorKind uint8

const (
	// FetchUnreachable covers network and transport failures.
	FetchUnreachable FetchErrorKind = iota
	// FetchAuth covers rejected or missing credentials.
	FetchAuth
	// FetchRefNotFound covers a missing branch, tag, commit or version.
	FetchRefNotFound
	// FetchBinaryUnavailable means no prebuilt archive exists for the platform.
	FetchBinaryUnavailable
	// FetchSourceUnavailable means the source cannot provide a working copy.
	FetchSourceUnavailable
)

func (k FetchErrorKind) sentinel() error {
	switch k {
	case FetchAuth:
		return ErrFetchAuth
	case FetchRefNotFound:
		return ErrFetchRefNotFound
	case FetchBinaryUnavailable:
		return ErrBinaryUnavailable
	case FetchSourceUnavailable:
		return ErrSourceUnavailable
	default:
		return ErrFetchUnreachable
	}
}

// FetchError is the typed failure returned by package sources.
type FetchError struct {
	Kind FetchErrorKind
	URI  string
	Err  error
}

// NewFetchError builds a FetchError.
func NewFetchError(kind FetchErrorKind, uri string, err error) *FetchError {
	return &FetchError{Kind: kind, URI: uri, Err: err}
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind.sentinel().Error(), e.URI)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *FetchError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Retryable reports whether retrying the same request may succeed.
func (e *FetchError) Retryable() bool {
	return e.Kind == FetchUnreachable
}
