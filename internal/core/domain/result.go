package domain

import "go.trai.ch/zerr"

// Result is the tagged response envelope used by package servers: exactly one of Success or
// Error is set.
type Result[T any] struct {
	Success *T     `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Unwrap returns the success value, or the server's error message as an error.
func (r Result[T]) Unwrap() (*T, error) {
	if r.Error != "" {
		return nil, zerr.With(zerr.Wrap(ErrRepositoryResponse, r.Error), "server_error", r.Error)
	}
	if r.Success == nil {
		return nil, zerr.Wrap(ErrRepositoryResponse, "response has neither result nor error")
	}
	return r.Success, nil
}
