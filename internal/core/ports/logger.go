// Package ports defines the core interfaces for the application.
package ports

// Logger defines the interface for logging.
// Info and Warn report progress as it happens; Error reports failures on the error stream.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)
}
