// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.trai.ch/protobuild/internal/core/ports"
)

// messager describes an error that can report its own message without the chain.
// zerr.Error provides it.
type messager interface {
	Message() string
}

// Logger implements ports.Logger using log/slog.
// Info and Warn records go to the output stream, Error records to the error stream.
type Logger struct {
	mu       sync.RWMutex
	out      *slog.Logger
	errOut   *slog.Logger
	jsonMode bool
	stdout   io.Writer
	stderr   io.Writer
}

var _ ports.Logger = (*Logger)(nil)

// New creates a Logger writing to os.Stdout and os.Stderr.
func New() *Logger {
	l := &Logger{stdout: os.Stdout, stderr: os.Stderr}
	l.rebuild()
	return l
}

// SetOutput replaces both destinations. Nil writers fall back to os.Stdout and os.Stderr.
func (l *Logger) SetOutput(out, errOut io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	l.stdout = out
	l.stderr = errOut
	l.rebuild()
}

// SetJSON switches between JSON and pretty logging, keeping the destinations.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

// rebuild recreates both slog loggers. Callers hold mu.
func (l *Logger) rebuild() {
	l.out = slog.New(l.handler(l.stdout))
	l.errOut = slog.New(l.handler(l.stderr))
}

func (l *Logger) handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if l.jsonMode {
		return slog.NewJSONHandler(w, opts)
	}
	return NewPrettyHandler(w, opts)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.out.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.out.Warn(msg)
}

// Error logs an error with its cause chain.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err == nil {
		return
	}

	if l.jsonMode {
		l.errOut.Error("operation failed", "error", err)
		return
	}

	l.errOut.Error(formatChain(err))
}

// formatChain renders the zerr message chain as "Error: msg" plus a "Caused by:" list.
// Joined errors are rendered one per line.
func formatChain(err error) string {
	var messages []string
	current := err

	for current != nil {
		if m, ok := current.(messager); ok {
			if msg := m.Message(); msg != "" {
				messages = append(messages, msg)
			}
			current = errors.Unwrap(current)
			continue
		}
		if joined, ok := current.(interface{ Unwrap() []error }); ok {
			var parts []string
			for _, e := range joined.Unwrap() {
				parts = append(parts, e.Error())
			}
			messages = append(messages, strings.Join(parts, "\n"))
			break
		}
		messages = append(messages, current.Error())
		break
	}

	var formattedLines []string
	for i, msg := range messages {
		lines := strings.Split(msg, "\n")

		if i == 0 {
			formattedLines = append(formattedLines, "Error: "+lines[0])
			for _, line := range lines[1:] {
				formattedLines = append(formattedLines, "       "+line)
			}
			continue
		}

		if i == 1 {
			formattedLines = append(formattedLines, "", "  Caused by:")
		}
		formattedLines = append(formattedLines, "    "+"→ "+lines[0])
		for _, line := range lines[1:] {
			formattedLines = append(formattedLines, "      "+line)
		}
	}

	return strings.Join(formattedLines, "\n")
}
