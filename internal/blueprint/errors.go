package blueprint

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat is returned for an unsupported file extension.
	ErrUnknownFormat = errors.New("unknown blueprint format")

	// ErrInvalidSpec is returned when a decoded blueprint is inconsistent.
	ErrInvalidSpec = errors.New("invalid blueprint")

	// ErrWatcherClosed is returned by Run after Close.
	ErrWatcherClosed = errors.New("blueprint watcher is closed")
)

// ParseError represents a decoding failure.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
