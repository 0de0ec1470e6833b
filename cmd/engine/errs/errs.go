// Package errs holds the error kinds shared by the engine packages.
// Callers match with errors.Is; producers wrap with fmt.Errorf("...: %w").
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrMediaLoad means a file is missing or could not be decoded.
	ErrMediaLoad = errors.New("media load failed")
	// ErrMediaPlay means the output rejected starting playback.
	ErrMediaPlay = errors.New("media playback failed")
	// ErrPersistence means the key-value store could not be read or written.
	ErrPersistence = errors.New("persistence failed")
	// ErrValidation means user input was rejected before any state changed.
	ErrValidation = errors.New("validation failed")
	// ErrImportFormat means an import file was malformed.
	ErrImportFormat = errors.New("invalid import file")
)

// Validation returns an ErrValidation with a user-facing message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Message strips the error kind prefix for display, e.g. in a notification.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, kind := range []error{ErrValidation, ErrImportFormat, ErrMediaLoad, ErrMediaPlay, ErrPersistence} {
		prefix := kind.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
