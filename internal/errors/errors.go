package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the portal packages
var (
	// Storage errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrCorruptStore     = errors.New("store contents corrupt")

	// Input errors
	ErrInvalidEmail    = errors.New("invalid email")
	ErrPasswordMissing = errors.New("password required")
	ErrPasswordsDiffer = errors.New("passwords do not match")
	ErrInvalidLocale   = errors.New("invalid locale")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
