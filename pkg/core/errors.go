package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass classifies build failures for handling purposes.
type ErrorClass int

const (
	// ClassConfiguration is raised before any work starts: missing or
	// unsupported parameters.
	ClassConfiguration ErrorClass = iota + 1
	// ClassIO covers failures reading or writing resources.
	ClassIO
	// ClassConsistency covers violated build invariants.
	ClassConsistency
)

// String returns the string representation of ErrorClass
func (c ErrorClass) String() string {
	switch c {
	case ClassConfiguration:
		return "configuration"
	case ClassIO:
		return "io"
	case ClassConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// Standard error variables.
var (
	// Configuration
	ErrMissingParameter        = errors.New("missing required parameter")
	ErrUnsupportedArchive      = errors.New("unsupported archive format")
	ErrUnsupportedCompression  = errors.New("unsupported compression format")
	ErrIncompatibleCompression = errors.New("compression not allowed with archive format")
	ErrUnsupportedProfile      = errors.New("unsupported packaging profile")
	ErrStagingOverlap          = errors.New("staging directory overlaps package content")
	ErrStagingNotBag           = errors.New("existing staging directory is not a bag")

	// Reservation
	ErrDuplicateResource = errors.New("resource already reserved")
	ErrUnknownResource   = errors.New("resource not reserved")

	// Consistency
	ErrUnserializedGraph  = errors.New("domain object graph not fully serialized")
	ErrUnmappedResource   = errors.New("resource missing from resource map")
	ErrMissingResourceMap = errors.New("package has no resource map")

	// ErrCancelled reports a build stopped through its context. It is never a BuildError.
	ErrCancelled = errors.New("build cancelled")
)

// BuildError wraps a failure with its class and the operation that raised it.
type BuildError struct {
	Class ErrorClass
	Op    string
	Path  string
	Err   error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	msg := e.Class.String() + " error"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *BuildError) Unwrap() error {
	return e.Err
}

// ConfigError builds a configuration-class error.
func ConfigError(op string, err error) error {
	return &BuildError{Class: ClassConfiguration, Op: op, Err: err}
}

// IOError builds an IO-class error for path.
func IOError(op, path string, err error) error {
	return &BuildError{Class: ClassIO, Op: op, Path: path, Err: err}
}

// ConsistencyError builds a consistency-class error.
func ConsistencyError(op, path string, err error) error {
	return &BuildError{Class: ClassConsistency, Op: op, Path: path, Err: err}
}

// Cancelled converts a context error into ErrCancelled, keeping the cause.
func Cancelled(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// CheckCancelled returns a cancellation error when ctx is done.
func CheckCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return Cancelled(err)
	}
	return nil
}

func classOf(err error) (ErrorClass, bool) {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Class, true
	}
	return 0, false
}

// IsConfiguration reports a configuration failure.
func IsConfiguration(err error) bool {
	c, ok := classOf(err)
	return ok && c == ClassConfiguration
}

// IsIO reports an I/O failure.
func IsIO(err error) bool {
	c, ok := classOf(err)
	return ok && c == ClassIO
}

// IsConsistency reports a violated invariant.
func IsConsistency(err error) bool {
	c, ok := classOf(err)
	return ok && c == ClassConsistency
}

// IsCancelled reports whether the build was cancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
