package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the recoverable analytics error taxonomy. Pipeline
// stages wrap these with fmt.Errorf("...: %w", ...) so callers can classify
// with errors.Is while keeping stage-specific context in the message.
var (
	// ErrMissingColumn reports that an operation's required column could not
	// be resolved on any record of the input set.
	ErrMissingColumn = errors.New("required column missing")

	// ErrInsufficientSample reports that a fit or subgroup computation had
	// fewer observations than its configured floor.
	ErrInsufficientSample = errors.New("insufficient sample")

	// ErrDegenerateVariance reports a zero standard deviation in a
	// normalization population.
	ErrDegenerateVariance = errors.New("degenerate variance")

	// ErrEncodingMismatch reports an attempt to apply a fitted model to
	// values encoded by a different fit.
	ErrEncodingMismatch = errors.New("encoding mismatch")

	// ErrMalformedInput reports input with no usable identifier columns at
	// all; the whole operation fails rather than returning fabricated rows.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotComputed reports a request for a result the pipeline has not
	// produced yet.
	ErrNotComputed = errors.New("result not computed")
)

// ErrorType categorizes analytics errors for logging and HTTP mapping.
type ErrorType string

const (
	TypeMissingColumnErr      ErrorType = "missing_column"
	TypeInsufficientSampleErr ErrorType = "insufficient_sample"
	TypeDegenerateVarianceErr ErrorType = "degenerate_variance"
	TypeEncodingMismatchErr   ErrorType = "encoding_mismatch"
	TypeMalformedInputErr     ErrorType = "malformed_input"
	TypeInternalErr           ErrorType = "internal"
)

// AnalyticsError carries an error type plus the subject/group/operation it
// was detected in. It wraps one of the sentinel errors above.
type AnalyticsError struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AnalyticsError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped sentinel.
func (e *AnalyticsError) Unwrap() error {
	return e.Err
}

// NewMissingColumn builds a MissingColumn error for an operation.
func NewMissingColumn(op, column string) *AnalyticsError {
	return &AnalyticsError{
		Type:    TypeMissingColumnErr,
		Op:      op,
		Message: fmt.Sprintf("column %q not present on any record", column),
		Err:     ErrMissingColumn,
	}
}

// NewInsufficientSample builds an InsufficientSample error with counts.
func NewInsufficientSample(op string, got, floor int) *AnalyticsError {
	return &AnalyticsError{
		Type:    TypeInsufficientSampleErr,
		Op:      op,
		Message: fmt.Sprintf("%d observations, floor is %d", got, floor),
		Err:     ErrInsufficientSample,
	}
}

// NewDegenerateVariance builds a DegenerateVariance error for a subject
// within a normalization population.
func NewDegenerateVariance(op, subject string) *AnalyticsError {
	return &AnalyticsError{
		Type:    TypeDegenerateVarianceErr,
		Op:      op,
		Message: fmt.Sprintf("population std is zero for subject %q", subject),
		Err:     ErrDegenerateVariance,
	}
}

// NewEncodingMismatch builds an EncodingMismatch error.
func NewEncodingMismatch(op, detail string) *AnalyticsError {
	return &AnalyticsError{
		Type:    TypeEncodingMismatchErr,
		Op:      op,
		Message: detail,
		Err:     ErrEncodingMismatch,
	}
}

// NewMalformedInput builds the fatal malformed-input error.
func NewMalformedInput(op, detail string) *AnalyticsError {
	return &AnalyticsError{
		Type:    TypeMalformedInputErr,
		Op:      op,
		Message: detail,
		Err:     ErrMalformedInput,
	}
}
