package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder provides a fluent API for constructing classified errors:
//
//	ierr.NewError("plan not found").
//		WithHint("Plan does not exist or was deleted").
//		Mark(ierr.ErrNotFound)
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts a builder with the given internal message.
func NewError(message string) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{Message: message}}
}

// NewErrorf starts a builder with a formatted internal message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return NewError(fmt.Sprintf(format, args...))
}

// WithError starts a builder wrapping an underlying cause.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{Message: "error", cause: err}}
}

// WithMessage overrides the internal message.
func (b *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	b.err.Message = message
	return b
}

// WithHint attaches a short, user-facing hint.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.Hint = hint
	return b
}

// WithHintf attaches a formatted user-facing hint.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err.Hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details safe to expose to callers.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err.ReportableDetails = details
	return b
}

// Mark finalizes the builder, marking the error with the given sentinel so
// Is* predicates match while keeping the original message and wrapped cause.
func (b *ErrorBuilder) Mark(mark error) error {
	return errors.Mark(b.err, mark)
}
