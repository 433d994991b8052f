package errors

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors used to classify failures across the codebase.
// Errors are marked with one of these via the builder's Mark method and
// inspected with the Is* predicates below.
var (
	ErrValidation       = errors.New("validation_error")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyExists    = errors.New("already_exists")
	ErrVersionConflict  = errors.New("version_conflict")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrDatabase         = errors.New("database_error")
	ErrInvalidOperation = errors.New("invalid_operation")
	ErrGateway          = errors.New("gateway_error")
	ErrInternal         = errors.New("internal_error")
)

// InternalError carries a message plus optional user-facing hint and
// reportable details. It is always wrapped/marked through the builder.
type InternalError struct {
	Message           string
	Hint              string
	ReportableDetails map[string]interface{}
	cause             error
}

func (e *InternalError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Is delegates to the standard errors matching so marked sentinels resolve.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As delegates to the standard errors matching.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

func IsGateway(err error) bool {
	return errors.Is(err, ErrGateway)
}
