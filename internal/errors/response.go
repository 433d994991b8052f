package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorDetail is the wire representation of a single error.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse builds the wire representation for an error. The hint is
// preferred as the public message; the raw internal message is only used when
// no hint was provided. Stack traces never reach the response.
func NewErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: "An unexpected error occurred",
			Code:    codeFromErr(err),
		},
	}

	var ie *InternalError
	if errors.As(err, &ie) {
		if ie.Hint != "" {
			resp.Error.Message = ie.Hint
		} else {
			resp.Error.Message = ie.Message
		}
		resp.Error.Details = ie.ReportableDetails
	} else if err != nil {
		resp.Error.Message = err.Error()
	}

	return resp
}

// HTTPStatusFromErr maps error classes to HTTP status codes.
func HTTPStatusFromErr(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err), IsVersionConflict(err):
		return http.StatusConflict
	case IsPermissionDenied(err):
		return http.StatusUnauthorized
	case IsInvalidOperation(err):
		return http.StatusUnprocessableEntity
	case IsGateway(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeFromErr(err error) string {
	switch {
	case IsValidation(err):
		return "validation_error"
	case IsNotFound(err):
		return "not_found"
	case IsAlreadyExists(err):
		return "already_exists"
	case IsVersionConflict(err):
		return "version_conflict"
	case IsPermissionDenied(err):
		return "permission_denied"
	case IsInvalidOperation(err):
		return "invalid_operation"
	case IsGateway(err):
		return "gateway_error"
	case IsDatabase(err):
		return "database_error"
	default:
		return "internal_error"
	}
}
