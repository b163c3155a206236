package types

import (
	"net/http"

	appErr "github.com/scopeforge/engine/pkg/errors"
)

// FromAppError converts err into the wire error. Internal failures hide their cause.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	e, ok := appErr.As(err)
	if !ok {
		return &APIError{Code: string(appErr.CodeInternal), Message: "internal error"}
	}
	if e.Code == appErr.CodeInternal || e.Code == appErr.CodeUnknown {
		return &APIError{Code: string(appErr.CodeInternal), Message: "internal error"}
	}
	out := &APIError{Code: string(e.Code), Message: e.Message}
	if len(e.Meta) > 0 {
		out.Details = e.Meta
	}
	return out
}

// StatusFor maps an error code onto its HTTP status.
func StatusFor(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeInvalid, appErr.CodeBadRequest:
		return http.StatusBadRequest
	case appErr.CodeForbidden:
		return http.StatusForbidden
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeConflict, appErr.CodeAlreadyExists:
		return http.StatusConflict
	case appErr.CodeUpstreamFailure:
		return http.StatusBadGateway
	case appErr.CodeUnavailable:
		return http.StatusServiceUnavailable
	case appErr.CodeDeadline:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
