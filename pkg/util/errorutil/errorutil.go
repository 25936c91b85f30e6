package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes exposed to API clients.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	CodeSelfDeletion       = "SELF_DELETION"
	CodeNotFound           = "NOT_FOUND"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeUpstreamTimeout    = "UPSTREAM_TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewInvalidCredentials is returned for both unknown usernames and wrong passwords.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "invalid username or password", http.StatusUnauthorized, nil)
}

func NewUnauthenticated(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewDuplicateAccount(username string) error {
	return NewDomainError(CodeDuplicateAccount, "username already exists", http.StatusBadRequest,
		map[string]any{"username": username})
}

func NewSelfDeletion() error {
	return NewDomainError(CodeSelfDeletion, "cannot delete your own account", http.StatusBadRequest, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUpstreamError reports a failed CRM call. A zero status means the request
// never produced a response and maps to 502.
func NewUpstreamError(status int, body string, err error) error {
	httpStatus := status
	if httpStatus < 400 {
		httpStatus = http.StatusBadGateway
	}
	details := map[string]any{}
	if status > 0 {
		details["upstream_status"] = status
	}
	if body != "" {
		details["body"] = body
	}
	msg := "CRM request failed"
	if status > 0 {
		msg = fmt.Sprintf("CRM API error: %d", status)
	}
	return &DomainError{
		Code:       CodeUpstream,
		Message:    msg,
		HTTPStatus: httpStatus,
		Details:    details,
		Err:        err,
	}
}

func NewUpstreamTimeout(err error) error {
	return &DomainError{
		Code:       CodeUpstreamTimeout,
		Message:    "CRM request timed out",
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Kind returns the machine-readable code carried by err, or "" when err is nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}

// IsKind reports whether err carries the given code.
func IsKind(err error, code string) bool {
	return err != nil && Kind(err) == code
}
