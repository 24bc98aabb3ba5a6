package types

import (
	"errors"
	"fmt"
)

// Error kinds carried in CustomError.Type. Services only ever deal in kinds;
// the HTTP layer is the sole place kinds become status codes.
const (
	ErrValidation    = "validation"
	ErrNotAuthorized = "not_authorized"
	ErrNotFound      = "not_found"
	ErrAIService     = "ai_service"
	ErrStore         = "store"
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// NewValidation reports bad input or a failed state precondition (HTTP 400).
func NewValidation(message string) *CustomError {
	return &CustomError{Code: 400, Message: message, Type: ErrValidation}
}

// NewNotAuthorized reports an ownership violation (HTTP 403). A distinct kind,
// not a validation message, so callers map it to forbidden rather than bad request.
func NewNotAuthorized(message string) *CustomError {
	return &CustomError{Code: 403, Message: message, Type: ErrNotAuthorized}
}

// NewNotFound reports a missing entity (HTTP 404).
func NewNotFound(message string) *CustomError {
	return &CustomError{Code: 404, Message: message, Type: ErrNotFound}
}

// NewAIService reports an upstream model failure (HTTP 500). The message must
// stay generic; provider detail belongs in the server log only.
func NewAIService(message string) *CustomError {
	return &CustomError{Code: 500, Message: message, Type: ErrAIService}
}

// NewStore reports a persistence failure (HTTP 500).
func NewStore(message string) *CustomError {
	return &CustomError{Code: 500, Message: message, Type: ErrStore}
}

// IsKind reports whether err is a CustomError of the given kind.
func IsKind(err error, kind string) bool {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Type == kind
	}
	return false
}
