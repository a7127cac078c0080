package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"

	// Fulfillment and settlement taxonomy.
	CodeInvalidRange      Code = "INVALID_RANGE"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeNotReady          Code = "NOT_READY"
	CodeItemNotDelivered  Code = "ITEM_NOT_DELIVERED"
	CodeAlreadyDecided    Code = "ALREADY_DECIDED"
	CodeEmptyMessage      Code = "EMPTY_MESSAGE"
	CodeExternalService   Code = "EXTERNAL_SERVICE_FAILURE"
)

// Metadata drives how a code is rendered over HTTP. When ShowMessage is set
// the caller supplied message replaces PublicMessage in the response body.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	ShowMessage    bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true, ShowMessage: true},
	CodeUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", ShowMessage: true},
	CodeForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied", ShowMessage: true},
	CodeNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", ShowMessage: true},
	CodeConflict:     {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", ShowMessage: true},
	CodeIdempotency:  {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", DetailsAllowed: true, ShowMessage: true},
	CodeRateLimit:    {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded", ShowMessage: true},
	CodeInternal:     {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:   {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},

	CodeInvalidRange:      {HTTPStatus: http.StatusBadRequest, PublicMessage: "value out of range", DetailsAllowed: true, ShowMessage: true},
	CodeInvalidTransition: {HTTPStatus: http.StatusConflict, PublicMessage: "status transition not allowed", DetailsAllowed: true, ShowMessage: true},
	CodeNotReady:          {HTTPStatus: http.StatusConflict, PublicMessage: "items are not ready", DetailsAllowed: true, ShowMessage: true},
	CodeItemNotDelivered:  {HTTPStatus: http.StatusConflict, PublicMessage: "order item has not been delivered", DetailsAllowed: true, ShowMessage: true},
	CodeAlreadyDecided:    {HTTPStatus: http.StatusConflict, PublicMessage: "refund already decided", DetailsAllowed: true, ShowMessage: true},
	CodeEmptyMessage:      {HTTPStatus: http.StatusBadRequest, PublicMessage: "message text is required", ShowMessage: true},
	CodeExternalService:   {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "external service unavailable", DetailsAllowed: true},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of the outermost typed error in the chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
