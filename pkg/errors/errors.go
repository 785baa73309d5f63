package errors

import (
	stdErrors "errors"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeNetwork      Code = "NETWORK_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is surfaced to the person using the client.
type Metadata struct {
	Retryable      bool
	UserMessage    string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:      false,
		UserMessage:    "please correct the highlighted fields",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		Retryable:      false,
		UserMessage:    "please sign in to continue",
		DetailsAllowed: false,
	},
	CodeForbidden: {
		Retryable:      false,
		UserMessage:    "you do not have access to this resource",
		DetailsAllowed: false,
	},
	CodeNotFound: {
		Retryable:      false,
		UserMessage:    "resource not found",
		DetailsAllowed: false,
	},
	CodeConflict: {
		Retryable:      false,
		UserMessage:    "conflict detected, please reload and try again",
		DetailsAllowed: false,
	},
	CodeRateLimit: {
		Retryable:      true,
		UserMessage:    "too many attempts, please wait a moment",
		DetailsAllowed: false,
	},
	CodeNetwork: {
		Retryable:      true,
		UserMessage:    "network error, please check your connection",
		DetailsAllowed: false,
	},
	CodeDependency: {
		Retryable:      true,
		UserMessage:    "the service is temporarily unavailable",
		DetailsAllowed: true,
	},
	CodeInternal: {
		Retryable:      false,
		UserMessage:    "something went wrong",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// FromStatus maps a backend response status to the client-side code.
func FromStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusTooManyRequests:
		return CodeRateLimit
	case status >= 400 && status < 500:
		return CodeValidation
	case status >= 500:
		return CodeDependency
	default:
		return CodeInternal
	}
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

// UserMessage returns the toast-ready text for the error. The backend's own
// message wins over the generic per-code fallback when details are allowed.
func (e *Error) UserMessage() string {
	if e == nil {
		return MetadataFor(CodeInternal).UserMessage
	}
	if e.message != "" && MetadataFor(e.code).DetailsAllowed {
		return e.message
	}
	return MetadataFor(e.code).UserMessage
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
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
