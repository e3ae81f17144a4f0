package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable error class returned to API callers.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "ValidationError"
	ErrorKindProductNotFound   ErrorKind = "ProductNotFound"
	ErrorKindInsufficientStock ErrorKind = "InsufficientStock"
	ErrorKindUnauthorized      ErrorKind = "Unauthorized"
	ErrorKindPersistence       ErrorKind = "PersistenceError"
)

// ApiError carries the kind plus a human-readable detail. The wrapped
// error is for logs only and never crosses the API boundary.
type ApiError struct {
	Kind   ErrorKind
	Detail string
	err    error
}

func (e *ApiError) Error() string {
	return e.Detail
}

func (e *ApiError) Unwrap() error {
	return e.err
}

func NewValidationError(format string, args ...interface{}) *ApiError {
	return &ApiError{Kind: ErrorKindValidation, Detail: fmt.Sprintf(format, args...)}
}

func NewProductNotFoundError(productId int) *ApiError {
	return &ApiError{Kind: ErrorKindProductNotFound, Detail: fmt.Sprintf("product %d not found", productId)}
}

func NewInsufficientStockError(name string, available int, requested int) *ApiError {
	return &ApiError{
		Kind:   ErrorKindInsufficientStock,
		Detail: fmt.Sprintf("insufficient stock for %s. Available: %d, Required: %d", name, available, requested),
	}
}

func NewUnauthorizedError(detail string) *ApiError {
	return &ApiError{Kind: ErrorKindUnauthorized, Detail: detail}
}

func NewPersistenceError(err error) *ApiError {
	return &ApiError{Kind: ErrorKindPersistence, Detail: "storage unavailable", err: err}
}

// KindOf classifies an error for response rendering; anything that is
// not an ApiError is treated as a persistence failure.
func KindOf(err error) ErrorKind {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ErrorKindPersistence
}
