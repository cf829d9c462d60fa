package payment

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies a checkout failure for log triage.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryProvider      Category = "provider"
	CategoryValidation    Category = "validation"
	CategoryType          Category = "type"
)

// GenericMessage is the only error text a checkout caller ever sees.
const GenericMessage = "We couldn't start the payment. Please try again or contact us."

// Error is a categorised checkout failure.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("checkout %s error: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status a category maps to.
func (e *Error) Status() int {
	switch e.Category {
	case CategoryValidation, CategoryType:
		return http.StatusBadRequest
	case CategoryProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func categorized(c Category, err error) *Error {
	return &Error{Category: c, Err: err}
}

// CategoryOf returns the category of err, or configuration if err is not
// a checkout error.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryConfiguration
}
