package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies a failure so handlers can map it to an HTTP status and
// clients can branch on it without parsing messages.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindInvalidAmount   Kind = "invalid_amount"
	KindCompliance      Kind = "compliance_error"
	KindNotFound        Kind = "not_found"
	KindOfferingNotOpen Kind = "offering_not_open"
	KindAlreadySettled  Kind = "already_settled"
	KindUnderSubscribed Kind = "under_subscribed"
	KindNoPendingOrders Kind = "no_pending_orders"
	KindStorage         Kind = "storage_error"
)

// Error is the structured error returned by services. Details carries
// machine-readable context (e.g. the shortfall on an under-subscription).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails attaches machine-readable context and returns the error.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// KindOf extracts the kind from err, or KindStorage when err is not an
// *Error (unexpected failures are treated as transient storage errors).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorage
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// DetailsOf returns the details map from err, or nil.
func DetailsOf(err error) map[string]interface{} {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Details
	}
	return nil
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput, KindInvalidAmount, KindOfferingNotOpen,
		KindAlreadySettled, KindUnderSubscribed, KindNoPendingOrders:
		return fiber.StatusBadRequest
	case KindCompliance:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
