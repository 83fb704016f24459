package core

import (
	"context"
	"errors"
)

// Kind classifies an Error for callers that decide how to react to it:
// retry, report to the user, or fall back.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindRemote
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRemote:
		return "remote"
	case KindExternal:
		return "external"
	}
	return "internal"
}

// Error is the structured error returned by ledger operations.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any Error carrying the same code, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of the sentinel with err attached as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: err}
}

// WithMessage returns a copy of the sentinel with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg, Err: e.Err}
}

// KindOf classifies err. Context cancellation counts as internal, anything
// unrecognised too.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether a remote operation that failed with err may be
// attempted again.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch KindOf(err) {
	case KindValidation, KindNotFound:
		return false
	}
	return true
}

// Validation errors.
var (
	ErrInvalidAmount          = &Error{Kind: KindValidation, Code: "INVALID_AMOUNT", Message: "amount must be greater than zero"}
	ErrInvalidTransactionType = &Error{Kind: KindValidation, Code: "INVALID_TRANSACTION_TYPE", Message: "type must be income or expense"}
	ErrInvalidPaymentMethod   = &Error{Kind: KindValidation, Code: "INVALID_PAYMENT_METHOD", Message: "payment method must be cash, credit, debit or pix"}
	ErrInvalidAccountType     = &Error{Kind: KindValidation, Code: "INVALID_ACCOUNT_TYPE", Message: "account type must be checking, savings, investment or cash"}
	ErrCategoryRequired       = &Error{Kind: KindValidation, Code: "CATEGORY_REQUIRED", Message: "category is required"}
	ErrCategoryTypeMismatch   = &Error{Kind: KindValidation, Code: "CATEGORY_TYPE_MISMATCH", Message: "category type does not match transaction type"}
	ErrAccountRequired        = &Error{Kind: KindValidation, Code: "ACCOUNT_REQUIRED", Message: "account is required"}
	ErrDateRequired           = &Error{Kind: KindValidation, Code: "DATE_REQUIRED", Message: "date is required"}
	ErrDescriptionTooLong     = &Error{Kind: KindValidation, Code: "DESCRIPTION_TOO_LONG", Message: "description too long (max 100 characters)"}
	ErrEmptyName              = &Error{Kind: KindValidation, Code: "EMPTY_NAME", Message: "name cannot be empty"}
	ErrInvalidInput           = &Error{Kind: KindValidation, Code: "INVALID_INPUT", Message: "invalid input"}
)

// Not-found errors.
var (
	ErrTransactionNotFound = &Error{Kind: KindNotFound, Code: "TRANSACTION_NOT_FOUND", Message: "transaction not found"}
	ErrGoalNotFound        = &Error{Kind: KindNotFound, Code: "GOAL_NOT_FOUND", Message: "goal not found"}
	ErrSubGoalNotFound     = &Error{Kind: KindNotFound, Code: "SUB_GOAL_NOT_FOUND", Message: "sub-goal not found"}
	ErrCategoryNotFound    = &Error{Kind: KindNotFound, Code: "CATEGORY_NOT_FOUND", Message: "category not found"}
	ErrAccountNotFound     = &Error{Kind: KindNotFound, Code: "ACCOUNT_NOT_FOUND", Message: "account not found"}
)

// Infrastructure errors.
var (
	ErrRemote   = &Error{Kind: KindRemote, Code: "REMOTE_ERROR", Message: "remote operation failed"}
	ErrExternal = &Error{Kind: KindExternal, Code: "EXTERNAL_ERROR", Message: "external service unavailable"}
	ErrInternal = &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
)
