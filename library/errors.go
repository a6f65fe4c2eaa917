package library

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned for an expected business condition
// wraps exactly one of these; anything else is a storage failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrRuleViolation   = errors.New("rule violation")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
)

var (
	ErrBookNotFound        = fmt.Errorf("book %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrBorrowNotFound      = fmt.Errorf("borrow %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
)

var (
	ErrBookUnavailable       = fmt.Errorf("%w: book is not available", ErrRuleViolation)
	ErrBookAlreadyBorrowed   = fmt.Errorf("%w: book is already borrowed", ErrRuleViolation)
	ErrDuplicateReservation  = fmt.Errorf("%w: you already have a reservation for this book", ErrRuleViolation)
	ErrNoMatchingReservation = fmt.Errorf("%w: book is reserved by another user", ErrRuleViolation)
	ErrNotOwner              = fmt.Errorf("%w: record belongs to another user", ErrRuleViolation)
	ErrBorrowNotActive       = fmt.Errorf("%w: borrow is not active", ErrRuleViolation)
	ErrReservationNotActive  = fmt.Errorf("%w: reservation is not active", ErrRuleViolation)
	ErrUsernameTaken         = fmt.Errorf("%w: username already in use", ErrRuleViolation)
	ErrEmailTaken            = fmt.Errorf("%w: email already in use", ErrRuleViolation)
)

var (
	ErrInvalidRole   = fmt.Errorf("%w: role must be admin, student or teacher", ErrValidation)
	ErrInvalidStatus = fmt.Errorf("%w: status must be available, reserved or borrowed", ErrValidation)
	ErrMissingField  = fmt.Errorf("%w: missing required field", ErrValidation)

	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most 72 bytes", ErrValidation)
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)
