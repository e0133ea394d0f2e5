package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Access errors
var (
	ErrInvalidRole     = errors.New("invalid role")
	ErrProfileNotFound = errors.New("profile not found")
)

// User errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrUserInactive        = errors.New("user is inactive")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
)

// Loan errors
var (
	ErrLoanNotFound          = errors.New("loan not found")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrLoanNotOpen           = errors.New("loan is not open")
	ErrPaymentExceedsBalance = errors.New("payment exceeds remaining balance")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
)

// Reminder errors
var (
	ErrRunInProgress        = errors.New("reminder run already in progress")
	ErrChannelDisabled      = errors.New("notification channel disabled")
	ErrGeneratorUnavailable = errors.New("text generation unavailable")
	ErrMissingPhone         = errors.New("customer has no phone number")
)
