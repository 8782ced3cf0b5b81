package models

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers match on these with errors.Is; anything else coming
// out of a repository is a persistence failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrProfileNotFound     = fmt.Errorf("profile %w", ErrNotFound)
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrPartyNotFound       = fmt.Errorf("sender or receiver account %w", ErrNotFound)

	ErrInvalidAmount   = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrNegativeBalance = fmt.Errorf("%w: balance must not be negative", ErrValidation)
	ErrSubCentAmount   = fmt.Errorf("%w: amounts carry at most two decimal places", ErrValidation)
	ErrSameAccount     = fmt.Errorf("%w: sender and receiver resolve to the same account", ErrValidation)

	ErrEmailTaken      = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrUserHasAccounts = fmt.Errorf("%w: user still owns bank accounts", ErrConflict)
)
