package cqrs

import "github.com/shopspring/decimal"

type CreateUserCommand struct {
	Name  string
	Email string
	Bio   string
}

// UpdateUserCommand leaves nil fields untouched.
type UpdateUserCommand struct {
	UserID int64
	Name   *string
	Email  *string
	Bio    *string
}

type DeleteUserCommand struct {
	UserID int64
}

// CreateAccountCommand generates an account number when AccountNumber is empty.
type CreateAccountCommand struct {
	UserID        int64
	AccountNumber string
	Balance       decimal.Decimal
}

// UpdateAccountCommand leaves nil fields untouched. A non-nil UserID re-links
// the account to that user.
type UpdateAccountCommand struct {
	AccountID     int64
	AccountNumber *string
	Balance       *decimal.Decimal
	UserID        *int64
}

type DeleteAccountCommand struct {
	AccountID int64
}

// TransferCommand moves Amount from the first account owned by SenderUserID
// to the first account owned by ReceiverUserID.
type TransferCommand struct {
	SenderUserID   int64
	ReceiverUserID int64
	Amount         decimal.Decimal
}

type DeleteTransactionCommand struct {
	TransactionID int64
}
