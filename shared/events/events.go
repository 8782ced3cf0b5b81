package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"

	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountDeleted = "account.deleted"

	TransactionCreated = "transaction.created"
	TransactionDeleted = "transaction.deleted"
	BalanceUpdated     = "balance.updated"
)

// Stream names
const (
	UserEventsStream        = "user.events"
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// User events
type UserCreatedEvent struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserUpdatedEvent struct {
	UserID     int64   `json:"userId"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	AccountIDs []int64 `json:"accountIds"`
}

type UserDeletedEvent struct {
	UserID int64 `json:"userId"`
}

// Account events
type AccountCreatedEvent struct {
	AccountID     int64  `json:"accountId"`
	AccountNumber string `json:"accountNumber"`
	UserID        int64  `json:"userId"`
}

type AccountUpdatedEvent struct {
	AccountID     int64  `json:"accountId"`
	AccountNumber string `json:"accountNumber"`
	UserID        int64  `json:"userId"`
}

type AccountDeletedEvent struct {
	AccountID           int64   `json:"accountId"`
	UserID              int64   `json:"userId"`
	RemovedTransactions []int64 `json:"removedTransactions"`
}

// Transaction events
type TransactionCreatedEvent struct {
	TransactionID int64           `json:"transactionId"`
	SenderID      int64           `json:"senderId"`
	ReceiverID    int64           `json:"receiverId"`
	Amount        decimal.Decimal `json:"amount"`
}

type TransactionDeletedEvent struct {
	TransactionID int64 `json:"transactionId"`
	SenderID      int64 `json:"senderId"`
	ReceiverID    int64 `json:"receiverId"`
}

type BalanceUpdatedEvent struct {
	AccountID  int64           `json:"accountId"`
	NewBalance decimal.Decimal `json:"newBalance"`
	Change     decimal.Decimal `json:"change"`
}

// DecodeData re-decodes the loosely typed Data of an event read back from a
// stream into the concrete payload type.
func DecodeData[T any](event Event) (T, error) {
	var out T
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}
