package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Profile   *Profile  `json:"profile,omitempty"`
}

type Profile struct {
	ID     int64  `json:"id"`
	Bio    string `json:"bio"`
	UserID int64  `json:"userId"`
}

// MoneyScale is the number of fractional digits every stored amount keeps.
const MoneyScale = 2

// IsWholeCents reports whether d fits a NUMERIC(20,2) column without rounding.
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// BankAccount balance is stored as NUMERIC(20,2) and may never drop below zero.
type BankAccount struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	UserID        int64           `json:"userId"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Transaction records one transfer. Rows are never updated after insert.
type Transaction struct {
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	SenderID   int64           `json:"senderId"`
	ReceiverID int64           `json:"receiverId"`
	CreatedAt  time.Time       `json:"createdAt"`
}
