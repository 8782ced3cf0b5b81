package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountDetailView is the read projection served by GET /accounts/:id.
type AccountDetailView struct {
	BankAccount
	User                 User          `json:"user"`
	SentTransactions     []Transaction `json:"sentTransactions"`
	ReceivedTransactions []Transaction `json:"receivedTransactions"`
}

// TransactionParty is one side of a transfer as shown in the detail view.
// Name is the display name of the user owning the account.
type TransactionParty struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"accountNumber"`
	Name          string `json:"name"`
}

// TransactionDetailView is the enriched projection served by GET /transactions/:id.
type TransactionDetailView struct {
	ID        int64            `json:"id"`
	Amount    decimal.Decimal  `json:"amount"`
	CreatedAt time.Time        `json:"createdAt"`
	Sender    TransactionParty `json:"sender"`
	Receiver  TransactionParty `json:"receiver"`
}

// TransactionWithAccounts is a list entry carrying both account rows.
type TransactionWithAccounts struct {
	Transaction
	Sender   BankAccount `json:"sender"`
	Receiver BankAccount `json:"receiver"`
}
