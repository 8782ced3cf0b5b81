package cqrs

// ---------- User queries ----------

// GetUserQuery fetches a single user with its profile.
type GetUserQuery struct {
	UserID int64
}

// ---------- Account queries ----------

// GetAccountQuery fetches an account with its owner and transactions.
type GetAccountQuery struct {
	AccountID int64
}

// ---------- Transaction queries ----------

// GetTransactionQuery fetches the enriched view of a single transaction.
type GetTransactionQuery struct {
	TransactionID int64
}
