package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger-service/shared/models"
)

const transactionColumns = `id, amount, sender_id, receiver_id, created_at`

// TransactionWriteRepository inserts and purges transaction rows. Rows are
// never updated.
type TransactionWriteRepository struct {
	db DBTX
}

func NewTransactionWriteRepository(db DBTX) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

func (r *TransactionWriteRepository) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (amount, sender_id, receiver_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		transaction.Amount, transaction.SenderID, transaction.ReceiverID, transaction.CreatedAt,
	).Scan(&transaction.ID)
	if err != nil {
		switch pqCode(err) {
		case pqForeignKeyViolation:
			return models.ErrPartyNotFound
		case pqCheckViolation:
			return models.ErrInvalidAmount
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionWriteRepository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction, nil
}

func (r *TransactionWriteRepository) DeleteTransactionsBySender(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	return r.deleteWhere(ctx, "sender_id", accountID)
}

func (r *TransactionWriteRepository) DeleteTransactionsByReceiver(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	return r.deleteWhere(ctx, "receiver_id", accountID)
}

// deleteWhere removes every row whose column equals accountID and returns the
// removed rows. column is one of the two fixed foreign key names above.
func (r *TransactionWriteRepository) deleteWhere(ctx context.Context, column string, accountID int64) ([]models.Transaction, error) {
	query := `DELETE FROM transactions WHERE ` + column + ` = $1 RETURNING ` + transactionColumns
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete transactions by %s: %w", column, err)
	}
	defer rows.Close()

	var removed []models.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		removed = append(removed, *transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to delete transactions by %s: %w", column, err)
	}
	return removed, nil
}

func (r *TransactionWriteRepository) DeleteTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `DELETE FROM transactions WHERE id = $1 RETURNING ` + transactionColumns
	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return transaction, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	if err := row.Scan(&t.ID, &t.Amount, &t.SenderID, &t.ReceiverID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
