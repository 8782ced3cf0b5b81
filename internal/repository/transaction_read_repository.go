package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/ledger-service/shared/models"
	sharedredis "github.com/eaglebank/ledger-service/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const transactionViewKeyPrefix = "transaction:view:"

// TransactionReadRepository handles all read operations for transactions.
// Detail views embed account numbers and owner names, which can change
// without the transaction changing, so they are cached with a TTL.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.TransactionDetailView]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.TransactionDetailView](redisClient, transactionViewKeyPrefix, ttl),
	}
}

// GetDetail returns a TransactionDetailView by attempting Redis first, then PostgreSQL.
func (r *TransactionReadRepository) GetDetail(ctx context.Context, id int64) (*models.TransactionDetailView, error) {
	if view, ok := r.cache.Get(ctx, id); ok {
		return view, nil
	}

	view, err := r.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	// Warm the cache
	r.cache.Set(ctx, id, view)
	return view, nil
}

// Refresh reloads the detail view from PostgreSQL and overwrites the cached
// entry, or drops it when the transaction is gone.
func (r *TransactionReadRepository) Refresh(ctx context.Context, id int64) (*models.TransactionDetailView, error) {
	view, err := r.loadDetail(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		r.cache.Delete(ctx, id)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, id, view)
	return view, nil
}

func (r *TransactionReadRepository) loadDetail(ctx context.Context, id int64) (*models.TransactionDetailView, error) {
	query := `
		SELECT t.id, t.amount, t.created_at,
		       s.id, s.account_number, su.name,
		       rc.id, rc.account_number, ru.name
		FROM transactions t
		JOIN bank_accounts s ON s.id = t.sender_id
		JOIN users su ON su.id = s.user_id
		JOIN bank_accounts rc ON rc.id = t.receiver_id
		JOIN users ru ON ru.id = rc.user_id
		WHERE t.id = $1
	`
	var view models.TransactionDetailView
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.Amount, &view.CreatedAt,
		&view.Sender.ID, &view.Sender.AccountNumber, &view.Sender.Name,
		&view.Receiver.ID, &view.Receiver.AccountNumber, &view.Receiver.Name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &view, nil
}

// ListWithAccounts returns every transaction with both account rows included.
func (r *TransactionReadRepository) ListWithAccounts(ctx context.Context) ([]models.TransactionWithAccounts, error) {
	query := `
		SELECT t.id, t.amount, t.sender_id, t.receiver_id, t.created_at,
		       s.id, s.account_number, s.balance, s.user_id, s.created_at,
		       rc.id, rc.account_number, rc.balance, rc.user_id, rc.created_at
		FROM transactions t
		JOIN bank_accounts s ON s.id = t.sender_id
		JOIN bank_accounts rc ON rc.id = t.receiver_id
		ORDER BY t.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	list := []models.TransactionWithAccounts{}
	for rows.Next() {
		var item models.TransactionWithAccounts
		if err := rows.Scan(
			&item.ID, &item.Amount, &item.SenderID, &item.ReceiverID, &item.CreatedAt,
			&item.Sender.ID, &item.Sender.AccountNumber, &item.Sender.Balance, &item.Sender.UserID, &item.Sender.CreatedAt,
			&item.Receiver.ID, &item.Receiver.AccountNumber, &item.Receiver.Balance, &item.Receiver.UserID, &item.Receiver.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list, nil
}

// InvalidateTransactionViews drops cached detail views of removed transactions.
func (r *TransactionReadRepository) InvalidateTransactionViews(ctx context.Context, ids ...int64) {
	r.cache.Delete(ctx, ids...)
}
