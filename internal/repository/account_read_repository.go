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

const accountViewKeyPrefix = "account:view:"

// AccountReadRepository serves account read projections. Redis is the primary
// read store; a miss falls back to PostgreSQL and warms the cache. Entries
// expire after ttl so a view written back by a racing reader cannot outlive it.
type AccountReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.AccountDetailView]
}

func NewAccountReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *AccountReadRepository {
	return &AccountReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.AccountDetailView](redisClient, accountViewKeyPrefix, ttl),
	}
}

// List returns every account, straight from PostgreSQL.
func (r *AccountReadRepository) List(ctx context.Context) ([]models.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM bank_accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.BankAccount{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// GetDetail returns the account with its owner and both transaction lists.
func (r *AccountReadRepository) GetDetail(ctx context.Context, id int64) (*models.AccountDetailView, error) {
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

// Refresh reloads the detail view from PostgreSQL and overwrites whatever is
// cached. An account that no longer exists has its entry dropped.
func (r *AccountReadRepository) Refresh(ctx context.Context, id int64) (*models.AccountDetailView, error) {
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

func (r *AccountReadRepository) loadDetail(ctx context.Context, id int64) (*models.AccountDetailView, error) {
	query := `
		SELECT a.id, a.account_number, a.balance, a.user_id, a.created_at,
		       u.id, u.name, u.email, u.created_at
		FROM bank_accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1
	`
	view := models.AccountDetailView{
		SentTransactions:     []models.Transaction{},
		ReceivedTransactions: []models.Transaction{},
	}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.AccountNumber, &view.Balance, &view.UserID, &view.CreatedAt,
		&view.User.ID, &view.User.Name, &view.User.Email, &view.User.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE sender_id = $1 OR receiver_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.SenderID == id {
			view.SentTransactions = append(view.SentTransactions, *t)
		} else {
			view.ReceivedTransactions = append(view.ReceivedTransactions, *t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load account transactions: %w", err)
	}
	return &view, nil
}

// InvalidateAccountViews drops the cached detail views. Called after every
// commit that touches an account's row or its transactions.
func (r *AccountReadRepository) InvalidateAccountViews(ctx context.Context, ids ...int64) {
	r.cache.Delete(ctx, ids...)
}
