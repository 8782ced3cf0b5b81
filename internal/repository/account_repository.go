package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, account_number, balance, user_id, created_at`

// AccountWriteRepository handles state-mutating operations for bank accounts,
// including the balance moves a transfer is made of.
type AccountWriteRepository struct {
	db DBTX
}

func NewAccountWriteRepository(db DBTX) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

func (r *AccountWriteRepository) CreateAccount(ctx context.Context, account *models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (account_number, balance, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		account.AccountNumber, account.Balance, account.UserID, account.CreatedAt,
	).Scan(&account.ID)
	if err != nil {
		return translateAccountError(err, "failed to create account")
	}
	return nil
}

func (r *AccountWriteRepository) GetAccount(ctx context.Context, id int64) (*models.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts WHERE id = $1`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// FindAccountByUserID returns the user's first account by id.
func (r *AccountWriteRepository) FindAccountByUserID(ctx context.Context, userID int64) (*models.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts WHERE user_id = $1 ORDER BY id LIMIT 1`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account for user %d: %w", userID, err)
	}
	return account, nil
}

func (r *AccountWriteRepository) ListAccountIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM bank_accounts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LockAccounts takes row locks on the given accounts in ascending id order,
// so two transfers crossing the same pair of accounts cannot deadlock. Ids
// that do not exist are simply absent from the result. Must run inside a
// transaction for the locks to outlive the statement.
func (r *AccountWriteRepository) LockAccounts(ctx context.Context, ids ...int64) (map[int64]*models.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	locked := make(map[int64]*models.BankAccount, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		locked[account.ID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	return locked, nil
}

func (r *AccountWriteRepository) UpdateAccount(ctx context.Context, account *models.BankAccount) error {
	query := `
		UPDATE bank_accounts
		SET account_number = $2, balance = $3, user_id = $4
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, account.ID, account.AccountNumber, account.Balance, account.UserID)
	if err != nil {
		return translateAccountError(err, "failed to update account")
	}
	return checkRowsAffected(result, models.ErrAccountNotFound)
}

// DebitAccount subtracts amount only while the balance still covers it and
// returns the new balance. A balance that no longer covers the amount yields
// ErrInsufficientFunds.
func (r *AccountWriteRepository) DebitAccount(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE bank_accounts
		SET balance = balance - $2
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, id, amount).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrInsufficientFunds
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to debit account %d: %w", id, err)
	}
	return balance, nil
}

func (r *AccountWriteRepository) CreditAccount(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE bank_accounts
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, id, amount).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit account %d: %w", id, err)
	}
	return balance, nil
}

func (r *AccountWriteRepository) DeleteAccount(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bank_accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return checkRowsAffected(result, models.ErrAccountNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.BankAccount, error) {
	var account models.BankAccount
	err := row.Scan(&account.ID, &account.AccountNumber, &account.Balance, &account.UserID, &account.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func translateAccountError(err error, msg string) error {
	switch pqCode(err) {
	case pqForeignKeyViolation:
		return models.ErrUserNotFound
	case pqCheckViolation:
		return models.ErrNegativeBalance
	}
	return fmt.Errorf("%s: %w", msg, err)
}
