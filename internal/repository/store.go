package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sort"

	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PostgreSQL error codes the write repositories translate into domain errors.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every write repository
// can run inside or outside a database transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserWriter interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateProfileBio(ctx context.Context, userID int64, bio string) (*models.Profile, error)
	DeleteProfileByUserID(ctx context.Context, userID int64) error
	DeleteUser(ctx context.Context, id int64) (*models.User, error)
}

type AccountWriter interface {
	CreateAccount(ctx context.Context, account *models.BankAccount) error
	GetAccount(ctx context.Context, id int64) (*models.BankAccount, error)
	FindAccountByUserID(ctx context.Context, userID int64) (*models.BankAccount, error)
	ListAccountIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	LockAccounts(ctx context.Context, ids ...int64) (map[int64]*models.BankAccount, error)
	UpdateAccount(ctx context.Context, account *models.BankAccount) error
	DebitAccount(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error)
	CreditAccount(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error)
	DeleteAccount(ctx context.Context, id int64) error
}

type TransactionWriter interface {
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	DeleteTransactionsBySender(ctx context.Context, accountID int64) ([]models.Transaction, error)
	DeleteTransactionsByReceiver(ctx context.Context, accountID int64) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (*models.Transaction, error)
}

// Writer is the full write side of the store.
type Writer interface {
	UserWriter
	AccountWriter
	TransactionWriter
}

// TxRunner runs fn inside one database transaction. The transaction commits
// only if fn returns nil.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(w Writer) error) error
}

type writer struct {
	*UserWriteRepository
	*AccountWriteRepository
	*TransactionWriteRepository
}

func newWriter(db DBTX) *writer {
	return &writer{
		UserWriteRepository:        NewUserWriteRepository(db),
		AccountWriteRepository:     NewAccountWriteRepository(db),
		TransactionWriteRepository: NewTransactionWriteRepository(db),
	}
}

// Store owns the connection pool and hands out transaction-bound writers.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(ctx context.Context, fn func(w Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newWriter(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("Failed to roll back transaction: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema files in name order. Every statement is
// idempotent, so it runs on each startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(files)
	for _, name := range files {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		log.Printf("Applied migration %s", name)
	}
	return nil
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func checkRowsAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
