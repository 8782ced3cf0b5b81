package command

import (
	"context"
	"time"

	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/events"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/utils"
	"github.com/shopspring/decimal"
)

// AccountCommandService writes account state and keeps the read model in sync.
type AccountCommandService struct {
	store            repository.TxRunner
	accountViews     accountViewInvalidator
	transactionViews transactionViewInvalidator
	publisher        EventPublisher
}

func NewAccountCommandService(
	store repository.TxRunner,
	accountViews accountViewInvalidator,
	transactionViews transactionViewInvalidator,
	publisher EventPublisher,
) *AccountCommandService {
	return &AccountCommandService{
		store:            store,
		accountViews:     accountViews,
		transactionViews: transactionViews,
		publisher:        publisher,
	}
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.BankAccount, error) {
	if err := checkBalance(cmd.Balance); err != nil {
		return nil, err
	}
	account := &models.BankAccount{
		AccountNumber: cmd.AccountNumber,
		Balance:       cmd.Balance,
		UserID:        cmd.UserID,
		CreatedAt:     time.Now().UTC(),
	}
	if account.AccountNumber == "" {
		account.AccountNumber = utils.GenerateAccountNumber()
	}
	err := s.store.WithTx(ctx, func(w repository.Writer) error {
		return w.CreateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
	})
	return account, nil
}

// UpdateAccount applies the non-nil fields of cmd. A non-nil UserID moves the
// account to that user, who must exist.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.BankAccount, error) {
	if cmd.Balance != nil {
		if err := checkBalance(*cmd.Balance); err != nil {
			return nil, err
		}
	}
	var account *models.BankAccount
	err := s.store.WithTx(ctx, func(w repository.Writer) error {
		var err error
		account, err = w.GetAccount(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		if cmd.AccountNumber != nil {
			account.AccountNumber = *cmd.AccountNumber
		}
		if cmd.Balance != nil {
			account.Balance = *cmd.Balance
		}
		if cmd.UserID != nil {
			exists, err := w.UserExists(ctx, *cmd.UserID)
			if err != nil {
				return err
			}
			if !exists {
				return models.ErrUserNotFound
			}
			account.UserID = *cmd.UserID
		}
		return w.UpdateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.accountViews.InvalidateAccountViews(ctx, account.ID)
	publish(ctx, s.publisher, events.AccountEventsStream, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
	})
	return account, nil
}

// DeleteAccount removes every transaction the account sent, then every one it
// received, then the account itself, all in one transaction.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	var account *models.BankAccount
	var removed []models.Transaction
	err := s.store.WithTx(ctx, func(w repository.Writer) error {
		locked, err := w.LockAccounts(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		var ok bool
		if account, ok = locked[cmd.AccountID]; !ok {
			return models.ErrAccountNotFound
		}

		sent, err := w.DeleteTransactionsBySender(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		received, err := w.DeleteTransactionsByReceiver(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		removed = append(sent, received...)

		return w.DeleteAccount(ctx, cmd.AccountID)
	})
	if err != nil {
		return err
	}

	transactionIDs := make([]int64, 0, len(removed))
	touched := []int64{account.ID}
	seen := map[int64]bool{account.ID: true}
	for _, t := range removed {
		transactionIDs = append(transactionIDs, t.ID)
		for _, id := range []int64{t.SenderID, t.ReceiverID} {
			if !seen[id] {
				seen[id] = true
				touched = append(touched, id)
			}
		}
	}
	s.accountViews.InvalidateAccountViews(ctx, touched...)
	if len(transactionIDs) > 0 {
		s.transactionViews.InvalidateTransactionViews(ctx, transactionIDs...)
	}

	publish(ctx, s.publisher, events.AccountEventsStream, events.AccountDeleted, events.AccountDeletedEvent{
		AccountID:           account.ID,
		UserID:              account.UserID,
		RemovedTransactions: transactionIDs,
	})
	return nil
}

func checkBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return models.ErrNegativeBalance
	}
	if !models.IsWholeCents(balance) {
		return models.ErrSubCentAmount
	}
	return nil
}
