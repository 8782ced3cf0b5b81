package command

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/events"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/shopspring/decimal"
)

// TransactionCommandService executes transfers and removes transaction records.
type TransactionCommandService struct {
	store            repository.TxRunner
	accountViews     accountViewInvalidator
	transactionViews transactionViewInvalidator
	publisher        EventPublisher
}

func NewTransactionCommandService(
	store repository.TxRunner,
	accountViews accountViewInvalidator,
	transactionViews transactionViewInvalidator,
	publisher EventPublisher,
) *TransactionCommandService {
	return &TransactionCommandService{
		store:            store,
		accountViews:     accountViews,
		transactionViews: transactionViews,
		publisher:        publisher,
	}
}

// Transfer moves cmd.Amount from the sender user's first account to the
// receiver user's first account. The balance check, the transaction insert
// and both balance moves commit together or not at all.
func (s *TransactionCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.Transaction, error) {
	if !cmd.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if !models.IsWholeCents(cmd.Amount) {
		return nil, models.ErrSubCentAmount
	}

	var transaction *models.Transaction
	var senderBalance, receiverBalance decimal.Decimal
	err := s.store.WithTx(ctx, func(w repository.Writer) error {
		sender, err := w.FindAccountByUserID(ctx, cmd.SenderUserID)
		if err != nil {
			return partyError(err)
		}
		receiver, err := w.FindAccountByUserID(ctx, cmd.ReceiverUserID)
		if err != nil {
			return partyError(err)
		}
		if sender.ID == receiver.ID {
			return models.ErrSameAccount
		}

		locked, err := w.LockAccounts(ctx, sender.ID, receiver.ID)
		if err != nil {
			return err
		}
		// Either account may have been deleted or moved to another user
		// between the lookup and the lock.
		lockedSender, ok := locked[sender.ID]
		if !ok || lockedSender.UserID != cmd.SenderUserID {
			return models.ErrPartyNotFound
		}
		lockedReceiver, ok := locked[receiver.ID]
		if !ok || lockedReceiver.UserID != cmd.ReceiverUserID {
			return models.ErrPartyNotFound
		}
		if cmd.Amount.GreaterThan(lockedSender.Balance) {
			return models.ErrInsufficientFunds
		}

		transaction = &models.Transaction{
			Amount:     cmd.Amount,
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			CreatedAt:  time.Now().UTC(),
		}
		if err := w.CreateTransaction(ctx, transaction); err != nil {
			return err
		}
		if senderBalance, err = w.DebitAccount(ctx, sender.ID, cmd.Amount); err != nil {
			return err
		}
		receiverBalance, err = w.CreditAccount(ctx, receiver.ID, cmd.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.accountViews.InvalidateAccountViews(ctx, transaction.SenderID, transaction.ReceiverID)
	publish(ctx, s.publisher, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: transaction.ID,
		SenderID:      transaction.SenderID,
		ReceiverID:    transaction.ReceiverID,
		Amount:        transaction.Amount,
	})
	publish(ctx, s.publisher, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountID:  transaction.SenderID,
		NewBalance: senderBalance,
		Change:     transaction.Amount.Neg(),
	})
	publish(ctx, s.publisher, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountID:  transaction.ReceiverID,
		NewBalance: receiverBalance,
		Change:     transaction.Amount,
	})
	log.Printf("Transfer %d: %s from account %d to account %d",
		transaction.ID, transaction.Amount.StringFixed(2), transaction.SenderID, transaction.ReceiverID)
	return transaction, nil
}

// DeleteTransaction removes the record only. Balances are left as they are.
func (s *TransactionCommandService) DeleteTransaction(ctx context.Context, cmd cqrs.DeleteTransactionCommand) error {
	var deleted *models.Transaction
	err := s.store.WithTx(ctx, func(w repository.Writer) error {
		var err error
		deleted, err = w.DeleteTransaction(ctx, cmd.TransactionID)
		return err
	})
	if err != nil {
		return err
	}

	s.transactionViews.InvalidateTransactionViews(ctx, deleted.ID)
	s.accountViews.InvalidateAccountViews(ctx, deleted.SenderID, deleted.ReceiverID)
	publish(ctx, s.publisher, events.TransactionEventsStream, events.TransactionDeleted, events.TransactionDeletedEvent{
		TransactionID: deleted.ID,
		SenderID:      deleted.SenderID,
		ReceiverID:    deleted.ReceiverID,
	})
	return nil
}

// partyError reports a user without any account as a missing transfer party.
func partyError(err error) error {
	if errors.Is(err, models.ErrAccountNotFound) {
		return models.ErrPartyNotFound
	}
	return err
}
