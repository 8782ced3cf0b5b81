package projection

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/eaglebank/ledger-service/shared/events"
	"github.com/eaglebank/ledger-service/shared/models"
)

type userViews interface {
	Refresh(ctx context.Context, id int64) (*models.User, error)
	InvalidateUserView(ctx context.Context, userID int64)
}

type accountViews interface {
	Refresh(ctx context.Context, id int64) (*models.AccountDetailView, error)
	InvalidateAccountViews(ctx context.Context, ids ...int64)
}

type transactionViews interface {
	Refresh(ctx context.Context, id int64) (*models.TransactionDetailView, error)
	InvalidateTransactionViews(ctx context.Context, ids ...int64)
}

// Projector keeps the Redis read model warm. Command services only drop stale
// views; the projector rebuilds them from PostgreSQL once the change has been
// announced on a stream, so the next read is served from Redis. Rebuilds always
// go to PostgreSQL and overwrite the cached entry, which also replaces a view
// a concurrent reader wrote back after the invalidation.
type Projector struct {
	users        userViews
	accounts     accountViews
	transactions transactionViews
}

func NewProjector(users userViews, accounts accountViews, transactions transactionViews) *Projector {
	return &Projector{users: users, accounts: accounts, transactions: transactions}
}

// Streams lists every stream the projector consumes.
func (p *Projector) Streams() []string {
	return []string{events.UserEventsStream, events.AccountEventsStream, events.TransactionEventsStream}
}

// Handle is an events.Handler. A returned error leaves the message pending.
func (p *Projector) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.UserCreated:
		data, err := events.DecodeData[events.UserCreatedEvent](event)
		if err != nil {
			return decodeError(event, err)
		}
		return p.warmUser(ctx, data.UserID)

	case events.UserUpdated:
		data, err := events.DecodeData[events.UserUpdatedEvent](event)
		if err != nil {
			return decodeError(event, err)
		}
		if err := p.warmUser(ctx, data.UserID); err != nil {
			return err
		}
		return p.warmAccounts(ctx, data.AccountIDs...)

	case events.UserDeleted:
		data, err := events.DecodeData[events.UserDeletedEvent](event)
		if err != nil {
			return decodeError(event, err)
		}
		p.users.InvalidateUserView(ctx, data.UserID)
		return nil

	case events.AccountCreated, events.AccountUpdated:
		// Both payloads carry the same fields.
		data, err := events.DecodeData[events.AccountUpdatedEvent](event)
		if err != nil {
			return decodeError(event, err)
		}
		return p.warmAccounts(ctx, data.AccountID)

	case events.AccountDeleted:
		data, err := events.DecodeData[events.AccountDeletedEvent](event)
		if err != nil {
			return decodeError(event, err)
		}
		p.accounts.InvalidateAccountViews(ctx, data.AccountID)
		if len(data.RemovedTransactions) > 0 {
			p.transactions.InvalidateTransactionViews(ctx, data.RemovedTransactions...)
		}
		return nil

	case events.BalanceUpdated:
		data, err := events.DecodeData[events.BalanceUpdatedEvent](event)
		if err != nil {
			return decodeError(event, err)
		}
		return p.warmAccounts(ctx, data.AccountID)

	case events.TransactionCreated:
		data, err := events.DecodeData[events.TransactionCreatedEvent](event)
		if err != nil {
			return decodeError(event, err)
		}
		if _, err := p.transactions.Refresh(ctx, data.TransactionID); err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to project transaction %d: %w", data.TransactionID, err)
		}
		return p.warmAccounts(ctx, data.SenderID, data.ReceiverID)

	case events.TransactionDeleted:
		data, err := events.DecodeData[events.TransactionDeletedEvent](event)
		if err != nil {
			return decodeError(event, err)
		}
		p.transactions.InvalidateTransactionViews(ctx, data.TransactionID)
		return nil

	default:
		log.Printf("Projector ignoring event type %q", event.Type)
		return nil
	}
}

// warmUser reloads a user view. A user deleted in the meantime is skipped.
func (p *Projector) warmUser(ctx context.Context, id int64) error {
	if _, err := p.users.Refresh(ctx, id); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to project user %d: %w", id, err)
	}
	return nil
}

func (p *Projector) warmAccounts(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if _, err := p.accounts.Refresh(ctx, id); err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to project account %d: %w", id, err)
		}
	}
	return nil
}

func decodeError(event events.Event, err error) error {
	return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
}
