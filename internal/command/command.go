package command

import (
	"context"
	"log"
)

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

type userViewInvalidator interface {
	InvalidateUserView(ctx context.Context, userID int64)
}

type accountViewInvalidator interface {
	InvalidateAccountViews(ctx context.Context, ids ...int64)
}

type transactionViewInvalidator interface {
	InvalidateTransactionViews(ctx context.Context, ids ...int64)
}

// publish runs after the store transaction has committed, so a failure here
// must not fail the command.
func publish(ctx context.Context, p EventPublisher, stream, eventType string, data any) {
	if err := p.Publish(ctx, stream, eventType, data); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
