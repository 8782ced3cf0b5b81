package query

import (
	"context"

	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/models"
)

// TransactionQueryService serves transaction reads.
type TransactionQueryService struct {
	readRepo *repository.TransactionReadRepository
}

func NewTransactionQueryService(readRepo *repository.TransactionReadRepository) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo}
}

// GetTransaction returns the transaction with both parties' account numbers
// and owner names.
func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionDetailView, error) {
	return s.readRepo.GetDetail(ctx, q.TransactionID)
}

// ListTransactions returns every transaction with its sender and receiver accounts.
func (s *TransactionQueryService) ListTransactions(ctx context.Context) ([]models.TransactionWithAccounts, error) {
	return s.readRepo.ListWithAccounts(ctx)
}
