package query

import (
	"context"

	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/models"
)

type AccountQueryService struct {
	readRepo *repository.AccountReadRepository
}

func NewAccountQueryService(readRepo *repository.AccountReadRepository) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

// GetAccount returns the account with its owner and both transaction lists.
func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountDetailView, error) {
	return s.readRepo.GetDetail(ctx, q.AccountID)
}

func (s *AccountQueryService) ListAccounts(ctx context.Context) ([]models.BankAccount, error) {
	return s.readRepo.List(ctx)
}
