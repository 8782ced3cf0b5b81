package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/middleware"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.BankAccount, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*models.BankAccount, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountDetailView, error)
	ListAccounts(context.Context) ([]models.BankAccount, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

// CreateAccountRequest leaves accountNumber optional; a number is generated
// when it is omitted. An omitted balance opens the account at zero.
type CreateAccountRequest struct {
	UserID        int64            `json:"userId" validate:"required,gt=0"`
	AccountNumber string           `json:"accountNumber" validate:"omitempty,max=32"`
	Balance       *decimal.Decimal `json:"balance" validate:"omitempty,gte=0,cents"`
}

type UpdateAccountRequest struct {
	AccountNumber *string          `json:"accountNumber" validate:"omitempty,min=1,max=32"`
	Balance       *decimal.Decimal `json:"balance" validate:"omitempty,gte=0,cents"`
	UserID        *int64           `json:"userId" validate:"omitempty,gt=0"`
}

type ListAccountsResponse struct {
	Accounts []models.BankAccount `json:"accounts"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	cmd := cqrs.CreateAccountCommand{
		UserID:        req.UserID,
		AccountNumber: req.AccountNumber,
	}
	if req.Balance != nil {
		cmd.Balance = *req.Balance
	}

	account, err := h.commands.CreateAccount(c.Request.Context(), cmd)
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.queries.ListAccounts(c.Request.Context())
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list accounts")
		return
	}

	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: accounts})
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountID, ok := middleware.ParseIDParam(c, "accountId")
	if !ok {
		return
	}

	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{AccountID: accountID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to get account")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	accountID, ok := middleware.ParseIDParam(c, "accountId")
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		AccountID:     accountID,
		AccountNumber: req.AccountNumber,
		Balance:       req.Balance,
		UserID:        req.UserID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to update account")
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	accountID, ok := middleware.ParseIDParam(c, "accountId")
	if !ok {
		return
	}

	err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{AccountID: accountID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Account and its transactions deleted"})
}
