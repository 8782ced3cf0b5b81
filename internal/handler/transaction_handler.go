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

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	Transfer(context.Context, cqrs.TransferCommand) (*models.Transaction, error)
	DeleteTransaction(context.Context, cqrs.DeleteTransactionCommand) error
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	GetTransaction(context.Context, cqrs.GetTransactionQuery) (*models.TransactionDetailView, error)
	ListTransactions(context.Context) ([]models.TransactionWithAccounts, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
}

// TransferRequest names the sending and receiving users; each resolves to the
// user's first bank account.
type TransferRequest struct {
	SenderID   int64           `json:"senderId" validate:"required,gt=0"`
	ReceiverID int64           `json:"receiverId" validate:"required,gt=0,nefield=SenderID"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0,cents"`
}

type ListTransactionsResponse struct {
	Transactions []models.TransactionWithAccounts `json:"transactions"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	transaction, err := h.commands.Transfer(c.Request.Context(), cqrs.TransferCommand{
		SenderUserID:   req.SenderID,
		ReceiverUserID: req.ReceiverID,
		Amount:         req.Amount,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to execute transfer")
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	transactions, err := h.queries.ListTransactions(c.Request.Context())
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: transactions})
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transactionID, ok := middleware.ParseIDParam(c, "transactionId")
	if !ok {
		return
	}

	view, err := h.queries.GetTransaction(c.Request.Context(), cqrs.GetTransactionQuery{TransactionID: transactionID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to get transaction")
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteTransaction removes the record only; balances are not reversed.
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	transactionID, ok := middleware.ParseIDParam(c, "transactionId")
	if !ok {
		return
	}

	err := h.commands.DeleteTransaction(c.Request.Context(), cqrs.DeleteTransactionCommand{TransactionID: transactionID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to delete transaction")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted"})
}
