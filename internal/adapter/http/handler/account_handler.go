package handler

import (
	"strconv"

	"shared-account-ledger/internal/adapter/http/dto"
	"shared-account-ledger/internal/adapter/http/middleware"
	"shared-account-ledger/internal/core/ports"
	"shared-account-ledger/pkg/apperror"
	"shared-account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account lifecycle, deposits and account queries.
type AccountHandler struct {
	ledger ports.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledger ports.LedgerService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// Create handles POST /api/v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	account, err := h.ledger.CreateAccount(c.Request.Context(), caller, dto.StringsToIdentities(req.OtherOwners))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.AccountResponse{
		ID:        account.ID,
		Owners:    dto.IdentitiesToStrings(account.Owners),
		Balance:   account.Balance,
		CreatedAt: account.CreatedAt,
	})
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	ids, err := h.ledger.ListAccounts(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AccountListResponse{
		Identity:   string(caller),
		AccountIDs: ids,
	})
}

// GetOwners handles GET /api/v1/accounts/:id/owners.
func (h *AccountHandler) GetOwners(c *gin.Context) {
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	owners, err := h.ledger.GetOwners(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.OwnersResponse{
		AccountID: accountID,
		Owners:    dto.IdentitiesToStrings(owners),
	})
}

// GetBalance handles GET /api/v1/accounts/:id/balance.
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{AccountID: accountID, Balance: balance})
}

// Deposit handles POST /api/v1/accounts/:id/deposits. Any authenticated
// identity may deposit into any account.
func (h *AccountHandler) Deposit(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	balance, err := h.ledger.Deposit(c.Request.Context(), accountID, caller, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{AccountID: accountID, Balance: balance})
}

// GetFacts handles GET /api/v1/accounts/:id/facts, the audit trail.
// Optional query params: after_seq, limit.
func (h *AccountHandler) GetFacts(c *gin.Context) {
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	afterSeq, err := strconv.ParseInt(c.DefaultQuery("after_seq", "0"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("after_seq must be an integer"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		response.Error(c, apperror.Validation("limit must be a non-negative integer"))
		return
	}

	facts, err := h.ledger.ListFacts(c.Request.Context(), accountID, afterSeq, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, facts)
}

// pathID parses a positive int64 path parameter, writing a validation error
// on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperror.Validation(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
