package handler

import (
	"shared-account-ledger/internal/adapter/http/dto"
	"shared-account-ledger/internal/adapter/http/middleware"
	"shared-account-ledger/internal/core/ports"
	"shared-account-ledger/pkg/apperror"
	"shared-account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// WithdrawalHandler handles the request → approve → execute workflow.
type WithdrawalHandler struct {
	ledger ports.LedgerService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(ledger ports.LedgerService) *WithdrawalHandler {
	return &WithdrawalHandler{ledger: ledger}
}

// Request handles POST /api/v1/accounts/:id/withdrawals.
func (h *WithdrawalHandler) Request(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	w, err := h.ledger.RequestWithdrawal(c.Request.Context(), accountID, caller, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToWithdrawalResponse(w))
}

// List handles GET /api/v1/accounts/:id/withdrawals.
func (h *WithdrawalHandler) List(c *gin.Context) {
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ws, err := h.ledger.ListWithdrawals(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.WithdrawalResponse, 0, len(ws))
	for i := range ws {
		out = append(out, dto.ToWithdrawalResponse(&ws[i]))
	}
	response.OK(c, out)
}

// Approve handles POST /api/v1/accounts/:id/withdrawals/:wid/approvals.
// Idempotent: re-approval returns the unchanged count with a 200.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}
	withdrawID, ok := pathID(c, "wid")
	if !ok {
		return
	}

	count, err := h.ledger.ApproveWithdrawal(c.Request.Context(), accountID, withdrawID, caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ApproveResponse{
		AccountID:  accountID,
		WithdrawID: withdrawID,
		Approvals:  count,
	})
}

// Execute handles POST /api/v1/accounts/:id/withdrawals/:wid/execute.
func (h *WithdrawalHandler) Execute(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}
	withdrawID, ok := pathID(c, "wid")
	if !ok {
		return
	}

	amount, err := h.ledger.ExecuteWithdrawal(c.Request.Context(), accountID, withdrawID, caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ExecuteResponse{
		AccountID:  accountID,
		WithdrawID: withdrawID,
		Amount:     amount,
	})
}

// GetApprovals handles GET /api/v1/accounts/:id/withdrawals/:wid/approvals.
// The view includes approver identities for audit, not just the count.
func (h *WithdrawalHandler) GetApprovals(c *gin.Context) {
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}
	withdrawID, ok := pathID(c, "wid")
	if !ok {
		return
	}

	view, err := h.ledger.GetApprovals(c.Request.Context(), accountID, withdrawID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, view)
}
