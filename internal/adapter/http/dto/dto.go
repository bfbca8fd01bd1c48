package dto

import (
	"time"

	"shared-account-ledger/internal/core/domain"
)

// CreateAccountRequest opens a shared account. The caller (from the bearer
// token) is always included as an owner; other_owners lists the co-owners.
type CreateAccountRequest struct {
	OtherOwners []string `json:"other_owners" binding:"omitempty,max=16,dive,identity"`
}

// DepositRequest credits an account.
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// WithdrawalRequest opens a withdrawal request for the caller.
type WithdrawalRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// AccountResponse describes an account.
type AccountResponse struct {
	ID        int64     `json:"id"`
	Owners    []string  `json:"owners"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountListResponse lists the accounts an identity co-owns, creation order.
type AccountListResponse struct {
	Identity   string  `json:"identity"`
	AccountIDs []int64 `json:"account_ids"`
}

// OwnersResponse lists an account's owners in creation order.
type OwnersResponse struct {
	AccountID int64    `json:"account_id"`
	Owners    []string `json:"owners"`
}

// BalanceResponse reports an account balance in smallest currency units.
type BalanceResponse struct {
	AccountID int64 `json:"account_id"`
	Balance   int64 `json:"balance"`
}

// WithdrawalResponse describes a withdrawal request.
type WithdrawalResponse struct {
	AccountID  int64     `json:"account_id"`
	WithdrawID int64     `json:"withdraw_id"`
	Requester  string    `json:"requester"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	Approvals  int       `json:"approvals"`
	CreatedAt  time.Time `json:"created_at"`
}

// ApproveResponse reports the approval count after an approval call.
type ApproveResponse struct {
	AccountID  int64 `json:"account_id"`
	WithdrawID int64 `json:"withdraw_id"`
	Approvals  int   `json:"approvals"`
}

// ExecuteResponse reports an executed withdrawal.
type ExecuteResponse struct {
	AccountID  int64 `json:"account_id"`
	WithdrawID int64 `json:"withdraw_id"`
	Amount     int64 `json:"amount_transferred"`
}

// ToWithdrawalResponse maps a domain withdrawal request to its DTO.
func ToWithdrawalResponse(w *domain.WithdrawalRequest) WithdrawalResponse {
	return WithdrawalResponse{
		AccountID:  w.AccountID,
		WithdrawID: w.ID,
		Requester:  string(w.Requester),
		Amount:     w.Amount,
		Status:     string(w.Status),
		Approvals:  w.ApprovalCount(),
		CreatedAt:  w.CreatedAt,
	}
}

// IdentitiesToStrings converts identities for JSON responses.
func IdentitiesToStrings(ids []domain.Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// StringsToIdentities converts request owner strings to identities.
func StringsToIdentities(ss []string) []domain.Identity {
	out := make([]domain.Identity, len(ss))
	for i, s := range ss {
		out[i] = domain.Identity(s)
	}
	return out
}
