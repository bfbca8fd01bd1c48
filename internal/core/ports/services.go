package ports

import (
	"context"
	"time"

	"shared-account-ledger/internal/core/domain"
)

// ApprovalsView is the façade projection of a withdrawal's approval state.
type ApprovalsView struct {
	AccountID  int64                   `json:"account_id"`
	WithdrawID int64                   `json:"withdraw_id"`
	Count      int                     `json:"count"`
	Approvers  []domain.Identity       `json:"approvers"`
	Required   int                     `json:"required"`
	Status     domain.WithdrawalStatus `json:"status"`
}

// LedgerService is the command/query surface of the ledger core. Commands
// are serialized per account; queries observe consistent snapshots and may
// run concurrently with mutations.
type LedgerService interface {
	// CreateAccount registers a shared account owned by creator plus
	// otherOwners. Fails with VAL_002 on duplicate owners or exceeded limits.
	CreateAccount(ctx context.Context, creator domain.Identity, otherOwners []domain.Identity) (*domain.Account, error)
	// ListAccounts returns ids of accounts the identity co-owns, in creation
	// order. Never fails for unknown identities; returns an empty slice.
	ListAccounts(ctx context.Context, identity domain.Identity) ([]int64, error)
	// Deposit credits the account. Any identity may deposit into any
	// account. Returns the new balance.
	Deposit(ctx context.Context, accountID int64, depositor domain.Identity, amount int64) (int64, error)
	// RequestWithdrawal opens a pending withdrawal. Balance sufficiency is
	// deliberately NOT checked here; funds may arrive before execution.
	RequestWithdrawal(ctx context.Context, accountID int64, requester domain.Identity, amount int64) (*domain.WithdrawalRequest, error)
	// ApproveWithdrawal records a co-owner approval and returns the approval
	// count. Idempotent: a repeat approval returns the current count without
	// error and without double-counting.
	ApproveWithdrawal(ctx context.Context, accountID, withdrawID int64, approver domain.Identity) (int, error)
	// ExecuteWithdrawal transfers the funds once quorum is met and balance
	// suffices, atomically with the status flip. Returns the amount moved.
	ExecuteWithdrawal(ctx context.Context, accountID, withdrawID int64, caller domain.Identity) (int64, error)

	GetOwners(ctx context.Context, accountID int64) ([]domain.Identity, error)
	GetBalance(ctx context.Context, accountID int64) (int64, error)
	GetApprovals(ctx context.Context, accountID, withdrawID int64) (*ApprovalsView, error)
	ListWithdrawals(ctx context.Context, accountID int64) ([]domain.WithdrawalRequest, error)
	ListFacts(ctx context.Context, accountID int64, afterSeq int64, limit int) ([]domain.Fact, error)
}

// TokenService issues and verifies bearer identity tokens. Verification is
// all the ledger needs; issuance exists for the external layer and tests.
type TokenService interface {
	Generate(identity domain.Identity) (token string, expiresAt time.Time, err error)
	Verify(token string) (domain.Identity, error)
}
