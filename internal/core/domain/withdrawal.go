package domain

import "time"

// WithdrawalStatus is the lifecycle state of a withdrawal request.
// Pending is the only non-terminal state; Executed is terminal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusExecuted WithdrawalStatus = "EXECUTED"
)

// WithdrawalRequest is a request by one owner to move funds out of a shared
// account. It executes only once enough co-owners have approved it. Requests
// are append-only audit records: they are never deleted, only transitioned
// to Executed.
type WithdrawalRequest struct {
	AccountID int64            `json:"account_id"`
	ID        int64            `json:"withdraw_id"` // unique per account, strictly increasing
	Requester Identity         `json:"requester"`
	Amount    int64            `json:"amount"`
	Approvers []Identity       `json:"approvers"` // approval order; never contains Requester
	Status    WithdrawalStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// HasApproved reports whether the identity already approved this request.
func (w *WithdrawalRequest) HasApproved(id Identity) bool {
	for _, a := range w.Approvers {
		if a == id {
			return true
		}
	}
	return false
}

// ApprovalCount returns the number of distinct co-owner approvals collected.
func (w *WithdrawalRequest) ApprovalCount() int {
	return len(w.Approvers)
}

// IsExecuted reports whether the request reached its terminal state.
func (w *WithdrawalRequest) IsExecuted() bool {
	return w.Status == WithdrawalStatusExecuted
}
