package domain

import (
	"time"

	"github.com/google/uuid"
)

// FactKind identifies the state transition a fact records.
type FactKind string

const (
	FactAccountCreated      FactKind = "account_created"
	FactDeposited           FactKind = "deposited"
	FactWithdrawalRequested FactKind = "withdrawal_requested"
	FactWithdrawalApproved  FactKind = "withdrawal_approved"
	FactWithdrawn           FactKind = "withdrawn"
)

// Fact is an immutable record of a successful mutation. Facts form the
// append-only audit trail: Seq is a store-assigned logical timestamp,
// strictly increasing across the whole ledger, and the ordered stream is
// sufficient to rebuild current state from empty (see Replay).
type Fact struct {
	ID         uuid.UUID   `json:"id"`
	Seq        int64       `json:"seq"` // assigned by the store on append
	AccountID  int64       `json:"account_id"`
	Kind       FactKind    `json:"kind"`
	Payload    FactPayload `json:"payload"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// FactPayload carries the kind-specific fields of a fact. Unused fields are
// zero and omitted from the JSON encoding.
type FactPayload struct {
	Owners     []Identity `json:"owners,omitempty"`      // account_created
	Actor      Identity   `json:"actor,omitempty"`       // depositor, requester, approver or executor
	Amount     int64      `json:"amount,omitempty"`      // deposited, withdrawal_requested, withdrawn
	WithdrawID int64      `json:"withdraw_id,omitempty"` // withdrawal_* and withdrawn
}

func newFact(accountID int64, kind FactKind, payload FactPayload, at time.Time) *Fact {
	return &Fact{
		ID:         uuid.New(),
		AccountID:  accountID,
		Kind:       kind,
		Payload:    payload,
		RecordedAt: at,
	}
}

// NewAccountCreatedFact records account creation with its full owner set.
func NewAccountCreatedFact(accountID int64, owners []Identity, at time.Time) *Fact {
	return newFact(accountID, FactAccountCreated, FactPayload{Owners: owners}, at)
}

// NewDepositedFact records a balance increase by depositor.
func NewDepositedFact(accountID int64, depositor Identity, amount int64, at time.Time) *Fact {
	return newFact(accountID, FactDeposited, FactPayload{Actor: depositor, Amount: amount}, at)
}

// NewWithdrawalRequestedFact records the opening of a withdrawal request.
func NewWithdrawalRequestedFact(accountID, withdrawID int64, requester Identity, amount int64, at time.Time) *Fact {
	return newFact(accountID, FactWithdrawalRequested, FactPayload{Actor: requester, Amount: amount, WithdrawID: withdrawID}, at)
}

// NewWithdrawalApprovedFact records a first-time approval by a co-owner.
// Idempotent approval replays append no fact.
func NewWithdrawalApprovedFact(accountID, withdrawID int64, approver Identity, at time.Time) *Fact {
	return newFact(accountID, FactWithdrawalApproved, FactPayload{Actor: approver, WithdrawID: withdrawID}, at)
}

// NewWithdrawnFact records an executed withdrawal and the amount transferred.
func NewWithdrawnFact(accountID, withdrawID int64, executor Identity, amount int64, at time.Time) *Fact {
	return newFact(accountID, FactWithdrawn, FactPayload{Actor: executor, Amount: amount, WithdrawID: withdrawID}, at)
}
