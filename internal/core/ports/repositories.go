package ports

import (
	"context"
	"errors"
	"time"

	"shared-account-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ErrLockNotAvailable is returned by *ForUpdate methods when the per-account
// lock could not be acquired within the configured bound. No mutation has
// occurred; the caller may retry.
var ErrLockNotAvailable = errors.New("account lock not available")

// AccountRepository defines persistence operations for accounts and the
// owner index. Methods accepting pgx.Tx run inside transaction blocks and
// rely on pessimistic row locking for per-account serialization.
type AccountRepository interface {
	// Create stores a fresh account and assigns its strictly increasing ID.
	Create(ctx context.Context, tx pgx.Tx, account *domain.Account) error
	// Get fetches an account with its ordered owner set, without locking.
	// Returns nil, nil if unknown.
	Get(ctx context.Context, id int64) (*domain.Account, error)
	// GetForUpdate fetches an account under an exclusive row lock. Must be
	// called within a transaction. Returns nil, nil if unknown and
	// ErrLockNotAvailable if the lock wait exceeded its bound.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error)
	// ListByOwner returns ids of accounts the identity co-owns, in creation order.
	ListByOwner(ctx context.Context, identity domain.Identity) ([]int64, error)
	// CountByOwner returns how many accounts the identity currently co-owns.
	CountByOwner(ctx context.Context, identity domain.Identity) (int, error)
	// UpdateBalance sets the account balance within a transaction.
	UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance int64) error
	// SetNextWithdrawID advances the per-account withdraw id allocator.
	SetNextWithdrawID(ctx context.Context, tx pgx.Tx, id int64, next int64) error
}

// WithdrawalRepository defines persistence for withdrawal requests and their
// approval sets. Requests are append-only: never deleted, only transitioned.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error
	// Get fetches a request with its approvers in approval order, as a single
	// consistent snapshot. Returns nil, nil if unknown.
	Get(ctx context.Context, accountID, withdrawID int64) (*domain.WithdrawalRequest, error)
	// GetForUpdate is Get under the enclosing transaction's account lock.
	GetForUpdate(ctx context.Context, tx pgx.Tx, accountID, withdrawID int64) (*domain.WithdrawalRequest, error)
	// List returns all requests of an account in insertion order.
	List(ctx context.Context, accountID int64) ([]domain.WithdrawalRequest, error)
	// AddApproval records an approval. Returns false if the approver had
	// already approved (idempotent replay), true if newly added.
	AddApproval(ctx context.Context, tx pgx.Tx, accountID, withdrawID int64, approver domain.Identity) (bool, error)
	// MarkExecuted flips the request to its terminal state.
	MarkExecuted(ctx context.Context, tx pgx.Tx, accountID, withdrawID int64) error
}

// FactRepository is the append-only audit log. Append assigns the fact's
// strictly increasing Seq; facts are never updated or deleted.
type FactRepository interface {
	Append(ctx context.Context, tx pgx.Tx, f *domain.Fact) error
	// ListByAccount returns facts for one account with Seq > afterSeq,
	// ascending, at most limit (0 = no limit).
	ListByAccount(ctx context.Context, accountID int64, afterSeq int64, limit int) ([]domain.Fact, error)
	// ListAll returns the whole stream in Seq order, for state reconstruction.
	ListAll(ctx context.Context, afterSeq int64, limit int) ([]domain.Fact, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	// BeginWithLockTimeout starts a transaction whose row-lock waits are
	// bounded by timeout, so one slow caller cannot starve others.
	BeginWithLockTimeout(ctx context.Context, timeout time.Duration) (pgx.Tx, error)
}

// ProjectionCache is a best-effort read cache for hot façade queries.
// A miss or a cache error always falls through to the store; mutations
// invalidate the affected keys.
type ProjectionCache interface {
	GetBalance(ctx context.Context, accountID int64) (int64, bool, error)
	SetBalance(ctx context.Context, accountID int64, balance int64) error
	InvalidateBalance(ctx context.Context, accountID int64) error
	GetApprovals(ctx context.Context, accountID, withdrawID int64) ([]byte, error)
	SetApprovals(ctx context.Context, accountID, withdrawID int64, view []byte) error
	InvalidateApprovals(ctx context.Context, accountID, withdrawID int64) error
}

// HealthChecker verifies one dependency is reachable.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
