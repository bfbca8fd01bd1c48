// Package memory is an in-process implementation of the ledger storage
// ports. It backs unit and integration tests and the no-dependencies dev
// mode. Per-account serialization uses a keyed lock table with a bounded
// wait, mirroring the lock_timeout semantics of the postgres adapter.
package memory

import (
	"context"
	"sync"
	"time"

	"shared-account-ledger/internal/core/domain"
	"shared-account-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// Store holds all ledger state in process.
type Store struct {
	mu            sync.RWMutex
	accounts      map[int64]*accountRec
	accountOrder  []int64
	nextAccountID int64
	facts         []domain.Fact
	nextFactSeq   int64

	lockMu sync.Mutex
	locks  map[int64]chan struct{} // one slot per account
}

type accountRec struct {
	account     domain.Account
	withdrawals []*domain.WithdrawalRequest
}

// NewStore creates an empty in-memory ledger store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]*accountRec),
		locks:    make(map[int64]chan struct{}),
	}
}

// acquire takes the account's mutation lock, waiting at most timeout
// (0 = wait until ctx is done). Returns the release func.
func (s *Store) acquire(ctx context.Context, accountID int64, timeout time.Duration) (func(), error) {
	s.lockMu.Lock()
	ch, ok := s.locks[accountID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[accountID] = ch
	}
	s.lockMu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-expired:
		return nil, ports.ErrLockNotAvailable
	}
}

// Tx implements just enough of pgx.Tx for the memory repositories: it
// carries the lock-wait bound and releases held account locks on
// Commit/Rollback. Repositories apply writes eagerly, so Rollback does not
// undo them; the service only mutates after all checks pass.
type Tx struct {
	pgx.Tx
	store    *Store
	timeout  time.Duration
	mu       sync.Mutex
	releases []func()
	done     bool
}

func (t *Tx) addRelease(release func()) {
	t.mu.Lock()
	t.releases = append(t.releases, release)
	t.mu.Unlock()
}

func (t *Tx) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	for _, release := range t.releases {
		release()
	}
	t.releases = nil
}

// Commit releases all account locks held by the transaction.
func (t *Tx) Commit(context.Context) error {
	t.finish()
	return nil
}

// Rollback releases all account locks held by the transaction.
func (t *Tx) Rollback(context.Context) error {
	t.finish()
	return nil
}

// Transactor implements ports.DBTransactor for the in-memory store.
type Transactor struct {
	store *Store
}

// NewTransactor creates a Transactor bound to the store.
func NewTransactor(store *Store) *Transactor {
	return &Transactor{store: store}
}

// Begin starts a transaction with unbounded lock waits.
func (t *Transactor) Begin(context.Context) (pgx.Tx, error) {
	return &Tx{store: t.store}, nil
}

// BeginWithLockTimeout starts a transaction whose account-lock waits are
// bounded by timeout.
func (t *Transactor) BeginWithLockTimeout(_ context.Context, timeout time.Duration) (pgx.Tx, error) {
	return &Tx{store: t.store, timeout: timeout}, nil
}

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	cp.Owners = append([]domain.Identity(nil), a.Owners...)
	return &cp
}

func copyWithdrawal(w *domain.WithdrawalRequest) *domain.WithdrawalRequest {
	cp := *w
	cp.Approvers = append([]domain.Identity(nil), w.Approvers...)
	return &cp
}
