package memory

import (
	"context"
	"fmt"

	"shared-account-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository on the in-memory store.
type AccountRepo struct {
	store *Store
}

// NewAccountRepo creates an AccountRepo bound to the store.
func NewAccountRepo(store *Store) *AccountRepo {
	return &AccountRepo{store: store}
}

func (r *AccountRepo) Create(_ context.Context, _ pgx.Tx, a *domain.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccountID++
	a.ID = s.nextAccountID
	s.accounts[a.ID] = &accountRec{account: *copyAccount(a)}
	s.accountOrder = append(s.accountOrder, a.ID)
	return nil
}

func (r *AccountRepo) Get(_ context.Context, id int64) (*domain.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return copyAccount(&rec.account), nil
}

// GetForUpdate acquires the account's mutation lock (bounded by the
// transaction's timeout) before reading, serializing mutations per account.
func (r *AccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	memTx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory repo requires memory.Tx, got %T", tx)
	}
	release, err := r.store.acquire(ctx, id, memTx.timeout)
	if err != nil {
		return nil, err
	}
	memTx.addRelease(release)
	return r.Get(ctx, id)
}

func (r *AccountRepo) ListByOwner(_ context.Context, identity domain.Identity) ([]int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int64
	for _, id := range s.accountOrder {
		if s.accounts[id].account.IsOwner(identity) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *AccountRepo) CountByOwner(ctx context.Context, identity domain.Identity) (int, error) {
	ids, err := r.ListByOwner(ctx, identity)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *AccountRepo) UpdateBalance(_ context.Context, _ pgx.Tx, id int64, balance int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("account not found: %d", id)
	}
	rec.account.Balance = balance
	return nil
}

func (r *AccountRepo) SetNextWithdrawID(_ context.Context, _ pgx.Tx, id int64, next int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("account not found: %d", id)
	}
	rec.account.NextWithdrawID = next
	return nil
}

// WithdrawalRepo implements ports.WithdrawalRepository on the in-memory store.
type WithdrawalRepo struct {
	store *Store
}

// NewWithdrawalRepo creates a WithdrawalRepo bound to the store.
func NewWithdrawalRepo(store *Store) *WithdrawalRepo {
	return &WithdrawalRepo{store: store}
}

func (r *WithdrawalRepo) find(accountID, withdrawID int64) *domain.WithdrawalRequest {
	rec, ok := r.store.accounts[accountID]
	if !ok {
		return nil
	}
	for _, w := range rec.withdrawals {
		if w.ID == withdrawID {
			return w
		}
	}
	return nil
}

func (r *WithdrawalRepo) Create(_ context.Context, _ pgx.Tx, w *domain.WithdrawalRequest) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.accounts[w.AccountID]
	if !ok {
		return fmt.Errorf("account not found: %d", w.AccountID)
	}
	rec.withdrawals = append(rec.withdrawals, copyWithdrawal(w))
	return nil
}

func (r *WithdrawalRepo) Get(_ context.Context, accountID, withdrawID int64) (*domain.WithdrawalRequest, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	w := r.find(accountID, withdrawID)
	if w == nil {
		return nil, nil
	}
	return copyWithdrawal(w), nil
}

func (r *WithdrawalRepo) GetForUpdate(ctx context.Context, _ pgx.Tx, accountID, withdrawID int64) (*domain.WithdrawalRequest, error) {
	// Serialization comes from the account lock taken by
	// AccountRepo.GetForUpdate earlier in the same transaction.
	return r.Get(ctx, accountID, withdrawID)
}

func (r *WithdrawalRepo) List(_ context.Context, accountID int64) ([]domain.WithdrawalRequest, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.accounts[accountID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.WithdrawalRequest, 0, len(rec.withdrawals))
	for _, w := range rec.withdrawals {
		out = append(out, *copyWithdrawal(w))
	}
	return out, nil
}

func (r *WithdrawalRepo) AddApproval(_ context.Context, _ pgx.Tx, accountID, withdrawID int64, approver domain.Identity) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	w := r.find(accountID, withdrawID)
	if w == nil {
		return false, fmt.Errorf("withdrawal not found: %d/%d", accountID, withdrawID)
	}
	if w.HasApproved(approver) {
		return false, nil
	}
	w.Approvers = append(w.Approvers, approver)
	return true, nil
}

func (r *WithdrawalRepo) MarkExecuted(_ context.Context, _ pgx.Tx, accountID, withdrawID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	w := r.find(accountID, withdrawID)
	if w == nil {
		return fmt.Errorf("withdrawal not found: %d/%d", accountID, withdrawID)
	}
	if w.Status != domain.WithdrawalStatusPending {
		return fmt.Errorf("withdrawal %d/%d not pending", accountID, withdrawID)
	}
	w.Status = domain.WithdrawalStatusExecuted
	return nil
}

// FactRepo implements ports.FactRepository on the in-memory store.
type FactRepo struct {
	store *Store
}

// NewFactRepo creates a FactRepo bound to the store.
func NewFactRepo(store *Store) *FactRepo {
	return &FactRepo{store: store}
}

func (r *FactRepo) Append(_ context.Context, _ pgx.Tx, f *domain.Fact) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextFactSeq++
	f.Seq = s.nextFactSeq
	s.facts = append(s.facts, *f)
	return nil
}

func (r *FactRepo) ListByAccount(_ context.Context, accountID int64, afterSeq int64, limit int) ([]domain.Fact, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Fact
	for _, f := range s.facts {
		if f.AccountID != accountID || f.Seq <= afterSeq {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *FactRepo) ListAll(_ context.Context, afterSeq int64, limit int) ([]domain.Fact, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Fact
	for _, f := range s.facts {
		if f.Seq <= afterSeq {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
