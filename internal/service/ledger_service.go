package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"shared-account-ledger/internal/core/domain"
	"shared-account-ledger/internal/core/ports"
	"shared-account-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerPolicies bundles the product policies the ledger core enforces.
type LedgerPolicies struct {
	Quorum              domain.QuorumPolicy
	MaxOwners           int
	MaxAccountsPerOwner int
	LockTimeout         time.Duration
}

// LedgerServiceImpl implements ports.LedgerService. Every mutation runs in a
// transaction holding the account's exclusive row lock, so quorum and
// balance checks are atomic with the state they gate. The fact append shares
// that transaction: a committed mutation and its audit fact are inseparable.
type LedgerServiceImpl struct {
	accounts    ports.AccountRepository
	withdrawals ports.WithdrawalRepository
	facts       ports.FactRepository
	cache       ports.ProjectionCache // nil disables projection caching
	transactor  ports.DBTransactor
	policies    LedgerPolicies
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	accounts ports.AccountRepository,
	withdrawals ports.WithdrawalRepository,
	facts ports.FactRepository,
	cache ports.ProjectionCache,
	transactor ports.DBTransactor,
	policies LedgerPolicies,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if policies.Quorum == nil {
		policies.Quorum = domain.UnanimousOthers
	}
	return &LedgerServiceImpl{
		accounts:    accounts,
		withdrawals: withdrawals,
		facts:       facts,
		cache:       cache,
		transactor:  transactor,
		policies:    policies,
		log:         log,
	}
}

// ==================== Commands ====================

// CreateAccount registers a shared account owned by creator and otherOwners.
func (s *LedgerServiceImpl) CreateAccount(ctx context.Context, creator domain.Identity, otherOwners []domain.Identity) (*domain.Account, error) {
	owners, ok := domain.BuildOwnerSet(creator, otherOwners)
	if !ok {
		return nil, apperror.ErrInvalidOwners("duplicate owner")
	}
	if len(owners) > s.policies.MaxOwners {
		return nil, apperror.ErrInvalidOwners(
			fmt.Sprintf("at most %d owners allowed, got %d", s.policies.MaxOwners, len(owners)))
	}
	if s.policies.MaxAccountsPerOwner > 0 {
		for _, o := range owners {
			n, err := s.accounts.CountByOwner(ctx, o)
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("count accounts for %s: %w", o, err))
			}
			if n >= s.policies.MaxAccountsPerOwner {
				return nil, apperror.ErrInvalidOwners(
					fmt.Sprintf("owner %s already co-owns %d accounts", o, n))
			}
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	account := &domain.Account{
		Owners:         owners,
		Balance:        0,
		NextWithdrawID: 1,
		CreatedAt:      now,
	}
	if err := s.accounts.Create(ctx, dbTx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	if err := s.facts.Append(ctx, dbTx, domain.NewAccountCreatedFact(account.ID, owners, now)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append fact: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("account_id", account.ID).
		Int("owners", len(owners)).
		Msg("account created")

	return account, nil
}

// Deposit credits the account and returns the new balance. Any identity may
// deposit into any account; only existence and amount are checked.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, accountID int64, depositor domain.Identity, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.beginLocked(ctx)
	if err != nil {
		return 0, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockAccount(ctx, dbTx, accountID)
	if err != nil {
		return 0, err
	}

	if account.Balance > math.MaxInt64-amount {
		return 0, apperror.ErrInvalidAmount()
	}
	newBalance := account.Balance + amount

	if err := s.accounts.UpdateBalance(ctx, dbTx, accountID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	now := time.Now().UTC()
	if err := s.facts.Append(ctx, dbTx, domain.NewDepositedFact(accountID, depositor, amount, now)); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("append fact: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.invalidateBalance(ctx, accountID)

	s.log.Info().
		Int64("account_id", accountID).
		Str("depositor", string(depositor)).
		Int64("amount", amount).
		Int64("balance", newBalance).
		Msg("deposit applied")

	return newBalance, nil
}

// RequestWithdrawal opens a pending withdrawal request. Balance sufficiency
// is checked at execution time, not here: approvals may accumulate before
// funds arrive.
func (s *LedgerServiceImpl) RequestWithdrawal(ctx context.Context, accountID int64, requester domain.Identity, amount int64) (*domain.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.beginLocked(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockAccount(ctx, dbTx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsOwner(requester) {
		return nil, apperror.ErrNotAnOwner()
	}

	withdrawID := account.NextWithdrawID
	if err := s.accounts.SetNextWithdrawID(ctx, dbTx, accountID, withdrawID+1); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("advance withdraw id: %w", err))
	}

	now := time.Now().UTC()
	w := &domain.WithdrawalRequest{
		AccountID: accountID,
		ID:        withdrawID,
		Requester: requester,
		Amount:    amount,
		Status:    domain.WithdrawalStatusPending,
		CreatedAt: now,
	}
	if err := s.withdrawals.Create(ctx, dbTx, w); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create withdrawal: %w", err))
	}

	if err := s.facts.Append(ctx, dbTx, domain.NewWithdrawalRequestedFact(accountID, withdrawID, requester, amount, now)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append fact: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("account_id", accountID).
		Int64("withdraw_id", withdrawID).
		Str("requester", string(requester)).
		Int64("amount", amount).
		Msg("withdrawal requested")

	return w, nil
}

// ApproveWithdrawal records a co-owner approval and returns the approval
// count. Re-approval by the same identity is an idempotent no-op returning
// the current count; the requester may never approve their own request.
func (s *LedgerServiceImpl) ApproveWithdrawal(ctx context.Context, accountID, withdrawID int64, approver domain.Identity) (int, error) {
	dbTx, err := s.beginLocked(ctx)
	if err != nil {
		return 0, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockAccount(ctx, dbTx, accountID)
	if err != nil {
		return 0, err
	}
	if !account.IsOwner(approver) {
		return 0, apperror.ErrNotAnOwner()
	}

	w, err := s.withdrawals.GetForUpdate(ctx, dbTx, accountID, withdrawID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get withdrawal: %w", err))
	}
	if w == nil {
		return 0, apperror.ErrWithdrawalNotFound()
	}
	if w.IsExecuted() {
		return 0, apperror.ErrAlreadyExecuted()
	}
	if w.Requester == approver {
		return 0, apperror.ErrSelfApproval()
	}

	added, err := s.withdrawals.AddApproval(ctx, dbTx, accountID, withdrawID, approver)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("add approval: %w", err))
	}

	count := w.ApprovalCount()
	if added {
		count++
		now := time.Now().UTC()
		if err := s.facts.Append(ctx, dbTx, domain.NewWithdrawalApprovedFact(accountID, withdrawID, approver, now)); err != nil {
			return 0, apperror.InternalError(fmt.Errorf("append fact: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.invalidateApprovals(ctx, accountID, withdrawID)

	if added {
		s.log.Info().
			Int64("account_id", accountID).
			Int64("withdraw_id", withdrawID).
			Str("approver", string(approver)).
			Int("approvals", count).
			Msg("withdrawal approved")
	}

	return count, nil
}

// ExecuteWithdrawal moves the funds once quorum is met and balance suffices.
// The quorum check, balance check, balance decrement and status flip are one
// atomic step under the account lock: no observer can see quorum met with
// the request still pending and the balance already reduced, or vice versa.
func (s *LedgerServiceImpl) ExecuteWithdrawal(ctx context.Context, accountID, withdrawID int64, caller domain.Identity) (int64, error) {
	dbTx, err := s.beginLocked(ctx)
	if err != nil {
		return 0, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockAccount(ctx, dbTx, accountID)
	if err != nil {
		return 0, err
	}
	if !account.IsOwner(caller) {
		return 0, apperror.ErrNotAnOwner()
	}

	w, err := s.withdrawals.GetForUpdate(ctx, dbTx, accountID, withdrawID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get withdrawal: %w", err))
	}
	if w == nil {
		return 0, apperror.ErrWithdrawalNotFound()
	}
	if w.IsExecuted() {
		return 0, apperror.ErrAlreadyExecuted()
	}

	required := s.policies.Quorum(len(account.Owners))
	if w.ApprovalCount() < required {
		return 0, apperror.ErrQuorumNotMet(w.ApprovalCount(), required)
	}
	if account.Balance < w.Amount {
		return 0, apperror.ErrInsufficientBalance()
	}

	if err := s.accounts.UpdateBalance(ctx, dbTx, accountID, account.Balance-w.Amount); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.withdrawals.MarkExecuted(ctx, dbTx, accountID, withdrawID); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("mark executed: %w", err))
	}

	now := time.Now().UTC()
	if err := s.facts.Append(ctx, dbTx, domain.NewWithdrawnFact(accountID, withdrawID, caller, w.Amount, now)); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("append fact: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.invalidateBalance(ctx, accountID)
	s.invalidateApprovals(ctx, accountID, withdrawID)

	s.log.Info().
		Int64("account_id", accountID).
		Int64("withdraw_id", withdrawID).
		Str("caller", string(caller)).
		Int64("amount", w.Amount).
		Int64("balance", account.Balance-w.Amount).
		Msg("withdrawal executed")

	return w.Amount, nil
}

// ==================== Queries ====================

// ListAccounts returns ids of accounts the identity co-owns, in creation order.
func (s *LedgerServiceImpl) ListAccounts(ctx context.Context, identity domain.Identity) ([]int64, error) {
	ids, err := s.accounts.ListByOwner(ctx, identity)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// GetOwners returns the account's owner set in creation order.
func (s *LedgerServiceImpl) GetOwners(ctx context.Context, accountID int64) ([]domain.Identity, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Owners, nil
}

// GetBalance returns the current balance, served from the projection cache
// when warm.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	if s.cache != nil {
		if balance, ok, err := s.cache.GetBalance(ctx, accountID); err != nil {
			s.log.Warn().Err(err).Int64("account_id", accountID).Msg("balance cache read failed")
		} else if ok {
			return balance, nil
		}
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetBalance(ctx, accountID, account.Balance); err != nil {
			s.log.Warn().Err(err).Int64("account_id", accountID).Msg("balance cache write failed")
		}
	}
	return account.Balance, nil
}

// GetApprovals returns the approval state of a withdrawal, including the
// approver identities for audit.
func (s *LedgerServiceImpl) GetApprovals(ctx context.Context, accountID, withdrawID int64) (*ports.ApprovalsView, error) {
	if s.cache != nil {
		if raw, err := s.cache.GetApprovals(ctx, accountID, withdrawID); err != nil {
			s.log.Warn().Err(err).Int64("account_id", accountID).Msg("approvals cache read failed")
		} else if raw != nil {
			view := &ports.ApprovalsView{}
			if err := json.Unmarshal(raw, view); err == nil {
				return view, nil
			}
		}
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	w, err := s.withdrawals.Get(ctx, accountID, withdrawID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get withdrawal: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrWithdrawalNotFound()
	}

	approvers := w.Approvers
	if approvers == nil {
		approvers = []domain.Identity{}
	}
	view := &ports.ApprovalsView{
		AccountID:  accountID,
		WithdrawID: withdrawID,
		Count:      w.ApprovalCount(),
		Approvers:  approvers,
		Required:   s.policies.Quorum(len(account.Owners)),
		Status:     w.Status,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(view); err == nil {
			if err := s.cache.SetApprovals(ctx, accountID, withdrawID, raw); err != nil {
				s.log.Warn().Err(err).Int64("account_id", accountID).Msg("approvals cache write failed")
			}
		}
	}
	return view, nil
}

// ListWithdrawals returns all withdrawal requests of an account in insertion
// order, executed ones included (they are permanent audit records).
func (s *LedgerServiceImpl) ListWithdrawals(ctx context.Context, accountID int64) ([]domain.WithdrawalRequest, error) {
	if _, err := s.getAccount(ctx, accountID); err != nil {
		return nil, err
	}
	ws, err := s.withdrawals.List(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list withdrawals: %w", err))
	}
	if ws == nil {
		ws = []domain.WithdrawalRequest{}
	}
	return ws, nil
}

// ListFacts returns the account's audit trail in logical-timestamp order.
func (s *LedgerServiceImpl) ListFacts(ctx context.Context, accountID int64, afterSeq int64, limit int) ([]domain.Fact, error) {
	if _, err := s.getAccount(ctx, accountID); err != nil {
		return nil, err
	}
	facts, err := s.facts.ListByAccount(ctx, accountID, afterSeq, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list facts: %w", err))
	}
	if facts == nil {
		facts = []domain.Fact{}
	}
	return facts, nil
}

// ==================== helpers ====================

func (s *LedgerServiceImpl) beginLocked(ctx context.Context) (pgx.Tx, error) {
	dbTx, err := s.transactor.BeginWithLockTimeout(ctx, s.policies.LockTimeout)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	return dbTx, nil
}

// lockAccount fetches the account under its exclusive lock, mapping a lock
// wait overrun to the transient SYS_002 failure.
func (s *LedgerServiceImpl) lockAccount(ctx context.Context, dbTx pgx.Tx, accountID int64) (*domain.Account, error) {
	account, err := s.accounts.GetForUpdate(ctx, dbTx, accountID)
	if err != nil {
		if errors.Is(err, ports.ErrLockNotAvailable) {
			return nil, apperror.ErrBusy(err)
		}
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

func (s *LedgerServiceImpl) getAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

func (s *LedgerServiceImpl) invalidateBalance(ctx context.Context, accountID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateBalance(ctx, accountID); err != nil {
		s.log.Warn().Err(err).Int64("account_id", accountID).Msg("balance cache invalidation failed")
	}
}

func (s *LedgerServiceImpl) invalidateApprovals(ctx context.Context, accountID, withdrawID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateApprovals(ctx, accountID, withdrawID); err != nil {
		s.log.Warn().Err(err).Int64("account_id", accountID).Msg("approvals cache invalidation failed")
	}
}
