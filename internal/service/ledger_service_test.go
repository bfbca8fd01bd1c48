package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"shared-account-ledger/internal/adapter/storage/memory"
	"shared-account-ledger/internal/core/domain"
	"shared-account-ledger/internal/core/ports"
	"shared-account-ledger/internal/core/ports/mocks"
	"shared-account-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newLedger builds a service on the in-memory adapter with default policies.
func newLedger(t *testing.T) (*LedgerServiceImpl, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewLedgerService(
		memory.NewAccountRepo(store),
		memory.NewWithdrawalRepo(store),
		memory.NewFactRepo(store),
		nil,
		memory.NewTransactor(store),
		LedgerPolicies{
			MaxOwners:           4,
			MaxAccountsPerOwner: 3,
			LockTimeout:         time.Second,
		},
		zerolog.Nop(),
	)
	return svc, store
}

// fundedAccount creates an account and deposits an opening balance.
func fundedAccount(t *testing.T, svc *LedgerServiceImpl, creator domain.Identity, others []domain.Identity, balance int64) *domain.Account {
	t.Helper()
	ctx := context.Background()
	account, err := svc.CreateAccount(ctx, creator, others)
	require.NoError(t, err)
	if balance > 0 {
		_, err = svc.Deposit(ctx, account.ID, creator, balance)
		require.NoError(t, err)
	}
	return account
}

// mockTx implements pgx.Tx for mock-based tests.
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

// ==================== CreateAccount ====================

func TestLedgerService_CreateAccount_Success(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "alice", []domain.Identity{"bob", "carol"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), account.ID)
	assert.Equal(t, []domain.Identity{"alice", "bob", "carol"}, account.Owners)
	assert.Equal(t, int64(0), account.Balance)

	facts, err := svc.ListFacts(ctx, account.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, domain.FactAccountCreated, facts[0].Kind)
	assert.Equal(t, int64(1), facts[0].Seq)
	assert.Equal(t, account.Owners, facts[0].Payload.Owners)
}

func TestLedgerService_CreateAccount_DuplicateOwner(t *testing.T) {
	svc, _ := newLedger(t)

	_, err := svc.CreateAccount(context.Background(), "alice", []domain.Identity{"bob", "alice"})
	assert.Equal(t, "VAL_002", apperror.CodeOf(err))
}

func TestLedgerService_CreateAccount_TooManyOwners(t *testing.T) {
	svc, _ := newLedger(t)

	_, err := svc.CreateAccount(context.Background(), "alice",
		[]domain.Identity{"bob", "carol", "dave", "erin"})
	assert.Equal(t, "VAL_002", apperror.CodeOf(err))
}

func TestLedgerService_CreateAccount_PerOwnerLimit(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateAccount(ctx, "alice", nil)
		require.NoError(t, err)
	}

	_, err := svc.CreateAccount(ctx, "alice", nil)
	assert.Equal(t, "VAL_002", apperror.CodeOf(err))

	// The limit binds co-owners too, not just the creator.
	_, err = svc.CreateAccount(ctx, "bob", []domain.Identity{"alice"})
	assert.Equal(t, "VAL_002", apperror.CodeOf(err))
}

func TestLedgerService_ListAccounts(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	a1 := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 0)
	a2 := fundedAccount(t, svc, "bob", nil, 0)
	fundedAccount(t, svc, "carol", nil, 0)

	ids, err := svc.ListAccounts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []int64{a1.ID, a2.ID}, ids)

	ids, err = svc.ListAccounts(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

// ==================== Deposit ====================

func TestLedgerService_Deposit(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 0)

	balance, err := svc.Deposit(ctx, account.ID, "alice", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	// Non-owners may deposit too.
	balance, err = svc.Deposit(ctx, account.ID, "stranger", 250)
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance)
}

func TestLedgerService_Deposit_Validation(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", nil, 0)

	_, err := svc.Deposit(ctx, account.ID, "alice", 0)
	assert.Equal(t, "VAL_001", apperror.CodeOf(err))

	_, err = svc.Deposit(ctx, account.ID, "alice", -10)
	assert.Equal(t, "VAL_001", apperror.CodeOf(err))

	_, err = svc.Deposit(ctx, 999, "alice", 100)
	assert.Equal(t, "ACC_001", apperror.CodeOf(err))
}

func TestLedgerService_Deposit_Overflow(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", nil, 0)

	_, err := svc.Deposit(ctx, account.ID, "alice", math.MaxInt64)
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, account.ID, "alice", 1)
	assert.Equal(t, "VAL_001", apperror.CodeOf(err))

	balance, err := svc.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), balance, "failed deposit must not change the balance")
}

// ==================== RequestWithdrawal ====================

func TestLedgerService_RequestWithdrawal(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 100)

	w1, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)
	assert.Equal(t, int64(1), w1.ID)
	assert.Equal(t, domain.WithdrawalStatusPending, w1.Status)

	w2, err := svc.RequestWithdrawal(ctx, account.ID, "bob", 60)
	require.NoError(t, err)
	assert.Equal(t, int64(2), w2.ID, "withdraw ids are strictly increasing per account")
}

func TestLedgerService_RequestWithdrawal_ExceedingBalanceAllowed(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 10)

	// Sufficiency is checked at execution time; funds may arrive later.
	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Amount)
}

func TestLedgerService_RequestWithdrawal_Authorization(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 100)

	_, err := svc.RequestWithdrawal(ctx, account.ID, "mallory", 40)
	assert.Equal(t, "AUTHZ_001", apperror.CodeOf(err))

	_, err = svc.RequestWithdrawal(ctx, account.ID, "alice", 0)
	assert.Equal(t, "VAL_001", apperror.CodeOf(err))

	_, err = svc.RequestWithdrawal(ctx, 999, "alice", 40)
	assert.Equal(t, "ACC_001", apperror.CodeOf(err))
}

// ==================== ApproveWithdrawal ====================

func TestLedgerService_ApproveWithdrawal(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob", "carol"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)

	count, err := svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	view, err := svc.GetApprovals(ctx, account.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Identity{"bob", "carol"}, view.Approvers)
	assert.Equal(t, 2, view.Required)
}

func TestLedgerService_ApproveWithdrawal_Idempotent(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob", "carol"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		count, err := svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, count, "repeat approval must not double-count")
	}

	// Only one approval fact recorded despite three calls.
	facts, err := svc.ListFacts(ctx, account.ID, 0, 0)
	require.NoError(t, err)
	approved := 0
	for _, f := range facts {
		if f.Kind == domain.FactWithdrawalApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
}

func TestLedgerService_ApproveWithdrawal_Rejections(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)

	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "alice")
	assert.Equal(t, "AUTHZ_002", apperror.CodeOf(err), "self-approval")

	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "mallory")
	assert.Equal(t, "AUTHZ_001", apperror.CodeOf(err), "non-owner")

	_, err = svc.ApproveWithdrawal(ctx, account.ID, 999, "bob")
	assert.Equal(t, "ACC_002", apperror.CodeOf(err), "unknown withdrawal")

	_, err = svc.ApproveWithdrawal(ctx, 999, w.ID, "bob")
	assert.Equal(t, "ACC_001", apperror.CodeOf(err), "unknown account")
}

func TestLedgerService_ApproveWithdrawal_AfterExecution(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)
	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	require.NoError(t, err)

	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	assert.Equal(t, "CONF_001", apperror.CodeOf(err))
}

// ==================== ExecuteWithdrawal ====================

func TestLedgerService_ExecuteWithdrawal(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob", "carol"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)

	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	assert.Equal(t, "CONF_002", apperror.CodeOf(err), "no approvals yet")

	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)
	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	assert.Equal(t, "CONF_002", apperror.CodeOf(err), "1 of 2 approvals")

	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "carol")
	require.NoError(t, err)
	amount, err := svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(40), amount)

	balance, err := svc.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance)
}

func TestLedgerService_ExecuteWithdrawal_InsufficientBalance(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 30)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)

	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	assert.Equal(t, "CONF_003", apperror.CodeOf(err))

	// Approvals survive the failed execution; a deposit unblocks it.
	_, err = svc.Deposit(ctx, account.ID, "alice", 20)
	require.NoError(t, err)
	amount, err := svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(40), amount)
}

func TestLedgerService_ExecuteWithdrawal_Once(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)
	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	require.NoError(t, err)

	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	assert.Equal(t, "CONF_001", apperror.CodeOf(err))

	balance, err := svc.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance, "second execution must not move funds again")
}

func TestLedgerService_ExecuteWithdrawal_Authorization(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)

	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "mallory")
	assert.Equal(t, "AUTHZ_001", apperror.CodeOf(err))

	// Any owner may execute, not just the requester.
	amount, err := svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(40), amount)
}

func TestLedgerService_SingleOwnerCannotExecute(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", nil, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)

	// Quorum is one approval, self-approval is barred, and there is no one
	// else to give it: the request is permanently stuck.
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "alice")
	assert.Equal(t, "AUTHZ_002", apperror.CodeOf(err))
	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	assert.Equal(t, "CONF_002", apperror.CodeOf(err))
}

func TestLedgerService_FixedThresholdPolicy(t *testing.T) {
	store := memory.NewStore()
	svc := NewLedgerService(
		memory.NewAccountRepo(store),
		memory.NewWithdrawalRepo(store),
		memory.NewFactRepo(store),
		nil,
		memory.NewTransactor(store),
		LedgerPolicies{
			Quorum:      domain.FixedThreshold(1),
			MaxOwners:   4,
			LockTimeout: time.Second,
		},
		zerolog.Nop(),
	)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob", "carol", "dave"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)

	amount, err := svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(40), amount)
}

// ==================== Facts ====================

func TestLedgerService_FactStreamReplaysToCurrentState(t *testing.T) {
	svc, store := newLedger(t)
	ctx := context.Background()

	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob", "carol"}, 500)
	_, err := svc.Deposit(ctx, account.ID, "dave", 250)
	require.NoError(t, err)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 300)
	require.NoError(t, err)
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob")
	require.NoError(t, err)
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "bob") // idempotent replay
	require.NoError(t, err)
	_, err = svc.ApproveWithdrawal(ctx, account.ID, w.ID, "carol")
	require.NoError(t, err)
	_, err = svc.ExecuteWithdrawal(ctx, account.ID, w.ID, "alice")
	require.NoError(t, err)

	stream, err := memory.NewFactRepo(store).ListAll(ctx, 0, 0)
	require.NoError(t, err)

	state, err := domain.Replay(stream)
	require.NoError(t, err)
	require.Contains(t, state, account.ID)

	snap := state[account.ID]
	balance, err := svc.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, balance, snap.Account.Balance)

	ws, err := svc.ListWithdrawals(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, snap.Withdrawals, len(ws))
	assert.Equal(t, ws[0].Status, snap.Withdrawals[0].Status)
	assert.Equal(t, ws[0].Approvers, snap.Withdrawals[0].Approvers)
}

func TestLedgerService_ListFacts_Pagination(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", nil, 0)

	for i := 0; i < 5; i++ {
		_, err := svc.Deposit(ctx, account.ID, "alice", 10)
		require.NoError(t, err)
	}

	facts, err := svc.ListFacts(ctx, account.ID, 0, 3)
	require.NoError(t, err)
	require.Len(t, facts, 3)

	rest, err := svc.ListFacts(ctx, account.ID, facts[2].Seq, 0)
	require.NoError(t, err)
	require.Len(t, rest, 3)
	assert.Greater(t, rest[0].Seq, facts[2].Seq)
}

// ==================== Failure injection ====================

func TestLedgerService_Deposit_LockTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	transactor := mocks.NewMockDBTransactor(ctrl)
	tx := &mockTx{}

	svc := NewLedgerService(accounts, nil, nil, nil, transactor,
		LedgerPolicies{MaxOwners: 4, LockTimeout: time.Second}, zerolog.Nop())

	ctx := context.Background()
	transactor.EXPECT().BeginWithLockTimeout(ctx, time.Second).Return(tx, nil)
	accounts.EXPECT().GetForUpdate(ctx, tx, int64(1)).Return(nil, ports.ErrLockNotAvailable)

	_, err := svc.Deposit(ctx, 1, "alice", 100)
	assert.Equal(t, "SYS_002", apperror.CodeOf(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.Retryable())
}

func TestLedgerService_Deposit_FactAppendFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	facts := mocks.NewMockFactRepository(ctrl)
	transactor := mocks.NewMockDBTransactor(ctrl)
	tx := &mockTx{}

	svc := NewLedgerService(accounts, nil, facts, nil, transactor,
		LedgerPolicies{MaxOwners: 4, LockTimeout: time.Second}, zerolog.Nop())

	ctx := context.Background()
	transactor.EXPECT().BeginWithLockTimeout(ctx, time.Second).Return(tx, nil)
	accounts.EXPECT().GetForUpdate(ctx, tx, int64(1)).Return(&domain.Account{
		ID: 1, Owners: []domain.Identity{"alice"}, Balance: 50,
	}, nil)
	accounts.EXPECT().UpdateBalance(ctx, tx, int64(1), int64(150)).Return(nil)
	facts.EXPECT().Append(ctx, tx, gomock.Any()).Return(errors.New("disk full"))

	// The transaction never commits: the mutation and its fact are one unit.
	_, err := svc.Deposit(ctx, 1, "alice", 100)
	assert.Equal(t, "SYS_001", apperror.CodeOf(err))
}

func TestLedgerService_GetBalance_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	cache := mocks.NewMockProjectionCache(ctrl)

	svc := NewLedgerService(accounts, nil, nil, cache, nil,
		LedgerPolicies{MaxOwners: 4, LockTimeout: time.Second}, zerolog.Nop())

	ctx := context.Background()
	cache.EXPECT().GetBalance(ctx, int64(1)).Return(int64(777), true, nil)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(777), balance)
}

func TestLedgerService_GetBalance_CacheErrorFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	cache := mocks.NewMockProjectionCache(ctrl)

	svc := NewLedgerService(accounts, nil, nil, cache, nil,
		LedgerPolicies{MaxOwners: 4, LockTimeout: time.Second}, zerolog.Nop())

	ctx := context.Background()
	cache.EXPECT().GetBalance(ctx, int64(1)).Return(int64(0), false, errors.New("redis down"))
	accounts.EXPECT().Get(ctx, int64(1)).Return(&domain.Account{
		ID: 1, Owners: []domain.Identity{"alice"}, Balance: 42,
	}, nil)
	cache.EXPECT().SetBalance(ctx, int64(1), int64(42)).Return(errors.New("redis down"))

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err, "a broken cache must not break reads")
	assert.Equal(t, int64(42), balance)
}

// ==================== Queries on unknown accounts ====================

func TestLedgerService_Queries_UnknownAccount(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	_, err := svc.GetOwners(ctx, 42)
	assert.Equal(t, "ACC_001", apperror.CodeOf(err))

	_, err = svc.GetBalance(ctx, 42)
	assert.Equal(t, "ACC_001", apperror.CodeOf(err))

	_, err = svc.GetApprovals(ctx, 42, 1)
	assert.Equal(t, "ACC_001", apperror.CodeOf(err))

	_, err = svc.ListWithdrawals(ctx, 42)
	assert.Equal(t, "ACC_001", apperror.CodeOf(err))

	_, err = svc.ListFacts(ctx, 42, 0, 0)
	assert.Equal(t, "ACC_001", apperror.CodeOf(err))
}

func TestLedgerService_GetApprovals_View(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	account := fundedAccount(t, svc, "alice", []domain.Identity{"bob", "carol"}, 100)

	w, err := svc.RequestWithdrawal(ctx, account.ID, "alice", 40)
	require.NoError(t, err)

	view, err := svc.GetApprovals(ctx, account.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Count)
	assert.NotNil(t, view.Approvers)
	assert.Equal(t, 2, view.Required)
	assert.Equal(t, domain.WithdrawalStatusPending, view.Status)

	_, err = svc.GetApprovals(ctx, account.ID, 999)
	assert.Equal(t, "ACC_002", apperror.CodeOf(err))
}
