package postgres

import (
	"context"
	"errors"
	"fmt"

	"shared-account-ledger/internal/core/domain"
	"shared-account-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// lockNotAvailable is the SQLSTATE raised when lock_timeout expires.
const lockNotAvailable = "55P03"

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account and its owner index rows, assigning the
// strictly increasing account id.
func (r *AccountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Account) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO accounts (balance, next_withdraw_id, created_at) VALUES ($1, $2, $3) RETURNING id`,
		a.Balance, a.NextWithdrawID, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	for pos, owner := range a.Owners {
		if _, err := tx.Exec(ctx,
			`INSERT INTO account_owners (account_id, identity, position) VALUES ($1, $2, $3)`,
			a.ID, string(owner), pos,
		); err != nil {
			return fmt.Errorf("insert owner %s: %w", owner, err)
		}
	}
	return nil
}

// Get fetches an account with its ordered owners, without locking.
func (r *AccountRepo) Get(ctx context.Context, id int64) (*domain.Account, error) {
	return r.get(ctx, r.pool, id, false)
}

// GetForUpdate fetches an account under an exclusive row lock. Must be
// called within a transaction started with a lock timeout.
func (r *AccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	return r.get(ctx, tx, id, true)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *AccountRepo) get(ctx context.Context, q querier, id int64, forUpdate bool) (*domain.Account, error) {
	query := `SELECT id, balance, next_withdraw_id, created_at FROM accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	a := &domain.Account{}
	err := q.QueryRow(ctx, query, id).Scan(&a.ID, &a.Balance, &a.NextWithdrawID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
			return nil, fmt.Errorf("account %d: %w", id, ports.ErrLockNotAvailable)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	// Owner sets are immutable after creation, so reading them in a second
	// statement cannot tear against a concurrent mutation.
	rows, err := q.Query(ctx,
		`SELECT identity FROM account_owners WHERE account_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get account owners: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		a.Owners = append(a.Owners, domain.Identity(identity))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return a, nil
}

// ListByOwner returns ids of accounts the identity co-owns, in creation order.
func (r *AccountRepo) ListByOwner(ctx context.Context, identity domain.Identity) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT account_id FROM account_owners WHERE identity = $1 ORDER BY account_id`,
		string(identity))
	if err != nil {
		return nil, fmt.Errorf("list accounts by owner: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account ids: %w", err)
	}
	return ids, nil
}

// CountByOwner returns how many accounts the identity currently co-owns.
func (r *AccountRepo) CountByOwner(ctx context.Context, identity domain.Identity) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM account_owners WHERE identity = $1`, string(identity)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accounts by owner: %w", err)
	}
	return n, nil
}

// UpdateBalance sets the account balance within a transaction.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance int64) error {
	tag, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %d", id)
	}
	return nil
}

// SetNextWithdrawID advances the per-account withdraw id allocator.
func (r *AccountRepo) SetNextWithdrawID(ctx context.Context, tx pgx.Tx, id int64, next int64) error {
	tag, err := tx.Exec(ctx, `UPDATE accounts SET next_withdraw_id = $1 WHERE id = $2`, next, id)
	if err != nil {
		return fmt.Errorf("set next withdraw id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %d", id)
	}
	return nil
}
