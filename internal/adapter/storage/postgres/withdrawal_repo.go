package postgres

import (
	"context"
	"errors"
	"fmt"

	"shared-account-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository. Rows are append-only:
// requests are never deleted, approvals never removed, and the only update
// is the terminal status flip.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

// withdrawalQuery joins requests with their approvers so each fetch is a
// single statement, i.e. one consistent snapshot. Approvers come back as a
// text array in approval order.
const withdrawalQuery = `
SELECT w.account_id, w.withdraw_id, w.requester, w.amount, w.status, w.created_at,
       COALESCE(array_agg(a.approver ORDER BY a.seq) FILTER (WHERE a.approver IS NOT NULL), '{}')
FROM withdrawal_requests w
LEFT JOIN withdrawal_approvals a
  ON a.account_id = w.account_id AND a.withdraw_id = w.withdraw_id
`

// Create inserts a new pending withdrawal request.
func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO withdrawal_requests (account_id, withdraw_id, requester, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.AccountID, w.ID, string(w.Requester), w.Amount, string(w.Status), w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	return nil
}

// Get fetches a request with its approvers. Returns nil, nil if unknown.
func (r *WithdrawalRepo) Get(ctx context.Context, accountID, withdrawID int64) (*domain.WithdrawalRequest, error) {
	return scanWithdrawal(r.pool.QueryRow(ctx,
		withdrawalQuery+`WHERE w.account_id = $1 AND w.withdraw_id = $2
		GROUP BY w.account_id, w.withdraw_id, w.requester, w.amount, w.status, w.created_at`,
		accountID, withdrawID))
}

// GetForUpdate is Get executed on the enclosing transaction. Serialization
// comes from the account row lock the transaction already holds; the
// withdrawal rows themselves need no separate lock.
func (r *WithdrawalRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID, withdrawID int64) (*domain.WithdrawalRequest, error) {
	return scanWithdrawal(tx.QueryRow(ctx,
		withdrawalQuery+`WHERE w.account_id = $1 AND w.withdraw_id = $2
		GROUP BY w.account_id, w.withdraw_id, w.requester, w.amount, w.status, w.created_at`,
		accountID, withdrawID))
}

// List returns all requests of an account in insertion order.
func (r *WithdrawalRepo) List(ctx context.Context, accountID int64) ([]domain.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx,
		withdrawalQuery+`WHERE w.account_id = $1
		GROUP BY w.account_id, w.withdraw_id, w.requester, w.amount, w.status, w.created_at
		ORDER BY w.withdraw_id`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawals: %w", err)
	}
	return out, nil
}

// AddApproval records an approval. The composite primary key dedupes
// replays: a repeat insert affects zero rows and returns added=false.
func (r *WithdrawalRepo) AddApproval(ctx context.Context, tx pgx.Tx, accountID, withdrawID int64, approver domain.Identity) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO withdrawal_approvals (account_id, withdraw_id, approver)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_id, withdraw_id, approver) DO NOTHING`,
		accountID, withdrawID, string(approver),
	)
	if err != nil {
		return false, fmt.Errorf("insert approval: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkExecuted flips a pending request to its terminal state.
func (r *WithdrawalRepo) MarkExecuted(ctx context.Context, tx pgx.Tx, accountID, withdrawID int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE withdrawal_requests SET status = $1
		 WHERE account_id = $2 AND withdraw_id = $3 AND status = $4`,
		string(domain.WithdrawalStatusExecuted), accountID, withdrawID,
		string(domain.WithdrawalStatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark executed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("withdrawal %d/%d not pending", accountID, withdrawID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWithdrawal(row rowScanner) (*domain.WithdrawalRequest, error) {
	w := &domain.WithdrawalRequest{}
	var requester, status string
	var approvers []string
	err := row.Scan(&w.AccountID, &w.ID, &requester, &w.Amount, &status, &w.CreatedAt, &approvers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan withdrawal: %w", err)
	}
	w.Requester = domain.Identity(requester)
	w.Status = domain.WithdrawalStatus(status)
	for _, a := range approvers {
		w.Approvers = append(w.Approvers, domain.Identity(a))
	}
	return w, nil
}
