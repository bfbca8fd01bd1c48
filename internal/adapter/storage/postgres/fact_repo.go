package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"shared-account-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// FactRepo implements ports.FactRepository on an append-only table. The
// BIGSERIAL seq is the ledger-wide logical timestamp.
type FactRepo struct {
	pool Pool
}

// NewFactRepo creates a new FactRepo.
func NewFactRepo(pool Pool) *FactRepo {
	return &FactRepo{pool: pool}
}

// Append inserts the fact in the caller's transaction and fills in its Seq.
func (r *FactRepo) Append(ctx context.Context, tx pgx.Tx, f *domain.Fact) error {
	payload, err := json.Marshal(f.Payload)
	if err != nil {
		return fmt.Errorf("marshal fact payload: %w", err)
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO facts (id, account_id, kind, payload, recorded_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING seq`,
		f.ID, f.AccountID, string(f.Kind), payload, f.RecordedAt,
	).Scan(&f.Seq)
	if err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	return nil
}

// ListByAccount returns one account's facts with Seq > afterSeq, ascending.
func (r *FactRepo) ListByAccount(ctx context.Context, accountID int64, afterSeq int64, limit int) ([]domain.Fact, error) {
	query := `SELECT seq, id, account_id, kind, payload, recorded_at
		FROM facts WHERE account_id = $1 AND seq > $2 ORDER BY seq`
	args := []any{accountID, afterSeq}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

// ListAll returns the whole fact stream in Seq order, for state reconstruction.
func (r *FactRepo) ListAll(ctx context.Context, afterSeq int64, limit int) ([]domain.Fact, error) {
	query := `SELECT seq, id, account_id, kind, payload, recorded_at
		FROM facts WHERE seq > $1 ORDER BY seq`
	args := []any{afterSeq}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *FactRepo) list(ctx context.Context, query string, args ...any) ([]domain.Fact, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	var out []domain.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}
	return out, nil
}

func scanFact(rows pgx.Rows) (*domain.Fact, error) {
	f := &domain.Fact{}
	var kind string
	var payload []byte
	if err := rows.Scan(&f.Seq, &f.ID, &f.AccountID, &kind, &payload, &f.RecordedAt); err != nil {
		return nil, fmt.Errorf("scan fact: %w", err)
	}
	f.Kind = domain.FactKind(kind)
	if err := json.Unmarshal(payload, &f.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal fact payload: %w", err)
	}
	return f, nil
}
