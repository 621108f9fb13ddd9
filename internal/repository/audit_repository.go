package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/medmarket-admin/internal/domain"
)

// AuditRepository defines persistence access for the auth audit trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository returns a Postgres-backed implementation.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO auth_audit (id, session_id, email, action, success, detail)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.SessionID,
		entry.Email,
		entry.Action,
		entry.Success,
		entry.Detail,
	).Scan(&entry.CreatedAt)
}

func (r *auditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
        SELECT id, session_id, email, action, success, detail, created_at
        FROM auth_audit ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.Email,
			&entry.Action,
			&entry.Success,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
