package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrosense/plant-health/internal/models"
)

// AuditRepository appends to and reads the audit trail.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Record inserts one audit entry.
func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO audit_logs (user_id, action_type, table_name, record_id, old_values, new_values)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)
		RETURNING id, created_at
	`,
		entry.UserID,
		entry.ActionType,
		entry.TableName,
		entry.RecordID,
		jsonArg(entry.OldValues),
		jsonArg(entry.NewValues),
	).Scan(&entry.ID, &entry.CreatedAt)
}

// List returns audit entries newest first with the total count.
func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT COUNT(*) FROM audit_logs`)
	batch.Queue(`
		SELECT a.id, a.user_id, NULLIF(u.full_name, ''), a.action_type, a.table_name,
		       a.record_id, a.old_values, a.new_values, a.created_at
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var total int
	if err := br.QueryRow().Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := br.Query()
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var e models.AuditLog
		var oldValues, newValues []byte
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.UserFullName,
			&e.ActionType,
			&e.TableName,
			&e.RecordID,
			&oldValues,
			&newValues,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		e.OldValues = oldValues
		e.NewValues = newValues
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// jsonArg passes an empty document as SQL NULL.
func jsonArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
