package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/reports"
)

// ReportRepository handles report database operations.
type ReportRepository struct {
	pool *pgxpool.Pool
	keys *IdempotencyRepository
}

// NewReportRepository creates a new report repository.
func NewReportRepository(pool *pgxpool.Pool, keys *IdempotencyRepository) *ReportRepository {
	if keys == nil {
		keys = NewIdempotencyRepository(pool)
	}
	return &ReportRepository{pool: pool, keys: keys}
}

const reportColumns = `
	r.id, r.user_id, COALESCE(NULLIF(u.full_name, ''), u.username), COALESCE(ro.name, ''),
	r.report_type, r.period_start, r.period_end, r.data, r.generated_at, r.file_path
`

const reportFrom = `
	FROM reports r
	JOIN users u ON u.id = r.user_id
	LEFT JOIN roles ro ON ro.id = u.role_id
`

// Create inserts the report, claims the idempotency key and runs finalize in
// one transaction. finalize sees the assigned ID and generation time; the
// file path it sets is persisted before commit. If the key is already held
// the transaction is rolled back and reports.ErrKeyClaimed is returned.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report, idempotencyKey string, finalize func(*models.Report) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	draft := *report
	err = tx.QueryRow(ctx, `
		INSERT INTO reports (user_id, report_type, period_start, period_end, data, file_path)
		VALUES ($1, $2, $3, $4, $5, '')
		RETURNING id, generated_at
	`,
		draft.OwnerID,
		draft.ReportType,
		draft.PeriodStart,
		draft.PeriodEnd,
		string(draft.Data),
	).Scan(&draft.ID, &draft.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if idempotencyKey != "" {
		claim, err := r.keys.ClaimTx(ctx, tx, draft.OwnerID, idempotencyKey, ResourceReport, draft.ID)
		if err != nil {
			return fmt.Errorf("claim idempotency key: %w", err)
		}
		if claim.AlreadyExists {
			return reports.ErrKeyClaimed
		}
	}

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(NULLIF(u.full_name, ''), u.username), COALESCE(ro.name, '')
		FROM users u
		LEFT JOIN roles ro ON ro.id = u.role_id
		WHERE u.id = $1
	`, draft.OwnerID).Scan(&draft.OwnerName, &draft.OwnerRole)
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}

	if err := finalize(&draft); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE reports SET file_path = $1 WHERE id = $2`, draft.FilePath, draft.ID); err != nil {
		return fmt.Errorf("set file path: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}

	*report = draft
	return nil
}

// FindByIdempotencyKey returns the report held by a live key, or nil.
func (r *ReportRepository) FindByIdempotencyKey(ctx context.Context, ownerID int64, key string) (*models.Report, error) {
	id, err := r.keys.Lookup(ctx, ownerID, key, ResourceReport)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return r.Get(ctx, id)
}

// Get retrieves a report by ID. It returns nil, nil when none exists.
func (r *ReportRepository) Get(ctx context.Context, id int64) (*models.Report, error) {
	query := `SELECT ` + reportColumns + reportFrom + ` WHERE r.id = $1`

	report, err := scanReport(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return report, nil
}

// List returns reports newest first with the total count. A nil ownerID
// lists every owner. Both queries go out in one batch.
func (r *ReportRepository) List(ctx context.Context, ownerID *int64, limit, offset int) ([]models.Report, int, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT COUNT(*) FROM reports WHERE ($1::bigint IS NULL OR user_id = $1)`, ownerID)
	batch.Queue(`SELECT `+reportColumns+reportFrom+`
		WHERE ($1::bigint IS NULL OR r.user_id = $1)
		ORDER BY r.generated_at DESC, r.id DESC
		LIMIT $2 OFFSET $3`, ownerID, limit, offset)

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var total int
	if err := br.QueryRow().Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	rows, err := br.Query()
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// Update rewrites the report's type and period.
func (r *ReportRepository) Update(ctx context.Context, report *models.Report) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET report_type = $1, period_start = $2, period_end = $3
		WHERE id = $4
	`, report.ReportType, report.PeriodStart, report.PeriodEnd, report.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %d does not exist", report.ID)
	}
	return nil
}

// Delete removes the report and the idempotency keys pointing at it.
func (r *ReportRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM idempotency_keys WHERE resource_type = $1 AND resource_id = $2`, ResourceReport, id); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return tx.Commit(ctx)
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var (
		report     models.Report
		start, end *time.Time
		data       string
	)
	err := row.Scan(
		&report.ID,
		&report.OwnerID,
		&report.OwnerName,
		&report.OwnerRole,
		&report.ReportType,
		&start,
		&end,
		&data,
		&report.GeneratedAt,
		&report.FilePath,
	)
	if err != nil {
		return nil, err
	}
	if start != nil {
		report.PeriodStart = *start
	}
	if end != nil {
		report.PeriodEnd = *end
	}
	report.Data = []byte(data)
	return &report, nil
}
