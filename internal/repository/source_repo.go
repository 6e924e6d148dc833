package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrosense/plant-health/internal/models"
)

// SourceRepository reads the operational tables the reporting engine
// aggregates over. All period filters are inclusive on both bounds.
type SourceRepository struct {
	pool *pgxpool.Pool
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{pool: pool}
}

// DiagnosesBetween returns diagnoses with timestamp in [start, end], oldest
// first.
func (r *SourceRepository) DiagnosesBetween(ctx context.Context, start, end time.Time) ([]models.DiagnosisRecord, error) {
	query := `
		SELECT d.id, d.timestamp, d.confidence, dis.name, ml.name, d.is_verified,
		       i.image_path, g.name, s.name,
		       NULLIF(v.full_name, ''), v.username
		FROM diagnoses d
		JOIN diseases dis ON dis.id = d.disease_id
		LEFT JOIN diseases ml ON ml.id = d.ml_disease_id
		JOIN images i ON i.id = d.image_id
		LEFT JOIN sections s ON s.id = i.section_id
		LEFT JOIN greenhouses g ON g.id = s.greenhouse_id
		LEFT JOIN users v ON v.id = d.verified_by
		WHERE d.timestamp BETWEEN $1 AND $2
		ORDER BY d.timestamp, d.id
	`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query diagnoses: %w", err)
	}
	defer rows.Close()

	var out []models.DiagnosisRecord
	for rows.Next() {
		var rec models.DiagnosisRecord
		err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.Confidence,
			&rec.DiseaseName,
			&rec.MLDiseaseName,
			&rec.IsVerified,
			&rec.ImagePath,
			&rec.GreenhouseName,
			&rec.SectionName,
			&rec.VerifierFullName,
			&rec.VerifierUsername,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecommendationsBetween returns recommendations created in [start, end].
func (r *SourceRepository) RecommendationsBetween(ctx context.Context, start, end time.Time) ([]models.RecommendationRecord, error) {
	query := `
		SELECT rec.id, rec.diagnosis_id, dis.name,
		       COALESCE(a.full_name, ''), COALESCE(a.username, ''),
		       rec.treatment_plan_text, rec.status, rec.created_at
		FROM recommendations rec
		JOIN diagnoses d ON d.id = rec.diagnosis_id
		JOIN diseases dis ON dis.id = d.disease_id
		LEFT JOIN users a ON a.id = rec.agronomist_id
		WHERE rec.created_at BETWEEN $1 AND $2
		ORDER BY rec.created_at, rec.id
	`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var out []models.RecommendationRecord
	for rows.Next() {
		var rec models.RecommendationRecord
		err := rows.Scan(
			&rec.ID,
			&rec.DiagnosisID,
			&rec.DiseaseName,
			&rec.AgronomistFullName,
			&rec.AgronomistUsername,
			&rec.TreatmentPlanText,
			&rec.Status,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const taskSelect = `
	SELECT t.id, t.recommendation_id,
	       COALESCE(o.full_name, ''), COALESCE(o.username, ''),
	       t.description, t.status, t.deadline, t.created_at, t.completed_at
	FROM tasks t
	LEFT JOIN users o ON o.id = t.assigned_to
`

// TasksBetween returns tasks created in [start, end].
func (r *SourceRepository) TasksBetween(ctx context.Context, start, end time.Time) ([]models.TaskRecord, error) {
	rows, err := r.pool.Query(ctx, taskSelect+`
		WHERE t.created_at BETWEEN $1 AND $2
		ORDER BY t.created_at, t.id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return collectTasks(rows)
}

// TasksForRecommendations returns every task attached to the given
// recommendations regardless of when it was created.
func (r *SourceRepository) TasksForRecommendations(ctx context.Context, recommendationIDs []int64) ([]models.TaskRecord, error) {
	if len(recommendationIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, taskSelect+`
		WHERE t.recommendation_id = ANY($1)
		ORDER BY t.recommendation_id, t.id
	`, recommendationIDs)
	if err != nil {
		return nil, fmt.Errorf("query tasks by recommendation: %w", err)
	}
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]models.TaskRecord, error) {
	defer rows.Close()

	var out []models.TaskRecord
	for rows.Next() {
		var t models.TaskRecord
		err := rows.Scan(
			&t.ID,
			&t.RecommendationID,
			&t.OperatorFullName,
			&t.OperatorUsername,
			&t.Description,
			&t.Status,
			&t.Deadline,
			&t.CreatedAt,
			&t.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
