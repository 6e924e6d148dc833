package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agrosense/plant-health/internal/models"
)

// Diagnosis status labels.
const (
	StatusPending   = "Pending verification"
	StatusConfirmed = "Confirmed"
	StatusCorrected = "Corrected"
)

// DiagnosisRow is one diagnosis of the period, ready for tabular output.
type DiagnosisRow struct {
	ID            int64
	Timestamp     time.Time
	Greenhouse    string
	Section       string
	Image         string
	Disease       string
	ConfidencePct float64
	Status        string
	VerifiedBy    string
}

// TaskRow is one (recommendation, task) pair. A recommendation without tasks
// yields a single row with HasTask false and empty task fields.
type TaskRow struct {
	RecommendationID     int64
	RecommendationDate   time.Time
	DiagnosisID          int64
	Disease              string
	Agronomist           string
	TreatmentPlan        string
	RecommendationStatus string

	HasTask         bool
	TaskID          int64
	TaskDescription string
	Operator        string
	TaskStatus      string
	Deadline        *time.Time
	CompletedAt     *time.Time
	Overdue         bool
	CompletedOnTime bool
}

// Details holds the row-level records of a period.
type Details struct {
	Diagnoses           []DiagnosisRow
	RecommendationTasks []TaskRow
}

// Extractor pulls non-aggregated rows for rendering.
type Extractor struct {
	source Source
	loc    *time.Location
	now    func() time.Time
}

// NewExtractor creates an extractor over source.
func NewExtractor(source Source, loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{source: source, loc: loc, now: time.Now}
}

// WithClock replaces the clock used for per-row overdue flags.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract reads the diagnosis rows and the recommendation/task rows of
// [start, end].
func (e *Extractor) Extract(ctx context.Context, start, end time.Time) (Details, error) {
	start, end, err := NormalizePeriod(start, end, e.loc)
	if err != nil {
		return Details{}, err
	}
	now := e.now()

	var (
		diagnoses       []models.DiagnosisRecord
		recommendations []models.RecommendationRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := e.source.DiagnosesBetween(gctx, start, end)
		if err != nil {
			return fmt.Errorf("query diagnoses: %w", err)
		}
		diagnoses = rows
		return nil
	})
	g.Go(func() error {
		rows, err := e.source.RecommendationsBetween(gctx, start, end)
		if err != nil {
			return fmt.Errorf("query recommendations: %w", err)
		}
		recommendations = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return Details{}, err
	}

	var tasks []models.TaskRecord
	if len(recommendations) > 0 {
		ids := make([]int64, len(recommendations))
		for i, r := range recommendations {
			ids[i] = r.ID
		}
		tasks, err = e.source.TasksForRecommendations(ctx, ids)
		if err != nil {
			return Details{}, fmt.Errorf("query tasks: %w", err)
		}
	}

	return Details{
		Diagnoses:           diagnosisRows(diagnoses),
		RecommendationTasks: taskRows(recommendations, tasks, now),
	}, nil
}

// DiagnosisStatus derives the verification label of a diagnosis.
func DiagnosisStatus(d models.DiagnosisRecord) string {
	if !d.IsVerified {
		return StatusPending
	}
	if d.MLDiseaseName == nil || *d.MLDiseaseName == d.DiseaseName {
		return StatusConfirmed
	}
	return StatusCorrected
}

func diagnosisRows(records []models.DiagnosisRecord) []DiagnosisRow {
	sorted := make([]models.DiagnosisRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		}
		return sorted[i].ID > sorted[j].ID
	})

	rows := make([]DiagnosisRow, 0, len(sorted))
	for _, d := range sorted {
		verifiedBy := Placeholder
		if d.IsVerified {
			verifiedBy = derefName(d.VerifierFullName, d.VerifierUsername)
		}
		rows = append(rows, DiagnosisRow{
			ID:            d.ID,
			Timestamp:     d.Timestamp,
			Greenhouse:    derefName(d.GreenhouseName),
			Section:       derefName(d.SectionName),
			Image:         DisplayName(d.ImagePath),
			Disease:       DisplayName(d.DiseaseName),
			ConfidencePct: round2(d.Confidence * 100),
			Status:        DiagnosisStatus(d),
			VerifiedBy:    verifiedBy,
		})
	}
	return rows
}

func taskRows(recommendations []models.RecommendationRecord, tasks []models.TaskRecord, now time.Time) []TaskRow {
	byRecommendation := make(map[int64][]models.TaskRecord)
	for _, t := range tasks {
		byRecommendation[t.RecommendationID] = append(byRecommendation[t.RecommendationID], t)
	}

	sorted := make([]models.RecommendationRecord, len(recommendations))
	copy(sorted, recommendations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})

	rows := make([]TaskRow, 0, len(sorted))
	for _, r := range sorted {
		base := TaskRow{
			RecommendationID:     r.ID,
			RecommendationDate:   r.CreatedAt,
			DiagnosisID:          r.DiagnosisID,
			Disease:              DisplayName(r.DiseaseName),
			Agronomist:           DisplayName(r.AgronomistFullName, r.AgronomistUsername),
			TreatmentPlan:        DisplayName(r.TreatmentPlanText),
			RecommendationStatus: DisplayName(r.Status),
		}

		children := byRecommendation[r.ID]
		if len(children) == 0 {
			rows = append(rows, base)
			continue
		}
		sort.SliceStable(children, func(i, j int) bool {
			if !children[i].Deadline.Equal(children[j].Deadline) {
				return children[i].Deadline.Before(children[j].Deadline)
			}
			return children[i].ID < children[j].ID
		})
		for _, t := range children {
			row := base
			row.HasTask = true
			row.TaskID = t.ID
			row.TaskDescription = DisplayName(t.Description)
			row.Operator = DisplayName(t.OperatorFullName, t.OperatorUsername)
			row.TaskStatus = DisplayName(t.Status)
			deadline := t.Deadline
			row.Deadline = &deadline
			row.CompletedAt = t.CompletedAt
			row.CompletedOnTime = t.CompletedAt != nil && !t.CompletedAt.After(t.Deadline)
			row.Overdue = t.CompletedAt == nil && t.Deadline.Before(now)
			rows = append(rows, row)
		}
	}
	return rows
}
