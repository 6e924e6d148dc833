package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agrosense/plant-health/internal/models"
)

// Source is the read side of the primary entity store. Range queries are
// inclusive on both ends.
type Source interface {
	DiagnosesBetween(ctx context.Context, start, end time.Time) ([]models.DiagnosisRecord, error)
	RecommendationsBetween(ctx context.Context, start, end time.Time) ([]models.RecommendationRecord, error)
	TasksBetween(ctx context.Context, start, end time.Time) ([]models.TaskRecord, error)
	TasksForRecommendations(ctx context.Context, recommendationIDs []int64) ([]models.TaskRecord, error)
}

// Aggregator computes KPI metrics over a period. It has no side effects and
// keeps no state between calls.
type Aggregator struct {
	source    Source
	loc       *time.Location
	economics Economics
	now       func() time.Time
}

// NewAggregator creates an aggregator that buckets days in loc.
func NewAggregator(source Source, loc *time.Location, economics Economics) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		source:    source,
		loc:       loc,
		economics: economics,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for the overdue count.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Location returns the report timezone.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Compute runs every sub-aggregation for [start, end]. Any query failure
// fails the whole computation.
func (a *Aggregator) Compute(ctx context.Context, start, end time.Time) (Metrics, error) {
	start, end, err := NormalizePeriod(start, end, a.loc)
	if err != nil {
		return Metrics{}, err
	}
	now := a.now()

	var (
		diagnoses       []models.DiagnosisRecord
		recommendations []models.RecommendationRecord
		tasks           []models.TaskRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.source.DiagnosesBetween(gctx, start, end)
		if err != nil {
			return fmt.Errorf("query diagnoses: %w", err)
		}
		diagnoses = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.source.RecommendationsBetween(gctx, start, end)
		if err != nil {
			return fmt.Errorf("query recommendations: %w", err)
		}
		recommendations = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.source.TasksBetween(gctx, start, end)
		if err != nil {
			return fmt.Errorf("query tasks: %w", err)
		}
		tasks = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return Metrics{}, err
	}

	return Metrics{
		Period: Period{
			Start: formatInstant(start),
			End:   formatInstant(end),
		},
		Diagnostics:     a.diagnostics(diagnoses),
		Recommendations: RecommendationsMetrics{Total: len(recommendations)},
		Tasks:           taskMetrics(tasks, now),
		Timeseries:      a.timeseries(diagnoses),
		GreenhouseStats: greenhouseStats(diagnoses),
		OperatorStats:   operatorStats(tasks),
		Economics:       a.economics.estimate(len(diagnoses), len(tasks)),
	}, nil
}

func (a *Aggregator) diagnostics(rows []models.DiagnosisRecord) DiagnosticsMetrics {
	out := DiagnosticsMetrics{
		Total:        len(rows),
		Distribution: make([]DiseaseCount, 0),
	}
	if len(rows) == 0 {
		return out
	}

	var sum float64
	counts := make(map[string]int)
	for _, d := range rows {
		sum += d.Confidence
		counts[DisplayName(d.DiseaseName)]++
	}
	avg := round4(sum / float64(len(rows)))
	out.AvgConfidence = &avg

	for name, n := range counts {
		out.Distribution = append(out.Distribution, DiseaseCount{DiseaseName: name, Count: n})
	}
	sort.Slice(out.Distribution, func(i, j int) bool {
		if out.Distribution[i].Count != out.Distribution[j].Count {
			return out.Distribution[i].Count > out.Distribution[j].Count
		}
		return out.Distribution[i].DiseaseName < out.Distribution[j].DiseaseName
	})
	return out
}

func taskMetrics(rows []models.TaskRecord, now time.Time) TasksMetrics {
	out := TasksMetrics{Total: len(rows)}
	for _, t := range rows {
		switch {
		case t.CompletedAt != nil && !t.CompletedAt.After(t.Deadline):
			out.CompletedOnTime++
		case t.CompletedAt == nil && t.Deadline.Before(now):
			out.Overdue++
		}
	}
	return out
}

func (a *Aggregator) timeseries(rows []models.DiagnosisRecord) []DailyCount {
	counts := make(map[string]int)
	for _, d := range rows {
		counts[d.Timestamp.In(a.loc).Format("2006-01-02")]++
	}
	out := make([]DailyCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DailyCount{Date: day, Total: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func greenhouseStats(rows []models.DiagnosisRecord) []LocationCount {
	type key struct{ greenhouse, section string }
	counts := make(map[key]int)
	for _, d := range rows {
		counts[key{derefName(d.GreenhouseName), derefName(d.SectionName)}]++
	}
	out := make([]LocationCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, LocationCount{Greenhouse: k.greenhouse, Section: k.section, Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		if out[i].Greenhouse != out[j].Greenhouse {
			return out[i].Greenhouse < out[j].Greenhouse
		}
		return out[i].Section < out[j].Section
	})
	return out
}

func operatorStats(rows []models.TaskRecord) []OperatorCount {
	counts := make(map[string]int)
	for _, t := range rows {
		counts[DisplayName(t.OperatorFullName, t.OperatorUsername)]++
	}
	out := make([]OperatorCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, OperatorCount{Operator: name, Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Operator < out[j].Operator
	})
	return out
}
