// Package reportingtest provides an in-memory reporting.Source for tests.
package reportingtest

import (
	"context"
	"sync"
	"time"

	"github.com/agrosense/plant-health/internal/models"
)

// MemSource holds primary entities in memory and answers range queries the
// way the Postgres source does: inclusive on both bounds.
type MemSource struct {
	mu              sync.Mutex
	Diagnoses       []models.DiagnosisRecord
	Recommendations []models.RecommendationRecord
	Tasks           []models.TaskRecord

	// Err, when set, is returned by every query.
	Err error
	// Calls counts queries by method name.
	Calls map[string]int
}

// NewMemSource returns an empty source.
func NewMemSource() *MemSource {
	return &MemSource{Calls: make(map[string]int)}
}

func (s *MemSource) record(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Calls == nil {
		s.Calls = make(map[string]int)
	}
	s.Calls[method]++
	return s.Err
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func (s *MemSource) DiagnosesBetween(_ context.Context, start, end time.Time) ([]models.DiagnosisRecord, error) {
	if err := s.record("DiagnosesBetween"); err != nil {
		return nil, err
	}
	var out []models.DiagnosisRecord
	for _, d := range s.Diagnoses {
		if within(d.Timestamp, start, end) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemSource) RecommendationsBetween(_ context.Context, start, end time.Time) ([]models.RecommendationRecord, error) {
	if err := s.record("RecommendationsBetween"); err != nil {
		return nil, err
	}
	var out []models.RecommendationRecord
	for _, r := range s.Recommendations {
		if within(r.CreatedAt, start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemSource) TasksBetween(_ context.Context, start, end time.Time) ([]models.TaskRecord, error) {
	if err := s.record("TasksBetween"); err != nil {
		return nil, err
	}
	var out []models.TaskRecord
	for _, t := range s.Tasks {
		if within(t.CreatedAt, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemSource) TasksForRecommendations(_ context.Context, ids []int64) ([]models.TaskRecord, error) {
	if err := s.record("TasksForRecommendations"); err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.TaskRecord
	for _, t := range s.Tasks {
		if wanted[t.RecommendationID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
