package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/reporting/reportingtest"
)

func TestDiagnosisStatus(t *testing.T) {
	tests := []struct {
		name string
		in   models.DiagnosisRecord
		want string
	}{
		{"unverified", models.DiagnosisRecord{DiseaseName: "Late blight"}, StatusPending},
		{"verified same disease", models.DiagnosisRecord{IsVerified: true, DiseaseName: "Late blight", MLDiseaseName: reportingtest.StringPtr("Late blight")}, StatusConfirmed},
		{"verified no ml prediction", models.DiagnosisRecord{IsVerified: true, DiseaseName: "Late blight"}, StatusConfirmed},
		{"verified different disease", models.DiagnosisRecord{IsVerified: true, DiseaseName: "Leaf mold", MLDiseaseName: reportingtest.StringPtr("Late blight")}, StatusCorrected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiagnosisStatus(tt.in))
		})
	}
}

func TestExtract_DiagnosisRows(t *testing.T) {
	src := reportingtest.NewMemSource()
	day := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	src.Diagnoses = []models.DiagnosisRecord{
		{ID: 1, Timestamp: day, Confidence: 0.8765, DiseaseName: "Late blight", ImagePath: "img/1.jpg",
			IsVerified: true, VerifierUsername: reportingtest.StringPtr("agro1"),
			GreenhouseName: reportingtest.StringPtr("North"), SectionName: reportingtest.StringPtr("S1")},
		{ID: 2, Timestamp: day.Add(time.Hour), Confidence: 0.5, DiseaseName: "Leaf mold",
			VerifierFullName: reportingtest.StringPtr("Should Not Show")},
	}

	details, err := NewExtractor(src, time.UTC).Extract(context.Background(), testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, details.Diagnoses, 2)

	newest := details.Diagnoses[0]
	assert.Equal(t, int64(2), newest.ID)
	assert.Equal(t, StatusPending, newest.Status)
	assert.Equal(t, Placeholder, newest.VerifiedBy)
	assert.Equal(t, Placeholder, newest.Greenhouse)
	assert.Equal(t, Placeholder, newest.Image)

	older := details.Diagnoses[1]
	assert.Equal(t, int64(1), older.ID)
	assert.Equal(t, StatusConfirmed, older.Status)
	assert.Equal(t, "agro1", older.VerifiedBy)
	assert.Equal(t, "North", older.Greenhouse)
	assert.Equal(t, "S1", older.Section)
	assert.Equal(t, 87.65, older.ConfidencePct)
}

func TestExtract_RecommendationTaskRowsAreLeftJoined(t *testing.T) {
	src := reportingtest.NewMemSource()
	day := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	src.Recommendations = []models.RecommendationRecord{
		{ID: 10, DiagnosisID: 1, DiseaseName: "Late blight", AgronomistUsername: "agro1", TreatmentPlanText: "Copper spray", Status: "approved", CreatedAt: day},
		{ID: 11, DiagnosisID: 2, DiseaseName: "Leaf mold", Status: "draft", CreatedAt: day.Add(time.Hour)},
	}
	// Task 102 is created after the period; it still belongs to recommendation 10.
	src.Tasks = []models.TaskRecord{
		{ID: 101, RecommendationID: 10, OperatorFullName: "Ivan Petrov", Description: "Spray row 3", Status: "open",
			Deadline: day.Add(72 * time.Hour), CreatedAt: day},
		{ID: 102, RecommendationID: 10, OperatorUsername: "op2", Status: "done",
			Deadline: day.Add(24 * time.Hour), CreatedAt: testEnd.Add(time.Hour),
			CompletedAt: reportingtest.TimePtr(day.Add(12 * time.Hour))},
		{ID: 999, RecommendationID: 77, Deadline: day, CreatedAt: day},
	}

	details, err := NewExtractor(src, time.UTC).WithClock(func() time.Time { return now }).
		Extract(context.Background(), testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, details.RecommendationTasks, 3)

	// Newest recommendation first, no tasks.
	lone := details.RecommendationTasks[0]
	assert.Equal(t, int64(11), lone.RecommendationID)
	assert.False(t, lone.HasTask)
	assert.Equal(t, Placeholder, lone.Agronomist)
	assert.Nil(t, lone.Deadline)
	assert.Equal(t, int64(0), lone.TaskID)

	// Then recommendation 10's tasks by deadline.
	first := details.RecommendationTasks[1]
	assert.Equal(t, int64(10), first.RecommendationID)
	assert.Equal(t, int64(102), first.TaskID)
	assert.Equal(t, "op2", first.Operator)
	assert.True(t, first.CompletedOnTime)
	assert.False(t, first.Overdue)

	second := details.RecommendationTasks[2]
	assert.Equal(t, int64(101), second.TaskID)
	assert.Equal(t, "Ivan Petrov", second.Operator)
	assert.Equal(t, "agro1", second.Agronomist)
	assert.Equal(t, "Copper spray", second.TreatmentPlan)
	assert.True(t, second.HasTask)
	assert.True(t, second.Overdue)
	require.NotNil(t, second.Deadline)
	assert.Equal(t, day.Add(72*time.Hour), *second.Deadline)
}

func TestExtract_SkipsTaskQueryWithoutRecommendations(t *testing.T) {
	src := reportingtest.NewMemSource()

	details, err := NewExtractor(src, time.UTC).Extract(context.Background(), testStart, testEnd)
	require.NoError(t, err)
	assert.Empty(t, details.Diagnoses)
	assert.Empty(t, details.RecommendationTasks)
	assert.Equal(t, 0, src.Calls["TasksForRecommendations"])
}

func TestExtract_QueryError(t *testing.T) {
	src := reportingtest.NewMemSource()
	src.Err = errors.New("timeout")

	_, err := NewExtractor(src, time.UTC).Extract(context.Background(), testStart, testEnd)
	assert.ErrorIs(t, err, src.Err)
}
