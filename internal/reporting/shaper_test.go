package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/reporting/reportingtest"
)

func seededSource() *reportingtest.MemSource {
	src := reportingtest.NewMemSource()
	day := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	src.Diagnoses = []models.DiagnosisRecord{
		{ID: 1, Timestamp: day, Confidence: 0.9, DiseaseName: "Late blight", GreenhouseName: reportingtest.StringPtr("North"), SectionName: reportingtest.StringPtr("S1")},
		{ID: 2, Timestamp: day, Confidence: 0.6, DiseaseName: "Leaf mold"},
	}
	src.Recommendations = []models.RecommendationRecord{
		{ID: 10, DiagnosisID: 1, DiseaseName: "Late blight", Status: "approved", CreatedAt: day},
	}
	src.Tasks = []models.TaskRecord{
		{ID: 100, RecommendationID: 10, OperatorFullName: "Ivan Petrov", Deadline: day.Add(time.Hour), CreatedAt: day},
	}
	return src
}

func decodeKeys(t *testing.T, p Payload) map[string]json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &keys))
	return keys
}

func TestShape_GroupsPerKind(t *testing.T) {
	shaper := NewShaper(newTestAggregator(seededSource()))

	tests := []struct {
		reportType string
		want       []Group
	}{
		{"diagnostics_summary", []Group{GroupPeriod, GroupDiagnostics, GroupTimeseries, GroupGreenhouseStats}},
		{"tasks_summary", []Group{GroupPeriod, GroupRecommendations, GroupTasks, GroupOperatorStats}},
		{"full_report", AllGroups},
		{"bogus", AllGroups},
		{"", AllGroups},
	}

	for _, tt := range tests {
		t.Run(tt.reportType, func(t *testing.T) {
			payload, err := shaper.Shape(context.Background(), testStart, testEnd, tt.reportType)
			require.NoError(t, err)

			keys := decodeKeys(t, payload)
			assert.Len(t, keys, len(tt.want))
			for _, g := range AllGroups {
				_, present := keys[string(g)]
				assert.Equal(t, payload.Includes(g), present, "group %s", g)
			}
			for _, g := range tt.want {
				assert.Contains(t, keys, string(g))
			}
		})
	}
}

func TestShape_UnknownTypeMatchesFullReport(t *testing.T) {
	shaper := NewShaper(newTestAggregator(seededSource()))

	bogus, err := shaper.Shape(context.Background(), testStart, testEnd, "bogus")
	require.NoError(t, err)
	full, err := shaper.Shape(context.Background(), testStart, testEnd, "full_report")
	require.NoError(t, err)

	assert.Equal(t, KindFull, bogus.Kind)
	a, err := json.Marshal(bogus)
	require.NoError(t, err)
	b, err := json.Marshal(full)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestShape_IsDeterministic(t *testing.T) {
	shaper := NewShaper(newTestAggregator(seededSource()))

	for _, reportType := range []string{"diagnostics_summary", "tasks_summary", "full_report"} {
		first, err := shaper.Shape(context.Background(), testStart, testEnd, reportType)
		require.NoError(t, err)
		second, err := shaper.Shape(context.Background(), testStart, testEnd, reportType)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, a, b, reportType)
	}
}

func TestShape_EmptyPeriodKeepsEmptyLists(t *testing.T) {
	shaper := NewShaper(newTestAggregator(reportingtest.NewMemSource()))

	payload, err := shaper.Shape(context.Background(), testStart, testEnd, "full_report")
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"avg_confidence":null`)
	assert.Contains(t, string(raw), `"distribution":[]`)
	assert.Contains(t, string(raw), `"timeseries":[]`)
	assert.Contains(t, string(raw), `"operator_stats":[]`)
}

func TestShape_ComputeErrorPropagates(t *testing.T) {
	src := reportingtest.NewMemSource()
	src.Err = errors.New("db down")

	_, err := NewShaper(newTestAggregator(src)).Shape(context.Background(), testStart, testEnd, "full_report")
	assert.ErrorIs(t, err, src.Err)
}

func TestKind_Resolve(t *testing.T) {
	kind, ok := ResolveKind("tasks_summary")
	assert.True(t, ok)
	assert.Equal(t, KindTasksSummary, kind)

	kind, ok = ResolveKind("Tasks_Summary")
	assert.False(t, ok)
	assert.Equal(t, KindFull, kind)

	assert.Equal(t, "Diagnostics summary", KindDiagnosticsSummary.Label())
	assert.True(t, KindFull.Includes(GroupEconomics))
	assert.False(t, KindDiagnosticsSummary.Includes(GroupTasks))
}
