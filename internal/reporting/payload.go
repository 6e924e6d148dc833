package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Period is the serialized report window.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DiseaseCount is one entry of the disease distribution.
type DiseaseCount struct {
	DiseaseName string `json:"disease_name"`
	Count       int    `json:"count"`
}

// DiagnosticsMetrics summarizes diagnoses in the period. AvgConfidence is
// nil when the period has no diagnoses.
type DiagnosticsMetrics struct {
	Total         int            `json:"total"`
	AvgConfidence *float64       `json:"avg_confidence"`
	Distribution  []DiseaseCount `json:"distribution"`
}

type RecommendationsMetrics struct {
	Total int `json:"total"`
}

// TasksMetrics summarizes tasks created in the period. Overdue is evaluated
// against the aggregation clock, not the period end.
type TasksMetrics struct {
	Total           int `json:"total"`
	CompletedOnTime int `json:"completed_on_time"`
	Overdue         int `json:"overdue"`
}

// DailyCount is a per-day diagnosis count in the report timezone.
type DailyCount struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// LocationCount is a per-greenhouse-section diagnosis count.
type LocationCount struct {
	Greenhouse string `json:"greenhouse"`
	Section    string `json:"section"`
	Total      int    `json:"total"`
}

// OperatorCount is a per-operator task count.
type OperatorCount struct {
	Operator string `json:"operator"`
	Total    int    `json:"total"`
}

// EconomicsMetrics holds heuristic estimates. They are approximate.
type EconomicsMetrics struct {
	PreventedLoss float64 `json:"prevented_loss"`
	SavedHours    float64 `json:"saved_hours"`
}

// Metrics is the complete, unshaped metrics tree for a period.
type Metrics struct {
	Period          Period                 `json:"period"`
	Diagnostics     DiagnosticsMetrics     `json:"diagnostics"`
	Recommendations RecommendationsMetrics `json:"recommendations"`
	Tasks           TasksMetrics           `json:"tasks"`
	Timeseries      []DailyCount           `json:"timeseries"`
	GreenhouseStats []LocationCount        `json:"greenhouse_stats"`
	OperatorStats   []OperatorCount        `json:"operator_stats"`
	Economics       EconomicsMetrics       `json:"economics"`
}

func (m Metrics) group(g Group) (any, error) {
	switch g {
	case GroupPeriod:
		return m.Period, nil
	case GroupDiagnostics:
		return m.Diagnostics, nil
	case GroupRecommendations:
		return m.Recommendations, nil
	case GroupTasks:
		return m.Tasks, nil
	case GroupTimeseries:
		return m.Timeseries, nil
	case GroupGreenhouseStats:
		return m.GreenhouseStats, nil
	case GroupOperatorStats:
		return m.OperatorStats, nil
	case GroupEconomics:
		return m.Economics, nil
	default:
		return nil, fmt.Errorf("unknown metrics group %q", g)
	}
}

// Payload is a Metrics tree restricted to the groups of a Kind.
type Payload struct {
	Kind    Kind
	Metrics Metrics
}

// Includes reports whether the payload carries the group.
func (p Payload) Includes(g Group) bool {
	return p.Kind.Includes(g)
}

// MarshalJSON writes only the included groups, always in the same order, so
// equal payloads serialize to equal bytes.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range p.Kind.Groups() {
		value, err := p.Metrics.group(g)
		if err != nil {
			return nil, err
		}
		encoded, err := encodeGroup(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", g, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(string(g))
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeGroup(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
