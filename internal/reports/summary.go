package reports

import (
	"encoding/json"
	"time"

	"github.com/agrosense/plant-health/internal/models"
)

// ArtifactSummary is the external view of a persisted report.
type ArtifactSummary struct {
	ID           int64           `json:"id"`
	User         int64           `json:"user"`
	UserFullName string          `json:"user_full_name"`
	ReportType   string          `json:"report_type"`
	PeriodStart  time.Time       `json:"period_start"`
	PeriodEnd    time.Time       `json:"period_end"`
	Data         json.RawMessage `json:"data"`
	GeneratedAt  time.Time       `json:"generated_at"`
	FilePath     string          `json:"file_path"`
}

var emptyObject = json.RawMessage("{}")

// Summarize builds the external view. Stored data that is not valid JSON is
// reported as an empty object.
func Summarize(r *models.Report) *ArtifactSummary {
	data := emptyObject
	if len(r.Data) > 0 && json.Valid(r.Data) {
		data = append(json.RawMessage(nil), r.Data...)
	}
	return &ArtifactSummary{
		ID:           r.ID,
		User:         r.OwnerID,
		UserFullName: r.OwnerName,
		ReportType:   r.ReportType,
		PeriodStart:  r.PeriodStart,
		PeriodEnd:    r.PeriodEnd,
		Data:         data,
		GeneratedAt:  r.GeneratedAt,
		FilePath:     r.FilePath,
	}
}

// snapshot serializes the summary for audit before/after values.
func snapshot(r *models.Report) json.RawMessage {
	if r == nil {
		return nil
	}
	raw, err := json.Marshal(Summarize(r))
	if err != nil {
		return nil
	}
	return raw
}
