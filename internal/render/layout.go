package render

import (
	"fmt"
	"strconv"
	"time"

	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/reporting"
)

// Sheet and section titles.
const (
	TitleDiagnostics = "Diagnostics"
	TitleTasks       = "Treatment tasks"
	TitleAnalytics   = "Analytics"
)

// Layout decides which detail blocks and analytics tables an artifact
// carries. Both the spreadsheet and the document follow it, so they always
// agree with the payload's inclusion rules.
type Layout struct {
	Kind            reporting.Kind
	DiagnosisDetail bool
	TaskDetail      bool
	Analytics       []reporting.Group
}

// LayoutFor derives the layout of a report kind.
func LayoutFor(kind reporting.Kind) Layout {
	l := Layout{
		Kind:            kind,
		DiagnosisDetail: kind.Includes(reporting.GroupDiagnostics),
		TaskDetail:      kind.Includes(reporting.GroupTasks),
	}
	for _, g := range kind.Groups() {
		if g != reporting.GroupPeriod {
			l.Analytics = append(l.Analytics, g)
		}
	}
	return l
}

// Blocks returns the top-level block titles in output order.
func (l Layout) Blocks() []string {
	var out []string
	if l.DiagnosisDetail {
		out = append(out, TitleDiagnostics)
	}
	if l.TaskDetail {
		out = append(out, TitleTasks)
	}
	return append(out, TitleAnalytics)
}

// table is a titled grid shared by the spreadsheet and document renderers.
type table struct {
	Title  string
	Header []string
	Rows   [][]any
}

// project keeps only the given columns.
func (t table) project(columns ...int) table {
	out := table{Title: t.Title, Header: make([]string, len(columns))}
	for i, c := range columns {
		out.Header[i] = t.Header[c]
	}
	for _, row := range t.Rows {
		projected := make([]any, len(columns))
		for i, c := range columns {
			projected[i] = row[c]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}

func formatTimePtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return formatTime(*t, loc)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// cellText renders a table cell as plain text.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func diagnosisTable(rows []reporting.DiagnosisRow, loc *time.Location) table {
	t := table{
		Title:  TitleDiagnostics,
		Header: []string{"ID", "Date", "Greenhouse", "Section", "Image", "Disease", "Confidence, %", "Status", "Verified by"},
		Rows:   make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.ID,
			formatTime(r.Timestamp, loc),
			r.Greenhouse,
			r.Section,
			r.Image,
			r.Disease,
			r.ConfidencePct,
			r.Status,
			r.VerifiedBy,
		})
	}
	return t
}

// Columns of taskTable, by index.
const (
	colRecID = iota
	colRecDate
	colDiagnosisID
	colDisease
	colAgronomist
	colPlan
	colRecStatus
	colTaskID
	colTask
	colOperator
	colTaskStatus
	colDeadline
	colCompleted
	colOverdue
)

func taskTable(rows []reporting.TaskRow, loc *time.Location) table {
	t := table{
		Title: TitleTasks,
		Header: []string{
			"Recommendation", "Recommended at", "Diagnosis", "Disease", "Agronomist", "Treatment plan",
			"Recommendation status", "Task", "Task description", "Operator", "Task status",
			"Deadline", "Completed at", "Overdue",
		},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		row := []any{
			r.RecommendationID,
			formatTime(r.RecommendationDate, loc),
			r.DiagnosisID,
			r.Disease,
			r.Agronomist,
			r.TreatmentPlan,
			r.RecommendationStatus,
			"", "", "", "", "", "", "",
		}
		if r.HasTask {
			row[colTaskID] = r.TaskID
			row[colTask] = r.TaskDescription
			row[colOperator] = r.Operator
			row[colTaskStatus] = r.TaskStatus
			row[colDeadline] = formatTimePtr(r.Deadline, loc)
			row[colCompleted] = formatTimePtr(r.CompletedAt, loc)
			row[colOverdue] = yesNo(r.Overdue)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// analyticsTables renders every included analytics group as one or more
// tables. Groups outside the payload's kind never produce a table.
func analyticsTables(p reporting.Payload, groups []reporting.Group) []table {
	m := p.Metrics
	var out []table
	for _, g := range groups {
		if !p.Includes(g) {
			continue
		}
		switch g {
		case reporting.GroupDiagnostics:
			avg := any(reporting.Placeholder)
			if m.Diagnostics.AvgConfidence != nil {
				avg = *m.Diagnostics.AvgConfidence
			}
			out = append(out, table{
				Title:  "Diagnostics summary",
				Header: []string{"Metric", "Value"},
				Rows: [][]any{
					{"Total diagnoses", m.Diagnostics.Total},
					{"Average confidence", avg},
				},
			})
			dist := table{Title: "Disease distribution", Header: []string{"Disease", "Count"}}
			for _, d := range m.Diagnostics.Distribution {
				dist.Rows = append(dist.Rows, []any{d.DiseaseName, d.Count})
			}
			out = append(out, dist)
		case reporting.GroupRecommendations:
			out = append(out, table{
				Title:  "Recommendations",
				Header: []string{"Metric", "Value"},
				Rows:   [][]any{{"Total recommendations", m.Recommendations.Total}},
			})
		case reporting.GroupTasks:
			out = append(out, table{
				Title:  "Tasks",
				Header: []string{"Metric", "Value"},
				Rows: [][]any{
					{"Total tasks", m.Tasks.Total},
					{"Completed on time", m.Tasks.CompletedOnTime},
					{"Overdue", m.Tasks.Overdue},
				},
			})
		case reporting.GroupTimeseries:
			ts := table{Title: "Diagnoses by day", Header: []string{"Date", "Diagnoses"}}
			for _, d := range m.Timeseries {
				ts.Rows = append(ts.Rows, []any{d.Date, d.Total})
			}
			out = append(out, ts)
		case reporting.GroupGreenhouseStats:
			gs := table{Title: "Diagnoses by location", Header: []string{"Greenhouse", "Section", "Diagnoses"}}
			for _, s := range m.GreenhouseStats {
				gs.Rows = append(gs.Rows, []any{s.Greenhouse, s.Section, s.Total})
			}
			out = append(out, gs)
		case reporting.GroupOperatorStats:
			ops := table{Title: "Tasks by operator", Header: []string{"Operator", "Tasks"}}
			for _, s := range m.OperatorStats {
				ops.Rows = append(ops.Rows, []any{s.Operator, s.Total})
			}
			out = append(out, ops)
		case reporting.GroupEconomics:
			out = append(out, table{
				Title:  "Economic effect (estimate)",
				Header: []string{"Metric", "Value"},
				Rows: [][]any{
					{"Prevented loss", m.Economics.PreventedLoss},
					{"Saved hours", m.Economics.SavedHours},
				},
			})
		case reporting.GroupPeriod:
		}
	}
	return out
}

func roleLabel(role string) string {
	switch role {
	case models.RoleAdmin:
		return "Administrator"
	case models.RoleAgronomist:
		return "Agronomist"
	case models.RoleOperator:
		return "Operator"
	default:
		return reporting.DisplayName(role)
	}
}

// titleBlock is the header printed above every sheet and at the top of the
// document.
func titleBlock(in Input) []string {
	loc := in.location()
	return []string{
		in.Payload.Kind.Label(),
		fmt.Sprintf("Generated by: %s (%s)", reporting.DisplayName(in.Report.OwnerName), roleLabel(in.Report.OwnerRole)),
		fmt.Sprintf("Period: %s - %s", formatTime(in.Report.PeriodStart, loc), formatTime(in.Report.PeriodEnd, loc)),
	}
}
