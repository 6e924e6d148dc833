package reports_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agrosense/plant-health/internal/access"
	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/render"
	"github.com/agrosense/plant-health/internal/reporting"
	"github.com/agrosense/plant-health/internal/reporting/reportingtest"
	"github.com/agrosense/plant-health/internal/reports"
	"github.com/agrosense/plant-health/internal/reports/reportstest"
)

var (
	fixedNow = time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

	owner = access.Identity{ID: 1, Username: "agro1", FullName: "Anna Smirnova", Role: models.RoleAgronomist}
	other = access.Identity{ID: 2, Username: "op1", FullName: "Ivan Petrov", Role: models.RoleOperator}
	admin = access.Identity{ID: 3, Username: "root", Role: models.RoleAdmin}
)

const (
	juneStart = "2024-06-01T00:00:00Z"
	juneEnd   = "2024-06-30T23:59:59Z"
)

type harness struct {
	svc     *reports.Service
	store   *reportstest.MemStore
	archive *reportstest.MemArchive
	audit   *reportstest.MemAudit
	source  *reportingtest.MemSource
}

func seed(src *reportingtest.MemSource) {
	day := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	src.Diagnoses = []models.DiagnosisRecord{
		{ID: 1, Timestamp: day, Confidence: 0.9, DiseaseName: "Late blight", IsVerified: true,
			VerifierFullName: reportingtest.StringPtr("Anna Smirnova"),
			GreenhouseName:   reportingtest.StringPtr("North"), SectionName: reportingtest.StringPtr("S1")},
		{ID: 2, Timestamp: day.Add(time.Hour), Confidence: 0.8, DiseaseName: "Late blight"},
		{ID: 3, Timestamp: day.Add(2 * time.Hour), Confidence: 0.7, DiseaseName: "Leaf mold"},
	}
	src.Recommendations = []models.RecommendationRecord{
		{ID: 10, DiagnosisID: 1, DiseaseName: "Late blight", AgronomistFullName: "Anna Smirnova",
			TreatmentPlanText: "Copper spray", Status: "approved", CreatedAt: day},
	}
	src.Tasks = []models.TaskRecord{
		{ID: 100, RecommendationID: 10, OperatorFullName: "Ivan Petrov", Description: "Spray row 3",
			Status: "open", Deadline: day.Add(24 * time.Hour), CreatedAt: day},
	}
}

func newHarness(t *testing.T, renderers ...render.Renderer) *harness {
	t.Helper()
	src := reportingtest.NewMemSource()
	seed(src)

	clock := func() time.Time { return fixedNow }
	agg := reporting.NewAggregator(src, time.UTC, reporting.DefaultEconomics).WithClock(clock)

	if len(renderers) == 0 {
		doc := render.NewDocumentRenderer(nil)
		doc.Compress = false
		renderers = []render.Renderer{render.JSONRenderer{}, render.NewSpreadsheetRenderer(), doc}
	}

	h := &harness{
		store: reportstest.NewMemStore(
			models.User{ID: owner.ID, FullName: owner.FullName, Username: owner.Username, RoleName: owner.Role},
			models.User{ID: other.ID, FullName: other.FullName, Username: other.Username, RoleName: other.Role},
			models.User{ID: admin.ID, Username: admin.Username, RoleName: admin.Role},
		),
		archive: reportstest.NewMemArchive(),
		audit:   &reportstest.MemAudit{},
		source:  src,
	}
	h.svc = reports.NewService(reports.Dependencies{
		Store:      h.store,
		Archive:    h.archive,
		Audit:      h.audit,
		Shaper:     reporting.NewShaper(agg),
		Details:    reporting.NewExtractor(src, time.UTC).WithClock(clock),
		Metrics:    agg,
		Renderers:  render.NewRegistry(renderers...),
		Policy:     access.NewRolePolicy(),
		Location:   time.UTC,
		LiveWindow: 30 * 24 * time.Hour,
	}).WithClock(clock)
	return h
}

func (h *harness) create(t *testing.T, p access.Principal, reportType string) *reports.ArtifactSummary {
	t.Helper()
	summary, created, err := h.svc.Create(context.Background(), p, reports.CreateRequest{
		ReportType:  reportType,
		PeriodStart: juneStart,
		PeriodEnd:   juneEnd,
	})
	require.NoError(t, err)
	require.True(t, created)
	return summary
}

func groupKeys(t *testing.T, data json.RawMessage) []string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	keys := make([]string, 0, len(m))
	for _, g := range reporting.AllGroups {
		if _, ok := m[string(g)]; ok {
			keys = append(keys, string(g))
		}
	}
	assert.Len(t, m, len(keys), "no unexpected top-level keys")
	return keys
}

func TestCreate_FullReport(t *testing.T) {
	h := newHarness(t)

	summary := h.create(t, owner, "full_report")

	assert.Equal(t, int64(1), summary.ID)
	assert.Equal(t, owner.ID, summary.User)
	assert.Equal(t, "Anna Smirnova", summary.UserFullName)
	assert.Equal(t, "full_report", summary.ReportType)
	assert.Equal(t, "mem/report_1.json", summary.FilePath)
	assert.False(t, summary.GeneratedAt.IsZero())

	var payload struct {
		Diagnostics reporting.DiagnosticsMetrics `json:"diagnostics"`
		Tasks       reporting.TasksMetrics       `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(summary.Data, &payload))
	assert.Equal(t, 3, payload.Diagnostics.Total)
	require.NotNil(t, payload.Diagnostics.AvgConfidence)
	assert.Equal(t, 0.8, *payload.Diagnostics.AvgConfidence)
	assert.Equal(t, 1, payload.Tasks.Overdue)

	archived, err := h.archive.Read(summary.FilePath)
	require.NoError(t, err)
	assert.Equal(t, []byte(summary.Data), archived, "archive matches inline data at creation")
	assert.True(t, bytes.Contains(archived, []byte("\n  \"diagnostics\"")), "archive is pretty-printed")

	require.Len(t, h.audit.Entries, 1)
	entry := h.audit.Entries[0]
	assert.Equal(t, models.ActionCreate, entry.ActionType)
	assert.Equal(t, "reports", entry.TableName)
	assert.Equal(t, summary.ID, entry.RecordID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, owner.ID, *entry.UserID)
	assert.Nil(t, entry.OldValues)

	var snap reports.ArtifactSummary
	require.NoError(t, json.Unmarshal(entry.NewValues, &snap))
	assert.Equal(t, summary.ID, snap.ID)
	assert.Equal(t, summary.FilePath, snap.FilePath)
	assert.JSONEq(t, string(summary.Data), string(snap.Data))
}

func TestCreate_ShapesByType(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		reportType string
		want       []string
	}{
		{"diagnostics_summary", []string{"period", "diagnostics", "timeseries", "greenhouse_stats"}},
		{"tasks_summary", []string{"period", "recommendations", "tasks", "operator_stats"}},
		{"bogus", []string{"period", "diagnostics", "recommendations", "tasks", "timeseries", "greenhouse_stats", "operator_stats", "economics"}},
		{"", []string{"period", "diagnostics", "recommendations", "tasks", "timeseries", "greenhouse_stats", "operator_stats", "economics"}},
	}

	for _, tt := range tests {
		t.Run(tt.reportType, func(t *testing.T) {
			summary := h.create(t, owner, tt.reportType)
			assert.Equal(t, tt.want, groupKeys(t, summary.Data))
		})
	}

	// The raw label is stored as given.
	list, _, err := h.svc.List(context.Background(), owner, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "full_report", list[0].ReportType)
	assert.Equal(t, "bogus", list[1].ReportType)
}

func TestCreate_JSONRoundTrip(t *testing.T) {
	h := newHarness(t)
	summary := h.create(t, owner, "full_report")

	download, err := h.svc.DownloadJSON(context.Background(), owner, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, "report_1.json", download.FileName)
	assert.Equal(t, "application/json", download.ContentType)

	var fromFile, inline any
	require.NoError(t, json.Unmarshal(download.Body, &fromFile))
	require.NoError(t, json.Unmarshal(summary.Data, &inline))
	assert.Equal(t, inline, fromFile)

	got, err := h.svc.Get(context.Background(), owner, summary.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(summary.Data), string(got.Data))
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		req   reports.CreateRequest
		field string
	}{
		{"missing start", reports.CreateRequest{PeriodEnd: juneEnd}, "period_start"},
		{"missing end", reports.CreateRequest{PeriodStart: juneStart}, "period_end"},
		{"not iso", reports.CreateRequest{PeriodStart: "June 1st", PeriodEnd: juneEnd}, "period_start"},
		{"inverted", reports.CreateRequest{PeriodStart: juneEnd, PeriodEnd: juneStart}, "period_start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.svc.Create(context.Background(), owner, tt.req)
			var verr *reports.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Equal(t, 0, h.store.Len())
}

func TestCreate_AggregationFailureLeavesNothing(t *testing.T) {
	h := newHarness(t)
	h.source.Err = errors.New("relation \"diagnoses\" does not exist")

	_, _, err := h.svc.Create(context.Background(), owner, reports.CreateRequest{PeriodStart: juneStart, PeriodEnd: juneEnd})
	require.ErrorIs(t, err, reports.ErrAggregation)
	assert.Equal(t, 0, h.store.Len())
	assert.Empty(t, h.archive.Paths())
	assert.Empty(t, h.audit.Entries)
}

func TestCreate_ArchiveWriteFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	h.archive.WriteErr = errors.New("disk full")

	_, _, err := h.svc.Create(context.Background(), owner, reports.CreateRequest{PeriodStart: juneStart, PeriodEnd: juneEnd})
	require.ErrorIs(t, err, reports.ErrPersistence)
	assert.Equal(t, 0, h.store.Len())
	assert.Empty(t, h.audit.Entries)
}

func TestCreate_CommitFailureRemovesArchive(t *testing.T) {
	h := newHarness(t)
	h.store.CommitErr = errors.New("serialization failure")

	_, _, err := h.svc.Create(context.Background(), owner, reports.CreateRequest{PeriodStart: juneStart, PeriodEnd: juneEnd})
	require.ErrorIs(t, err, reports.ErrPersistence)
	assert.Empty(t, h.archive.Paths(), "written file is compensated")
	assert.Equal(t, 0, h.store.Len())
}

func TestCreate_AuditFailureDoesNotFailCreation(t *testing.T) {
	h := newHarness(t)
	h.audit.Err = errors.New("audit table locked")

	summary := h.create(t, owner, "tasks_summary")
	assert.NotZero(t, summary.ID)
	assert.Equal(t, 1, h.store.Len())
}

func TestCreate_IdempotencyKey(t *testing.T) {
	h := newHarness(t)
	req := reports.CreateRequest{
		ReportType:     "tasks_summary",
		PeriodStart:    juneStart,
		PeriodEnd:      juneEnd,
		IdempotencyKey: "abc-123",
	}

	first, created, err := h.svc.Create(context.Background(), owner, req)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := h.svc.Create(context.Background(), owner, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, h.store.Len())
	assert.Len(t, h.audit.Entries, 1)

	// Keys are scoped per owner.
	_, created, err = h.svc.Create(context.Background(), other, req)
	require.NoError(t, err)
	assert.True(t, created)

	req.ReportType = "full_report"
	_, _, err = h.svc.Create(context.Background(), owner, req)
	var conflict *reports.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.Existing.ID)
}

func TestCreate_IdempotencyReplaySubMicrosecond(t *testing.T) {
	h := newHarness(t)
	req := reports.CreateRequest{
		ReportType:     "full_report",
		PeriodStart:    "2024-06-01T00:00:00.1234567Z",
		PeriodEnd:      "2024-06-30T23:59:59.9999999Z",
		IdempotencyKey: "retry-1",
	}

	first, created, err := h.svc.Create(context.Background(), owner, req)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, 123456000, first.PeriodStart.Nanosecond())

	stored, err := h.store.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 999999000, stored.PeriodEnd.Nanosecond())

	second, created, err := h.svc.Create(context.Background(), owner, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestGet_Access(t *testing.T) {
	h := newHarness(t)
	summary := h.create(t, owner, "full_report")

	_, err := h.svc.Get(context.Background(), owner, summary.ID)
	assert.NoError(t, err)

	_, err = h.svc.Get(context.Background(), admin, summary.ID)
	assert.NoError(t, err)

	staff := access.Identity{ID: 9, Role: models.RoleOperator, Staff: true}
	_, err = h.svc.Get(context.Background(), staff, summary.ID)
	assert.NoError(t, err)

	_, err = h.svc.Get(context.Background(), other, summary.ID)
	assert.ErrorIs(t, err, reports.ErrForbidden)

	_, err = h.svc.DownloadJSON(context.Background(), other, summary.ID)
	assert.ErrorIs(t, err, reports.ErrForbidden)

	_, err = h.svc.Get(context.Background(), owner, 404)
	assert.ErrorIs(t, err, reports.ErrNotFound)

	_, err = h.svc.Get(context.Background(), nil, summary.ID)
	assert.ErrorIs(t, err, reports.ErrForbidden)
}

func TestList_OwnershipAndOrder(t *testing.T) {
	h := newHarness(t)
	a := h.create(t, owner, "full_report")
	b := h.create(t, other, "tasks_summary")
	c := h.create(t, owner, "diagnostics_summary")

	mine, page, err := h.svc.List(context.Background(), owner, 1, 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, c.ID, mine[0].ID, "newest first")
	assert.Equal(t, a.ID, mine[1].ID)
	assert.Equal(t, 2, page.TotalResults)

	all, page, err := h.svc.List(context.Background(), admin, 1, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 3, page.TotalResults)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, c.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)

	rest, _, err := h.svc.List(context.Background(), admin, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, a.ID, rest[0].ID)
}

func TestDownloadJSON_FileRemovedOutOfBand(t *testing.T) {
	h := newHarness(t)
	summary := h.create(t, owner, "full_report")
	require.NoError(t, h.archive.Remove(summary.FilePath))

	_, err := h.svc.DownloadJSON(context.Background(), owner, summary.ID)
	assert.ErrorIs(t, err, reports.ErrNotFound)

	got, err := h.svc.Get(context.Background(), owner, summary.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(summary.Data), string(got.Data))
}

func sheetList(t *testing.T, body []byte) []string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	return f.GetSheetList()
}

func TestDownloadSpreadsheet_FollowsStoredType(t *testing.T) {
	h := newHarness(t)

	tasks := h.create(t, owner, "tasks_summary")
	download, err := h.svc.DownloadSpreadsheet(context.Background(), owner, tasks.ID)
	require.NoError(t, err)
	assert.Equal(t, "report_1.xlsx", download.FileName)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", download.ContentType)
	assert.Equal(t, []string{render.TitleTasks, render.TitleAnalytics}, sheetList(t, download.Body))

	diag := h.create(t, owner, "diagnostics_summary")
	download, err = h.svc.DownloadSpreadsheet(context.Background(), owner, diag.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{render.TitleDiagnostics, render.TitleAnalytics}, sheetList(t, download.Body))
}

// pdfText is the content stream operator fpdf emits to show body.
func pdfText(body string) string {
	return "(" + body + ")Tj"
}

func TestDownloadDocument_InclusionRules(t *testing.T) {
	h := newHarness(t)

	tasks := h.create(t, owner, "tasks_summary")
	download, err := h.svc.DownloadDocument(context.Background(), owner, tasks.ID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", download.ContentType)
	assert.Equal(t, "report_1.pdf", download.FileName)

	body := string(download.Body)
	assert.NotContains(t, body, pdfText("Diagnostics"))
	assert.Contains(t, body, pdfText("Treatment tasks"))
	assert.Contains(t, body, pdfText("Spray row 3"))

	diag := h.create(t, owner, "diagnostics_summary")
	download, err = h.svc.DownloadDocument(context.Background(), owner, diag.ID)
	require.NoError(t, err)
	assert.NotContains(t, string(download.Body), pdfText("Tasks by operator"))
	assert.Contains(t, string(download.Body), pdfText("Diagnostics"))
}

func TestDownload_LegacyRecordDegrades(t *testing.T) {
	h := newHarness(t)
	h.store.Put(models.Report{
		ID:         50,
		OwnerID:    owner.ID,
		OwnerName:  owner.FullName,
		ReportType: "weekly_digest",
		Data:       json.RawMessage(`{"period":{"start":"2024-06-01T00:00:00Z","end":"2024-06-30T00:00:00Z"}}`),
	})

	download, err := h.svc.DownloadSpreadsheet(context.Background(), owner, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{render.TitleDiagnostics, render.TitleTasks, render.TitleAnalytics}, sheetList(t, download.Body))

	h.store.Put(models.Report{ID: 51, OwnerID: owner.ID, ReportType: "full_report", Data: json.RawMessage(`not json`)})
	_, err = h.svc.DownloadDocument(context.Background(), owner, 51)
	assert.ErrorIs(t, err, reports.ErrNoPeriod)
	assert.ErrorIs(t, err, reports.ErrNotFound)
	var verr *reports.ValidationError
	assert.False(t, errors.As(err, &verr), "an unreadable stored record is not the caller's input problem")

	got, err := h.svc.Get(context.Background(), owner, 51)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got.Data))
}

func TestDownload_DisabledFormat(t *testing.T) {
	h := newHarness(t, render.JSONRenderer{})
	summary := h.create(t, owner, "full_report")

	_, err := h.svc.DownloadDocument(context.Background(), owner, summary.ID)
	assert.ErrorIs(t, err, reports.ErrNotFound)
	assert.ErrorIs(t, err, render.ErrFormatUnavailable)
}

func TestDownload_DetailFailure(t *testing.T) {
	h := newHarness(t)
	summary := h.create(t, owner, "full_report")
	h.source.Err = errors.New("connection refused")

	_, err := h.svc.DownloadSpreadsheet(context.Background(), owner, summary.ID)
	assert.ErrorIs(t, err, reports.ErrAggregation)
}

func TestUpdate(t *testing.T) {
	h := newHarness(t)
	summary := h.create(t, owner, "full_report")

	newType := "tasks_summary"
	newStart := "2024-06-05T00:00:00Z"
	updated, err := h.svc.Update(context.Background(), owner, summary.ID, reports.UpdateRequest{
		ReportType:  &newType,
		PeriodStart: &newStart,
	})
	require.NoError(t, err)
	assert.Equal(t, "tasks_summary", updated.ReportType)
	assert.True(t, updated.PeriodStart.Equal(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)))
	assert.JSONEq(t, string(summary.Data), string(updated.Data), "inline data is not regenerated")

	require.Len(t, h.audit.Entries, 2)
	entry := h.audit.Entries[1]
	assert.Equal(t, models.ActionUpdate, entry.ActionType)
	assert.Contains(t, string(entry.OldValues), `"report_type":"full_report"`)
	assert.Contains(t, string(entry.NewValues), `"report_type":"tasks_summary"`)

	download, err := h.svc.DownloadSpreadsheet(context.Background(), owner, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{render.TitleTasks, render.TitleAnalytics}, sheetList(t, download.Body))

	badEnd := "2024-05-01T00:00:00Z"
	_, err = h.svc.Update(context.Background(), owner, summary.ID, reports.UpdateRequest{PeriodEnd: &badEnd})
	var verr *reports.ValidationError
	assert.ErrorAs(t, err, &verr)

	empty := " "
	_, err = h.svc.Update(context.Background(), owner, summary.ID, reports.UpdateRequest{ReportType: &empty})
	assert.ErrorAs(t, err, &verr)

	_, err = h.svc.Update(context.Background(), other, summary.ID, reports.UpdateRequest{ReportType: &newType})
	assert.ErrorIs(t, err, reports.ErrForbidden)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	summary := h.create(t, owner, "full_report")

	assert.ErrorIs(t, h.svc.Delete(context.Background(), other, summary.ID), reports.ErrForbidden)

	require.NoError(t, h.svc.Delete(context.Background(), owner, summary.ID))
	_, err := h.svc.Get(context.Background(), owner, summary.ID)
	assert.ErrorIs(t, err, reports.ErrNotFound)
	assert.True(t, h.archive.Exists(summary.FilePath), "archive file is kept")

	entry := h.audit.Entries[len(h.audit.Entries)-1]
	assert.Equal(t, models.ActionDelete, entry.ActionType)
	assert.NotNil(t, entry.OldValues)
	assert.Nil(t, entry.NewValues)

	assert.ErrorIs(t, h.svc.Delete(context.Background(), owner, summary.ID), reports.ErrNotFound)
}

func TestLiveSummary(t *testing.T) {
	h := newHarness(t)

	payload, err := h.svc.LiveSummary(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, reporting.KindFull, payload.Kind)
	assert.Equal(t, "2024-06-15T12:00:00Z", payload.Metrics.Period.Start)
	assert.Equal(t, "2024-07-15T12:00:00Z", payload.Metrics.Period.End)
	assert.Equal(t, 0, payload.Metrics.Diagnostics.Total, "seeded data is older than the window")

	payload, err = h.svc.LiveSummary(context.Background(), juneStart, juneEnd)
	require.NoError(t, err)
	assert.Equal(t, 3, payload.Metrics.Diagnostics.Total)

	payload, err = h.svc.LiveSummary(context.Background(), "", "2024-06-30T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-31T00:00:00Z", payload.Metrics.Period.Start)

	_, err = h.svc.LiveSummary(context.Background(), "garbage", "")
	var verr *reports.ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Equal(t, 0, h.store.Len(), "live summary persists nothing")
	assert.Empty(t, h.archive.Paths())
}

func TestAuditLog_List(t *testing.T) {
	h := newHarness(t)
	h.create(t, owner, "full_report")
	h.create(t, owner, "tasks_summary")

	audit := reports.NewAuditLog(h.audit, access.NewRolePolicy())

	_, _, err := audit.List(context.Background(), owner, 1, 10)
	assert.ErrorIs(t, err, reports.ErrForbidden)

	entries, page, err := audit.List(context.Background(), admin, 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].RecordID, "newest first")
	assert.Equal(t, 2, page.TotalResults)
	assert.Equal(t, 2, page.TotalPages)
}
