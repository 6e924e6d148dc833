// Package reports runs the report lifecycle: shaping a payload, archiving
// it, and serving the archived and rendered forms back to callers.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agrosense/plant-health/internal/access"
	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/render"
	"github.com/agrosense/plant-health/internal/reporting"
	"github.com/agrosense/plant-health/internal/storage"
)

const auditTable = "reports"

// Store persists report records.
type Store interface {
	// Create inserts report, claims idempotencyKey (when set) and calls
	// finalize with the assigned id, all inside one transaction. A finalize
	// error rolls the transaction back.
	Create(ctx context.Context, report *models.Report, idempotencyKey string, finalize func(*models.Report) error) error
	FindByIdempotencyKey(ctx context.Context, ownerID int64, key string) (*models.Report, error)
	Get(ctx context.Context, id int64) (*models.Report, error)
	List(ctx context.Context, ownerID *int64, limit, offset int) ([]models.Report, int, error)
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id int64) error
}

// Archive stores the JSON files.
type Archive interface {
	PathFor(reportID int64) string
	Write(path string, data []byte) error
	Read(path string) ([]byte, error)
	Exists(path string) bool
	Remove(path string) error
}

// AuditSink records mutations.
type AuditSink interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// Shaper produces the payload of a report variant.
type Shaper interface {
	Shape(ctx context.Context, start, end time.Time, reportType string) (reporting.Payload, error)
}

// DetailSource produces per-record rows for tabular renderings.
type DetailSource interface {
	Extract(ctx context.Context, start, end time.Time) (reporting.Details, error)
}

// Dependencies wires a Service.
type Dependencies struct {
	Store     Store
	Archive   Archive
	Audit     AuditSink
	Shaper    Shaper
	Details   DetailSource
	Metrics   reporting.Computer
	Renderers *render.Registry
	Policy    access.Policy
	Location  *time.Location
	// LiveWindow is the default live summary lookback.
	LiveWindow time.Duration
}

// Service implements the report operations.
type Service struct {
	store      Store
	archive    Archive
	audit      AuditSink
	shaper     Shaper
	details    DetailSource
	metrics    reporting.Computer
	renderers  *render.Registry
	policy     access.Policy
	loc        *time.Location
	liveWindow time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates the lifecycle service.
func NewService(d Dependencies) *Service {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	window := d.LiveWindow
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	policy := d.Policy
	if policy == nil {
		policy = access.NewRolePolicy()
	}
	renderers := d.Renderers
	if renderers == nil {
		renderers = render.NewRegistry(render.JSONRenderer{})
	}
	return &Service{
		store:      d.Store,
		archive:    d.Archive,
		audit:      d.Audit,
		shaper:     d.Shaper,
		details:    d.Details,
		metrics:    d.Metrics,
		renderers:  renderers,
		policy:     policy,
		loc:        loc,
		liveWindow: window,
		now:        time.Now,
		logger:     slog.Default().With(slog.String("component", "report-lifecycle")),
	}
}

// WithClock replaces the clock used for live summary defaults.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRequest holds the raw creation parameters.
type CreateRequest struct {
	ReportType     string
	PeriodStart    string
	PeriodEnd      string
	IdempotencyKey string
}

// Create shapes, archives and records a new report. The boolean result is
// false when an idempotency key replayed an existing report.
func (s *Service) Create(ctx context.Context, p access.Principal, req CreateRequest) (*ArtifactSummary, bool, error) {
	if p == nil {
		return nil, false, ErrForbidden
	}
	start, end, err := s.parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, false, err
	}
	reportType := strings.TrimSpace(req.ReportType)
	if reportType == "" {
		reportType = string(reporting.KindFull)
	}
	key := strings.TrimSpace(req.IdempotencyKey)

	logger := s.logger.With(
		slog.Int64("owner_id", p.PrincipalID()),
		slog.String("report_type", reportType),
	)

	if key != "" {
		existing, err := s.store.FindByIdempotencyKey(ctx, p.PrincipalID(), key)
		if err != nil {
			logger.Error("idempotency lookup failed", slog.String("error", err.Error()))
			return nil, false, fmt.Errorf("%w: idempotency lookup: %v", ErrPersistence, err)
		}
		if existing != nil {
			return s.replay(existing, reportType, start, end)
		}
	}

	payload, err := s.shaper.Shape(ctx, start, end, reportType)
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidPeriod) {
			return nil, false, invalid("period", "%v", err)
		}
		logger.Error("aggregation failed",
			slog.String("step", "shape"),
			slog.String("period_start", start.Format(time.RFC3339)),
			slog.String("period_end", end.Format(time.RFC3339)),
			slog.String("error", err.Error()))
		return nil, false, fmt.Errorf("%w: %v", ErrAggregation, err)
	}

	data, err := render.EncodePayload(payload)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	report := &models.Report{
		OwnerID:     p.PrincipalID(),
		ReportType:  reportType,
		PeriodStart: start,
		PeriodEnd:   end,
		Data:        data,
	}

	var written string
	err = s.store.Create(ctx, report, key, func(r *models.Report) error {
		path := s.archive.PathFor(r.ID)
		if err := s.archive.Write(path, data); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
		written = path
		r.FilePath = path
		return nil
	})
	if err != nil {
		if written != "" {
			if rmErr := s.archive.Remove(written); rmErr != nil {
				logger.Error("failed to remove orphaned archive",
					slog.String("path", written), slog.String("error", rmErr.Error()))
			}
		}
		if errors.Is(err, ErrKeyClaimed) {
			existing, lookupErr := s.store.FindByIdempotencyKey(ctx, p.PrincipalID(), key)
			if lookupErr == nil && existing != nil {
				return s.replay(existing, reportType, start, end)
			}
		}
		logger.Error("report persistence failed", slog.String("step", "persist"), slog.String("error", err.Error()))
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	logger.Info("report created",
		slog.Int64("report_id", report.ID),
		slog.String("file_path", report.FilePath),
		slog.Int("bytes", len(data)))
	s.record(ctx, p, models.ActionCreate, report.ID, nil, snapshot(report))

	return Summarize(report), true, nil
}

func (s *Service) replay(existing *models.Report, reportType string, start, end time.Time) (*ArtifactSummary, bool, error) {
	summary := Summarize(existing)
	if existing.ReportType != reportType || !existing.PeriodStart.Equal(start) || !existing.PeriodEnd.Equal(end) {
		return nil, false, &ConflictError{Existing: summary}
	}
	return summary, false, nil
}

// Get returns the report metadata and inline data. It does not touch the
// archive file.
func (s *Service) Get(ctx context.Context, p access.Principal, id int64) (*ArtifactSummary, error) {
	report, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return Summarize(report), nil
}

// List returns the caller's reports, or all reports for administrators,
// newest first.
func (s *Service) List(ctx context.Context, p access.Principal, page, pageSize int) ([]*ArtifactSummary, models.Pagination, error) {
	if p == nil {
		return nil, models.Pagination{}, ErrForbidden
	}
	page, pageSize = normalizePage(page, pageSize)

	var owner *int64
	if !s.policy.IsAdmin(p) {
		id := p.PrincipalID()
		owner = &id
	}

	rows, total, err := s.store.List(ctx, owner, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("%w: list: %v", ErrPersistence, err)
	}

	out := make([]*ArtifactSummary, 0, len(rows))
	for i := range rows {
		out = append(out, Summarize(&rows[i]))
	}
	return out, paginate(page, pageSize, total), nil
}

// UpdateRequest patches the editable fields of a report. Nil fields are
// left unchanged.
type UpdateRequest struct {
	ReportType  *string
	PeriodStart *string
	PeriodEnd   *string
}

// Update changes the type or period of a report. The archived JSON keeps
// its creation-time content; renderings follow the new values.
func (s *Service) Update(ctx context.Context, p access.Principal, id int64, req UpdateRequest) (*ArtifactSummary, error) {
	report, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	before := snapshot(report)

	if req.ReportType != nil {
		reportType := strings.TrimSpace(*req.ReportType)
		if reportType == "" {
			return nil, invalid("report_type", "must not be empty")
		}
		report.ReportType = reportType
	}
	if req.PeriodStart != nil {
		t, err := s.parseBound("period_start", *req.PeriodStart)
		if err != nil {
			return nil, err
		}
		report.PeriodStart = t
	}
	if req.PeriodEnd != nil {
		t, err := s.parseBound("period_end", *req.PeriodEnd)
		if err != nil {
			return nil, err
		}
		report.PeriodEnd = t
	}
	if report.PeriodStart.After(report.PeriodEnd) {
		return nil, invalid("period_start", "must not be after period_end")
	}

	if err := s.store.Update(ctx, report); err != nil {
		s.logger.Error("report update failed", slog.Int64("report_id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: update: %v", ErrPersistence, err)
	}
	s.record(ctx, p, models.ActionUpdate, report.ID, before, snapshot(report))
	return Summarize(report), nil
}

// Delete removes the report record. The archive file stays on disk.
func (s *Service) Delete(ctx context.Context, p access.Principal, id int64) error {
	report, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	before := snapshot(report)
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("report delete failed", slog.Int64("report_id", id), slog.String("error", err.Error()))
		return fmt.Errorf("%w: delete: %v", ErrPersistence, err)
	}
	s.record(ctx, p, models.ActionDelete, id, before, nil)
	return nil
}

// Download is an artifact ready to stream.
type Download struct {
	FileName    string
	ContentType string
	Body        []byte
}

// DownloadJSON serves the archived file byte for byte.
func (s *Service) DownloadJSON(ctx context.Context, p access.Principal, id int64) (*Download, error) {
	report, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if report.FilePath == "" || !s.archive.Exists(report.FilePath) {
		return nil, fmt.Errorf("%w: archive file for report %d is missing", ErrNotFound, id)
	}
	body, err := s.archive.Read(report.FilePath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: archive file for report %d is missing", ErrNotFound, id)
	}
	if err != nil {
		s.logger.Error("archive read failed", slog.Int64("report_id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: read archive: %v", ErrPersistence, err)
	}
	return &Download{
		FileName:    render.FileName(id, render.FormatJSON),
		ContentType: render.JSONRenderer{}.ContentType(),
		Body:        body,
	}, nil
}

// DownloadSpreadsheet renders the report as a workbook.
func (s *Service) DownloadSpreadsheet(ctx context.Context, p access.Principal, id int64) (*Download, error) {
	return s.download(ctx, p, id, render.FormatSpreadsheet)
}

// DownloadDocument renders the report as a paginated document.
func (s *Service) DownloadDocument(ctx context.Context, p access.Principal, id int64) (*Download, error) {
	return s.download(ctx, p, id, render.FormatDocument)
}

func (s *Service) download(ctx context.Context, p access.Principal, id int64, format render.Format) (*Download, error) {
	report, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	renderer, err := s.renderers.Lookup(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	logger := s.logger.With(slog.Int64("report_id", id), slog.String("format", string(format)))

	kind, ok := reporting.ResolveKind(report.ReportType)
	if !ok {
		logger.Warn("stored report type unrecognized, rendering full report",
			slog.String("report_type", report.ReportType))
	}
	start, end, err := s.storedPeriod(report)
	if err != nil {
		logger.Warn("stored report has no usable period", slog.String("error", err.Error()))
		return nil, err
	}

	payload, err := s.shaper.Shape(ctx, start, end, string(kind))
	if err != nil {
		logger.Error("aggregation failed", slog.String("step", "shape"), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrAggregation, err)
	}
	details, err := s.details.Extract(ctx, start, end)
	if err != nil {
		logger.Error("detail extraction failed", slog.String("step", "extract"), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrAggregation, err)
	}

	body, err := renderer.Render(render.Input{
		Report:   *report,
		Payload:  payload,
		Details:  details,
		Location: s.loc,
	})
	if err != nil {
		logger.Error("render failed", slog.String("step", "render"), slog.String("error", err.Error()))
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return &Download{
		FileName:    render.FileName(id, format),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// LiveSummary computes the full metrics tree without persisting anything.
// Missing bounds default to the configured lookback ending now.
func (s *Service) LiveSummary(ctx context.Context, rawStart, rawEnd string) (reporting.Payload, error) {
	var start, end time.Time
	var err error
	if strings.TrimSpace(rawEnd) != "" {
		if end, err = s.parseBound("period_end", rawEnd); err != nil {
			return reporting.Payload{}, err
		}
	} else {
		end = s.now().In(s.loc)
	}
	if strings.TrimSpace(rawStart) != "" {
		if start, err = s.parseBound("period_start", rawStart); err != nil {
			return reporting.Payload{}, err
		}
	} else {
		start = end.Add(-s.liveWindow)
	}
	if start.After(end) {
		return reporting.Payload{}, invalid("period_start", "must not be after period_end")
	}

	metrics, err := s.metrics.Compute(ctx, start, end)
	if err != nil {
		s.logger.Error("live summary aggregation failed", slog.String("error", err.Error()))
		return reporting.Payload{}, fmt.Errorf("%w: %v", ErrAggregation, err)
	}
	return reporting.Payload{Kind: reporting.KindFull, Metrics: metrics}, nil
}

func (s *Service) load(ctx context.Context, p access.Principal, id int64) (*models.Report, error) {
	if p == nil {
		return nil, ErrForbidden
	}
	report, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Error("report lookup failed", slog.Int64("report_id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: get: %v", ErrPersistence, err)
	}
	if report == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if !s.policy.IsOwnerOrAdmin(p, report.OwnerID) {
		return nil, ErrForbidden
	}
	return report, nil
}

// storedPeriod returns the period to render. Records whose columns are
// unusable fall back to the period embedded in the inline payload, and
// records with neither report ErrNoPeriod.
func (s *Service) storedPeriod(r *models.Report) (time.Time, time.Time, error) {
	if !r.PeriodStart.IsZero() && !r.PeriodEnd.IsZero() && !r.PeriodStart.After(r.PeriodEnd) {
		return r.PeriodStart, r.PeriodEnd, nil
	}

	var inline struct {
		Period reporting.Period `json:"period"`
	}
	if err := json.Unmarshal(r.Data, &inline); err == nil {
		start, errStart := reporting.ParseTimestamp(inline.Period.Start, s.loc)
		end, errEnd := reporting.ParseTimestamp(inline.Period.End, s.loc)
		if errStart == nil && errEnd == nil && !start.After(end) {
			s.logger.Warn("stored period unusable, using inline payload period", slog.Int64("report_id", r.ID))
			return start, end, nil
		}
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: report %d", ErrNoPeriod, r.ID)
}

func (s *Service) parsePeriod(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := s.parseBound("period_start", rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := s.parseBound("period_end", rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, invalid("period_start", "must not be after period_end")
	}
	return start, end, nil
}

func (s *Service) parseBound(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, invalid(field, "is required")
	}
	t, err := reporting.ParseTimestamp(raw, s.loc)
	if err != nil {
		return time.Time{}, invalid(field, "must be an ISO 8601 timestamp")
	}
	// Stored bounds keep microseconds; a replayed request must compare equal.
	return t.Truncate(time.Microsecond), nil
}

func (s *Service) record(ctx context.Context, p access.Principal, action string, recordID int64, before, after json.RawMessage) {
	if s.audit == nil {
		return
	}
	actor := p.PrincipalID()
	entry := &models.AuditLog{
		UserID:     &actor,
		ActionType: action,
		TableName:  auditTable,
		RecordID:   recordID,
		OldValues:  before,
		NewValues:  after,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed",
			slog.String("action", action),
			slog.Int64("report_id", recordID),
			slog.String("error", err.Error()))
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func paginate(page, pageSize, total int) models.Pagination {
	pages := (total + pageSize - 1) / pageSize
	return models.Pagination{
		Page:         page,
		PageSize:     pageSize,
		TotalResults: total,
		TotalPages:   pages,
	}
}
