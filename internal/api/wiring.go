package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrosense/plant-health/internal/access"
	"github.com/agrosense/plant-health/internal/config"
	"github.com/agrosense/plant-health/internal/render"
	"github.com/agrosense/plant-health/internal/reporting"
	"github.com/agrosense/plant-health/internal/reports"
	"github.com/agrosense/plant-health/internal/repository"
	"github.com/agrosense/plant-health/internal/storage"
)

// NewServices wires the Postgres-backed application services.
func NewServices(pool *pgxpool.Pool, cfg *config.Config) (Services, error) {
	loc, err := cfg.Reports.Location()
	if err != nil {
		return Services{}, err
	}
	archive, err := storage.NewLocalFS(cfg.Reports.Dir)
	if err != nil {
		return Services{}, fmt.Errorf("open reports dir: %w", err)
	}

	source := repository.NewSourceRepository(pool)
	keys := repository.NewIdempotencyRepository(pool)
	reportRepo := repository.NewReportRepository(pool, keys)
	auditRepo := repository.NewAuditRepository(pool)

	aggregator := reporting.NewAggregator(source, loc, reporting.Economics{
		PreventedLossPerDiagnosis: cfg.Reports.PreventedLossPerDiagnosis,
		SavedHoursPerTask:         cfg.Reports.SavedHoursPerTask,
	})
	policy := access.NewRolePolicy()

	service := reports.NewService(reports.Dependencies{
		Store:      reportRepo,
		Archive:    archive,
		Audit:      auditRepo,
		Shaper:     reporting.NewShaper(aggregator),
		Details:    reporting.NewExtractor(source, loc),
		Metrics:    aggregator,
		Renderers:  NewRegistry(cfg.Reports),
		Policy:     policy,
		Location:   loc,
		LiveWindow: time.Duration(cfg.Reports.LiveSummaryDays) * 24 * time.Hour,
	})

	return Services{
		Reports: service,
		Audit:   reports.NewAuditLog(auditRepo, policy),
		Policy:  policy,
		Ping:    pool.Ping,
	}, nil
}

// NewRegistry registers the JSON renderer and whichever tabular renderers
// are enabled.
func NewRegistry(cfg config.ReportsConfig) *render.Registry {
	registry := render.NewRegistry(render.JSONRenderer{})
	if cfg.EnableSpreadsheet {
		registry.Register(render.NewSpreadsheetRenderer())
	}
	if cfg.EnableDocument {
		font := render.ResolveFont(cfg.FontCandidates, slog.Default())
		registry.Register(render.NewDocumentRenderer(font))
	}
	slog.Info("report renderers registered", "formats", registry.Formats())
	return registry
}
