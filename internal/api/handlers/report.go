package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/plant-health/internal/access"
	"github.com/agrosense/plant-health/internal/api/middleware"
	"github.com/agrosense/plant-health/internal/api/response"
	"github.com/agrosense/plant-health/internal/render"
	"github.com/agrosense/plant-health/internal/reports"
)

// ReportHandler serves the report lifecycle endpoints.
type ReportHandler struct {
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(service *reports.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

// createReportRequest is the POST /reports body. Bounds are ISO-8601
// strings; report_type defaults to full_report.
type createReportRequest struct {
	ReportType     string `json:"report_type"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	IdempotencyKey string `json:"idempotency_key"`
}

// updateReportRequest is the PATCH /reports/:id body. Absent fields are left
// unchanged.
type updateReportRequest struct {
	ReportType  *string `json:"report_type"`
	PeriodStart *string `json:"period_start"`
	PeriodEnd   *string `json:"period_end"`
}

// HandleCreate handles POST /api/v1/reports.
func (h *ReportHandler) HandleCreate(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", nil)
		return
	}

	// Header takes precedence over the body.
	key := c.GetHeader("Idempotency-Key")
	if key == "" {
		key = req.IdempotencyKey
	}

	summary, created, err := h.service.Create(c.Request.Context(), p, reports.CreateRequest{
		ReportType:     req.ReportType,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		IdempotencyKey: key,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	response.Success(c, status, summary)
}

// HandleList handles GET /api/v1/reports.
func (h *ReportHandler) HandleList(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	page, pageSize := pageParams(c)
	items, pagination, err := h.service.List(c.Request.Context(), p, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Page(c, items, pagination)
}

// HandleGet handles GET /api/v1/reports/:id.
func (h *ReportHandler) HandleGet(c *gin.Context) {
	p, id, ok := h.target(c)
	if !ok {
		return
	}

	summary, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// HandleUpdate handles PATCH /api/v1/reports/:id.
func (h *ReportHandler) HandleUpdate(c *gin.Context) {
	p, id, ok := h.target(c)
	if !ok {
		return
	}

	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", nil)
		return
	}

	summary, err := h.service.Update(c.Request.Context(), p, id, reports.UpdateRequest{
		ReportType:  req.ReportType,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// HandleDelete handles DELETE /api/v1/reports/:id.
func (h *ReportHandler) HandleDelete(c *gin.Context) {
	p, id, ok := h.target(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleDownloadJSON handles GET /api/v1/reports/:id/download.
func (h *ReportHandler) HandleDownloadJSON(c *gin.Context) {
	h.download(c, h.service.DownloadJSON)
}

// HandleDownloadSpreadsheet handles GET /api/v1/reports/:id/download/xlsx.
func (h *ReportHandler) HandleDownloadSpreadsheet(c *gin.Context) {
	h.download(c, h.service.DownloadSpreadsheet)
}

// HandleDownloadDocument handles GET /api/v1/reports/:id/download/pdf.
func (h *ReportHandler) HandleDownloadDocument(c *gin.Context) {
	h.download(c, h.service.DownloadDocument)
}

type downloadFunc func(ctx context.Context, p access.Principal, id int64) (*reports.Download, error)

func (h *ReportHandler) download(c *gin.Context, fn downloadFunc) {
	p, id, ok := h.target(c)
	if !ok {
		return
	}

	d, err := fn(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Attachment(c, d.FileName, d.ContentType, d.Body)
}

// HandleSummary handles GET /api/v1/reports/summary. Missing bounds default
// to the configured lookback ending now.
func (h *ReportHandler) HandleSummary(c *gin.Context) {
	if _, ok := middleware.Principal(c); !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	payload, err := h.service.LiveSummary(c.Request.Context(), c.Query("period_start"), c.Query("period_end"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, payload)
}

func (h *ReportHandler) target(c *gin.Context) (access.Principal, int64, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return nil, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid report id", nil)
		return nil, 0, false
	}
	return p, id, true
}

// writeError maps the lifecycle error taxonomy onto the envelope. Aggregation
// and persistence details stay in the logs.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validation *reports.ValidationError
	var conflict *reports.ConflictError
	switch {
	case errors.As(err, &validation):
		details := map[string]string{}
		if validation.Field != "" {
			details["field"] = validation.Field
		}
		response.BadRequest(c, validation.Error(), details)
	case errors.As(err, &conflict):
		response.Conflict(c, "idempotency key already used for a different report", conflict.Existing)
	case errors.Is(err, reports.ErrForbidden):
		response.Forbidden(c, "you do not have access to this report")
	case errors.Is(err, render.ErrFormatUnavailable):
		response.NotFound(c, "download format is not available")
	case errors.Is(err, reports.ErrNoPeriod):
		response.NotFound(c, "report has no usable period to render")
	case errors.Is(err, reports.ErrNotFound):
		response.NotFound(c, "report not found")
	case errors.Is(err, reports.ErrAggregation):
		response.InternalError(c, "failed to compute report metrics")
	case errors.Is(err, reports.ErrPersistence):
		response.InternalError(c, "failed to save report")
	default:
		response.InternalError(c, "internal error")
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	return page, pageSize
}
