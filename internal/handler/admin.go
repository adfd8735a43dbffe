package handler

import (
	"net/http"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ── Maintenance & pending reports ────────────────────────────────────────────

type MaintenanceHandler struct {
	svc     service.MaintenanceService
	reports service.ReportService
}

func NewMaintenanceHandler(svc service.MaintenanceService, reports service.ReportService) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc, reports: reports}
}

func (h *MaintenanceHandler) BackfillEnrollments(c *gin.Context) {
	resp, err := h.svc.BackfillEnrollments(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MaintenanceHandler) PurgeStudents(c *gin.Context) {
	resp, err := h.svc.PurgeStudents(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MaintenanceHandler) GeneratePendingReports(c *gin.Context) {
	resp, err := h.svc.GeneratePendingReports(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type pageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (h *MaintenanceHandler) ListPendingReports(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListPendingReports(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MaintenanceHandler) ExportPendingReports(c *gin.Context) {
	var q dto.PendingExportQuery
	if !bindQuery(c, &q) {
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(q.DepartmentID))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("department_id is not a valid id."))
		return
	}
	data, name, err := h.reports.PendingWorkbook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, xlsxContentType, name, data)
}

// ── Requirements ─────────────────────────────────────────────────────────────

type RequirementsHandler struct{ svc service.RequirementService }

func NewRequirementsHandler(svc service.RequirementService) *RequirementsHandler {
	return &RequirementsHandler{svc: svc}
}

func (h *RequirementsHandler) Get(c *gin.Context) {
	var q dto.CohortQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequirementsHandler) Update(c *gin.Context) {
	var req dto.UpdateRequirementsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequirementsHandler) Backfill(c *gin.Context) {
	resp, err := h.svc.Backfill(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Dashboard & activity ─────────────────────────────────────────────────────

type DashboardHandler struct {
	svc   service.DashboardService
	audit service.AuditService
}

func NewDashboardHandler(svc service.DashboardService, audit service.AuditService) *DashboardHandler {
	return &DashboardHandler{svc: svc, audit: audit}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	resp, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activity returns the 20 most recent audit entries.
func (h *DashboardHandler) Activity(c *gin.Context) {
	resp, err := h.audit.Recent(c.Request.Context(), 20)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
