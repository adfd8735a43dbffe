package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"

	"github.com/gin-gonic/gin"
)

type StudentsHandler struct {
	students service.StudentService
	issues   service.IssueService
	imports  service.ImportService
	reports  service.ReportService
}

func NewStudentsHandler(
	students service.StudentService,
	issues service.IssueService,
	imports service.ImportService,
	reports service.ReportService,
) *StudentsHandler {
	return &StudentsHandler{students: students, issues: issues, imports: imports, reports: reports}
}

func (h *StudentsHandler) List(c *gin.Context) {
	var filter dto.StudentFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.students.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StudentsHandler) Get(c *gin.Context) {
	resp, err := h.students.Get(c.Request.Context(), c.Param("usn"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) Update(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.students.Update(c.Request.Context(), actor(c), c.Param("usn"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), actor(c), c.Param("usn")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Records godoc
// @Summary      Issued items and pending quantities of a student
// @Description  Optional cohort hints select the enrollment; issued records are scoped to its academic year and year.
// @Tags         students
// @Produce      json
// @Security     BearerAuth
// @Param        usn           path  string true  "Student USN"
// @Param        academic_year query string false "e.g. 2023-2025"
// @Param        year          query string false "e.g. 1"
// @Success      200 {object} dto.StudentRecordsResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/students/{usn}/records [get]
func (h *StudentsHandler) Records(c *gin.Context) {
	var q dto.CohortQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.issues.StudentRecords(c.Request.Context(), c.Param("usn"), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) Slip(c *gin.Context) {
	var q dto.CohortQuery
	if !bindQuery(c, &q) {
		return
	}
	data, name, err := h.reports.StudentSlip(c.Request.Context(), c.Param("usn"), q)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "application/pdf", name, data)
}

// BulkUpload godoc
// @Summary      Import students from spreadsheet rows
// @Description  Accepts a bare JSON array of rows or {"students": [...]}. Students are upserted by USN and enrolled in their cohort.
// @Tags         students
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ImportResult
// @Failure      400 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/students/bulk-upload [post]
func (h *StudentsHandler) BulkUpload(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return
	}
	var rows []dto.StudentImportRow
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &rows)
	} else {
		var req dto.BulkUploadRequest
		err = json.Unmarshal(trimmed, &req)
		rows = req.Students
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return
	}
	resp, err := h.imports.ImportStudents(c.Request.Context(), actor(c), rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BulkUploadXLSX imports the first sheet of the uploaded "file" workbook.
func (h *StudentsHandler) BulkUploadXLSX(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Upload an .xlsx workbook in the \"file\" field."))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	resp, err := h.imports.ImportStudentsXLSX(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) Enrollments(c *gin.Context) {
	var filter dto.EnrollmentFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.students.ListEnrollments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
