package handler

import (
	"net/http"

	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"

	"github.com/gin-gonic/gin"
)

type IssuesHandler struct{ svc service.IssueService }

func NewIssuesHandler(svc service.IssueService) *IssuesHandler { return &IssuesHandler{svc: svc} }

// Issue godoc
// @Summary      Issue items to a student
// @Description  All lines are committed in one transaction: any unknown item or short stock rolls back every line.
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.IssueRequest true "Student and item lines"
// @Success      201  {array}  dto.IssueRecordResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/issues [post]
func (h *IssuesHandler) Issue(c *gin.Context) {
	var req dto.IssueRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Issue(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *IssuesHandler) List(c *gin.Context) {
	var filter dto.IssueFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
