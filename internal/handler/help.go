package handler

import (
	"net/http"

	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"

	"github.com/gin-gonic/gin"
)

// ── Notifications ────────────────────────────────────────────────────────────

type NotificationsHandler struct{ svc service.NotificationService }

func NewNotificationsHandler(svc service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{svc: svc}
}

func (h *NotificationsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.MarkRead(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Notification deleted."})
}

// ── Help center ──────────────────────────────────────────────────────────────

type HelpHandler struct{ svc service.HelpService }

func NewHelpHandler(svc service.HelpService) *HelpHandler { return &HelpHandler{svc: svc} }

func (h *HelpHandler) ListThreads(c *gin.Context) {
	var q dto.HelpThreadListQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListThreads(c.Request.Context(), actor(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HelpHandler) GetThread(c *gin.Context) {
	var q dto.HelpThreadQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.GetThread(c.Request.Context(), actor(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// bindTarget reads an optional {"user_id"} body. Users address their own
// thread and may send no body at all.
func bindTarget(c *gin.Context) (dto.HelpTargetRequest, bool) {
	var req dto.HelpTargetRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	return req, bindAndValidate(c, &req)
}

func (h *HelpHandler) MarkRead(c *gin.Context) {
	req, ok := bindTarget(c)
	if !ok {
		return
	}
	resp, err := h.svc.MarkRead(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HelpHandler) Clear(c *gin.Context) {
	req, ok := bindTarget(c)
	if !ok {
		return
	}
	resp, err := h.svc.Clear(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HelpHandler) Post(c *gin.Context) {
	var req dto.PostHelpMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Post(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *HelpHandler) DeleteMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteMessage(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Message deleted."})
}
