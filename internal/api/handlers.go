// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/models"
)

type handlers struct {
	svc    Service
	checks map[string]HealthChecker
	log    logger.Logger
}

type ticketIDRequest struct {
	TicketID string `json:"ticket_id"`
}

type overrideRequest struct {
	TicketID  string `json:"ticket_id"`
	NewAction string `json:"new_action"`
}

func (h *handlers) processTicket(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.writeError(c, apperrors.NewValidationFailedError("unreadable request body"))
		return
	}

	if err := validateTicketPayload(body); err != nil {
		h.writeError(c, err)
		return
	}

	var ticket models.Ticket
	if err := json.Unmarshal(body, &ticket); err != nil {
		h.writeError(c, apperrors.NewValidationFailedError(err.Error()))
		return
	}

	result, err := h.svc.ProcessTicket(c.Request.Context(), ticket)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) approveTicket(c *gin.Context) {
	var req ticketIDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TicketID == "" {
		h.writeError(c, apperrors.NewValidationFailedError("ticket_id is required"))
		return
	}

	result, err := h.svc.ApproveTicket(c.Request.Context(), req.TicketID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) rejectTicket(c *gin.Context) {
	var req ticketIDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TicketID == "" {
		h.writeError(c, apperrors.NewValidationFailedError("ticket_id is required"))
		return
	}

	result, err := h.svc.RejectTicket(c.Request.Context(), req.TicketID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) overrideDecision(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TicketID == "" || req.NewAction == "" {
		h.writeError(c, apperrors.NewValidationFailedError("ticket_id and new_action are required"))
		return
	}

	result, err := h.svc.OverrideDecision(c.Request.Context(), req.TicketID, req.NewAction)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) pendingApprovals(c *gin.Context) {
	result, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) decisionStatus(c *gin.Context) {
	result, err := h.svc.DecisionHistory(c.Request.Context(), c.Param("ticket_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) healthz(c *gin.Context) {
	status := http.StatusOK
	deps := map[string]string{}
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
	}

	body := gin.H{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

func (h *handlers) writeError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err,
		})
	}

	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		c.JSON(status, gin.H{"error": stdErr})
		return
	}
	c.JSON(status, gin.H{"error": gin.H{"code": "INTERNAL", "message": err.Error()}})
}
