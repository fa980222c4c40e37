// internal/api/router.go

// Package api is the HTTP surface in front of the workflow orchestrator.
// It validates payloads, translates typed workflow errors to status codes,
// and exposes health and metrics endpoints. No business logic lives here.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/models"
	"ticket-autopilot/internal/workflow"
)

// Service is the slice of the orchestrator the HTTP layer needs.
type Service interface {
	ProcessTicket(ctx context.Context, ticket models.Ticket) (workflow.ProcessResult, error)
	ApproveTicket(ctx context.Context, ticketID string) (workflow.ApproveResult, error)
	RejectTicket(ctx context.Context, ticketID string) (workflow.RejectResult, error)
	OverrideDecision(ctx context.Context, ticketID, newAction string) (workflow.OverrideResult, error)
	ListPending(ctx context.Context) (workflow.PendingResult, error)
	DecisionHistory(ctx context.Context, ticketID string) (workflow.HistoryResult, error)
}

// HealthChecker reports readiness of a downstream dependency.
type HealthChecker func(ctx context.Context) error

// NewRouter wires all routes. checks maps dependency names to their pings
// for the health endpoint.
func NewRouter(svc Service, checks map[string]HealthChecker, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handlers{svc: svc, checks: checks, log: log}

	router.POST("/process_ticket", h.processTicket)
	router.POST("/approve_ticket", h.approveTicket)
	router.POST("/reject_ticket", h.rejectTicket)
	router.POST("/override_decision", h.overrideDecision)
	router.GET("/pending_approvals", h.pendingApprovals)
	router.GET("/decision_status/:ticket_id", h.decisionStatus)
	router.GET("/healthz", h.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
