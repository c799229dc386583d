package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
	"github.com/AImitSK/skamp-monitoring/internal/metrics"
	"github.com/AImitSK/skamp-monitoring/internal/orchestrator"
)

// CrawlControl is the orchestrator surface the admin endpoints need.
type CrawlControl interface {
	RunPass(ctx context.Context, opts orchestrator.Options) (*orchestrator.PassResult, error)
	Pause(ctx context.Context, reason string) error
	Resume(ctx context.Context) error
	Status(ctx context.Context) (*domain.CrawlRunState, error)
}

// AdminHandler handles the crawler control endpoints.
type AdminHandler struct {
	control CrawlControl
	metrics *metrics.Metrics
	log     logger.Interface
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(control CrawlControl, m *metrics.Metrics, log logger.Interface) *AdminHandler {
	return &AdminHandler{
		control: control,
		metrics: m,
		log:     log,
	}
}

// pauseRequest is the body of POST /admin/crawler/pause.
type pauseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Pause handles POST /admin/crawler/pause.
func (h *AdminHandler) Pause(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "reason is required")
		return
	}

	if err := h.control.Pause(c.Request.Context(), req.Reason); err != nil {
		respondInternalError(c, "failed to pause")
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": string(domain.CrawlStatePaused), "reason": req.Reason})
}

// Resume handles POST /admin/crawler/resume.
func (h *AdminHandler) Resume(c *gin.Context) {
	if err := h.control.Resume(c.Request.Context()); err != nil {
		respondInternalError(c, "failed to resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": string(domain.CrawlStateRunning)})
}

// Trigger handles POST /admin/crawler/trigger and
// POST /admin/crawler/trigger/:orgID. The org-scoped variant runs even
// while the crawler is paused.
func (h *AdminHandler) Trigger(c *gin.Context) {
	orgID := c.Param("orgID")

	result, err := h.control.RunPass(c.Request.Context(), orchestrator.Options{OrgID: orgID})
	if err != nil {
		h.log.Error("triggered pass failed", "org_id", orgID, "error", err.Error())
		respondInternalError(c, "pass failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status handles GET /admin/crawler/status.
func (h *AdminHandler) Status(c *gin.Context) {
	state, err := h.control.Status(c.Request.Context())
	if err != nil {
		respondInternalError(c, "failed to load run state")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":   state,
		"metrics": h.metrics.GetSnapshot(),
	})
}
