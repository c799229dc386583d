package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AImitSK/skamp-monitoring/internal/ave"
	"github.com/AImitSK/skamp-monitoring/internal/database"
	"github.com/AImitSK/skamp-monitoring/internal/decider"
	"github.com/AImitSK/skamp-monitoring/internal/domain"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
	"github.com/AImitSK/skamp-monitoring/internal/orchestrator"
)

// defaultPendingLimit bounds the review queue response.
const defaultPendingLimit = 50

// PassRunner runs orchestration passes on demand.
type PassRunner interface {
	RunPass(ctx context.Context, opts orchestrator.Options) (*orchestrator.PassResult, error)
}

// TrackerCreator sets up monitoring for a campaign.
type TrackerCreator interface {
	CreateForCampaign(ctx context.Context, campaignID string) (*domain.Tracker, error)
}

// CandidateStore is the candidate surface the review endpoints need.
type CandidateStore interface {
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	SetDisposition(ctx context.Context, id string, disposition domain.Disposition) error
	ListPendingReview(ctx context.Context, trackerID string, limit int) ([]*domain.Candidate, error)
}

// TrackerStore is the tracker surface the monitoring endpoints need.
type TrackerStore interface {
	GetByID(ctx context.Context, id string) (*domain.Tracker, error)
	IncrementManuallyAdded(ctx context.Context, trackerID string) error
	IncrementSpamMarked(ctx context.Context, trackerID string) error
}

// ChannelStore lists a tracker's channels and flips their tenant switch.
type ChannelStore interface {
	ListByTracker(ctx context.Context, trackerID string) ([]*domain.Channel, error)
	SetActive(ctx context.Context, channelID string, active bool) error
}

// ClippingStore is the clipping surface for confirms and corrections.
type ClippingStore interface {
	Create(ctx context.Context, c *domain.Clipping) error
	GetByID(ctx context.Context, id string) (*domain.Clipping, error)
	ExistsByFingerprint(ctx context.Context, trackerID, fingerprint string) (bool, error)
	CorrectMetrics(ctx context.Context, id string, sentiment *domain.Sentiment, reach, aveValue *int) error
}

// SettingsStore reads tenant settings.
type SettingsStore interface {
	GetByOrg(ctx context.Context, orgID string) (*domain.TenantSettings, error)
}

// MonitoringHandler handles the monitoring endpoints: the auto-import
// trigger, tracker setup and health, candidate review, and clipping
// corrections.
type MonitoringHandler struct {
	runner     PassRunner
	creator    TrackerCreator
	candidates CandidateStore
	trackers   TrackerStore
	channels   ChannelStore
	clippings  ClippingStore
	settings   SettingsStore
	log        logger.Interface
}

// NewMonitoringHandler creates a monitoring handler.
func NewMonitoringHandler(
	runner PassRunner,
	creator TrackerCreator,
	candidates CandidateStore,
	trackers TrackerStore,
	channels ChannelStore,
	clippings ClippingStore,
	settings SettingsStore,
	log logger.Interface,
) *MonitoringHandler {
	return &MonitoringHandler{
		runner:     runner,
		creator:    creator,
		candidates: candidates,
		trackers:   trackers,
		channels:   channels,
		clippings:  clippings,
		settings:   settings,
		log:        log,
	}
}

// AutoImport handles POST /monitoring/auto-import. An orgId query
// parameter scopes the pass to one organization; an org with
// auto-import disabled gets a successful no-op response, not an error.
func (h *MonitoringHandler) AutoImport(c *gin.Context) {
	orgID := c.Query("orgId")

	if orgID != "" {
		settings, err := h.settings.GetByOrg(c.Request.Context(), orgID)
		if err != nil {
			respondInternalError(c, "failed to load tenant settings")
			return
		}

		if !settings.AutoImportEnabled {
			c.JSON(http.StatusOK, gin.H{"status": "auto-import disabled"})
			return
		}
	}

	result, err := h.runner.RunPass(c.Request.Context(), orchestrator.Options{OrgID: orgID})
	if err != nil {
		h.log.Error("auto-import pass failed", "error", err.Error())
		respondInternalError(c, "pass failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"candidatesProcessed": result.CandidatesProcessed,
		"candidatesImported":  result.CandidatesImported,
		"candidatesFailed":    result.CandidatesFailed,
		"errors":              result.Errors,
	})
}

// createTrackerRequest is the body of POST /monitoring/trackers.
type createTrackerRequest struct {
	CampaignID string `json:"campaignId" binding:"required"`
}

// CreateTracker handles POST /monitoring/trackers: set up (or rebuild)
// monitoring for a campaign.
func (h *MonitoringHandler) CreateTracker(c *gin.Context) {
	var req createTrackerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "campaignId is required")
		return
	}

	trk, err := h.creator.CreateForCampaign(c.Request.Context(), req.CampaignID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "campaign")
			return
		}

		h.log.Error("tracker creation failed",
			"campaign_id", req.CampaignID,
			"error", err.Error(),
		)
		respondInternalError(c, "failed to create tracker")
		return
	}

	c.JSON(http.StatusCreated, trk)
}

// channelHealth is one channel's health report entry.
type channelHealth struct {
	ChannelID     string  `json:"channelId"`
	Type          string  `json:"type"`
	URL           string  `json:"url"`
	IsActive      bool    `json:"isActive"`
	ErrorCount    int     `json:"errorCount"`
	WasFound      bool    `json:"wasFound"`
	ArticlesFound int     `json:"articlesFound"`
	LastSuccessAt *string `json:"lastSuccessAt"`
	Healthy       bool    `json:"healthy"`
}

// TrackerHealth handles GET /monitoring/trackers/:id/health.
func (h *MonitoringHandler) TrackerHealth(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "invalid tracker id")
		return
	}

	if _, err := h.trackers.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "tracker")
			return
		}
		respondInternalError(c, "failed to load tracker")
		return
	}

	channels, err := h.channels.ListByTracker(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, "failed to load channels")
		return
	}

	report := make([]channelHealth, 0, len(channels))
	for _, ch := range channels {
		entry := channelHealth{
			ChannelID:     ch.ID,
			Type:          string(ch.Type),
			URL:           ch.URL,
			IsActive:      ch.IsActive,
			ErrorCount:    ch.ErrorCount,
			WasFound:      ch.WasFound,
			ArticlesFound: ch.ArticlesFound,
			Healthy:       ch.Healthy(domain.DefaultUnhealthyCeiling),
		}

		if ch.LastSuccessAt != nil {
			formatted := ch.LastSuccessAt.UTC().Format(time.RFC3339)
			entry.LastSuccessAt = &formatted
		}

		report = append(report, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"trackerId": id,
		"channels":  report,
	})
}

// PendingCandidates handles GET /monitoring/trackers/:id/pending: the
// review queue for a tracker, newest first.
func (h *MonitoringHandler) PendingCandidates(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "invalid tracker id")
		return
	}

	if _, err := h.trackers.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "tracker")
			return
		}
		respondInternalError(c, "failed to load tracker")
		return
	}

	pending, err := h.candidates.ListPendingReview(c.Request.Context(), id, defaultPendingLimit)
	if err != nil {
		respondInternalError(c, "failed to load pending candidates")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trackerId":  id,
		"candidates": pending,
	})
}

// EnableChannel handles POST /monitoring/channels/:id/enable.
func (h *MonitoringHandler) EnableChannel(c *gin.Context) {
	h.setChannelActive(c, true)
}

// DisableChannel handles POST /monitoring/channels/:id/disable. The
// channel keeps its history and is skipped by passes until re-enabled.
func (h *MonitoringHandler) DisableChannel(c *gin.Context) {
	h.setChannelActive(c, false)
}

func (h *MonitoringHandler) setChannelActive(c *gin.Context, active bool) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "invalid channel id")
		return
	}

	if err := h.channels.SetActive(c.Request.Context(), id, active); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "channel")
			return
		}
		respondInternalError(c, "failed to update channel")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "isActive": active})
}

// ConfirmCandidate handles POST /monitoring/candidates/:id/confirm. Only
// pending-review candidates can be confirmed; a confirm creates the
// clipping and bumps the tracker's manual counter.
func (h *MonitoringHandler) ConfirmCandidate(c *gin.Context) {
	h.decideCandidate(c, domain.DispositionConfirmed)
}

// SpamCandidate handles POST /monitoring/candidates/:id/spam. Marking
// spam also bumps the tracker's spam counter.
func (h *MonitoringHandler) SpamCandidate(c *gin.Context) {
	h.decideCandidate(c, domain.DispositionSpamMarked)
}

// decideCandidate applies a terminal human decision to a pending-review
// candidate.
func (h *MonitoringHandler) decideCandidate(c *gin.Context, disposition domain.Disposition) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "invalid candidate id")
		return
	}

	cand, err := h.candidates.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "candidate")
			return
		}
		respondInternalError(c, "failed to load candidate")
		return
	}

	if err := h.candidates.SetDisposition(c.Request.Context(), id, disposition); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, http.StatusConflict, "candidate is not pending review")
			return
		}
		respondInternalError(c, "failed to update candidate")
		return
	}

	response := gin.H{
		"id":          id,
		"disposition": string(disposition),
	}

	switch disposition {
	case domain.DispositionConfirmed:
		if clippingID, ok := h.importConfirmed(c, cand); ok && clippingID != "" {
			response["clippingId"] = clippingID
		} else if !ok {
			return
		}
	case domain.DispositionSpamMarked:
		if spamErr := h.trackers.IncrementSpamMarked(c.Request.Context(), cand.TrackerID); spamErr != nil {
			h.log.Error("failed to increment spam counter",
				"tracker_id", cand.TrackerID,
				"candidate_id", id,
				"error", spamErr.Error(),
			)
		}
	}

	h.log.Info("candidate reviewed",
		"candidate_id", id,
		"disposition", string(disposition),
	)

	c.JSON(http.StatusOK, response)
}

// importConfirmed turns a freshly confirmed candidate into a clipping.
// The tracker-scoped fingerprint guard keeps a racing auto-import from
// producing a second clipping for the same article. Reach is unknown at
// confirm time, so the clipping starts without an AVE; a later metrics
// correction attaches one.
func (h *MonitoringHandler) importConfirmed(c *gin.Context, cand *domain.Candidate) (string, bool) {
	ctx := c.Request.Context()

	exists, err := h.clippings.ExistsByFingerprint(ctx, cand.TrackerID, cand.Fingerprint)
	if err != nil {
		respondInternalError(c, "failed to check clipping fingerprint")
		return "", false
	}

	if exists {
		h.log.Warn("confirm skipped clipping creation, fingerprint already imported",
			"tracker_id", cand.TrackerID,
			"candidate_id", cand.ID,
		)
		return "", true
	}

	clipping := decider.ClippingFromCandidate(cand, domain.ClippingSourceManual)

	if createErr := h.clippings.Create(ctx, clipping); createErr != nil {
		h.log.Error("failed to create clipping from confirm",
			"candidate_id", cand.ID,
			"error", createErr.Error(),
		)
		respondInternalError(c, "failed to create clipping")
		return "", false
	}

	if incErr := h.trackers.IncrementManuallyAdded(ctx, cand.TrackerID); incErr != nil {
		h.log.Error("failed to increment manual counter",
			"tracker_id", cand.TrackerID,
			"candidate_id", cand.ID,
			"error", incErr.Error(),
		)
	}

	return clipping.ID, true
}

// correctClippingRequest is the body of POST /monitoring/clippings/:id/correct.
type correctClippingRequest struct {
	Sentiment *string `json:"sentiment"`
	Reach     *int    `json:"reach"`
}

// CorrectClipping handles POST /monitoring/clippings/:id/correct: the
// audited sentiment/reach correction. The AVE is recomputed from the
// corrected values; without a usable reach or circulation it stays NULL.
func (h *MonitoringHandler) CorrectClipping(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "invalid clipping id")
		return
	}

	var req correctClippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid correction body")
		return
	}

	clipping, err := h.clippings.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "clipping")
			return
		}
		respondInternalError(c, "failed to load clipping")
		return
	}

	sentiment := clipping.Sentiment
	if req.Sentiment != nil {
		parsed, ok := parseSentiment(*req.Sentiment)
		if !ok {
			respondBadRequest(c, "sentiment must be positive, neutral, or negative")
			return
		}
		sentiment = &parsed
	}

	reach := clipping.Reach
	if req.Reach != nil {
		if *req.Reach <= 0 {
			respondBadRequest(c, "reach must be positive")
			return
		}
		reach = req.Reach
	}

	aveValue := recomputeAVE(clipping, sentiment, reach)

	if updateErr := h.clippings.CorrectMetrics(c.Request.Context(), id, sentiment, reach, aveValue); updateErr != nil {
		if errors.Is(updateErr, database.ErrNotFound) {
			respondNotFound(c, "clipping")
			return
		}
		respondInternalError(c, "failed to correct clipping")
		return
	}

	h.log.Info("clipping metrics corrected",
		"clipping_id", id,
		"has_reach", reach != nil,
	)

	response := gin.H{"id": id}
	if sentiment != nil {
		response["sentiment"] = string(*sentiment)
	}
	if reach != nil {
		response["reach"] = *reach
	}
	if aveValue != nil {
		response["ave"] = *aveValue
	}

	c.JSON(http.StatusOK, response)
}

// recomputeAVE derives the AVE for the corrected metrics, falling back
// to the stored circulation when reach stays unknown.
func recomputeAVE(clipping *domain.Clipping, sentiment *domain.Sentiment, reach *int) *int {
	directReach := 0
	if reach != nil {
		directReach = *reach
	}

	circulation := 0
	if clipping.Circulation != nil {
		circulation = *clipping.Circulation
	}

	effective, known := ave.ReachOrCirculation(directReach, circulation)
	if !known {
		return nil
	}

	tone := domain.SentimentNeutral
	if sentiment != nil {
		tone = *sentiment
	}

	value, ok := ave.Calculate(effective, tone, clipping.OutletType)
	if !ok {
		return nil
	}

	return &value
}

func parseSentiment(raw string) (domain.Sentiment, bool) {
	switch domain.Sentiment(raw) {
	case domain.SentimentPositive, domain.SentimentNeutral, domain.SentimentNegative:
		return domain.Sentiment(raw), true
	default:
		return "", false
	}
}
