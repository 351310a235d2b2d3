package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glowlabs-ai/glow-backend/internal/pkg/httpx"
	"github.com/glowlabs-ai/glow-backend/internal/requestdata"
	"github.com/glowlabs-ai/glow-backend/internal/sync"
)

type SyncHandler struct {
	svc sync.Service
}

func NewSyncHandler(svc sync.Service) *SyncHandler {
	return &SyncHandler{svc: svc}
}

type triggerSyncRequest struct {
	Force       bool     `json:"force"`
	SkipModules []string `json:"skip_modules"`
}

// POST /api/sync/trigger
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	var req triggerSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
			return
		}
	}

	out, err := h.svc.TriggerSyncAll(c.Request.Context(), userID, sync.TriggerOptions{
		Force:       req.Force,
		SkipModules: req.SkipModules,
	})
	if err != nil {
		respondSyncError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"job":         out.Job,
		"results":     out.Results,
		"duration_ms": out.Duration.Milliseconds(),
	})
}

// GET /api/sync/status
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	status, err := h.svc.GetSyncStatus(c.Request.Context(), userID)
	if err != nil {
		respondSyncError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"is_running":           status.IsRunning,
		"current_job":          status.CurrentJob,
		"last_sync":            status.LastSync,
		"can_sync":             status.CanSync,
		"cooldown_remaining_s": int(math.Ceil(status.CooldownRemaining.Seconds())),
	})
}

// GET /api/sync/jobs
func (h *SyncHandler) ListSyncJobs(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, total, err := h.svc.ListSyncJobs(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondSyncError(c, err)
		return
	}
	RespondOK(c, gin.H{"jobs": jobs, "total": total})
}

// GET /api/sync/jobs/:id
func (h *SyncHandler) GetSyncJob(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.svc.GetSyncJob(c.Request.Context(), jobID, userID)
	if err != nil {
		respondSyncError(c, err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found", errors.New("sync job not found"))
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// POST /api/sync/jobs/:id/retry
func (h *SyncHandler) RetrySyncJob(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	out, err := h.svc.RetrySyncJob(c.Request.Context(), jobID, userID, nil)
	if err != nil {
		respondSyncError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"job":         out.Job,
		"results":     out.Results,
		"duration_ms": out.Duration.Milliseconds(),
	})
}

func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "missing_identity", errors.New("missing user identity"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func respondSyncError(c *gin.Context, err error) {
	var rateLimited *sync.RateLimitedError
	if errors.As(err, &rateLimited) {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rateLimited.Remaining.Seconds()))))
	}
	RespondError(c, httpx.StatusFor(err), syncErrorCode(err), err)
}

func syncErrorCode(err error) string {
	var (
		precondition *sync.PreconditionError
		conflict     *sync.ConflictError
		rateLimited  *sync.RateLimitedError
		notFound     *sync.NotFoundError
		invalidRetry *sync.InvalidRetryError
	)
	switch {
	case errors.As(err, &precondition):
		return "profile_required"
	case errors.As(err, &conflict):
		return "sync_in_progress"
	case errors.As(err, &rateLimited):
		return "sync_cooldown"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &invalidRetry):
		return "invalid_retry"
	default:
		return "internal_error"
	}
}
