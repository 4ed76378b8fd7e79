package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/internal/application/command"
	"github.com/lingua-hub/lingua-progress-hub/internal/application/query"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/progress"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
	"github.com/lingua-hub/lingua-progress-hub/pkg/timeutil"
)

// maxBodyBytes limits the size of accepted request bodies.
const maxBodyBytes = 1 << 20 // 1 MB

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a domain error to an HTTP status and error code.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "already_completed", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsUnauthorized(err):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsStorage(err):
		s.logger.Error("storage failure", logger.Err(err))
		writeJSONError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is temporarily unavailable")
	default:
		s.logger.Error("unhandled error", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if len(body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid JSON payload")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// progressResponse is the wire form of a user's progress.
type progressResponse struct {
	UserID                string     `json:"user_id"`
	ExperiencePoints      int        `json:"experience_points"`
	LivesCurrent          int        `json:"lives_current"`
	StreakCurrent         int        `json:"streak_current"`
	LastCompletedLessonID *string    `json:"last_completed_lesson_id,omitempty"`
	LastActivityDate      *time.Time `json:"last_activity_date,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func toProgressResponse(p *progress.UserProgress) progressResponse {
	return progressResponse{
		UserID:                p.UserID,
		ExperiencePoints:      p.ExperiencePoints,
		LivesCurrent:          p.LivesCurrent,
		StreakCurrent:         p.StreakCurrent,
		LastCompletedLessonID: p.LastCompletedLessonID,
		LastActivityDate:      p.LastActivityDate,
		UpdatedAt:             p.UpdatedAt,
	}
}

// completionRecordResponse is the wire form of a persisted completion row.
type completionRecordResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	LessonID         string    `json:"lesson_id"`
	CompletedAt      time.Time `json:"completed_at"`
	Score            *int      `json:"score"`
	TimeSpentSeconds *int      `json:"time_spent_seconds"`
}

func toCompletionRecordResponse(c *progress.LessonCompletion) completionRecordResponse {
	return completionRecordResponse{
		ID:               c.ID,
		UserID:           c.UserID,
		LessonID:         c.LessonID,
		CompletedAt:      c.CompletedAt,
		Score:            c.Score,
		TimeSpentSeconds: c.TimeSpentSeconds,
	}
}

// completionResponse is the wire form of a completion outcome: the updated
// progress, the persisted completion record, and the XP it earned.
type completionResponse struct {
	Progress         progressResponse         `json:"progress"`
	Completion       completionRecordResponse `json:"completion"`
	ExperienceGained int                      `json:"experience_gained"`
	StreakExtended   bool                     `json:"streak_extended"`
	StreakBroken     bool                     `json:"streak_broken"`
}

// adjustmentResponse is the wire form of an admin audit record.
type adjustmentResponse struct {
	ID           string    `json:"id"`
	TargetUserID string    `json:"target_user_id"`
	ActorID      string    `json:"actor_id"`
	Kind         string    `json:"kind"`
	PointsDelta  int       `json:"points_delta"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAdjustmentResponse(adj *progress.AdminAdjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:           adj.ID,
		TargetUserID: adj.TargetUserID,
		ActorID:      adj.ActorID,
		Kind:         string(adj.Kind),
		PointsDelta:  adj.PointsDelta,
		Reason:       adj.Reason,
		CreatedAt:    adj.CreatedAt,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Lingua Progress Hub API",
		"version":     "v1",
		"description": "Progress and gamification engine for language learning",
		"endpoints": map[string]string{
			"health":      "/health",
			"complete":    "/api/v1/users/{id}/lessons/{lessonID}/complete",
			"summary":     "/api/v1/users/{id}/summary",
			"leaderboard": "/api/v1/leaderboard",
			"rank":        "/api/v1/users/{id}/rank",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleMetrics handles the metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": s.Uptime().Seconds(),
		"running":        s.IsRunning(),
	}

	writeJSON(w, http.StatusOK, metrics)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// completeLessonRequest is the body of a completion request. The completion
// timestamp is always stamped server-side; clients cannot backdate streaks.
type completeLessonRequest struct {
	Score            *int `json:"score,omitempty"`
	TimeSpentSeconds *int `json:"time_spent_seconds,omitempty"`
}

// handleCompleteLesson handles POST /api/v1/users/{id}/lessons/{lessonID}/complete
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	if s.deps.CompleteLessonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Completion handler not configured")
		return
	}

	var req completeLessonRequest
	// An empty body means an unassessed completion stamped with server time.
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	cmd := command.CompleteLessonCommand{
		UserID:           r.PathValue("id"),
		LessonID:         r.PathValue("lessonID"),
		Score:            req.Score,
		TimeSpentSeconds: req.TimeSpentSeconds,
		CompletedAt:      timeutil.Now(),
		CorrelationID:    getRequestID(r.Context()),
	}

	result, err := s.deps.CompleteLessonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, completionResponse{
		Progress:         toProgressResponse(result.Progress),
		Completion:       toCompletionRecordResponse(result.Completion),
		ExperienceGained: result.ExperienceGained,
		StreakExtended:   result.StreakExtended,
		StreakBroken:     result.StreakBroken,
	})
}

// handleGetSummary handles GET /api/v1/users/{id}/summary
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetSummaryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Summary handler not configured")
		return
	}

	q := query.GetSummaryQuery{UserID: r.PathValue("id")}

	result, err := s.deps.GetSummaryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// adjustLivesRequest is the body of a lives adjustment.
type adjustLivesRequest struct {
	LivesChange int `json:"lives_change"`
}

// handleAdjustLives handles POST /api/v1/users/{id}/lives
func (s *Server) handleAdjustLives(w http.ResponseWriter, r *http.Request) {
	if s.deps.AdjustLivesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lives handler not configured")
		return
	}

	var req adjustLivesRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cmd := command.AdjustLivesCommand{
		UserID:        r.PathValue("id"),
		Delta:         req.LivesChange,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.AdjustLivesHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lives_current": result.LivesCurrent,
		"progress":      toProgressResponse(result.Progress),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Page:     getQueryParamInt(r, "page", 1),
		PageSize: getQueryParamInt(r, "page_size", query.DefaultPageSize),
	}

	result, err := s.deps.GetLeaderboardHandler.HandlePage(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		HasMore:    result.Page*result.PageSize < result.TotalCount,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleGetLeaderboardTop handles GET /api/v1/leaderboard/top
func (s *Server) handleGetLeaderboardTop(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	limit := getQueryParamInt(r, "limit", query.DefaultPageSize)

	entries, err := s.deps.GetLeaderboardHandler.HandleTop(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// handleGetUserRank handles GET /api/v1/users/{id}/rank
func (s *Server) handleGetUserRank(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetUserRankQuery{UserID: r.PathValue("id")}

	entry, err := s.deps.GetLeaderboardHandler.HandleUserRank(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// grantBonusRequest is the body of an admin bonus grant.
type grantBonusRequest struct {
	ActorID      string `json:"actor_id"`
	TargetUserID string `json:"target_user_id"`
	BonusPoints  int    `json:"bonus_points"`
	Reason       string `json:"reason"`
}

// handleGrantBonus handles POST /api/v1/admin/bonus
func (s *Server) handleGrantBonus(w http.ResponseWriter, r *http.Request) {
	if s.deps.GrantBonusHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Bonus handler not configured")
		return
	}

	var req grantBonusRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cmd := command.GrantBonusCommand{
		ActorID:       req.ActorID,
		TargetUserID:  req.TargetUserID,
		BonusPoints:   req.BonusPoints,
		Reason:        req.Reason,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.GrantBonusHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress":   toProgressResponse(result.Progress),
		"adjustment": toAdjustmentResponse(result.Adjustment),
	})
}

// resetProgressRequest is the body of an admin progress reset.
type resetProgressRequest struct {
	ActorID      string `json:"actor_id"`
	TargetUserID string `json:"target_user_id"`
	Reason       string `json:"reason"`
}

// handleResetProgress handles POST /api/v1/admin/reset
func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.ResetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Reset handler not configured")
		return
	}

	var req resetProgressRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cmd := command.ResetProgressCommand{
		ActorID:       req.ActorID,
		TargetUserID:  req.TargetUserID,
		Reason:        req.Reason,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.ResetProgressHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"completions_deleted": result.CompletionsDeleted,
		"adjustment":          toAdjustmentResponse(result.Adjustment),
	})
}

// handleListAdjustments handles GET /api/v1/admin/users/{id}/adjustments
func (s *Server) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	if s.deps.Audit == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Audit store not configured")
		return
	}

	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	limit := getQueryParamInt(r, "limit", 50)

	adjustments, err := s.deps.Audit.ListAdjustments(r.Context(), userID, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := make([]adjustmentResponse, 0, len(adjustments))
	for _, adj := range adjustments {
		out = append(out, toAdjustmentResponse(adj))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"adjustments": out})
}
