package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studyroomhq/studyroom-server/internal/store"
)

const defaultSessionLimit = 50

// SessionHandlers provides HTTP handlers for study session tracking.
type SessionHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewSessionHandlers creates a new session handlers instance.
func NewSessionHandlers(st store.Store, logger *zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{
		store: st,
		log:   logger,
	}
}

// CreateSessionRequest represents the record session request body.
type CreateSessionRequest struct {
	SessionType     string  `json:"session_type" binding:"required"`
	DurationSeconds int     `json:"duration_seconds" binding:"required,min=1"`
	Subject         *string `json:"subject" binding:"omitempty,max=100"`
}

// SessionResponse represents a study session in API responses.
type SessionResponse struct {
	ID              int64   `json:"id"`
	SessionType     string  `json:"session_type"`
	DurationSeconds int     `json:"duration_seconds"`
	Subject         *string `json:"subject"`
	CreatedAt       string  `json:"created_at"`
}

func sessionResponse(s *store.StudySession) SessionResponse {
	return SessionResponse{
		ID:              s.ID,
		SessionType:     string(s.SessionType),
		DurationSeconds: s.DurationSeconds,
		Subject:         s.Subject,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
}

// CreateSession records a finished study session.
// POST /api/sessions
func (h *SessionHandlers) CreateSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sessionType := store.SessionType(req.SessionType)
	if !sessionType.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "session_type must be pomodoro, stopwatch or timer"})
		return
	}

	session, err := h.store.CreateSession(c.Request.Context(), userID, sessionType, req.DurationSeconds, req.Subject)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to record session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(session))
}

// ListSessions lists the user's recorded sessions, newest first.
// Optional query params: type, start, end (RFC 3339), limit.
// GET /api/sessions
func (h *SessionHandlers) ListSessions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	filter := store.SessionFilter{Limit: defaultSessionLimit}

	if typeParam := c.Query("type"); typeParam != "" {
		sessionType := store.SessionType(typeParam)
		if !sessionType.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session type filter"})
			return
		}
		filter.SessionType = sessionType
	}
	if startParam := c.Query("start"); startParam != "" {
		start, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start must be an RFC 3339 timestamp"})
			return
		}
		filter.Start = start
	}
	if endParam := c.Query("end"); endParam != "" {
		end, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end must be an RFC 3339 timestamp"})
			return
		}
		filter.End = end
	}
	if limitParam := c.Query("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 1 || limit > 500 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 500"})
			return
		}
		filter.Limit = limit
	}

	sessions, err := h.store.ListSessions(c.Request.Context(), userID, filter)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, sessionResponse(s))
	}

	c.JSON(http.StatusOK, response)
}

// DeleteSession removes one of the user's recorded sessions. Another user's
// session id answers 404, never 403, so ids cannot be probed.
// DELETE /api/sessions/:id
func (h *SessionHandlers) DeleteSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return
	}

	if err := h.store.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Int64("session_id", sessionID).Msg("failed to delete session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// DailyTotalResponse is one day's summed focus time.
type DailyTotalResponse struct {
	Day          string `json:"day"`
	TotalSeconds int64  `json:"total_seconds"`
}

// GroupTotalResponse is a per-subject or per-type focus time sum.
type GroupTotalResponse struct {
	Key          string `json:"key"`
	TotalSeconds int64  `json:"total_seconds"`
}

// StatisticsResponse aggregates a user's study statistics.
type StatisticsResponse struct {
	TotalSeconds   int64                `json:"total_seconds"`
	TotalFormatted string               `json:"total_formatted"`
	Weekly         []DailyTotalResponse `json:"weekly"`
	Monthly        []DailyTotalResponse `json:"monthly"`
	BySubject      []GroupTotalResponse `json:"by_subject"`
	ByType         []GroupTotalResponse `json:"by_type"`
}

// Statistics returns the user's aggregate study statistics.
// GET /api/sessions/stats
func (h *SessionHandlers) Statistics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()

	total, err := h.store.TotalFocusSeconds(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to sum focus time")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	weekly, err := h.store.DailyTotals(ctx, userID, now.AddDate(0, 0, -7))
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load weekly totals")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	monthly, err := h.store.DailyTotals(ctx, userID, now.AddDate(0, -1, 0))
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load monthly totals")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	bySubject, err := h.store.SubjectTotals(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load subject totals")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	byType, err := h.store.SessionTypeTotals(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load type totals")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := StatisticsResponse{
		TotalSeconds:   total,
		TotalFormatted: formatDuration(total),
		Weekly:         dailyTotals(weekly),
		Monthly:        dailyTotals(monthly),
		BySubject:      groupTotals(bySubject),
		ByType:         groupTotals(byType),
	}

	c.JSON(http.StatusOK, response)
}

func dailyTotals(totals []store.DailyTotal) []DailyTotalResponse {
	out := make([]DailyTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, DailyTotalResponse{Day: t.Day, TotalSeconds: t.TotalSeconds})
	}
	return out
}

func groupTotals(totals []store.GroupTotal) []GroupTotalResponse {
	out := make([]GroupTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, GroupTotalResponse{Key: t.Key, TotalSeconds: t.TotalSeconds})
	}
	return out
}

// formatDuration renders seconds as "3h 25m".
func formatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
