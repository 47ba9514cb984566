package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/store"
)

// APIHandlers serves the read-only admin API.
type APIHandlers struct {
	hub    *core.Hub
	events store.EventStore
	log    *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. events may be nil.
func NewAPIHandlers(hub *core.Hub, events store.EventStore, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:    hub,
		events: events,
		log:    logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NamesResponse lists logged-in users.
type NamesResponse struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

// HistoryResponse holds the in-memory chat log.
type HistoryResponse struct {
	Messages []proto.Response `json:"messages"`
}

// SessionsQuery filters audit events.
type SessionsQuery struct {
	Username string `form:"username" binding:"omitempty,alphanum,max=15"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// SessionEventResponse represents an audit event in API responses.
type SessionEventResponse struct {
	ID         int64  `json:"id"`
	SessionID  string `json:"session_id"`
	Username   string `json:"username"`
	Kind       string `json:"kind"`
	RemoteAddr string `json:"remote_addr"`
	CreatedAt  string `json:"created_at"`
}

// Names lists logged-in users.
// GET /api/names
func (h *APIHandlers) Names(c *gin.Context) {
	names := h.hub.Names()
	c.JSON(http.StatusOK, NamesResponse{Names: names, Count: len(names)})
}

// History returns the in-memory chat log, oldest first.
// GET /api/history
func (h *APIHandlers) History(c *gin.Context) {
	c.JSON(http.StatusOK, HistoryResponse{Messages: h.hub.History()})
}

// Sessions returns audited session events, newest first.
// GET /api/sessions
func (h *APIHandlers) Sessions(c *gin.Context) {
	var q SessionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.log.Debug().Err(err).Msg("invalid sessions query")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
		return
	}

	out := make([]SessionEventResponse, 0)
	if h.events == nil {
		c.JSON(http.StatusOK, out)
		return
	}

	events, err := h.events.ListEvents(c.Request.Context(), store.EventFilter{Username: q.Username, Limit: q.Limit})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list session events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	for _, ev := range events {
		out = append(out, SessionEventResponse{
			ID:         ev.ID,
			SessionID:  ev.SessionID,
			Username:   ev.Username,
			Kind:       string(ev.Kind),
			RemoteAddr: ev.RemoteAddr,
			CreatedAt:  ev.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}
