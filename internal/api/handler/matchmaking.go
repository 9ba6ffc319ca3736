package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mkarlin/mafiagame-go/internal/api/middleware"
	"github.com/mkarlin/mafiagame-go/internal/api/request"
	"github.com/mkarlin/mafiagame-go/internal/api/response"
	"github.com/mkarlin/mafiagame-go/internal/services/matchmaking"
	"github.com/mkarlin/mafiagame-go/internal/sse"
)

// MatchmakingHandler handles the public matchmaking queue endpoints
type MatchmakingHandler struct {
	service    *matchmaking.Service
	hubManager *sse.HubManager
}

// NewMatchmakingHandler creates a new matchmaking handler
func NewMatchmakingHandler(service *matchmaking.Service, hubManager *sse.HubManager) *MatchmakingHandler {
	return &MatchmakingHandler{
		service:    service,
		hubManager: hubManager,
	}
}

// Join handles POST /api/v1/matchmaking/queue
func (h *MatchmakingHandler) Join(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.QueueJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	position, err := h.service.AddToQueue(r.Context(), playerID, req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	size, err := h.service.QueueSize(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.QueueStatus{Position: position, Size: size})
}

// Leave handles DELETE /api/v1/matchmaking/queue
func (h *MatchmakingHandler) Leave(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	if err := h.service.RemoveFromQueue(r.Context(), playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Status handles GET /api/v1/matchmaking/queue
func (h *MatchmakingHandler) Status(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	position, size, err := h.service.QueueStatus(r.Context(), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.QueueStatus{Position: position, Size: size})
}

// Events handles GET /api/v1/matchmaking/events - the queue's SSE stream,
// where match_found notifications arrive
func (h *MatchmakingHandler) Events(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	hub := h.hubManager.GetOrCreateHub(sse.QueueTopic)
	sse.ServeSSE(w, r, hub, playerID)
}
