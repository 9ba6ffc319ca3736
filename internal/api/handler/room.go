package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarlin/mafiagame-go/internal/api/middleware"
	"github.com/mkarlin/mafiagame-go/internal/api/request"
	"github.com/mkarlin/mafiagame-go/internal/api/response"
	"github.com/mkarlin/mafiagame-go/internal/model"
	"github.com/mkarlin/mafiagame-go/internal/services/rules"
	"github.com/mkarlin/mafiagame-go/internal/services/session"
	"github.com/mkarlin/mafiagame-go/internal/sse"
)

// RoomHandler handles room lifecycle endpoints
type RoomHandler struct {
	controller *session.Controller
	hubManager *sse.HubManager
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(controller *session.Controller, hubManager *sse.HubManager) *RoomHandler {
	return &RoomHandler{
		controller: controller,
		hubManager: hubManager,
	}
}

// settingsFromRequest validates and converts request settings
func settingsFromRequest(s request.RoomSettings) (model.RoomSettings, error) {
	if s.MaxPlayers < rules.MinPlayers {
		return model.RoomSettings{}, NewInvalidRequestError("max_players is below the game minimum")
	}
	if s.DiscussionTime <= 0 || s.VotingTime <= 0 || s.NightTime <= 0 {
		return model.RoomSettings{}, NewInvalidRequestError("phase durations must be positive")
	}
	return model.RoomSettings{
		MaxPlayers:     s.MaxPlayers,
		DiscussionTime: s.DiscussionTime,
		VotingTime:     s.VotingTime,
		NightTime:      s.NightTime,
		IsPublic:       s.IsPublic,
	}, nil
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	var settings *model.RoomSettings
	if req.Settings != nil {
		s, err := settingsFromRequest(*req.Settings)
		if err != nil {
			WriteError(w, err)
			return
		}
		settings = &s
	}

	room, err := h.controller.CreateRoom(r.Context(), playerID, req.Username, req.IsPublic, req.MaxPlayers, settings)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	room, err := h.controller.GetRoom(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// GetByCode handles GET /api/v1/rooms/code/{code}
func (h *RoomHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.controller.GetRoomByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// List handles GET /api/v1/rooms - public rooms still accepting players
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.controller.ListPublicRooms(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	summaries := make([]response.RoomSummary, len(rooms))
	for i, room := range rooms {
		summaries[i] = response.RoomSummaryFromModel(room)
	}
	response.JSON(w, http.StatusOK, summaries)
}

// Join handles POST /api/v1/rooms/code/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	room, err := h.controller.JoinRoom(r.Context(), code, playerID, req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// Leave handles POST /api/v1/rooms/{id}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	room, err := h.controller.RemovePlayer(r.Context(), roomID, playerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if room == nil {
		// Leaver was the last player and the room is gone
		response.NoContent(w)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, nil))
}

// Ready handles POST /api/v1/rooms/{id}/ready
func (h *RoomHandler) Ready(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.ReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	room, err := h.controller.SetReady(r.Context(), roomID, playerID, req.Ready)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// Kick handles POST /api/v1/rooms/{id}/kick
func (h *RoomHandler) Kick(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.KickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.TargetID == "" {
		WriteError(w, NewInvalidRequestError("target_id is required"))
		return
	}

	room, err := h.controller.KickPlayer(r.Context(), roomID, playerID, model.PlayerID(req.TargetID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// UpdateSettings handles PATCH /api/v1/rooms/{id}/settings
func (h *RoomHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	settings, err := settingsFromRequest(req.Settings)
	if err != nil {
		WriteError(w, err)
		return
	}

	room, err := h.controller.UpdateSettings(r.Context(), roomID, playerID, settings)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// Reset handles POST /api/v1/rooms/{id}/reset
func (h *RoomHandler) Reset(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	room, err := h.controller.ResetRoom(r.Context(), roomID, playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// Events handles GET /api/v1/rooms/{id}/events - the room's SSE stream.
// Connecting counts as presence: a member in their disconnect grace window
// is marked reconnected, and dropping the stream starts the grace timer.
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	room, err := h.controller.GetRoom(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	member := room.GetPlayer(playerID) != nil
	if member {
		// Errors here mean the player raced a removal; the stream still
		// serves whatever the room broadcasts
		_, _ = h.controller.ReconnectPlayer(r.Context(), roomID, playerID)
	}

	hub := h.hubManager.GetOrCreateHub(sse.RoomTopic(roomID))
	sse.ServeSSE(w, r, hub, playerID)

	if member {
		// The request context is done once the stream closes
		_, _ = h.controller.DisconnectPlayer(context.Background(), roomID, playerID)
	}
}
