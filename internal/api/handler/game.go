package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarlin/mafiagame-go/internal/api/middleware"
	"github.com/mkarlin/mafiagame-go/internal/api/request"
	"github.com/mkarlin/mafiagame-go/internal/api/response"
	"github.com/mkarlin/mafiagame-go/internal/model"
	"github.com/mkarlin/mafiagame-go/internal/services/session"
)

// GameHandler handles in-game action endpoints
type GameHandler struct {
	controller *session.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(controller *session.Controller) *GameHandler {
	return &GameHandler{controller: controller}
}

// Start handles POST /api/v1/rooms/{id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	room, err := h.controller.StartGame(r.Context(), roomID, playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// NightAction handles POST /api/v1/rooms/{id}/actions
func (h *GameHandler) NightAction(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.NightActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.TargetID == "" {
		WriteError(w, NewInvalidRequestError("target_id is required"))
		return
	}

	kind := model.ActionKind(req.Action)
	if model.RoleForAction(kind) == "" {
		WriteError(w, NewInvalidRequestError("unknown action"))
		return
	}

	room, err := h.controller.SubmitNightAction(r.Context(), roomID, playerID, kind, model.PlayerID(req.TargetID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// Vote handles POST /api/v1/rooms/{id}/vote
func (h *GameHandler) Vote(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.TargetID == "" {
		WriteError(w, NewInvalidRequestError("target_id is required"))
		return
	}

	room, err := h.controller.CastVote(r.Context(), roomID, playerID, model.PlayerID(req.TargetID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}

// Chat handles POST /api/v1/rooms/{id}/chat
func (h *GameHandler) Chat(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Text == "" {
		WriteError(w, NewInvalidRequestError("text is required"))
		return
	}

	room, err := h.controller.AddChatMessage(r.Context(), roomID, playerID, req.Text, req.IsPrivate)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, room.GetPlayer(playerID)))
}
