package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkarlin/mafiagame-go/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeRoomFull            = "ROOM_FULL"
	CodeGameInProgress      = "GAME_IN_PROGRESS"
	CodeWrongPhase          = "WRONG_PHASE"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeNotHost             = "NOT_HOST"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodePlayerDead          = "PLAYER_DEAD"
	CodeWrongRole           = "WRONG_ROLE"
	CodeInvalidTarget       = "INVALID_TARGET"
	CodeChatNotAllowed      = "CHAT_NOT_ALLOWED"
	CodeNotInQueue          = "NOT_IN_QUEUE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrGameInProgress):
		return &httpError{http.StatusConflict, APIError{CodeGameInProgress, "Game is in progress"}}
	case errors.Is(err, model.ErrWrongPhase):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Action not allowed in the current phase"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Not enough players to start"}}
	case errors.Is(err, model.ErrPlayerDead):
		return &httpError{http.StatusForbidden, APIError{CodePlayerDead, "Dead players cannot do that"}}
	case errors.Is(err, model.ErrWrongRole):
		return &httpError{http.StatusForbidden, APIError{CodeWrongRole, "Your role cannot perform this action"}}
	case errors.Is(err, model.ErrInvalidTarget):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidTarget, "Invalid target"}}
	case errors.Is(err, model.ErrChatNotAllowed):
		return &httpError{http.StatusForbidden, APIError{CodeChatNotAllowed, "Chat not allowed here"}}
	case errors.Is(err, model.ErrNotInQueue):
		return &httpError{http.StatusNotFound, APIError{CodeNotInQueue, "Not in the matchmaking queue"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Player identity required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
