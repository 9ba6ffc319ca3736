package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game is in progress")
	ErrWrongPhase     = errors.New("operation not allowed in current phase")

	// Player errors
	ErrPlayerNotFound      = errors.New("player not found")
	ErrNotHost             = errors.New("player is not the host")
	ErrInsufficientPlayers = errors.New("insufficient players to start game")
	ErrPlayerDead          = errors.New("player is not alive")

	// Action errors
	ErrWrongRole     = errors.New("player's role cannot perform this action")
	ErrInvalidTarget = errors.New("target is dead or not in the room")

	// Chat errors
	ErrChatNotAllowed = errors.New("chat not allowed on this channel")

	// Matchmaking errors
	ErrNotInQueue = errors.New("player is not in the matchmaking queue")
)
