package storage

import (
	"context"

	"github.com/mkarlin/mafiagame-go/internal/model"
)

// Storage defines the interface for data persistence.
// Room writes are whole-snapshot overwrites; there are no partial
// patch semantics.
type Storage interface {
	// Room operations
	CreateRoom(ctx context.Context, room *model.RoomState) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.RoomState, error)
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.RoomState, error)
	UpdateRoom(ctx context.Context, room *model.RoomState) error
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error)
	ListAllRooms(ctx context.Context) ([]*model.RoomState, error)
	// ListPublicOpenRooms returns public rooms still in the lobby phase
	ListPublicOpenRooms(ctx context.Context) ([]*model.RoomState, error)

	// Matchmaking queue operations (FIFO, oldest first)
	Enqueue(ctx context.Context, player model.MatchmakingPlayer) error
	// DequeueFront removes and returns up to n players from the front of the queue
	DequeueFront(ctx context.Context, n int) ([]model.MatchmakingPlayer, error)
	RemoveFromQueue(ctx context.Context, userID model.PlayerID) error
	ListQueue(ctx context.Context) ([]model.MatchmakingPlayer, error)
}
