package redis

import (
	"fmt"

	"github.com/mkarlin/mafiagame-go/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "mafia"

// roomKey returns the Redis key for a RoomState snapshot
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// roomCodeKey returns the Redis key for the code -> room_id index
func roomCodeKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// roomsIndexKey returns the Redis key for the SET of live room ids
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// queueKey returns the Redis key for the matchmaking queue LIST
func queueKey() string {
	return fmt.Sprintf("%s:matchmaking:public", keyPrefix)
}
