package model

import "time"

// MatchmakingPlayer is a player waiting in the public matchmaking queue.
// It exists only inside the queue; matched or departing players are removed.
type MatchmakingPlayer struct {
	UserID   PlayerID
	Username string
	JoinedAt time.Time
}
