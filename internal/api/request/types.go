package request

// RoomSettings mirrors the configurable room parameters
type RoomSettings struct {
	MaxPlayers     int  `json:"max_players"`
	DiscussionTime int  `json:"discussion_time"`
	VotingTime     int  `json:"voting_time"`
	NightTime      int  `json:"night_time"`
	IsPublic       bool `json:"is_public"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Username   string        `json:"username"`
	IsPublic   bool          `json:"is_public,omitempty"`
	MaxPlayers int           `json:"max_players,omitempty"`
	Settings   *RoomSettings `json:"settings,omitempty"`
}

// JoinRoomRequest is the request body for joining a room by code
type JoinRoomRequest struct {
	Username string `json:"username"`
}

// ReadyRequest is the request body for toggling lobby readiness
type ReadyRequest struct {
	Ready bool `json:"ready"`
}

// KickRequest is the request body for kicking a player
type KickRequest struct {
	TargetID string `json:"target_id"`
}

// UpdateSettingsRequest is the request body for replacing room settings
type UpdateSettingsRequest struct {
	Settings RoomSettings `json:"settings"`
}

// NightActionRequest is the request body for submitting a night action
type NightActionRequest struct {
	Action   string `json:"action"`
	TargetID string `json:"target_id"`
}

// VoteRequest is the request body for casting a vote
type VoteRequest struct {
	TargetID string `json:"target_id"`
}

// ChatRequest is the request body for sending a chat message
type ChatRequest struct {
	Text      string `json:"text"`
	IsPrivate bool   `json:"is_private,omitempty"`
}

// QueueJoinRequest is the request body for entering matchmaking
type QueueJoinRequest struct {
	Username string `json:"username"`
}
