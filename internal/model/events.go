package model

import "time"

// EventType identifies the type of event emitted toward the transport layer
type EventType string

const (
	EventRoomUpdated   EventType = "room_updated"
	EventRoleAssigned  EventType = "role_assigned"
	EventPhaseChanged  EventType = "phase_changed"
	EventNightResult   EventType = "night_result"
	EventInspectResult EventType = "inspect_result"
	EventVoteResult    EventType = "vote_result"
	EventGameEnded     EventType = "game_ended"
	EventChatMessage   EventType = "chat_message"
	EventMatchFound    EventType = "match_found"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomID    RoomID
	Payload   any
}

// RoleAssignedPayload is delivered privately to a single player
type RoleAssignedPayload struct {
	PlayerID PlayerID
	Role     Role
}

// PhaseChangedPayload announces a phase transition and its deadline
type PhaseChangedPayload struct {
	Phase    Phase
	Deadline *time.Time // nil for phases without a timer
	Round    int
}

// NightResultPayload is the public subset of a night resolution.
// The inspect result is carried separately and delivered only to the detective.
type NightResultPayload struct {
	Killed *PlayerID
	Saved  bool
}

// InspectResultPayload is delivered privately to the inspecting detective
type InspectResultPayload struct {
	DetectiveID PlayerID
	Target      PlayerID
	IsMafia     bool
}

// VoteResultPayload announces a voting resolution
type VoteResultPayload struct {
	Eliminated   *PlayerID
	RevealedRole Role // role of the eliminated player, empty if none
}

// GameEndedPayload announces a faction victory with the full roster revealed
type GameEndedPayload struct {
	Winner  Faction
	Players []Player
}

// ChatMessagePayload carries a chat message scoped to its channel's audience
type ChatMessagePayload struct {
	Message ChatMessage
}

// MatchFoundPayload notifies queued players that a room was created for them
type MatchFoundPayload struct {
	Players  []PlayerID
	RoomID   RoomID
	RoomCode RoomCode
}
