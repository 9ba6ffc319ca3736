package model

import "time"

// RoomID is an opaque identifier for a room, stable for the session lifetime
type RoomID string

// RoomCode is a short human-enterable identifier for joining rooms
type RoomCode string

// Phase represents the room's current stage in its state machine
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseRoleReveal Phase = "role_reveal"
	PhaseNight      Phase = "night"
	PhaseDay        Phase = "day"
	PhaseVoting     Phase = "voting"
	PhaseGameEnd    Phase = "game_end"
)

// ActionKind identifies a night action slot
type ActionKind string

const (
	ActionMafiaKill        ActionKind = "mafiaKill"
	ActionDoctorSave       ActionKind = "doctorSave"
	ActionDetectiveInspect ActionKind = "detectiveInspect"
)

// RoleForAction returns the role allowed to submit the given action kind
func RoleForAction(kind ActionKind) Role {
	switch kind {
	case ActionMafiaKill:
		return RoleMafia
	case ActionDoctorSave:
		return RoleDoctor
	case ActionDetectiveInspect:
		return RoleDetective
	default:
		return ""
	}
}

// RoomSettings holds configurable room parameters.
// Immutable once the phase leaves the lobby.
type RoomSettings struct {
	MaxPlayers     int
	DiscussionTime int // seconds
	VotingTime     int // seconds
	NightTime      int // seconds
	IsPublic       bool
}

// DefaultRoomSettings returns the default settings for new rooms
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		MaxPlayers:     10,
		DiscussionTime: 60,
		VotingTime:     30,
		NightTime:      30,
		IsPublic:       false,
	}
}

// GameActions is the scratch state for the current night.
// Slots are keyed by action kind, not by actor: the last writer per kind
// wins, so two mafia submitting different targets overwrite each other.
type GameActions struct {
	MafiaKill        *PlayerID
	DoctorSave       *PlayerID
	DetectiveInspect *PlayerID
}

// NightResult is the transient outcome of one night's resolution,
// recomputed each round rather than accumulated.
type NightResult struct {
	Killed         *PlayerID // who was targeted; set even when saved
	Saved          bool
	InspectTarget  *PlayerID
	InspectIsMafia bool
}

// ChatChannel scopes a chat message's audience
type ChatChannel string

const (
	ChannelPublic ChatChannel = "public"
	ChannelMafia  ChatChannel = "mafia"
	ChannelGhost  ChatChannel = "ghost"
)

// MaxChatHistory bounds the number of retained chat messages per room
const MaxChatHistory = 100

// MaxChatMessageLength bounds a single chat message, in runes
const MaxChatMessageLength = 500

// ChatMessage is one entry in a room's chat history
type ChatMessage struct {
	SenderID PlayerID
	Username string
	Text     string
	Channel  ChatChannel
	SentAt   time.Time
}

// RoomState is the aggregate root for one running game session
type RoomState struct {
	ID                  RoomID
	Code                RoomCode
	Phase               Phase
	Players             map[PlayerID]*Player
	Settings            RoomSettings
	Votes               map[PlayerID]PlayerID // voterId -> targetId, cleared when voting starts
	Actions             GameActions
	NightResult         *NightResult
	CurrentRound        int
	EliminatedThisRound *PlayerID
	Winner              Faction // empty until a faction wins
	TimerEnd            *time.Time
	ChatHistory         []ChatMessage
	GameStartedAt       *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// GetHost returns the current host player, or nil if none
func (r *RoomState) GetHost() *Player {
	for _, p := range r.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// GetPlayer returns the player with the given id, or nil if absent
func (r *RoomState) GetPlayer(id PlayerID) *Player {
	return r.Players[id]
}

// AlivePlayers returns all players still alive
func (r *RoomState) AlivePlayers() []*Player {
	var alive []*Player
	for _, p := range r.Players {
		if p.IsAlive {
			alive = append(alive, p)
		}
	}
	return alive
}

// AliveCounts returns the number of alive mafia and alive non-mafia players
func (r *RoomState) AliveCounts() (mafia, town int) {
	for _, p := range r.Players {
		if !p.IsAlive {
			continue
		}
		if p.Role == RoleMafia {
			mafia++
		} else {
			town++
		}
	}
	return mafia, town
}

// AppendChat appends a message to the chat history, dropping the oldest
// entries beyond MaxChatHistory
func (r *RoomState) AppendChat(msg ChatMessage) {
	r.ChatHistory = append(r.ChatHistory, msg)
	if len(r.ChatHistory) > MaxChatHistory {
		r.ChatHistory = r.ChatHistory[len(r.ChatHistory)-MaxChatHistory:]
	}
}

// Clone returns a deep copy of the room state. The copy shares no
// pointers with the original, so mutating one never affects the other.
func (r *RoomState) Clone() *RoomState {
	c := *r
	if r.Players != nil {
		c.Players = make(map[PlayerID]*Player, len(r.Players))
		for id, p := range r.Players {
			pc := *p
			c.Players[id] = &pc
		}
	}
	if r.Votes != nil {
		c.Votes = make(map[PlayerID]PlayerID, len(r.Votes))
		for voter, target := range r.Votes {
			c.Votes[voter] = target
		}
	}
	c.Actions.MafiaKill = clonePlayerID(r.Actions.MafiaKill)
	c.Actions.DoctorSave = clonePlayerID(r.Actions.DoctorSave)
	c.Actions.DetectiveInspect = clonePlayerID(r.Actions.DetectiveInspect)
	if r.NightResult != nil {
		nr := *r.NightResult
		nr.Killed = clonePlayerID(r.NightResult.Killed)
		nr.InspectTarget = clonePlayerID(r.NightResult.InspectTarget)
		c.NightResult = &nr
	}
	c.EliminatedThisRound = clonePlayerID(r.EliminatedThisRound)
	c.TimerEnd = cloneTime(r.TimerEnd)
	c.GameStartedAt = cloneTime(r.GameStartedAt)
	if r.ChatHistory != nil {
		c.ChatHistory = make([]ChatMessage, len(r.ChatHistory))
		copy(c.ChatHistory, r.ChatHistory)
	}
	return &c
}

func clonePlayerID(id *PlayerID) *PlayerID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
