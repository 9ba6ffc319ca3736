package response

import (
	"sort"
	"time"

	"github.com/mkarlin/mafiagame-go/internal/model"
)

// Player represents a player in API responses. Role is only populated
// when the viewer is entitled to see it: their own role, or anyone's
// once the game has ended.
type Player struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsHost    bool   `json:"is_host"`
	IsAlive   bool   `json:"is_alive"`
	Connected bool   `json:"connected"`
	Ready     bool   `json:"ready,omitempty"`
	Role      string `json:"role,omitempty"`
}

// PlayerFromModel converts a model.Player, revealing the role only when
// reveal is set
func PlayerFromModel(p *model.Player, reveal bool) Player {
	out := Player{
		ID:        string(p.ID),
		Username:  p.Username,
		IsHost:    p.IsHost,
		IsAlive:   p.IsAlive,
		Connected: p.Connected,
		Ready:     p.Ready,
	}
	if reveal {
		out.Role = string(p.Role)
	}
	return out
}

// RoomSettings represents room configuration
type RoomSettings struct {
	MaxPlayers     int  `json:"max_players"`
	DiscussionTime int  `json:"discussion_time"`
	VotingTime     int  `json:"voting_time"`
	NightTime      int  `json:"night_time"`
	IsPublic       bool `json:"is_public"`
}

// SettingsFromModel converts model.RoomSettings
func SettingsFromModel(s model.RoomSettings) RoomSettings {
	return RoomSettings{
		MaxPlayers:     s.MaxPlayers,
		DiscussionTime: s.DiscussionTime,
		VotingTime:     s.VotingTime,
		NightTime:      s.NightTime,
		IsPublic:       s.IsPublic,
	}
}

// ChatMessage represents one chat history entry
type ChatMessage struct {
	SenderID string    `json:"sender_id"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Channel  string    `json:"channel"`
	SentAt   time.Time `json:"sent_at"`
}

// ChatMessageFromModel converts model.ChatMessage
func ChatMessageFromModel(m model.ChatMessage) ChatMessage {
	return ChatMessage{
		SenderID: string(m.SenderID),
		Username: m.Username,
		Text:     m.Text,
		Channel:  string(m.Channel),
		SentAt:   m.SentAt,
	}
}

// NightOutcome is the public subset of a night resolution
type NightOutcome struct {
	Killed *string `json:"killed"`
	Saved  bool    `json:"saved"`
}

// Room represents a room in API responses, filtered for one viewer.
// Hidden state (night action slots, other players' roles, chat channels
// the viewer cannot see) never leaves the server.
type Room struct {
	ID                  string            `json:"id"`
	Code                string            `json:"code"`
	Phase               string            `json:"phase"`
	Players             []Player          `json:"players"`
	Settings            RoomSettings      `json:"settings"`
	Votes               map[string]string `json:"votes,omitempty"`
	Round               int               `json:"round"`
	EliminatedThisRound *string           `json:"eliminated_this_round,omitempty"`
	NightOutcome        *NightOutcome     `json:"night_outcome,omitempty"`
	Winner              string            `json:"winner,omitempty"`
	TimerEnd            *time.Time        `json:"timer_end,omitempty"`
	ChatHistory         []ChatMessage     `json:"chat_history,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// RoomFromModel converts a model.RoomState to the view the given player
// may see. A nil viewer gets the fully public view (used for broadcasts
// and room listings).
func RoomFromModel(room *model.RoomState, viewer *model.Player) Room {
	ended := room.Phase == model.PhaseGameEnd

	players := make([]Player, 0, len(room.Players))
	for _, p := range room.Players {
		reveal := ended || (viewer != nil && viewer.ID == p.ID)
		players = append(players, PlayerFromModel(p, reveal))
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	var votes map[string]string
	if len(room.Votes) > 0 {
		votes = make(map[string]string, len(room.Votes))
		for voter, target := range room.Votes {
			votes[string(voter)] = string(target)
		}
	}

	var eliminated *string
	if room.EliminatedThisRound != nil {
		e := string(*room.EliminatedThisRound)
		eliminated = &e
	}

	var outcome *NightOutcome
	if room.NightResult != nil {
		outcome = &NightOutcome{Saved: room.NightResult.Saved}
		if room.NightResult.Killed != nil {
			k := string(*room.NightResult.Killed)
			outcome.Killed = &k
		}
	}

	var chat []ChatMessage
	for _, msg := range room.ChatHistory {
		if !chatVisible(msg.Channel, viewer, ended) {
			continue
		}
		chat = append(chat, ChatMessageFromModel(msg))
	}

	return Room{
		ID:                  string(room.ID),
		Code:                string(room.Code),
		Phase:               string(room.Phase),
		Players:             players,
		Settings:            SettingsFromModel(room.Settings),
		Votes:               votes,
		Round:               room.CurrentRound,
		EliminatedThisRound: eliminated,
		NightOutcome:        outcome,
		Winner:              string(room.Winner),
		TimerEnd:            room.TimerEnd,
		ChatHistory:         chat,
		CreatedAt:           room.CreatedAt,
	}
}

// chatVisible reports whether the viewer may read messages on a channel.
// Everything opens up once the game has ended.
func chatVisible(channel model.ChatChannel, viewer *model.Player, ended bool) bool {
	if ended {
		return true
	}
	switch channel {
	case model.ChannelPublic:
		return true
	case model.ChannelMafia:
		return viewer != nil && viewer.Role == model.RoleMafia
	case model.ChannelGhost:
		return viewer != nil && !viewer.IsAlive
	default:
		return false
	}
}

// RoomSummary is the public listing entry for an open room
type RoomSummary struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	PlayerCount int       `json:"player_count"`
	MaxPlayers  int       `json:"max_players"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoomSummaryFromModel converts a room to its listing entry
func RoomSummaryFromModel(room *model.RoomState) RoomSummary {
	return RoomSummary{
		ID:          string(room.ID),
		Code:        string(room.Code),
		PlayerCount: len(room.Players),
		MaxPlayers:  room.Settings.MaxPlayers,
		CreatedAt:   room.CreatedAt,
	}
}

// QueueStatus reports a player's matchmaking queue standing
type QueueStatus struct {
	Position int `json:"position"`
	Size     int `json:"size"`
}

// Event payloads pushed over SSE

// RoleAssignedEvent is delivered privately to one player
type RoleAssignedEvent struct {
	Role string `json:"role"`
}

// PhaseChangedEvent announces a phase transition
type PhaseChangedEvent struct {
	Phase    string     `json:"phase"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Round    int        `json:"round"`
}

// NightResultEvent is the public outcome of a night
type NightResultEvent struct {
	Killed *string `json:"killed"`
	Saved  bool    `json:"saved"`
}

// InspectResultEvent is delivered privately to the inspecting detective
type InspectResultEvent struct {
	Target  string `json:"target"`
	IsMafia bool   `json:"is_mafia"`
}

// VoteResultEvent announces a voting outcome
type VoteResultEvent struct {
	Eliminated   *string `json:"eliminated"`
	RevealedRole string  `json:"revealed_role,omitempty"`
}

// GameEndedEvent announces the winner with the full roster revealed
type GameEndedEvent struct {
	Winner  string   `json:"winner"`
	Players []Player `json:"players"`
}

// MatchFoundEvent tells a queued player their room is ready
type MatchFoundEvent struct {
	RoomID   string `json:"room_id"`
	RoomCode string `json:"room_code"`
}
