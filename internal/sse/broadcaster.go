package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mkarlin/mafiagame-go/internal/api/response"
	"github.com/mkarlin/mafiagame-go/internal/model"
	"github.com/mkarlin/mafiagame-go/internal/services/matchmaking"
	"github.com/mkarlin/mafiagame-go/internal/services/session"
	"github.com/mkarlin/mafiagame-go/internal/storage"
)

// Broadcaster turns session and matchmaking notifications into SSE frames.
// Public events go to every client on the room's hub; private events (a
// player's role, the detective's inspect result, scoped chat channels) are
// addressed to the entitled players only.
type Broadcaster struct {
	hubManager *HubManager
	storage    storage.Storage
	logger     *slog.Logger
}

var (
	_ session.Notifier     = (*Broadcaster)(nil)
	_ matchmaking.Notifier = (*Broadcaster)(nil)
)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, storage storage.Storage, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		storage:    storage,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// roomHub returns the hub for a room, or nil when nobody is listening
func (b *Broadcaster) roomHub(roomID model.RoomID) *Hub {
	return b.hubManager.GetHub(RoomTopic(roomID))
}

// encode marshals an event payload, logging and returning nil on failure
func (b *Broadcaster) encode(eventName string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("sse payload marshal failed",
			slog.String("event", eventName),
			slog.Any("error", err))
		return nil
	}
	return formatSSEMessage(eventName, string(data))
}

// RoomUpdated broadcasts the public room snapshot. Clients needing their
// personalized view refetch the room endpoint.
func (b *Broadcaster) RoomUpdated(room *model.RoomState) {
	hub := b.roomHub(room.ID)
	if hub == nil {
		return
	}
	if msg := b.encode(string(model.EventRoomUpdated), response.RoomFromModel(room, nil)); msg != nil {
		hub.Broadcast(msg)
	}
}

// RoleAssigned delivers a player's role to them alone
func (b *Broadcaster) RoleAssigned(roomID model.RoomID, playerID model.PlayerID, role model.Role) {
	hub := b.roomHub(roomID)
	if hub == nil {
		return
	}
	msg := b.encode(string(model.EventRoleAssigned), response.RoleAssignedEvent{Role: string(role)})
	if msg != nil {
		hub.SendTo(playerID, msg)
	}
}

// PhaseChanged broadcasts a phase transition and its deadline
func (b *Broadcaster) PhaseChanged(roomID model.RoomID, phase model.Phase, deadline *time.Time, round int) {
	hub := b.roomHub(roomID)
	if hub == nil {
		return
	}
	msg := b.encode(string(model.EventPhaseChanged), response.PhaseChangedEvent{
		Phase:    string(phase),
		Deadline: deadline,
		Round:    round,
	})
	if msg != nil {
		hub.Broadcast(msg)
	}
}

// NightResolved broadcasts the public night outcome and, when a detective
// inspected, sends the verdict to them alone
func (b *Broadcaster) NightResolved(roomID model.RoomID, result model.NightResultPayload, inspect *model.InspectResultPayload) {
	hub := b.roomHub(roomID)
	if hub == nil {
		return
	}

	public := response.NightResultEvent{Saved: result.Saved}
	if result.Killed != nil {
		k := string(*result.Killed)
		public.Killed = &k
	}
	if msg := b.encode(string(model.EventNightResult), public); msg != nil {
		hub.Broadcast(msg)
	}

	if inspect != nil {
		msg := b.encode(string(model.EventInspectResult), response.InspectResultEvent{
			Target:  string(inspect.Target),
			IsMafia: inspect.IsMafia,
		})
		if msg != nil {
			hub.SendTo(inspect.DetectiveID, msg)
		}
	}
}

// VoteResolved broadcasts a voting outcome with the eliminated player's
// role revealed
func (b *Broadcaster) VoteResolved(roomID model.RoomID, result model.VoteResultPayload) {
	hub := b.roomHub(roomID)
	if hub == nil {
		return
	}

	event := response.VoteResultEvent{RevealedRole: string(result.RevealedRole)}
	if result.Eliminated != nil {
		e := string(*result.Eliminated)
		event.Eliminated = &e
	}
	if msg := b.encode(string(model.EventVoteResult), event); msg != nil {
		hub.Broadcast(msg)
	}
}

// GameEnded broadcasts the winning faction with the full roster revealed
func (b *Broadcaster) GameEnded(roomID model.RoomID, result model.GameEndedPayload) {
	hub := b.roomHub(roomID)
	if hub == nil {
		return
	}

	players := make([]response.Player, len(result.Players))
	for i := range result.Players {
		players[i] = response.PlayerFromModel(&result.Players[i], true)
	}
	msg := b.encode(string(model.EventGameEnded), response.GameEndedEvent{
		Winner:  string(result.Winner),
		Players: players,
	})
	if msg != nil {
		hub.Broadcast(msg)
	}
}

// ChatMessage delivers a chat message to its channel's audience: everyone
// for public, living mafia for the mafia channel, dead players for the
// ghost channel
func (b *Broadcaster) ChatMessage(roomID model.RoomID, msg model.ChatMessage) {
	hub := b.roomHub(roomID)
	if hub == nil {
		return
	}

	frame := b.encode(string(model.EventChatMessage), response.ChatMessageFromModel(msg))
	if frame == nil {
		return
	}

	if msg.Channel == model.ChannelPublic {
		hub.Broadcast(frame)
		return
	}

	room, err := b.storage.GetRoom(context.Background(), roomID)
	if err != nil {
		b.logger.Warn("sse chat audience lookup failed",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()))
		return
	}

	audience := make(map[model.PlayerID]bool)
	for _, p := range room.Players {
		switch msg.Channel {
		case model.ChannelMafia:
			if p.Role == model.RoleMafia {
				audience[p.ID] = true
			}
		case model.ChannelGhost:
			if !p.IsAlive {
				audience[p.ID] = true
			}
		}
	}
	hub.SendToSet(audience, frame)
}

// RoomClosed tears down the room's hub, disconnecting any remaining
// listeners and stopping its goroutine
func (b *Broadcaster) RoomClosed(roomID model.RoomID) {
	b.hubManager.RemoveHub(RoomTopic(roomID))
}

// MatchFound tells each matched player, via the queue hub, which room to
// join
func (b *Broadcaster) MatchFound(payload model.MatchFoundPayload) {
	hub := b.hubManager.GetHub(QueueTopic)
	if hub == nil {
		return
	}

	msg := b.encode(string(model.EventMatchFound), response.MatchFoundEvent{
		RoomID:   string(payload.RoomID),
		RoomCode: string(payload.RoomCode),
	})
	if msg == nil {
		return
	}
	for _, playerID := range payload.Players {
		hub.SendTo(playerID, msg)
	}
}
