package session

import (
	"time"

	"github.com/mkarlin/mafiagame-go/internal/model"
)

// Notifier is the observer the transport layer passes at construction to
// receive state-change notifications. Implementations must not block; the
// controller calls them synchronously after persisting each transition.
type Notifier interface {
	// RoomUpdated delivers the full room snapshot after a state change
	RoomUpdated(room *model.RoomState)

	// RoleAssigned is private, delivered only to the named player
	RoleAssigned(roomID model.RoomID, playerID model.PlayerID, role model.Role)

	// PhaseChanged announces a transition and the deadline of the new phase
	PhaseChanged(roomID model.RoomID, phase model.Phase, deadline *time.Time, round int)

	// NightResolved carries the public outcome; inspect is non-nil only
	// when a detective inspected, and must be delivered to them alone
	NightResolved(roomID model.RoomID, result model.NightResultPayload, inspect *model.InspectResultPayload)

	// VoteResolved announces the voting outcome and the revealed role
	VoteResolved(roomID model.RoomID, result model.VoteResultPayload)

	// GameEnded announces the winning faction with the full roster revealed
	GameEnded(roomID model.RoomID, result model.GameEndedPayload)

	// ChatMessage is scoped to the message channel's audience
	ChatMessage(roomID model.RoomID, msg model.ChatMessage)

	// RoomClosed fires once when a room is deleted, so the transport can
	// release any per-room resources it holds
	RoomClosed(roomID model.RoomID)
}

// NopNotifier discards all notifications
type NopNotifier struct{}

var _ Notifier = (*NopNotifier)(nil)

func (NopNotifier) RoomUpdated(*model.RoomState)                            {}
func (NopNotifier) RoleAssigned(model.RoomID, model.PlayerID, model.Role)   {}
func (NopNotifier) PhaseChanged(model.RoomID, model.Phase, *time.Time, int) {}
func (NopNotifier) NightResolved(model.RoomID, model.NightResultPayload, *model.InspectResultPayload) {
}
func (NopNotifier) VoteResolved(model.RoomID, model.VoteResultPayload) {}
func (NopNotifier) GameEnded(model.RoomID, model.GameEndedPayload)     {}
func (NopNotifier) ChatMessage(model.RoomID, model.ChatMessage)        {}
func (NopNotifier) RoomClosed(model.RoomID)                            {}
