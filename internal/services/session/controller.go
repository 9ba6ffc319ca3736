package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkarlin/mafiagame-go/internal/dependencies/clock"
	"github.com/mkarlin/mafiagame-go/internal/dependencies/random"
	"github.com/mkarlin/mafiagame-go/internal/model"
	"github.com/mkarlin/mafiagame-go/internal/services/rules"
	"github.com/mkarlin/mafiagame-go/internal/storage"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 5
	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// RoleRevealDuration is how long the role reveal phase lasts
	RoleRevealDuration = 8 * time.Second

	// DisconnectGrace is how long a disconnected player's slot is held
	// before eviction
	DisconnectGrace = 30 * time.Second
)

// Controller owns the per-room session state machine. Client actions and
// timer callbacks both funnel through it; a per-room mutex serializes the
// read-modify-write cycle so concurrent writers cannot lose updates, while
// phase guards still reject operations arriving after a transition.
type Controller struct {
	storage   storage.Storage
	clock     clock.Clock
	random    random.Random
	scheduler *Scheduler
	notifier  Notifier
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[model.RoomID]*sync.Mutex
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	scheduler *Scheduler,
	notifier Notifier,
	logger *slog.Logger,
) *Controller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Controller{
		storage:   storage,
		clock:     clock,
		random:    random,
		scheduler: scheduler,
		notifier:  notifier,
		logger:    logger,
		locks:     make(map[model.RoomID]*sync.Mutex),
	}
}

// roomLock returns the mutex guarding a room's read-modify-write cycle
func (c *Controller) roomLock(id model.RoomID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	return lock
}

// releaseRoomLock drops a deleted room's mutex
func (c *Controller) releaseRoomLock(id model.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, id)
}

// Timer keys: the phase timer uses the bare room id; grace timers hang off
// a per-player suffix so CancelPrefix can sweep a whole room.

func phaseTimerKey(id model.RoomID) string {
	return string(id)
}

func graceTimerKey(id model.RoomID, playerID model.PlayerID) string {
	return string(id) + ":grace:" + string(playerID)
}

// CreateRoom creates a new room in the lobby phase with the given player
// as host. The join code is retried until it does not collide with a live
// room's code.
func (c *Controller) CreateRoom(
	ctx context.Context,
	hostID model.PlayerID,
	username string,
	isPublic bool,
	maxPlayers int,
	settings *model.RoomSettings,
) (*model.RoomState, error) {
	now := c.clock.Now()

	var code model.RoomCode
	for {
		code = model.RoomCode(c.random.String(RoomCodeLength, RoomCodeAlphabet))
		exists, err := c.storage.RoomCodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	cfg := model.DefaultRoomSettings()
	if settings != nil {
		cfg = *settings
	}
	cfg.IsPublic = isPublic
	if maxPlayers > 0 {
		cfg.MaxPlayers = maxPlayers
	}

	room := &model.RoomState{
		ID:       model.RoomID(uuid.NewString()),
		Code:     code,
		Phase:    model.PhaseLobby,
		Settings: cfg,
		Players: map[model.PlayerID]*model.Player{
			hostID: {
				ID:        hostID,
				Username:  username,
				IsHost:    true,
				IsAlive:   true,
				Connected: true,
			},
		},
		Votes:     make(map[model.PlayerID]model.PlayerID),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("code", string(room.Code)),
		slog.Bool("public", isPublic),
	)

	c.notifier.RoomUpdated(room)
	return room, nil
}

// GetRoom retrieves a room by id
func (c *Controller) GetRoom(ctx context.Context, id model.RoomID) (*model.RoomState, error) {
	return c.storage.GetRoom(ctx, id)
}

// GetRoomByCode retrieves a room by its join code
func (c *Controller) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.RoomState, error) {
	return c.storage.GetRoomByCode(ctx, code)
}

// ListPublicRooms returns public rooms still accepting players
func (c *Controller) ListPublicRooms(ctx context.Context) ([]*model.RoomState, error) {
	return c.storage.ListPublicOpenRooms(ctx)
}

// JoinRoom adds a player to a room by join code. Joining a room the player
// is already in returns the current state unchanged, tolerating duplicate
// join requests from a flaky client.
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, userID model.PlayerID, username string) (*model.RoomState, error) {
	found, err := c.storage.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	lock := c.roomLock(found.ID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, found.ID)
	if err != nil {
		return nil, err
	}

	// Idempotent rejoin
	if room.GetPlayer(userID) != nil {
		return room, nil
	}

	if room.Phase != model.PhaseLobby {
		return nil, model.ErrGameInProgress
	}
	if len(room.Players) >= room.Settings.MaxPlayers {
		return nil, model.ErrRoomFull
	}

	room.Players[userID] = &model.Player{
		ID:        userID,
		Username:  username,
		IsAlive:   true,
		Connected: true,
	}
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.RoomUpdated(room)
	return room, nil
}

// SetReady toggles a player's lobby readiness flag
func (c *Controller) SetReady(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, ready bool) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Phase != model.PhaseLobby {
		return nil, model.ErrWrongPhase
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	player.Ready = ready
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.RoomUpdated(room)
	return room, nil
}

// KickPlayer removes a player from the room at the host's request
func (c *Controller) KickPlayer(ctx context.Context, roomID model.RoomID, hostID, targetID model.PlayerID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	host := room.GetHost()
	if host == nil || host.ID != hostID {
		return nil, model.ErrNotHost
	}
	if room.Phase != model.PhaseLobby {
		return nil, model.ErrWrongPhase
	}
	if room.GetPlayer(targetID) == nil {
		return nil, model.ErrPlayerNotFound
	}

	return c.removeLocked(ctx, room, targetID)
}

// UpdateSettings replaces the room settings. Host-only and lobby-only;
// settings are immutable once a game starts.
func (c *Controller) UpdateSettings(ctx context.Context, roomID model.RoomID, hostID model.PlayerID, settings model.RoomSettings) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	host := room.GetHost()
	if host == nil || host.ID != hostID {
		return nil, model.ErrNotHost
	}
	if room.Phase != model.PhaseLobby {
		return nil, model.ErrWrongPhase
	}

	room.Settings = settings
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.RoomUpdated(room)
	return room, nil
}

// StartGame assigns roles and advances the room from lobby to role reveal.
// Requires the host and at least rules.MinPlayers players.
func (c *Controller) StartGame(ctx context.Context, roomID model.RoomID, hostID model.PlayerID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	host := room.GetHost()
	if host == nil || host.ID != hostID {
		return nil, model.ErrNotHost
	}
	if room.Phase != model.PhaseLobby {
		return nil, model.ErrWrongPhase
	}
	if len(room.Players) < rules.MinPlayers {
		return nil, model.ErrInsufficientPlayers
	}

	playerIDs := make([]model.PlayerID, 0, len(room.Players))
	for id := range room.Players {
		playerIDs = append(playerIDs, id)
	}
	assigned := rules.AssignRoles(playerIDs, c.random)

	now := c.clock.Now()
	for id, role := range assigned {
		p := room.Players[id]
		p.Role = role
		p.IsAlive = true
		p.Ready = false
	}

	deadline := now.Add(RoleRevealDuration)
	room.Phase = model.PhaseRoleReveal
	room.CurrentRound = 1
	room.GameStartedAt = &now
	room.TimerEnd = &deadline
	room.UpdatedAt = now

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("room_id", string(room.ID)),
		slog.Int("player_count", len(room.Players)),
	)

	for id, role := range assigned {
		c.notifier.RoleAssigned(room.ID, id, role)
	}
	c.notifier.PhaseChanged(room.ID, room.Phase, room.TimerEnd, room.CurrentRound)
	c.notifier.RoomUpdated(room)

	c.schedulePhaseTimer(room.ID, RoleRevealDuration, c.AdvanceToNight)

	return room, nil
}

// SubmitNightAction records a role-gated night action. Slots are keyed by
// action kind, so the last submission per kind wins even when several
// players share the role.
func (c *Controller) SubmitNightAction(ctx context.Context, roomID model.RoomID, userID model.PlayerID, kind model.ActionKind, targetID model.PlayerID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Phase != model.PhaseNight {
		return nil, model.ErrWrongPhase
	}

	actor := room.GetPlayer(userID)
	if actor == nil || !actor.IsAlive {
		return nil, model.ErrPlayerNotFound
	}

	required := model.RoleForAction(kind)
	if required == "" || actor.Role != required {
		return nil, model.ErrWrongRole
	}

	target := room.GetPlayer(targetID)
	if target == nil || !target.IsAlive {
		return nil, model.ErrInvalidTarget
	}

	switch kind {
	case model.ActionMafiaKill:
		room.Actions.MafiaKill = &targetID
	case model.ActionDoctorSave:
		room.Actions.DoctorSave = &targetID
	case model.ActionDetectiveInspect:
		room.Actions.DetectiveInspect = &targetID
	}
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// ResolveNightActions resolves the night's submitted actions, applies the
// outcome, and advances the phase. Normally timer-triggered.
func (c *Controller) ResolveNightActions(ctx context.Context, roomID model.RoomID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Phase != model.PhaseNight {
		return nil, model.ErrWrongPhase
	}

	result := rules.ResolveNight(room.Actions, room.Players)
	room.NightResult = &result
	room.EliminatedThisRound = nil

	if death := rules.NightDeath(result); death != nil {
		if victim := room.GetPlayer(*death); victim != nil && victim.IsAlive {
			victim.IsAlive = false
			room.EliminatedThisRound = death
		}
	}

	public := model.NightResultPayload{
		Killed: result.Killed,
		Saved:  result.Saved,
	}
	var inspect *model.InspectResultPayload
	if result.InspectTarget != nil {
		if det := c.findAliveByRole(room, model.RoleDetective); det != nil {
			inspect = &model.InspectResultPayload{
				DetectiveID: det.ID,
				Target:      *result.InspectTarget,
				IsMafia:     result.InspectIsMafia,
			}
		}
	}

	if winner, ended := rules.EvaluateWin(room); ended {
		if err := c.endGameLocked(ctx, room, winner); err != nil {
			return nil, err
		}
		c.notifier.NightResolved(room.ID, public, inspect)
		return room, nil
	}

	now := c.clock.Now()
	duration := time.Duration(room.Settings.DiscussionTime) * time.Second
	deadline := now.Add(duration)
	room.Phase = model.PhaseDay
	room.TimerEnd = &deadline
	room.UpdatedAt = now

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.NightResolved(room.ID, public, inspect)
	c.notifier.PhaseChanged(room.ID, room.Phase, room.TimerEnd, room.CurrentRound)
	c.notifier.RoomUpdated(room)

	c.schedulePhaseTimer(room.ID, duration, c.BeginVoting)

	return room, nil
}

// CastVote records or overwrites a living player's vote against a living
// target during the voting phase
func (c *Controller) CastVote(ctx context.Context, roomID model.RoomID, voterID, targetID model.PlayerID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Phase != model.PhaseVoting {
		return nil, model.ErrWrongPhase
	}

	voter := room.GetPlayer(voterID)
	if voter == nil || !voter.IsAlive {
		return nil, model.ErrPlayerNotFound
	}

	target := room.GetPlayer(targetID)
	if target == nil || !target.IsAlive {
		return nil, model.ErrInvalidTarget
	}

	room.Votes[voterID] = targetID
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.RoomUpdated(room)
	return room, nil
}

// ResolveVoting tallies the votes, eliminates the chosen player, and
// advances the phase. Normally timer-triggered.
func (c *Controller) ResolveVoting(ctx context.Context, roomID model.RoomID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Phase != model.PhaseVoting {
		return nil, model.ErrWrongPhase
	}

	eliminated := rules.TallyVotes(room.Votes, c.random)
	room.EliminatedThisRound = nil

	result := model.VoteResultPayload{}
	if eliminated != nil {
		if victim := room.GetPlayer(*eliminated); victim != nil && victim.IsAlive {
			victim.IsAlive = false
			room.EliminatedThisRound = eliminated
			result.Eliminated = eliminated
			result.RevealedRole = victim.Role
		}
	}

	if winner, ended := rules.EvaluateWin(room); ended {
		if err := c.endGameLocked(ctx, room, winner); err != nil {
			return nil, err
		}
		c.notifier.VoteResolved(room.ID, result)
		return room, nil
	}

	room.CurrentRound++
	if err := c.beginNightLocked(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.VoteResolved(room.ID, result)
	return room, nil
}

// AddChatMessage validates the channel rules for the sender's state and
// phase, truncates the message, and appends it to the bounded history.
//
// Channel rules: dead senders speak on the ghost channel only; a living
// sender with isPrivate set must be mafia and lands on the mafia channel;
// public chat is closed to living non-mafia senders during the night.
func (c *Controller) AddChatMessage(ctx context.Context, roomID model.RoomID, senderID model.PlayerID, text string, isPrivate bool) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	sender := room.GetPlayer(senderID)
	if sender == nil {
		return nil, model.ErrPlayerNotFound
	}

	var channel model.ChatChannel
	switch {
	case !sender.IsAlive:
		channel = model.ChannelGhost
	case isPrivate:
		if sender.Role != model.RoleMafia {
			return nil, model.ErrChatNotAllowed
		}
		channel = model.ChannelMafia
	default:
		if room.Phase == model.PhaseNight {
			return nil, model.ErrChatNotAllowed
		}
		channel = model.ChannelPublic
	}

	if runes := []rune(text); len(runes) > model.MaxChatMessageLength {
		text = string(runes[:model.MaxChatMessageLength])
	}

	msg := model.ChatMessage{
		SenderID: senderID,
		Username: sender.Username,
		Text:     text,
		Channel:  channel,
		SentAt:   c.clock.Now(),
	}
	room.AppendChat(msg)
	room.UpdatedAt = msg.SentAt

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.ChatMessage(room.ID, msg)
	return room, nil
}

// RemovePlayer removes a player from the room. The room is deleted the
// instant it empties; otherwise host reassignment, vote cleanup, and a
// win re-evaluation run as for any departure.
func (c *Controller) RemovePlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.GetPlayer(playerID) == nil {
		return nil, model.ErrPlayerNotFound
	}

	return c.removeLocked(ctx, room, playerID)
}

// DisconnectPlayer flags a player as disconnected and starts the grace
// countdown; if they do not reconnect in time they are fully removed
func (c *Controller) DisconnectPlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	player.Connected = false
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.RoomUpdated(room)

	c.scheduler.Schedule(graceTimerKey(roomID, playerID), DisconnectGrace, func() {
		c.evictIfStillDisconnected(context.Background(), roomID, playerID)
	})

	return room, nil
}

// ReconnectPlayer flips the connected flag back and cancels the pending
// grace eviction
func (c *Controller) ReconnectPlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	c.scheduler.Cancel(graceTimerKey(roomID, playerID))

	player.Connected = true
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.RoomUpdated(room)
	return room, nil
}

// ResetRoom returns a finished room to the lobby, clearing all game state
func (c *Controller) ResetRoom(ctx context.Context, roomID model.RoomID, hostID model.PlayerID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	host := room.GetHost()
	if host == nil || host.ID != hostID {
		return nil, model.ErrNotHost
	}
	if room.Phase != model.PhaseGameEnd {
		return nil, model.ErrWrongPhase
	}

	c.scheduler.Cancel(phaseTimerKey(roomID))

	for _, p := range room.Players {
		p.Role = ""
		p.IsAlive = true
		p.Ready = false
	}
	room.Phase = model.PhaseLobby
	room.CurrentRound = 0
	room.Votes = make(map[model.PlayerID]model.PlayerID)
	room.Actions = model.GameActions{}
	room.NightResult = nil
	room.EliminatedThisRound = nil
	room.Winner = ""
	room.TimerEnd = nil
	room.GameStartedAt = nil
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.PhaseChanged(room.ID, room.Phase, nil, 0)
	c.notifier.RoomUpdated(room)
	return room, nil
}

// Internal transitions

// schedulePhaseTimer replaces the room's pending phase timer with a new
// one that invokes the given transition. Errors inside timer callbacks are
// logged and swallowed: the room stays in its current phase until a client
// action or a later timer recovers it.
func (c *Controller) schedulePhaseTimer(roomID model.RoomID, d time.Duration, fn func(ctx context.Context, roomID model.RoomID) (*model.RoomState, error)) {
	c.scheduler.Schedule(phaseTimerKey(roomID), d, func() {
		if _, err := fn(context.Background(), roomID); err != nil {
			c.logger.Warn("timer-driven transition failed",
				slog.String("room_id", string(roomID)),
				slog.String("error", err.Error()),
			)
		}
	})
}

// AdvanceToNight moves role_reveal to the first night. Normally
// timer-triggered.
func (c *Controller) AdvanceToNight(ctx context.Context, roomID model.RoomID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Phase != model.PhaseRoleReveal {
		return nil, model.ErrWrongPhase
	}

	if err := c.beginNightLocked(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// beginNightLocked enters the night phase: action slots are cleared here,
// at the start of the phase that uses them
func (c *Controller) beginNightLocked(ctx context.Context, room *model.RoomState) error {
	now := c.clock.Now()
	duration := time.Duration(room.Settings.NightTime) * time.Second
	deadline := now.Add(duration)

	room.Phase = model.PhaseNight
	room.Actions = model.GameActions{}
	room.NightResult = nil
	room.TimerEnd = &deadline
	room.UpdatedAt = now

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return err
	}

	c.notifier.PhaseChanged(room.ID, room.Phase, room.TimerEnd, room.CurrentRound)
	c.notifier.RoomUpdated(room)

	c.schedulePhaseTimer(room.ID, duration, c.ResolveNightActions)
	return nil
}

// BeginVoting moves day to voting: the vote map is cleared here, at the
// start of the phase that uses it
func (c *Controller) BeginVoting(ctx context.Context, roomID model.RoomID) (*model.RoomState, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Phase != model.PhaseDay {
		return nil, model.ErrWrongPhase
	}

	now := c.clock.Now()
	duration := time.Duration(room.Settings.VotingTime) * time.Second
	deadline := now.Add(duration)

	room.Phase = model.PhaseVoting
	room.Votes = make(map[model.PlayerID]model.PlayerID)
	room.TimerEnd = &deadline
	room.UpdatedAt = now

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.PhaseChanged(room.ID, room.Phase, room.TimerEnd, room.CurrentRound)
	c.notifier.RoomUpdated(room)

	c.schedulePhaseTimer(room.ID, duration, c.ResolveVoting)
	return room, nil
}

// endGameLocked moves the room to game_end and cancels its phase timer
func (c *Controller) endGameLocked(ctx context.Context, room *model.RoomState, winner model.Faction) error {
	c.scheduler.Cancel(phaseTimerKey(room.ID))

	room.Phase = model.PhaseGameEnd
	room.Winner = winner
	room.TimerEnd = nil
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return err
	}

	c.logger.Info("game ended",
		slog.String("room_id", string(room.ID)),
		slog.String("winner", string(winner)),
	)

	roster := make([]model.Player, 0, len(room.Players))
	for _, p := range room.Players {
		roster = append(roster, *p)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })

	c.notifier.GameEnded(room.ID, model.GameEndedPayload{
		Winner:  winner,
		Players: roster,
	})
	c.notifier.RoomUpdated(room)
	return nil
}

// removeLocked removes a player with the room lock held, handling room
// deletion, host reassignment, vote cleanup, and win re-evaluation
func (c *Controller) removeLocked(ctx context.Context, room *model.RoomState, playerID model.PlayerID) (*model.RoomState, error) {
	removed := room.Players[playerID]
	wasHost := removed != nil && removed.IsHost

	delete(room.Players, playerID)
	c.scheduler.Cancel(graceTimerKey(room.ID, playerID))

	// Room is destroyed the instant it empties, at any phase
	if len(room.Players) == 0 {
		c.scheduler.Cancel(phaseTimerKey(room.ID))
		c.scheduler.CancelPrefix(string(room.ID) + ":grace:")

		if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
			return nil, err
		}
		c.releaseRoomLock(room.ID)
		c.notifier.RoomClosed(room.ID)

		c.logger.Info("room deleted", slog.String("room_id", string(room.ID)))
		return nil, nil
	}

	if wasHost {
		// Deterministic-but-arbitrary: lowest remaining id becomes host
		ids := make([]model.PlayerID, 0, len(room.Players))
		for id := range room.Players {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		room.Players[ids[0]].IsHost = true
	}

	// Drop votes cast by or against the departed player
	for voter, target := range room.Votes {
		if voter == playerID || target == playerID {
			delete(room.Votes, voter)
		}
	}

	room.UpdatedAt = c.clock.Now()

	// A departure mid-game counts as an elimination event
	inGame := room.Phase != model.PhaseLobby && room.Phase != model.PhaseGameEnd
	if inGame {
		if winner, ended := rules.EvaluateWin(room); ended {
			if err := c.endGameLocked(ctx, room, winner); err != nil {
				return nil, err
			}
			return room, nil
		}
	}

	if err := c.storage.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	c.notifier.RoomUpdated(room)
	return room, nil
}

// evictIfStillDisconnected is the grace-timer callback: full removal
// unless the player reconnected first. Races with room deletion resolve
// to a no-op.
func (c *Controller) evictIfStillDisconnected(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) {
	lock := c.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return
	}

	player := room.GetPlayer(playerID)
	if player == nil || player.Connected {
		return
	}

	c.logger.Info("evicting disconnected player",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
	)

	if _, err := c.removeLocked(ctx, room, playerID); err != nil {
		c.logger.Warn("eviction failed",
			slog.String("room_id", string(roomID)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
	}
}

// findAliveByRole returns an arbitrary alive player with the given role
func (c *Controller) findAliveByRole(room *model.RoomState, role model.Role) *model.Player {
	for _, p := range room.Players {
		if p.IsAlive && p.Role == role {
			return p
		}
	}
	return nil
}
