package matchmaking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mkarlin/mafiagame-go/internal/dependencies/clock"
	"github.com/mkarlin/mafiagame-go/internal/model"
	"github.com/mkarlin/mafiagame-go/internal/services/session"
	"github.com/mkarlin/mafiagame-go/internal/storage"
)

const (
	// MinMatchSize is the queue depth below which no match is formed
	MinMatchSize = 6

	// MaxMatchSize caps how many players one match takes off the queue
	MaxMatchSize = 10

	// MaxWait is how long the oldest queued player waits before a
	// sub-MaxMatchSize match is formed anyway
	MaxWait = 30 * time.Second

	// TickInterval is how often the queue is checked
	TickInterval = 2 * time.Second

	// AutoStartDelay is the pause between match formation and game start,
	// giving matched clients time to land in the room
	AutoStartDelay = 5 * time.Second
)

// Notifier receives match formation events for delivery to queued players
type Notifier interface {
	MatchFound(payload model.MatchFoundPayload)
}

// NopNotifier discards match notifications
type NopNotifier struct{}

var _ Notifier = (*NopNotifier)(nil)

func (NopNotifier) MatchFound(model.MatchFoundPayload) {}

// Service runs the public matchmaking queue. Players enqueue FIFO; a
// background ticker forms a match when enough players are waiting, or when
// the oldest has waited too long and at least MinMatchSize are available.
type Service struct {
	storage    storage.Storage
	clock      clock.Clock
	controller *session.Controller
	scheduler  *session.Scheduler
	notifier   Notifier
	logger     *slog.Logger

	// Serializes match formation against queue checks
	mu sync.Mutex

	stopOnce sync.Once
	done     chan struct{}
}

// NewService creates a matchmaking Service. Start must be called to begin
// forming matches.
func NewService(
	storage storage.Storage,
	clock clock.Clock,
	controller *session.Controller,
	scheduler *session.Scheduler,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		controller: controller,
		scheduler:  scheduler,
		notifier:   notifier,
		logger:     logger.With(slog.String("component", "matchmaking")),
		done:       make(chan struct{}),
	}
}

// Start launches the background queue checker. It returns immediately;
// the checker runs until Stop is called or ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				if err := s.CheckQueue(ctx); err != nil {
					s.logger.Warn("queue check failed",
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}()
}

// Stop halts the background checker. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// AddToQueue enqueues a player and returns their 1-based position. A
// player already queued keeps their original place.
func (s *Service) AddToQueue(ctx context.Context, userID model.PlayerID, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queued, err := s.storage.ListQueue(ctx)
	if err != nil {
		return 0, err
	}
	for i, entry := range queued {
		if entry.UserID == userID {
			return i + 1, nil
		}
	}

	entry := model.MatchmakingPlayer{
		UserID:   userID,
		Username: username,
		JoinedAt: s.clock.Now(),
	}
	if err := s.storage.Enqueue(ctx, entry); err != nil {
		return 0, err
	}

	s.logger.Info("player queued",
		slog.String("user_id", string(userID)),
		slog.Int("queue_size", len(queued)+1),
	)
	return len(queued) + 1, nil
}

// RemoveFromQueue takes a player out of the queue
func (s *Service) RemoveFromQueue(ctx context.Context, userID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.RemoveFromQueue(ctx, userID)
}

// QueueStatus returns a player's 1-based position and the total queue
// size. ErrNotInQueue if the player is not queued.
func (s *Service) QueueStatus(ctx context.Context, userID model.PlayerID) (position, size int, err error) {
	queued, err := s.storage.ListQueue(ctx)
	if err != nil {
		return 0, 0, err
	}
	for i, entry := range queued {
		if entry.UserID == userID {
			return i + 1, len(queued), nil
		}
	}
	return 0, 0, model.ErrNotInQueue
}

// QueueSize returns the number of queued players
func (s *Service) QueueSize(ctx context.Context) (int, error) {
	queued, err := s.storage.ListQueue(ctx)
	if err != nil {
		return 0, err
	}
	return len(queued), nil
}

// CheckQueue forms at most one match if the queue qualifies: MaxMatchSize
// players waiting, or MinMatchSize players with the oldest past MaxWait.
// Exported for the ticker and for tests; safe to call at any time.
func (s *Service) CheckQueue(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queued, err := s.storage.ListQueue(ctx)
	if err != nil {
		return err
	}
	if len(queued) < MinMatchSize {
		return nil
	}
	if len(queued) < MaxMatchSize {
		oldest := queued[0]
		if s.clock.Now().Sub(oldest.JoinedAt) < MaxWait {
			return nil
		}
	}

	return s.formMatch(ctx)
}

// formMatch pops the oldest players off the queue and spins up a public
// room for them. Called with s.mu held. The first player out becomes host;
// the game auto-starts after AutoStartDelay without waiting on the host.
func (s *Service) formMatch(ctx context.Context) error {
	players, err := s.storage.DequeueFront(ctx, MaxMatchSize)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return nil
	}

	host := players[0]
	room, err := s.controller.CreateRoom(ctx, host.UserID, host.Username, true, MaxMatchSize, nil)
	if err != nil {
		return err
	}

	for _, p := range players[1:] {
		if _, err := s.controller.JoinRoom(ctx, room.Code, p.UserID, p.Username); err != nil {
			s.logger.Warn("matched player failed to join",
				slog.String("room_id", string(room.ID)),
				slog.String("user_id", string(p.UserID)),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("match formed",
		slog.String("room_id", string(room.ID)),
		slog.Int("player_count", len(players)),
	)

	matched := make([]model.PlayerID, len(players))
	for i, p := range players {
		matched[i] = p.UserID
	}
	s.notifier.MatchFound(model.MatchFoundPayload{
		Players:  matched,
		RoomID:   room.ID,
		RoomCode: room.Code,
	})

	hostID := host.UserID
	roomID := room.ID
	s.scheduler.Schedule("match:autostart:"+string(roomID), AutoStartDelay, func() {
		if _, err := s.controller.StartGame(context.Background(), roomID, hostID); err != nil {
			// Players may have bailed below the minimum; the room just
			// stays in the lobby under the host's control
			s.logger.Warn("auto-start failed",
				slog.String("room_id", string(roomID)),
				slog.String("error", err.Error()),
			)
		}
	})

	return nil
}
