package memory

import (
	"context"
	"sync"

	"github.com/mkarlin/mafiagame-go/internal/model"
	"github.com/mkarlin/mafiagame-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Room state is copied on every read and write so callers never share
// pointers with the store.
type Storage struct {
	mu sync.RWMutex

	rooms     map[model.RoomID]*model.RoomState
	codeIndex map[model.RoomCode]model.RoomID
	queue     []model.MatchmakingPlayer
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:     make(map[model.RoomID]*model.RoomState),
		codeIndex: make(map[model.RoomCode]model.RoomID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.RoomState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
	s.codeIndex[room.Code] = room.ID
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) UpdateRoom(ctx context.Context, room *model.RoomState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[id]; ok {
		delete(s.codeIndex, room.Code)
	}
	delete(s.rooms, id)
	return nil
}

func (s *Storage) RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codeIndex[code]
	return ok, nil
}

func (s *Storage) ListAllRooms(ctx context.Context) ([]*model.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.RoomState, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Clone())
	}
	return rooms, nil
}

func (s *Storage) ListPublicOpenRooms(ctx context.Context) ([]*model.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rooms []*model.RoomState
	for _, room := range s.rooms {
		if room.Settings.IsPublic && room.Phase == model.PhaseLobby {
			rooms = append(rooms, room.Clone())
		}
	}
	return rooms, nil
}

// Matchmaking queue operations

func (s *Storage) Enqueue(ctx context.Context, player model.MatchmakingPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, player)
	return nil
}

func (s *Storage) DequeueFront(ctx context.Context, n int) ([]model.MatchmakingPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.queue) {
		n = len(s.queue)
	}
	front := make([]model.MatchmakingPlayer, n)
	copy(front, s.queue[:n])
	s.queue = s.queue[n:]
	return front, nil
}

func (s *Storage) RemoveFromQueue(ctx context.Context, userID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.queue {
		if p.UserID == userID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return nil
		}
	}
	return model.ErrNotInQueue
}

func (s *Storage) ListQueue(ctx context.Context) ([]model.MatchmakingPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queue := make([]model.MatchmakingPlayer, len(s.queue))
	copy(queue, s.queue)
	return queue, nil
}
