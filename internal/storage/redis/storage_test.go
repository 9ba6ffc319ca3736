package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mkarlin/mafiagame-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.RoomTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newRoom(id model.RoomID, code model.RoomCode) *model.RoomState {
	return &model.RoomState{
		ID:    id,
		Code:  code,
		Phase: model.PhaseLobby,
		Players: map[model.PlayerID]*model.Player{
			"host-1": {ID: "host-1", Username: "Alice", IsHost: true, IsAlive: true, Connected: true},
		},
		Votes:    make(map[model.PlayerID]model.PlayerID),
		Settings: model.DefaultRoomSettings(),
	}
}

// Room tests

func (s *StorageSuite) TestCreateAndGetRoom() {
	room := s.newRoom("room-1", "ABCDE")

	err := s.storage.CreateRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(room.ID, retrieved.ID)
	s.Equal(room.Code, retrieved.Code)
	s.Require().Contains(retrieved.Players, model.PlayerID("host-1"))
	s.True(retrieved.Players["host-1"].IsHost)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestGetRoomByCode() {
	room := s.newRoom("room-1", "ABCDE")
	_ = s.storage.CreateRoom(s.ctx, room)

	retrieved, err := s.storage.GetRoomByCode(s.ctx, "ABCDE")
	s.Require().NoError(err)
	s.Equal(model.RoomID("room-1"), retrieved.ID)
}

func (s *StorageSuite) TestUpdateRoomOverwritesSnapshot() {
	room := s.newRoom("room-1", "ABCDE")
	_ = s.storage.CreateRoom(s.ctx, room)

	room.Phase = model.PhaseVoting
	room.Votes["host-1"] = "host-1"
	err := s.storage.UpdateRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.PhaseVoting, retrieved.Phase)
	s.Equal(model.PlayerID("host-1"), retrieved.Votes["host-1"])
}

func (s *StorageSuite) TestDeleteRoomRemovesCodeIndex() {
	room := s.newRoom("room-1", "ABCDE")
	_ = s.storage.CreateRoom(s.ctx, room)

	err := s.storage.DeleteRoom(s.ctx, "room-1")
	s.Require().NoError(err)

	_, err = s.storage.GetRoom(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.storage.GetRoomByCode(s.ctx, "ABCDE")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestDeleteRoomMissingIsNoop() {
	err := s.storage.DeleteRoom(s.ctx, "nonexistent")
	s.NoError(err)
}

func (s *StorageSuite) TestRoomCodeExists() {
	room := s.newRoom("room-1", "ABCDE")
	_ = s.storage.CreateRoom(s.ctx, room)

	exists, err := s.storage.RoomCodeExists(s.ctx, "ABCDE")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.RoomCodeExists(s.ctx, "ZZZZZ")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestRoomTTLApplied() {
	room := s.newRoom("room-1", "ABCDE")
	_ = s.storage.CreateRoom(s.ctx, room)

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetRoom(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestListAllRoomsSkipsExpired() {
	_ = s.storage.CreateRoom(s.ctx, s.newRoom("room-1", "AAAAA"))
	_ = s.storage.CreateRoom(s.ctx, s.newRoom("room-2", "BBBBB"))

	// Expire one snapshot directly, leaving its index entry dangling
	s.mini.Del(roomKey("room-2"))

	rooms, err := s.storage.ListAllRooms(s.ctx)
	s.Require().NoError(err)
	s.Len(rooms, 1)
	s.Equal(model.RoomID("room-1"), rooms[0].ID)
}

func (s *StorageSuite) TestListPublicOpenRooms() {
	public := s.newRoom("room-1", "AAAAA")
	public.Settings.IsPublic = true
	_ = s.storage.CreateRoom(s.ctx, public)

	private := s.newRoom("room-2", "BBBBB")
	_ = s.storage.CreateRoom(s.ctx, private)

	rooms, err := s.storage.ListPublicOpenRooms(s.ctx)
	s.Require().NoError(err)
	s.Len(rooms, 1)
	s.Equal(model.RoomID("room-1"), rooms[0].ID)
}

// Matchmaking queue tests

func (s *StorageSuite) TestQueueFIFORoundTrip() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []model.PlayerID{"p1", "p2", "p3"} {
		err := s.storage.Enqueue(s.ctx, model.MatchmakingPlayer{
			UserID:   id,
			Username: string(id),
			JoinedAt: now,
		})
		s.Require().NoError(err)
	}

	front, err := s.storage.DequeueFront(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(front, 2)
	s.Equal(model.PlayerID("p1"), front[0].UserID)
	s.Equal(model.PlayerID("p2"), front[1].UserID)

	remaining, err := s.storage.ListQueue(s.ctx)
	s.Require().NoError(err)
	s.Len(remaining, 1)
	s.Equal(model.PlayerID("p3"), remaining[0].UserID)
}

func (s *StorageSuite) TestDequeueFromEmptyQueue() {
	front, err := s.storage.DequeueFront(s.ctx, 5)
	s.Require().NoError(err)
	s.Empty(front)
}

func (s *StorageSuite) TestRemoveFromQueue() {
	now := time.Now().UTC()
	for _, id := range []model.PlayerID{"p1", "p2"} {
		_ = s.storage.Enqueue(s.ctx, model.MatchmakingPlayer{UserID: id, JoinedAt: now})
	}

	err := s.storage.RemoveFromQueue(s.ctx, "p1")
	s.Require().NoError(err)

	queue, err := s.storage.ListQueue(s.ctx)
	s.Require().NoError(err)
	s.Len(queue, 1)
	s.Equal(model.PlayerID("p2"), queue[0].UserID)
}

func (s *StorageSuite) TestRemoveFromQueueNotQueued() {
	err := s.storage.RemoveFromQueue(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrNotInQueue)
}
