package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkarlin/mafiagame-go/internal/model"
	"github.com/mkarlin/mafiagame-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.RoomState) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	// Pipeline the snapshot, the code index, and the live-rooms index
	pipe := s.client.Pipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.Set(ctx, roomCodeKey(room.Code), string(room.ID), s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomsIndexKey(), string(room.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.RoomState, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.RoomState
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.RoomState, error) {
	roomIDStr, err := s.client.Get(ctx, roomCodeKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	return s.GetRoom(ctx, model.RoomID(roomIDStr))
}

func (s *Storage) UpdateRoom(ctx context.Context, room *model.RoomState) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	// Refresh TTL on both the snapshot and the code index on every write
	pipe := s.client.Pipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.Expire(ctx, roomCodeKey(room.Code), s.cfg.RoomTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.Del(ctx, roomCodeKey(room.Code))
	pipe.SRem(ctx, roomsIndexKey(), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error) {
	n, err := s.client.Exists(ctx, roomCodeKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) ListAllRooms(ctx context.Context) ([]*model.RoomState, error) {
	ids, err := s.client.SMembers(ctx, roomsIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	var rooms []*model.RoomState
	for _, id := range ids {
		room, err := s.GetRoom(ctx, model.RoomID(id))
		if err != nil {
			if errors.Is(err, model.ErrRoomNotFound) {
				// Snapshot expired out from under the index; drop the entry
				_ = s.client.SRem(ctx, roomsIndexKey(), id).Err()
				continue
			}
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *Storage) ListPublicOpenRooms(ctx context.Context) ([]*model.RoomState, error) {
	all, err := s.ListAllRooms(ctx)
	if err != nil {
		return nil, err
	}

	var rooms []*model.RoomState
	for _, room := range all {
		if room.Settings.IsPublic && room.Phase == model.PhaseLobby {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

// Matchmaking queue operations

func (s *Storage) Enqueue(ctx context.Context, player model.MatchmakingPlayer) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, queueKey(), data).Err()
}

func (s *Storage) DequeueFront(ctx context.Context, n int) ([]model.MatchmakingPlayer, error) {
	if n <= 0 {
		return nil, nil
	}

	items, err := s.client.LPopCount(ctx, queueKey(), n).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	players := make([]model.MatchmakingPlayer, 0, len(items))
	for _, item := range items {
		var p model.MatchmakingPlayer
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

func (s *Storage) RemoveFromQueue(ctx context.Context, userID model.PlayerID) error {
	items, err := s.client.LRange(ctx, queueKey(), 0, -1).Result()
	if err != nil {
		return err
	}

	for _, item := range items {
		var p model.MatchmakingPlayer
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			continue
		}
		if p.UserID == userID {
			return s.client.LRem(ctx, queueKey(), 1, item).Err()
		}
	}
	return model.ErrNotInQueue
}

func (s *Storage) ListQueue(ctx context.Context) ([]model.MatchmakingPlayer, error) {
	items, err := s.client.LRange(ctx, queueKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	players := make([]model.MatchmakingPlayer, 0, len(items))
	for _, item := range items {
		var p model.MatchmakingPlayer
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}
