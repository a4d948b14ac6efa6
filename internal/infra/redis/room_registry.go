package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

// RoomRegistry is a Redis-aware implementation of app.RoomRegistry.
// Notes:
//   - Rooms themselves stay in a local in-memory map, because the hub fan-out
//     and the per-room mutex are in-process.
//   - Redis keeps a liveness key per active room, so other instances (and the
//     create path) can see which codes are taken.
//   - For true distribution this would pair with a pub/sub projector that
//     routes broadcasts across instances.
type RoomRegistry struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomRegistry(client *redis.Client, ttl time.Duration) *RoomRegistry {
	return &RoomRegistry{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

func (r *RoomRegistry) Create(roomCode string, room *app.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomCode]; ok {
		return domain.ErrRoomExists
	}

	ok, err := r.client.SetNX(context.Background(), r.key(roomCode), room.QuizID(), r.ttl).Result()
	if err == nil && !ok {
		return domain.ErrRoomExists
	}
	r.rooms[roomCode] = room
	return nil
}

func (r *RoomRegistry) Get(roomCode string) (*app.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomCode]
	return room, ok
}

func (r *RoomRegistry) Remove(roomCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomCode)
	_ = r.client.Del(context.Background(), r.key(roomCode)).Err()
}

func (r *RoomRegistry) key(roomCode string) string {
	return "quiz:room:" + roomCode
}
