package memory

import (
	"sync"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

// RoomRegistry is an in-memory implementation of app.RoomRegistry. Lookups
// across different rooms only contend on the outer RWMutex; all game state
// serialization happens inside the Room itself.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*app.Room)}
}

func (r *RoomRegistry) Create(roomCode string, room *app.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomCode]; ok {
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
}
