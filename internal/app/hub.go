package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"quiz-room-service/internal/domain"
)

// EventType enumerates the messages the state machine fans out to a room.
type EventType string

const (
	EventStartGame    EventType = "start_game"
	EventShowQuestion EventType = "show_question"
	EventShowResults  EventType = "show_results"
)

// Event is one broadcast or unicast message. Question is set for
// show_question, Results for show_results.
type Event struct {
	Type     EventType
	RoomCode string
	Question *domain.Question
	Results  []domain.LeaderboardEntry
}

const subscriberBuffer = 16

// Subscriber is one connection's view of a room's event stream.
type Subscriber struct {
	id string
	ch chan Event
}

// ID identifies the subscriber for logging.
func (s *Subscriber) ID() string { return s.id }

// Events returns the channel delivering room events to this connection.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Hub maps room codes to the connections currently joined to them. It is a
// pure fan-out mechanism and holds no game state. Delivery is at-most-once:
// when a subscriber's buffer is full the oldest pending event is dropped.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscriber]struct{})}
}

// JoinRoom registers a new subscriber for the room and returns it.
func (h *Hub) JoinRoom(roomCode string) *Subscriber {
	sub := &Subscriber{
		id: uuid.NewString(),
		ch: make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[*Subscriber]struct{})
	}
	h.rooms[roomCode][sub] = struct{}{}
	log.Debug().Str("module", "app.hub").Str("room", roomCode).Str("sub", sub.id).
		Int("total", len(h.rooms[roomCode])).Msg("subscriber joined")
	return sub
}

// LeaveRoom removes the subscriber and closes its channel. A room with no
// subscribers left is dropped from the map.
func (h *Hub) LeaveRoom(roomCode string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(h.rooms, roomCode)
	}
	log.Debug().Str("module", "app.hub").Str("room", roomCode).Str("sub", sub.id).Msg("subscriber left")
}

// SendToRoom delivers the event to every subscriber currently joined to the
// room at call time.
func (h *Hub) SendToRoom(roomCode string, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[roomCode] {
		deliver(sub.ch, e)
	}
}

// SendToSubscriber delivers the event to a single connection, e.g. the lobby
// confirmation or a late-join catch-up question.
func (h *Hub) SendToSubscriber(roomCode string, sub *Subscriber, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	deliver(sub.ch, e)
}

// deliver pushes the event, evicting the oldest buffered one when the
// subscriber is too slow to keep up.
func deliver(ch chan Event, e Event) {
	select {
	case ch <- e:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- e
	}
}
