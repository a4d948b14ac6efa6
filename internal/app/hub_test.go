package app

import (
	"testing"

	"quiz-room-service/internal/domain"
)

func TestHubFansOutToRoomMembers(t *testing.T) {
	hub := NewHub()
	sub1 := hub.JoinRoom("room-1")
	sub2 := hub.JoinRoom("room-1")
	other := hub.JoinRoom("room-2")

	hub.SendToRoom("room-1", Event{Type: EventStartGame, RoomCode: "room-1"})

	for _, sub := range []*Subscriber{sub1, sub2} {
		select {
		case e := <-sub.Events():
			if e.Type != EventStartGame {
				t.Fatalf("expected start_game, got %s", e.Type)
			}
		default:
			t.Fatalf("expected event delivered to room member")
		}
	}
	select {
	case e := <-other.Events():
		t.Fatalf("room-2 subscriber must not receive room-1 events, got %+v", e)
	default:
	}
}

func TestHubUnicast(t *testing.T) {
	hub := NewHub()
	sub1 := hub.JoinRoom("room-1")
	sub2 := hub.JoinRoom("room-1")

	q := domain.Question{ID: "q1"}
	hub.SendToSubscriber("room-1", sub1, Event{Type: EventShowQuestion, Question: &q})

	select {
	case e := <-sub1.Events():
		if e.Question == nil || e.Question.ID != "q1" {
			t.Fatalf("expected q1 unicast, got %+v", e)
		}
	default:
		t.Fatalf("expected unicast delivery")
	}
	select {
	case <-sub2.Events():
		t.Fatalf("unicast must not reach other subscribers")
	default:
	}
}

func TestHubLeaveClosesChannel(t *testing.T) {
	hub := NewHub()
	sub := hub.JoinRoom("room-1")
	hub.LeaveRoom("room-1", sub)

	if _, ok := <-sub.Events(); ok {
		t.Fatalf("expected closed channel after leave")
	}
	// Double leave and sends to a departed subscriber are no-ops.
	hub.LeaveRoom("room-1", sub)
	hub.SendToRoom("room-1", Event{Type: EventStartGame})
}

func TestHubDropsOldestWhenSlow(t *testing.T) {
	hub := NewHub()
	sub := hub.JoinRoom("room-1")

	for i := 0; i <= subscriberBuffer; i++ {
		hub.SendToRoom("room-1", Event{Type: EventShowQuestion, Question: &domain.Question{Order: i}})
	}

	e := <-sub.Events()
	if e.Question.Order != 1 {
		t.Fatalf("expected the oldest event dropped, first delivered order=%d", e.Question.Order)
	}
}
