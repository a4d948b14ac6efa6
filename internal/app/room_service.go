package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"quiz-room-service/internal/domain"
)

// RoomRegistry abstracts how rooms are stored (in-memory, Redis-backed).
// Codes are unique among active rooms only; a torn-down code may be reused.
type RoomRegistry interface {
	Create(roomCode string, room *Room) error
	Get(roomCode string) (*Room, bool)
	Remove(roomCode string)
}

// ContentStore provides read-only quiz content.
type ContentStore interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ScoreStore is the durable side of scoring: attempt history and the
// permanent per-player total the leaderboard rank derives from.
type ScoreStore interface {
	LoadAttempt(ctx context.Context, player, quizID string) (domain.AttemptRecord, bool, error)
	SaveAttempt(ctx context.Context, rec domain.AttemptRecord) error
	AddPermanentScore(ctx context.Context, player string, delta int) (domain.PlayerStanding, error)
}

// RoomService wires the room state machine to content, scores and the hub.
type RoomService struct {
	registry   RoomRegistry
	content    ContentStore
	scores     ScoreStore
	hub        *Hub
	maxPlayers int
}

func NewRoomService(registry RoomRegistry, content ContentStore, scores ScoreStore, hub *Hub, maxPlayers int) *RoomService {
	return &RoomService{
		registry:   registry,
		content:    content,
		scores:     scores,
		hub:        hub,
		maxPlayers: maxPlayers,
	}
}

// CreateRoom registers a new room under the caller-supplied code. The quiz
// must exist; the code must not collide with an active room.
func (s *RoomService) CreateRoom(ctx context.Context, roomCode, quizID, creator string) error {
	if _, err := s.content.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	return s.registry.Create(roomCode, NewRoom(roomCode, quizID, creator, s.maxPlayers))
}

// Room resolves an active room by code.
func (s *RoomService) Room(roomCode string) (*Room, error) {
	room, ok := s.registry.Get(roomCode)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// JoinInfo tells the connection what to show first: the lobby confirmation, or
// the current question when joining a running game.
type JoinInfo struct {
	RoomCode string
	Catchup  *domain.Question
}

// Join adds the player to the room. A partial attempt persisted on an earlier
// drop is restored so a reconnecting player keeps their score.
func (s *RoomService) Join(ctx context.Context, roomCode, player string) (*JoinInfo, error) {
	room, err := s.Room(roomCode)
	if err != nil {
		return nil, err
	}

	var seed *domain.AttemptRecord
	if rec, ok, err := s.scores.LoadAttempt(ctx, player, room.QuizID()); err != nil {
		log.Warn().Err(err).Str("module", "app.service").Str("player", player).Msg("load attempt failed")
	} else if ok {
		seed = &rec
	}

	catchup, err := room.Join(player, seed)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.service").Str("room", roomCode).Str("player", player).Msg("player joined")
	return &JoinInfo{RoomCode: roomCode, Catchup: catchup}, nil
}

// Start begins the game and broadcasts the first question to the room.
func (s *RoomService) Start(ctx context.Context, roomCode, player string) error {
	room, err := s.Room(roomCode)
	if err != nil {
		return err
	}
	quiz, err := s.content.GetQuiz(ctx, room.QuizID())
	if err != nil {
		return err
	}

	first, err := room.Start(player, quiz)
	if err != nil {
		return err
	}
	log.Info().Str("module", "app.service").Str("room", roomCode).Str("question", first.ID).Msg("game started")
	s.hub.SendToRoom(roomCode, Event{
		Type:     EventShowQuestion,
		RoomCode: roomCode,
		Question: &first,
	})
	return nil
}

// SubmitAnswer records a player's answers and, when the barrier fires,
// broadcasts the next question or the final results.
func (s *RoomService) SubmitAnswer(ctx context.Context, roomCode, player string, answerIDs []string) (*SubmitOutcome, error) {
	room, err := s.Room(roomCode)
	if err != nil {
		return nil, err
	}
	quiz, err := s.content.GetQuiz(ctx, room.QuizID())
	if err != nil {
		return nil, err
	}

	outcome, err := room.SubmitAnswer(player, quiz, answerIDs)
	if err != nil {
		return nil, err
	}
	if outcome.Advance != nil {
		s.applyAdvance(ctx, roomCode, outcome.Advance)
	}
	return outcome, nil
}

// Leave removes the player, persists a partial attempt on a mid-quiz drop,
// re-broadcasts any barrier-triggered advance, and tears the room down when it
// empties. Best-effort: a departing connection has nobody to report errors to.
func (s *RoomService) Leave(ctx context.Context, roomCode, player string) {
	room, ok := s.registry.Get(roomCode)
	if !ok {
		return
	}

	// Content is only needed when the barrier fires; a failed load degrades
	// to leaving without the advance re-check.
	var quiz *domain.Quiz
	if q, err := s.content.GetQuiz(ctx, room.QuizID()); err != nil {
		log.Warn().Err(err).Str("module", "app.service").Str("room", roomCode).Msg("load quiz on leave failed")
	} else {
		quiz = &q
	}

	out := room.Leave(player, quiz)
	if out.Departed != nil {
		if err := s.scores.SaveAttempt(ctx, *out.Departed); err != nil {
			log.Warn().Err(err).Str("module", "app.service").Str("player", player).Msg("save partial attempt failed")
		}
	}
	if out.Empty {
		s.registry.Remove(roomCode)
		log.Info().Str("module", "app.service").Str("room", roomCode).Msg("room torn down")
		return
	}
	if out.Advance != nil {
		s.applyAdvance(ctx, roomCode, out.Advance)
	}
}

// applyAdvance broadcasts a fired barrier's outcome and flushes finished
// attempts into the permanent score store. Store failures are logged, never
// propagated: a flaky score backend must not crash the room.
func (s *RoomService) applyAdvance(ctx context.Context, roomCode string, adv *Advance) {
	if adv.Next != nil {
		s.hub.SendToRoom(roomCode, Event{
			Type:     EventShowQuestion,
			RoomCode: roomCode,
			Question: adv.Next,
		})
		return
	}

	s.hub.SendToRoom(roomCode, Event{
		Type:     EventShowResults,
		RoomCode: roomCode,
		Results:  adv.Leaderboard,
	})

	for _, flush := range adv.Flush {
		if err := s.scores.SaveAttempt(ctx, flush.Record); err != nil {
			log.Warn().Err(err).Str("module", "app.service").Str("player", flush.Player).Msg("save attempt failed")
		}
		standing, err := s.scores.AddPermanentScore(ctx, flush.Player, flush.Delta)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.service").Str("player", flush.Player).Msg("flush score failed")
			continue
		}
		log.Info().Str("module", "app.service").Str("player", flush.Player).
			Int("delta", flush.Delta).Int("total", standing.Score).Str("level", standing.Level).
			Msg("attempt flushed")
	}
}

// Subscribe attaches a connection to the room's broadcast stream. The caller
// must invoke the returned cancel function to avoid leaks.
func (s *RoomService) Subscribe(roomCode string) (*Subscriber, func(), error) {
	if _, ok := s.registry.Get(roomCode); !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	sub := s.hub.JoinRoom(roomCode)
	cancel := func() { s.hub.LeaveRoom(roomCode, sub) }
	return sub, cancel, nil
}

// Unicast sends an event to a single subscriber of the room.
func (s *RoomService) Unicast(roomCode string, sub *Subscriber, e Event) {
	s.hub.SendToSubscriber(roomCode, sub, e)
}
