package app_test

import (
	"context"
	"errors"
	"testing"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
)

type fixture struct {
	service *app.RoomService
	scores  *memory.ScoreStore
}

func newFixture() *fixture {
	scores := memory.NewScoreStore()
	content := memory.NewContentStore(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:    "q1",
					Order: 1,
					Text:  "first",
					Type:  domain.SingleChoice,
					Answers: []domain.Answer{
						{ID: "a1", Correct: true, Points: 5},
						{ID: "a2", Correct: false},
					},
				},
				{
					ID:    "q2",
					Order: 2,
					Text:  "second",
					Type:  domain.SingleChoice,
					Answers: []domain.Answer{
						{ID: "a3", Correct: true, Points: 5},
						{ID: "a4", Correct: false},
					},
				},
			},
		},
	}), 0)
	service := app.NewRoomService(memory.NewRoomRegistry(), content, scores, app.NewHub(), 5)
	return &fixture{service: service, scores: scores}
}

func nextEvent(t *testing.T, sub *app.Subscriber) app.Event {
	t.Helper()
	select {
	case e := <-sub.Events():
		return e
	default:
		t.Fatalf("expected a buffered event")
		return app.Event{}
	}
}

func noEvent(t *testing.T, sub *app.Subscriber) {
	t.Helper()
	select {
	case e := <-sub.Events():
		t.Fatalf("expected no event, got %+v", e)
	default:
	}
}

func TestFullGameFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if err := f.service.CreateRoom(ctx, "r1", "quiz-1", "alice"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	subA, cancelA, err := f.service.Subscribe("r1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancelA()
	subB, cancelB, err := f.service.Subscribe("r1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancelB()

	if _, err := f.service.Join(ctx, "r1", "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.service.Join(ctx, "r1", "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := f.service.Start(ctx, "r1", "bob"); !errors.Is(err, domain.ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	noEvent(t, subA)

	if err := f.service.Start(ctx, "r1", "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, sub := range []*app.Subscriber{subA, subB} {
		e := nextEvent(t, sub)
		if e.Type != app.EventShowQuestion || e.Question.ID != "q1" {
			t.Fatalf("expected show_question q1, got %+v", e)
		}
	}

	if err := f.service.Start(ctx, "r1", "alice"); !errors.Is(err, domain.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}

	if _, err := f.service.SubmitAnswer(ctx, "r1", "alice", []string{"a1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	noEvent(t, subA) // barrier not satisfied yet
	if _, err := f.service.SubmitAnswer(ctx, "r1", "bob", []string{"a1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	for _, sub := range []*app.Subscriber{subA, subB} {
		e := nextEvent(t, sub)
		if e.Type != app.EventShowQuestion || e.Question.ID != "q2" {
			t.Fatalf("expected show_question q2 exactly once, got %+v", e)
		}
		noEvent(t, sub)
	}

	if _, err := f.service.SubmitAnswer(ctx, "r1", "alice", []string{"a4"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.service.SubmitAnswer(ctx, "r1", "bob", []string{"a4"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	for _, sub := range []*app.Subscriber{subA, subB} {
		e := nextEvent(t, sub)
		if e.Type != app.EventShowResults {
			t.Fatalf("expected show_results, got %+v", e)
		}
		if len(e.Results) != 2 || e.Results[0].Score != 5 || e.Results[1].Score != 5 {
			t.Fatalf("expected a 5-5 tie, got %+v", e.Results)
		}
		if e.Results[0].Player != "alice" || e.Results[1].Player != "bob" {
			t.Fatalf("tie must break by join order, got %+v", e.Results)
		}
	}

	if f.scores.Total("alice") != 5 || f.scores.Total("bob") != 5 {
		t.Fatalf("expected flushed totals of 5, got alice=%d bob=%d",
			f.scores.Total("alice"), f.scores.Total("bob"))
	}
	rec, ok, err := f.scores.LoadAttempt(ctx, "alice", "quiz-1")
	if err != nil || !ok {
		t.Fatalf("expected saved attempt, ok=%v err=%v", ok, err)
	}
	if !rec.Finished || rec.Score != 5 {
		t.Fatalf("expected finished attempt with 5 points, got %+v", rec)
	}
}

func TestCreateRoomValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if err := f.service.CreateRoom(ctx, "r1", "quiz-missing", "alice"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if err := f.service.CreateRoom(ctx, "r1", "quiz-1", "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.service.CreateRoom(ctx, "r1", "quiz-1", "bob"); !errors.Is(err, domain.ErrRoomExists) {
		t.Fatalf("expected ErrRoomExists, got %v", err)
	}
}

func TestTeardownFreesRoomCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if err := f.service.CreateRoom(ctx, "r1", "quiz-1", "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Join(ctx, "r1", "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	f.service.Leave(ctx, "r1", "alice")

	if _, err := f.service.Room("r1"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound after teardown, got %v", err)
	}
	// The code is reusable once the previous room is gone.
	if err := f.service.CreateRoom(ctx, "r1", "quiz-1", "bob"); err != nil {
		t.Fatalf("expected code reuse after teardown, got %v", err)
	}
}

func TestLeaveAdvancesStalledRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if err := f.service.CreateRoom(ctx, "r1", "quiz-1", "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}
	sub, cancel, err := f.service.Subscribe("r1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if _, err := f.service.Join(ctx, "r1", "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.service.Join(ctx, "r1", "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.service.Start(ctx, "r1", "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	nextEvent(t, sub) // q1

	if _, err := f.service.SubmitAnswer(ctx, "r1", "alice", []string{"a1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	noEvent(t, sub)

	// Bob disconnects without answering; the barrier must re-fire on leave.
	f.service.Leave(ctx, "r1", "bob")
	e := nextEvent(t, sub)
	if e.Type != app.EventShowQuestion || e.Question.ID != "q2" {
		t.Fatalf("expected q2 after the stalling player left, got %+v", e)
	}
}

func TestDroppedPlayerResumesScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if err := f.service.CreateRoom(ctx, "r1", "quiz-1", "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Join(ctx, "r1", "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.service.Join(ctx, "r1", "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.service.Start(ctx, "r1", "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := f.service.SubmitAnswer(ctx, "r1", "alice", []string{"a1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Alice drops mid-quiz; her partial attempt is persisted.
	f.service.Leave(ctx, "r1", "alice")
	rec, ok, err := f.scores.LoadAttempt(ctx, "alice", "quiz-1")
	if err != nil || !ok || rec.Finished || rec.Score != 5 {
		t.Fatalf("expected partial 5-point attempt, ok=%v err=%v rec=%+v", ok, err, rec)
	}

	// On reconnect she catches up on the current question with her score intact.
	joined, err := f.service.Join(ctx, "r1", "alice")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if joined.Catchup == nil || joined.Catchup.ID != "q1" {
		t.Fatalf("expected catch-up on q1, got %+v", joined.Catchup)
	}

	if _, err := f.service.SubmitAnswer(ctx, "r1", "bob", []string{"a2"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.service.SubmitAnswer(ctx, "r1", "alice", []string{"a4"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.service.SubmitAnswer(ctx, "r1", "bob", []string{"a4"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if f.scores.Total("alice") != 5 {
		t.Fatalf("expected alice to finish with her pre-drop 5 points, got %d", f.scores.Total("alice"))
	}
	if f.scores.Total("bob") != 0 {
		t.Fatalf("expected bob to finish with 0, got %d", f.scores.Total("bob"))
	}
}
