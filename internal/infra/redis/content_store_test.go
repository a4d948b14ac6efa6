package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-room-service/internal/domain"
)

type countingLoader struct {
	quizzes map[string]domain.Quiz
	calls   int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	quiz, ok := l.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func TestContentStoreCachesInRedis(t *testing.T) {
	mr, client := newTestClient(t)
	loader := &countingLoader{quizzes: map[string]domain.Quiz{
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
					},
				},
			},
		},
	}}
	store := NewContentStore(client, loader, time.Minute)

	quiz, err := store.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].Answers[0].Points != 5 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if !mr.Exists("quiz:content:quiz-1") {
		t.Fatalf("expected cached quiz in redis")
	}

	if _, err := store.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestContentStoreMissPropagates(t *testing.T) {
	_, client := newTestClient(t)
	store := NewContentStore(client, &countingLoader{}, time.Minute)

	if _, err := store.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
