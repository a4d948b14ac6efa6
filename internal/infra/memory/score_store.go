package memory

import (
	"context"
	"sync"

	"quiz-room-service/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreStore. Rank is the
// 1-based position among all known totals, ordered descending.
type ScoreStore struct {
	mu       sync.RWMutex
	totals   map[string]int
	attempts map[string]domain.AttemptRecord // player + "\x00" + quiz
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		totals:   make(map[string]int),
		attempts: make(map[string]domain.AttemptRecord),
	}
}

func (s *ScoreStore) LoadAttempt(_ context.Context, player, quizID string) (domain.AttemptRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.attempts[attemptKey(player, quizID)]
	return rec, ok, nil
}

func (s *ScoreStore) SaveAttempt(_ context.Context, rec domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attemptKey(rec.PlayerID, rec.QuizID)] = rec
	return nil
}

func (s *ScoreStore) AddPermanentScore(_ context.Context, player string, delta int) (domain.PlayerStanding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals[player] += delta
	total := s.totals[player]

	rank := 1
	for other, score := range s.totals {
		if other != player && score > total {
			rank++
		}
	}
	return domain.PlayerStanding{
		Player: player,
		Score:  total,
		Rank:   rank,
		Level:  domain.LevelForScore(total),
	}, nil
}

// Total returns a player's permanent score, for tests and diagnostics.
func (s *ScoreStore) Total(player string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[player]
}

func attemptKey(player, quizID string) string {
	return player + "\x00" + quizID
}
