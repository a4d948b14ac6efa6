package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-room-service/internal/domain"
)

// ScoreStore keeps permanent player totals in a Redis sorted set, so rank
// lookups are a ZREVRANK away, plus a per-day sorted set for daily tallies.
// Attempt records are stored as JSON values keyed by player and quiz.
type ScoreStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration // attempt record TTL; 0 keeps them forever
	clock  func() time.Time
}

func NewScoreStore(client *redis.Client, prefix string, ttl time.Duration) *ScoreStore {
	return &ScoreStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		clock:  time.Now,
	}
}

func (s *ScoreStore) LoadAttempt(ctx context.Context, player, quizID string) (domain.AttemptRecord, bool, error) {
	data, err := s.client.Get(ctx, s.attemptKey(player, quizID)).Bytes()
	if err == redis.Nil {
		return domain.AttemptRecord{}, false, nil
	}
	if err != nil {
		return domain.AttemptRecord{}, false, fmt.Errorf("load attempt: %w", err)
	}
	var rec domain.AttemptRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.AttemptRecord{}, false, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return rec, true, nil
}

func (s *ScoreStore) SaveAttempt(ctx context.Context, rec domain.AttemptRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.client.Set(ctx, s.attemptKey(rec.PlayerID, rec.QuizID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (s *ScoreStore) AddPermanentScore(ctx context.Context, player string, delta int) (domain.PlayerStanding, error) {
	total, err := s.client.ZIncrBy(ctx, s.totalsKey(), float64(delta), player).Result()
	if err != nil {
		return domain.PlayerStanding{}, fmt.Errorf("add permanent score: %w", err)
	}

	day := s.clock().UTC().Format("2006-01-02")
	if err := s.client.ZIncrBy(ctx, s.dailyKey(day), float64(delta), player).Err(); err != nil {
		return domain.PlayerStanding{}, fmt.Errorf("add daily score: %w", err)
	}

	rank, err := s.client.ZRevRank(ctx, s.totalsKey(), player).Result()
	if err != nil {
		return domain.PlayerStanding{}, fmt.Errorf("rank: %w", err)
	}

	score := int(total)
	return domain.PlayerStanding{
		Player: player,
		Score:  score,
		Rank:   int(rank) + 1,
		Level:  domain.LevelForScore(score),
	}, nil
}

// Standings returns the top n players by permanent score.
func (s *ScoreStore) Standings(ctx context.Context, n int64) ([]domain.PlayerStanding, error) {
	res, err := s.client.ZRevRangeWithScores(ctx, s.totalsKey(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	standings := make([]domain.PlayerStanding, 0, len(res))
	for i, z := range res {
		score := int(z.Score)
		standings = append(standings, domain.PlayerStanding{
			Player: z.Member.(string),
			Score:  score,
			Rank:   i + 1,
			Level:  domain.LevelForScore(score),
		})
	}
	return standings, nil
}

func (s *ScoreStore) totalsKey() string {
	return s.prefix + ":players:totals"
}

func (s *ScoreStore) dailyKey(day string) string {
	return s.prefix + ":players:points:" + day
}

func (s *ScoreStore) attemptKey(player, quizID string) string {
	return s.prefix + ":attempt:" + player + ":" + quizID
}
