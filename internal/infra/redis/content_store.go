package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-room-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ContentStore caches whole quizzes as JSON in Redis and falls back to a
// loader on cache miss. The full document is cached (not just answers),
// because the room broadcasts question text and order to every player.
type ContentStore struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentStore(client *redis.Client, loader QuizLoader, ttl time.Duration) *ContentStore {
	return &ContentStore{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *ContentStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := s.key(quizID)

	if quiz, ok := s.fromCache(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := s.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if quiz, ok := s.fromCache(ctx, key); ok {
			return quiz, nil
		}

		quiz, err := s.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		if data, err := json.Marshal(quiz); err == nil {
			_ = s.client.Set(ctx, key, data, s.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (s *ContentStore) fromCache(ctx context.Context, key string) (domain.Quiz, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (s *ContentStore) key(quizID string) string {
	return "quiz:content:" + quizID
}

func (s *ContentStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
