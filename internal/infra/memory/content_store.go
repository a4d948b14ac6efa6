package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-room-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ContentStore caches quizzes with TTL so every submit in a room does not hit
// the backing store again.
type ContentStore struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewContentStore(loader QuizLoader, ttl time.Duration) *ContentStore {
	return &ContentStore{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (s *ContentStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	now := s.clock()

	s.mu.RLock()
	if entry, ok := s.cache[quizID]; ok && entry.expiresAt.After(now) {
		s.mu.RUnlock()
		return entry.quiz, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(quizID, func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if entry, ok := s.cache[quizID]; ok && entry.expiresAt.After(now) {
			s.mu.RUnlock()
			return entry.quiz, nil
		}
		s.mu.RUnlock()

		quiz, err := s.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		s.mu.Lock()
		s.cache[quizID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: now.Add(s.ttlWithJitter()),
		}
		s.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (s *ContentStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a loader backed by an in-memory map (tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
