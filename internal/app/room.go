package app

import (
	"sort"
	"sync"
	"time"

	"quiz-room-service/internal/domain"
)

// State is the lifecycle phase of a room.
type State string

const (
	StateLobby      State = "lobby"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
	StateTornDown   State = "torn_down"
)

// Room is the per-code session aggregate. A single mutex serializes every
// transition, so the answered barrier and the current question never race
// between players of the same room. Rooms are independent of each other.
type Room struct {
	code       string
	quizID     string
	creator    string
	maxPlayers int
	createdAt  time.Time
	now        func() time.Time

	mu       sync.Mutex
	state    State
	started  bool
	joinSeq  int
	players  map[string]int // player ID -> join order
	attempts map[string]*attempt
	current  *domain.Question
}

// attempt is a player's live scoring record for the duration of the quiz.
type attempt struct {
	score     int
	responses []domain.Response
	answered  map[string]struct{} // question IDs counted toward the barrier
}

// AttemptFlush carries one finished attempt to the permanent score store.
type AttemptFlush struct {
	Player string
	Delta  int
	Record domain.AttemptRecord
}

// Advance is the outcome of a fired answered barrier: either the next
// question, or the final leaderboard with the attempts to flush.
type Advance struct {
	Next        *domain.Question
	Finished    bool
	Leaderboard []domain.LeaderboardEntry
	Flush       []AttemptFlush
}

// SubmitOutcome reports what a recorded submission did to the room.
type SubmitOutcome struct {
	Awarded int
	Total   int
	Advance *Advance
}

// LeaveOutcome reports the side effects of a departure.
type LeaveOutcome struct {
	Empty    bool
	Departed *domain.AttemptRecord // partial attempt to persist, mid-quiz only
	Advance  *Advance              // barrier re-check may fire on leave
}

func NewRoom(code, quizID, creator string, maxPlayers int) *Room {
	return newRoomWithClock(code, quizID, creator, maxPlayers, time.Now)
}

// NewRoomWithClock is test-only for deterministic timestamps.
func NewRoomWithClock(code, quizID, creator string, maxPlayers int, now func() time.Time) *Room {
	return newRoomWithClock(code, quizID, creator, maxPlayers, now)
}

func newRoomWithClock(code, quizID, creator string, maxPlayers int, now func() time.Time) *Room {
	return &Room{
		code:       code,
		quizID:     quizID,
		creator:    creator,
		maxPlayers: maxPlayers,
		createdAt:  now(),
		now:        now,
		state:      StateLobby,
		players:    make(map[string]int),
		attempts:   make(map[string]*attempt),
	}
}

func (r *Room) Code() string    { return r.code }
func (r *Room) QuizID() string  { return r.quizID }
func (r *Room) Creator() string { return r.creator }

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsEmpty reports whether the room has no players.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0
}

// Players returns the joined player IDs in join order.
func (r *Room) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersLocked()
}

func (r *Room) playersLocked() []string {
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return r.players[ids[i]] < r.players[ids[j]] })
	return ids
}

// Join adds the player and creates their attempt. A seed record restores the
// score of a player who dropped and reconnected mid-quiz. The returned
// question is non-nil when the game is already running: the joiner catches up
// on the current question, missed ones are not replayed.
func (r *Room) Join(player string, seed *domain.AttemptRecord) (*domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateFinished:
		return nil, domain.ErrQuizFinished
	case StateTornDown:
		return nil, domain.ErrRoomNotFound
	}

	if _, ok := r.players[player]; !ok {
		if r.maxPlayers > 0 && len(r.players) >= r.maxPlayers {
			return nil, domain.ErrRoomFull
		}
		r.joinSeq++
		r.players[player] = r.joinSeq
	}

	if _, ok := r.attempts[player]; !ok {
		a := &attempt{answered: make(map[string]struct{})}
		if seed != nil && !seed.Finished && seed.QuizID == r.quizID {
			a.score = seed.Score
			a.responses = append(a.responses, seed.Responses...)
			for _, resp := range seed.Responses {
				a.answered[resp.QuestionID] = struct{}{}
			}
		}
		r.attempts[player] = a
	}

	if r.started && r.current != nil {
		q := *r.current
		return &q, nil
	}
	return nil, nil
}

// Start begins the game. Only the creator may start, and only once.
func (r *Room) Start(player string, quiz domain.Quiz) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateFinished || r.state == StateTornDown {
		return domain.Question{}, domain.ErrQuizFinished
	}
	if _, ok := r.players[player]; !ok {
		return domain.Question{}, domain.ErrPlayerNotFound
	}
	if player != r.creator {
		return domain.Question{}, domain.ErrNotCreator
	}
	if r.started {
		return domain.Question{}, domain.ErrAlreadyStarted
	}

	first, ok := quiz.FirstQuestion()
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}

	r.started = true
	r.state = StateInProgress
	r.current = &first
	return first, nil
}

// SubmitAnswer records the player's answers for the current question, scores
// the correct ones, and evaluates the answered barrier. Resubmitting the
// current question is rejected without side effects.
func (r *Room) SubmitAnswer(player string, quiz domain.Quiz, answerIDs []string) (*SubmitOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateFinished || r.state == StateTornDown {
		return nil, domain.ErrQuizFinished
	}
	if r.state != StateInProgress || r.current == nil {
		return nil, domain.ErrNotStarted
	}
	if len(answerIDs) == 0 {
		return nil, domain.ErrNoAnswers
	}
	if _, ok := r.players[player]; !ok {
		return nil, domain.ErrPlayerNotFound
	}
	a := r.attempts[player]
	if a == nil {
		return nil, domain.ErrPlayerNotFound
	}
	if _, done := a.answered[r.current.ID]; done {
		return nil, domain.ErrAlreadyAnswered
	}

	// Validate before mutating: an unknown answer leaves no partial responses.
	answers := make([]domain.Answer, 0, len(answerIDs))
	for _, id := range answerIDs {
		answer, ok := r.current.AnswerByID(id)
		if !ok {
			return nil, domain.ErrAnswerNotFound
		}
		answers = append(answers, answer)
	}

	awarded := 0
	for _, answer := range answers {
		a.responses = append(a.responses, domain.Response{
			QuestionID: r.current.ID,
			AnswerID:   answer.ID,
		})
		if answer.Correct {
			points := answer.Points
			if points == 0 {
				points = 1
			}
			awarded += points
		}
	}
	a.score += awarded
	a.answered[r.current.ID] = struct{}{}

	outcome := &SubmitOutcome{Awarded: awarded, Total: a.score}
	if r.barrierSatisfiedLocked() {
		outcome.Advance = r.advanceLocked(quiz)
	}
	return outcome, nil
}

// Leave removes the player. The answered barrier is re-evaluated afterwards: a
// room that is fully answered only because a non-answering player left must
// still advance. An emptied room is torn down instead. A nil quiz skips the
// barrier re-check (content unavailable).
func (r *Room) Leave(player string, quiz *domain.Quiz) *LeaveOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[player]; !ok {
		return &LeaveOutcome{Empty: len(r.players) == 0 && r.state != StateTornDown}
	}
	delete(r.players, player)

	out := &LeaveOutcome{}
	if a := r.attempts[player]; a != nil {
		if r.state == StateInProgress {
			rec := r.recordLocked(player, a, false)
			out.Departed = &rec
		}
		delete(r.attempts, player)
	}

	if len(r.players) == 0 {
		r.state = StateTornDown
		r.current = nil
		out.Empty = true
		return out
	}

	if quiz != nil && r.state == StateInProgress && r.barrierSatisfiedLocked() {
		out.Advance = r.advanceLocked(*quiz)
	}
	return out
}

// barrierSatisfiedLocked counts distinct current players with at least one
// response for the current question.
func (r *Room) barrierSatisfiedLocked() bool {
	if r.current == nil || len(r.players) == 0 {
		return false
	}
	answered := 0
	for player := range r.players {
		a := r.attempts[player]
		if a == nil {
			continue
		}
		if _, ok := a.answered[r.current.ID]; ok {
			answered++
		}
	}
	return answered == len(r.players)
}

// advanceLocked moves to the next question, or finishes the quiz when none is
// left: leaderboard sorted by score descending (ties by join order), attempts
// handed off for flushing and cleared.
func (r *Room) advanceLocked(quiz domain.Quiz) *Advance {
	next, ok := quiz.NextQuestion(r.current.Order)
	if ok {
		r.current = &next
		q := next
		return &Advance{Next: &q}
	}

	r.state = StateFinished
	r.current = nil

	players := r.playersLocked()
	adv := &Advance{Finished: true}
	for _, player := range players {
		a := r.attempts[player]
		if a == nil {
			continue
		}
		adv.Leaderboard = append(adv.Leaderboard, domain.LeaderboardEntry{
			Player: player,
			Score:  a.score,
		})
		adv.Flush = append(adv.Flush, AttemptFlush{
			Player: player,
			Delta:  a.score,
			Record: r.recordLocked(player, a, true),
		})
	}
	sort.SliceStable(adv.Leaderboard, func(i, j int) bool {
		return adv.Leaderboard[i].Score > adv.Leaderboard[j].Score
	})
	r.attempts = make(map[string]*attempt)
	return adv
}

func (r *Room) recordLocked(player string, a *attempt, finished bool) domain.AttemptRecord {
	responses := make([]domain.Response, len(a.responses))
	copy(responses, a.responses)
	return domain.AttemptRecord{
		PlayerID:  player,
		QuizID:    r.quizID,
		Score:     a.score,
		Responses: responses,
		Finished:  finished,
		UpdatedAt: r.now(),
	}
}
