package domain

import "time"

// QuestionType tags how many answers a question accepts.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
)

// Answer is one selectable option with its correctness flag and point value.
type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Points  int    `json:"points"` // defaults to 1 if zero
}

// Question carries an order key used to pick the next question deterministically.
type Question struct {
	ID      string       `json:"id"`
	Order   int          `json:"order"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Answers []Answer     `json:"answers"`
}

// AnswerByID returns the answer with the given ID, if the question has it.
func (q Question) AnswerByID(answerID string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return a, true
		}
	}
	return Answer{}, false
}

// Quiz is a collection of questions played in ascending order of their keys.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// FirstQuestion returns the question with the lowest order key.
func (q Quiz) FirstQuestion() (Question, bool) {
	return q.NextQuestion(-1 << 31)
}

// NextQuestion returns the question with the smallest order key strictly
// greater than after.
func (q Quiz) NextQuestion(after int) (Question, bool) {
	var best Question
	found := false
	for _, question := range q.Questions {
		if question.Order <= after {
			continue
		}
		if !found || question.Order < best.Order {
			best = question
			found = true
		}
	}
	return best, found
}

// QuestionByID returns the question with the given ID.
func (q Quiz) QuestionByID(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// Response is one recorded (question, answer) pair of an attempt.
type Response struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
}

// AttemptRecord is the persisted form of a player's quiz attempt. Live attempts
// are owned by the room; records are written when a player drops mid-quiz and
// when the quiz finishes.
type AttemptRecord struct {
	PlayerID  string     `json:"playerId"`
	QuizID    string     `json:"quizId"`
	Score     int        `json:"score"`
	Responses []Response `json:"responses"`
	Finished  bool       `json:"finished"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// LeaderboardEntry is one row of a finished room's scoreboard.
type LeaderboardEntry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

// PlayerStanding is the permanent record view for a player across all games.
type PlayerStanding struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
	Level  string `json:"level"`
}
