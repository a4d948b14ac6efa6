package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no active room matches the code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists is returned when a room code is already taken by an active room.
	ErrRoomExists = errors.New("room code already in use")
	// ErrRoomFull is returned when a room reached its player capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates the quiz has no (further) question to show.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound indicates a submitted answer ID does not belong to the current question.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrPlayerNotFound is returned when a player tries to act without having joined.
	ErrPlayerNotFound = errors.New("player not in room")
	// ErrNotCreator rejects a start attempt by anyone but the room creator.
	ErrNotCreator = errors.New("only the room creator can start the game")
	// ErrNotStarted rejects answer submissions before the game started.
	ErrNotStarted = errors.New("game not started")
	// ErrAlreadyStarted is the non-fatal outcome of a second start.
	ErrAlreadyStarted = errors.New("game already started")
	// ErrAlreadyAnswered is the non-fatal outcome of resubmitting the current question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNoAnswers rejects an empty answer submission.
	ErrNoAnswers = errors.New("no answers submitted")
	// ErrQuizFinished is returned for actions on a room whose quiz already ended.
	ErrQuizFinished = errors.New("quiz already finished")
)
