package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user ID or email does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken indicates the username is already in use.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrRoomNotFound indicates no room matches the given code or ID.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when the roster is at max players.
	ErrRoomFull = errors.New("room is full")
	// ErrAlreadyJoined is returned when a user joins a room twice.
	ErrAlreadyJoined = errors.New("already joined this room")
	// ErrGameInProgress is returned when joining a room that is not waiting.
	ErrGameInProgress = errors.New("game already started")
	// ErrGameNotStarted is returned when advancing a room that is not playing.
	ErrGameNotStarted = errors.New("game has not started")
	// ErrNotHost guards host-only actions.
	ErrNotHost = errors.New("only the host can perform this action")
	// ErrNoQuiz is returned when starting a room without an assigned quiz.
	ErrNoQuiz = errors.New("no quiz assigned to this room")
	// ErrCodeCollision signals a generated room code hit the unique index.
	ErrCodeCollision = errors.New("room code already in use")

	// ErrValidation wraps request field validation failures.
	ErrValidation = errors.New("validation failed")
)
