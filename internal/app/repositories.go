package app

import (
	"context"

	"quizroom/internal/domain"
)

// UserRepository persists registered players.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	ByID(ctx context.Context, id int64) (*domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// QuizFilter narrows quiz listings.
type QuizFilter struct {
	Category      string
	Difficulty    string
	IsAIGenerated *bool
}

// QuizRepository persists quizzes and their questions. Create stores the quiz
// and all questions in one atomic unit.
type QuizRepository interface {
	Create(ctx context.Context, quiz *domain.Quiz, questions []*domain.Question) error
	List(ctx context.Context, filter QuizFilter) ([]*domain.Quiz, error)
	ByID(ctx context.Context, id int64) (*domain.Quiz, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

// RoomFilter narrows room listings.
type RoomFilter struct {
	Status string
	Code   string
}

// RoomRepository persists rooms. Create stores the room together with the
// host's zero-score leaderboard row; it returns domain.ErrCodeCollision when
// the generated code hits the unique index so the caller can retry.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room, hostEntry *domain.LeaderboardEntry) error
	ByID(ctx context.Context, id int64) (*domain.Room, error)
	ByCode(ctx context.Context, code string) (*domain.Room, error)
	List(ctx context.Context, filter RoomFilter) ([]*domain.Room, error)
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id int64) error
}

// LeaderboardRepository persists per-room score rows. Apply is additive: it
// increments score, correct-answer count, and time bonus in place.
type LeaderboardRepository interface {
	CreateIfAbsent(ctx context.Context, roomID, userID int64) error
	Apply(ctx context.Context, roomID, userID int64, points, correctDelta, bonus int) (*domain.LeaderboardEntry, error)
	ForRoom(ctx context.Context, roomID int64) ([]*domain.LeaderboardEntry, error)
}

// QuestionSource is the read path used while a game is running. Postgres is
// authoritative; implementations may cache in front of it.
type QuestionSource interface {
	Question(ctx context.Context, id int64) (*domain.Question, error)
	QuizQuestions(ctx context.Context, quizID int64) ([]*domain.Question, error)
}

// QuestionGenerator produces quiz questions for a category and difficulty.
// Implementations must always return count usable questions, substituting
// placeholders when the upstream generator fails.
type QuestionGenerator interface {
	Generate(ctx context.Context, category, difficulty string, count int) []domain.GeneratedQuestion
}
