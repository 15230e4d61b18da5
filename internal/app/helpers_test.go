package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"quizroom/internal/app"
	"quizroom/internal/auth"
	"quizroom/internal/domain"
	"quizroom/internal/infra/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour)
}

// staticGenerator returns canned questions, standing in for the AI backend.
type staticGenerator struct {
	questions []domain.GeneratedQuestion
}

func (g staticGenerator) Generate(_ context.Context, category, difficulty string, count int) []domain.GeneratedQuestion {
	if g.questions != nil {
		return g.questions
	}
	return domain.PlaceholderQuestions(category, difficulty, count)
}

func newUser(t *testing.T, store *memory.Store, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
	}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func newQuiz(t *testing.T, store *memory.Store, questionCount int) *domain.Quiz {
	t.Helper()
	quiz := &domain.Quiz{
		Title:      "Test Quiz",
		Category:   "Science",
		Difficulty: domain.DifficultyEasy,
	}
	questions := make([]*domain.Question, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		questions = append(questions, &domain.Question{
			Question:      "Question?",
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: 1,
			TimeLimit:     30,
			Points:        100,
		})
	}
	if err := store.Quizzes().Create(context.Background(), quiz, questions); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

func newRoomService(store *memory.Store) *app.RoomService {
	return app.NewRoomService(store.Rooms(), store.Quizzes(), store.Users(), store.Leaderboards(), testLogger())
}

func newGameService(store *memory.Store) *app.GameService {
	return app.NewGameService(store.Rooms(), store.Questions(), store.Leaderboards(), testLogger())
}
