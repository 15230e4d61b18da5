package http

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"quizroom/internal/app"
	"quizroom/internal/auth"
	"quizroom/internal/domain"
	"quizroom/internal/infra/memory"
)

type placeholderGen struct{}

func (placeholderGen) Generate(_ context.Context, category, difficulty string, count int) []domain.GeneratedQuestion {
	return domain.PlaceholderQuestions(category, difficulty, count)
}

type testEnv struct {
	api    *API
	store  *memory.Store
	tokens *auth.TokenManager
	auth   *app.AuthService
	rooms  *app.RoomService
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	authSvc := app.NewAuthService(store.Users(), tokens, logger)
	quizSvc := app.NewQuizService(store.Quizzes(), placeholderGen{}, logger)
	roomSvc := app.NewRoomService(store.Rooms(), store.Quizzes(), store.Users(), store.Leaderboards(), logger)
	gameSvc := app.NewGameService(store.Rooms(), store.Questions(), store.Leaderboards(), logger)

	hub := NewHub()
	ws := NewWSHandler(tokens, authSvc, roomSvc, gameSvc, memory.NewPresenceRegistry(), hub, logger)
	api := NewAPI(authSvc, quizSvc, roomSvc, tokens, hub, ws, "", logger)

	server := httptest.NewServer(api.Router())
	t.Cleanup(server.Close)

	return &testEnv{api: api, store: store, tokens: tokens, auth: authSvc, rooms: roomSvc, server: server}
}

func (e *testEnv) registerUser(t *testing.T, username string) (*domain.User, string) {
	t.Helper()
	user, token, err := e.auth.Register(context.Background(), app.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user, token
}

func (e *testEnv) seedQuiz(t *testing.T, questionCount int) *domain.Quiz {
	t.Helper()
	quiz := &domain.Quiz{Title: "Test Quiz", Category: "Science", Difficulty: domain.DifficultyEasy}
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
	if err := e.store.Quizzes().Create(context.Background(), quiz, questions); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return quiz
}
