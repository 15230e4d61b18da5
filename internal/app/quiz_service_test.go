package app_test

import (
	"context"
	"errors"
	"testing"

	"quizroom/internal/app"
	"quizroom/internal/domain"
	"quizroom/internal/infra/memory"
)

func newQuizService(store *memory.Store, gen app.QuestionGenerator) *app.QuizService {
	if gen == nil {
		gen = staticGenerator{}
	}
	return app.NewQuizService(store.Quizzes(), gen, testLogger())
}

func validQuizInput() app.CreateQuizInput {
	return app.CreateQuizInput{
		Title:      "Space Trivia",
		Category:   "Science",
		Difficulty: domain.DifficultyMedium,
		Questions: []app.QuestionInput{
			{Question: "Closest planet to the sun?", Options: []string{"Venus", "Mercury", "Mars"}, CorrectAnswer: 1},
		},
	}
}

func TestCreateQuizDefaults(t *testing.T) {
	svc := newQuizService(memory.NewStore(), nil)

	quiz, err := svc.Create(context.Background(), validQuizInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Get(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(got.Questions))
	}
	q := got.Questions[0]
	if q.Points != 200 || q.TimeLimit != 45 {
		t.Fatalf("expected medium defaults 200/45, got %d/%d", q.Points, q.TimeLimit)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	svc := newQuizService(memory.NewStore(), nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*app.CreateQuizInput)
	}{
		{"missing title", func(in *app.CreateQuizInput) { in.Title = "" }},
		{"unknown category", func(in *app.CreateQuizInput) { in.Category = "Cooking" }},
		{"bad difficulty", func(in *app.CreateQuizInput) { in.Difficulty = "extreme" }},
		{"no questions", func(in *app.CreateQuizInput) { in.Questions = nil }},
		{"one option", func(in *app.CreateQuizInput) { in.Questions[0].Options = []string{"A"} }},
		{"five options", func(in *app.CreateQuizInput) {
			in.Questions[0].Options = []string{"A", "B", "C", "D", "E"}
		}},
		{"answer out of range", func(in *app.CreateQuizInput) { in.Questions[0].CorrectAnswer = 3 }},
		{"negative answer", func(in *app.CreateQuizInput) { in.Questions[0].CorrectAnswer = -1 }},
		{"time limit too low", func(in *app.CreateQuizInput) { in.Questions[0].TimeLimit = 3 }},
		{"time limit too high", func(in *app.CreateQuizInput) { in.Questions[0].TimeLimit = 200 }},
		{"points too low", func(in *app.CreateQuizInput) { in.Questions[0].Points = 5 }},
		{"points too high", func(in *app.CreateQuizInput) { in.Questions[0].Points = 5000 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validQuizInput()
			tc.mutate(&in)
			if _, err := svc.Create(ctx, in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateWithAISubstitutesInvalidQuestions(t *testing.T) {
	generated := []domain.GeneratedQuestion{
		{Question: "Good one?", Options: []string{"A", "B", "C", "D"}, CorrectAnswer: 2, Points: 100, TimeLimit: 30},
		{Question: "", Options: []string{"A", "B"}, CorrectAnswer: 0, Points: 100, TimeLimit: 30},
		{Question: "Bad index?", Options: []string{"A", "B"}, CorrectAnswer: 7, Points: 100, TimeLimit: 30},
	}
	store := memory.NewStore()
	svc := newQuizService(store, staticGenerator{questions: generated})

	quiz, err := svc.CreateWithAI(context.Background(), app.AIQuizInput{
		Category:          "History",
		Difficulty:        domain.DifficultyEasy,
		NumberOfQuestions: 5,
	})
	if err != nil {
		t.Fatalf("create with ai: %v", err)
	}
	if !quiz.IsAIGenerated {
		t.Fatal("expected IsAIGenerated to be set")
	}
	if quiz.Title != "History Quiz - Easy" {
		t.Fatalf("unexpected default title %q", quiz.Title)
	}

	got, err := svc.Get(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(got.Questions))
	}
	if got.Questions[0].Question != "Good one?" {
		t.Fatalf("valid generated question should survive, got %q", got.Questions[0].Question)
	}
	for i, q := range got.Questions[1:] {
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			t.Fatalf("question %d has out-of-range answer after substitution", i+1)
		}
	}
}

func TestCreateWithAIRejectsBadInput(t *testing.T) {
	svc := newQuizService(memory.NewStore(), nil)

	if _, err := svc.CreateWithAI(context.Background(), app.AIQuizInput{Category: "Nope", Difficulty: "easy"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for category, got %v", err)
	}
	if _, err := svc.CreateWithAI(context.Background(), app.AIQuizInput{Category: "Science", Difficulty: "nope"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for difficulty, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	store := memory.NewStore()
	svc := newQuizService(store, nil)
	ctx := context.Background()

	sci := validQuizInput()
	if _, err := svc.Create(ctx, sci); err != nil {
		t.Fatalf("create: %v", err)
	}
	hist := validQuizInput()
	hist.Category = "History"
	hist.Difficulty = domain.DifficultyHard
	if _, err := svc.Create(ctx, hist); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.List(ctx, app.QuizFilter{Category: "History"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Category != "History" {
		t.Fatalf("expected one History quiz, got %d", len(got))
	}

	got, err = svc.List(ctx, app.QuizFilter{Difficulty: domain.DifficultyMedium})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Difficulty != domain.DifficultyMedium {
		t.Fatalf("expected one medium quiz, got %d", len(got))
	}
}

func TestDeleteQuiz(t *testing.T) {
	store := memory.NewStore()
	svc := newQuizService(store, nil)
	ctx := context.Background()

	quiz, err := svc.Create(ctx, validQuizInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound on second delete, got %v", err)
	}
}
