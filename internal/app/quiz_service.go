package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quizroom/internal/domain"
)

// QuizService covers quiz CRUD and AI-assisted creation.
type QuizService struct {
	quizzes   QuizRepository
	generator QuestionGenerator
	logger    *slog.Logger
}

func NewQuizService(quizzes QuizRepository, generator QuestionGenerator, logger *slog.Logger) *QuizService {
	return &QuizService{quizzes: quizzes, generator: generator, logger: logger}
}

// QuestionInput is one question in a manual create request.
type QuestionInput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	TimeLimit     int      `json:"timeLimit"`
	Points        int      `json:"points"`
}

// CreateQuizInput is the manual quiz create request.
type CreateQuizInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Difficulty  string          `json:"difficulty"`
	Questions   []QuestionInput `json:"questions"`
}

// Create validates and stores a quiz with its questions.
func (s *QuizService) Create(ctx context.Context, in CreateQuizInput) (*domain.Quiz, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if !domain.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, in.Category)
	}
	if !domain.ValidDifficulty(in.Difficulty) {
		return nil, fmt.Errorf("%w: difficulty must be easy, medium, or hard", domain.ErrValidation)
	}
	if len(in.Questions) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", domain.ErrValidation)
	}

	questions := make([]*domain.Question, 0, len(in.Questions))
	for i, q := range in.Questions {
		question, err := buildQuestion(q, in.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, question)
	}

	quiz := &domain.Quiz{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
	}
	if err := s.quizzes.Create(ctx, quiz, questions); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	s.logger.Info("quiz created", "quiz_id", quiz.ID, "questions", len(questions))
	return quiz, nil
}

// AIQuizInput is the AI-assisted quiz create request.
type AIQuizInput struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	Difficulty        string `json:"difficulty"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
}

// CreateWithAI generates questions for the category/difficulty and stores the
// resulting quiz. Generation failures degrade to placeholder questions, so
// this operation only fails on bad input or storage errors.
func (s *QuizService) CreateWithAI(ctx context.Context, in AIQuizInput) (*domain.Quiz, error) {
	if !domain.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, in.Category)
	}
	if !domain.ValidDifficulty(in.Difficulty) {
		return nil, fmt.Errorf("%w: difficulty must be easy, medium, or hard", domain.ErrValidation)
	}
	count := in.NumberOfQuestions
	if count <= 0 {
		count = 5
	}

	title := in.Title
	if title == "" {
		title = fmt.Sprintf("%s Quiz - %s", in.Category, titleCase(in.Difficulty))
	}
	description := in.Description
	if description == "" {
		description = fmt.Sprintf("AI Generated %s Quiz - %s level", in.Category, in.Difficulty)
	}

	generated := s.generator.Generate(ctx, in.Category, in.Difficulty, count)
	placeholders := domain.PlaceholderQuestions(in.Category, in.Difficulty, count)

	questions := make([]*domain.Question, 0, count)
	for i := 0; i < count; i++ {
		g := placeholders[i]
		if i < len(generated) && validGenerated(generated[i]) {
			g = generated[i]
		}
		questions = append(questions, &domain.Question{
			Question:      g.Question,
			Options:       g.Options,
			CorrectAnswer: g.CorrectAnswer,
			TimeLimit:     g.TimeLimit,
			Points:        g.Points,
		})
	}

	quiz := &domain.Quiz{
		Title:         title,
		Description:   description,
		Category:      in.Category,
		Difficulty:    in.Difficulty,
		IsAIGenerated: true,
	}
	if err := s.quizzes.Create(ctx, quiz, questions); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	s.logger.Info("ai quiz created", "quiz_id", quiz.ID, "category", in.Category, "questions", len(questions))
	return quiz, nil
}

// List returns quizzes matching the filter, newest first, with questions.
func (s *QuizService) List(ctx context.Context, filter QuizFilter) ([]*domain.Quiz, error) {
	return s.quizzes.List(ctx, filter)
}

// Get returns a quiz with its questions. Correct answer indexes are excluded
// from serialization at the model level.
func (s *QuizService) Get(ctx context.Context, id int64) (*domain.Quiz, error) {
	return s.quizzes.ByID(ctx, id)
}

// Delete removes a quiz; its questions cascade.
func (s *QuizService) Delete(ctx context.Context, id int64) error {
	if _, err := s.quizzes.ByID(ctx, id); err != nil {
		return err
	}
	return s.quizzes.Delete(ctx, id)
}

// DeleteAll removes every quiz and question.
func (s *QuizService) DeleteAll(ctx context.Context) error {
	return s.quizzes.DeleteAll(ctx)
}

// Categories returns the fixed category set.
func (s *QuizService) Categories() []string {
	return domain.Categories
}

func buildQuestion(in QuestionInput, difficulty string) (*domain.Question, error) {
	if strings.TrimSpace(in.Question) == "" {
		return nil, fmt.Errorf("%w: question text is required", domain.ErrValidation)
	}
	if len(in.Options) < 2 || len(in.Options) > 4 {
		return nil, fmt.Errorf("%w: options must have 2 to 4 items", domain.ErrValidation)
	}
	if in.CorrectAnswer < 0 || in.CorrectAnswer >= len(in.Options) {
		return nil, fmt.Errorf("%w: correctAnswer out of range", domain.ErrValidation)
	}
	limit := in.TimeLimit
	if limit == 0 {
		limit = domain.TimeLimitForDifficulty(difficulty)
	}
	if limit < 5 || limit > 120 {
		return nil, fmt.Errorf("%w: timeLimit must be between 5 and 120 seconds", domain.ErrValidation)
	}
	points := in.Points
	if points == 0 {
		points = domain.PointsForDifficulty(difficulty)
	}
	if points < 10 || points > 1000 {
		return nil, fmt.Errorf("%w: points must be between 10 and 1000", domain.ErrValidation)
	}
	return &domain.Question{
		Question:      in.Question,
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
		TimeLimit:     limit,
		Points:        points,
	}, nil
}

func validGenerated(g domain.GeneratedQuestion) bool {
	if strings.TrimSpace(g.Question) == "" {
		return false
	}
	if len(g.Options) < 2 || len(g.Options) > 4 {
		return false
	}
	if g.CorrectAnswer < 0 || g.CorrectAnswer >= len(g.Options) {
		return false
	}
	return g.Points > 0 && g.TimeLimit > 0
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
