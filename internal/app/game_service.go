package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quizroom/internal/domain"
)

// GameService drives a room through its quiz: start, question advancement,
// and answer scoring. All state transitions persist to the room row; the
// presence registry is only a cache on top.
type GameService struct {
	rooms     RoomRepository
	questions QuestionSource
	boards    LeaderboardRepository
	logger    *slog.Logger
}

func NewGameService(rooms RoomRepository, questions QuestionSource, boards LeaderboardRepository, logger *slog.Logger) *GameService {
	return &GameService{rooms: rooms, questions: questions, boards: boards, logger: logger}
}

// Start moves a waiting room into playing and returns the first question
// payload. Host only; the room must have a quiz with at least one question.
func (s *GameService) Start(ctx context.Context, code string, userID int64) (domain.QuizSummary, domain.QuestionPayload, error) {
	room, err := s.rooms.ByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return domain.QuizSummary{}, domain.QuestionPayload{}, err
	}
	if room.HostID != userID {
		return domain.QuizSummary{}, domain.QuestionPayload{}, domain.ErrNotHost
	}
	if room.QuizID == nil {
		return domain.QuizSummary{}, domain.QuestionPayload{}, domain.ErrNoQuiz
	}

	questions, err := s.questions.QuizQuestions(ctx, *room.QuizID)
	if err != nil {
		return domain.QuizSummary{}, domain.QuestionPayload{}, err
	}
	if len(questions) == 0 {
		return domain.QuizSummary{}, domain.QuestionPayload{}, domain.ErrNoQuiz
	}

	room.Status = domain.RoomPlaying
	room.CurrentQuestion = 1
	if err := s.rooms.Update(ctx, room); err != nil {
		return domain.QuizSummary{}, domain.QuestionPayload{}, fmt.Errorf("update room: %w", err)
	}

	summary := domain.QuizSummary{ID: *room.QuizID, TotalQuestions: len(questions)}
	if room.Quiz != nil {
		summary.Title = room.Quiz.Title
	}

	s.logger.Info("game started", "code", room.Code, "questions", len(questions))
	return summary, questionPayload(questions[0], 1, len(questions)), nil
}

// Advance moves the room to the next question. When the pointer has passed
// the last question the room is marked finished and the final leaderboard
// (score descending) is returned instead of a question.
func (s *GameService) Advance(ctx context.Context, code string) (*domain.QuestionPayload, []*domain.LeaderboardEntry, error) {
	room, err := s.rooms.ByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, nil, err
	}
	if room.Status != domain.RoomPlaying {
		return nil, nil, domain.ErrGameNotStarted
	}
	if room.QuizID == nil {
		return nil, nil, domain.ErrNoQuiz
	}

	questions, err := s.questions.QuizQuestions(ctx, *room.QuizID)
	if err != nil {
		return nil, nil, err
	}

	// CurrentQuestion is a 1-based pointer to the question in flight, which
	// makes it the 0-based index of the next one.
	next := room.CurrentQuestion
	if next >= len(questions) {
		room.Status = domain.RoomFinished
		if err := s.rooms.Update(ctx, room); err != nil {
			return nil, nil, fmt.Errorf("update room: %w", err)
		}
		board, err := s.boards.ForRoom(ctx, room.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("load leaderboard: %w", err)
		}
		s.logger.Info("game finished", "code", room.Code)
		return nil, board, nil
	}

	room.CurrentQuestion = next + 1
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("update room: %w", err)
	}
	payload := questionPayload(questions[next], next+1, len(questions))
	return &payload, nil, nil
}

// SubmitAnswer scores one answer and additively updates the player's
// leaderboard row. selected is nil when the client timed out without
// answering. The submitted question ID is trusted as-is; it is not checked
// against the room's current question pointer.
func (s *GameService) SubmitAnswer(ctx context.Context, code string, userID, questionID int64, selected *int, timeRemaining int) (domain.AnswerResult, []*domain.LeaderboardEntry, error) {
	question, err := s.questions.Question(ctx, questionID)
	if err != nil {
		return domain.AnswerResult{}, nil, err
	}
	room, err := s.rooms.ByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return domain.AnswerResult{}, nil, err
	}

	correct, awarded, bonus := scoreAnswer(question, selected, timeRemaining)
	correctDelta := 0
	if correct {
		correctDelta = 1
	}

	if _, err := s.boards.Apply(ctx, room.ID, userID, awarded, correctDelta, bonus); err != nil {
		return domain.AnswerResult{}, nil, fmt.Errorf("apply score: %w", err)
	}
	board, err := s.boards.ForRoom(ctx, room.ID)
	if err != nil {
		return domain.AnswerResult{}, nil, fmt.Errorf("load leaderboard: %w", err)
	}

	result := domain.AnswerResult{
		UserID:    userID,
		IsCorrect: correct,
		Points:    awarded,
		TimeBonus: bonus,
	}
	return result, board, nil
}

// scoreAnswer returns correctness, total awarded points, and the time bonus
// portion. Bonus is floor(remaining/limit * 50); wrong or missing answers
// award nothing.
func scoreAnswer(q *domain.Question, selected *int, timeRemaining int) (bool, int, int) {
	if selected == nil || *selected != q.CorrectAnswer {
		return false, 0, 0
	}
	limit := q.TimeLimit
	if limit <= 0 {
		limit = 30
	}
	if timeRemaining < 0 {
		timeRemaining = 0
	}
	if timeRemaining > limit {
		timeRemaining = limit
	}
	bonus := timeRemaining * 50 / limit
	return true, q.Points + bonus, bonus
}

func questionPayload(q *domain.Question, number, total int) domain.QuestionPayload {
	return domain.QuestionPayload{
		ID:             q.ID,
		Question:       q.Question,
		Options:        q.Options,
		TimeLimit:      q.TimeLimit,
		Points:         q.Points,
		QuestionNumber: number,
		TotalQuestions: total,
	}
}
