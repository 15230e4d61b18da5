package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizroom/internal/domain"
)

// QuestionLoader is the hot read path used while games run. It goes through
// a pgx pool directly instead of the ORM; a cache usually sits in front.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) Question(ctx context.Context, id int64) (*domain.Question, error) {
	row := l.pool.QueryRow(ctx,
		`SELECT id, quiz_id, question, options, correct_answer, time_limit, points
		 FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (l *QuestionLoader) QuizQuestions(ctx context.Context, quizID int64) ([]*domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, quiz_id, question, options, correct_answer, time_limit, points
		 FROM questions WHERE quiz_id = $1 ORDER BY id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []*domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	if len(questions) == 0 {
		var exists bool
		if err := l.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE id = $1)`, quizID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check quiz: %w", err)
		}
		if !exists {
			return nil, domain.ErrQuizNotFound
		}
	}
	return questions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	var options []byte
	if err := row.Scan(&q.ID, &q.QuizID, &q.Question, &options, &q.CorrectAnswer, &q.TimeLimit, &q.Points); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return &q, nil
}
