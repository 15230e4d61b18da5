package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

// QuizRepository persists quizzes and questions via bun.
type QuizRepository struct {
	db *bun.DB
}

func NewQuizRepository(db *bun.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// Create stores the quiz and its questions in one transaction so a partial
// failure never leaves a quiz without questions.
func (r *QuizRepository) Create(ctx context.Context, quiz *domain.Quiz, questions []*domain.Question) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(quiz).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		for _, q := range questions {
			q.QuizID = quiz.ID
		}
		if len(questions) > 0 {
			if _, err := tx.NewInsert().Model(&questions).Exec(ctx); err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	quiz.Questions = questions
	return nil
}

func (r *QuizRepository) List(ctx context.Context, filter app.QuizFilter) ([]*domain.Quiz, error) {
	var quizzes []*domain.Quiz
	q := r.db.NewSelect().
		Model(&quizzes).
		Relation("Questions", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("id ASC")
		}).
		Order("created_at DESC")
	if filter.Category != "" {
		q = q.Where("qz.category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		q = q.Where("qz.difficulty = ?", filter.Difficulty)
	}
	if filter.IsAIGenerated != nil {
		q = q.Where("qz.is_ai_generated = ?", *filter.IsAIGenerated)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}
	return quizzes, nil
}

func (r *QuizRepository) ByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	quiz := new(domain.Quiz)
	err := r.db.NewSelect().
		Model(quiz).
		Relation("Questions", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("id ASC")
		}).
		Where("qz.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select quiz: %w", err)
	}
	return quiz, nil
}

// Delete removes a quiz; questions go with it via ON DELETE CASCADE.
func (r *QuizRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*domain.Quiz)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (r *QuizRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.NewDelete().Model((*domain.Quiz)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("delete quizzes: %w", err)
	}
	return nil
}
