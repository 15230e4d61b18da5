package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

// RoomRepository persists rooms via bun.
type RoomRepository struct {
	db *bun.DB
}

func NewRoomRepository(db *bun.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create stores the room and the host's zero-score leaderboard row in one
// transaction. A unique-index hit on the code maps to ErrCodeCollision so the
// service can regenerate and retry.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room, hostEntry *domain.LeaderboardEntry) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(room).Exec(ctx); err != nil {
			return err
		}
		hostEntry.RoomID = room.ID
		if _, err := tx.NewInsert().Model(hostEntry).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCodeCollision
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505). Other integrity errors, foreign keys included, must not
// trigger a code retry.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

func (r *RoomRepository) ByID(ctx context.Context, id int64) (*domain.Room, error) {
	room := new(domain.Room)
	err := r.db.NewSelect().
		Model(room).
		Relation("Host").
		Relation("Quiz").
		Where("r.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}
	return room, nil
}

func (r *RoomRepository) ByCode(ctx context.Context, code string) (*domain.Room, error) {
	room := new(domain.Room)
	err := r.db.NewSelect().
		Model(room).
		Relation("Host").
		Relation("Quiz").
		Where("r.code = ?", code).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}
	return room, nil
}

func (r *RoomRepository) List(ctx context.Context, filter app.RoomFilter) ([]*domain.Room, error) {
	var rooms []*domain.Room
	q := r.db.NewSelect().
		Model(&rooms).
		Relation("Host").
		Relation("Quiz").
		Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("r.status = ?", filter.Status)
	}
	if filter.Code != "" {
		q = q.Where("r.code = ?", filter.Code)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select rooms: %w", err)
	}
	return rooms, nil
}

func (r *RoomRepository) Update(ctx context.Context, room *domain.Room) error {
	res, err := r.db.NewUpdate().
		Model(room).
		Column("host_id", "quiz_id", "status", "current_question", "players").
		Set("updated_at = now()").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// Delete removes a room; leaderboard rows go with it via ON DELETE CASCADE.
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*domain.Room)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}
