package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quizroom/internal/domain"
)

// LeaderboardRepository persists per-room score rows via bun.
type LeaderboardRepository struct {
	db *bun.DB
}

func NewLeaderboardRepository(db *bun.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// CreateIfAbsent inserts a zero-score row for (room, user); the unique index
// on the pair makes repeated joins a no-op.
func (r *LeaderboardRepository) CreateIfAbsent(ctx context.Context, roomID, userID int64) error {
	entry := &domain.LeaderboardEntry{RoomID: roomID, UserID: userID}
	_, err := r.db.NewInsert().
		Model(entry).
		On("CONFLICT (room_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert leaderboard row: %w", err)
	}
	return nil
}

// Apply increments the row in place. The single UPDATE keeps concurrent
// submissions additive rather than last-writer-wins.
func (r *LeaderboardRepository) Apply(ctx context.Context, roomID, userID int64, points, correctDelta, bonus int) (*domain.LeaderboardEntry, error) {
	entry := new(domain.LeaderboardEntry)
	res, err := r.db.NewUpdate().
		Model(entry).
		Set("score = score + ?", points).
		Set("correct_answers = correct_answers + ?", correctDelta).
		Set("time_bonus = time_bonus + ?", bonus).
		Set("updated_at = now()").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update leaderboard row: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Row missing, e.g. a player who joined mid-game over the socket.
		entry = &domain.LeaderboardEntry{
			RoomID:         roomID,
			UserID:         userID,
			Score:          points,
			CorrectAnswers: correctDelta,
			TimeBonus:      bonus,
		}
		if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert leaderboard row: %w", err)
		}
	}
	return entry, nil
}

// ForRoom returns the room's rows with their users, best score first.
func (r *LeaderboardRepository) ForRoom(ctx context.Context, roomID int64) ([]*domain.LeaderboardEntry, error) {
	var entries []*domain.LeaderboardEntry
	err := r.db.NewSelect().
		Model(&entries).
		Relation("User").
		Where("lb.room_id = ?", roomID).
		Order("score DESC", "user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	return entries, nil
}
