package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"quizroom/internal/domain"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 6
	maxCodeAttempts = 10
)

// RoomService manages room lifecycle: create, join, leave, delete, quiz
// assignment, and leaderboard reads.
type RoomService struct {
	rooms   RoomRepository
	quizzes QuizRepository
	users   UserRepository
	boards  LeaderboardRepository
	logger  *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRoomService(rooms RoomRepository, quizzes QuizRepository, users UserRepository, boards LeaderboardRepository, logger *slog.Logger) *RoomService {
	return &RoomService{
		rooms:   rooms,
		quizzes: quizzes,
		users:   users,
		boards:  boards,
		logger:  logger,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create opens a new room hosted by hostID. The host is the first roster
// member and gets a zero-score leaderboard row in the same atomic unit.
func (s *RoomService) Create(ctx context.Context, hostID int64, quizID *int64, maxPlayers int) (*domain.Room, error) {
	if quizID != nil {
		if _, err := s.quizzes.ByID(ctx, *quizID); err != nil {
			return nil, err
		}
	}
	if maxPlayers <= 0 {
		maxPlayers = 10
	}

	room := &domain.Room{
		HostID:          hostID,
		QuizID:          quizID,
		MaxPlayers:      maxPlayers,
		Status:          domain.RoomWaiting,
		CurrentQuestion: 0,
		Players:         []int64{hostID},
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		room.Code = s.generateCode()
		entry := &domain.LeaderboardEntry{UserID: hostID}
		err := s.rooms.Create(ctx, room, entry)
		if err == nil {
			s.logger.Info("room created", "code", room.Code, "host_id", hostID)
			return s.rooms.ByID(ctx, room.ID)
		}
		if !errors.Is(err, domain.ErrCodeCollision) {
			return nil, fmt.Errorf("create room: %w", err)
		}
	}
	return nil, fmt.Errorf("create room: could not allocate a unique code")
}

// Join adds userID to the room identified by code. Codes are matched
// case-insensitively.
func (s *RoomService) Join(ctx context.Context, code string, userID int64) (*domain.Room, error) {
	room, err := s.rooms.ByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}
	if room.Status != domain.RoomWaiting {
		return nil, domain.ErrGameInProgress
	}
	if room.HasPlayer(userID) {
		return nil, domain.ErrAlreadyJoined
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, domain.ErrRoomFull
	}

	room.Players = append(room.Players, userID)
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	if err := s.boards.CreateIfAbsent(ctx, room.ID, userID); err != nil {
		return nil, fmt.Errorf("create leaderboard row: %w", err)
	}

	s.logger.Info("player joined room", "code", room.Code, "user_id", userID, "players", len(room.Players))
	return s.rooms.ByID(ctx, room.ID)
}

// Leave removes userID from the room. When the host leaves and others remain,
// hosting passes to the next player in roster order. When the roster empties,
// the room is deleted and its leaderboard rows cascade away. The returned
// bool reports whether the room was deleted.
func (s *RoomService) Leave(ctx context.Context, roomID, userID int64) (*domain.Room, bool, error) {
	room, err := s.rooms.ByID(ctx, roomID)
	if err != nil {
		return nil, false, err
	}

	remaining := make([]int64, 0, len(room.Players))
	for _, id := range room.Players {
		if id != userID {
			remaining = append(remaining, id)
		}
	}

	if len(remaining) == 0 {
		if err := s.rooms.Delete(ctx, room.ID); err != nil {
			return nil, false, fmt.Errorf("delete room: %w", err)
		}
		s.logger.Info("room deleted, last player left", "code", room.Code)
		return nil, true, nil
	}

	if room.HostID == userID {
		room.HostID = remaining[0]
		s.logger.Info("host reassigned", "code", room.Code, "new_host_id", room.HostID)
	}
	room.Players = remaining
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, false, fmt.Errorf("update room: %w", err)
	}
	return room, false, nil
}

// LeaveByCode is the websocket variant of Leave.
func (s *RoomService) LeaveByCode(ctx context.Context, code string, userID int64) (*domain.Room, bool, error) {
	room, err := s.rooms.ByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, false, err
	}
	return s.Leave(ctx, room.ID, userID)
}

// Delete removes a room. Host only.
func (s *RoomService) Delete(ctx context.Context, roomID, userID int64) error {
	room, err := s.rooms.ByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.HostID != userID {
		return domain.ErrNotHost
	}
	return s.rooms.Delete(ctx, roomID)
}

// AssignQuiz attaches a quiz to a room. Host only; the quiz must exist. The
// updated room is returned so the caller can broadcast it.
func (s *RoomService) AssignQuiz(ctx context.Context, roomID, userID, quizID int64) (*domain.Room, error) {
	room, err := s.rooms.ByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.HostID != userID {
		return nil, domain.ErrNotHost
	}
	if _, err := s.quizzes.ByID(ctx, quizID); err != nil {
		return nil, err
	}

	room.QuizID = &quizID
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}

	s.logger.Info("quiz assigned", "code", room.Code, "quiz_id", quizID)
	return s.rooms.ByID(ctx, roomID)
}

// List returns rooms matching the filter, newest first.
func (s *RoomService) List(ctx context.Context, filter RoomFilter) ([]*domain.Room, error) {
	return s.rooms.List(ctx, filter)
}

// Get returns a room with host and quiz relations.
func (s *RoomService) Get(ctx context.Context, id int64) (*domain.Room, error) {
	return s.rooms.ByID(ctx, id)
}

// GetByCode returns a room by its join code.
func (s *RoomService) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	return s.rooms.ByCode(ctx, strings.ToUpper(code))
}

// Leaderboard returns the room's score rows sorted by score descending.
func (s *RoomService) Leaderboard(ctx context.Context, roomID int64) ([]*domain.LeaderboardEntry, error) {
	return s.boards.ForRoom(ctx, roomID)
}

func (s *RoomService) generateCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[s.rnd.Intn(len(codeAlphabet))]
	}
	return string(b)
}
