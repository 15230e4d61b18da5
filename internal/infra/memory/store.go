package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

// Store is an in-memory database backing every repository interface. It is
// used in tests and when the server runs without Postgres.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	users     map[int64]*domain.User
	quizzes   map[int64]*domain.Quiz
	questions map[int64]*domain.Question
	rooms     map[int64]*domain.Room
	boards    map[int64]*domain.LeaderboardEntry
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*domain.User),
		quizzes:   make(map[int64]*domain.Quiz),
		questions: make(map[int64]*domain.Question),
		rooms:     make(map[int64]*domain.Room),
		boards:    make(map[int64]*domain.LeaderboardEntry),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// Users returns the user repository view of the store.
func (s *Store) Users() app.UserRepository { return &userRepo{s} }

// Quizzes returns the quiz repository view of the store.
func (s *Store) Quizzes() app.QuizRepository { return &quizRepo{s} }

// Rooms returns the room repository view of the store.
func (s *Store) Rooms() app.RoomRepository { return &roomRepo{s} }

// Leaderboards returns the leaderboard repository view of the store.
func (s *Store) Leaderboards() app.LeaderboardRepository { return &boardRepo{s} }

// Questions returns the question read path of the store.
func (s *Store) Questions() app.QuestionSource { return &questionSource{s} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.nextID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.s.users[user.ID] = &clone
	return nil
}

func (r *userRepo) ByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *userRepo) ByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepo) ByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.s.users[user.ID] = &clone
	return nil
}

type quizRepo struct{ s *Store }

func (r *quizRepo) Create(_ context.Context, quiz *domain.Quiz, questions []*domain.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	quiz.ID = r.s.nextID()
	quiz.CreatedAt = time.Now()
	quiz.UpdatedAt = quiz.CreatedAt
	clone := *quiz
	clone.Questions = nil
	r.s.quizzes[quiz.ID] = &clone
	for _, q := range questions {
		q.ID = r.s.nextID()
		q.QuizID = quiz.ID
		q.CreatedAt = quiz.CreatedAt
		q.UpdatedAt = quiz.CreatedAt
		qClone := *q
		r.s.questions[q.ID] = &qClone
	}
	quiz.Questions = questions
	return nil
}

func (r *quizRepo) List(_ context.Context, filter app.QuizFilter) ([]*domain.Quiz, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Quiz, 0, len(r.s.quizzes))
	for _, quiz := range r.s.quizzes {
		if filter.Category != "" && quiz.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && quiz.Difficulty != filter.Difficulty {
			continue
		}
		if filter.IsAIGenerated != nil && quiz.IsAIGenerated != *filter.IsAIGenerated {
			continue
		}
		out = append(out, r.s.quizWithQuestionsLocked(quiz))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *quizRepo) ByID(_ context.Context, id int64) (*domain.Quiz, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	quiz, ok := r.s.quizzes[id]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return r.s.quizWithQuestionsLocked(quiz), nil
}

func (r *quizRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(r.s.quizzes, id)
	for qid, q := range r.s.questions {
		if q.QuizID == id {
			delete(r.s.questions, qid)
		}
	}
	return nil
}

func (r *quizRepo) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.quizzes = make(map[int64]*domain.Quiz)
	r.s.questions = make(map[int64]*domain.Question)
	return nil
}

func (s *Store) quizWithQuestionsLocked(quiz *domain.Quiz) *domain.Quiz {
	clone := *quiz
	clone.Questions = s.quizQuestionsLocked(quiz.ID)
	return &clone
}

func (s *Store) quizQuestionsLocked(quizID int64) []*domain.Question {
	var questions []*domain.Question
	for _, q := range s.questions {
		if q.QuizID == quizID {
			qClone := *q
			questions = append(questions, &qClone)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions
}

type roomRepo struct{ s *Store }

func (r *roomRepo) Create(_ context.Context, room *domain.Room, hostEntry *domain.LeaderboardEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.rooms {
		if existing.Code == room.Code {
			return domain.ErrCodeCollision
		}
	}
	room.ID = r.s.nextID()
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	clone := cloneRoom(room)
	r.s.rooms[room.ID] = clone

	hostEntry.ID = r.s.nextID()
	hostEntry.RoomID = room.ID
	hostEntry.CreatedAt = room.CreatedAt
	hostEntry.UpdatedAt = room.CreatedAt
	entryClone := *hostEntry
	r.s.boards[hostEntry.ID] = &entryClone
	return nil
}

func (r *roomRepo) ByID(_ context.Context, id int64) (*domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return r.s.roomWithRelationsLocked(room), nil
}

func (r *roomRepo) ByCode(_ context.Context, code string) (*domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, room := range r.s.rooms {
		if room.Code == code {
			return r.s.roomWithRelationsLocked(room), nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

func (r *roomRepo) List(_ context.Context, filter app.RoomFilter) ([]*domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Room, 0, len(r.s.rooms))
	for _, room := range r.s.rooms {
		if filter.Status != "" && room.Status != filter.Status {
			continue
		}
		if filter.Code != "" && room.Code != filter.Code {
			continue
		}
		out = append(out, r.s.roomWithRelationsLocked(room))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *roomRepo) Update(_ context.Context, room *domain.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[room.ID]; !ok {
		return domain.ErrRoomNotFound
	}
	room.UpdatedAt = time.Now()
	r.s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *roomRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[id]; !ok {
		return domain.ErrRoomNotFound
	}
	delete(r.s.rooms, id)
	// leaderboard rows cascade with the room
	for bid, entry := range r.s.boards {
		if entry.RoomID == id {
			delete(r.s.boards, bid)
		}
	}
	return nil
}

func (s *Store) roomWithRelationsLocked(room *domain.Room) *domain.Room {
	clone := cloneRoom(room)
	if host, ok := s.users[room.HostID]; ok {
		hostClone := *host
		clone.Host = &hostClone
	}
	if room.QuizID != nil {
		if quiz, ok := s.quizzes[*room.QuizID]; ok {
			clone.Quiz = s.quizWithQuestionsLocked(quiz)
		}
	}
	return clone
}

func cloneRoom(room *domain.Room) *domain.Room {
	clone := *room
	clone.Players = append([]int64(nil), room.Players...)
	clone.Host = nil
	clone.Quiz = nil
	return &clone
}

type boardRepo struct{ s *Store }

func (r *boardRepo) CreateIfAbsent(_ context.Context, roomID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.boardLocked(roomID, userID) != nil {
		return nil
	}
	now := time.Now()
	entry := &domain.LeaderboardEntry{
		ID:        r.s.nextID(),
		RoomID:    roomID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.boards[entry.ID] = entry
	return nil
}

func (r *boardRepo) Apply(_ context.Context, roomID, userID int64, points, correctDelta, bonus int) (*domain.LeaderboardEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry := r.s.boardLocked(roomID, userID)
	if entry == nil {
		entry = &domain.LeaderboardEntry{
			ID:        r.s.nextID(),
			RoomID:    roomID,
			UserID:    userID,
			CreatedAt: time.Now(),
		}
		r.s.boards[entry.ID] = entry
	}
	entry.Score += points
	entry.CorrectAnswers += correctDelta
	entry.TimeBonus += bonus
	entry.UpdatedAt = time.Now()
	clone := *entry
	return &clone, nil
}

func (r *boardRepo) ForRoom(_ context.Context, roomID int64) ([]*domain.LeaderboardEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.LeaderboardEntry
	for _, entry := range r.s.boards {
		if entry.RoomID != roomID {
			continue
		}
		clone := *entry
		if user, ok := r.s.users[entry.UserID]; ok {
			userClone := *user
			clone.User = &userClone
		}
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *Store) boardLocked(roomID, userID int64) *domain.LeaderboardEntry {
	for _, entry := range s.boards {
		if entry.RoomID == roomID && entry.UserID == userID {
			return entry
		}
	}
	return nil
}

type questionSource struct{ s *Store }

func (r *questionSource) Question(_ context.Context, id int64) (*domain.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	clone := *q
	return &clone, nil
}

func (r *questionSource) QuizQuestions(_ context.Context, quizID int64) ([]*domain.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.quizzes[quizID]; !ok {
		return nil, domain.ErrQuizNotFound
	}
	return r.s.quizQuestionsLocked(quizID), nil
}
