package domain

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Room status values. A room always moves waiting -> playing -> finished;
// deletion happens implicitly when the last player leaves.
const (
	RoomWaiting  = "waiting"
	RoomPlaying  = "playing"
	RoomFinished = "finished"
)

// Difficulty levels accepted for quizzes.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Categories is the fixed set of quiz categories.
var Categories = []string{
	"Science",
	"History",
	"Geography",
	"Pop Culture",
	"Sports",
	"Technology",
	"General Knowledge",
	"Other",
}

// User is a registered player. The password column holds a bcrypt hash and is
// never serialized.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Username  string    `bun:"username,notnull,unique" json:"username"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	Avatar    string    `bun:"avatar" json:"avatar"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Public returns the view of a user that is safe to broadcast to a room.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// PublicUser carries the user fields exposed to other players.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Quiz owns an ordered set of questions. Deleting a quiz cascades to them.
type Quiz struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID            int64       `bun:"id,pk,autoincrement" json:"id"`
	Title         string      `bun:"title,notnull" json:"title"`
	Description   string      `bun:"description" json:"description"`
	Category      string      `bun:"category,notnull" json:"category"`
	Difficulty    string      `bun:"difficulty,notnull" json:"difficulty"`
	IsAIGenerated bool        `bun:"is_ai_generated,notnull,default:false" json:"isAIGenerated"`
	CreatedAt     time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time   `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
	Questions     []*Question `bun:"rel:has-many,join:id=quiz_id" json:"questions,omitempty"`
}

// Question is a single MCQ. CorrectAnswer indexes into Options and the
// invariant 0 <= CorrectAnswer < len(Options) holds for every stored row.
type Question struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	QuizID        int64     `bun:"quiz_id,notnull" json:"quizId"`
	Question      string    `bun:"question,notnull" json:"question"`
	Options       []string  `bun:"options,type:jsonb" json:"options"`
	CorrectAnswer int       `bun:"correct_answer,notnull" json:"-"`
	TimeLimit     int       `bun:"time_limit,notnull,default:30" json:"timeLimit"`
	Points        int       `bun:"points,notnull,default:100" json:"points"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Room is a joinable game session identified by a short code. Players holds
// ordered user IDs with the host first at creation time.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:r"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	Code            string    `bun:"code,notnull,unique" json:"code"`
	HostID          int64     `bun:"host_id,notnull" json:"hostId"`
	QuizID          *int64    `bun:"quiz_id" json:"quizId"`
	MaxPlayers      int       `bun:"max_players,notnull,default:10" json:"maxPlayers"`
	Status          string    `bun:"status,notnull,default:'waiting'" json:"status"`
	CurrentQuestion int       `bun:"current_question,notnull,default:0" json:"currentQuestion"`
	Players         []int64   `bun:"players,type:jsonb" json:"players"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Host *User `bun:"rel:belongs-to,join:host_id=id" json:"host,omitempty"`
	Quiz *Quiz `bun:"rel:belongs-to,join:quiz_id=id" json:"quiz,omitempty"`
}

// HasPlayer reports whether userID is on the roster.
func (r *Room) HasPlayer(userID int64) bool {
	for _, id := range r.Players {
		if id == userID {
			return true
		}
	}
	return false
}

// LeaderboardEntry is the per-user, per-room running score record. Updates
// are strictly additive, so scores never decrease within a session.
type LeaderboardEntry struct {
	bun.BaseModel `bun:"table:leaderboards,alias:lb"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	RoomID         int64     `bun:"room_id,notnull" json:"roomId"`
	UserID         int64     `bun:"user_id,notnull" json:"userId"`
	Score          int       `bun:"score,notnull,default:0" json:"score"`
	CorrectAnswers int       `bun:"correct_answers,notnull,default:0" json:"correctAnswers"`
	TimeBonus      int       `bun:"time_bonus,notnull,default:0" json:"timeBonus"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// QuestionPayload is the question view broadcast to players. The correct
// answer index is deliberately absent.
type QuestionPayload struct {
	ID             int64    `json:"id"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	TimeLimit      int      `json:"timeLimit"`
	Points         int      `json:"points"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
}

// QuizSummary accompanies the game-started event.
type QuizSummary struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	TotalQuestions int    `json:"totalQuestions"`
}

// AnswerResult summarizes a scored submission for one player. Points includes
// the time bonus when the answer was correct.
type AnswerResult struct {
	UserID    int64 `json:"userId"`
	IsCorrect bool  `json:"isCorrect"`
	Points    int   `json:"points"`
	TimeBonus int   `json:"timeBonus"`
}

// GeneratedQuestion is the shape returned by the question generator before it
// is persisted under a quiz.
type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Points        int      `json:"points"`
	TimeLimit     int      `json:"timeLimit"`
}

// PointsForDifficulty returns the default question reward per difficulty.
func PointsForDifficulty(difficulty string) int {
	switch difficulty {
	case DifficultyMedium:
		return 200
	case DifficultyHard:
		return 300
	default:
		return 100
	}
}

// TimeLimitForDifficulty returns the default per-question timer in seconds.
func TimeLimitForDifficulty(difficulty string) int {
	switch difficulty {
	case DifficultyMedium:
		return 45
	case DifficultyHard:
		return 60
	default:
		return 30
	}
}

// PlaceholderQuestions builds deterministic sample questions used when the
// upstream generator fails, so quiz creation never hard-fails.
func PlaceholderQuestions(category, difficulty string, count int) []GeneratedQuestion {
	points := PointsForDifficulty(difficulty)
	limit := TimeLimitForDifficulty(difficulty)
	questions := make([]GeneratedQuestion, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, GeneratedQuestion{
			Question:      fmt.Sprintf("Sample %s question %d (%s level)?", category, i+1, difficulty),
			Options:       []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectAnswer: 0,
			Points:        points,
			TimeLimit:     limit,
		})
	}
	return questions
}

// ValidCategory reports whether category is in the fixed set.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ValidDifficulty reports whether difficulty is easy, medium, or hard.
func ValidDifficulty(difficulty string) bool {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
