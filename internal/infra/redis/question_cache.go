package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

// QuestionCache caches the game read path (per-question scoring data and
// per-quiz question lists) in Redis and falls back to the inner source on a
// miss. Keys:
//
//	question:{questionID}      question row as JSON
//	quiz:{quizID}:questions    ordered question IDs as JSON
type QuestionCache struct {
	client *redis.Client
	inner  app.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

// cachedQuestion is the wire form stored in Redis. The domain model hides
// CorrectAnswer from JSON, but the cache must keep it to score answers.
type cachedQuestion struct {
	ID            int64    `json:"id"`
	QuizID        int64    `json:"quizId"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	TimeLimit     int      `json:"timeLimit"`
	Points        int      `json:"points"`
}

func toCached(q *domain.Question) cachedQuestion {
	return cachedQuestion{
		ID:            q.ID,
		QuizID:        q.QuizID,
		Question:      q.Question,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		TimeLimit:     q.TimeLimit,
		Points:        q.Points,
	}
}

func (c cachedQuestion) toDomain() *domain.Question {
	return &domain.Question{
		ID:            c.ID,
		QuizID:        c.QuizID,
		Question:      c.Question,
		Options:       c.Options,
		CorrectAnswer: c.CorrectAnswer,
		TimeLimit:     c.TimeLimit,
		Points:        c.Points,
	}
}

func NewQuestionCache(client *redis.Client, inner app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Question(ctx context.Context, id int64) (*domain.Question, error) {
	key := questionKey(id)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var cq cachedQuestion
		if err := json.Unmarshal([]byte(raw), &cq); err == nil {
			return cq.toDomain(), nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			var cq cachedQuestion
			if err := json.Unmarshal([]byte(raw), &cq); err == nil {
				return cq.toDomain(), nil
			}
		}
		q, err := c.inner.Question(ctx, id)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(toCached(q)); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Question), nil
}

func (c *QuestionCache) QuizQuestions(ctx context.Context, quizID int64) ([]*domain.Question, error) {
	listKey := quizQuestionsKey(quizID)
	if raw, err := c.client.Get(ctx, listKey).Result(); err == nil {
		if questions, ok := c.readList(ctx, raw); ok {
			return questions, nil
		}
	}

	result, err, _ := c.sf.Do(listKey, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, listKey).Result(); err == nil {
			if questions, ok := c.readList(ctx, raw); ok {
				return questions, nil
			}
		}
		questions, err := c.inner.QuizQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}

		ids := make([]int64, 0, len(questions))
		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		for _, q := range questions {
			ids = append(ids, q.ID)
			if data, err := json.Marshal(toCached(q)); err == nil {
				pipe.Set(ctx, questionKey(q.ID), data, ttl)
			}
		}
		if data, err := json.Marshal(ids); err == nil {
			pipe.Set(ctx, listKey, data, ttl)
		}
		_, _ = pipe.Exec(ctx)
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*domain.Question), nil
}

// readList resolves a cached ID list into question rows; any missing row
// invalidates the whole list so the caller reloads from the source.
func (c *QuestionCache) readList(ctx context.Context, raw string) ([]*domain.Question, bool) {
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	questions := make([]*domain.Question, 0, len(ids))
	for _, id := range ids {
		data, err := c.client.Get(ctx, questionKey(id)).Result()
		if err != nil {
			return nil, false
		}
		var cq cachedQuestion
		if err := json.Unmarshal([]byte(data), &cq); err != nil {
			return nil, false
		}
		questions = append(questions, cq.toDomain())
	}
	return questions, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func questionKey(id int64) string {
	return "question:" + strconv.FormatInt(id, 10)
}

func quizQuestionsKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":questions"
}
