package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"quizroom/internal/domain"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Generator produces quiz questions through the Gemini generateContent API.
// It never fails: any upstream or parse error degrades to deterministic
// placeholder questions so quiz creation always succeeds.
type Generator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithBaseURL points the generator at a different endpoint (tests).
func WithBaseURL(url string) Option {
	return func(g *Generator) { g.baseURL = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Generator) { g.client = client }
}

func NewGenerator(apiKey, model string, logger *slog.Logger, opts ...Option) *Generator {
	if model == "" {
		model = defaultModel
	}
	g := &Generator{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns count questions for the category and difficulty. Results
// are validated; anything unusable is replaced by placeholders.
func (g *Generator) Generate(ctx context.Context, category, difficulty string, count int) []domain.GeneratedQuestion {
	if g.apiKey == "" {
		g.logger.Warn("gemini api key missing, using placeholder questions")
		return domain.PlaceholderQuestions(category, difficulty, count)
	}

	questions, err := g.request(ctx, category, difficulty, count)
	if err != nil {
		g.logger.Warn("question generation failed, using placeholders", "error", err)
		return domain.PlaceholderQuestions(category, difficulty, count)
	}

	points := domain.PointsForDifficulty(difficulty)
	limit := domain.TimeLimitForDifficulty(difficulty)
	placeholders := domain.PlaceholderQuestions(category, difficulty, count)

	out := make([]domain.GeneratedQuestion, 0, count)
	for i := 0; i < count; i++ {
		if i >= len(questions) {
			out = append(out, placeholders[i])
			continue
		}
		q := questions[i]
		if q.Points <= 0 {
			q.Points = points
		}
		if q.TimeLimit <= 0 {
			q.TimeLimit = limit
		}
		if !usable(q) {
			out = append(out, placeholders[i])
			continue
		}
		out = append(out, q)
	}
	return out
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Generator) request(ctx context.Context, category, difficulty string, count int) ([]domain.GeneratedQuestion, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt(category, difficulty, count)}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 2000,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	return parseQuestions(payload.Candidates[0].Content.Parts[0].Text)
}

func prompt(category, difficulty string, count int) string {
	points := domain.PointsForDifficulty(difficulty)
	limit := domain.TimeLimitForDifficulty(difficulty)
	return fmt.Sprintf(`Generate %d multiple choice quiz questions about %s with %s difficulty level.

For each question, provide:
1. The question text
2. Four answer options
3. The correct answer index (0, 1, 2, or 3)
4. Points value (%d)
5. Time limit in seconds (%d)

Return ONLY a valid JSON array with this exact structure, no markdown, no extra text:
[
  {
    "question": "Question text here?",
    "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
    "correctAnswer": 0,
    "points": %d,
    "timeLimit": %d
  }
]

Important:
- correctAnswer must be an integer representing the index of the correct option
- Return ONLY the JSON array, no markdown formatting, no code blocks
- Make sure questions are accurate and well-written`,
		count, category, difficulty, points, limit, points, limit)
}

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// parseQuestions tolerates the usual LLM output shapes: a bare JSON array, a
// fenced code block, or an array buried in surrounding prose.
func parseQuestions(text string) ([]domain.GeneratedQuestion, error) {
	var questions []domain.GeneratedQuestion
	if err := json.Unmarshal([]byte(text), &questions); err == nil {
		return questions, nil
	}

	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &questions); err == nil {
			return questions, nil
		}
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &questions); err == nil {
			return questions, nil
		}
	}

	return nil, fmt.Errorf("could not parse question payload")
}

func usable(q domain.GeneratedQuestion) bool {
	if strings.TrimSpace(q.Question) == "" {
		return false
	}
	if len(q.Options) < 2 || len(q.Options) > 4 {
		return false
	}
	return q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options)
}
