package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"quizroom/internal/app"
	"quizroom/internal/auth"
	"quizroom/internal/domain"
)

// WSHandler owns the realtime side of the game: lobby membership, game flow
// events, and answer submission. Every frame is a tagged Message; events that
// affect the whole room go through the Hub.
type WSHandler struct {
	tokens   *auth.TokenManager
	users    *app.AuthService
	rooms    *app.RoomService
	game     *app.GameService
	presence app.PresenceRegistry
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(tokens *auth.TokenManager, users *app.AuthService, rooms *app.RoomService, game *app.GameService, presence app.PresenceRegistry, hub *Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		tokens:   tokens,
		users:    users,
		rooms:    rooms,
		game:     game,
		presence: presence,
		hub:      hub,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// client is one live websocket connection. Writes go through send so only the
// writer goroutine touches the conn.
type client struct {
	conn     *websocket.Conn
	send     chan Message
	user     domain.PublicUser
	roomCode string
}

// trySend queues msg for the writer goroutine without blocking, dropping the
// frame if the buffer is full or the writer stopped draining after a write
// error.
func (c *client) trySend(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomCodePayload struct {
	RoomCode string `json:"roomCode"`
}

type submitAnswerPayload struct {
	RoomCode      string `json:"roomCode"`
	QuestionID    int64  `json:"questionId"`
	Answer        *int   `json:"answer"`
	TimeRemaining int    `json:"timeRemaining"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type playerJoinedPayload struct {
	Player       domain.PublicUser   `json:"player"`
	Players      []domain.PublicUser `json:"players"`
	TotalPlayers int                 `json:"totalPlayers"`
}

type playerLeftPayload struct {
	UserID       int64               `json:"userId"`
	Players      []domain.PublicUser `json:"players"`
	TotalPlayers int                 `json:"totalPlayers"`
}

type gameStartedPayload struct {
	Quiz     domain.QuizSummary     `json:"quiz"`
	Question domain.QuestionPayload `json:"question"`
}

type answerResultPayload struct {
	UserID      int64                     `json:"userId"`
	IsCorrect   bool                      `json:"isCorrect"`
	Points      int                       `json:"points"`
	TimeBonus   int                       `json:"timeBonus"`
	Leaderboard []*domain.LeaderboardEntry `json:"leaderboard"`
}

type gameFinishedPayload struct {
	Leaderboard []*domain.LeaderboardEntry `json:"leaderboard"`
}

// ServeWS authenticates the token query parameter, upgrades the connection,
// and pumps events until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Message, 16),
		user: user.Public(),
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	h.readLoop(r, c)

	h.detach(c)
	close(c.send)
	<-writerDone
	_ = conn.Close()
}

func (h *WSHandler) readLoop(r *http.Request, c *client) {
	for {
		var inbound inboundMessage
		if err := c.conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "join-room":
			h.handleJoin(r, c, inbound.Payload)
		case "leave-room":
			h.handleLeave(r, c, inbound.Payload)
		case "start-game":
			h.handleStart(r, c, inbound.Payload)
		case "submitAnswer":
			h.handleAnswer(r, c, inbound.Payload)
		case "nextQuestion":
			h.handleNext(r, c, inbound.Payload)
		default:
			c.trySend(Message{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}

func (h *WSHandler) handleJoin(r *http.Request, c *client, raw json.RawMessage) {
	var payload roomCodePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.trySend(Message{Type: "join-room-error", Payload: errorPayload{Message: "roomCode is required"}})
		return
	}
	code := strings.ToUpper(payload.RoomCode)

	room, err := h.rooms.GetByCode(r.Context(), code)
	if err != nil {
		c.trySend(Message{Type: "join-room-error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// Switching rooms detaches the connection from its current one first;
	// a stale hub entry would otherwise outlive the connection.
	if c.roomCode != "" && c.roomCode != code {
		h.detach(c)
	}

	if !room.HasPlayer(c.user.ID) {
		// A reconnecting roster member skips the join; everyone else goes
		// through the full guard set (status, capacity).
		if _, err := h.rooms.Join(r.Context(), code, c.user.ID); err != nil && !errors.Is(err, domain.ErrAlreadyJoined) {
			c.trySend(Message{Type: "join-room-error", Payload: errorPayload{Message: err.Error()}})
			return
		}
	}

	c.roomCode = code
	h.hub.join(code, c)
	h.presence.Track(code, app.Member{User: c.user, ConnID: c.conn.RemoteAddr().String()})

	h.hub.Broadcast(code, Message{Type: "player-joined", Payload: h.rosterPayload(code, c.user)})
}

func (h *WSHandler) handleLeave(r *http.Request, c *client, raw json.RawMessage) {
	var payload roomCodePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.trySend(Message{Type: "error", Payload: errorPayload{Message: "roomCode is required"}})
		return
	}
	code := strings.ToUpper(payload.RoomCode)

	if _, deleted, err := h.rooms.LeaveByCode(r.Context(), code, c.user.ID); err != nil {
		c.trySend(Message{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	} else if deleted {
		h.presence.Clear(code)
	} else {
		h.presence.Drop(code, c.user.ID)
	}

	// Only drop the hub registration when the payload names the room this
	// connection is attached to; leaving another room over REST semantics
	// must not strand a live hub entry.
	if c.roomCode == code {
		h.hub.leave(code, c)
		c.roomCode = ""
	}

	members := h.presence.Snapshot(code)
	h.hub.Broadcast(code, Message{Type: "player-left", Payload: playerLeftPayload{
		UserID:       c.user.ID,
		Players:      memberUsers(members),
		TotalPlayers: len(members),
	}})
}

func (h *WSHandler) handleStart(r *http.Request, c *client, raw json.RawMessage) {
	var payload roomCodePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.trySend(Message{Type: "start-game-error", Payload: errorPayload{Message: "roomCode is required"}})
		return
	}
	code := strings.ToUpper(payload.RoomCode)

	quiz, question, err := h.game.Start(r.Context(), code, c.user.ID)
	if err != nil {
		c.trySend(Message{Type: "start-game-error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	h.hub.Broadcast(code, Message{Type: "game-started", Payload: gameStartedPayload{Quiz: quiz, Question: question}})
}

func (h *WSHandler) handleAnswer(r *http.Request, c *client, raw json.RawMessage) {
	var payload submitAnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.trySend(Message{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
		return
	}
	code := strings.ToUpper(payload.RoomCode)

	result, board, err := h.game.SubmitAnswer(r.Context(), code, c.user.ID, payload.QuestionID, payload.Answer, payload.TimeRemaining)
	if err != nil {
		c.trySend(Message{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	h.hub.Broadcast(code, Message{Type: "answerResult", Payload: answerResultPayload{
		UserID:      result.UserID,
		IsCorrect:   result.IsCorrect,
		Points:      result.Points,
		TimeBonus:   result.TimeBonus,
		Leaderboard: board,
	}})
}

func (h *WSHandler) handleNext(r *http.Request, c *client, raw json.RawMessage) {
	var payload roomCodePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.trySend(Message{Type: "error", Payload: errorPayload{Message: "roomCode is required"}})
		return
	}
	code := strings.ToUpper(payload.RoomCode)

	question, board, err := h.game.Advance(r.Context(), code)
	if err != nil {
		c.trySend(Message{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if question == nil {
		h.hub.Broadcast(code, Message{Type: "gameFinished", Payload: gameFinishedPayload{Leaderboard: board}})
		return
	}
	h.hub.Broadcast(code, Message{Type: "nextQuestion", Payload: question})
}

// detach removes the connection from its current room's hub and presence and
// tells the room, leaving the persisted roster untouched. It covers both an
// abrupt disconnect and a join-room that switches rooms; the persisted roster
// keeps the player so they can rejoin.
func (h *WSHandler) detach(c *client) {
	code := c.roomCode
	if code == "" {
		return
	}
	h.hub.leave(code, c)
	h.presence.Drop(code, c.user.ID)
	c.roomCode = ""

	members := h.presence.Snapshot(code)
	h.hub.Broadcast(code, Message{Type: "player-left", Payload: playerLeftPayload{
		UserID:       c.user.ID,
		Players:      memberUsers(members),
		TotalPlayers: len(members),
	}})
}

func (h *WSHandler) rosterPayload(code string, joined domain.PublicUser) playerJoinedPayload {
	members := h.presence.Snapshot(code)
	return playerJoinedPayload{
		Player:       joined,
		Players:      memberUsers(members),
		TotalPlayers: len(members),
	}
}

func memberUsers(members []app.Member) []domain.PublicUser {
	users := make([]domain.PublicUser, 0, len(members))
	for _, m := range members {
		users = append(users, m.User)
	}
	return users
}
