package http

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, env *testEnv, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + env.server.URL[len("http"):] + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": eventType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	u := "ws" + env.server.URL[len("http"):] + "/ws?token=garbage"
	if _, _, err := websocket.DefaultDialer.Dial(u, nil); err == nil {
		t.Fatal("expected dial to fail without a valid token")
	}
}

func TestWebSocketGameFlow(t *testing.T) {
	env := newTestEnv(t)
	host, hostToken := env.registerUser(t, "host")
	guest, guestToken := env.registerUser(t, "guest")
	quiz := env.seedQuiz(t, 1)

	room, err := env.rooms.Create(context.Background(), host.ID, &quiz.ID, 0)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	hostConn := dialWS(t, env, hostToken)
	guestConn := dialWS(t, env, guestToken)

	sendEvent(t, hostConn, "join-room", map[string]any{"roomCode": room.Code})
	_, payload := readNext(t, hostConn, "player-joined")
	if payload["totalPlayers"].(float64) != 1 {
		t.Fatalf("expected 1 live player, got %v", payload["totalPlayers"])
	}

	sendEvent(t, guestConn, "join-room", map[string]any{"roomCode": room.Code})
	_, payload = readNext(t, guestConn, "player-joined")
	if payload["player"].(map[string]any)["username"] != "guest" {
		t.Fatalf("unexpected join payload: %v", payload)
	}
	// The host sees the guest arrive too.
	_, payload = readNext(t, hostConn, "player-joined")
	if payload["totalPlayers"].(float64) != 2 {
		t.Fatalf("expected 2 live players, got %v", payload["totalPlayers"])
	}

	// Only the host may start.
	sendEvent(t, guestConn, "start-game", map[string]any{"roomCode": room.Code})
	readNext(t, guestConn, "start-game-error")

	sendEvent(t, hostConn, "start-game", map[string]any{"roomCode": room.Code})
	_, payload = readNext(t, hostConn, "game-started")
	question := payload["question"].(map[string]any)
	if question["questionNumber"].(float64) != 1 {
		t.Fatalf("expected question 1, got %v", question)
	}
	if _, leaked := question["correctAnswer"]; leaked {
		t.Fatal("correct answer must not reach clients")
	}
	questionID := question["id"].(float64)
	readNext(t, guestConn, "game-started")

	// Guest answers correctly with a full timer: 100 points + 50 bonus.
	sendEvent(t, guestConn, "submitAnswer", map[string]any{
		"roomCode":      room.Code,
		"questionId":    questionID,
		"answer":        1,
		"timeRemaining": 30,
	})
	_, payload = readNext(t, guestConn, "answerResult")
	if payload["userId"].(float64) != float64(guest.ID) || payload["isCorrect"] != true {
		t.Fatalf("unexpected answer result: %v", payload)
	}
	if payload["points"].(float64) != 150 || payload["timeBonus"].(float64) != 50 {
		t.Fatalf("expected 150/50, got %v", payload)
	}
	readNext(t, hostConn, "answerResult")

	// Advancing past the only question ends the game.
	sendEvent(t, hostConn, "nextQuestion", map[string]any{"roomCode": room.Code})
	_, payload = readNext(t, hostConn, "gameFinished")
	board := payload["leaderboard"].([]any)
	if len(board) != 2 {
		t.Fatalf("expected 2 leaderboard rows, got %d", len(board))
	}
	top := board[0].(map[string]any)
	if top["userId"].(float64) != float64(guest.ID) || top["score"].(float64) != 150 {
		t.Fatalf("expected guest on top with 150, got %v", top)
	}
	readNext(t, guestConn, "gameFinished")
}

func TestWebSocketLeaveRoom(t *testing.T) {
	env := newTestEnv(t)
	host, hostToken := env.registerUser(t, "host")
	_, guestToken := env.registerUser(t, "guest")

	room, err := env.rooms.Create(context.Background(), host.ID, nil, 0)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	hostConn := dialWS(t, env, hostToken)
	guestConn := dialWS(t, env, guestToken)

	sendEvent(t, hostConn, "join-room", map[string]any{"roomCode": room.Code})
	readNext(t, hostConn, "player-joined")
	sendEvent(t, guestConn, "join-room", map[string]any{"roomCode": room.Code})
	readNext(t, guestConn, "player-joined")
	readNext(t, hostConn, "player-joined")

	sendEvent(t, guestConn, "leave-room", map[string]any{"roomCode": room.Code})
	_, payload := readNext(t, hostConn, "player-left")
	if payload["totalPlayers"].(float64) != 1 {
		t.Fatalf("expected 1 live player after leave, got %v", payload["totalPlayers"])
	}

	// The roster shrank too.
	updated, err := env.rooms.Get(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if len(updated.Players) != 1 || updated.Players[0] != host.ID {
		t.Fatalf("expected only the host on the roster, got %v", updated.Players)
	}
}

func TestWebSocketSwitchRooms(t *testing.T) {
	env := newTestEnv(t)
	host, hostToken := env.registerUser(t, "host")
	rover, roverToken := env.registerUser(t, "rover")
	_, guestToken := env.registerUser(t, "guest")

	roomA, err := env.rooms.Create(context.Background(), host.ID, nil, 0)
	if err != nil {
		t.Fatalf("create room A: %v", err)
	}
	roomB, err := env.rooms.Create(context.Background(), rover.ID, nil, 0)
	if err != nil {
		t.Fatalf("create room B: %v", err)
	}

	hostConn := dialWS(t, env, hostToken)
	roverConn := dialWS(t, env, roverToken)

	sendEvent(t, hostConn, "join-room", map[string]any{"roomCode": roomA.Code})
	readNext(t, hostConn, "player-joined")
	sendEvent(t, roverConn, "join-room", map[string]any{"roomCode": roomA.Code})
	readNext(t, roverConn, "player-joined")
	readNext(t, hostConn, "player-joined")

	// Joining a second room moves the connection over; the first room sees
	// the player leave.
	sendEvent(t, roverConn, "join-room", map[string]any{"roomCode": roomB.Code})
	readNext(t, roverConn, "player-joined")
	_, payload := readNext(t, hostConn, "player-left")
	if payload["userId"].(float64) != float64(rover.ID) {
		t.Fatalf("expected rover to leave, got %v", payload)
	}
	if payload["totalPlayers"].(float64) != 1 {
		t.Fatalf("expected 1 live player left, got %v", payload["totalPlayers"])
	}

	// After the switcher's connection is gone, broadcasts to the first room
	// still reach its live members.
	roverConn.Close()
	guestConn := dialWS(t, env, guestToken)
	sendEvent(t, guestConn, "join-room", map[string]any{"roomCode": roomA.Code})
	_, payload = readNext(t, guestConn, "player-joined")
	if payload["totalPlayers"].(float64) != 2 {
		t.Fatalf("expected host and guest live, got %v", payload["totalPlayers"])
	}
	_, payload = readNext(t, hostConn, "player-joined")
	if payload["player"].(map[string]any)["username"] != "guest" {
		t.Fatalf("host missed the guest joining: %v", payload)
	}
}

func TestClientSendDropsOnFullBuffer(t *testing.T) {
	c := &client{send: make(chan Message, 1)}
	c.trySend(Message{Type: "first"})

	done := make(chan struct{})
	go func() {
		c.trySend(Message{Type: "second"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked on a full buffer")
	}
	if got := <-c.send; got.Type != "first" {
		t.Fatalf("expected the queued frame to survive, got %q", got.Type)
	}
}

func TestWebSocketJoinUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "alice")
	conn := dialWS(t, env, token)

	sendEvent(t, conn, "join-room", map[string]any{"roomCode": "ZZZZZZ"})
	readNext(t, conn, "join-room-error")
}
