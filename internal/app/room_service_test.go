package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quizroom/internal/domain"
	"quizroom/internal/infra/memory"
)

func TestCreateRoom(t *testing.T) {
	store := memory.NewStore()
	svc := newRoomService(store)
	host := newUser(t, store, "host")

	room, err := svc.Create(context.Background(), host.ID, nil, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(room.Code) != 6 {
		t.Fatalf("expected 6-char code, got %q", room.Code)
	}
	for _, r := range room.Code {
		if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", r) {
			t.Fatalf("code %q contains %q outside the alphabet", room.Code, r)
		}
	}
	if room.Status != domain.RoomWaiting {
		t.Fatalf("expected waiting status, got %q", room.Status)
	}
	if room.MaxPlayers != 10 {
		t.Fatalf("expected default max players 10, got %d", room.MaxPlayers)
	}
	if len(room.Players) != 1 || room.Players[0] != host.ID {
		t.Fatalf("expected host on roster, got %v", room.Players)
	}

	board, err := svc.Leaderboard(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].UserID != host.ID || board[0].Score != 0 {
		t.Fatalf("expected zero-score host row, got %+v", board)
	}
}

func TestCreateRoomUnknownQuiz(t *testing.T) {
	store := memory.NewStore()
	svc := newRoomService(store)
	host := newUser(t, store, "host")

	missing := int64(999)
	if _, err := svc.Create(context.Background(), host.ID, &missing, 0); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestJoinRoom(t *testing.T) {
	store := memory.NewStore()
	svc := newRoomService(store)
	ctx := context.Background()
	host := newUser(t, store, "host")
	guest := newUser(t, store, "guest")

	room, err := svc.Create(ctx, host.ID, nil, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Codes match case-insensitively.
	joined, err := svc.Join(ctx, strings.ToLower(room.Code), guest.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(joined.Players) != 2 {
		t.Fatalf("expected 2 players, got %v", joined.Players)
	}

	if _, err := svc.Join(ctx, room.Code, guest.ID); !errors.Is(err, domain.ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	third := newUser(t, store, "third")
	if _, err := svc.Join(ctx, room.Code, third.ID); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}

	if _, err := svc.Join(ctx, "ZZZZZZ", guest.ID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinRejectedOnceStarted(t *testing.T) {
	store := memory.NewStore()
	rooms := newRoomService(store)
	game := newGameService(store)
	ctx := context.Background()
	host := newUser(t, store, "host")
	late := newUser(t, store, "late")
	quiz := newQuiz(t, store, 1)

	room, err := rooms.Create(ctx, host.ID, &quiz.ID, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := game.Start(ctx, room.Code, host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := rooms.Join(ctx, room.Code, late.ID); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress, got %v", err)
	}
}

func TestLeaveReassignsHost(t *testing.T) {
	store := memory.NewStore()
	svc := newRoomService(store)
	ctx := context.Background()
	host := newUser(t, store, "host")
	guest := newUser(t, store, "guest")

	room, err := svc.Create(ctx, host.ID, nil, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Join(ctx, room.Code, guest.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	updated, deleted, err := svc.Leave(ctx, room.ID, host.ID)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if deleted {
		t.Fatal("room must survive while players remain")
	}
	if updated.HostID != guest.ID {
		t.Fatalf("expected host reassigned to %d, got %d", guest.ID, updated.HostID)
	}

	_, deleted, err = svc.Leave(ctx, room.ID, guest.ID)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if !deleted {
		t.Fatal("expected room deleted when the last player leaves")
	}
	if _, err := svc.Get(ctx, room.ID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestAssignQuiz(t *testing.T) {
	store := memory.NewStore()
	svc := newRoomService(store)
	ctx := context.Background()
	host := newUser(t, store, "host")
	guest := newUser(t, store, "guest")
	quiz := newQuiz(t, store, 2)

	room, err := svc.Create(ctx, host.ID, nil, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Join(ctx, room.Code, guest.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := svc.AssignQuiz(ctx, room.ID, guest.ID, quiz.ID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if _, err := svc.AssignQuiz(ctx, room.ID, host.ID, 999); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	updated, err := svc.AssignQuiz(ctx, room.ID, host.ID, quiz.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.QuizID == nil || *updated.QuizID != quiz.ID {
		t.Fatalf("expected quiz %d assigned, got %v", quiz.ID, updated.QuizID)
	}
}

func TestDeleteRoomHostOnly(t *testing.T) {
	store := memory.NewStore()
	svc := newRoomService(store)
	ctx := context.Background()
	host := newUser(t, store, "host")
	guest := newUser(t, store, "guest")

	room, err := svc.Create(ctx, host.ID, nil, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Join(ctx, room.Code, guest.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.Delete(ctx, room.ID, guest.ID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := svc.Delete(ctx, room.ID, host.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, room.ID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomCodesUnique(t *testing.T) {
	store := memory.NewStore()
	svc := newRoomService(store)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		host := newUser(t, store, "host"+string(rune('a'+i)))
		room, err := svc.Create(ctx, host.ID, nil, 0)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[room.Code] {
			t.Fatalf("duplicate room code %q", room.Code)
		}
		seen[room.Code] = true
	}
}
