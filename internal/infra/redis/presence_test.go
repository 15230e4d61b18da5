package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

func TestPresenceLivenessKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewPresenceRegistry(client, time.Minute)

	p.Track("ROOM01", app.Member{User: domain.PublicUser{ID: 1, Username: "alice"}})
	p.Track("ROOM01", app.Member{User: domain.PublicUser{ID: 2, Username: "bob"}})

	if !mr.Exists("room:presence:ROOM01") {
		t.Fatal("expected liveness key after track")
	}
	if got := len(p.Snapshot("ROOM01")); got != 2 {
		t.Fatalf("expected 2 members, got %d", got)
	}

	p.Drop("ROOM01", 1)
	if !mr.Exists("room:presence:ROOM01") {
		t.Fatal("liveness key must survive while members remain")
	}

	p.Drop("ROOM01", 2)
	if mr.Exists("room:presence:ROOM01") {
		t.Fatal("expected liveness key gone once the room empties")
	}

	p.Track("ROOM02", app.Member{User: domain.PublicUser{ID: 3, Username: "carol"}})
	p.Clear("ROOM02")
	if mr.Exists("room:presence:ROOM02") {
		t.Fatal("expected liveness key gone after clear")
	}
	if got := len(p.Snapshot("ROOM02")); got != 0 {
		t.Fatalf("expected no members after clear, got %d", got)
	}
}
