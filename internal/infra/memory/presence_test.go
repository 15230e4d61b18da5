package memory

import (
	"testing"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

func TestPresenceTrackDropSnapshot(t *testing.T) {
	p := NewPresenceRegistry()

	p.Track("ROOM01", app.Member{User: domain.PublicUser{ID: 1, Username: "alice"}})
	p.Track("ROOM01", app.Member{User: domain.PublicUser{ID: 2, Username: "bob"}})
	p.Track("ROOM02", app.Member{User: domain.PublicUser{ID: 3, Username: "carol"}})

	if got := len(p.Snapshot("ROOM01")); got != 2 {
		t.Fatalf("expected 2 members, got %d", got)
	}

	// Tracking the same user twice replaces, not duplicates.
	p.Track("ROOM01", app.Member{User: domain.PublicUser{ID: 1, Username: "alice"}})
	if got := len(p.Snapshot("ROOM01")); got != 2 {
		t.Fatalf("expected 2 members after re-track, got %d", got)
	}

	p.Drop("ROOM01", 1)
	members := p.Snapshot("ROOM01")
	if len(members) != 1 || members[0].User.ID != 2 {
		t.Fatalf("expected only bob left, got %+v", members)
	}

	p.Clear("ROOM02")
	if got := len(p.Snapshot("ROOM02")); got != 0 {
		t.Fatalf("expected empty room after clear, got %d", got)
	}

	// Dropping from an unknown room is a no-op.
	p.Drop("NOPE", 1)
}
