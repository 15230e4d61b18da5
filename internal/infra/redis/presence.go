package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizroom/internal/app"
)

// PresenceRegistry is a Redis-aware implementation of app.PresenceRegistry.
// Notes:
//   - Membership itself stays in a local map so broadcast fan-out never waits
//     on a network round-trip.
//   - Redis keeps a liveness marker per room (and could be extended to share
//     member snapshots or route cross-instance pub/sub).
type PresenceRegistry struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]map[int64]app.Member
}

func NewPresenceRegistry(client *redis.Client, ttl time.Duration) *PresenceRegistry {
	return &PresenceRegistry{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]map[int64]app.Member),
	}
}

func (p *PresenceRegistry) Track(code string, member app.Member) {
	p.mu.Lock()
	defer p.mu.Unlock()
	room, ok := p.rooms[code]
	if !ok {
		room = make(map[int64]app.Member)
		p.rooms[code] = room
	}
	room[member.User.ID] = member
	// best-effort liveness marker
	_ = p.client.Set(context.Background(), p.key(code), "1", p.ttl).Err()
}

func (p *PresenceRegistry) Drop(code string, userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	room, ok := p.rooms[code]
	if !ok {
		return
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(p.rooms, code)
		_ = p.client.Del(context.Background(), p.key(code)).Err()
	}
}

func (p *PresenceRegistry) Snapshot(code string) []app.Member {
	p.mu.RLock()
	defer p.mu.RUnlock()
	room := p.rooms[code]
	members := make([]app.Member, 0, len(room))
	for _, member := range room {
		members = append(members, member)
	}
	return members
}

func (p *PresenceRegistry) Clear(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rooms, code)
	_ = p.client.Del(context.Background(), p.key(code)).Err()
}

func (p *PresenceRegistry) key(code string) string {
	return "room:presence:" + code
}
