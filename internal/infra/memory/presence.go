package memory

import (
	"sync"

	"quizroom/internal/app"
)

// PresenceRegistry is the process-local implementation of
// app.PresenceRegistry. It tracks live connections per room code and is
// discarded with the process; persisted room rows stay authoritative.
type PresenceRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[int64]app.Member
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{rooms: make(map[string]map[int64]app.Member)}
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
}
