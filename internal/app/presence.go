package app

import "quizroom/internal/domain"

// Member is a live room participant as seen by the presence registry.
type Member struct {
	User   domain.PublicUser `json:"user"`
	ConnID string            `json:"-"`
}

// PresenceRegistry tracks which connections are currently in which room. It
// is a per-process cache only; the persisted room roster remains the source
// of truth for membership.
type PresenceRegistry interface {
	Track(code string, member Member)
	Drop(code string, userID int64)
	Snapshot(code string) []Member
	Clear(code string)
}
