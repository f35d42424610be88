package hub

import (
	"sync"

	"auction-hub/internal/domain"
	"auction-hub/pkg/logger"
)

// SessionGroups maps auction session IDs to the display connections that
// should receive that session's broadcasts. Membership is recomputed from
// the session schedule on display connect/disconnect and rebuilt wholesale
// when an operator re-binds a display group.
type SessionGroups struct {
	mu      sync.RWMutex
	members map[string]map[string]domain.Connection // sessionID -> displayID -> conn
	log     logger.Logger
}

func NewSessionGroups(log logger.Logger) *SessionGroups {
	return &SessionGroups{
		members: make(map[string]map[string]domain.Connection),
		log:     log,
	}
}

func (g *SessionGroups) Add(sessionID, displayID string, conn domain.Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.members[sessionID] == nil {
		g.members[sessionID] = make(map[string]domain.Connection)
	}
	g.members[sessionID][displayID] = conn

	g.log.Info("Display joined session group", "auction_session_id", sessionID, "display_id", displayID)
}

func (g *SessionGroups) Remove(sessionID, displayID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if members, ok := g.members[sessionID]; ok {
		delete(members, displayID)
		if len(members) == 0 {
			delete(g.members, sessionID)
		}
	}
}

// RemoveEverywhere drops the display from every group it had joined. This is
// the disconnect backstop: it runs even when the schedule lookup that built
// the membership is no longer answerable.
func (g *SessionGroups) RemoveEverywhere(displayID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for sessionID, members := range g.members {
		if _, ok := members[displayID]; !ok {
			continue
		}
		delete(members, displayID)
		if len(members) == 0 {
			delete(g.members, sessionID)
		}
	}
}

// Clear empties the session's group ahead of a rebuild so stale members
// from a previous display-group assignment cannot leak into the new one.
func (g *SessionGroups) Clear(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, sessionID)
}

func (g *SessionGroups) Members(sessionID string) []domain.Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var conns []domain.Connection
	for _, conn := range g.members[sessionID] {
		conns = append(conns, conn)
	}
	return conns
}

func (g *SessionGroups) MemberIDs(sessionID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ids []string
	for displayID := range g.members[sessionID] {
		ids = append(ids, displayID)
	}
	return ids
}

func (g *SessionGroups) Member(sessionID, displayID string) domain.Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if members, ok := g.members[sessionID]; ok {
		return members[displayID]
	}
	return nil
}
