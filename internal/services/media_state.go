package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"auction-hub/internal/domain"
)

// MediaPlayback is the per-session media timing record: what is playing,
// when it started (as the formatted UTC string sent to displays), and how
// long it has sat paused in total.
type MediaPlayback struct {
	MediaID     string
	StartedAt   time.Time
	StartedUTC  string
	Paused      bool
	PausedAt    time.Time
	PausedTotal time.Duration
}

// Elapsed is playback position at the given instant, net of paused time.
func (m MediaPlayback) Elapsed(now time.Time) time.Duration {
	if m.Paused {
		return m.PausedAt.Sub(m.StartedAt) - m.PausedTotal
	}
	return now.Sub(m.StartedAt) - m.PausedTotal
}

// MediaState holds media playback attributes per auction session. A record
// exists only while a session is showing media; Start replaces any prior
// record for the session.
type MediaState struct {
	mu       sync.Mutex
	sessions map[string]*MediaPlayback
	clock    clockwork.Clock
}

func NewMediaState(clock clockwork.Clock) *MediaState {
	return &MediaState{
		sessions: make(map[string]*MediaPlayback),
		clock:    clock,
	}
}

func (s *MediaState) Start(sessionID, mediaID string) MediaPlayback {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	mp := &MediaPlayback{
		MediaID:    mediaID,
		StartedAt:  now,
		StartedUTC: now.Format(domain.TimestampLayout),
	}
	s.sessions[sessionID] = mp
	return *mp
}

func (s *MediaState) Pause(sessionID string) (MediaPlayback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mp, ok := s.sessions[sessionID]
	if !ok || mp.Paused {
		return MediaPlayback{}, false
	}
	mp.Paused = true
	mp.PausedAt = s.clock.Now().UTC()
	return *mp, true
}

func (s *MediaState) Unpause(sessionID string) (MediaPlayback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mp, ok := s.sessions[sessionID]
	if !ok || !mp.Paused {
		return MediaPlayback{}, false
	}
	mp.PausedTotal += s.clock.Now().UTC().Sub(mp.PausedAt)
	mp.Paused = false
	mp.PausedAt = time.Time{}
	return *mp, true
}

func (s *MediaState) Current(sessionID string) (MediaPlayback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mp, ok := s.sessions[sessionID]
	if !ok {
		return MediaPlayback{}, false
	}
	return *mp, true
}

func (s *MediaState) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
