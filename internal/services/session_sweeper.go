package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"auction-hub/internal/hub"
	"auction-hub/pkg/logger"
)

// SessionSweeper periodically completes sessions an operator walked away
// from: any panel-held session still flagged in-session whose finish date
// has passed gets finished and its group torn down, exactly as if the
// operator had completed it.
type SessionSweeper struct {
	cron        *cron.Cron
	registry    *hub.Registry
	coordinator *Coordinator
	clock       clockwork.Clock
	interval    string
	log         logger.Logger
}

func NewSessionSweeper(registry *hub.Registry, coordinator *Coordinator,
	clock clockwork.Clock, interval time.Duration, log logger.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{
		cron:        cron.New(),
		registry:    registry,
		coordinator: coordinator,
		clock:       clock,
		interval:    fmt.Sprintf("@every %s", interval),
		log:         log,
	}
}

func (s *SessionSweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.interval, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	s.cron.Start()
	s.log.Info("Session sweeper started", "interval", s.interval)
	return nil
}

func (s *SessionSweeper) Stop() error {
	s.cron.Stop()
	return nil
}

// Sweep runs one pass over every connected panel's held session.
func (s *SessionSweeper) Sweep(ctx context.Context) {
	now := s.clock.Now().UTC()
	for _, pc := range s.registry.Panels() {
		store := pc.Store()
		session := store.Session
		if session == nil || !session.InSession || session.FinishDate == nil {
			continue
		}
		if session.FinishDate.After(now) {
			continue
		}

		s.log.Info("Sweeping overrun auction session",
			"auction_session_id", session.ID, "panel_id", pc.PanelID,
			"finish_date", session.FinishDate)
		if err := s.coordinator.CompleteAuctionSession(ctx, pc, session.ID); err != nil {
			s.log.Error("Failed to sweep auction session",
				"auction_session_id", session.ID, "error", err)
		}
	}
}
