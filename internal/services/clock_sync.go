package services

import (
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"auction-hub/internal/domain"
	"auction-hub/pkg/logger"
)

// ClockSyncRequest is one round of the two-way clock synchronisation
// protocol as reported by a device. MaxDifference echoes the value from the
// previous round; a zero value marks the start of a fresh run.
type ClockSyncRequest struct {
	Timestamp     string  `json:"timestamp"`
	MinDifference float64 `json:"minDifference"`
	MaxDifference float64 `json:"maxDifference"`
}

// ClockSyncReply carries the updated bound and the server's current time
// back to the device so it can iterate.
type ClockSyncReply struct {
	MaxDifference float64 `json:"maxDifference"`
	ServerTime    string  `json:"serverTime"`
}

// ClockSyncEngine estimates per-connection one-way latency and clock offset
// from repeated timestamp exchanges. Estimates are never shared between
// connections; each display and panel runs its own accumulation.
type ClockSyncEngine struct {
	clock clockwork.Clock
	log   logger.Logger
}

func NewClockSyncEngine(clock clockwork.Clock, log logger.Logger) *ClockSyncEngine {
	return &ClockSyncEngine{
		clock: clock,
		log:   log,
	}
}

// Round folds one device report into the connection's accumulated sample.
// The returned sample replaces the prior one; the reply goes back to the
// caller only. An unparsable timestamp leaves the prior sample untouched.
func (e *ClockSyncEngine) Round(prior domain.ClockSample, req ClockSyncRequest) (domain.ClockSample, ClockSyncReply, error) {
	if req.MaxDifference == 0 {
		// No carried-over bound means the device started a fresh run.
		prior = domain.ClockSample{MaxDifference: math.Inf(-1)}
	}

	clientTime, err := time.ParseInLocation(domain.TimestampLayout, req.Timestamp, time.UTC)
	if err != nil {
		return prior, ClockSyncReply{}, fmt.Errorf("parse client timestamp %q: %w", req.Timestamp, err)
	}

	serverTime := e.clock.Now().UTC()
	candidate := float64(clientTime.Sub(serverTime)) / float64(time.Millisecond)
	maxDiff := math.Max(prior.MaxDifference, candidate)

	next := domain.ClockSample{
		MinDifference: req.MinDifference,
		MaxDifference: maxDiff,
	}
	if req.MinDifference != 0 {
		// Midpoint of the reported window estimates one-way latency.
		next.TimingOffset = req.MinDifference + (maxDiff-req.MinDifference)/2
	} else {
		next.TimingOffset = maxDiff
	}

	reply := ClockSyncReply{
		MaxDifference: maxDiff,
		ServerTime:    serverTime.Format(domain.TimestampLayout),
	}
	return next, reply, nil
}
