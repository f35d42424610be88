package services

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-hub/internal/domain"
	"auction-hub/pkg/logger"
)

var syncEpoch = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newSyncEngine(t *testing.T) (*ClockSyncEngine, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(syncEpoch)
	return NewClockSyncEngine(clock, logger.NewNop()), clock
}

// stamp renders a client clock that runs offsetMs ahead of the server.
func stamp(clock clockwork.Clock, offsetMs int64) string {
	return clock.Now().UTC().Add(time.Duration(offsetMs) * time.Millisecond).Format(domain.TimestampLayout)
}

func TestRoundFreshRunDiscardsPriorState(t *testing.T) {
	engine, clock := newSyncEngine(t)

	prior := domain.ClockSample{MinDifference: 5, MaxDifference: 900, TimingOffset: 450}

	// A report without a carried-over max difference starts over. The old
	// 900ms bound must not survive into the new run.
	next, reply, err := engine.Round(prior, ClockSyncRequest{
		Timestamp:     stamp(clock, 40),
		MaxDifference: 0,
	})
	require.NoError(t, err)
	assert.InDelta(t, 40, next.MaxDifference, 1)
	assert.InDelta(t, 40, reply.MaxDifference, 1)
}

func TestRoundMaxDifferenceNeverDecreases(t *testing.T) {
	engine, clock := newSyncEngine(t)

	sample := domain.ClockSample{MaxDifference: math.Inf(-1)}
	offsets := []int64{10, 35, 20, 60, 5}
	var recorded []float64

	maxDiff := 0.0
	for i, off := range offsets {
		req := ClockSyncRequest{Timestamp: stamp(clock, off), MaxDifference: maxDiff}
		if i == 0 {
			req.MaxDifference = 0 // first report of the run
		}
		var err error
		sample, _, err = engine.Round(sample, req)
		require.NoError(t, err)
		recorded = append(recorded, sample.MaxDifference)
		maxDiff = sample.MaxDifference
	}

	for i := 1; i < len(recorded); i++ {
		assert.GreaterOrEqual(t, recorded[i], recorded[i-1],
			"max difference decreased between rounds %d and %d", i-1, i)
	}
	assert.InDelta(t, 60, recorded[len(recorded)-1], 1)
}

func TestRoundMidpointOffsetWithMinDifference(t *testing.T) {
	engine, clock := newSyncEngine(t)

	next, _, err := engine.Round(domain.ClockSample{MaxDifference: 10}, ClockSyncRequest{
		Timestamp:     stamp(clock, 50),
		MinDifference: 20,
		MaxDifference: 10,
	})
	require.NoError(t, err)

	// offset = min + (max-min)/2 with max = 50
	assert.InDelta(t, 35, next.TimingOffset, 1)
}

func TestRoundDegenerateOffsetWithoutMinDifference(t *testing.T) {
	engine, clock := newSyncEngine(t)

	next, _, err := engine.Round(domain.ClockSample{}, ClockSyncRequest{
		Timestamp:     stamp(clock, 50),
		MinDifference: 0,
		MaxDifference: 0,
	})
	require.NoError(t, err)

	// Until the device reports a min difference the raw max is the offset.
	assert.InDelta(t, 50, next.TimingOffset, 1)
	assert.Equal(t, next.MaxDifference, next.TimingOffset)
}

func TestRoundUnparsableTimestampKeepsPriorSample(t *testing.T) {
	engine, _ := newSyncEngine(t)

	prior := domain.ClockSample{MinDifference: 3, MaxDifference: 44, TimingOffset: 23.5}
	got, _, err := engine.Round(prior, ClockSyncRequest{
		Timestamp:     "not a timestamp",
		MaxDifference: 44,
	})
	require.Error(t, err)
	assert.Equal(t, prior, got)
}

func TestRoundEchoesServerTime(t *testing.T) {
	engine, clock := newSyncEngine(t)

	_, reply, err := engine.Round(domain.ClockSample{}, ClockSyncRequest{
		Timestamp: stamp(clock, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, syncEpoch.Format(domain.TimestampLayout), reply.ServerTime)
}
