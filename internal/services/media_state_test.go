package services

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-hub/internal/domain"
)

func TestMediaElapsedAccountsForPauses(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC))
	media := NewMediaState(clock)

	media.Start("session-1", "media-1")

	clock.Advance(10 * time.Second)
	mp, ok := media.Pause("session-1")
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, mp.Elapsed(clock.Now().UTC()))

	// Paused time doesn't count towards playback position.
	clock.Advance(30 * time.Second)
	mp, _ = media.Current("session-1")
	assert.Equal(t, 10*time.Second, mp.Elapsed(clock.Now().UTC()))

	mp, ok = media.Unpause("session-1")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, mp.PausedTotal)

	clock.Advance(5 * time.Second)
	mp, _ = media.Current("session-1")
	assert.Equal(t, 15*time.Second, mp.Elapsed(clock.Now().UTC()))
}

func TestMediaDoublePauseRefused(t *testing.T) {
	clock := clockwork.NewFakeClock()
	media := NewMediaState(clock)

	media.Start("session-1", "media-1")
	_, ok := media.Pause("session-1")
	require.True(t, ok)
	_, ok = media.Pause("session-1")
	assert.False(t, ok)

	_, ok = media.Unpause("session-1")
	require.True(t, ok)
	_, ok = media.Unpause("session-1")
	assert.False(t, ok)
}

func TestMediaStartReplacesPriorRecord(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC))
	media := NewMediaState(clock)

	media.Start("session-1", "media-1")
	clock.Advance(42 * time.Second)
	media.Pause("session-1")

	mp := media.Start("session-1", "media-2")
	assert.Equal(t, "media-2", mp.MediaID)
	assert.False(t, mp.Paused)
	assert.Zero(t, mp.PausedTotal)
	assert.Equal(t, clock.Now().UTC().Format(domain.TimestampLayout), mp.StartedUTC)
}

func TestMediaClear(t *testing.T) {
	media := NewMediaState(clockwork.NewFakeClock())
	media.Start("session-1", "media-1")
	media.Clear("session-1")

	_, ok := media.Current("session-1")
	assert.False(t, ok)
}
