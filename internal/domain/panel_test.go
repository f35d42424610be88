package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelSetupProgression(t *testing.T) {
	store := &PanelStore{}
	assert.Equal(t, PanelNotStarted, store.State)

	store.SelectSession(&AuctionSession{ID: "session-1"})
	assert.Equal(t, PanelSessionSelected, store.State)

	require.NoError(t, store.SelectVenue("venue-1"))
	assert.Equal(t, PanelVenueSelected, store.State)

	require.NoError(t, store.SelectDisplayGroup("group-1"))
	assert.Equal(t, PanelDisplayGroupSelected, store.State)

	require.NoError(t, store.StartBidding(true))
	assert.Equal(t, PanelBiddingStarted, store.State)
}

func TestPanelVenueBeforeSessionRefused(t *testing.T) {
	store := &PanelStore{}
	assert.ErrorIs(t, store.SelectVenue("venue-1"), ErrInvalidTransition)
	assert.Equal(t, PanelNotStarted, store.State)
}

func TestPanelDisplayGroupBeforeVenueRefused(t *testing.T) {
	store := &PanelStore{}
	store.SelectSession(&AuctionSession{ID: "session-1"})
	assert.ErrorIs(t, store.SelectDisplayGroup("group-1"), ErrInvalidTransition)
}

func TestPanelStartBiddingUnresolvedGroupFallsBack(t *testing.T) {
	store := &PanelStore{}
	store.SelectSession(&AuctionSession{ID: "session-1"})
	require.NoError(t, store.SelectVenue("venue-1"))
	require.NoError(t, store.SelectDisplayGroup("group-1"))

	assert.ErrorIs(t, store.StartBidding(false), ErrInvalidTransition)
	assert.Equal(t, PanelVenueSelected, store.State)
	assert.Empty(t, store.DisplayGroupID, "unresolved group must be cleared")
	assert.Equal(t, "venue-1", store.VenueID)
}

func TestPanelCompleteResetsEverything(t *testing.T) {
	store := &PanelStore{}
	store.SelectSession(&AuctionSession{ID: "session-1"})
	require.NoError(t, store.SelectVenue("venue-1"))
	require.NoError(t, store.SelectDisplayGroup("group-1"))
	store.CurrentLotID = "lot-1"

	store.Complete()
	assert.Equal(t, PanelStore{}, *store)
}

func TestEnsureConsistentRepairsStrandedBiddingState(t *testing.T) {
	store := &PanelStore{
		State:   PanelBiddingStarted,
		Session: &AuctionSession{ID: "session-1"},
		VenueID: "venue-1",
		// DisplayGroupID missing: an incomplete triple
	}

	assert.False(t, store.EnsureConsistent())
	assert.Equal(t, PanelStore{}, *store)
}

func TestEnsureConsistentKeepsCompleteBiddingState(t *testing.T) {
	store := &PanelStore{
		State:          PanelBiddingStarted,
		Session:        &AuctionSession{ID: "session-1"},
		VenueID:        "venue-1",
		DisplayGroupID: "group-1",
	}

	assert.True(t, store.EnsureConsistent())
	assert.Equal(t, PanelBiddingStarted, store.State)
}
