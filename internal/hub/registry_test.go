package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-hub/internal/domain"
	"auction-hub/pkg/logger"
)

// fakeConn records everything sent through it.
type fakeConn struct {
	mu     sync.Mutex
	sent   []Envelope
	closed bool
}

func (f *fakeConn) Send(message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if env, ok := message.(Envelope); ok {
		f.sent = append(f.sent, env)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) CloseAfterFlush() error {
	return f.Close()
}

func (f *fakeConn) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, env := range f.sent {
		names = append(names, env.Event)
	}
	return names
}

func TestConnectDisplayKeepsIncumbent(t *testing.T) {
	registry := NewRegistry(logger.NewNop())
	first := &fakeConn{}
	second := &fakeConn{}

	dc, err := registry.ConnectDisplay("display-1", "Australia/Sydney", first)
	require.NoError(t, err)

	incumbent, err := registry.ConnectDisplay("display-1", "Australia/Sydney", second)
	assert.ErrorIs(t, err, ErrDisplayAlreadyConnected)
	assert.Same(t, dc, incumbent, "incumbent record must be returned untouched")
	assert.Same(t, domain.Connection(first), registry.Display("display-1").Conn())
}

func TestDisconnectDisplayIgnoresStaleHandle(t *testing.T) {
	registry := NewRegistry(logger.NewNop())
	live := &fakeConn{}
	stale := &fakeConn{}

	_, err := registry.ConnectDisplay("display-1", "UTC", live)
	require.NoError(t, err)

	assert.Nil(t, registry.DisconnectDisplay("display-1", stale))
	assert.NotNil(t, registry.Display("display-1"))

	assert.NotNil(t, registry.DisconnectDisplay("display-1", live))
	assert.Nil(t, registry.Display("display-1"))
}

func TestConnectPanelNewcomerWins(t *testing.T) {
	registry := NewRegistry(logger.NewNop())
	first := &fakeConn{}
	second := &fakeConn{}

	pc, evicted := registry.ConnectPanel("operator-7", first)
	assert.Nil(t, evicted)

	session := &domain.AuctionSession{ID: "session-1"}
	pc.Mutate(func(s *domain.PanelStore) {
		s.SelectSession(session)
		s.SelectVenue("venue-1")
		s.SelectDisplayGroup("group-1")
		s.StartBidding(true)
		s.CurrentLotID = "lot-9"
	})

	again, evicted := registry.ConnectPanel("operator-7", second)
	assert.Same(t, pc, again, "one live registry entry per panel ID")
	assert.Same(t, domain.Connection(first), evicted)
	assert.Same(t, domain.Connection(second), again.Conn())

	store := again.Store()
	assert.Equal(t, domain.PanelBiddingStarted, store.State)
	assert.Equal(t, "session-1", store.Session.ID)
	assert.Equal(t, "venue-1", store.VenueID)
	assert.Equal(t, "group-1", store.DisplayGroupID)
	assert.Equal(t, "lot-9", store.CurrentLotID)
}

func TestConnectPanelResetsInconsistentBiddingState(t *testing.T) {
	registry := NewRegistry(logger.NewNop())
	first := &fakeConn{}

	pc, _ := registry.ConnectPanel("operator-7", first)
	pc.Mutate(func(s *domain.PanelStore) {
		// Simulate a partial-state bug: bidding claimed without a venue.
		s.State = domain.PanelBiddingStarted
		s.Session = &domain.AuctionSession{ID: "session-1"}
		s.DisplayGroupID = "group-1"
	})

	again, _ := registry.ConnectPanel("operator-7", &fakeConn{})
	assert.Equal(t, domain.PanelNotStarted, again.Store().State)
	assert.Nil(t, again.Store().Session)
}

func TestDisconnectPanelHandleMismatchKeepsRecord(t *testing.T) {
	registry := NewRegistry(logger.NewNop())
	first := &fakeConn{}
	second := &fakeConn{}

	registry.ConnectPanel("operator-7", first)
	registry.ConnectPanel("operator-7", second)

	// The evicted connection's teardown races in after the swap.
	assert.Nil(t, registry.DisconnectPanel("operator-7", first))
	require.NotNil(t, registry.Panel("operator-7"))

	assert.NotNil(t, registry.DisconnectPanel("operator-7", second))
	assert.Nil(t, registry.Panel("operator-7"))
}

func TestConcurrentPanelConnectsLeaveOneEntry(t *testing.T) {
	registry := NewRegistry(logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.ConnectPanel("operator-7", &fakeConn{})
		}()
	}
	wg.Wait()

	assert.Len(t, registry.Panels(), 1)
	assert.NotNil(t, registry.Panel("operator-7"))
}
