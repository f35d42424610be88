package hub

import (
	"errors"
	"sync"

	"auction-hub/internal/domain"
	"auction-hub/pkg/logger"
)

var ErrDisplayAlreadyConnected = errors.New("display already connected")

// DisplayConnection is the registry record for one unattended screen. The
// record is keyed by display ID, never by connection handle, so a reconnect
// is a new record rather than a mutation of the old one.
type DisplayConnection struct {
	DisplayID string
	TimeZone  string

	mu          sync.Mutex
	conn        domain.Connection
	cachePrimed bool
	clock       domain.ClockSample
}

func (d *DisplayConnection) Conn() domain.Connection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn
}

func (d *DisplayConnection) Send(message interface{}) error {
	return d.Conn().Send(message)
}

func (d *DisplayConnection) CachePrimed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cachePrimed
}

func (d *DisplayConnection) SetCachePrimed(primed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cachePrimed = primed
}

func (d *DisplayConnection) Clock() domain.ClockSample {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock
}

func (d *DisplayConnection) SetClock(sample domain.ClockSample) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clock = sample
}

// PanelConnection is the registry record for one operator console. Identity
// is the operator-supplied panel ID and is durable across reconnects; the
// connection handle is not.
type PanelConnection struct {
	PanelID string

	mu    sync.Mutex
	conn  domain.Connection
	store domain.PanelStore
	clock domain.ClockSample
}

func (p *PanelConnection) Conn() domain.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn
}

func (p *PanelConnection) Send(message interface{}) error {
	return p.Conn().Send(message)
}

// Store returns a copy of the held domain state.
func (p *PanelConnection) Store() domain.PanelStore {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}

// Mutate applies fn to the held state under the record's lock.
func (p *PanelConnection) Mutate(fn func(*domain.PanelStore)) domain.PanelStore {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.store)
	return p.store
}

func (p *PanelConnection) Clock() domain.ClockSample {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock
}

func (p *PanelConnection) SetClock(sample domain.ClockSample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = sample
}

// swapConn installs a new handle and returns the displaced one, repairing
// an inconsistent bidding-started store on the way through.
func (p *PanelConnection) swapConn(conn domain.Connection) domain.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.conn
	p.conn = conn
	p.store.EnsureConsistent()
	return old
}

// Registry tracks every connected display and control panel by logical
// identity. One shared instance serves all connections for the process
// lifetime; all methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	displays map[string]*DisplayConnection
	panels   map[string]*PanelConnection
	log      logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		displays: make(map[string]*DisplayConnection),
		panels:   make(map[string]*PanelConnection),
		log:      log,
	}
}

// ConnectDisplay registers a display connection. When the display ID is
// already live the incumbent wins: the existing record is returned untouched
// alongside ErrDisplayAlreadyConnected and the newcomer must be turned away.
func (r *Registry) ConnectDisplay(displayID, timeZone string, conn domain.Connection) (*DisplayConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.displays[displayID]; ok {
		r.log.Warn("Duplicate display connection rejected", "display_id", displayID)
		return existing, ErrDisplayAlreadyConnected
	}

	dc := &DisplayConnection{
		DisplayID: displayID,
		TimeZone:  timeZone,
		conn:      conn,
	}
	r.displays[displayID] = dc

	r.log.Info("Display connected", "display_id", displayID, "time_zone", timeZone)
	return dc, nil
}

// DisconnectDisplay removes the display's record, but only when the given
// handle is still the registered one. A stale handle from an already
// displaced connection is ignored.
func (r *Registry) DisconnectDisplay(displayID string, conn domain.Connection) *DisplayConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc, ok := r.displays[displayID]
	if !ok || dc.Conn() != conn {
		return nil
	}
	delete(r.displays, displayID)

	r.log.Info("Display disconnected", "display_id", displayID)
	return dc
}

// ConnectPanel registers a control panel connection. Under a duplicate panel
// ID the newcomer wins: the record's handle is swapped to the new connection
// and the displaced handle is returned so the caller can notify and close
// it. All held domain state rides across the swap.
func (r *Registry) ConnectPanel(panelID string, conn domain.Connection) (*PanelConnection, domain.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.panels[panelID]; ok {
		evicted := existing.swapConn(conn)
		r.log.Info("Control panel reclaimed", "panel_id", panelID)
		return existing, evicted
	}

	pc := &PanelConnection{
		PanelID: panelID,
		conn:    conn,
	}
	r.panels[panelID] = pc

	r.log.Info("Control panel connected", "panel_id", panelID)
	return pc, nil
}

// DisconnectPanel removes the panel's record when the handle matches. The
// handle check keeps an evicted connection's teardown from erasing the
// record its successor now owns.
func (r *Registry) DisconnectPanel(panelID string, conn domain.Connection) *PanelConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	pc, ok := r.panels[panelID]
	if !ok || pc.Conn() != conn {
		return nil
	}
	delete(r.panels, panelID)

	r.log.Info("Control panel disconnected", "panel_id", panelID)
	return pc
}

func (r *Registry) Display(displayID string) *DisplayConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.displays[displayID]
}

func (r *Registry) Panel(panelID string) *PanelConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.panels[panelID]
}

func (r *Registry) Displays() []*DisplayConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	displays := make([]*DisplayConnection, 0, len(r.displays))
	for _, dc := range r.displays {
		displays = append(displays, dc)
	}
	return displays
}

func (r *Registry) Panels() []*PanelConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	panels := make([]*PanelConnection, 0, len(r.panels))
	for _, pc := range r.panels {
		panels = append(panels, pc)
	}
	return panels
}
