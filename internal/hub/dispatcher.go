package hub

import (
	"auction-hub/internal/domain"
	"auction-hub/pkg/logger"
)

// Envelope is the outbound wire frame: a named event plus its payload.
type Envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Dispatcher maps abstract events onto the transport. Addressing is a
// closed set: one connection, one display by ID, a session group, or every
// control panel. Delivery is fire and forget; a failed send is logged and
// never blocks the remaining recipients.
type Dispatcher struct {
	registry *Registry
	groups   *SessionGroups
	log      logger.Logger
}

func NewDispatcher(registry *Registry, groups *SessionGroups, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		groups:   groups,
		log:      log,
	}
}

func (d *Dispatcher) ToConnection(conn domain.Connection, event string, payload interface{}) {
	if conn == nil {
		return
	}
	if err := conn.Send(Envelope{Event: event, Payload: payload}); err != nil {
		d.log.Error("Failed to send message", "event", event, "error", err)
	}
}

func (d *Dispatcher) ToDisplay(displayID, event string, payload interface{}) bool {
	dc := d.registry.Display(displayID)
	if dc == nil {
		return false
	}
	d.ToConnection(dc.Conn(), event, payload)
	return true
}

func (d *Dispatcher) ToSessionGroup(sessionID, event string, payload interface{}) {
	members := d.groups.Members(sessionID)
	d.log.Debug("Broadcasting to session group",
		"auction_session_id", sessionID, "event", event, "members", len(members))

	for _, conn := range members {
		if err := conn.Send(Envelope{Event: event, Payload: payload}); err != nil {
			d.log.Error("Failed to send group message",
				"auction_session_id", sessionID, "event", event, "error", err)
			// Continue to other members
		}
	}
}

func (d *Dispatcher) ToAllPanels(event string, payload interface{}) {
	for _, pc := range d.registry.Panels() {
		if err := pc.Send(Envelope{Event: event, Payload: payload}); err != nil {
			d.log.Error("Failed to send panel message",
				"panel_id", pc.PanelID, "event", event, "error", err)
		}
	}
}

// ToOtherPanels sends to every connected control panel except the named one.
func (d *Dispatcher) ToOtherPanels(exceptPanelID, event string, payload interface{}) {
	for _, pc := range d.registry.Panels() {
		if pc.PanelID == exceptPanelID {
			continue
		}
		if err := pc.Send(Envelope{Event: event, Payload: payload}); err != nil {
			d.log.Error("Failed to send panel message",
				"panel_id", pc.PanelID, "event", event, "error", err)
		}
	}
}
