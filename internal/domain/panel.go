package domain

import "errors"

var ErrInvalidTransition = errors.New("invalid panel state transition")

// PanelState is the control panel's progress through auction session setup.
type PanelState int

const (
	PanelNotStarted PanelState = iota
	PanelSessionSelected
	PanelVenueSelected
	PanelDisplayGroupSelected
	PanelBiddingStarted
	PanelCompleted
)

func (s PanelState) String() string {
	switch s {
	case PanelNotStarted:
		return "not_started"
	case PanelSessionSelected:
		return "auction_session_selected"
	case PanelVenueSelected:
		return "venue_selected"
	case PanelDisplayGroupSelected:
		return "display_group_selected"
	case PanelBiddingStarted:
		return "bidding_started"
	case PanelCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// PanelStore is the domain state a control panel holds while it works a
// session. It survives reconnects under the same panel ID; the connection
// handle does not.
type PanelStore struct {
	State          PanelState
	Session        *AuctionSession
	VenueID        string
	DisplayGroupID string
	CurrentLotID   string
}

// SelectSession moves the panel to the session-selected state. Selecting a
// session is always permitted; it is how an operator abandons one session
// for another.
func (p *PanelStore) SelectSession(session *AuctionSession) {
	p.Session = session
	p.State = PanelSessionSelected
}

func (p *PanelStore) SelectVenue(venueID string) error {
	if p.State < PanelSessionSelected || p.Session == nil {
		return ErrInvalidTransition
	}
	p.VenueID = venueID
	p.State = PanelVenueSelected
	return nil
}

func (p *PanelStore) SelectDisplayGroup(displayGroupID string) error {
	if p.State < PanelVenueSelected {
		return ErrInvalidTransition
	}
	p.DisplayGroupID = displayGroupID
	p.State = PanelDisplayGroupSelected
	return nil
}

// StartBidding advances to the bidding state, but only when the held
// session resolved a display group. An unresolved group pushes the panel
// back to venue-selected with the group cleared so the operator can pick
// again.
func (p *PanelStore) StartBidding(groupResolved bool) error {
	if p.State < PanelDisplayGroupSelected {
		return ErrInvalidTransition
	}
	if !groupResolved || p.Session == nil || p.VenueID == "" || p.DisplayGroupID == "" {
		p.DisplayGroupID = ""
		p.State = PanelVenueSelected
		return ErrInvalidTransition
	}
	p.State = PanelBiddingStarted
	return nil
}

// Complete folds the terminal state back to a fresh record.
func (p *PanelStore) Complete() {
	*p = PanelStore{}
}

// EnsureConsistent repairs a store that claims bidding has started without
// the session/venue/display-group triple to back it up. A server restart or
// a partial write can strand a reconnecting panel there otherwise.
func (p *PanelStore) EnsureConsistent() bool {
	if p.State == PanelBiddingStarted &&
		(p.Session == nil || p.VenueID == "" || p.DisplayGroupID == "") {
		*p = PanelStore{}
		return false
	}
	return true
}
