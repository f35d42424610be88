package domain

import (
	"time"
)

// TimestampLayout is the wire format for UTC timestamps exchanged with
// displays and control panels (media start times, clock sync echoes).
const TimestampLayout = "2006-01-02 15:04:05.000"

type Venue struct {
	ID        string
	Name      string
	TimeZone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AuctionSession struct {
	ID              string
	VenueID         string
	DisplayGroupID  string
	Name            string
	StartDate       time.Time
	FinishDate      *time.Time
	InSession       bool
	AdministratorID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Lot struct {
	ID               string
	AuctionSessionID string
	Number           int
	Address          string
	Status           LotStatus
	ReservePrice     float64
	ReserveMet       bool
	SoldDate         *time.Time
	SoldPrice        *float64
	ImageID          string
	BiddingPaused    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type LotStatus int

const (
	LotPending LotStatus = iota
	LotSelling
	LotSold
	LotPassedIn
	LotNoBids
	LotWithdrawn
)

func (s LotStatus) String() string {
	switch s {
	case LotPending:
		return "pending"
	case LotSelling:
		return "selling"
	case LotSold:
		return "sold"
	case LotPassedIn:
		return "passed_in"
	case LotNoBids:
		return "no_bids"
	case LotWithdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}

type Bid struct {
	ID       string
	LotID    string
	Amount   float64
	Rejected bool
	PlacedAt time.Time
}

type Display struct {
	ID      string
	VenueID string
	Name    string
}

type DisplayGroup struct {
	ID      string
	VenueID string
	Name    string
}

// DisplayConfiguration binds one display into a display group with the
// settings the group wants for that screen.
type DisplayConfiguration struct {
	ID             string
	DisplayGroupID string
	DisplayID      string
	Active         bool
	VideoEnabled   bool
	AudioEnabled   bool
	Mode           string
}

type DisplayStatus string

const (
	DisplayDisconnected DisplayStatus = "disconnected"
	DisplayConnected    DisplayStatus = "connected"
	DisplayCacheReady   DisplayStatus = "cache_ready"
)

// ClockSample is the accumulated clock-sync state for one connection.
// Differences are one-way bounds in milliseconds; TimingOffset is the
// derived latency estimate a device applies to scheduled media starts.
type ClockSample struct {
	MinDifference float64
	MaxDifference float64
	TimingOffset  float64
}

type SessionEvent struct {
	Type             SessionEventType `json:"type"`
	AuctionSessionID string           `json:"auction_session_id"`
	AdministratorID  string           `json:"administrator_id,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}

type SessionEventType string

const (
	SessionStarted   SessionEventType = "session_started"
	SessionCompleted SessionEventType = "session_completed"
)
