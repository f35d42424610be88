package domain

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidAccessToken = errors.New("invalid display access token")

// Service interfaces consumed by the presentation coordinator. The hub
// never touches storage directly; these are implemented by the mysql and
// redis infrastructure packages.

type AuctionSessionService interface {
	GetAuctionSession(ctx context.Context, sessionID string) (*AuctionSession, error)
	UpdateAuctionSession(ctx context.Context, session *AuctionSession) error
	// GetSessionsInProgress returns sessions whose schedule covers the given
	// instant once converted into the supplied IANA time zone.
	GetSessionsInProgress(ctx context.Context, at time.Time, timeZone string) ([]*AuctionSession, error)
}

type LotService interface {
	GetLot(ctx context.Context, lotID string) (*Lot, error)
	GetLotsBySession(ctx context.Context, sessionID string) ([]*Lot, error)
	UpdateLot(ctx context.Context, lot *Lot) error
}

type BidService interface {
	AddBid(ctx context.Context, bid *Bid) error
	// GetLatestBid returns the highest non-rejected bid for the lot, or nil
	// when the lot has none.
	GetLatestBid(ctx context.Context, lotID string) (*Bid, error)
	UpdateBid(ctx context.Context, bid *Bid) error
}

type DisplayService interface {
	GetDisplay(ctx context.Context, displayID string) (*Display, error)
	GetGroupConfigurations(ctx context.Context, displayGroupID string) ([]*DisplayConfiguration, error)
}

// AccessTokenUnprotector resolves an opaque display credential to a display
// ID. A failed unwrap means the connector must not be admitted.
type AccessTokenUnprotector interface {
	UnprotectAccessToken(ctx context.Context, token string) (string, error)
}

type SessionEventPublisher interface {
	PublishSessionEvent(ctx context.Context, event *SessionEvent) error
}

// Connection is one live transport-level client, display or control panel.
// CloseAfterFlush delivers anything already queued before dropping the
// transport; Close drops it immediately.
type Connection interface {
	Send(message interface{}) error
	Close() error
	CloseAfterFlush() error
}
