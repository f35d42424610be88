package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"auction-hub/internal/domain"
	"auction-hub/internal/hub"
	"auction-hub/pkg/logger"
)

// DefaultSessionOptimism is how far out a freshly started session's finish
// date is pushed when the session previously carried one. The sweeper uses
// it to reap sessions an operator abandoned.
const DefaultSessionOptimism = 2 * time.Hour

// Coordinator is the presentation coordinator: it owns connect/disconnect
// handling for both actor kinds, the per-session broadcast groups, and
// every orchestration operation a control panel or display can issue.
type Coordinator struct {
	registry  *hub.Registry
	groups    *hub.SessionGroups
	dispatch  *hub.Dispatcher
	clockSync *ClockSyncEngine
	media     *MediaState

	sessions domain.AuctionSessionService
	lots     domain.LotService
	bids     domain.BidService
	displays domain.DisplayService
	tokens   domain.AccessTokenUnprotector
	events   domain.SessionEventPublisher

	optimism time.Duration
	clock    clockwork.Clock
	log      logger.Logger
}

func NewCoordinator(
	registry *hub.Registry,
	groups *hub.SessionGroups,
	dispatch *hub.Dispatcher,
	clockSync *ClockSyncEngine,
	media *MediaState,
	sessions domain.AuctionSessionService,
	lots domain.LotService,
	bids domain.BidService,
	displays domain.DisplayService,
	tokens domain.AccessTokenUnprotector,
	events domain.SessionEventPublisher,
	optimism time.Duration,
	clock clockwork.Clock,
	log logger.Logger,
) *Coordinator {
	if optimism <= 0 {
		optimism = DefaultSessionOptimism
	}
	return &Coordinator{
		registry:  registry,
		groups:    groups,
		dispatch:  dispatch,
		clockSync: clockSync,
		media:     media,
		sessions:  sessions,
		lots:      lots,
		bids:      bids,
		displays:  displays,
		tokens:    tokens,
		events:    events,
		optimism:  optimism,
		clock:     clock,
		log:       log,
	}
}

// Outbound payloads.

type StoreValues struct {
	State            string `json:"state"`
	AuctionSessionID string `json:"auctionSessionId,omitempty"`
	VenueID          string `json:"venueId,omitempty"`
	DisplayGroupID   string `json:"displayGroupId,omitempty"`
	CurrentLotID     string `json:"currentLotId,omitempty"`
}

type DisplayStatusEntry struct {
	DisplayID string               `json:"displayId"`
	Status    domain.DisplayStatus `json:"status"`
}

type ValidationNotice struct {
	Operation string `json:"operation"`
	Reason    string `json:"reason"`
}

func storeValues(store domain.PanelStore) StoreValues {
	sv := StoreValues{
		State:          store.State.String(),
		VenueID:        store.VenueID,
		DisplayGroupID: store.DisplayGroupID,
		CurrentLotID:   store.CurrentLotID,
	}
	if store.Session != nil {
		sv.AuctionSessionID = store.Session.ID
	}
	return sv
}

// relayValidation reports a downstream failure to the caller only. The
// group never sees a half-applied change.
func (c *Coordinator) relayValidation(conn domain.Connection, operation string, err error) {
	c.log.Warn("Operation cancelled", "operation", operation, "error", err)
	c.dispatch.ToConnection(conn, domain.EventValidationFailed, ValidationNotice{
		Operation: operation,
		Reason:    err.Error(),
	})
}

// --- connection lifecycle ---

// ConnectDisplay admits a display connection. The opaque access token is
// unwrapped first; a bad token is never admitted to the registry. A
// duplicate display ID keeps the incumbent: unattended hardware must not be
// silently displaced by a reconnect storm.
func (c *Coordinator) ConnectDisplay(ctx context.Context, conn domain.Connection, token, timeZone string) (*hub.DisplayConnection, error) {
	displayID, err := c.tokens.UnprotectAccessToken(ctx, token)
	if err != nil {
		c.log.Warn("Display access token rejected", "error", err)
		c.dispatch.ToConnection(conn, domain.EventForceDisconnect, map[string]string{
			"reason": "unauthorised",
		})
		return nil, err
	}

	dc, err := c.registry.ConnectDisplay(displayID, timeZone, conn)
	if err != nil {
		if errors.Is(err, hub.ErrDisplayAlreadyConnected) {
			// Incumbent stays; it gets told, the newcomer gets turned away.
			c.dispatch.ToConnection(dc.Conn(), domain.EventDuplicateDisplayConnection, map[string]string{
				"displayId": displayID,
			})
			c.dispatch.ToConnection(conn, domain.EventForceDisconnect, map[string]string{
				"reason": "display already connected",
			})
		}
		return nil, err
	}

	if _, err := c.joinSessionsForDisplay(ctx, dc); err != nil {
		c.log.Error("Failed to join session groups", "display_id", displayID, "error", err)
	}
	return dc, nil
}

// joinSessionsForDisplay places the display into the group of every session
// currently live for its local time whose display group actively maps this
// display, and pushes a cache-prime notice per joined session.
func (c *Coordinator) joinSessionsForDisplay(ctx context.Context, dc *hub.DisplayConnection) ([]string, error) {
	sessions, err := c.sessions.GetSessionsInProgress(ctx, c.clock.Now(), dc.TimeZone)
	if err != nil {
		return nil, err
	}

	var joined []string
	for _, session := range sessions {
		if session.DisplayGroupID == "" {
			continue
		}
		configs, err := c.displays.GetGroupConfigurations(ctx, session.DisplayGroupID)
		if err != nil {
			c.log.Error("Failed to load display group configurations",
				"display_group_id", session.DisplayGroupID, "error", err)
			continue
		}
		for _, cfg := range configs {
			if cfg.DisplayID != dc.DisplayID || !cfg.Active {
				continue
			}
			c.groups.Add(session.ID, dc.DisplayID, dc.Conn())
			c.dispatch.ToConnection(dc.Conn(), domain.EventPrimeDisplayCache, map[string]string{
				"auctionSessionId": session.ID,
			})
			joined = append(joined, session.ID)
			break
		}
	}
	return joined, nil
}

// DisconnectedDisplay unwinds a display that dropped, explicitly or
// implicitly. Group removal uses the same time-zone-qualified session
// lookup as the join; when that lookup cannot answer, every group is swept
// instead so membership never outlives the connection.
func (c *Coordinator) DisconnectedDisplay(ctx context.Context, dc *hub.DisplayConnection) {
	if c.registry.DisconnectDisplay(dc.DisplayID, dc.Conn()) == nil {
		return
	}

	sessions, err := c.sessions.GetSessionsInProgress(ctx, c.clock.Now(), dc.TimeZone)
	if err != nil {
		c.log.Error("Session lookup failed on disconnect, sweeping all groups",
			"display_id", dc.DisplayID, "error", err)
		c.groups.RemoveEverywhere(dc.DisplayID)
		return
	}
	for _, session := range sessions {
		c.groups.Remove(session.ID, dc.DisplayID)
	}
	c.groups.RemoveEverywhere(dc.DisplayID)
}

// ConnectPanel admits a control panel connection. A duplicate panel ID
// evicts the incumbent in favour of the newcomer: an operator actively
// logging back in wins. Held domain state rides across the swap and the new
// connection is told what it inherited.
func (c *Coordinator) ConnectPanel(ctx context.Context, conn domain.Connection, panelID string) *hub.PanelConnection {
	pc, evicted := c.registry.ConnectPanel(panelID, conn)
	if evicted != nil {
		c.dispatch.ToConnection(evicted, domain.EventLoggedInElsewhere, map[string]string{
			"panelId": panelID,
		})
		c.dispatch.ToConnection(evicted, domain.EventForceDisconnect, map[string]string{
			"reason": "logged in elsewhere",
		})
		if err := evicted.CloseAfterFlush(); err != nil {
			c.log.Debug("Failed to close evicted panel connection", "panel_id", panelID, "error", err)
		}
	}

	c.dispatch.ToConnection(conn, domain.EventSetStoreValues, storeValues(pc.Store()))
	return pc
}

func (c *Coordinator) DisconnectedPanel(pc *hub.PanelConnection, conn domain.Connection) {
	c.registry.DisconnectPanel(pc.PanelID, conn)
}

// --- session setup ---

// SetAuctionSessionID selects the session a panel will run. Any different
// session the panel already held in-session is released first; the newly
// selected one is marked in-session under this operator with an optimistic
// finish time when it previously carried any finish date.
func (c *Coordinator) SetAuctionSessionID(ctx context.Context, pc *hub.PanelConnection, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	store := pc.Store()
	if store.Session != nil && store.Session.InSession && store.Session.ID != sessionID {
		prior := *store.Session
		prior.InSession = false
		if err := c.sessions.UpdateAuctionSession(ctx, &prior); err != nil {
			c.relayValidation(pc.Conn(), "SetAuctionSessionId", err)
			return err
		}
	}

	session, err := c.sessions.GetAuctionSession(ctx, sessionID)
	if err != nil {
		c.relayValidation(pc.Conn(), "SetAuctionSessionId", err)
		return err
	}

	now := c.clock.Now().UTC()
	session.InSession = true
	session.AdministratorID = pc.PanelID
	session.StartDate = now
	if session.FinishDate != nil {
		finish := now.Add(c.optimism)
		session.FinishDate = &finish
	}

	if err := c.sessions.UpdateAuctionSession(ctx, session); err != nil {
		c.relayValidation(pc.Conn(), "SetAuctionSessionId", err)
		return err
	}

	if err := c.events.PublishSessionEvent(ctx, &domain.SessionEvent{
		Type:             domain.SessionStarted,
		AuctionSessionID: session.ID,
		AdministratorID:  pc.PanelID,
		Timestamp:        now,
	}); err != nil {
		c.log.Error("Failed to publish session event", "auction_session_id", session.ID, "error", err)
	}

	updated := pc.Mutate(func(s *domain.PanelStore) {
		s.SelectSession(session)
	})
	c.dispatch.ToConnection(pc.Conn(), domain.EventSetAuctionSession, storeValues(updated))
	return nil
}

// SetVenueID is purely local panel state.
func (c *Coordinator) SetVenueID(pc *hub.PanelConnection, venueID string) {
	if venueID == "" {
		return
	}
	pc.Mutate(func(s *domain.PanelStore) {
		if err := s.SelectVenue(venueID); err != nil {
			c.log.Debug("Venue selection refused", "panel_id", pc.PanelID, "state", s.State.String())
		}
	})
}

// SetDisplayGroupID binds a display group and lets every other panel that
// currently holds one know, so operators can see group contention.
func (c *Coordinator) SetDisplayGroupID(pc *hub.PanelConnection, displayGroupID string) {
	if displayGroupID == "" {
		return
	}

	var rejected bool
	pc.Mutate(func(s *domain.PanelStore) {
		rejected = s.SelectDisplayGroup(displayGroupID) != nil
	})
	if rejected {
		c.log.Debug("Display group selection refused", "panel_id", pc.PanelID)
		return
	}

	for _, other := range c.registry.Panels() {
		if other.PanelID == pc.PanelID || other.Store().DisplayGroupID == "" {
			continue
		}
		c.dispatch.ToConnection(other.Conn(), domain.EventPeerDisplayGroupSelected, map[string]string{
			"panelId":        pc.PanelID,
			"displayGroupId": displayGroupID,
		})
	}
}

// InitAuctionSession persists the venue and display-group binding on the
// held session, rebuilds the session group from the group's configurations,
// and tells the fresh membership to refresh and prime caches.
func (c *Coordinator) InitAuctionSession(ctx context.Context, pc *hub.PanelConnection) error {
	store := pc.Store()
	if store.Session == nil {
		return nil
	}

	session := *store.Session
	session.VenueID = store.VenueID
	session.DisplayGroupID = store.DisplayGroupID
	if err := c.sessions.UpdateAuctionSession(ctx, &session); err != nil {
		c.relayValidation(pc.Conn(), "InitAuctionSession", err)
		return err
	}
	pc.Mutate(func(s *domain.PanelStore) {
		s.Session = &session
	})

	if err := c.RebuildMembership(ctx, session.ID, session.DisplayGroupID); err != nil {
		c.relayValidation(pc.Conn(), "InitAuctionSession", err)
		return err
	}

	c.dispatch.ToSessionGroup(session.ID, domain.EventRefreshDisplays, map[string]string{
		"auctionSessionId": session.ID,
	})
	c.dispatch.ToSessionGroup(session.ID, domain.EventPrimeDisplayCache, map[string]string{
		"auctionSessionId": session.ID,
	})
	c.dispatch.ToConnection(pc.Conn(), domain.EventInitAuctionSession, map[string]interface{}{
		"auctionSessionId": session.ID,
		"displayCount":     len(c.groups.MemberIDs(session.ID)),
	})
	return nil
}

// RebuildMembership clears the session's group and re-adds every display
// that is both currently connected and actively configured in the bound
// display group.
func (c *Coordinator) RebuildMembership(ctx context.Context, sessionID, displayGroupID string) error {
	c.groups.Clear(sessionID)
	if displayGroupID == "" {
		return nil
	}

	configs, err := c.displays.GetGroupConfigurations(ctx, displayGroupID)
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		if !cfg.Active {
			continue
		}
		if dc := c.registry.Display(cfg.DisplayID); dc != nil {
			c.groups.Add(sessionID, dc.DisplayID, dc.Conn())
		}
	}
	return nil
}

// GetDisplayStatuses answers the caller with a connected/cached snapshot of
// every display in the panel's bound group.
func (c *Coordinator) GetDisplayStatuses(ctx context.Context, pc *hub.PanelConnection) error {
	store := pc.Store()
	if store.Session == nil || store.DisplayGroupID == "" {
		return nil
	}

	configs, err := c.displays.GetGroupConfigurations(ctx, store.DisplayGroupID)
	if err != nil {
		c.relayValidation(pc.Conn(), "GetDisplayStatuses", err)
		return err
	}

	statuses := make([]DisplayStatusEntry, 0, len(configs))
	for _, cfg := range configs {
		entry := DisplayStatusEntry{DisplayID: cfg.DisplayID, Status: domain.DisplayDisconnected}
		if dc := c.registry.Display(cfg.DisplayID); dc != nil {
			if dc.CachePrimed() {
				entry.Status = domain.DisplayCacheReady
			} else {
				entry.Status = domain.DisplayConnected
			}
		}
		statuses = append(statuses, entry)
	}

	c.dispatch.ToConnection(pc.Conn(), domain.EventDisplayStatuses, statuses)
	return nil
}

// FinaliseDisplayCache marks the display ready and lets the panels know.
func (c *Coordinator) FinaliseDisplayCache(dc *hub.DisplayConnection) {
	dc.SetCachePrimed(true)
	c.dispatch.ToAllPanels(domain.EventDisplayCacheReady, map[string]string{
		"displayId": dc.DisplayID,
	})
}

// --- views and media ---

// ChangeView broadcasts a UI mode to the session group. Requesting the
// bidding view is the one gated transition: it only succeeds when the bound
// display group resolves, otherwise the panel falls back to venue-selected
// with its group cleared.
func (c *Coordinator) ChangeView(ctx context.Context, pc *hub.PanelConnection, view string) error {
	store := pc.Store()
	if store.Session == nil {
		return nil
	}

	if view == domain.ViewBidding {
		resolved := store.DisplayGroupID != ""
		if resolved {
			configs, err := c.displays.GetGroupConfigurations(ctx, store.DisplayGroupID)
			if err != nil || len(configs) == 0 {
				resolved = false
			}
		}

		var refused bool
		updated := pc.Mutate(func(s *domain.PanelStore) {
			refused = s.StartBidding(resolved) != nil
		})
		if refused {
			c.dispatch.ToConnection(pc.Conn(), domain.EventSetStoreValues, storeValues(updated))
			c.relayValidation(pc.Conn(), "ChangeView", errors.New("display group did not resolve"))
			return nil
		}
	}

	payload := map[string]string{"view": view}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventChangeView, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventChangeView, payload)
	return nil
}

// ChangeToMediaView switches only the video-enabled subset of the group to
// the media view.
func (c *Coordinator) ChangeToMediaView(ctx context.Context, pc *hub.PanelConnection, mediaID string) error {
	store := pc.Store()
	if store.Session == nil || store.DisplayGroupID == "" {
		return nil
	}

	configs, err := c.displays.GetGroupConfigurations(ctx, store.DisplayGroupID)
	if err != nil {
		c.relayValidation(pc.Conn(), "ChangeToMediaView", err)
		return err
	}

	payload := map[string]string{"view": domain.ViewMedia, "mediaId": mediaID}
	for _, cfg := range configs {
		if !cfg.Active || !cfg.VideoEnabled {
			continue
		}
		if conn := c.groups.Member(store.Session.ID, cfg.DisplayID); conn != nil {
			c.dispatch.ToConnection(conn, domain.EventChangeView, payload)
		}
	}
	c.dispatch.ToConnection(pc.Conn(), domain.EventChangeView, payload)
	return nil
}

func (c *Coordinator) StartMedia(pc *hub.PanelConnection, mediaID string) {
	store := pc.Store()
	if store.Session == nil {
		return
	}

	mp := c.media.Start(store.Session.ID, mediaID)
	payload := map[string]string{"mediaId": mp.MediaID, "startTime": mp.StartedUTC}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventStartMedia, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventStartMedia, payload)
}

func (c *Coordinator) PauseMedia(pc *hub.PanelConnection) {
	store := pc.Store()
	if store.Session == nil {
		return
	}

	mp, ok := c.media.Pause(store.Session.ID)
	if !ok {
		return
	}
	payload := map[string]interface{}{
		"mediaId":   mp.MediaID,
		"elapsedMs": mp.Elapsed(c.clock.Now().UTC()).Milliseconds(),
	}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventPauseMedia, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventPauseMedia, payload)
}

func (c *Coordinator) UnpauseMedia(pc *hub.PanelConnection) {
	store := pc.Store()
	if store.Session == nil {
		return
	}

	mp, ok := c.media.Unpause(store.Session.ID)
	if !ok {
		return
	}
	now := c.clock.Now().UTC()
	payload := map[string]interface{}{
		"mediaId":    mp.MediaID,
		"elapsedMs":  mp.Elapsed(now).Milliseconds(),
		"serverTime": now.Format(domain.TimestampLayout),
	}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventUnpauseMedia, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventUnpauseMedia, payload)
}

func (c *Coordinator) ChangeMedia(pc *hub.PanelConnection, mediaID string) {
	store := pc.Store()
	if store.Session == nil {
		return
	}

	mp := c.media.Start(store.Session.ID, mediaID)
	payload := map[string]string{"mediaId": mp.MediaID, "startTime": mp.StartedUTC}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventChangeMedia, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventChangeMedia, payload)
}

// GetCurrentMediaTime answers the caller with playback position for the
// session. Displays name the session explicitly; panels use the held one.
func (c *Coordinator) GetCurrentMediaTime(conn domain.Connection, sessionID string) {
	if sessionID == "" {
		return
	}
	mp, ok := c.media.Current(sessionID)
	if !ok {
		return
	}
	c.dispatch.ToConnection(conn, domain.EventCurrentMediaTime, map[string]interface{}{
		"mediaId":   mp.MediaID,
		"elapsedMs": mp.Elapsed(c.clock.Now().UTC()).Milliseconds(),
	})
}

// --- clock sync ---

func (c *Coordinator) SyncPanelClock(pc *hub.PanelConnection, req ClockSyncRequest) {
	next, reply, err := c.clockSync.Round(pc.Clock(), req)
	if err != nil {
		c.log.Warn("Panel clock sync round failed", "panel_id", pc.PanelID, "error", err)
		c.dispatch.ToConnection(pc.Conn(), domain.EventClockSyncError, map[string]string{
			"reason": err.Error(),
		})
		return
	}
	pc.SetClock(next)
	c.dispatch.ToConnection(pc.Conn(), domain.EventSyncClock, reply)
}

func (c *Coordinator) SyncDisplayClock(dc *hub.DisplayConnection, req ClockSyncRequest) {
	next, reply, err := c.clockSync.Round(dc.Clock(), req)
	if err != nil {
		c.log.Warn("Display clock sync round failed", "display_id", dc.DisplayID, "error", err)
		c.dispatch.ToConnection(dc.Conn(), domain.EventClockSyncError, map[string]string{
			"reason": err.Error(),
		})
		return
	}
	dc.SetClock(next)
	c.dispatch.ToConnection(dc.Conn(), domain.EventSyncClock, reply)
}

// --- bids and lots ---

func (c *Coordinator) SetLotBid(ctx context.Context, pc *hub.PanelConnection, lotID string, amount float64) error {
	store := pc.Store()
	if store.Session == nil || lotID == "" {
		return nil
	}

	bid := &domain.Bid{
		ID:       uuid.NewString(),
		LotID:    lotID,
		Amount:   amount,
		PlacedAt: c.clock.Now().UTC(),
	}
	if err := c.bids.AddBid(ctx, bid); err != nil {
		c.relayValidation(pc.Conn(), "SetLotBid", err)
		return err
	}

	payload := map[string]interface{}{"lotId": lotID, "amount": amount}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventSetLotBid, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventSetLotBid, payload)
	return nil
}

// RevertLotBid rejects the lot's current highest bid and broadcasts the one
// it falls back to.
func (c *Coordinator) RevertLotBid(ctx context.Context, pc *hub.PanelConnection, lotID string) error {
	store := pc.Store()
	if store.Session == nil || lotID == "" {
		return nil
	}

	latest, err := c.bids.GetLatestBid(ctx, lotID)
	if err != nil {
		c.relayValidation(pc.Conn(), "RevertLotBid", err)
		return err
	}
	if latest == nil {
		return nil
	}

	latest.Rejected = true
	if err := c.bids.UpdateBid(ctx, latest); err != nil {
		c.relayValidation(pc.Conn(), "RevertLotBid", err)
		return err
	}

	var amount float64
	if fallback, err := c.bids.GetLatestBid(ctx, lotID); err == nil && fallback != nil {
		amount = fallback.Amount
	}

	payload := map[string]interface{}{"lotId": lotID, "amount": amount}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventRevertLotBid, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventRevertLotBid, payload)
	return nil
}

// SetLotStatus updates a lot's status. Sold binds the sold date and price
// from the highest non-rejected bid and marks the reserve met; NoBids nulls
// them back out.
func (c *Coordinator) SetLotStatus(ctx context.Context, pc *hub.PanelConnection, lotID string, status domain.LotStatus) error {
	store := pc.Store()
	if store.Session == nil || lotID == "" {
		return nil
	}

	lot, err := c.lots.GetLot(ctx, lotID)
	if err != nil {
		c.relayValidation(pc.Conn(), "SetLotStatus", err)
		return err
	}

	switch status {
	case domain.LotSold:
		bid, err := c.bids.GetLatestBid(ctx, lotID)
		if err != nil {
			c.relayValidation(pc.Conn(), "SetLotStatus", err)
			return err
		}
		if bid != nil {
			soldDate := c.clock.Now().UTC()
			soldPrice := bid.Amount
			lot.SoldDate = &soldDate
			lot.SoldPrice = &soldPrice
			lot.ReserveMet = true
		}
	case domain.LotNoBids:
		lot.SoldDate = nil
		lot.SoldPrice = nil
		lot.ReserveMet = false
	}
	lot.Status = status

	if err := c.lots.UpdateLot(ctx, lot); err != nil {
		c.relayValidation(pc.Conn(), "SetLotStatus", err)
		return err
	}

	payload := map[string]interface{}{"lotId": lotID, "status": status.String()}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventSetLotStatus, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventSetLotStatus, payload)
	return nil
}

func (c *Coordinator) ChangePauseStatus(ctx context.Context, pc *hub.PanelConnection, lotID string, paused bool) error {
	store := pc.Store()
	if store.Session == nil || lotID == "" {
		return nil
	}

	lot, err := c.lots.GetLot(ctx, lotID)
	if err != nil {
		c.relayValidation(pc.Conn(), "ChangePauseStatus", err)
		return err
	}
	lot.BiddingPaused = paused
	if err := c.lots.UpdateLot(ctx, lot); err != nil {
		c.relayValidation(pc.Conn(), "ChangePauseStatus", err)
		return err
	}

	payload := map[string]interface{}{"lotId": lotID, "paused": paused}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventChangePauseStatus, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventChangePauseStatus, payload)
	return nil
}

// ChangeLot moves the panel to another lot and broadcasts it together with
// its current standing bid.
func (c *Coordinator) ChangeLot(ctx context.Context, pc *hub.PanelConnection, lotID string) error {
	store := pc.Store()
	if store.Session == nil || lotID == "" {
		return nil
	}

	lot, err := c.lots.GetLot(ctx, lotID)
	if err != nil {
		c.relayValidation(pc.Conn(), "ChangeLot", err)
		return err
	}
	pc.Mutate(func(s *domain.PanelStore) {
		s.CurrentLotID = lotID
	})

	var amount float64
	if bid, err := c.bids.GetLatestBid(ctx, lotID); err == nil && bid != nil {
		amount = bid.Amount
	}

	payload := map[string]interface{}{
		"lotId":      lot.ID,
		"lotNumber":  lot.Number,
		"address":    lot.Address,
		"status":     lot.Status.String(),
		"currentBid": amount,
	}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventChangeLot, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventChangeLot, payload)
	return nil
}

func (c *Coordinator) SetImage(ctx context.Context, pc *hub.PanelConnection, lotID, imageID string) error {
	store := pc.Store()
	if store.Session == nil || lotID == "" {
		return nil
	}

	lot, err := c.lots.GetLot(ctx, lotID)
	if err != nil {
		c.relayValidation(pc.Conn(), "SetImage", err)
		return err
	}
	lot.ImageID = imageID
	if err := c.lots.UpdateLot(ctx, lot); err != nil {
		c.relayValidation(pc.Conn(), "SetImage", err)
		return err
	}

	payload := map[string]string{"lotId": lotID, "imageId": imageID}
	c.dispatch.ToSessionGroup(store.Session.ID, domain.EventSetImage, payload)
	c.dispatch.ToConnection(pc.Conn(), domain.EventSetImage, payload)
	return nil
}

// --- session completion and display targeting ---

// CompleteAuctionSession marks the session finished and wipes the caller's
// panel state back to a fresh record. It succeeds whether or not the caller
// still holds active membership for the session.
func (c *Coordinator) CompleteAuctionSession(ctx context.Context, pc *hub.PanelConnection, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := c.sessions.GetAuctionSession(ctx, sessionID)
	if err != nil {
		c.relayValidation(pc.Conn(), "CompleteAuctionSession", err)
		return err
	}

	now := c.clock.Now().UTC()
	session.InSession = false
	session.FinishDate = &now
	if err := c.sessions.UpdateAuctionSession(ctx, session); err != nil {
		c.relayValidation(pc.Conn(), "CompleteAuctionSession", err)
		return err
	}

	if err := c.events.PublishSessionEvent(ctx, &domain.SessionEvent{
		Type:             domain.SessionCompleted,
		AuctionSessionID: sessionID,
		AdministratorID:  pc.PanelID,
		Timestamp:        now,
	}); err != nil {
		c.log.Error("Failed to publish session event", "auction_session_id", sessionID, "error", err)
	}

	c.dispatch.ToSessionGroup(sessionID, domain.EventAuctionSessionComplete, map[string]string{
		"auctionSessionId": sessionID,
	})
	c.groups.Clear(sessionID)
	c.media.Clear(sessionID)

	updated := pc.Mutate(func(s *domain.PanelStore) {
		s.Complete()
	})
	c.dispatch.ToConnection(pc.Conn(), domain.EventSetStoreValues, storeValues(updated))
	return nil
}

// DisconnectDisplay force-disconnects a specific display on a panel's
// behalf.
func (c *Coordinator) DisconnectDisplay(ctx context.Context, pc *hub.PanelConnection, displayID string) {
	dc := c.registry.Display(displayID)
	if dc == nil {
		return
	}

	conn := dc.Conn()
	c.dispatch.ToConnection(conn, domain.EventForceDisconnect, map[string]string{
		"reason": "disconnected by control panel",
	})
	c.DisconnectedDisplay(ctx, dc)
	if err := conn.CloseAfterFlush(); err != nil {
		c.log.Debug("Failed to close display connection", "display_id", displayID, "error", err)
	}
}

// IdentifyDisplay asks one display to identify itself on screen.
func (c *Coordinator) IdentifyDisplay(pc *hub.PanelConnection, displayID string) {
	if !c.dispatch.ToDisplay(displayID, domain.EventIdentifyDisplay, map[string]string{"displayId": displayID}) {
		c.log.Debug("Identify requested for unknown display", "display_id", displayID)
	}
}
