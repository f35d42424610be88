package domain

// Wire event names pushed to displays and control panels.
const (
	EventSetStoreValues             = "SetStoreValues"
	EventLoggedInElsewhere          = "LoggedInElsewhere"
	EventForceDisconnect            = "ForceDisconnect"
	EventDuplicateDisplayConnection = "DuplicateDisplayConnection"
	EventPrimeDisplayCache          = "PrimeDisplayCache"
	EventDisplayCacheReady          = "DisplayCacheReady"
	EventDisplayStatuses            = "DisplayStatuses"
	EventPeerDisplayGroupSelected   = "PeerDisplayGroupSelected"
	EventRefreshDisplays            = "RefreshDisplays"
	EventSetAuctionSession          = "SetAuctionSession"
	EventInitAuctionSession         = "InitAuctionSession"
	EventChangeView                 = "ChangeView"
	EventStartMedia                 = "StartMedia"
	EventPauseMedia                 = "PauseMedia"
	EventUnpauseMedia               = "UnpauseMedia"
	EventChangeMedia                = "ChangeMedia"
	EventCurrentMediaTime           = "CurrentMediaTime"
	EventSyncClock                  = "SyncClock"
	EventClockSyncError             = "ClockSyncError"
	EventSetLotBid                  = "SetLotBid"
	EventRevertLotBid               = "RevertLotBid"
	EventSetLotStatus               = "SetLotStatus"
	EventChangePauseStatus          = "ChangePauseStatus"
	EventChangeLot                  = "ChangeLot"
	EventSetImage                   = "SetImage"
	EventAuctionSessionComplete     = "AuctionSessionComplete"
	EventIdentifyDisplay            = "IdentifyDisplay"
	EventValidationFailed           = "ValidationFailed"
)

// View names broadcast with ChangeView.
const (
	ViewBidding = "Bidding"
	ViewMedia   = "Media"
)
