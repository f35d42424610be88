package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"auction-hub/internal/domain"
	"auction-hub/internal/hub"
	"auction-hub/internal/services"
	"auction-hub/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Displays and panels connect from venue networks
	},
}

// inbound is the client wire frame.
type inbound struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type sessionPayload struct {
	AuctionSessionID string `json:"auctionSessionId"`
}

type venuePayload struct {
	VenueID string `json:"venueId"`
}

type displayGroupPayload struct {
	DisplayGroupID string `json:"displayGroupId"`
}

type viewPayload struct {
	View string `json:"view"`
}

type mediaPayload struct {
	MediaID string `json:"mediaId"`
}

type bidPayload struct {
	LotID  string  `json:"lotId"`
	Amount float64 `json:"amount"`
}

type lotPayload struct {
	LotID string `json:"lotId"`
}

type lotStatusPayload struct {
	LotID  string `json:"lotId"`
	Status int    `json:"status"`
}

type pausePayload struct {
	LotID  string `json:"lotId"`
	Paused bool   `json:"paused"`
}

type imagePayload struct {
	LotID   string `json:"lotId"`
	ImageID string `json:"imageId"`
}

type displayPayload struct {
	DisplayID string `json:"displayId"`
}

// Handler upgrades and classifies incoming connections. Every connector
// self-identifies its role through the route it dials: displays carry an
// access token, panels carry their panel ID. Anything else never reaches
// the coordinator.
type Handler struct {
	coordinator *services.Coordinator
	queueSize   int
	log         logger.Logger
}

func NewHandler(coordinator *services.Coordinator, queueSize int, log logger.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		queueSize:   queueSize,
		log:         log,
	}
}

// Router mounts the two websocket endpoints.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws/display/{token}", h.HandleDisplay)
	r.HandleFunc("/ws/panel/{panelID}", h.HandlePanel)
	r.PathPrefix("/ws/").HandlerFunc(h.handleUnidentified)
	return r
}

// handleUnidentified rejects connectors that name neither role. The
// protocol requires every connector to self-identify as a display or a
// control panel.
func (h *Handler) handleUnidentified(w http.ResponseWriter, r *http.Request) {
	h.log.Warn("Connection without role identification rejected",
		"remote_addr", r.RemoteAddr, "path", r.URL.Path)
	http.Error(w, "connector must identify as display or panel", http.StatusBadRequest)
}

func (h *Handler) HandleDisplay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	token := vars["token"]
	if token == "" {
		h.log.Warn("Connection without display credential rejected", "remote_addr", r.RemoteAddr)
		http.Error(w, "access token required", http.StatusBadRequest)
		return
	}

	timeZone := r.URL.Query().Get("tz")
	if timeZone == "" {
		timeZone = "UTC"
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade display connection", "error", err)
		return
	}
	conn := NewConnection(wsConn, h.queueSize, h.log)

	dc, err := h.coordinator.ConnectDisplay(context.Background(), conn, token, timeZone)
	if err != nil {
		// Rejected connectors are told why before the transport drops.
		conn.CloseAfterFlush()
		return
	}

	go h.readDisplay(conn, dc)
}

func (h *Handler) readDisplay(conn *Connection, dc *hub.DisplayConnection) {
	defer func() {
		h.coordinator.DisconnectedDisplay(context.Background(), dc)
		conn.Close()
	}()

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			h.log.Debug("Display read loop ended", "display_id", dc.DisplayID, "error", err)
			return
		}

		switch msg.Event {
		case "FinaliseDisplayCache":
			h.coordinator.FinaliseDisplayCache(dc)
		case "SyncDisplayClock":
			var req services.ClockSyncRequest
			if h.decode(conn, msg, &req) {
				h.coordinator.SyncDisplayClock(dc, req)
			}
		case "GetCurrentMediaTime":
			var p sessionPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.GetCurrentMediaTime(conn, p.AuctionSessionID)
			}
		default:
			h.log.Debug("Unknown display event", "display_id", dc.DisplayID, "event", msg.Event)
		}
	}
}

func (h *Handler) HandlePanel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	panelID := vars["panelID"]
	if panelID == "" {
		h.log.Warn("Connection without panel identifier rejected", "remote_addr", r.RemoteAddr)
		http.Error(w, "panel id required", http.StatusBadRequest)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade panel connection", "error", err)
		return
	}
	conn := NewConnection(wsConn, h.queueSize, h.log)

	pc := h.coordinator.ConnectPanel(context.Background(), conn, panelID)
	go h.readPanel(conn, pc)
}

func (h *Handler) readPanel(conn *Connection, pc *hub.PanelConnection) {
	ctx := context.Background()
	defer func() {
		h.coordinator.DisconnectedPanel(pc, conn)
		conn.Close()
	}()

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			h.log.Debug("Panel read loop ended", "panel_id", pc.PanelID, "error", err)
			return
		}

		switch msg.Event {
		case "SetAuctionSessionId":
			var p sessionPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.SetAuctionSessionID(ctx, pc, p.AuctionSessionID)
			}
		case "SetVenueId":
			var p venuePayload
			if h.decode(conn, msg, &p) {
				h.coordinator.SetVenueID(pc, p.VenueID)
			}
		case "SetDisplayGroupId":
			var p displayGroupPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.SetDisplayGroupID(pc, p.DisplayGroupID)
			}
		case "InitAuctionSession":
			h.coordinator.InitAuctionSession(ctx, pc)
		case "GetDisplayStatuses":
			h.coordinator.GetDisplayStatuses(ctx, pc)
		case "ChangeView":
			var p viewPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.ChangeView(ctx, pc, p.View)
			}
		case "ChangeToMediaView":
			var p mediaPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.ChangeToMediaView(ctx, pc, p.MediaID)
			}
		case "StartMedia":
			var p mediaPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.StartMedia(pc, p.MediaID)
			}
		case "PauseMedia":
			h.coordinator.PauseMedia(pc)
		case "UnpauseMedia":
			h.coordinator.UnpauseMedia(pc)
		case "ChangeMedia":
			var p mediaPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.ChangeMedia(pc, p.MediaID)
			}
		case "GetCurrentMediaTime":
			store := pc.Store()
			if store.Session != nil {
				h.coordinator.GetCurrentMediaTime(conn, store.Session.ID)
			}
		case "SyncControlPanelClock":
			var req services.ClockSyncRequest
			if h.decode(conn, msg, &req) {
				h.coordinator.SyncPanelClock(pc, req)
			}
		case "SetLotBid":
			var p bidPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.SetLotBid(ctx, pc, p.LotID, p.Amount)
			}
		case "RevertLotBid":
			var p lotPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.RevertLotBid(ctx, pc, p.LotID)
			}
		case "SetLotStatus":
			var p lotStatusPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.SetLotStatus(ctx, pc, p.LotID, domain.LotStatus(p.Status))
			}
		case "ChangePauseStatus":
			var p pausePayload
			if h.decode(conn, msg, &p) {
				h.coordinator.ChangePauseStatus(ctx, pc, p.LotID, p.Paused)
			}
		case "ChangeLot":
			var p lotPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.ChangeLot(ctx, pc, p.LotID)
			}
		case "SetImage":
			var p imagePayload
			if h.decode(conn, msg, &p) {
				h.coordinator.SetImage(ctx, pc, p.LotID, p.ImageID)
			}
		case "CompleteAuctionSession":
			var p sessionPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.CompleteAuctionSession(ctx, pc, p.AuctionSessionID)
			}
		case "DisconnectDisplay":
			var p displayPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.DisconnectDisplay(ctx, pc, p.DisplayID)
			}
		case "IdentifyDisplay":
			var p displayPayload
			if h.decode(conn, msg, &p) {
				h.coordinator.IdentifyDisplay(pc, p.DisplayID)
			}
		default:
			h.log.Debug("Unknown panel event", "panel_id", pc.PanelID, "event", msg.Event)
		}
	}
}

func (h *Handler) decode(conn *Connection, msg inbound, v interface{}) bool {
	if len(msg.Payload) == 0 {
		return false
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		h.log.Debug("Malformed payload", "event", msg.Event, "error", err)
		conn.Send(hub.Envelope{Event: domain.EventValidationFailed, Payload: map[string]string{
			"operation": msg.Event,
			"reason":    "malformed payload",
		}})
		return false
	}
	return true
}
