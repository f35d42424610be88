package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-hub/internal/domain"
	"auction-hub/internal/hub"
	"auction-hub/pkg/logger"
)

type wireEnvelope struct {
	Event string `json:"event"`
}

// dialConnection stands up a real upgraded socket pair: the server side
// wrapped in Connection, the client side a raw gorilla conn.
func dialConnection(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()

	upgraded := make(chan *Connection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			upgraded <- nil
			return
		}
		upgraded <- NewConnection(conn, 8, logger.NewNop())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case c := <-upgraded:
		require.NotNil(t, c, "upgrade failed")
		return c, client
	case <-time.After(time.Second):
		t.Fatal("server side never upgraded")
		return nil, nil
	}
}

func TestCloseAfterFlushDeliversQueuedNotices(t *testing.T) {
	server, client := dialConnection(t)

	// The eviction sequence: two parting notices, then the close.
	require.NoError(t, server.Send(hub.Envelope{Event: domain.EventLoggedInElsewhere}))
	require.NoError(t, server.Send(hub.Envelope{Event: domain.EventForceDisconnect}))
	require.NoError(t, server.CloseAfterFlush())

	var got []string
	for {
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		var env wireEnvelope
		if err := client.ReadJSON(&env); err != nil {
			break
		}
		got = append(got, env.Event)
	}
	assert.Equal(t, []string{domain.EventLoggedInElsewhere, domain.EventForceDisconnect}, got,
		"both notices must arrive before the transport drops")
}

func TestSendRefusedWhileFlushing(t *testing.T) {
	server, _ := dialConnection(t)

	require.NoError(t, server.CloseAfterFlush())
	assert.ErrorIs(t, server.Send(hub.Envelope{Event: domain.EventSetStoreValues}), ErrConnectionClosing)
}

func TestSendRefusedAfterClose(t *testing.T) {
	server, _ := dialConnection(t)

	server.Close()
	assert.ErrorIs(t, server.Send(hub.Envelope{Event: domain.EventSetStoreValues}), ErrConnectionClosed)
}
