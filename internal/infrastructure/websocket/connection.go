package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"auction-hub/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	ErrSendQueueFull     = errors.New("connection send queue full")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrConnectionClosing = errors.New("connection closing")
)

// Connection wraps one gorilla websocket with a buffered outbound queue and
// a single writer goroutine. Sends never block the caller: a recipient that
// stops draining its queue loses messages, not the broadcasting handler.
type Connection struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	flushOnce sync.Once
	closed    chan struct{}
	draining  chan struct{}
	log       logger.Logger
}

func NewConnection(conn *websocket.Conn, queueSize int, log logger.Logger) *Connection {
	c := &Connection{
		conn:     conn,
		send:     make(chan []byte, queueSize),
		closed:   make(chan struct{}),
		draining: make(chan struct{}),
		log:      log,
	}
	// Deadline and pong handler are reader-side state; they must be in
	// place before any goroutine touches the socket.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.writePump()
	return c
}

func (c *Connection) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return ErrConnectionClosed
	case <-c.draining:
		return ErrConnectionClosing
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.log.Warn("Dropping message for slow connection")
		return ErrSendQueueFull
	}
}

func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

// CloseAfterFlush stops accepting new sends and lets the write pump flush
// everything already queued before the socket drops. Parting notices such
// as a force-disconnect ride the queue, so a plain Close would race them.
func (c *Connection) CloseAfterFlush() error {
	c.flushOnce.Do(func() {
		close(c.draining)
	})
	return nil
}

// ReadJSON blocks on the next inbound frame.
func (c *Connection) ReadJSON(v interface{}) error {
	return c.conn.ReadJSON(v)
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case <-c.draining:
			c.drain()
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("Write failed, closing connection", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drain writes out whatever is still queued, then a close frame.
func (c *Connection) drain() {
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("Write failed during drain", "error", err)
				return
			}
		default:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
