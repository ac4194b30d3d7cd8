package connection

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait  = 2 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// -----------------------------------------------------------------------------
// Connection wraps one upstream websocket for a logical client.
// -----------------------------------------------------------------------------

type Connection struct {
	ClientID string

	state   State
	ws      *websocket.Conn
	attempt int // current reconnect attempt, reset on open

	writeMu sync.Mutex
	done    chan struct{} // closed when the read loop exits
	mu      sync.Mutex
}

// -----------------------------------------------------------------------------

func newConnection(clientID string) *Connection {
	return &Connection{
		ClientID: clientID,
		state:    StateIdle,
	}
}

// -----------------------------------------------------------------------------

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// dial performs the transport handshake and installs the pong watchdog.
func (c *Connection) dial(url string, header http.Header) error {
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return err
	}

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.mu.Lock()
	c.ws = ws
	c.done = make(chan struct{})
	c.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

// writeJSON serializes writes: the read loop and the subscribe path both
// write to the socket.
func (c *Connection) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// -----------------------------------------------------------------------------

func (c *Connection) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

// -----------------------------------------------------------------------------

func (c *Connection) close() {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		ws.Close()
	}
}
