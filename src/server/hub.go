package server

import (
	"encoding/json"
	"net/http"

	"market-pipeline/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main hub loop: registration, unregistration and fan-out.
func (s *DashboardServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			s.stateMutex.Unlock()

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case rec, ok := <-s.broadcast:
			if !ok {
				return
			}

			s.stateMutex.Lock()
			s.latest[rec.Symbol] = rec

			for client := range s.clients {
				if !client.wants(rec.Symbol) {
					continue
				}
				select {
				case client.send <- rec:
				default:
					// Client too slow, disconnect to prevent the hub
					// from blocking on a dead consumer.
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues one canonical record for fan-out. Used as the delivery
// handler of the feed subscriptions.
func (s *DashboardServer) Broadcast(rec models.MCanonicalRecord) {
	select {
	case s.broadcast <- rec:
	default:
		// Queue full: drop rather than stall the feed-processing goroutine.
		s.Logger.Warning("broadcast queue full, dropping record for %s", rec.Symbol)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the hub loop
		send:    make(chan models.MCanonicalRecord, 256),
		symbols: make(map[string]struct{}),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command: it narrows the client's
// symbol filter and replies with the matching snapshots.
func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	client.setSymbols(cmd.Symbols)

	s.stateMutex.RLock()
	var initial []models.MCanonicalRecord
	for sym, rec := range s.latest {
		if client.wants(sym) {
			initial = append(initial, rec)
		}
	}
	s.stateMutex.RUnlock()

	for _, rec := range initial {
		select {
		case client.send <- rec:
		default:
			return
		}
	}
}
