package connection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"market-pipeline/src/helpers"
	"market-pipeline/src/logger"
	"market-pipeline/src/models"
	"market-pipeline/src/pipeline"
)

// -----------------------------------------------------------------------------
// Manager owns one upstream websocket per logical client, multiplexes
// subscriptions over it, reconnects with capped linear backoff and routes
// transformed records to the subscriptions whose symbol set matches.
// -----------------------------------------------------------------------------

type Manager struct {
	Config  models.MFeedConfig
	Service *pipeline.TransformationService
	Logger  *logger.Logger

	conns map[string]*Connection
	subs  map[string]*Subscription

	events chan Event

	base       time.Duration
	max        time.Duration
	maxRetries int

	reconnectAttempts  atomic.Int64
	reconnectSuccesses atomic.Int64
	connectionsLost    atomic.Int64

	closed atomic.Bool
	mu     sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewManager(cfg models.MFeedConfig, svc *pipeline.TransformationService, log *logger.Logger) *Manager {
	base := time.Duration(cfg.ReconnectBaseMs) * time.Millisecond
	if base <= 0 {
		base = 5 * time.Second
	}
	max := time.Duration(cfg.ReconnectMaxMs) * time.Millisecond
	if max <= 0 {
		max = 30 * time.Second
	}
	retries := cfg.MaxReconnectRetries
	if retries <= 0 {
		retries = 10
	}

	return &Manager{
		Config:     cfg,
		Service:    svc,
		Logger:     log,
		conns:      make(map[string]*Connection),
		subs:       make(map[string]*Subscription),
		events:     make(chan Event, 64),
		base:       base,
		max:        max,
		maxRetries: retries,
	}
}

// -----------------------------------------------------------------------------

// Events exposes connection-lifecycle notifications. Slow consumers lose
// events rather than blocking the manager.
func (m *Manager) Events() <-chan Event {
	return m.events
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

// -----------------------------------------------------------------------------
// Subscribe / Unsubscribe
// -----------------------------------------------------------------------------

// Subscribe registers a symbol set on a logical stream for a client, opening
// the client's connection if needed, and returns the subscription id.
func (m *Manager) Subscribe(clientID, stream string, symbols []string, h Handler) (string, error) {
	if len(symbols) == 0 {
		return "", helpers.NewValidationError("subscribe rejected: empty symbol set")
	}

	sub := &Subscription{
		ID:       newSubscriptionID(),
		ClientID: clientID,
		Stream:   stream,
		Symbols:  make(map[string]struct{}, len(symbols)),
		Handler:  h,
	}
	for _, sym := range symbols {
		sub.Symbols[sym] = struct{}{}
	}

	m.mu.Lock()
	conn, ok := m.conns[clientID]
	if !ok {
		conn = newConnection(clientID)
		m.conns[clientID] = conn
	}
	m.subs[sub.ID] = sub
	m.mu.Unlock()

	switch conn.State() {
	case StateIdle, StateClosed:
		if err := m.connect(conn); err != nil {
			m.mu.Lock()
			delete(m.subs, sub.ID)
			m.mu.Unlock()
			return "", helpers.NewConnectionError(err, "connect failed for client %s", clientID)
		}
	case StateOpen:
		if err := conn.writeJSON(models.MSubscribeRequest{
			Action:   "subscribe",
			Symbols:  sub.SymbolList(),
			Channels: ChannelsForStream(sub.Stream),
		}); err != nil {
			m.Logger.Warning("subscribe write failed for %s: %v", clientID, err)
		}
	case StateReconnecting, StateConnecting:
		// Registered now, replayed once the connection reopens.
	case StateAbandoned:
		m.mu.Lock()
		delete(m.subs, sub.ID)
		m.mu.Unlock()
		return "", helpers.NewConnectionError(nil, "client %s connection is abandoned", clientID)
	}

	return sub.ID, nil
}

// -----------------------------------------------------------------------------

// Unsubscribe removes a subscription. Symbols no longer referenced by any
// remaining subscription of the client are unsubscribed upstream; a client
// with no subscriptions left has its connection discarded.
func (m *Manager) Unsubscribe(subID string) error {
	m.mu.Lock()
	sub, ok := m.subs[subID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("subscription %s not found", subID)
	}
	delete(m.subs, subID)

	stillNeeded := make(map[string]struct{})
	remaining := 0
	for _, other := range m.subs {
		if other.ClientID != sub.ClientID {
			continue
		}
		remaining++
		for sym := range other.Symbols {
			stillNeeded[sym] = struct{}{}
		}
	}

	var released []string
	for sym := range sub.Symbols {
		if _, ok := stillNeeded[sym]; !ok {
			released = append(released, sym)
		}
	}

	conn := m.conns[sub.ClientID]
	if remaining == 0 {
		delete(m.conns, sub.ClientID)
	}
	m.mu.Unlock()

	if conn != nil && conn.State() == StateOpen {
		if len(released) > 0 {
			if err := conn.writeJSON(models.MUnsubscribeRequest{
				Action:  "unsubscribe",
				Symbols: released,
			}); err != nil {
				m.Logger.Warning("unsubscribe write failed for %s: %v", sub.ClientID, err)
			}
		}
		if remaining == 0 {
			conn.close()
		}
	}

	return nil
}

// -----------------------------------------------------------------------------
// Connection lifecycle
// -----------------------------------------------------------------------------

func (m *Manager) header() http.Header {
	h := http.Header{}
	if m.Config.APIKey != "" {
		h.Set("Authorization", "Bearer "+m.Config.APIKey)
	}
	return h
}

// -----------------------------------------------------------------------------

// connect performs the handshake and, on success, registers the open
// connection, resets its retry counter and replays its subscriptions.
func (m *Manager) connect(conn *Connection) error {
	conn.setState(StateConnecting)

	if err := conn.dial(m.Config.URL, m.header()); err != nil {
		conn.setState(StateClosed)
		return err
	}

	m.open(conn)
	return nil
}

// -----------------------------------------------------------------------------

// open transitions a freshly dialed connection to Open and starts its pumps.
func (m *Manager) open(conn *Connection) {
	conn.setState(StateOpen)
	conn.mu.Lock()
	conn.attempt = 0
	conn.mu.Unlock()

	m.Logger.Info("connection open for client %s", conn.ClientID)
	m.emit(Event{ClientID: conn.ClientID, Kind: EventConnected})

	m.replaySubscriptions(conn)

	go m.readLoop(conn)
	go m.pingLoop(conn)
}

// -----------------------------------------------------------------------------

// replaySubscriptions re-sends the subscribe message for every active
// subscription of the connection's client.
func (m *Manager) replaySubscriptions(conn *Connection) {
	m.mu.RLock()
	var subs []*Subscription
	for _, sub := range m.subs {
		if sub.ClientID == conn.ClientID {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	for _, sub := range subs {
		if err := conn.writeJSON(models.MSubscribeRequest{
			Action:   "subscribe",
			Symbols:  sub.SymbolList(),
			Channels: ChannelsForStream(sub.Stream),
		}); err != nil {
			m.Logger.Warning("resubscribe write failed for %s: %v", conn.ClientID, err)
			return
		}
	}
}

// -----------------------------------------------------------------------------

func (m *Manager) readLoop(conn *Connection) {
	defer m.handleDisconnect(conn)

	for {
		_, message, err := conn.ws.ReadMessage()
		if err != nil {
			if m.closed.Load() {
				return
			}
			m.Logger.Warning("read error for client %s: %v", conn.ClientID, err)
			return
		}
		m.handleMessage(conn, message)
	}
}

// -----------------------------------------------------------------------------

func (m *Manager) pingLoop(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				conn.close()
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

// handleMessage dispatches one inbound wire message. Unrecognized types are
// logged and ignored.
func (m *Manager) handleMessage(conn *Connection, message []byte) {
	var msg models.MWireMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		m.Logger.Warning("malformed message from feed for %s: %v", conn.ClientID, err)
		return
	}

	switch msg.Type {
	case models.WireMarketData:
		events, err := decodeRawEvents(msg.Data)
		if err != nil {
			m.Logger.Warning("malformed market_data payload for %s: %v", conn.ClientID, err)
			return
		}
		records := m.Service.TransformBatch(events)
		m.route(conn.ClientID, records)

	case models.WireConnected, models.WireSubscribed:
		m.Logger.Debug("feed %s acknowledged for client %s", msg.Type, conn.ClientID)

	case models.WirePong:
		// Health-check reply, nothing to do.

	case models.WireError:
		m.Logger.Warning("feed error for client %s: %s", conn.ClientID, string(msg.Data))

	default:
		m.Logger.Info("ignoring unrecognized message type %q", msg.Type)
	}
}

// -----------------------------------------------------------------------------

// decodeRawEvents accepts a single record or a batch.
func decodeRawEvents(data json.RawMessage) ([]models.MRawEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var events []models.MRawEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	var ev models.MRawEvent
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, err
	}
	return []models.MRawEvent{ev}, nil
}

// -----------------------------------------------------------------------------

// route delivers records to every matching subscription of the originating
// client. Non-matching records are silently dropped for that subscription.
func (m *Manager) route(clientID string, records []models.MCanonicalRecord) {
	m.mu.RLock()
	var subs []*Subscription
	for _, sub := range m.subs {
		if sub.ClientID == clientID {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	for _, rec := range records {
		for _, sub := range subs {
			if sub.Matches(rec.Symbol) && sub.Handler != nil {
				sub.Handler(sub.ID, rec)
			}
		}
	}
}

// -----------------------------------------------------------------------------

// handleDisconnect runs when a read loop exits: transition to Closed and
// schedule reconnection if the client still has subscriptions.
func (m *Manager) handleDisconnect(conn *Connection) {
	conn.mu.Lock()
	if conn.done != nil {
		select {
		case <-conn.done:
		default:
			close(conn.done)
		}
	}
	conn.mu.Unlock()
	conn.close()
	conn.setState(StateClosed)

	if m.closed.Load() {
		return
	}

	m.connectionsLost.Add(1)
	m.emit(Event{ClientID: conn.ClientID, Kind: EventDisconnected})

	if m.activeSubCount(conn.ClientID) == 0 {
		m.Logger.Info("client %s has no subscriptions, discarding connection", conn.ClientID)
		m.mu.Lock()
		delete(m.conns, conn.ClientID)
		m.mu.Unlock()
		return
	}

	go m.reconnectLoop(conn)
}

// -----------------------------------------------------------------------------

// reconnectLoop retries with delay min(base*attempt, max). The subscription
// set emptying cancels the cycle; exceeding maxRetries abandons the
// connection.
func (m *Manager) reconnectLoop(conn *Connection) {
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		if m.closed.Load() {
			return
		}
		if m.activeSubCount(conn.ClientID) == 0 {
			m.Logger.Info("client %s unsubscribed during reconnect, stopping", conn.ClientID)
			conn.setState(StateIdle)
			m.mu.Lock()
			delete(m.conns, conn.ClientID)
			m.mu.Unlock()
			return
		}

		conn.setState(StateReconnecting)
		delay := helpers.ReconnectDelay(attempt, m.base, m.max)
		m.Logger.Info("client %s reconnect attempt %d/%d in %v", conn.ClientID, attempt, m.maxRetries, delay)
		m.emit(Event{ClientID: conn.ClientID, Kind: EventReconnecting, Attempt: attempt})
		time.Sleep(delay)

		m.reconnectAttempts.Add(1)
		conn.setState(StateConnecting)
		conn.mu.Lock()
		conn.attempt = attempt
		conn.mu.Unlock()

		if err := conn.dial(m.Config.URL, m.header()); err != nil {
			m.Logger.Warning("client %s reconnect attempt %d failed: %v", conn.ClientID, attempt, err)
			conn.setState(StateClosed)
			continue
		}

		m.reconnectSuccesses.Add(1)
		m.open(conn)
		return
	}

	m.abandon(conn)
}

// -----------------------------------------------------------------------------

// abandon marks the connection terminally failed and purges its
// subscriptions: leaving them dangling on a dead connection would leak, so
// the terminal notification carries the purged ids instead.
func (m *Manager) abandon(conn *Connection) {
	conn.setState(StateAbandoned)

	m.mu.Lock()
	var purged []string
	for id, sub := range m.subs {
		if sub.ClientID == conn.ClientID {
			purged = append(purged, id)
			delete(m.subs, id)
		}
	}
	delete(m.conns, conn.ClientID)
	m.mu.Unlock()

	m.Logger.Error("client %s abandoned after %d attempts, purged %d subscriptions",
		conn.ClientID, m.maxRetries, len(purged))
	m.emit(Event{
		ClientID:  conn.ClientID,
		Kind:      EventAbandoned,
		Attempt:   m.maxRetries,
		PurgedIDs: purged,
	})
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

func (m *Manager) activeSubCount(clientID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, sub := range m.subs {
		if sub.ClientID == clientID {
			count++
		}
	}
	return count
}

// -----------------------------------------------------------------------------

// ActiveSubscriptions returns the total number of live subscriptions.
func (m *Manager) ActiveSubscriptions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// -----------------------------------------------------------------------------

// ConnectionState reports the state of a client's connection.
func (m *Manager) ConnectionState(clientID string) State {
	m.mu.RLock()
	conn, ok := m.conns[clientID]
	m.mu.RUnlock()

	if !ok {
		return StateIdle
	}
	return conn.State()
}

// -----------------------------------------------------------------------------

// Metrics merges connection counters into the pipeline metrics snapshot.
func (m *Manager) Metrics() models.MProcessingMetrics {
	metrics := m.Service.Metrics()
	metrics.ReconnectAttempts = m.reconnectAttempts.Load()
	metrics.ReconnectSuccesses = m.reconnectSuccesses.Load()
	metrics.ConnectionsLost = m.connectionsLost.Load()
	metrics.ActiveSubscriptions = m.ActiveSubscriptions()
	return metrics
}

// -----------------------------------------------------------------------------

// Close shuts down every connection. Reconnection loops observe the closed
// flag and stop.
func (m *Manager) Close() {
	m.closed.Store(true)

	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.conns))
	for _, conn := range m.conns {
		conns = append(conns, conn)
	}
	m.conns = make(map[string]*Connection)
	m.subs = make(map[string]*Subscription)
	m.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
}
