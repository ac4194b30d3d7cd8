package connection

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"market-pipeline/src/analysis"
	"market-pipeline/src/logger"
	"market-pipeline/src/models"
	"market-pipeline/src/pipeline"
	"market-pipeline/src/reference"
	"market-pipeline/src/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *pipeline.TransformationService {
	cfg := models.MPipelineConfig{
		HistoryCapacity:   100,
		VolumeBarCapacity: 60,
		VolumeBarWidthMs:  60_000,
		VolumeAvgWindow:   20,
		VolumeAlertFactor: 2.0,
	}
	st := store.NewSymbolDataStore(cfg)
	return pipeline.NewTransformationService(
		st,
		analysis.NewChangeCalculator(st),
		analysis.NewVolumeCalculator(st, cfg),
		reference.NewStaticProvider(),
		nil,
		cfg,
		logger.NewLogger("ERROR", "test"),
	)
}

func newTestManager(url string) *Manager {
	return NewManager(models.MFeedConfig{
		URL:                 url,
		ReconnectBaseMs:     10,
		ReconnectMaxMs:      50,
		MaxReconnectRetries: 2,
	}, newTestService(), logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------
// Channel mapping
// -----------------------------------------------------------------------------

func TestChannelsForStream(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"T"}, ChannelsForStream("trades"))
	assert.Equal(t, []string{"Q"}, ChannelsForStream("quotes"))
	assert.Equal(t, []string{"A", "AM"}, ChannelsForStream("bars"))
	assert.Equal(t, []string{"T", "Q", "A"}, ChannelsForStream("updates"))

	// Unknown streams default to trades.
	assert.Equal(t, []string{"T"}, ChannelsForStream("news"))
}

func TestChannelsForStream_ReturnsCopy(t *testing.T) {
	t.Parallel()

	a := ChannelsForStream("bars")
	a[0] = "mutated"
	assert.Equal(t, []string{"A", "AM"}, ChannelsForStream("bars"))
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

func TestSubscription_Matches(t *testing.T) {
	t.Parallel()

	sub := &Subscription{Symbols: map[string]struct{}{"AAPL": {}, "MSFT": {}}}
	assert.True(t, sub.Matches("AAPL"))
	assert.False(t, sub.Matches("TSLA"))
}

func TestSubscribe_RejectsEmptySymbolSet(t *testing.T) {
	t.Parallel()

	m := newTestManager("ws://127.0.0.1:1") // never dialed
	_, err := m.Subscribe("c1", "trades", nil, nil)
	require.Error(t, err)
	assert.Equal(t, 0, m.ActiveSubscriptions())
}

func TestSubscribe_DialFailureRollsBack(t *testing.T) {
	t.Parallel()

	// Nothing listens here; the dial fails and the registered subscription
	// must be rolled back.
	m := newTestManager("ws://127.0.0.1:1")
	_, err := m.Subscribe("c1", "trades", []string{"AAPL"}, nil)
	require.Error(t, err)
	assert.Equal(t, 0, m.ActiveSubscriptions())
}

// -----------------------------------------------------------------------------
// Wire decoding
// -----------------------------------------------------------------------------

func TestDecodeRawEvents_SingleAndBatch(t *testing.T) {
	t.Parallel()

	single := json.RawMessage(`{"event_type":"trade","symbol":"AAPL","price":100.5,"size":200}`)
	events, err := decodeRawEvents(single)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTrade, events[0].Type)
	assert.Equal(t, "AAPL", events[0].Trade.Symbol)
	assert.Equal(t, 100.5, *events[0].Trade.Price)

	batch := json.RawMessage(`[
		{"event_type":"trade","symbol":"AAPL","price":100.5},
		{"event_type":"quote","symbol":"MSFT","bid":400,"ask":400.2}
	]`)
	events, err = decodeRawEvents(batch)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventQuote, events[1].Type)
	assert.Equal(t, "MSFT", events[1].Quote.Symbol)
}

func TestDecodeRawEvents_Empty(t *testing.T) {
	t.Parallel()

	events, err := decodeRawEvents(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDecodeRawEvents_Malformed(t *testing.T) {
	t.Parallel()

	_, err := decodeRawEvents(json.RawMessage(`{"event_type":"order"}`))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------
// Routing
// -----------------------------------------------------------------------------

func TestRoute_DeliversOnlyMatchingSymbols(t *testing.T) {
	t.Parallel()

	m := newTestManager("ws://unused")

	var got []string
	m.subs["s1"] = &Subscription{
		ID:       "s1",
		ClientID: "c1",
		Symbols:  map[string]struct{}{"AAPL": {}},
		Handler: func(subID string, rec models.MCanonicalRecord) {
			got = append(got, rec.Symbol)
		},
	}
	m.subs["s2"] = &Subscription{
		ID:       "s2",
		ClientID: "other-client",
		Symbols:  map[string]struct{}{"MSFT": {}},
		Handler: func(subID string, rec models.MCanonicalRecord) {
			t.Errorf("record leaked to another client's subscription")
		},
	}

	m.route("c1", []models.MCanonicalRecord{
		{Symbol: "AAPL"},
		{Symbol: "MSFT"}, // no matching sub on c1, silently dropped
		{Symbol: "AAPL"},
	})

	assert.Equal(t, []string{"AAPL", "AAPL"}, got)
}

// -----------------------------------------------------------------------------
// End to end against a stub feed
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stubFeed upgrades, waits for the subscribe request and answers with one
// market_data batch.
func stubFeed(t *testing.T, payload string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer ws.Close()

		var sub models.MSubscribeRequest
		if err := ws.ReadJSON(&sub); err != nil {
			t.Errorf("expected subscribe request: %v", err)
			return
		}
		if sub.Action != "subscribe" {
			t.Errorf("expected subscribe action, got %q", sub.Action)
		}

		ws.WriteMessage(websocket.TextMessage, []byte(payload))

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestManager_EndToEndDelivery(t *testing.T) {
	feed := stubFeed(t, `{
		"type": "market_data",
		"data": [
			{"event_type":"trade","symbol":"AAPL","price":187.5,"size":500,"timestamp":1700000000000},
			{"event_type":"trade","symbol":"TSLA","price":250.0,"size":100,"timestamp":1700000000000}
		]
	}`)
	defer feed.Close()

	url := "ws" + strings.TrimPrefix(feed.URL, "http")
	m := newTestManager(url)
	defer m.Close()

	delivered := make(chan models.MCanonicalRecord, 4)
	subID, err := m.Subscribe("feed", "trades", []string{"AAPL"}, func(id string, rec models.MCanonicalRecord) {
		delivered <- rec
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(subID, "sub-"))
	assert.Equal(t, StateOpen, m.ConnectionState("feed"))

	select {
	case rec := <-delivered:
		assert.Equal(t, "AAPL", rec.Symbol)
		assert.Equal(t, 187.5, rec.Price)
		assert.Equal(t, 500.0, rec.Volume)
	case <-time.After(2 * time.Second):
		t.Fatal("no record delivered")
	}

	// TSLA was in the batch but not in the subscription's symbol set.
	select {
	case rec := <-delivered:
		t.Fatalf("unexpected extra delivery for %s", rec.Symbol)
	case <-time.After(100 * time.Millisecond):
	}

	metrics := m.Metrics()
	assert.Equal(t, int64(2), metrics.RecordsProcessed)
	assert.Equal(t, 1, metrics.ActiveSubscriptions)
}

func TestManager_AbandonPurgesSubscriptions(t *testing.T) {
	// A feed that accepts once then dies; with an unreachable address on
	// reconnect the manager exhausts its 2 retries and abandons.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close()
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	m := newTestManager(url)
	defer m.Close()

	_, err := m.Subscribe("feed", "trades", []string{"AAPL"}, nil)
	require.NoError(t, err)

	// Kill the feed so every reconnect attempt fails.
	srv.Close()

	deadline := time.After(5 * time.Second)
	for {
		var abandoned bool
		select {
		case ev := <-m.Events():
			if ev.Kind == EventAbandoned {
				assert.Equal(t, "feed", ev.ClientID)
				assert.Len(t, ev.PurgedIDs, 1)
				abandoned = true
			}
		case <-deadline:
			t.Fatal("connection never abandoned")
		}
		if abandoned {
			break
		}
	}

	assert.Equal(t, 0, m.ActiveSubscriptions())
	assert.Equal(t, StateIdle, m.ConnectionState("feed"))
}
