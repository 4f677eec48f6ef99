package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapfiredev/snapfire/internal/logging"
	"github.com/snapfiredev/snapfire/internal/reload"
)

func startSessionServer(t *testing.T, bus *reload.Bus, cfg SessionConfig) string {
	t.Helper()
	srv := httptest.NewServer(WSHandler(bus, logging.Discard(), cfg))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	return conn
}

func waitForSubscribers(t *testing.T, bus *reload.Bus, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for bus.ActiveCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", want, bus.ActiveCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionForwardsCommands(t *testing.T) {
	bus := reload.NewBus()
	url := startSessionServer(t, bus, SessionConfig{})

	conn := dial(t, url)
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForSubscribers(t, bus, 1)
	bus.Publish(reload.FullReload)
	bus.Publish(reload.StyleReload)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Equal(t, "reload", string(data))

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reload-css", string(data))
}

func TestSessionFansOutToEveryClient(t *testing.T) {
	bus := reload.NewBus()
	url := startSessionServer(t, bus, SessionConfig{})

	first := dial(t, url)
	defer first.Close(websocket.StatusNormalClosure, "")
	second := dial(t, url)
	defer second.Close(websocket.StatusNormalClosure, "")

	waitForSubscribers(t, bus, 2)
	bus.Publish(reload.FullReload)

	for _, conn := range []*websocket.Conn{first, second} {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, data, err := conn.Read(ctx)
		cancel()
		require.NoError(t, err)
		assert.Equal(t, "reload", string(data))
	}
}

func TestSessionEndsOnClientClose(t *testing.T) {
	bus := reload.NewBus()
	url := startSessionServer(t, bus, SessionConfig{})

	conn := dial(t, url)
	waitForSubscribers(t, bus, 1)

	// The server echoes the client's status and reason in its handshake.
	require.NoError(t, conn.Close(websocket.StatusGoingAway, "tab closed"))

	// The session unsubscribes on exit.
	waitForSubscribers(t, bus, 0)
}

func TestSessionEvictsSilentClient(t *testing.T) {
	bus := reload.NewBus()
	url := startSessionServer(t, bus, SessionConfig{
		HeartbeatInterval: 50 * time.Millisecond,
		ClientTimeout:     150 * time.Millisecond,
	})

	conn := dial(t, url)
	defer conn.CloseNow()
	waitForSubscribers(t, bus, 1)

	// The client never reads, so it never answers pings. The server must
	// evict it within the next heartbeat tick after the timeout and release
	// the subscription without waiting out a close handshake.
	start := time.Now()
	waitForSubscribers(t, bus, 0)
	assert.Less(t, time.Since(start), time.Second, "eviction must not wait on a close handshake")
}

func TestSessionSurvivesHeartbeats(t *testing.T) {
	bus := reload.NewBus()
	url := startSessionServer(t, bus, SessionConfig{
		HeartbeatInterval: 30 * time.Millisecond,
		ClientTimeout:     90 * time.Millisecond,
	})

	conn := dial(t, url)
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForSubscribers(t, bus, 1)

	// A reading client answers pings at protocol level and stays connected
	// across several timeout windows.
	readCtx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	go conn.Read(readCtx)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, bus.ActiveCount(), "live client must not be evicted")
}

func TestSessionConfigDefaults(t *testing.T) {
	cfg := SessionConfig{}.withDefaults()
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 10*time.Second, cfg.ClientTimeout)

	custom := SessionConfig{HeartbeatInterval: time.Second, ClientTimeout: 2 * time.Second}.withDefaults()
	assert.Equal(t, time.Second, custom.HeartbeatInterval)
	assert.Equal(t, 2*time.Second, custom.ClientTimeout)
}

func TestWSHandlerRejectsPlainHTTP(t *testing.T) {
	bus := reload.NewBus()
	handler := WSHandler(bus, logging.Discard(), SessionConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_snapfire/ws", nil))

	assert.NotEqual(t, http.StatusSwitchingProtocols, rec.Code)
	assert.Equal(t, 0, bus.ActiveCount())
}
