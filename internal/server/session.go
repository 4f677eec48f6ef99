// Package server hosts the browser-facing side of the reload pipeline: the
// WebSocket session endpoint that forwards bus commands to connected tabs
// and evicts clients that stop responding to heartbeats.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/snapfiredev/snapfire/internal/logging"
	"github.com/snapfiredev/snapfire/internal/reload"
)

const (
	// defaultHeartbeatInterval is how often pings are sent to the client.
	defaultHeartbeatInterval = 5 * time.Second

	// defaultClientTimeout is how long a client may stay silent before it
	// is evicted. Must exceed the heartbeat interval.
	defaultClientTimeout = 10 * time.Second

	// writeTimeout bounds a single frame write to the client.
	writeTimeout = 10 * time.Second
)

// SessionConfig tunes the heartbeat timings. Zero values use the defaults;
// tests shrink them to avoid multi-second sleeps.
type SessionConfig struct {
	HeartbeatInterval time.Duration
	ClientTimeout     time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.ClientTimeout <= 0 {
		c.ClientTimeout = defaultClientTimeout
	}

	return c
}

// WSHandler returns the HTTP handler for the session endpoint. Each accepted
// connection subscribes to the bus and runs its own session until close,
// heartbeat timeout, or write failure.
func WSHandler(bus *reload.Bus, logger logging.Logger, cfg SessionConfig) http.HandlerFunc {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("session")
	cfg = cfg.withDefaults()

	return func(w http.ResponseWriter, r *http.Request) {
		activity := make(chan struct{}, 1)
		pulse := func() {
			select {
			case activity <- struct{}{}:
			default:
			}
		}

		// Protocol pings and pongs count as liveness even though the
		// library consumes the frames itself.
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OnPingReceived: func(context.Context, []byte) bool {
				pulse()
				return true
			},
			OnPongReceived: func(context.Context, []byte) {
				pulse()
			},
		})
		if err != nil {
			logger.Warn(r.Context(), err, "websocket upgrade failed")
			return
		}

		logger.Debug(r.Context(), "client connected", "remote", r.RemoteAddr)

		s := &session{
			conn:     conn,
			sub:      bus.Subscribe(),
			logger:   logger,
			cfg:      cfg,
			activity: activity,
		}
		s.run()
	}
}

// session is the per-connection state: one open development tab.
type session struct {
	conn     *websocket.Conn
	sub      *reload.Subscriber
	logger   logging.Logger
	cfg      SessionConfig
	activity chan struct{}
}

// run drives the session until one of its termination conditions fires.
//
// Inbound frames are drained on a separate goroutine; any frame, including
// protocol pings and pongs surfaced by the accept callbacks, refreshes the
// heartbeat deadline. A completed outbound Ping implies a pong arrived,
// which also refreshes it.
//
// A client-initiated close gets the graceful handshake back, echoing its
// status and reason. Timeouts and write failures mean the peer is not
// answering; those paths drop the connection immediately rather than wait
// out a close handshake with a dead client. Either way the bus subscription
// is released before the connection is torn down.
func (s *session) run() {
	ctx := context.Background()

	readDone := make(chan error, 1)
	go s.readFrames(ctx, readDone)

	lastHeartbeat := time.Now()
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	status := websocket.StatusNormalClosure
	reason := ""
	graceful := true

loop:
	for {
		select {
		case <-ticker.C:
			if time.Since(lastHeartbeat) > s.cfg.ClientTimeout {
				s.logger.Info(ctx, "client heartbeat failed, disconnecting")
				graceful = false
				break loop
			}
			pingCtx, cancel := context.WithTimeout(ctx, s.cfg.HeartbeatInterval)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				graceful = false
				break loop
			}
			lastHeartbeat = time.Now()

		case <-s.activity:
			lastHeartbeat = time.Now()

		case cmd, ok := <-s.sub.C():
			if !ok {
				break loop
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(writeCtx, websocket.MessageText, []byte(cmd.Token()))
			cancel()
			if err != nil {
				// Client is gone; stop trying to send.
				graceful = false
				break loop
			}
			s.logger.Debug(ctx, "command sent", "command", cmd.String())

		case err := <-readDone:
			var ce websocket.CloseError
			if errors.As(err, &ce) {
				// Echo the client's close status and reason.
				status = ce.Code
				reason = ce.Reason
			} else {
				// Read failed without a close frame; the peer is gone.
				graceful = false
			}
			break loop
		}
	}

	s.sub.Close()

	if graceful {
		s.conn.Close(status, reason)
	} else {
		s.conn.CloseNow()
	}
	s.logger.Debug(ctx, "client disconnected")
}

// readFrames drains inbound frames. Text and binary payloads are discarded;
// their arrival still counts as liveness.
func (s *session) readFrames(ctx context.Context, done chan<- error) {
	for {
		_, _, err := s.conn.Read(ctx)
		if err != nil {
			done <- err
			return
		}
		select {
		case s.activity <- struct{}{}:
		default:
		}
	}
}
