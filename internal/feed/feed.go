// Package feed subscribes to the swap daemon's event stream over WebSocket
// and routes each notification envelope into the session read model.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/eigenwallet/swapwatch/internal/protocol"
)

// Config configures the event feed subscriber.
type Config struct {
	URL            string        // Daemon base URL (e.g. "ws://127.0.0.1:1234")
	MaxRetries     int           // Max consecutive reconnection attempts (default: 25)
	ReconnectDelay time.Duration // Base delay between reconnects (default: 1s)
}

// Dispatcher receives every decoded notification envelope.
type Dispatcher interface {
	Dispatch(env protocol.Envelope)
}

// Subscriber maintains the WebSocket subscription to the daemon's event
// stream. One bad frame never terminates the stream.
type Subscriber struct {
	config     Config
	dispatcher Dispatcher
	log        *zap.Logger

	mu            sync.RWMutex
	conn          *websocket.Conn
	connectedAt   time.Time
	frameCount    uint64
	lastFrameAt   time.Time
	droppedFrames uint64
}

// New creates a subscriber. Frames are handed to dispatcher in arrival order.
func New(config Config, dispatcher Dispatcher, log *zap.Logger) *Subscriber {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 25
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = time.Second
	}
	return &Subscriber{
		config:     config,
		dispatcher: dispatcher,
		log:        log.Named("feed"),
	}
}

// Run connects and reads frames until the context is cancelled. Disconnects
// are retried with linear backoff; the attempt counter resets after any
// successful connection.
func (s *Subscriber) Run(ctx context.Context) error {
	wsURL, err := s.buildURL()
	if err != nil {
		return fmt.Errorf("feed: build url: %w", err)
	}

	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.log.Info("connecting to daemon event stream",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", s.config.MaxRetries),
			zap.String("url", wsURL),
		)

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err == nil {
			s.mu.Lock()
			s.conn = conn
			s.connectedAt = time.Now()
			s.frameCount = 0
			s.mu.Unlock()

			s.log.Info("event stream connected", zap.String("url", wsURL))

			err = s.listen(ctx)
			if err == context.Canceled {
				return err
			}

			s.mu.Lock()
			uptime := time.Since(s.connectedAt)
			frames := s.frameCount
			if s.conn != nil {
				_ = s.conn.Close()
				s.conn = nil
			}
			s.mu.Unlock()

			s.log.Warn("event stream disconnected",
				zap.Error(err),
				zap.Duration("uptime", uptime.Round(time.Second)),
				zap.Uint64("frames_received", frames),
			)

			attempt = 0
			continue
		}

		s.log.Warn("failed to connect to daemon",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		// Linear backoff
		delay := time.Duration(attempt+1) * s.config.ReconnectDelay
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("feed: max retries (%d) reached", s.config.MaxRetries)
}

// buildURL constructs the event subscription URL from the daemon base URL.
func (s *Subscriber) buildURL() (string, error) {
	parsed, err := url.Parse(s.config.URL)
	if err != nil {
		return "", err
	}

	host := parsed.Host
	if host == "" {
		host = parsed.Path
	}

	wsScheme := "ws"
	if parsed.Scheme == "https" || parsed.Scheme == "wss" {
		wsScheme = "wss"
	}

	wsURL := url.URL{
		Scheme: wsScheme,
		Host:   host,
		Path:   "/api/v1/events",
	}
	return wsURL.String(), nil
}

// listen reads frames from the connection and dispatches them.
func (s *Subscriber) listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		env, err := DecodeFrame(data)
		if err != nil {
			s.mu.Lock()
			s.droppedFrames++
			s.mu.Unlock()
			s.log.Warn("malformed event frame dropped",
				zap.Error(err),
				zap.Int("frame_len", len(data)),
			)
			continue
		}

		s.mu.Lock()
		s.frameCount++
		s.lastFrameAt = time.Now()
		s.mu.Unlock()

		s.dispatcher.Dispatch(env)
	}
}

// DecodeFrame parses one wire frame into a notification envelope. The channel
// tag must be present; payload validation is left to the channel handlers.
func DecodeFrame(data []byte) (protocol.Envelope, error) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return protocol.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Channel == "" {
		return protocol.Envelope{}, fmt.Errorf("decode envelope: missing channel tag")
	}
	return env, nil
}

// Close closes the current connection, if any.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// IsConnected reports whether a connection is currently established.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil
}

// Stats returns subscription statistics for the health endpoint.
func (s *Subscriber) Stats() (connected bool, uptime time.Duration, frames, dropped uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	connected = s.conn != nil
	if connected {
		uptime = time.Since(s.connectedAt)
	}
	return connected, uptime, s.frameCount, s.droppedFrames
}
