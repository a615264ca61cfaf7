package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// SnapshotHandler receives every snapshot the client reads from a hub.
type SnapshotHandler func(Snapshot)

// ClientConfig holds connection settings for a stream client.
type ClientConfig struct {
	URL                  string
	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
}

// Client consumes the snapshot stream published by a Hub and hands each
// snapshot to a handler. It reconnects with exponential backoff when the
// connection drops.
type Client struct {
	cfg     ClientConfig
	handler SnapshotHandler
	logger  zerolog.Logger

	currentInterval time.Duration
}

// NewClient creates a stream client for the given hub URL.
func NewClient(cfg ClientConfig, handler SnapshotHandler, logger zerolog.Logger) *Client {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = time.Second
	}
	if cfg.MaxReconnectInterval <= 0 {
		cfg.MaxReconnectInterval = 30 * time.Second
	}
	return &Client{
		cfg:             cfg,
		handler:         handler,
		logger:          logger,
		currentInterval: cfg.ReconnectInterval,
	}
}

// Run connects and reads snapshots until the context is cancelled,
// reconnecting after failures.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.readOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Msg("stream connection lost")
		}
		c.waitBeforeReconnect(ctx)
	}
}

// readOnce dials the hub and reads snapshots until the connection fails.
func (c *Client) readOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	defer resp.Body.Close()
	defer conn.Close()

	c.logger.Info().Str("url", c.cfg.URL).Msg("connected to stream")
	c.currentInterval = c.cfg.ReconnectInterval

	// Unblock ReadJSON when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var snap Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		if snap.Type != "snapshot" {
			c.logger.Debug().Str("type", snap.Type).Msg("ignoring unknown message type")
			continue
		}
		c.handler(snap)
	}
}

func (c *Client) waitBeforeReconnect(ctx context.Context) {
	c.logger.Info().Dur("delay", c.currentInterval).Msg("waiting before reconnect")
	select {
	case <-time.After(c.currentInterval):
	case <-ctx.Done():
		return
	}
	c.currentInterval *= 2
	if c.currentInterval > c.cfg.MaxReconnectInterval {
		c.currentInterval = c.cfg.MaxReconnectInterval
	}
}
