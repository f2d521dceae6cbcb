package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

type feedMessage struct {
	Type    string          `json:"type"`
	Counter *models.Counter `json:"counter"`
}

// WatchCounters subscribes to the live counters feed and calls fn for every
// snapshot, starting with the current one. It returns nil once ctx is done.
func (c *Client) WatchCounters(ctx context.Context, fn func(models.Counter)) error {
	u, err := url.Parse(c.baseURL + "/api/counters/ws")
	if err != nil {
		return fmt.Errorf("counters feed url: %w", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	cfg, err := websocket.NewConfig(u.String(), c.baseURL)
	if err != nil {
		return fmt.Errorf("counters feed config: %w", err)
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return fmt.Errorf("counters feed dial: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	for {
		var msg feedMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("counters feed: %w", err)
		}
		if msg.Type != "counters" || msg.Counter == nil {
			c.log.Debug("counters feed message skipped", zap.String("type", msg.Type))
			continue
		}
		fn(*msg.Counter)
	}
}
