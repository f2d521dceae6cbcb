package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

const countersTopic = "counters"

// realtimeHub fans messages out to the websocket connections subscribed to a topic.
type realtimeHub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]struct{}
}

func newRealtimeHub() *realtimeHub {
	return &realtimeHub{conns: map[string]map[*websocket.Conn]struct{}{}}
}

func (h *realtimeHub) add(topic string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[topic]
	if set == nil {
		set = map[*websocket.Conn]struct{}{}
		h.conns[topic] = set
	}
	set[c] = struct{}{}
}

func (h *realtimeHub) remove(topic string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[topic]
	if set == nil {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, topic)
	}
}

func (h *realtimeHub) broadcast(topic string, msg []byte) {
	if h == nil {
		return
	}
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns[topic]))
	for c := range h.conns[topic] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := websocket.Message.Send(c, string(msg)); err != nil {
			_ = c.Close()
			h.remove(topic, c)
		}
	}
}

func (h *realtimeHub) count(topic string) int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[topic])
}

type realtimeEvent struct {
	Type    string          `json:"type"`
	Counter *models.Counter `json:"counter,omitempty"`
	At      string          `json:"at"`
}

// wsPingInterval keeps idle connections from being reaped by proxies.
var wsPingInterval = 30 * time.Second

// CountersWebSocket streams the counter row: once on connect, then after
// every successful PATCH or PUT.
//
// URL: /api/counters/ws
func (h *Handler) CountersWebSocket(w http.ResponseWriter, r *http.Request) {
	initial, err := h.loadCounter(r.Context())
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar contadores")
		return
	}

	wsServer := websocket.Server{
		// Any origin may subscribe: the feed is read-only.
		Handshake: func(cfg *websocket.Config, req *http.Request) error {
			return nil
		},
		Handler: func(c *websocket.Conn) {
			h.log.Info("counters ws connect", zap.String("remote", r.RemoteAddr))
			h.rt.add(countersTopic, c)
			defer h.rt.remove(countersTopic, c)
			defer h.log.Info("counters ws disconnect", zap.String("remote", r.RemoteAddr))

			if b, err := h.counterMessage(initial); err == nil {
				_ = websocket.Message.Send(c, string(b))
			}

			done := make(chan struct{})
			var doneOnce sync.Once
			closeDone := func() { doneOnce.Do(func() { close(done) }) }
			go func() {
				ticker := time.NewTicker(wsPingInterval)
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						b, err := json.Marshal(realtimeEvent{Type: "ping", At: h.now().UTC().Format(time.RFC3339)})
						if err != nil {
							continue
						}
						if err := websocket.Message.Send(c, string(b)); err != nil {
							closeDone()
							return
						}
					}
				}
			}()

			// Read loop to keep the connection open and detect disconnects.
			for {
				var ignored string
				if err := websocket.Message.Receive(c, &ignored); err != nil {
					closeDone()
					break
				}
			}
		},
	}

	wsServer.ServeHTTP(w, r)
}

func (h *Handler) counterMessage(c models.Counter) ([]byte, error) {
	return json.Marshal(realtimeEvent{
		Type:    countersTopic,
		Counter: &c,
		At:      h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) publishCounter(c models.Counter) {
	if h.rt.count(countersTopic) == 0 {
		return
	}
	b, err := h.counterMessage(c)
	if err != nil {
		h.log.Warn("counter marshal failed", zap.Error(err))
		return
	}
	h.log.Debug("counters emit", zap.Int("subs", h.rt.count(countersTopic)))
	h.rt.broadcast(countersTopic, b)
}
