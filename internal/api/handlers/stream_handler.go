package handlers

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/alert"
	"github.com/sipca/backend/pkg/logger"
)

// StreamHandler fans fired alerts and batch progress out to connected
// dashboard clients over websockets. The connection is write-only from the
// server side; the read loop only exists to notice disconnects.
type StreamHandler struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]chan interface{}
}

// Progress reports how far a running batch has gotten.
type Progress struct {
	BatchID   string `json:"batch_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

func NewStreamHandler() *StreamHandler {
	return &StreamHandler{
		conns: make(map[*websocket.Conn]chan interface{}),
	}
}

// Publish hands a fired alert to every connected client. A client that
// cannot keep up has the event dropped rather than stalling the dispatcher.
func (h *StreamHandler) Publish(ev alert.Event) {
	h.broadcast(map[string]interface{}{
		"type":  "alert",
		"alert": ev,
	})
}

// PublishProgress streams a batch progress update.
func (h *StreamHandler) PublishProgress(p Progress) {
	h.broadcast(map[string]interface{}{
		"type":     "batch_progress",
		"progress": p,
	})
}

func (h *StreamHandler) broadcast(msg interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.conns {
		select {
		case ch <- msg:
		default:
			logger.Warn("Dropping stream event for slow websocket client")
		}
	}
}

func (h *StreamHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	ch := make(chan interface{}, 32)
	h.register(c, ch)

	defer func() {
		h.unregister(c)
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	go func() {
		for msg := range ch {
			if err := c.WriteJSON(msg); err != nil {
				logger.Debug("Failed to write websocket message", zap.Error(err))
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *StreamHandler) register(c *websocket.Conn, ch chan interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = ch
}

func (h *StreamHandler) unregister(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.conns[c]; ok {
		close(ch)
		delete(h.conns, c)
	}
}
