package handlers

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OmarShahwanGitHub/POS-App/events"
	"github.com/OmarShahwanGitHub/POS-App/metrics"
)

const defaultKeepalive = 30 * time.Second

// OrderStream is the kitchen display's live feed. It holds the connection
// open and forwards order lifecycle events as server-sent events. Events are
// change notifications only; clients re-fetch order state when one arrives.
func (h *Handlers) OrderStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sub := h.Broker.Subscribe(
		events.TypeOrderCreated,
		events.TypeOrderUpdated,
		events.TypeOrderStatusChanged,
	)
	defer h.Broker.Unsubscribe(sub)

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	keepalive := h.Keepalive
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	// Initial message so clients can confirm the stream is up before any
	// order activity happens.
	if _, err := c.Writer.WriteString(`data: {"type":"connected","message":"Stream connected"}` + "\n\n"); err != nil {
		return
	}
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("marshal stream event", zap.Error(err))
				return true
			}
			w.Write([]byte("data: "))
			w.Write(payload)
			w.Write([]byte("\n\n"))
			return true
		case <-ticker.C:
			// SSE comment line, ignored by clients but keeps proxies from
			// closing the idle connection.
			w.Write([]byte(": keepalive\n\n"))
			return true
		case <-h.Broker.Done():
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}
