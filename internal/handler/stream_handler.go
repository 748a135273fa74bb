package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	streamHeartbeat = 30 * time.Second
	streamBuffer    = 16
)

// Stream godoc
// @Summary      Change feed
// @Description  Server-Sent Events stream of tag and event mutations.
// @Tags         stream
// @Produce      text/event-stream
// @Success      200
// @Router       /stream [get]
func (h *Handler) Stream(c *gin.Context) {
	client := h.Hub.Subscribe(streamBuffer)
	defer h.Hub.Unsubscribe(client)

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("change", string(data))
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", "")
			return true
		case <-ctx.Done():
			return false
		}
	})
}
