// README: Dashboard stream: every engine event over one websocket.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quickride/internal/modules/events"
)

type StreamHandler struct {
	hub *events.Hub
	log logrus.FieldLogger
}

func NewStreamHandler(hub *events.Hub, log logrus.FieldLogger) *StreamHandler {
	return &StreamHandler{hub: hub, log: log}
}

func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("stream upgrade failed")
		return
	}
	sub := h.hub.Subscribe(events.GlobalTopic)
	go readPump(conn, h.log, nil, func() { h.hub.Unsubscribe(sub) })
	writePump(conn, sub, h.log)
}
