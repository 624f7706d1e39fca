// README: Chat handlers: message history, sending and the live websocket session.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quickride/internal/modules/chat"
	"quickride/internal/modules/ride"
)

type ChatHandler struct {
	chat *chat.Service
	log  logrus.FieldLogger
}

func NewChatHandler(svc *chat.Service, log logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{chat: svc, log: log}
}

type sendMessageReq struct {
	Text   string      `json:"text" binding:"required"`
	Sender ride.Sender `json:"sender"`
}

func (h *ChatHandler) List(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	msgs, found := h.chat.Messages(id)
	if !found {
		writeRideError(c, ride.ErrNotFound)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"messages": msgs})
}

func (h *ChatHandler) Send(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(c, http.StatusBadRequest, "text is required")
		return
	}
	if req.Sender == "" {
		req.Sender = ride.SenderPassenger
	}
	if !req.Sender.Valid() {
		writeError(c, http.StatusBadRequest, "invalid sender")
		return
	}
	msg, sent := h.chat.Send(id, req.Sender, req.Text)
	if !sent {
		writeRideError(c, ride.ErrNotFound)
		return
	}
	writeJSON(c, http.StatusCreated, msg)
}

// Session upgrades to a websocket that streams the ride's events. Text
// frames from the client are sent as passenger messages. The socket closes
// when the ride is cancelled.
func (h *ChatHandler) Session(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	sub, found := h.chat.Open(id)
	if !found {
		writeRideError(c, ride.ErrNotFound)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.chat.Leave(sub)
		h.log.WithError(err).WithField("ride_id", id).Warn("chat upgrade failed")
		return
	}
	log := h.log.WithField("ride_id", id)
	go readPump(conn, log, func(frame clientFrame) {
		if _, sent := h.chat.Send(id, ride.SenderPassenger, frame.Text); !sent {
			log.Debug("chat frame ignored")
		}
	}, func() { h.chat.Leave(sub) })
	writePump(conn, sub, log)
}
