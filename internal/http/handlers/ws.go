// README: Websocket plumbing shared by the chat session and the dashboard stream.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quickride/internal/modules/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// clientFrame is what a chat client sends over the socket.
type clientFrame struct {
	Text string `json:"text"`
}

// readPump consumes client frames until the connection fails, then calls
// done exactly once.
func readPump(conn *websocket.Conn, log logrus.FieldLogger, onFrame func(clientFrame), done func()) {
	defer func() {
		done()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket read")
			}
			return
		}
		if onFrame == nil {
			continue
		}
		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			frame.Text = string(data)
		}
		onFrame(frame)
	}
}

// writePump forwards subscriber events to the connection until the
// subscription ends or a write fails.
func writePump(conn *websocket.Conn, sub *events.Subscriber, log logrus.FieldLogger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case e, ok := <-sub.Events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "ride closed"))
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				log.WithError(err).Debug("websocket write")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
