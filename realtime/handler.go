package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mmdatafocus/pos_sync/config"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API key gate runs before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler upgrades the request and streams hub events to it.
func EventsHandler(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "events"}).Warn("websocket upgrade failed: " + err.Error())
			return
		}

		client := h.Register(conn)
		if client == nil {
			_ = conn.Close()
			return
		}

		go writePump(client)
		go readPump(h, conn)
	}
}

// readPump only watches the connection; the UI never sends data.
func readPump(h *Hub, conn *websocket.Conn) {
	defer h.Unregister(conn)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				config.GetLogger().WithFields(logrus.Fields{"field": "events"}).Info("websocket closed: " + err.Error())
			}
			return
		}
	}
}

func writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	conn := client.conn
	for {
		select {
		case message, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.done:
			return
		}
	}
}
