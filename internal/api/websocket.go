package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mindmash-ai/mindmash/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// eventClient streams one session's broker events over a WebSocket.
type eventClient struct {
	conn      *websocket.Conn
	sessionID string
	send      <-chan events.Event[events.Payload]
	cancel    context.CancelFunc
	server    *Server
}

// handleEventStream upgrades the connection and bridges the session's event
// feed onto it. The subscription lives as long as the socket.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &eventClient{
		conn:      conn,
		sessionID: session.ID,
		send:      s.app.Broker.Subscribe(ctx, events.FilterBySession(session.ID)),
		cancel:    cancel,
		server:    s,
	}

	s.logger.Info("event stream connected", "session", session.ID)
	go client.writePump()
	go client.readPump()
}

// readPump drains the client side. Incoming frames are ignored except for
// control traffic; closing the socket tears down the subscription.
func (c *eventClient) readPump() {
	defer func() {
		c.cancel()
		c.conn.Close()
		c.server.logger.Info("event stream disconnected", "session", c.sessionID)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("websocket read error", "error", err)
			}
			return
		}
	}
}

// writePump forwards broker events and keeps the connection alive with pings.
func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.server.logger.Warn("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
