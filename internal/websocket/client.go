package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campus-relay/internal/auth"
	"campus-relay/internal/identity"
	"campus-relay/internal/message"
	"campus-relay/internal/middleware"
	"campus-relay/internal/notify"
	"campus-relay/internal/store"
	"campus-relay/internal/timeline"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn      *websocket.Conn
	principal identity.Principal
	send      chan []byte
	hub       *Hub

	engine  *timeline.Engine
	watcher *notify.Watcher

	closeOnce sync.Once
}

// inbound frames from the browser
type clientFrame struct {
	Type      string `json:"type"`
	Broadcast bool   `json:"broadcast,omitempty"`
	PeerID    string `json:"peer_id,omitempty"`
}

type timelineFrame struct {
	Channel  string          `json:"channel"`
	Messages []store.Message `json:"messages"`
}

type notificationFrame struct {
	Unread int64                `json:"unread"`
	Recent []store.Notification `json:"recent"`
}

// Deps is what a connection needs to serve one principal.
type Deps struct {
	Hub          *Hub
	Auth         *auth.Service
	Resolver     *identity.Resolver
	Router       *message.Router
	Notifier     *notify.Service
	Realtime     store.Realtime
	PollInterval time.Duration
}

// Handler upgrades an authenticated request and wires the connection's
// engine and watcher to it.
func Handler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.BearerToken(r)
		sess, err := deps.Auth.GetSession(r.Context(), token)
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		principal := deps.Resolver.Lookup(r.Context(), sess)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws: upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:      conn,
			principal: principal,
			send:      make(chan []byte, 32),
			hub:       deps.Hub,
			engine:    timeline.NewEngine(deps.Router, deps.Realtime, deps.PollInterval),
			watcher:   notify.NewWatcher(deps.Notifier, deps.Realtime, principal.ID, deps.PollInterval, 20),
		}

		client.engine.SetUpdateFunc(func(msgs []store.Message) {
			ch, ok := client.engine.ActiveChannel()
			if !ok {
				return
			}
			client.sendFrame("timeline", timelineFrame{Channel: ch.String(), Messages: msgs})
		})
		client.watcher.SetChangeFunc(func(unread int64, recent []store.Notification) {
			client.sendFrame("notifications", notificationFrame{Unread: unread, Recent: recent})
		})

		deps.Hub.register <- client
		client.watcher.Start(context.Background())

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) sendFrame(frameType string, data interface{}) {
	payload, err := marshalFrame(frameType, data)
	if err != nil {
		log.Printf("ws: marshal %s frame for %s: %v", frameType, c.principal.ID, err)
		return
	}
	select {
	case c.send <- payload:
	default:
		// Drop rather than block: the engine's next poll re-sends a
		// full snapshot anyway.
		log.Printf("ws: send buffer full for %s, dropping %s frame", c.principal.ID, frameType)
	}
}

// shutdown stops the connection's update sources before closing the
// socket, so no late callback writes into a dead send channel's client.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.engine.Close()
		c.watcher.Stop()
		close(c.send)
		c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer func() {
		if c.hub.isCurrent(c) {
			c.hub.unregister <- c
		} else {
			c.shutdown()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: read error for %s: %v", c.principal.ID, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("ws: bad frame from %s: %v", c.principal.ID, err)
			continue
		}

		switch frame.Type {
		case "activate":
			var ch message.Channel
			switch {
			case frame.Broadcast:
				ch = message.Broadcast()
			case frame.PeerID != "":
				ch = message.Direct(c.principal.ID, frame.PeerID)
			default:
				c.sendFrame("error", map[string]string{"error": "activate needs broadcast or peer_id"})
				continue
			}
			if err := c.engine.Activate(context.Background(), ch); err != nil {
				log.Printf("ws: activate %s for %s: %v", ch, c.principal.ID, err)
			}
		case "deactivate":
			c.engine.Deactivate()
		default:
			log.Printf("ws: unknown frame type %q from %s", frame.Type, c.principal.ID)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("ws: write error for %s: %v", c.principal.ID, err)
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
