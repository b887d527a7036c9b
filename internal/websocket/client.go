// Package websocket streams video channel membership to browsers.
package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// Client is one feed connection. The feed is server to client only; anything
// the browser sends besides control frames is discarded.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	userID  uint
	channel string
	logger  *slog.Logger
}

func NewClient(conn *websocket.Conn, userID uint, channel string, logger *slog.Logger) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		userID:  userID,
		channel: channel,
		logger:  logger,
	}
}

// ReadPump runs until the connection fails or the peer closes it, then calls onClose.
func (c *Client) ReadPump(onClose func()) {
	defer func() {
		onClose()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("channel feed read failed", "user_id", c.userID, "channel", c.channel, "error", err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

// Forward queues the snapshot and then every event until events is closed or
// the write side has stopped. It is the only sender on c.send.
func (c *Client) Forward(snapshot SnapshotPayload, events <-chan domain.ChannelEvent) {
	defer close(c.send)

	msg, err := NewMessage(MessageTypeSnapshot, snapshot)
	if err != nil || !c.enqueue(msg) {
		return
	}

	for event := range events {
		msg, err := NewEventMessage(event)
		if err != nil {
			c.logger.Error("failed to encode channel event", "channel", c.channel, "error", err)
			continue
		}
		if !c.enqueue(msg) {
			return
		}
	}
}

func (c *Client) enqueue(msg *Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal message", "error", err)
		return true
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}
