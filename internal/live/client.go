// Package live pushes dashboard screen updates to browsers over websockets.
package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nexxacraft/community-admin/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Dashboard commands are tiny.
	maxMessageSize = 4096

	sendBuffer = 256
)

// Conn is the part of a websocket connection the pumps use.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	NextWriter(messageType int) (io.WriteCloser, error)
	Close() error
}

// Frame is one message pushed to the browser.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Command is one message received from the browser.
type Command struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
}

// Client sits between one websocket connection and the screen it shows.
type Client struct {
	Screen string
	Actor  string
	Conn   Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// IncomingHandler receives every decoded command from the browser.
	IncomingHandler func(*Client, Command)

	hub       *Hub
	closeOnce sync.Once
}

// ReadPump pumps commands from the connection until it fails or closes.
func (c *Client) ReadPump() {
	defer func() {
		c.Close()
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("live read failed", "screen", c.Screen, "actor", c.Actor, "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil || cmd.Type == "" {
			c.SendFrame("error", map[string]string{"message": "invalid command"})
			continue
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, cmd)
		}
	}
}

// WritePump pumps frames from Send to the connection and keeps it alive with
// pings. It returns once Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendFrame encodes and queues a frame without blocking.
func (c *Client) SendFrame(frameType string, payload any) {
	data, err := json.Marshal(Frame{Type: frameType, Payload: payload})
	if err != nil {
		slog.Error("live frame encode failed", "screen", c.Screen, "type", frameType, "error", err)
		return
	}
	c.TrySend(data)
}

// TrySend queues message, dropping it when the buffer is full or the client
// has already closed.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			metrics.LiveDrops.WithLabelValues(c.Screen, "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		metrics.LiveDrops.WithLabelValues(c.Screen, "full").Inc()
		slog.Warn("live buffer full, dropped frame", "screen", c.Screen, "actor", c.Actor)

		// The browser refetches when it sees this.
		select {
		case c.Send <- []byte(`{"type":"frames_dropped","payload":{"reason":"buffer_full"}}`):
		default:
		}
	}
}

// Close detaches the client from its hub and closes Send, which makes
// WritePump send a close frame. It is idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.hub != nil {
			c.hub.unregister(c)
		}
		close(c.Send)
	})
}
