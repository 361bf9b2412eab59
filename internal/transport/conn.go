package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBufferSize = 128
)

type outboundFrame struct {
	messageType int
	data        []byte
}

// CloseEvent is delivered once on Events() when the socket terminates.
// Err is nil when the peer completed a normal closing handshake.
type CloseEvent struct {
	Err error
}

type Event struct {
	Message *ServerMessage
	Closed  *CloseEvent
}

// Conn multiplexes JSON control messages and binary audio frames over one
// websocket. Inbound messages surface on Events() in arrival order; there is
// no reordering buffer.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	send   chan outboundFrame
	events chan Event

	mu     sync.RWMutex
	open   bool
	closed bool
	done   chan struct{}
}

// StreamURL resolves the per-session websocket address from the backend base
// URL, matching the backend's secure/insecure scheme.
func StreamURL(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = fmt.Sprintf("/stream/audio/%s/", sessionID)
	return u.String(), nil
}

// Dial opens the session socket and starts the read/write pumps.
func Dial(baseURL, sessionID string, logger *slog.Logger) (*Conn, error) {
	addr, err := StreamURL(baseURL, sessionID)
	if err != nil {
		return nil, err
	}

	ws, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Conn{
		ws:     ws,
		logger: logger.With("session_id", sessionID),
		send:   make(chan outboundFrame, sendBufferSize),
		events: make(chan Event, sendBufferSize),
		open:   true,
		done:   make(chan struct{}),
	}

	go c.writePump()
	go c.readPump()

	return c, nil
}

func (c *Conn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open && !c.closed
}

// Events carries inbound server messages followed by exactly one CloseEvent.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// SendControl queues a JSON control message.
func (c *Conn) SendControl(msg ControlMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal control message: %w", err)
	}
	return c.enqueue(outboundFrame{messageType: websocket.TextMessage, data: data})
}

// SendAudio queues one binary frame. Frames are written in queue order, one
// websocket message per chunk.
func (c *Conn) SendAudio(chunk []byte) error {
	return c.enqueue(outboundFrame{messageType: websocket.BinaryMessage, data: chunk})
}

func (c *Conn) enqueue(frame outboundFrame) error {
	c.mu.RLock()
	if c.closed || !c.open {
		c.mu.RUnlock()
		return shared.ErrTransportClosed
	}
	c.mu.RUnlock()

	select {
	case c.send <- frame:
	default:
		// Latency over durability: a stalled socket never blocks capture.
		c.logger.Warn("send buffer full, dropping frame")
	}
	return nil
}

// Close performs the clean shutdown path: the peer sees a normal closing
// handshake and the read pump reports a CloseEvent with a nil error.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.open = false
	close(c.done)
	c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

func (c *Conn) markClosed() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

func (c *Conn) readPump() {
	defer close(c.events)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.markClosed()
			c.mu.RLock()
			requested := c.closed
			c.mu.RUnlock()
			if requested || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.events <- Event{Closed: &CloseEvent{}}
			} else {
				c.events <- Event{Closed: &CloseEvent{Err: err}}
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Error("failed to unmarshal server message", "error", err)
			continue
		}

		select {
		case c.events <- Event{Message: &msg}:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.markClosed()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(frame.messageType, frame.data); err != nil {
				c.logger.Error("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
