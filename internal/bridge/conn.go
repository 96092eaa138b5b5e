package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// wire is the slice of *websocket.Conn the bridge needs. Tests substitute
// scripted fakes.
type wire interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Conn wraps the browser WebSocket. Writes are serialized: the outbound
// loop and the session timer both send frames.
type Conn struct {
	ws        wire
	mu        sync.Mutex
	closeOnce sync.Once
	log       *slog.Logger
}

func newConn(ws wire, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.Default()
	}
	return &Conn{ws: ws, log: log}
}

// Read blocks for the next text frame payload.
func (c *Conn) Read() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Send marshals one envelope and writes it as a text frame.
func (c *Conn) Send(env ServerEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// TrySend is Send for frames whose delivery is best-effort: a closed
// socket is logged, never surfaced.
func (c *Conn) TrySend(env ServerEnvelope) {
	if err := c.Send(env); err != nil {
		c.log.Debug("could not deliver frame to browser", "type", env.Type, "error", err)
	}
}

// abortRead unblocks a pending Read by expiring the read deadline. Used
// when the session race has resolved and the inbound loop must wind down.
func (c *Conn) abortRead() {
	_ = c.ws.SetReadDeadline(time.Now())
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}

// isClientGone reports whether a read or write error means the browser went
// away, as opposed to a genuine transport failure.
func isClientGone(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}
