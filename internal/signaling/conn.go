package signaling

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ReadChunkBytes is how much of a message WSConn hands out per frame.
const ReadChunkBytes = 4 * 1024

// FrameKind classifies a received frame.
type FrameKind int

const (
	FrameText FrameKind = iota
	FrameBinary
	FrameClose
)

// Frame is one piece of a message as delivered by the transport.
type Frame struct {
	Kind    FrameKind
	Payload []byte
	// Final marks the last frame of a message.
	Final       bool
	CloseCode   int
	CloseReason string
}

// Conn is a duplex message channel to one peer.
type Conn interface {
	ID() string
	// Receive blocks until the next frame arrives. A close frame from the
	// peer is returned as a FrameClose frame; any other failure is an error.
	Receive() (Frame, error)
	// SendText sends payload as one final text frame.
	SendText(payload []byte) error
	Close(code int, reason string) error
	IsOpen() bool
}

// WSOptions configures a WSConn.
type WSOptions struct {
	// WriteTimeout bounds each write. Zero disables the deadline.
	WriteTimeout time.Duration
	// PingInterval enables keepalive pings. Zero disables them.
	PingInterval time.Duration
	// PongWait is how long the peer may stay silent before reads fail.
	// Zero disables the read deadline.
	PongWait time.Duration
}

// WSConn adapts a gorilla websocket connection to Conn.
type WSConn struct {
	id   string
	conn *websocket.Conn
	opts WSOptions

	reader     io.Reader
	readerKind FrameKind
	buf        []byte

	writeMu   sync.Mutex
	open      atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

func NewWSConn(id string, conn *websocket.Conn, opts WSOptions) *WSConn {
	c := &WSConn{
		id:   id,
		conn: conn,
		opts: opts,
		buf:  make([]byte, ReadChunkBytes),
		done: make(chan struct{}),
	}
	c.open.Store(true)

	if opts.PongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(opts.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(opts.PongWait))
		})
	}
	if opts.PingInterval > 0 {
		go c.keepalive()
	}
	return c
}

func (c *WSConn) ID() string {
	return c.id
}

func (c *WSConn) IsOpen() bool {
	return c.open.Load()
}

func (c *WSConn) Receive() (Frame, error) {
	if c.reader == nil {
		mt, r, err := c.conn.NextReader()
		if err != nil {
			return c.readFailure(err)
		}
		c.reader = r
		c.readerKind = FrameText
		if mt == websocket.BinaryMessage {
			c.readerKind = FrameBinary
		}
	}

	n, err := c.reader.Read(c.buf)
	frame := Frame{Kind: c.readerKind}
	if n > 0 {
		frame.Payload = append([]byte(nil), c.buf[:n]...)
	}
	switch {
	case err == nil:
		return frame, nil
	case errors.Is(err, io.EOF):
		c.reader = nil
		frame.Final = true
		return frame, nil
	default:
		c.reader = nil
		return c.readFailure(err)
	}
}

func (c *WSConn) readFailure(err error) (Frame, error) {
	c.open.Store(false)
	// 1006 is never sent on the wire; gorilla reports a dropped TCP
	// connection with it.
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure {
		return Frame{Kind: FrameClose, Final: true, CloseCode: ce.Code, CloseReason: ce.Text}, nil
	}
	return Frame{}, err
}

func (c *WSConn) SendText(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.IsOpen() {
		return ErrConnClosed
	}
	if c.opts.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close sends a close frame (best effort) and releases the socket. Only the
// first call has any effect.
func (c *WSConn) Close(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		c.open.Store(false)
		close(c.done)

		deadline := time.Now().Add(time.Second)
		if c.opts.WriteTimeout > 0 {
			deadline = time.Now().Add(c.opts.WriteTimeout)
		}
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		err = c.conn.Close()
	})
	return err
}

func (c *WSConn) keepalive() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.opts.PingInterval)
			if c.opts.WriteTimeout > 0 {
				deadline = time.Now().Add(c.opts.WriteTimeout)
			}
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
