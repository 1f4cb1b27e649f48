package signaling

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// fakeConn replays a fixed list of frames and records what is sent to it.
type fakeConn struct {
	id string

	mu       sync.Mutex
	frames   []Frame
	finalErr error
	sent     [][]byte
	sendErr  error
	open     bool
	closes   int
	code     int
}

func newFakeConn(id string, frames ...Frame) *fakeConn {
	return &fakeConn{id: id, frames: frames, open: true}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Receive() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		if c.finalErr != nil {
			return Frame{}, c.finalErr
		}
		return Frame{Kind: FrameClose, Final: true, CloseCode: websocket.CloseNormalClosure}, nil
	}
	f := c.frames[0]
	c.frames = c.frames[1:]
	return f, nil
}

func (c *fakeConn) SendText(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrConnClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) Close(code int, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.closes++
	c.code = code
	return nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *fakeConn) sentMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, b := range c.sent {
		out[i] = string(b)
	}
	return out
}

func text(s string) Frame {
	return Frame{Kind: FrameText, Payload: []byte(s), Final: true}
}

// fragments splits s into n text frames, the last one final.
func fragments(s string, n int) []Frame {
	size := (len(s) + n - 1) / n
	var out []Frame
	for start := 0; start < len(s); start += size {
		end := start + size
		if end > len(s) {
			end = len(s)
		}
		out = append(out, Frame{Kind: FrameText, Payload: []byte(s[start:end])})
	}
	out[len(out)-1].Final = true
	return out
}

var errBrokenPipe = errors.New("broken pipe")
