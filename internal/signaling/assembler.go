package signaling

// FrameAssembler joins partial text frames into whole messages.
//
// MaxBytes caps a single message; zero means unlimited, which lets one peer
// grow the buffer without bound.
type FrameAssembler struct {
	MaxBytes int

	buf      []byte
	overflow bool
}

func NewFrameAssembler(maxBytes int) *FrameAssembler {
	return &FrameAssembler{MaxBytes: maxBytes}
}

// Append adds one frame. When final is set it returns the complete message
// and resets. An oversized message reports ErrMessageTooLarge once and the
// remainder of its frames are dropped.
func (a *FrameAssembler) Append(payload []byte, final bool) ([]byte, bool, error) {
	if a.overflow {
		if final {
			a.reset()
		}
		return nil, false, nil
	}

	if a.MaxBytes > 0 && len(a.buf)+len(payload) > a.MaxBytes {
		a.buf = nil
		a.overflow = !final
		return nil, false, ErrMessageTooLarge
	}

	a.buf = append(a.buf, payload...)
	if !final {
		return nil, false, nil
	}

	msg := a.buf
	if msg == nil {
		msg = []byte{}
	}
	a.reset()
	return msg, true, nil
}

// Buffered returns how many bytes are waiting for a final frame.
func (a *FrameAssembler) Buffered() int {
	return len(a.buf)
}

func (a *FrameAssembler) reset() {
	a.buf = nil
	a.overflow = false
}
