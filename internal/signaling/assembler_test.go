package signaling

import (
	"errors"
	"testing"
)

func TestFrameAssemblerConcatenatesUntilFinal(t *testing.T) {
	a := NewFrameAssembler(0)

	for _, part := range []string{`{"type":`, `"offer",`, `"offer":{}}`} {
		if msg, ok, err := a.Append([]byte(part), false); ok || err != nil || msg != nil {
			t.Fatalf("partial frame yielded msg=%q ok=%v err=%v", msg, ok, err)
		}
	}
	msg, ok, err := a.Append(nil, true)
	if err != nil || !ok {
		t.Fatalf("final frame: ok=%v err=%v", ok, err)
	}
	if string(msg) != `{"type":"offer","offer":{}}` {
		t.Fatalf("message = %q", msg)
	}
	if a.Buffered() != 0 {
		t.Fatalf("expected reset after final, %d bytes buffered", a.Buffered())
	}

	msg, ok, _ = a.Append([]byte("next"), true)
	if !ok || string(msg) != "next" {
		t.Fatalf("second message = %q ok=%v", msg, ok)
	}
}

func TestFrameAssemblerDropsOversizedMessage(t *testing.T) {
	a := NewFrameAssembler(8)

	if _, _, err := a.Append([]byte("12345"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, err := a.Append([]byte("67890"), false); ok || !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got ok=%v err=%v", ok, err)
	}
	// The rest of the oversized message is swallowed without repeating the error.
	if msg, ok, err := a.Append([]byte("tail"), true); ok || err != nil || msg != nil {
		t.Fatalf("tail of oversized message: msg=%q ok=%v err=%v", msg, ok, err)
	}

	msg, ok, err := a.Append([]byte("small"), true)
	if err != nil || !ok || string(msg) != "small" {
		t.Fatalf("message after overflow: msg=%q ok=%v err=%v", msg, ok, err)
	}
}

func TestFrameAssemblerOversizedSingleFrame(t *testing.T) {
	a := NewFrameAssembler(4)
	if _, ok, err := a.Append([]byte("toolong"), true); ok || !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got ok=%v err=%v", ok, err)
	}
	msg, ok, err := a.Append([]byte("ok"), true)
	if err != nil || !ok || string(msg) != "ok" {
		t.Fatalf("message after overflow: msg=%q ok=%v err=%v", msg, ok, err)
	}
}
