package signaling

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mossy-p/webrtc-recorder/internal/models"
	"github.com/mossy-p/webrtc-recorder/internal/recording"
)

// State is the lifecycle stage of a Session.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// MediaRecorder appends decoded media fragments for a call.
type MediaRecorder interface {
	Record(callID string, typ models.MessageType, data string) error
}

// CallFinalizer registers a finished call's media in the catalog.
type CallFinalizer interface {
	Finalize(ctx context.Context, callID string) (*recording.FinalizeResult, error)
}

// SessionConfig carries the shared services every session uses.
type SessionConfig struct {
	Registry  *Registry
	Relay     *Relay
	Recorder  MediaRecorder
	Finalizer CallFinalizer
	Logger    *slog.Logger

	MaxMessageBytes int
	// CatalogTimeout bounds finalization after a hangup. Zero means no
	// bound beyond the Run context.
	CatalogTimeout time.Duration
}

// Session drives one connection from accept to close.
type Session struct {
	conn      Conn
	cfg       SessionConfig
	assembler *FrameAssembler
	logger    *slog.Logger
	state     atomic.Int32

	// callID is the call this connection is currently part of. Every message
	// carrying a valid id sets it; hangup clears it.
	callID string
}

func NewSession(conn Conn, cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Relay == nil {
		cfg.Relay = NewRelay(cfg.Registry, logger)
	}
	s := &Session{
		conn:      conn,
		cfg:       cfg,
		assembler: NewFrameAssembler(cfg.MaxMessageBytes),
		logger:    logger.With("conn_id", conn.ID()),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// CallID returns the currently bound call id. Only the goroutine running
// Run may call it while the session is open.
func (s *Session) CallID() string {
	return s.callID
}

// Run registers the connection and processes frames until the peer closes
// or the transport fails. The connection is always unregistered and closed
// before Run returns. ctx only bounds catalog work.
func (s *Session) Run(ctx context.Context) {
	s.cfg.Registry.Add(s.conn)
	s.state.Store(int32(StateOpen))

	closeCode, closeReason := websocket.CloseNormalClosure, ""
	defer func() {
		s.state.Store(int32(StateClosing))
		s.cfg.Registry.Remove(s.conn)
		if err := s.conn.Close(closeCode, closeReason); err != nil {
			s.logger.Debug("close failed", "err", err)
		}
		s.state.Store(int32(StateClosed))
	}()

	for {
		frame, err := s.conn.Receive()
		if err != nil {
			s.logger.Warn("transport error, closing session", "err", err)
			closeCode = websocket.CloseInternalServerErr
			return
		}

		switch frame.Kind {
		case FrameClose:
			s.logger.Info("peer closed connection", "code", frame.CloseCode, "reason", frame.CloseReason)
			closeCode, closeReason = frame.CloseCode, frame.CloseReason
			return
		case FrameBinary:
			if frame.Final {
				s.logger.Debug("binary message ignored")
			}
		case FrameText:
			msg, complete, err := s.assembler.Append(frame.Payload, frame.Final)
			if err != nil {
				s.logger.Warn("dropping message", "err", err, "limit", s.assembler.MaxBytes)
				continue
			}
			if complete {
				s.dispatch(ctx, msg)
			}
		}
	}
}

func (s *Session) dispatch(ctx context.Context, raw []byte) {
	msg, err := ParseMessage(raw)
	if errors.Is(err, ErrMalformedMessage) {
		s.logger.Warn("received malformed JSON message", "err", err)
		return
	}

	if msg.HasSignal {
		s.cfg.Relay.Broadcast(raw, s.conn)
	}

	if err != nil {
		s.logger.Info("no message type found")
		return
	}

	s.bindCallID(msg.ID)

	switch {
	case msg.Type.IsMedia():
		s.handleMedia(msg)
	case msg.Type == models.MessageTypeHangup:
		s.handleHangup(ctx, raw)
	case msg.Type == models.MessageTypeCallID:
		s.bindCallID(msg.AnnouncedCallID())
		s.cfg.Relay.Broadcast(raw, s.conn)
	case msg.Type == models.MessageTypeOffer, msg.Type == models.MessageTypeAnswer, msg.Type == models.MessageTypeCandidate:
		// already relayed above via the signal keys
	default:
		s.logger.Debug("unhandled message type", "type", msg.Type)
	}
}

func (s *Session) bindCallID(id string) {
	if id == "" || id == s.callID {
		return
	}
	if err := recording.ValidateCallID(id); err != nil {
		s.logger.Warn("ignoring call id", "err", err)
		return
	}
	if s.callID != "" {
		// A new id means this peer moved on to another call; the old
		// binding is stale.
		s.logger.Info("call id switched", "previous", s.callID, "call_id", id)
	} else {
		s.logger.Info("call id bound", "call_id", id)
	}
	s.callID = id
}

func (s *Session) handleMedia(msg *models.SignalingMessage) {
	if msg.Data == nil {
		s.logger.Debug("no media data found", "type", msg.Type)
		return
	}
	if s.callID == "" {
		s.logger.Warn("media received before a call id", "type", msg.Type)
		return
	}
	if msg.ID != "" && msg.ID != s.callID {
		// the id was rejected by bindCallID
		s.logger.Warn("dropping media with an unusable call id", "type", msg.Type)
		return
	}
	if s.cfg.Recorder == nil {
		return
	}
	if err := s.cfg.Recorder.Record(s.callID, msg.Type, *msg.Data); err != nil {
		s.logger.Warn("failed to record media", "call_id", s.callID, "type", msg.Type, "err", err)
	}
}

func (s *Session) handleHangup(ctx context.Context, raw []byte) {
	s.cfg.Relay.Broadcast(raw, s.conn)

	callID := s.callID
	if callID == "" {
		s.logger.Warn("hangup without a call id")
		return
	}
	defer func() {
		s.callID = ""
	}()

	if s.cfg.Finalizer == nil {
		return
	}

	fctx := ctx
	if s.cfg.CatalogTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.cfg.CatalogTimeout)
		defer cancel()
	}
	res, err := s.cfg.Finalizer.Finalize(fctx, callID)
	if err != nil {
		s.logger.Error("failed to finalize call", "call_id", callID, "err", err)
		return
	}
	s.logger.Info("hangup handled", "call_id", callID, "files", res.Discovered, "registered", res.Registered)
}
