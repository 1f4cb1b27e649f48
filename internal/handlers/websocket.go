package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mossy-p/webrtc-recorder/internal/signaling"
)

// SignalingHandler upgrades requests on the signaling endpoint and runs a
// session for each connection.
type SignalingHandler struct {
	upgrader websocket.Upgrader
	session  signaling.SessionConfig
	wsOpts   signaling.WSOptions
	baseCtx  context.Context
	logger   *slog.Logger
	sessions sync.WaitGroup
}

// NewSignalingHandler builds the handler. ctx outlives every request and
// bounds the catalog work done by sessions.
func NewSignalingHandler(ctx context.Context, session signaling.SessionConfig, wsOpts signaling.WSOptions, logger *slog.Logger) *SignalingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if session.Logger == nil {
		session.Logger = logger
	}
	return &SignalingHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  signaling.ReadChunkBytes,
			WriteBufferSize: signaling.ReadChunkBytes,
			CheckOrigin: func(r *http.Request) bool {
				// Origin checking is handled by middleware
				return true
			},
		},
		session: session,
		wsOpts:  wsOpts,
		baseCtx: ctx,
		logger:  logger,
	}
}

// HandleSignaling runs the signaling session for one peer. It blocks until
// the peer disconnects.
func (h *SignalingHandler) HandleSignaling(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WebSocket upgrade required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", "err", err, "remote_addr", c.Request.RemoteAddr)
		return
	}

	h.sessions.Add(1)
	defer h.sessions.Done()

	id := uuid.NewString()
	h.logger.Info("peer connected", "conn_id", id, "remote_addr", conn.RemoteAddr().String())

	ws := signaling.NewWSConn(id, conn, h.wsOpts)
	signaling.NewSession(ws, h.session).Run(h.baseCtx)

	h.logger.Info("peer disconnected", "conn_id", id)
}

// Wait blocks until every running session has returned.
func (h *SignalingHandler) Wait() {
	h.sessions.Wait()
}
