package signaling

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const presenceTimeout = 2 * time.Second

// PresenceStore mirrors registry membership somewhere other processes can
// see it.
type PresenceStore interface {
	AddConnection(ctx context.Context, id string) error
	RemoveConnection(ctx context.Context, id string) error
}

// Registry is the set of currently open connections.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]Conn
	presence PresenceStore
	logger   *slog.Logger
}

// NewRegistry builds an empty registry. presence may be nil.
func NewRegistry(presence PresenceStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conns:    make(map[string]Conn),
		presence: presence,
		logger:   logger,
	}
}

func (r *Registry) Add(conn Conn) {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	n := len(r.conns)
	r.mu.Unlock()

	r.logger.Info("connection registered", "conn_id", conn.ID(), "connections", n)

	if r.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		if err := r.presence.AddConnection(ctx, conn.ID()); err != nil {
			r.logger.Warn("presence add failed", "conn_id", conn.ID(), "err", err)
		}
	}
}

// Remove drops conn from the registry. It reports whether conn was present,
// so repeated calls are harmless.
func (r *Registry) Remove(conn Conn) bool {
	r.mu.Lock()
	cur, ok := r.conns[conn.ID()]
	if ok && cur == conn {
		delete(r.conns, conn.ID())
	} else {
		ok = false
	}
	n := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return false
	}

	r.logger.Info("connection unregistered", "conn_id", conn.ID(), "connections", n)

	if r.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		if err := r.presence.RemoveConnection(ctx, conn.ID()); err != nil {
			r.logger.Warn("presence remove failed", "conn_id", conn.ID(), "err", err)
		}
	}
	return true
}

// BroadcastTargets snapshots every open connection other than exclude.
// A target may still close before it is written to.
func (r *Registry) BroadcastTargets(exclude Conn) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		if c == exclude || !c.IsOpen() {
			continue
		}
		targets = append(targets, c)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID() < targets[j].ID() })
	return targets
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes every registered connection. Sessions notice on their
// next receive and unregister themselves.
func (r *Registry) CloseAll(code int, reason string) {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		if err := c.Close(code, reason); err != nil {
			r.logger.Debug("close on shutdown failed", "conn_id", c.ID(), "err", err)
		}
	}
}
