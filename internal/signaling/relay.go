package signaling

import "log/slog"

// Relay forwards raw messages to every other open connection.
type Relay struct {
	registry *Registry
	logger   *slog.Logger
}

func NewRelay(registry *Registry, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{registry: registry, logger: logger}
}

// Broadcast sends raw, byte for byte, to each target in turn. A failed send
// is logged and the remaining targets are still tried. It returns how many
// sends succeeded.
func (r *Relay) Broadcast(raw []byte, origin Conn) int {
	delivered := 0
	for _, target := range r.registry.BroadcastTargets(origin) {
		if err := target.SendText(raw); err != nil {
			r.logger.Warn("relay send failed", "from", origin.ID(), "to", target.ID(), "err", err)
			continue
		}
		delivered++
	}
	return delivered
}
