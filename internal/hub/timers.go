package hub

import (
	"context"
	"time"

	"github.com/ironpeer/p2pcore/internal/session"
)

// serviceTimer periodically scans every session for idleness and tears
// down any that have exceeded their timeout budget.
func (h *Hub) serviceTimer(ctx context.Context) {
	defer h.wg.Done()
	interval := h.cfg.ServiceTick
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.reapIdleSessions()
		}
	}
}

func (h *Hub) reapIdleSessions() {
	now := time.Now()
	for _, s := range h.Sessions() {
		if r := s.IsIdle(now, h.cfg.Timeouts); r != session.NotIdle {
			h.log.WithField("session", s.ID()).WithField("reason", r.String()).Info("reaping idle session")
			s.Stop()
		}
	}
}

// infoTimer periodically logs aggregate hub statistics, standing in for
// the metrics emission a deployed node would also push to Prometheus.
func (h *Hub) infoTimer(ctx context.Context) {
	defer h.wg.Done()
	interval := h.cfg.InfoTick
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.log.WithField("sessions", h.SessionCount()).
				WithField("inbound", h.inboundCount()).
				WithField("outbound", h.outboundCount()).
				Info("hub status")
		}
	}
}
