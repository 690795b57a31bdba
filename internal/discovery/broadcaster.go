package discovery

import (
	"context"
	"log/slog"

	"lanshare/internal/envelope"
	"lanshare/internal/util/logger/sl"
)

// broadcastLoop announces this instance on a fixed schedule. A failed send
// is logged and skipped; the ticker keeps its cadence and missed ticks are
// not caught up.
func (s *Service) broadcastLoop(ctx context.Context) error {
	const op = "discovery.broadcastLoop"
	log := s.log.With(slog.String("op", op))

	ticker := s.clock.Ticker(s.cfg.BroadcastInterval)
	defer ticker.Stop()

	// announce immediately so peers learn about us before the first tick
	s.announce(log)

	for {
		select {
		case <-ctx.Done():
			log.Debug("broadcaster stopped")
			return nil
		case <-ticker.C:
			s.announce(log)
		}
	}
}

func (s *Service) announce(log *slog.Logger) {
	ann := envelope.Announcement{
		PeerID:    s.id,
		Port:      s.port,
		Hostname:  s.cfg.Hostname,
		Timestamp: s.clock.Now(),
	}

	data, err := ann.Encode()
	if err != nil {
		log.Error("encode announcement", sl.Err(err))
		return
	}

	if _, err := s.sendConn.WriteToUDP(data, s.broadcastDst); err != nil {
		s.metrics.SendErrors.Inc()
		log.Warn("announcement send failed", sl.Err(err))
		return
	}

	s.metrics.AnnouncementsSent.Inc()
}
