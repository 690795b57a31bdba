package discovery

import (
	"context"
	"log/slog"
)

// sweepLoop evicts stale peers and abandoned partial messages on a fixed
// interval. This is the only mechanism reclaiming memory from peers that
// vanished mid-transfer, so it runs for the whole service lifetime.
func (s *Service) sweepLoop(ctx context.Context) error {
	const op = "discovery.sweepLoop"
	log := s.log.With(slog.String("op", op))

	ticker := s.clock.Ticker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("sweeper stopped")
			return nil
		case <-ticker.C:
			s.sweep(log)
		}
	}
}

func (s *Service) sweep(log *slog.Logger) {
	now := s.clock.Now()

	removed := s.registry.RemoveStale(now, s.cfg.PeerTimeout)
	if len(removed) > 0 {
		s.metrics.PeersEvicted.Add(float64(len(removed)))
		log.Info("stale peers removed", slog.Any("peer_ids", removed))
	}

	evicted := s.table.EvictExpired(now, s.cfg.ReassemblyTimeout)
	if evicted > 0 {
		s.metrics.EntriesEvicted.Add(float64(evicted))
		log.Info("abandoned transfers reclaimed", slog.Int("count", evicted))
	}

	s.metrics.Peers.Set(float64(s.registry.Count()))
	s.metrics.ReassemblyEntries.Set(float64(s.table.Len()))
}
