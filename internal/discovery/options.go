package discovery

import (
	"github.com/benbjohnson/clock"

	"lanshare/internal/metrics"
)

type Option func(*Service)

// WithClock substitutes the time source, letting tests drive the broadcast
// and sweep tickers deterministically.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithMetrics shares a metrics set with the embedder, typically to serve it
// over HTTP next to the engine.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}
