// Package metrics exposes engine counters for the discovery and transport
// loops. Everything is registered on a private registry so tests and
// embedders never collide with the global one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Peers             prometheus.Gauge
	ReassemblyEntries prometheus.Gauge

	AnnouncementsSent     prometheus.Counter
	AnnouncementsReceived prometheus.Counter
	DatagramsReceived     *prometheus.CounterVec
	DecodeErrors          prometheus.Counter

	ChunksSent     prometheus.Counter
	ChunksReceived *prometheus.CounterVec

	MessagesSent        prometheus.Counter
	MessagesReassembled prometheus.Counter
	MessagesDropped     prometheus.Counter

	PeersEvicted   prometheus.Counter
	EntriesEvicted prometheus.Counter

	SendErrors prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Peers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lanshare",
			Name:      "peers",
			Help:      "Peers currently present in the registry.",
		}),
		ReassemblyEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lanshare",
			Name:      "reassembly_entries",
			Help:      "In-flight partial messages buffered for reassembly.",
		}),
		AnnouncementsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "announcements_sent_total",
			Help:      "Presence announcements broadcast to the network.",
		}),
		AnnouncementsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "announcements_received_total",
			Help:      "Presence announcements received from other peers.",
		}),
		DatagramsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "datagrams_received_total",
			Help:      "Inbound datagrams by envelope kind.",
		}, []string{"kind"}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "decode_errors_total",
			Help:      "Inbound datagrams discarded as malformed.",
		}),
		ChunksSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "chunks_sent_total",
			Help:      "Message chunks written to the network.",
		}),
		ChunksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "chunks_received_total",
			Help:      "Message chunks accepted by the reassembly table, by outcome.",
		}, []string{"outcome"}),
		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "messages_sent_total",
			Help:      "Text messages handed to the transport.",
		}),
		MessagesReassembled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "messages_reassembled_total",
			Help:      "Inbound messages fully reassembled and delivered.",
		}),
		MessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "messages_dropped_total",
			Help:      "Reassembled messages dropped because the consumer lagged.",
		}),
		PeersEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "peers_evicted_total",
			Help:      "Peers removed by the staleness sweeper.",
		}),
		EntriesEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "reassembly_evicted_total",
			Help:      "Partial messages abandoned and reclaimed by the sweeper.",
		}),
		SendErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lanshare",
			Name:      "send_errors_total",
			Help:      "Datagram writes that failed and were skipped.",
		}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
