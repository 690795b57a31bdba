package discovery

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"lanshare/internal/envelope"
	"lanshare/internal/reassembly"
	"lanshare/internal/util/logger/sl"
)

const (
	// maxDatagramSize covers the largest UDP payload we can receive.
	maxDatagramSize = 64 * 1024
	// readDeadline bounds one blocking read so cancellation is honored
	// even when the socket stays quiet.
	readDeadline = time.Second
)

// listenLoop receives every inbound datagram on the shared port, classifies
// it and routes it to the registry or the reassembly table. Malformed input
// is discarded; no single datagram may stop the loop.
func (s *Service) listenLoop(ctx context.Context) error {
	const op = "discovery.listenLoop"
	log := s.log.With(slog.String("op", op))

	buf := make([]byte, maxDatagramSize)

	for {
		select {
		case <-ctx.Done():
			log.Debug("listener stopped")
			return nil
		default:
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error("set read deadline", sl.Err(err))
			return nil
		}

		n, src, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			log.Warn("udp read failed", sl.Err(err))
			continue
		}

		s.handleDatagram(buf[:n], src, log)
	}
}

func (s *Service) handleDatagram(data []byte, src *net.UDPAddr, log *slog.Logger) {
	dg, err := envelope.Decode(data)
	if err != nil {
		s.metrics.DecodeErrors.Inc()
		log.Debug("discarding malformed datagram",
			slog.String("src", src.String()),
			sl.Err(err),
		)
		return
	}

	switch dg.Kind {
	case envelope.KindDiscovery:
		s.metrics.DatagramsReceived.WithLabelValues("discovery").Inc()
		s.handleAnnouncement(dg.Announcement, src, log)
	case envelope.KindChunk:
		s.metrics.DatagramsReceived.WithLabelValues("chunk").Inc()
		s.handleChunk(dg.Chunk, log)
	}
}

func (s *Service) handleAnnouncement(ann *envelope.Announcement, src *net.UDPAddr, log *slog.Logger) {
	// собственные broadcast-пакеты приходят обратно, отбрасываем их
	if ann.PeerID == s.id {
		return
	}

	s.metrics.AnnouncementsReceived.Inc()

	created := s.registry.Upsert(ann.PeerID, src.IP, ann.Port, ann.Hostname, s.clock.Now())
	s.metrics.Peers.Set(float64(s.registry.Count()))

	if created {
		log.Info("new peer discovered",
			slog.String("peer_id", ann.PeerID),
			slog.String("addr", src.IP.String()),
			slog.Int("port", ann.Port),
			slog.String("hostname", ann.Hostname),
		)
	}
}

func (s *Service) handleChunk(c *envelope.Chunk, log *slog.Logger) {
	if c.PeerID == s.id {
		return
	}

	res := s.table.Accept(c, s.clock.Now())

	s.metrics.ChunksReceived.WithLabelValues(res.Status.String()).Inc()
	s.metrics.ReassemblyEntries.Set(float64(s.table.Len()))

	if res.Conflict {
		log.Warn("duplicate chunk carries different content, keeping first copy",
			slog.String("peer_id", c.PeerID),
			slog.String("message_id", c.MessageID),
			slog.Int("chunk_index", c.Index),
		)
	}

	switch res.Status {
	case reassembly.StatusComplete:
		s.metrics.MessagesReassembled.Inc()
		s.deliver(Message{
			SenderID:   c.PeerID,
			Text:       string(res.Payload),
			ReceivedAt: s.clock.Now(),
		}, log)
	case reassembly.StatusChecksumMismatch:
		log.Warn("chunk rejected by checksum",
			slog.String("peer_id", c.PeerID),
			slog.String("message_id", c.MessageID),
			slog.Int("chunk_index", c.Index),
		)
	case reassembly.StatusInvalid:
		log.Warn("protocol violation in chunk",
			slog.String("peer_id", c.PeerID),
			slog.String("message_id", c.MessageID),
			slog.Int("chunk_index", c.Index),
			slog.Int("total_chunks", c.Total),
		)
	}
}

// deliver pushes the message to the subscriber without ever blocking the
// receive loop. A full buffer drops the newest message.
func (s *Service) deliver(msg Message, log *slog.Logger) {
	select {
	case s.messages <- msg:
	default:
		s.metrics.MessagesDropped.Inc()
		log.Warn("message consumer lagging, dropping message",
			slog.String("peer_id", msg.SenderID),
			slog.Int("bytes", len(msg.Text)),
		)
	}
}
