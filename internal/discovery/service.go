// Package discovery runs the LAN presence and text-transport engine: a
// periodic presence broadcaster, a receive loop that feeds the peer registry
// and the reassembly table, and a sweeper that evicts what went stale.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"lanshare/internal/envelope"
	"lanshare/internal/metrics"
	"lanshare/internal/peers"
	"lanshare/internal/reassembly"
	"lanshare/internal/util/logger/sl"
)

const messageBufferSize = 64

type serviceState int

const (
	stateIdle serviceState = iota
	stateRunning
	stateStopped
)

// Service owns the instance identity, the peer registry, the reassembly
// table and the lifecycle of the three background loops.
type Service struct {
	cfg     Config
	log     *slog.Logger
	id      string
	clock   clock.Clock
	metrics *metrics.Metrics

	registry *peers.Registry
	table    *reassembly.Table
	messages chan Message

	mu           sync.Mutex
	state        serviceState
	conn         *net.UDPConn // shared discovery/transport port, receive side
	sendConn     *net.UDPConn // ephemeral socket for broadcasts and unicast chunks
	port         int          // actual bound port, differs from cfg.Port only when that is 0
	broadcastDst *net.UDPAddr
	cancel       context.CancelFunc
	group        *errgroup.Group
}

func New(cfg Config, log *slog.Logger, opts ...Option) (*Service, error) {
	const op = "discovery.New"

	cfg.withDefaults()

	if net.ParseIP(cfg.BroadcastAddr) == nil {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrBadBroadcast, cfg.BroadcastAddr)
	}
	if cfg.Hostname == "" {
		hostname, err := os.Hostname()
		if err == nil {
			cfg.Hostname = hostname
		}
	}

	// receive-side cap on total_chunks implied by the send-side ceiling;
	// 0 lets the table fall back to the protocol defaults
	maxChunks := 0
	if cfg.PacketThreshold > 0 && cfg.MaxMessageSize > 0 {
		maxChunks = (cfg.MaxMessageSize + cfg.PacketThreshold - 1) / cfg.PacketThreshold
	}

	s := &Service{
		cfg:      cfg,
		log:      log,
		id:       uuid.NewString(),
		clock:    clock.New(),
		metrics:  metrics.New(),
		registry: peers.NewRegistry(),
		table:    reassembly.NewTable(maxChunks),
		messages: make(chan Message, messageBufferSize),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// OwnID returns the identity generated for this process run.
func (s *Service) OwnID() string {
	return s.id
}

// Peers returns a point-in-time copy of the registry.
func (s *Service) Peers() []peers.Peer {
	return s.registry.Snapshot()
}

func (s *Service) PeerCount() int {
	return s.registry.Count()
}

// Port returns the bound receive port once the service is started.
func (s *Service) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.port
}

// Messages delivers one Message per fully reassembled inbound payload. The
// channel is buffered; when the consumer lags, the newest message is dropped
// so the receive loop never blocks.
func (s *Service) Messages() <-chan Message {
	return s.messages
}

// Start binds both sockets and launches the broadcaster, listener and
// sweeper. It returns once the loops are running.
func (s *Service) Start(ctx context.Context) error {
	const op = "discovery.Service.Start"
	log := s.log.With(slog.String("op", op))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateIdle {
		return fmt.Errorf("%s: %w", op, ErrAlreadyStarted)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: s.cfg.Port})
	if err != nil {
		return fmt.Errorf("%s: bind port %d: %w", op, s.cfg.Port, err)
	}

	sendConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		conn.Close()
		return fmt.Errorf("%s: bind send socket: %w", op, err)
	}

	s.conn = conn
	s.sendConn = sendConn
	s.port = conn.LocalAddr().(*net.UDPAddr).Port

	broadcastPort := s.cfg.Port
	if broadcastPort == 0 {
		broadcastPort = s.port
	}
	s.broadcastDst = &net.UDPAddr{IP: net.ParseIP(s.cfg.BroadcastAddr), Port: broadcastPort}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return s.broadcastLoop(gctx) })
	g.Go(func() error { return s.listenLoop(gctx) })
	g.Go(func() error { return s.sweepLoop(gctx) })
	s.group = g

	s.state = stateRunning

	log.Info("discovery service started",
		slog.String("peer_id", s.id),
		slog.Int("port", s.port),
		slog.String("broadcast", s.broadcastDst.String()),
	)

	return nil
}

// Stop cancels the background loops, releases both sockets and waits for the
// loops to drain. Safe to call once after a successful Start.
func (s *Service) Stop() error {
	const op = "discovery.Service.Stop"
	log := s.log.With(slog.String("op", op))

	s.mu.Lock()
	if s.state != stateRunning {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrNotStarted)
	}
	s.state = stateStopped
	cancel := s.cancel
	conn := s.conn
	sendConn := s.sendConn
	group := s.group
	s.mu.Unlock()

	cancel()

	// closing the receive socket unblocks the listener mid-read
	err := multierr.Append(conn.Close(), sendConn.Close())
	err = multierr.Append(err, group.Wait())

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("discovery service stopped", slog.String("peer_id", s.id))

	return nil
}

// SendText splits text into chunks and unicasts them to the target peer, or
// to every known peer when target is TargetAll. Best effort: individual
// datagram failures are logged and skipped, never retried.
func (s *Service) SendText(ctx context.Context, target, text string) error {
	const op = "discovery.Service.SendText"
	log := s.log.With(slog.String("op", op))

	payload := []byte(text)
	if s.cfg.MaxMessageSize > 0 && len(payload) > s.cfg.MaxMessageSize {
		return fmt.Errorf("%s: %w: %d bytes", op, ErrMessageTooLarge, len(payload))
	}

	var targets []peers.Peer
	if target == TargetAll {
		targets = s.registry.Snapshot()
		if len(targets) == 0 {
			return fmt.Errorf("%s: %w", op, ErrNoPeers)
		}
	} else {
		peer, found := s.registry.Get(target)
		if !found {
			return fmt.Errorf("%s: %w: %s", op, ErrUnknownPeer, target)
		}
		targets = []peers.Peer{peer}
	}

	s.mu.Lock()
	running := s.state == stateRunning
	sendConn := s.sendConn
	s.mu.Unlock()
	if !running {
		return fmt.Errorf("%s: %w", op, ErrNotStarted)
	}

	chunks, err := envelope.Split(s.id, uuid.NewString(), payload,
		s.cfg.PacketThreshold, s.cfg.MaxMessageSize, s.clock.Now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, peer := range targets {
		addr := peer.UDPAddr()
		for i := range chunks {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			default:
			}

			data, err := chunks[i].Encode()
			if err != nil {
				return fmt.Errorf("%s: encode chunk %d: %w", op, i, err)
			}

			if _, err := sendConn.WriteToUDP(data, addr); err != nil {
				s.metrics.SendErrors.Inc()
				log.Warn("chunk send failed",
					slog.String("peer_id", peer.ID),
					slog.Int("chunk_index", i),
					sl.Err(err),
				)
				continue
			}
			s.metrics.ChunksSent.Inc()
		}
	}

	s.metrics.MessagesSent.Inc()
	log.Debug("message sent",
		slog.Int("chunks", len(chunks)),
		slog.Int("targets", len(targets)),
		slog.Int("bytes", len(payload)),
	)

	return nil
}

func (s *Service) String() string {
	return "lanshare[" + s.id + "]:" + strconv.Itoa(s.cfg.Port)
}
