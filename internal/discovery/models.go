package discovery

import "time"

// TargetAll addresses a send to every peer currently in the registry.
const TargetAll = "*"

// Message is one fully reassembled inbound text payload.
type Message struct {
	SenderID   string
	Text       string
	ReceivedAt time.Time
}

// Config carries the engine tunables. Zero values fall back to the defaults
// from the protocol contract.
type Config struct {
	// Port is the shared discovery/transport UDP port. 0 binds an
	// ephemeral port, which only makes sense in tests.
	Port              int
	BroadcastAddr     string
	BroadcastInterval time.Duration
	PeerTimeout       time.Duration
	SweepInterval     time.Duration
	ReassemblyTimeout time.Duration
	PacketThreshold   int
	MaxMessageSize    int
	// Hostname is the display name carried in announcements; defaults to
	// os.Hostname.
	Hostname string
}

const (
	DefaultPort              = 7878
	DefaultBroadcastAddr     = "255.255.255.255"
	DefaultBroadcastInterval = 5 * time.Second
	DefaultPeerTimeout       = 30 * time.Second
	DefaultSweepInterval     = 10 * time.Second
	DefaultReassemblyTimeout = 20 * time.Second
)

func (c *Config) withDefaults() {
	if c.BroadcastAddr == "" {
		c.BroadcastAddr = DefaultBroadcastAddr
	}
	if c.BroadcastInterval <= 0 {
		c.BroadcastInterval = DefaultBroadcastInterval
	}
	if c.PeerTimeout <= 0 {
		c.PeerTimeout = DefaultPeerTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.ReassemblyTimeout <= 0 {
		c.ReassemblyTimeout = DefaultReassemblyTimeout
	}
}
