package discovery

import (
	"errors"

	"lanshare/internal/envelope"
)

var (
	// ErrNoPeers: a broadcast send found the registry empty.
	ErrNoPeers = errors.New("no peers available")
	// ErrUnknownPeer: the named target is not in the registry.
	ErrUnknownPeer = errors.New("unknown peer")
	// ErrMessageTooLarge: payload above the hard ceiling, rejected before
	// any network I/O.
	ErrMessageTooLarge = envelope.ErrMessageTooLarge

	ErrNotStarted     = errors.New("discovery service is not running")
	ErrAlreadyStarted = errors.New("discovery service already started")
	ErrBadBroadcast   = errors.New("invalid broadcast address")
)
