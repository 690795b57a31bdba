package envelope

import "errors"

var (
	ErrUnknownKind     = errors.New("unknown envelope kind")
	ErrMissingPeerID   = errors.New("envelope has no peer id")
	ErrMessageTooLarge = errors.New("message exceeds maximum size")
)
