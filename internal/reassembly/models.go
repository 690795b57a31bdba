package reassembly

// Key identifies one in-flight message: chunks from different senders never
// mix even when message IDs collide.
type Key struct {
	Sender    string
	MessageID string
}

type Status int

const (
	// StatusIncomplete: chunk stored, more chunks still missing.
	StatusIncomplete Status = iota
	// StatusComplete: this chunk was the last one, Payload carries the
	// verified assembled message.
	StatusComplete
	// StatusDuplicate: the index was already present, nothing changed.
	StatusDuplicate
	// StatusChecksumMismatch: the chunk (or the assembled message) failed
	// integrity verification and was discarded.
	StatusChecksumMismatch
	// StatusInvalid: the chunk violates the protocol (bad index, bad total).
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusIncomplete:
		return "incomplete"
	case StatusComplete:
		return "complete"
	case StatusDuplicate:
		return "duplicate"
	case StatusChecksumMismatch:
		return "checksum_mismatch"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result of accepting one chunk. Payload is set only for StatusComplete.
// Conflict marks a duplicate index that arrived with different bytes; the
// first accepted copy is kept and the newcomer ignored.
type Result struct {
	Status   Status
	Payload  []byte
	Conflict bool
}
