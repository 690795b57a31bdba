// Package envelope implements the wire format shared by the discovery
// broadcaster and the chunk transport: one JSON envelope per datagram,
// distinguished by a type tag.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindDiscovery Kind = "discovery"
	KindChunk     Kind = "chunk"
)

// Announcement объявляет о присутствии узла в сети.
type Announcement struct {
	PeerID    string    `json:"peer_id"`
	Port      int       `json:"port"`
	Hostname  string    `json:"hostname,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Chunk is one fragment of a text payload. Payload is carried base64-encoded
// on the wire (payload_b64). The chunk with Index == Total-1 additionally
// carries the checksum of the whole assembled payload.
type Chunk struct {
	PeerID          string    `json:"peer_id"`
	MessageID       string    `json:"message_id"`
	Index           int       `json:"chunk_index"`
	Total           int       `json:"total_chunks"`
	Payload         []byte    `json:"payload_b64"`
	Checksum        string    `json:"checksum"`
	MessageChecksum string    `json:"message_checksum,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Datagram is the result of decoding one inbound packet. Exactly one of
// Announcement/Chunk is non-nil, matching Kind.
type Datagram struct {
	Kind         Kind
	Announcement *Announcement
	Chunk        *Chunk
}

type wireAnnouncement struct {
	Type Kind `json:"type"`
	Announcement
}

type wireChunk struct {
	Type Kind `json:"type"`
	Chunk
}

func (a Announcement) Encode() ([]byte, error) {
	return json.Marshal(wireAnnouncement{Type: KindDiscovery, Announcement: a})
}

func (c Chunk) Encode() ([]byte, error) {
	return json.Marshal(wireChunk{Type: KindChunk, Chunk: c})
}

// Verify reports whether the chunk payload matches its own checksum.
func (c Chunk) Verify() bool {
	return Checksum(c.Payload) == c.Checksum
}

// Decode разбирает входящую датаграмму по тегу type.
func Decode(data []byte) (Datagram, error) {
	var probe struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Datagram{}, fmt.Errorf("decode envelope: %w", err)
	}

	switch probe.Type {
	case KindDiscovery:
		var w wireAnnouncement
		if err := json.Unmarshal(data, &w); err != nil {
			return Datagram{}, fmt.Errorf("decode announcement: %w", err)
		}
		if w.PeerID == "" {
			return Datagram{}, ErrMissingPeerID
		}
		return Datagram{Kind: KindDiscovery, Announcement: &w.Announcement}, nil
	case KindChunk:
		var w wireChunk
		if err := json.Unmarshal(data, &w); err != nil {
			return Datagram{}, fmt.Errorf("decode chunk: %w", err)
		}
		if w.PeerID == "" {
			return Datagram{}, ErrMissingPeerID
		}
		return Datagram{Kind: KindChunk, Chunk: &w.Chunk}, nil
	default:
		return Datagram{}, fmt.Errorf("%w: %q", ErrUnknownKind, probe.Type)
	}
}
