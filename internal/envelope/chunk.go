package envelope

import (
	"fmt"
	"time"
)

const (
	// DefaultPacketThreshold держит датаграмму ниже типичного MTU
	// с учетом накладных расходов JSON и base64.
	DefaultPacketThreshold = 1100

	// DefaultMaxMessageSize is the hard ceiling for one text payload.
	DefaultMaxMessageSize = 256 * 1024
)

// Split cuts payload into chunks of at most threshold bytes. Payloads at or
// below the threshold always produce exactly one chunk. The final chunk
// carries the checksum of the whole payload so the receiver can verify the
// assembled message.
func Split(peerID, messageID string, payload []byte, threshold, maxSize int, now time.Time) ([]Chunk, error) {
	if threshold <= 0 {
		threshold = DefaultPacketThreshold
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	if len(payload) > maxSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, len(payload), maxSize)
	}

	total := (len(payload) + threshold - 1) / threshold
	if total == 0 {
		// empty payload is still one (empty) chunk
		total = 1
	}

	messageSum := Checksum(payload)

	chunks := make([]Chunk, 0, total)
	for i := 0; i < total; i++ {
		start := i * threshold
		end := start + threshold
		if end > len(payload) {
			end = len(payload)
		}
		part := payload[start:end]

		c := Chunk{
			PeerID:    peerID,
			MessageID: messageID,
			Index:     i,
			Total:     total,
			Payload:   part,
			Checksum:  Checksum(part),
			Timestamp: now,
		}
		if i == total-1 {
			c.MessageChecksum = messageSum
		}
		chunks = append(chunks, c)
	}

	return chunks, nil
}
