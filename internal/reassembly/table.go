// Package reassembly reconstructs text payloads from chunks that arrive
// unordered, duplicated and interleaved across senders.
package reassembly

import (
	"bytes"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"lanshare/internal/envelope"
)

// completedCacheSize bounds the memory of remembering finished messages so
// that late duplicates of a delivered message report Duplicate instead of
// opening a fresh entry that would linger until the sweeper.
const completedCacheSize = 1024

type entry struct {
	mu        sync.Mutex
	total     int
	firstSeen time.Time
	chunks    map[int][]byte
	finalSum  string
	// gone is set under mu when the entry is completed or evicted; an
	// Accept that raced onto a dead entry retries against the map.
	gone bool
}

type Table struct {
	mu        sync.Mutex
	entries   map[Key]*entry
	completed *lru.Cache[Key, struct{}]
	maxChunks int
}

// NewTable creates an empty table. maxChunks caps total_chunks accepted from
// the wire; a peer announcing more is a protocol violation (the send side
// enforces the message ceiling, this guards the receive side's memory).
func NewTable(maxChunks int) *Table {
	if maxChunks <= 0 {
		maxChunks = (envelope.DefaultMaxMessageSize + envelope.DefaultPacketThreshold - 1) /
			envelope.DefaultPacketThreshold
	}

	completed, _ := lru.New[Key, struct{}](completedCacheSize)

	return &Table{
		entries:   make(map[Key]*entry),
		completed: completed,
		maxChunks: maxChunks,
	}
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}

// Accept verifies and stores one chunk. Calls for different keys proceed
// concurrently; calls for the same key serialize on the entry lock.
func (t *Table) Accept(c *envelope.Chunk, now time.Time) Result {
	if c.Total < 1 || c.Index < 0 || c.Index >= c.Total || c.Total > t.maxChunks {
		return Result{Status: StatusInvalid}
	}
	if !c.Verify() {
		return Result{Status: StatusChecksumMismatch}
	}

	key := Key{Sender: c.PeerID, MessageID: c.MessageID}

	for {
		e, done := t.lookup(key, c.Total, now)
		if done {
			return Result{Status: StatusDuplicate}
		}

		e.mu.Lock()
		if e.gone {
			// completed or evicted between lookup and lock
			e.mu.Unlock()
			continue
		}
		res := t.acceptLocked(e, key, c)
		e.mu.Unlock()

		return res
	}
}

// lookup finds or creates the entry for key. Reports done=true when the
// message was already delivered.
func (t *Table) lookup(key Key, total int, now time.Time) (*entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed.Contains(key) {
		return nil, true
	}

	e, ok := t.entries[key]
	if !ok {
		e = &entry{
			total:     total,
			firstSeen: now,
			chunks:    make(map[int][]byte, total),
		}
		t.entries[key] = e
	}

	return e, false
}

func (t *Table) acceptLocked(e *entry, key Key, c *envelope.Chunk) Result {
	// first total wins; a disagreeing chunk is a protocol violation
	if c.Total != e.total {
		return Result{Status: StatusInvalid}
	}

	if existing, ok := e.chunks[c.Index]; ok {
		if bytes.Equal(existing, c.Payload) {
			return Result{Status: StatusDuplicate}
		}
		// same index, different bytes: keep the first accepted copy
		return Result{Status: StatusDuplicate, Conflict: true}
	}

	e.chunks[c.Index] = append([]byte(nil), c.Payload...)
	if c.Index == e.total-1 {
		// recorded exactly once: a later final-index chunk with different
		// content is rejected as a duplicate above and can never swap the
		// message checksum
		e.finalSum = c.MessageChecksum
	}

	if len(e.chunks) < e.total {
		return Result{Status: StatusIncomplete}
	}

	payload := make([]byte, 0, totalSize(e.chunks))
	for i := 0; i < e.total; i++ {
		payload = append(payload, e.chunks[i]...)
	}

	e.gone = true

	if e.finalSum != "" && envelope.Checksum(payload) != e.finalSum {
		// never deliver a payload that fails whole-message integrity; the
		// key is forgotten, not remembered as completed, so a clean
		// retransmission can start a fresh entry
		t.drop(key, e, false)
		return Result{Status: StatusChecksumMismatch}
	}

	t.drop(key, e, true)

	return Result{Status: StatusComplete, Payload: payload}
}

// drop removes the entry from the map if it is still the mapped one, and
// optionally remembers the key as completed.
func (t *Table) drop(key Key, e *entry, remember bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.entries[key]; ok && cur == e {
		delete(t.entries, key)
	}
	if remember {
		t.completed.Add(key, struct{}{})
	}
}

// EvictExpired removes every entry first seen at least timeout ago and
// returns the number evicted. This is the only thing standing between an
// abandoned transfer and unbounded buffered-chunk memory.
func (t *Table) EvictExpired(now time.Time, timeout time.Duration) int {
	t.mu.Lock()
	candidates := make(map[Key]*entry, len(t.entries))
	for key, e := range t.entries {
		candidates[key] = e
	}
	t.mu.Unlock()

	evicted := 0
	for key, e := range candidates {
		e.mu.Lock()
		expired := !e.gone && now.Sub(e.firstSeen) >= timeout
		if expired {
			e.gone = true
			e.chunks = nil
		}
		e.mu.Unlock()

		if expired {
			t.drop(key, e, false)
			evicted++
		}
	}

	return evicted
}

func totalSize(chunks map[int][]byte) int {
	n := 0
	for _, b := range chunks {
		n += len(b)
	}
	return n
}
