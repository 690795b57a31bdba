package main

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"lanshare/internal/discovery"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPrintIncoming_RendersAndStopsOnCancel(t *testing.T) {
	color.NoColor = true

	msgs := make(chan discovery.Message, 2)
	msgs <- discovery.Message{SenderID: "0123456789abcdef", Text: "hello there"}

	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		printIncoming(ctx, msgs, out)
	}()

	assert.Eventually(t, func() bool {
		return len(out.String()) > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("printer did not stop on cancel")
	}

	assert.Equal(t, "[01234567] hello there\n", out.String())
}

func TestPrintIncoming_StopsOnClosedChannel(t *testing.T) {
	msgs := make(chan discovery.Message)
	close(msgs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		printIncoming(context.Background(), msgs, &bytes.Buffer{})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("printer did not stop on a closed channel")
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "01234567", shortID("0123456789abcdef"))
	assert.Equal(t, "tiny", shortID("tiny"))
}
