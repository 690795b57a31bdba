package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendRecorder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *sendRecorder) send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.texts = append(r.texts, text)
	return nil
}

func (r *sendRecorder) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.texts...)
}

func setupSpool(t *testing.T, rec *sendRecorder) string {
	t.Helper()

	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := New(Config{Dir: dir, DebounceDuration: 50 * time.Millisecond}, rec.send, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return dir
}

func TestNew_Validation(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("nil sender", func(t *testing.T) {
		_, err := New(Config{Dir: t.TempDir()}, nil, log)
		assert.ErrorIs(t, err, ErrNoSender)
	})

	t.Run("missing dir", func(t *testing.T) {
		_, err := New(Config{Dir: "/nonexistent/spool"}, (&sendRecorder{}).send, log)
		assert.Error(t, err)
	})

	t.Run("file instead of dir", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		_, err := New(Config{Dir: path}, (&sendRecorder{}).send, log)
		assert.ErrorIs(t, err, ErrNotDirectory)
	})
}

func TestSpoolWatcher_SendsAndRemovesFile(t *testing.T) {
	rec := &sendRecorder{}
	dir := setupSpool(t, rec)

	path := filepath.Join(dir, "message.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello from the spool\n"), 0o644))

	require.Eventually(t, func() bool {
		return len(rec.sent()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, "hello from the spool", rec.sent()[0])

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 3*time.Second, 20*time.Millisecond, "sent file must leave the spool")
}

func TestSpoolWatcher_IgnoresForeignFiles(t *testing.T) {
	rec := &sendRecorder{}
	dir := setupSpool(t, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("not for sending"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.txt.swp"), []byte("editor junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("   \n"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, rec.sent())
}

func TestSpoolWatcher_FileStaysOnSendFailure(t *testing.T) {
	rec := &sendRecorder{err: context.DeadlineExceeded}
	dir := setupSpool(t, rec)

	path := filepath.Join(dir, "stuck.txt")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	time.Sleep(300 * time.Millisecond)

	_, err := os.Stat(path)
	assert.NoError(t, err, "failed sends keep the file for a later retry")
}
