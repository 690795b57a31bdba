// Package watcher turns a spool directory into a send queue: every *.txt
// file dropped into it is broadcast to all known peers and removed once
// handed to the transport.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"lanshare/internal/util/logger/sl"
)

// SendFunc hands one payload to the transport. The watcher never cares who
// the targets are.
type SendFunc func(ctx context.Context, text string) error

type Config struct {
	Dir              string
	DebounceDuration time.Duration
	IgnorePatterns   []string
}

type SpoolWatcher struct {
	watcher  *fsnotify.Watcher
	send     SendFunc
	debounce *Debouncer
	cfg      Config
	log      *slog.Logger
}

func New(cfg Config, send SendFunc, log *slog.Logger) (*SpoolWatcher, error) {
	const op = "watcher.New"

	if send == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSender)
	}

	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrNotDirectory, cfg.Dir)
	}

	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = DefaultDebounceDuration
	}
	if cfg.IgnorePatterns == nil {
		cfg.IgnorePatterns = IgnoredPatterns
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("%s: watch %s: %w", op, cfg.Dir, err)
	}

	return &SpoolWatcher{
		watcher:  fsw,
		send:     send,
		debounce: NewDebouncer(cfg.DebounceDuration),
		cfg:      cfg,
		log:      log,
	}, nil
}

// Run processes spool events until ctx is cancelled or the underlying
// watcher closes.
func (w *SpoolWatcher) Run(ctx context.Context) error {
	const op = "watcher.SpoolWatcher.Run"
	log := w.log.With(slog.String("op", op))

	log.Info("watching spool directory", slog.String("dir", w.cfg.Dir))

	defer w.debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event, log)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", sl.Err(err))
		}
	}
}

func (w *SpoolWatcher) handleEvent(ctx context.Context, event fsnotify.Event, log *slog.Logger) {
	path := event.Name

	if event.Op&WatchedEvents == 0 {
		return
	}
	if !strings.EqualFold(filepath.Ext(path), SpoolExtension) {
		return
	}
	for _, pattern := range w.cfg.IgnorePatterns {
		if strings.Contains(path, pattern) {
			return
		}
	}

	// Дебаунсинг: редакторы пишут файл в несколько приёмов
	w.debounce.Debounce(path, func() {
		w.dispatch(ctx, path, log)
	})
}

func (w *SpoolWatcher) dispatch(ctx context.Context, path string, log *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("read spool file", slog.String("path", path), sl.Err(err))
		}
		return
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return
	}

	if err := w.send(ctx, text); err != nil {
		// file stays in the spool; next write retriggers it
		log.Warn("spool send failed", slog.String("path", path), sl.Err(err))
		return
	}

	if err := os.Remove(path); err != nil {
		log.Warn("remove spool file", slog.String("path", path), sl.Err(err))
		return
	}

	log.Info("spool file sent", slog.String("path", path), slog.Int("bytes", len(text)))
}
