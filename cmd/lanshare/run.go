package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lanshare/internal/discovery"
	"lanshare/internal/metrics"
	"lanshare/internal/util/logger/sl"
	"lanshare/internal/watcher"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the discovery daemon",
	Long: "Runs the discovery engine in the foreground: broadcasts presence, " +
		"collects peers and logs every text message received.",
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := setupLogger(cfg.Env)

	log.Info("starting lanshare",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Discovery.Port),
	)

	m := metrics.New()

	svc, err := discovery.New(discoveryConfig(cfg), log, discovery.WithMetrics(m))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			log.Error("stopping discovery service", sl.Err(err))
		}
	}()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())

		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("metrics endpoint up", slog.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", sl.Err(err))
			}
		}()
		defer srv.Close()
	}

	if cfg.SpoolDir != "" {
		spool, err := watcher.New(
			watcher.Config{Dir: cfg.SpoolDir},
			func(ctx context.Context, text string) error {
				return svc.SendText(ctx, discovery.TargetAll, text)
			},
			log,
		)
		if err != nil {
			return err
		}
		go func() {
			if err := spool.Run(ctx); err != nil {
				log.Error("spool watcher stopped", sl.Err(err))
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return nil
		case msg := <-svc.Messages():
			log.Info("text received",
				slog.String("from", msg.SenderID),
				slog.String("text", msg.Text),
			)
		}
	}
}
