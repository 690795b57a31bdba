package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lanshare/internal/config"
	"lanshare/internal/discovery"
	"lanshare/internal/util/logger/handlers/slogpretty"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "lanshare",
	Short:         "Zero-config peer discovery and text exchange on the local network",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(peersCmd)
}

func loadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return config.MustLoadPath(path)
}

func discoveryConfig(cfg *config.Config) discovery.Config {
	return discovery.Config{
		Port:              cfg.Discovery.Port,
		BroadcastAddr:     cfg.Discovery.BroadcastAddr,
		BroadcastInterval: cfg.Discovery.BroadcastInterval,
		PeerTimeout:       cfg.Discovery.PeerTimeout,
		SweepInterval:     cfg.Discovery.SweepInterval,
		ReassemblyTimeout: cfg.Discovery.ReassemblyTimeout,
		PacketThreshold:   cfg.Discovery.PacketThreshold,
		MaxMessageSize:    cfg.Discovery.MaxMessageSize,
		Hostname:          cfg.Name,
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stderr)

	return slog.New(handler)
}
