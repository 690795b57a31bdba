package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lanshare/internal/discovery"
)

var (
	sendTo   string
	sendWait time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send [text...]",
	Short: "Send one text message and exit",
	Long: "Starts the engine, waits for the target peer to appear on the " +
		"network, sends the text and stops.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", discovery.TargetAll, "target peer id, or * for all peers")
	sendCmd.Flags().DurationVar(&sendWait, "wait", 10*time.Second, "how long to wait for the target to be discovered")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return errors.New("refusing to send an empty message")
	}

	svc, err := discovery.New(discoveryConfig(cfg), log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendWait+5*time.Second)
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if err := waitForTarget(ctx, svc, sendTo, sendWait); err != nil {
		return err
	}

	if err := svc.SendText(ctx, sendTo, text); err != nil {
		return err
	}

	fmt.Printf("sent %d bytes to %s\n", len(text), sendTo)
	return nil
}

// waitForTarget polls the registry until the target shows up or the window
// closes. Announcements arrive on the broadcast interval, so a few seconds
// is normal.
func waitForTarget(ctx context.Context, svc *discovery.Service, target string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if targetPresent(svc, target) {
			return nil
		}
		if time.Now().After(deadline) {
			if target == discovery.TargetAll {
				return fmt.Errorf("no peers discovered within %s", wait)
			}
			return fmt.Errorf("peer %s not discovered within %s", target, wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func targetPresent(svc *discovery.Service, target string) bool {
	if target == discovery.TargetAll {
		return svc.PeerCount() > 0
	}
	for _, p := range svc.Peers() {
		if p.ID == target {
			return true
		}
	}
	return false
}
