package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lanshare/internal/discovery"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive chat console",
	Long: "Starts the engine and attaches an interactive console: lines typed " +
		"are broadcast to all peers, incoming messages print as they arrive.\n\n" +
		"Commands: /peers, /send <peer-id> <text>, /id, /quit",
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	// keep the console readable: engine logs go out only above Warn
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))

	svc, err := discovery.New(discoveryConfig(cfg), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	fmt.Printf("lanshare console, peer id %s\n", color.GreenString(svc.OwnID()))
	fmt.Println("type a message to broadcast it; /peers /send /id /quit")

	printerCtx, stopPrinter := context.WithCancel(ctx)
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		printIncoming(printerCtx, svc.Messages(), os.Stdout)
	}()
	defer func() {
		stopPrinter()
		<-printerDone
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}
		if err := handleConsoleLine(ctx, svc, line); err != nil {
			fmt.Println(color.RedString("error: %v", err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}

	return scanner.Err()
}

func handleConsoleLine(ctx context.Context, svc *discovery.Service, line string) error {
	switch {
	case line == "/id":
		fmt.Println(svc.OwnID())
		return nil

	case line == "/peers":
		printPeerTable(svc)
		return nil

	case strings.HasPrefix(line, "/send "):
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 3 {
			return errors.New("usage: /send <peer-id> <text>")
		}
		return svc.SendText(ctx, parts[1], parts[2])

	case strings.HasPrefix(line, "/"):
		return fmt.Errorf("unknown command %q", strings.Fields(line)[0])

	default:
		err := svc.SendText(ctx, discovery.TargetAll, line)
		if errors.Is(err, discovery.ErrNoPeers) {
			return errors.New("no peers discovered yet")
		}
		return err
	}
}

// printIncoming renders reassembled messages until ctx is cancelled or the
// channel closes.
func printIncoming(ctx context.Context, msgs <-chan discovery.Message, out io.Writer) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			fmt.Fprintf(out, "%s %s\n", color.CyanString("[%s]", shortID(msg.SenderID)), msg.Text)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
