package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lanshare/internal/discovery"
)

var peersWait time.Duration

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Discover peers for a short window and print them",
	RunE:  runPeers,
}

func init() {
	peersCmd.Flags().DurationVar(&peersWait, "wait", 3*time.Second, "discovery window")
}

func runPeers(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))

	svc, err := discovery.New(discoveryConfig(cfg), log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), peersWait+5*time.Second)
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(peersWait):
	}

	printPeerTable(svc)
	return nil
}

func printPeerTable(svc *discovery.Service) {
	peerList := svc.Peers()
	if len(peerList) == 0 {
		fmt.Println("no peers discovered")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PEER ID\tADDRESS\tHOSTNAME\tLAST SEEN")
	for _, p := range peerList {
		fmt.Fprintf(w, "%s\t%s:%d\t%s\t%s\n",
			color.GreenString(p.ID),
			p.IP, p.Port,
			p.Hostname,
			p.LastSeen.Format(time.TimeOnly),
		)
	}
	w.Flush()
}
