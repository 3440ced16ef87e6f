/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/models"
	"github.com/spf13/cobra"
)

var (
	monitorInterval time.Duration
	monitorTimeout  time.Duration
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor card insertion and removal",
	Long: `Monitor the programmer's card slots in real-time.

Polls the state register and reports when a card is inserted or removed,
or the verify flag changes. Press Ctrl+C to stop.

Examples:
  iuutool monitor
  iuutool monitor --interval 100ms
  iuutool monitor --timeout 30s`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s, info, err := openSession()
		if err != nil {
			fatalf("Error opening programmer: %v", err)
		}
		defer s.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if monitorTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, monitorTimeout)
			defer cancel()
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			fmt.Println("\nStopping monitor...")
			cancel()
		}()

		fmt.Printf("Monitoring card slots on %s (every %s)\n", info, monitorInterval)
		fmt.Println("Press Ctrl+C to stop")

		if err := monitorCard(ctx, s, monitorInterval, func(st iuu.Status, change string) {
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), change)
			printStatus(st)
			fmt.Println()
		}); err != nil {
			fatalf("Error reading status: %v", err)
		}
	},
}

// monitorCard polls the state register until ctx is done and calls
// report for the initial state and every change.
func monitorCard(ctx context.Context, dev interface{ Status() (iuu.Status, error) }, interval time.Duration, report func(iuu.Status, string)) error {
	tracker := models.NewCardModel("")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := dev.Status()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if change := tracker.ObserveCard(st); change != "" {
			report(st, change)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 250*time.Millisecond, "Status poll interval")
	monitorCmd.Flags().DurationVarP(&monitorTimeout, "timeout", "t", 0, "Stop after this long (0 = no timeout)")
}
