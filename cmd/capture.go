/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file>",
	Short: "Capture card UART traffic to a file",
	Long: `Capture bytes received by the programmer's card UART to a file.

The card is powered and the UART configured from the card section of the
config, then the receive buffer is polled until interrupted (Ctrl+C).
With --reset the card is reset first so the capture starts with its ATR.

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  iuutool capture card.bin
  iuutool capture card.bin --reset --console
  iuutool capture card.bin --interval 5ms`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outputPath := args[0]

		interval, _ := cmd.Flags().GetDuration("interval")
		showConsole, _ := cmd.Flags().GetBool("console")
		reset, _ := cmd.Flags().GetBool("reset")

		if err := runCapture(outputPath, interval, reset, showConsole); err != nil {
			fatalf("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Duration("interval", 10*time.Millisecond, "Receive poll interval")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data as hex on console while capturing")
	captureCmd.Flags().BoolP("reset", "r", false, "Reset the card before capturing")
}

// receiver is the part of a session capture drains.
type receiver interface {
	UARTReceive() ([]byte, error)
}

// captureLoop polls r every interval and appends what it receives to
// out until ctx is done. It returns the number of bytes written.
func captureLoop(ctx context.Context, r receiver, out io.Writer, interval time.Duration, console io.Writer) (int64, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, nil
		case <-ticker.C:
			b, err := r.UARTReceive()
			if err != nil {
				if ctx.Err() != nil {
					return written, nil
				}
				return written, fmt.Errorf("receive error: %w", err)
			}
			if len(b) == 0 {
				continue
			}
			n, err := out.Write(b)
			written += int64(n)
			if err != nil {
				return written, fmt.Errorf("write error: %w", err)
			}
			if console != nil {
				fmt.Fprintf(console, "[%s] %s\n", time.Now().Format("15:04:05.000"), iuu.Hex(b))
			}
		}
	}
}

func runCapture(outputPath string, interval time.Duration, reset, showConsole bool) error {
	line, err := cardLine(cfg.Card)
	if err != nil {
		return err
	}

	s, info, err := openSession()
	if err != nil {
		return fmt.Errorf("failed to open programmer: %w", err)
	}
	defer s.Close()

	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	if _, err := powerCard(s, line); err != nil {
		return err
	}
	if reset {
		if err := s.ResetCard(line.ResetWait); err != nil {
			return fmt.Errorf("reset card: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "Capturing card traffic from %s to %s\n", info, outputPath)
	if showConsole {
		fmt.Fprintf(os.Stderr, "Console display enabled\n")
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	var console io.Writer
	if showConsole {
		console = os.Stdout
	}

	startTime := time.Now()
	written, err := captureLoop(ctx, s, file, interval, console)
	logger.Info("capture finished", zap.Int64("bytes", written), zap.Duration("elapsed", time.Since(startTime)))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n", written, time.Since(startTime).Round(time.Millisecond))
	return nil
}
