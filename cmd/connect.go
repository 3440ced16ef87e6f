/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/allbin/go-iuu/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open an interactive APDU terminal to the card",
	Long: `Open an interactive terminal to the card in the programmer.

The card is powered, clocked and its UART configured from the card section
of the config. Features include:
- Card insertion and removal tracking
- Reset with ATR decoding (r)
- APDU exchange with status word decoding (i, type hex, Enter)
- Hex and ASCII display modes
- Inter-byte pacing from card.pacing

Example usage:
  iuutool connect
  iuutool connect --serial A1B2 --reset
  IUU_CARD_CLOCK=4000000 iuutool connect`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reset, _ := cmd.Flags().GetBool("reset")
		poll, _ := cmd.Flags().GetDuration("poll")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if err := runConnectTUI(reset, poll, timeout); err != nil {
			fatalf("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().BoolP("reset", "r", false, "Reset the card and show its ATR on connect")
	connectCmd.Flags().Duration("poll", 500*time.Millisecond, "Card status poll interval")
	connectCmd.Flags().DurationP("timeout", "t", 2*time.Second, "Time to wait for a reply")
}

func runConnectTUI(reset bool, poll, timeout time.Duration) error {
	line, err := cardLine(cfg.Card)
	if err != nil {
		return err
	}

	xcfg := models.DefaultExchangeConfig()
	xcfg.Pacing = line.Pacing
	xcfg.Timeout = timeout

	info, err := selectDevice()
	if err != nil {
		return err
	}

	m := models.NewConnect(info.String(), models.ConnectOptions{
		Line:         line,
		ResetWait:    line.ResetWait,
		PollInterval: poll,
		Exchange:     xcfg,
	})

	// Console logs would draw over the alt screen
	if cfg.Logging.File.Filename == "" {
		logger = zap.NewNop()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Connect to the programmer in background
	go func() {
		s, _, err := openSession()
		if err != nil {
			p.Send(models.ConnectionStatusMsg{Error: err})
			return
		}
		if _, err := powerCard(s, line); err != nil {
			s.Close()
			p.Send(models.ConnectionStatusMsg{Error: fmt.Errorf("power card: %w", err)})
			return
		}
		p.Send(models.ConnectionStatusMsg{Device: s})

		if reset {
			p.Send(models.ResetCard(s, line.ResetWait)())
		}
	}()

	_, err = p.Run()
	m.Cleanup()
	if err != nil {
		logger.Error("tui exited", zap.Error(err))
	}
	return err
}
