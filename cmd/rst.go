/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// rstCmd represents the rst command
var rstCmd = &cobra.Command{
	Use:   "rst <state>",
	Short: "Control the card RST line",
	Long: `Manually drive the card RST (reset, contact C2) line.

RST is active low on ISO7816 cards: "high" asserts reset, "low" releases
it and lets the card answer. Use 'iuutool atr' for a timed reset pulse
that also reads the answer.

Examples:
  iuutool rst high
  iuutool rst low

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state, err := parseSignalState(args[0])
		if err != nil {
			fatalf("Error: %v", err)
		}

		s, info, err := openSession()
		if err != nil {
			fatalf("Error opening programmer: %v", err)
		}
		defer s.Close()

		if state {
			err = s.SetRST()
		} else {
			err = s.ClearRST()
		}
		if err != nil {
			fatalf("Error setting RST: %v", err)
		}

		fmt.Printf("RST set to %s on %s\n", formatSignalState(state), info)
	},
}

func parseSignalState(state string) (bool, error) {
	switch strings.ToLower(state) {
	case "high", "on", "true", "1":
		return true, nil
	case "low", "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state: %s (valid: high, low, on, off, true, false, 1, 0)", state)
	}
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}

func init() {
	rootCmd.AddCommand(rstCmd)
}
