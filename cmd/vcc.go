/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/allbin/go-iuu/internal/config"
	"github.com/spf13/cobra"
)

// vccCmd represents the vcc command
var vccCmd = &cobra.Command{
	Use:   "vcc [level]",
	Short: "Select the card supply voltage",
	Long: `Select the card supply voltage (contact C1).

Without an argument the configured card.vcc is applied.

Examples:
  iuutool vcc 5V
  iuutool vcc 3.3V

Valid levels: 5V, 3.3V`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		card := cfg.Card
		if len(args) == 1 {
			card = config.CardConfig{VCC: args[0]}
		}
		level, err := card.VCCLevel()
		if err != nil {
			fatalf("Error: %v", err)
		}

		s, info, err := openSession()
		if err != nil {
			fatalf("Error opening programmer: %v", err)
		}
		defer s.Close()

		if err := s.SetVCC(level); err != nil {
			fatalf("Error setting VCC: %v", err)
		}
		fmt.Printf("VCC set to %s on %s\n", level, info)
	},
}

func init() {
	rootCmd.AddCommand(vccCmd)
}
