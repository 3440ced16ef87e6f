/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/allbin/go-iuu"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the card slot state",
	Long: `Display the programmer's state register.

Examples:
  iuutool status
  iuutool status --serial A1B2

State bits:
  FULL   - a card is in the full size slot
  MINI   - a card is in the mini (SIM) slot
  VERIFY - the last verify operation failed`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s, info, err := openSession()
		if err != nil {
			fatalf("Error opening programmer: %v", err)
		}
		defer s.Close()

		st, err := s.Status()
		if err != nil {
			fatalf("Error reading status: %v", err)
		}

		fmt.Printf("Card state for %s: 0x%02X\n\n", info, byte(st))
		printStatus(st)
	},
}

func printStatus(st iuu.Status) {
	fmt.Printf("  FULL   (full size slot):   %s\n", formatSignalState(st.FullCardInserted()))
	fmt.Printf("  MINI   (mini slot):        %s\n", formatSignalState(st.MiniCardInserted()))
	fmt.Printf("  VERIFY (verify error):     %s\n", formatSignalState(st.VerifyError()))
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
