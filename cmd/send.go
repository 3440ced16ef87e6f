/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/components"
	"github.com/allbin/go-iuu/internal/tui/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [apdu]",
	Short: "Send an APDU to the card",
	Long: `Send a command APDU to the card and print its reply.

The card is powered and clocked from the card section of the config and,
unless --no-reset is given, reset first. The APDU can be provided as:
- Command line argument: iuutool send "00 A4 04 00 07 A0 00 00 00 03 10 10"
- From stdin (pipe): echo "00B0000010" | iuutool send
- Interactive mode: iuutool send (prompts for input)

Features include:
- Hex input with optional spaces, colons and 0x prefixes
- Text input (--ascii flag)
- Inter-byte pacing for slow cards (--pacing, --pacing-value)
- Status word decoding of the reply

Example usage:
  iuutool send 00A4040007A0000000031010
  iuutool send "00 B0 00 00 10" --pacing ms --pacing-value 1
  iuutool send --no-reset "80 CA 9F 7F 00"`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		if len(args) == 1 {
			data = args[0]
		} else {
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fatalf("Error reading from stdin: %v", err)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		}

		asciiMode, _ := cmd.Flags().GetBool("ascii")
		noReset, _ := cmd.Flags().GetBool("no-reset")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		settle, _ := cmd.Flags().GetDuration("settle")

		card := cfg.Card
		if cmd.Flags().Changed("pacing") {
			card.Pacing, _ = cmd.Flags().GetString("pacing")
		}
		if cmd.Flags().Changed("pacing-value") {
			card.PacingValue, _ = cmd.Flags().GetInt("pacing-value")
		}
		line, err := cardLine(card)
		if err != nil {
			fatalf("Error: %v", err)
		}

		var apdu []byte
		if asciiMode {
			apdu = []byte(data)
		} else if apdu, err = components.ParseHex(data); err != nil {
			fatalf("Invalid hex data: %v", err)
		}

		xcfg := models.DefaultExchangeConfig()
		xcfg.Pacing = line.Pacing
		xcfg.Timeout = timeout
		xcfg.Settle = settle

		if err := sendAPDU(apdu, line, !noReset, xcfg); err != nil {
			fatalf("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("ascii", "a", false, "Send the argument as text instead of hex")
	sendCmd.Flags().Bool("no-reset", false, "Do not power up and reset the card first")
	sendCmd.Flags().String("pacing", "none", "Inter-byte pacing: none, nop, ms, us")
	sendCmd.Flags().Int("pacing-value", 0, "Pacing amount (NOP count, ms, or 10us units)")
	sendCmd.Flags().DurationP("timeout", "t", 2*time.Second, "Time to wait for the reply")
	sendCmd.Flags().Duration("settle", 50*time.Millisecond, "Quiet time that ends the reply")
}

func promptForData() string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter APDU (hex): "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendAPDU(apdu []byte, line components.LineInfo, reset bool, xcfg models.ExchangeConfig) error {
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	s, info, err := openSession()
	if err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}
	defer s.Close()

	fmt.Printf("%s Connected to %s\n", successStyle.Render("✓"), info)

	if reset {
		if _, err := powerCard(s, line); err != nil {
			return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
		}
		fmt.Printf("%s Card powered: %s\n", infoStyle.Render("⚡"), line)

		if err := s.ResetCard(line.ResetWait); err != nil {
			return fmt.Errorf("%s reset failed: %v", errorStyle.Render("✗"), err)
		}
		time.Sleep(xcfg.Settle)
		atr, err := s.ReadATR()
		if err != nil {
			return fmt.Errorf("%s reading ATR: %v", errorStyle.Render("✗"), err)
		}
		if len(atr) == 0 {
			return fmt.Errorf("%s no answer to reset", errorStyle.Render("✗"))
		}
		fmt.Printf("%s ATR: %s\n", infoStyle.Render("⚑"), iuu.Hex(atr))
	}

	fmt.Printf("%s Sending %d bytes: %s\n", infoStyle.Render("📤"), len(apdu), iuu.Hex(apdu))
	resp, err := models.Exchange(s, apdu, xcfg)
	if err != nil {
		return fmt.Errorf("%s exchange failed: %v", errorStyle.Render("✗"), err)
	}
	if len(resp) == 0 {
		return fmt.Errorf("%s no reply within %s", errorStyle.Render("✗"), xcfg.Timeout)
	}

	fmt.Printf("%s Reply: %s\n", successStyle.Render("✓"), iuu.Hex(resp))
	if len(resp) >= 2 {
		fmt.Printf("%s SW: %s\n", infoStyle.Render("📋"), components.StatusWord(resp))
	}
	return nil
}
