/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var ledBlink uint8

// ledCmd represents the led command
var ledCmd = &cobra.Command{
	Use:   "led <color>",
	Short: "Set the status LED color",
	Long: `Set the status LED color and blink rate.

The color is either a name or three comma separated intensities
(0-65535) for red, green and blue.

Examples:
  iuutool led green
  iuutool led red --blink 4
  iuutool led 0,8000,65535
  iuutool led off

Named colors: off, red, green, blue, yellow, cyan, magenta, white`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, g, b, err := parseLEDColor(args[0])
		if err != nil {
			fatalf("Error: %v", err)
		}

		s, info, err := openSession()
		if err != nil {
			fatalf("Error opening programmer: %v", err)
		}
		defer s.Close()

		if err := s.SetLED(r, g, b, ledBlink); err != nil {
			fatalf("Error setting LED: %v", err)
		}
		fmt.Printf("LED set to %04X,%04X,%04X (blink %d) on %s\n", r, g, b, ledBlink, info)
	},
}

var ledColors = map[string][3]uint16{
	"off":     {0, 0, 0},
	"red":     {0xFFFF, 0, 0},
	"green":   {0, 0xFFFF, 0},
	"blue":    {0, 0, 0xFFFF},
	"yellow":  {0xFFFF, 0xFFFF, 0},
	"cyan":    {0, 0xFFFF, 0xFFFF},
	"magenta": {0xFFFF, 0, 0xFFFF},
	"white":   {0xFFFF, 0xFFFF, 0xFFFF},
}

func parseLEDColor(s string) (r, g, b uint16, err error) {
	if c, ok := ledColors[strings.ToLower(s)]; ok {
		return c[0], c[1], c[2], nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid color %q (use a name or r,g,b)", s)
	}
	var rgb [3]uint16
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 0, 16)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid color component %q: %w", p, err)
		}
		rgb[i] = uint16(v)
	}
	return rgb[0], rgb[1], rgb[2], nil
}

func init() {
	rootCmd.AddCommand(ledCmd)

	ledCmd.Flags().Uint8VarP(&ledBlink, "blink", "b", 0, "Blink frequency (0 = steady)")
}
