/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/allbin/go-iuu"
	"github.com/spf13/cobra"
)

var (
	clockDryRun bool
	clockOutput string
)

// clockCmd represents the clock command
var clockCmd = &cobra.Command{
	Use:   "clock [frequency]",
	Short: "Program the card clock",
	Long: `Program the clock synthesizer driving the card CLK contact.

The frequency is given in Hz and may use a k or M suffix. The common
smart card clocks 3.579 MHz, 3.68 MHz and 6 MHz use fixed register sets;
other frequencies are searched for the closest reachable output. Zero
turns the clock off. Without an argument the configured card.clock is
used.

Examples:
  iuutool clock 3.579M
  iuutool clock 4000000 --dry-run
  iuutool clock 4.9152M --dry-run --output yaml
  iuutool clock 0`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validOutput(clockOutput); err != nil {
			fatalf("Error: %v", err)
		}

		freq := cfg.Card.Clock
		if len(args) == 1 {
			var err error
			if freq, err = parseFrequency(args[0]); err != nil {
				fatalf("Error: %v", err)
			}
		}

		sol, err := iuu.Synthesize(freq)
		if err != nil {
			fatalf("Error: %v", err)
		}

		if !clockDryRun {
			s, info, err := openSession()
			if err != nil {
				fatalf("Error opening programmer: %v", err)
			}
			defer s.Close()

			if sol, err = s.SetClock(freq); err != nil {
				fatalf("Error setting clock: %v", err)
			}
			fmt.Fprintf(os.Stderr, "Clock programmed on %s\n", info)
		}

		report, err := newClockReport(sol)
		if err != nil {
			fatalf("Error: %v", err)
		}
		if err := writeClockReport(os.Stdout, clockOutput, report); err != nil {
			fatalf("Error: %v", err)
		}
	},
}

// parseFrequency accepts plain Hz or a k/M suffixed value.
func parseFrequency(s string) (int, error) {
	mult := 1.0
	v := strings.TrimSuffix(strings.TrimSpace(s), "Hz")
	switch {
	case strings.HasSuffix(v, "M"):
		mult, v = 1e6, strings.TrimSuffix(v, "M")
	case strings.HasSuffix(v, "k"), strings.HasSuffix(v, "K"):
		mult, v = 1e3, v[:len(v)-1]
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	hz := f * mult
	if hz < 0 {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	return int(hz + 0.5), nil
}

type registerWrite struct {
	Register string `json:"register" yaml:"register"`
	Value    string `json:"value" yaml:"value"`
}

type clockReport struct {
	Target    int             `json:"target" yaml:"target"`
	Disabled  bool            `json:"disabled" yaml:"disabled"`
	Preset    bool            `json:"preset" yaml:"preset"`
	Estimate  int             `json:"estimate,omitempty" yaml:"estimate,omitempty"`
	Output    int64           `json:"output" yaml:"output"`
	Div       int             `json:"div,omitempty" yaml:"div,omitempty"`
	P         int             `json:"p,omitempty" yaml:"p,omitempty"`
	Q         int             `json:"q,omitempty" yaml:"q,omitempty"`
	XDRV      string          `json:"xdrv,omitempty" yaml:"xdrv,omitempty"`
	Registers []registerWrite `json:"registers" yaml:"registers"`
	Frame     string          `json:"frame" yaml:"frame"`
}

func newClockReport(sol iuu.ClockSolution) (clockReport, error) {
	frame, err := sol.Frame()
	if err != nil {
		return clockReport{}, err
	}
	r := clockReport{
		Target:   sol.Target,
		Disabled: sol.Disabled(),
		Preset:   sol.Preset,
		Output:   sol.Output(),
		Frame:    iuu.Hex(frame),
	}
	if !sol.Disabled() {
		r.Estimate = sol.Estimate
		r.Div, r.P, r.Q = sol.Div, sol.P, sol.Q
		r.XDRV = fmt.Sprintf("0x%02X", sol.XDRV)
	}
	for _, c := range sol.Commands() {
		r.Registers = append(r.Registers, registerWrite{
			Register: fmt.Sprintf("0x%02X", c.Register),
			Value:    fmt.Sprintf("0x%02X", c.Value),
		})
	}
	return r, nil
}

func writeClockReport(w io.Writer, format string, r clockReport) error {
	if strings.ToLower(format) != outputText {
		return writeStructured(w, format, r)
	}

	if r.Disabled {
		fmt.Fprintln(w, "Clock: off")
	} else {
		kind := "search"
		if r.Preset {
			kind = "preset"
		}
		fmt.Fprintf(w, "Clock: %d Hz requested, %d Hz output (%s)\n", r.Target, r.Output, kind)
		fmt.Fprintf(w, "  div=%d p=%d q=%d xdrv=%s\n", r.Div, r.P, r.Q, r.XDRV)
	}
	fmt.Fprintln(w, "Registers:")
	for _, reg := range r.Registers {
		fmt.Fprintf(w, "  %s <- %s\n", reg.Register, reg.Value)
	}
	fmt.Fprintf(w, "Frame: %s\n", r.Frame)
	return nil
}

func init() {
	rootCmd.AddCommand(clockCmd)

	clockCmd.Flags().BoolVarP(&clockDryRun, "dry-run", "n", false, "Compute the registers without touching a device")
	clockCmd.Flags().StringVarP(&clockOutput, "output", "o", outputText, "Output format: text, yaml, json")
}
