/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/components"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	atrHex    string
	atrSettle time.Duration
	atrOutput string
)

// atrCmd represents the atr command
var atrCmd = &cobra.Command{
	Use:   "atr",
	Short: "Reset the card and decode its Answer To Reset",
	Long: `Power the card with the configured supply and clock, pulse RST and
decode the Answer To Reset.

With --hex no device is opened; the given bytes are decoded as if they
had been received. Inverse convention answers (starting with 03) are
converted to direct convention first.

Examples:
  iuutool atr
  iuutool atr --output json
  iuutool atr --hex "3B 53 11 02 41 42 43"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := validOutput(atrOutput); err != nil {
			fatalf("Error: %v", err)
		}

		var raw []byte
		if atrHex != "" {
			b, err := components.ParseHex(atrHex)
			if err != nil {
				fatalf("Invalid hex data: %v", err)
			}
			if err := iuu.DecodeATR(b); err != nil {
				fatalf("Error: %v", err)
			}
			raw = b
		} else {
			var err error
			if raw, err = readLiveATR(); err != nil {
				fatalf("Error: %v", err)
			}
		}

		if len(raw) == 0 {
			fatalf("No answer to reset")
		}
		a, err := iuu.ParseATR(raw)
		if err != nil {
			fatalf("Error decoding ATR % X: %v", raw, err)
		}
		if err := writeATRReport(os.Stdout, atrOutput, a); err != nil {
			fatalf("Error: %v", err)
		}
	},
}

func readLiveATR() ([]byte, error) {
	line, err := cardLine(cfg.Card)
	if err != nil {
		return nil, err
	}

	s, info, err := openSession()
	if err != nil {
		return nil, fmt.Errorf("open programmer: %w", err)
	}
	defer s.Close()

	st, err := s.Status()
	if err != nil {
		return nil, err
	}
	if !st.CardPresent() {
		return nil, fmt.Errorf("no card in %s", info)
	}

	if _, err := powerCard(s, line); err != nil {
		return nil, err
	}
	if err := s.ResetCard(line.ResetWait); err != nil {
		return nil, fmt.Errorf("reset card: %w", err)
	}
	time.Sleep(atrSettle)

	atr, err := s.ReadATR()
	if err != nil {
		return nil, err
	}
	logger.Debug("atr", zap.Stringer("device", info), zap.Binary("atr", atr))
	return atr, nil
}

type atrCharacter struct {
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value" yaml:"value"`
	Meaning string `json:"meaning,omitempty" yaml:"meaning,omitempty"`
}

type atrReport struct {
	Raw            string         `json:"raw" yaml:"raw"`
	Convention     string         `json:"convention" yaml:"convention"`
	Protocols      []int          `json:"protocols" yaml:"protocols"`
	ExtraGuardTime int            `json:"extraGuardTime" yaml:"extraGuardTime"`
	Historical     string         `json:"historical,omitempty" yaml:"historical,omitempty"`
	Characters     []atrCharacter `json:"characters" yaml:"characters"`
}

func newATRReport(a *iuu.ATR) atrReport {
	r := atrReport{
		Raw:            iuu.Hex(a.Raw),
		Convention:     "direct",
		Protocols:      a.Protocols,
		ExtraGuardTime: int(a.ExtraGuardTime()),
		Historical:     iuu.Hex(a.Historical),
	}
	if a.Inverse() {
		r.Convention = "inverse"
	}
	for _, row := range components.ATRRows(a) {
		r.Characters = append(r.Characters, atrCharacter{Name: row[0], Value: row[1], Meaning: row[2]})
	}
	return r
}

func writeATRReport(w io.Writer, format string, a *iuu.ATR) error {
	if strings.ToLower(format) != outputText {
		return writeStructured(w, format, newATRReport(a))
	}
	fmt.Fprintf(w, "ATR: %s\n\n", iuu.Hex(a.Raw))
	fmt.Fprintln(w, components.NewATRTable(a).View())
	return nil
}

func init() {
	rootCmd.AddCommand(atrCmd)

	atrCmd.Flags().StringVarP(&atrHex, "hex", "x", "", "Decode these bytes instead of resetting a card")
	atrCmd.Flags().DurationVar(&atrSettle, "settle", 100*time.Millisecond, "Time to let the answer arrive after RST is released")
	atrCmd.Flags().StringVarP(&atrOutput, "output", "o", outputText, "Output format: text, yaml, json")
}
