package iuu

import "fmt"

// ClockSynthAddress is the 7-bit I2C address of the on-board clock
// synthesizer driving the card CLK contact.
const ClockSynthAddress = 0x69

const (
	clockRefHz = 12000000

	clockMinQ   = 2
	clockMaxQ   = 47
	clockMinP   = 8
	clockMaxP   = 2055
	clockMinDiv = 4
	clockMaxDiv = 127

	clockMinRefOverQ = 250000
	clockMinVCO      = 100000000
	clockMaxVCO      = 400000000

	clockPump = 0x04
)

// Synthesizer registers written while programming a frequency.
const (
	regClockEnable = 0x09
	regDivider     = 0x0C
	regXDRV        = 0x12
	regTuning13    = 0x13
	regPumpPB      = 0x40
	regPBLow       = 0x41
	regQPO         = 0x42
	regTuning44    = 0x44
	regTuning45    = 0x45
	regTuning46    = 0x46
	regTuning47    = 0x47
)

// ClockSolution is a register set for the clock synthesizer.
type ClockSolution struct {
	// Target is the requested frequency in Hz. Zero disables the
	// synthesizer output.
	Target int
	// Estimate is (12e6/Div)*(P/Q) in integer arithmetic, the value the
	// search minimizes against Target.
	Estimate int
	Div      int
	P        int
	Q        int
	XDRV     byte
	// Preset is set when the values come from the fixed table of common
	// smart card clocks rather than the search.
	Preset bool
}

type clockPreset struct {
	div, p, q int
	xdrv      byte
}

var clockPresets = map[int]clockPreset{
	3579000: {div: 100, p: 1193, q: 40, xdrv: 0x00},
	3680000: {div: 105, p: 161, q: 5, xdrv: 0x00},
	6000000: {div: 66, p: 66, q: 2, xdrv: 0x28},
}

// Synthesize finds register values approximating freq. Well-known card
// clocks use hand-tuned presets; anything else runs an exhaustive search
// over Q ascending, P descending and Div ascending, keeping the first
// candidate with the smallest error and stopping on an exact match.
func Synthesize(freq int) (ClockSolution, error) {
	if freq < 0 {
		return ClockSolution{}, invalidParam(OpUARTWriteI2C, "frequency", freq)
	}
	if freq == 0 {
		return ClockSolution{}, nil
	}
	if p, ok := clockPresets[freq]; ok {
		return ClockSolution{
			Target:   freq,
			Estimate: freq,
			Div:      p.div,
			P:        p.p,
			Q:        p.q,
			XDRV:     p.xdrv,
			Preset:   true,
		}, nil
	}

	sol := ClockSolution{Target: freq}
	target := int64(freq)
	best := int64(0)
	found := false

search:
	for q := clockMinQ; q <= clockMaxQ; q++ {
		refOverQ := int64(clockRefHz / q)
		for p := clockMaxP; p >= clockMinP; p-- {
			for div := clockMinDiv; div <= clockMaxDiv; div++ {
				est := int64(clockRefHz/div) * int64(p/q)
				if abs64(est-target) >= abs64(target-best) {
					continue
				}
				if !clockAcceptable(refOverQ, p) {
					continue
				}
				best = est
				found = true
				sol.Estimate, sol.P, sol.Div, sol.Q = int(est), p, div, q
				if est == target {
					break search
				}
			}
		}
	}

	if !found {
		return ClockSolution{}, invalidParam(OpUARTWriteI2C, "frequency", freq)
	}
	return sol, nil
}

// clockAcceptable applies the synthesizer's input and VCO limits.
func clockAcceptable(refOverQ int64, p int) bool {
	if refOverQ < clockMinRefOverQ {
		return false
	}
	vco := refOverQ * int64(p)
	return vco >= clockMinVCO && vco <= clockMaxVCO
}

// Disabled reports whether s turns the synthesizer output off.
func (s ClockSolution) Disabled() bool { return s.Target == 0 }

// Output is the frequency the synthesizer generates for s, in Hz.
func (s ClockSolution) Output() int64 {
	if s.Disabled() || s.Q == 0 || s.Div == 0 {
		return 0
	}
	return int64(clockRefHz) * int64(s.P) / (int64(s.Q) * int64(s.Div))
}

// PO is the P overflow bit.
func (s ClockSolution) PO() byte { return byte((s.P >> 10) & 0x01) }

// PB is the 10-bit charge pump counter derived from P.
func (s ClockSolution) PB() uint16 {
	return uint16((s.P-int(s.PO()))/2-4) & 0x3FF
}

// Commands returns the I2C writes programming s, in the order the
// synthesizer expects them.
func (s ClockSolution) Commands() []I2CWrite {
	w := func(reg, val byte) I2CWrite {
		return I2CWrite{Address: ClockSynthAddress, Register: reg, Value: val}
	}
	if s.Disabled() {
		return []I2CWrite{w(regClockEnable, 0x00)}
	}

	pb := s.PB()
	return []I2CWrite{
		w(regClockEnable, 0x20),
		w(regDivider, byte(s.Div)),
		w(regXDRV, s.XDRV),
		w(regTuning13, 0x6B),
		w(regPumpPB, 0xC0|(clockPump&0x07)<<2|byte(pb>>8)&0x03),
		w(regPBLow, byte(pb)),
		w(regQPO, byte(s.Q-2)|(s.PO()&0x01)<<7),
		w(regTuning44, 0xFF),
		w(regTuning45, 0xFE),
		w(regTuning46, 0x7F),
		w(regTuning47, 0x84),
	}
}

// Frame returns the concatenated I2C relay frames for s, sent as a
// single write.
func (s ClockSolution) Frame() ([]byte, error) {
	cmds := s.Commands()
	out := make([]byte, 0, 4*len(cmds))
	for _, c := range cmds {
		var err error
		if out, err = c.AppendFrame(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s ClockSolution) String() string {
	switch {
	case s.Disabled():
		return "clock disabled"
	case s.Preset:
		return fmt.Sprintf("%d Hz preset (div=%d p=%d q=%d xdrv=0x%02X)", s.Target, s.Div, s.P, s.Q, s.XDRV)
	default:
		return fmt.Sprintf("%d Hz ~ %d Hz (div=%d p=%d q=%d)", s.Target, s.Estimate, s.Div, s.P, s.Q)
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
