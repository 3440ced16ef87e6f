package iuu

import (
	"bytes"
	"errors"
	"strconv"
	"testing"
)

func TestSynthesizePresets(t *testing.T) {
	tests := []struct {
		freq         int
		div, p, q    int
		xdrv         byte
		pumpPB, pbLo byte
		qpo          byte
	}{
		{3579000, 100, 1193, 40, 0x00, 0xD2, 0x50, 0xA6},
		{3680000, 105, 161, 5, 0x00, 0xD0, 0x4C, 0x03},
		{6000000, 66, 66, 2, 0x28, 0xD0, 0x1D, 0x00},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.freq), func(t *testing.T) {
			sol, err := Synthesize(tt.freq)
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if !sol.Preset {
				t.Error("expected preset solution")
			}
			if sol.Div != tt.div || sol.P != tt.p || sol.Q != tt.q || sol.XDRV != tt.xdrv {
				t.Errorf("Synthesize() = div %d p %d q %d xdrv 0x%02X, want %d %d %d 0x%02X",
					sol.Div, sol.P, sol.Q, sol.XDRV, tt.div, tt.p, tt.q, tt.xdrv)
			}
			if sol.Output() != int64(tt.freq) {
				t.Errorf("Output() = %d, want %d", sol.Output(), tt.freq)
			}

			frame, err := sol.Frame()
			if err != nil {
				t.Fatalf("Frame() error = %v", err)
			}
			want := []byte{
				0x4C, 0xD2, 0x09, 0x20,
				0x4C, 0xD2, 0x0C, byte(tt.div),
				0x4C, 0xD2, 0x12, tt.xdrv,
				0x4C, 0xD2, 0x13, 0x6B,
				0x4C, 0xD2, 0x40, tt.pumpPB,
				0x4C, 0xD2, 0x41, tt.pbLo,
				0x4C, 0xD2, 0x42, tt.qpo,
				0x4C, 0xD2, 0x44, 0xFF,
				0x4C, 0xD2, 0x45, 0xFE,
				0x4C, 0xD2, 0x46, 0x7F,
				0x4C, 0xD2, 0x47, 0x84,
			}
			if !bytes.Equal(frame, want) {
				t.Errorf("Frame() =\n% X\nwant\n% X", frame, want)
			}
		})
	}
}

func TestSynthesizeDisable(t *testing.T) {
	sol, err := Synthesize(0)
	if err != nil {
		t.Fatalf("Synthesize(0) error = %v", err)
	}
	if !sol.Disabled() {
		t.Error("Synthesize(0) should disable the clock")
	}
	frame, err := sol.Frame()
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if want := []byte{0x4C, 0xD2, 0x09, 0x00}; !bytes.Equal(frame, want) {
		t.Errorf("Frame() = % X, want % X", frame, want)
	}
}

func TestSynthesizeInvalid(t *testing.T) {
	for _, freq := range []int{-1, -3579000, 50000, 300000} {
		if _, err := Synthesize(freq); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("Synthesize(%d) error = %v, want ErrInvalidParameter", freq, err)
		}
	}
}

func TestSynthesizeSearch(t *testing.T) {
	tests := []struct {
		freq      int
		div, p, q int
		estimate  int
	}{
		{4000000, 96, 65, 2, 4000000},
		{1000000, 120, 21, 2, 1000000},
		{4915200, 61, 51, 2, 4918025},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.freq), func(t *testing.T) {
			sol, err := Synthesize(tt.freq)
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if sol.Preset {
				t.Error("search result flagged as preset")
			}
			if sol.Div != tt.div || sol.P != tt.p || sol.Q != tt.q || sol.Estimate != tt.estimate {
				t.Errorf("Synthesize() = %+v, want div %d p %d q %d estimate %d", sol, tt.div, tt.p, tt.q, tt.estimate)
			}
			if sol.XDRV != 0 {
				t.Errorf("XDRV = 0x%02X, want 0", sol.XDRV)
			}
		})
	}
}

func TestSynthesizeRegisterDerivation(t *testing.T) {
	// P of 1100 sets the overflow bit and is even, so PB depends on PO
	// being subtracted first.
	sol := ClockSolution{Target: 1, Div: 10, P: 1100, Q: 12}
	if sol.PO() != 1 {
		t.Fatalf("PO() = %d, want 1", sol.PO())
	}
	if got, want := sol.PB(), uint16((1100-1)/2-4); got != want {
		t.Errorf("PB() = %d, want %d", got, want)
	}

	cmds := sol.Commands()
	if len(cmds) != 11 {
		t.Fatalf("Commands() returned %d writes, want 11", len(cmds))
	}
	if got := cmds[4].Value; got != 0xC0|0x10|byte(sol.PB()>>8) {
		t.Errorf("pump register = 0x%02X", got)
	}
	if got := cmds[6].Value; got != 0x80|10 {
		t.Errorf("Q register = 0x%02X, want 0x%02X", got, 0x80|10)
	}
}

// referenceSearch evaluates the whole search space without early exit and
// returns the first candidate, in iteration order, at the minimum error.
func referenceSearch(freq int) (div, p, q int, dist int64) {
	dist = -1
	for lq := 2; lq <= 47; lq++ {
		for lp := 2055; lp >= 8; lp-- {
			for ld := 4; ld <= 127; ld++ {
				ref := int64(12000000 / lq)
				vco := ref * int64(lp)
				if ref < 250000 || vco < 100000000 || vco > 400000000 {
					continue
				}
				est := int64(12000000/ld) * int64(lp/lq)
				d := abs64(est - int64(freq))
				if d >= int64(freq) {
					continue
				}
				if dist < 0 || d < dist {
					div, p, q, dist = ld, lp, lq, d
				}
			}
		}
	}
	return div, p, q, dist
}

func TestSynthesizeMatchesExhaustiveSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive search is slow")
	}

	for _, freq := range []int{760000, 2000000, 4000000, 4915200, 7372800, 12345678, 20000000} {
		sol, err := Synthesize(freq)
		if err != nil {
			t.Fatalf("Synthesize(%d) error = %v", freq, err)
		}

		ref := int64(12000000 / sol.Q)
		vco := ref * int64(sol.P)
		if ref < 250000 || vco < 100000000 || vco > 400000000 || sol.Div < 4 || sol.Div > 127 {
			t.Errorf("Synthesize(%d) = %+v violates synthesizer limits", freq, sol)
		}

		div, p, q, dist := referenceSearch(freq)
		if got := abs64(int64(sol.Estimate) - int64(freq)); got != dist {
			t.Errorf("Synthesize(%d) error %d, best reachable %d", freq, got, dist)
		}
		if sol.Div != div || sol.P != p || sol.Q != q {
			t.Errorf("Synthesize(%d) = (%d,%d,%d), first best is (%d,%d,%d)", freq, sol.Div, sol.P, sol.Q, div, p, q)
		}
	}
}
