package iuu

import (
	"bytes"
	"errors"
	"testing"
)

func TestPadWithNOPs(t *testing.T) {
	data := []byte{0xA0, 0xA4, 0x00}
	got := PadWithNOPs(data, 2)

	if len(got) != 3*(4+2) {
		t.Fatalf("len = %d, want %d", len(got), 3*(4+2))
	}
	for i, b := range data {
		group := got[i*6 : i*6+6]
		want := []byte{0x5E, 0x04, 0x01, b, 0x00, 0x00}
		if !bytes.Equal(group, want) {
			t.Errorf("group %d = % X, want % X", i, group, want)
		}
	}
}

func TestPadWithWaits(t *testing.T) {
	tests := []struct {
		name string
		pad  func([]byte, byte) []byte
		op   byte
	}{
		{"millis", PadWithMillis, 0x06},
		{"micros", PadWithMicros, 0x05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pad([]byte{0x11, 0x22}, 7)
			want := []byte{
				0x5E, 0x04, 0x01, 0x11, tt.op, 0x07,
				0x5E, 0x04, 0x01, 0x22, tt.op, 0x07,
			}
			if !bytes.Equal(got, want) {
				t.Errorf("got % X, want % X", got, want)
			}
		})
	}
}

func TestPacingExpand(t *testing.T) {
	data := bytes.Repeat([]byte{0x3C}, 300)
	tests := []struct {
		name   string
		pacing Pacing
		frames int
	}{
		{"none", Pacing{Mode: PaceNone}, 2},
		{"nops", Pacing{Mode: PaceNOPs, Value: 3}, 300 + 300*3},
		{"zero nops", Pacing{Mode: PaceNOPs}, 300},
		{"millis", Pacing{Mode: PaceMillis, Value: 1}, 600},
		{"micros", Pacing{Mode: PaceMicros, Value: 9}, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pacing.Expand(data)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if len(got) != tt.pacing.ExpandedLen(len(data)) {
				t.Errorf("len = %d, ExpandedLen = %d", len(got), tt.pacing.ExpandedLen(len(data)))
			}

			cmds, err := DecodeFrames(got)
			if err != nil {
				t.Fatalf("DecodeFrames() error = %v", err)
			}
			if len(cmds) != tt.frames {
				t.Errorf("decoded %d commands, want %d", len(cmds), tt.frames)
			}

			var sent []byte
			for _, c := range cmds {
				if tx, ok := c.(UARTTransmit); ok {
					sent = append(sent, tx.Data...)
				}
			}
			if !bytes.Equal(sent, data) {
				t.Error("transmitted payload differs from input")
			}
		})
	}

	if _, err := (Pacing{Mode: 9}).Expand(data); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("unknown mode error = %v, want ErrInvalidParameter", err)
	}
}

func TestParsePacingMode(t *testing.T) {
	for _, m := range []PacingMode{PaceNone, PaceNOPs, PaceMillis, PaceMicros} {
		got, err := ParsePacingMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParsePacingMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParsePacingMode("fast"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ParsePacingMode(fast) error = %v", err)
	}
}
