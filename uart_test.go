package iuu

import (
	"errors"
	"testing"
)

func TestCustomBaud(t *testing.T) {
	tests := []struct {
		baud   uint32
		want   BaudRate
		actual uint32
	}{
		{2400, Baud2400, 2403},
		{9600, Baud9600, 9615},
		{19200, Baud19200, 19230},
		{28800, Baud28800, 28846},
		{38400, Baud38400, 38461},
		{57600, Baud57600, 57692},
		{115200, Baud115200, 115384},
		{1200, 0x0330, 1201},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got, actual, err := CustomBaud(tt.baud)
			if err != nil {
				t.Fatalf("CustomBaud(%d) error = %v", tt.baud, err)
			}
			if got != tt.want {
				t.Errorf("CustomBaud(%d) = 0x%04X, want 0x%04X", tt.baud, uint16(got), uint16(tt.want))
			}
			if actual != tt.actual {
				t.Errorf("CustomBaud(%d) actual = %d, want %d", tt.baud, actual, tt.actual)
			}
		})
	}
}

func TestCustomBaudSourceThresholds(t *testing.T) {
	tests := []struct {
		baud   uint32
		source byte
	}{
		{3906, 3},
		{3907, 2},
		{11718, 2},
		{11719, 1},
		{46875, 1},
		{46876, 0},
		{230400, 0},
	}

	for _, tt := range tests {
		got, _, err := CustomBaud(tt.baud)
		if err != nil {
			t.Fatalf("CustomBaud(%d) error = %v", tt.baud, err)
		}
		if got.Source() != tt.source {
			t.Errorf("CustomBaud(%d) source = %d, want %d", tt.baud, got.Source(), tt.source)
		}
	}
}

func TestCustomBaudOutOfRange(t *testing.T) {
	for _, baud := range []uint32{0, 1199, 230401} {
		if _, _, err := CustomBaud(baud); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("CustomBaud(%d) error = %v, want ErrInvalidParameter", baud, err)
		}
	}
}

func TestBaudRateFor(t *testing.T) {
	for _, rate := range []int{2400, 9600, 19200, 28800, 38400, 57600, 115200} {
		b, err := BaudRateFor(rate)
		if err != nil {
			t.Fatalf("BaudRateFor(%d) error = %v", rate, err)
		}
		if b.String() == "" || !b.Valid() {
			t.Errorf("BaudRateFor(%d) = %v", rate, b)
		}
	}
	if _, err := BaudRateFor(4800); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("BaudRateFor(4800) error = %v", err)
	}
}

func TestLineControl(t *testing.T) {
	tests := []struct {
		p    Parity
		s    StopBits
		want byte
	}{
		{ParityNone, TwoStopBits, 0x00},
		{ParityEven, OneStopBit, 0x21},
		{ParitySpace, OneStopBit, 0x24},
		{ParityOdd, TwoStopBits, 0x02},
	}

	for _, tt := range tests {
		got := LineControl(tt.p, tt.s)
		if got != tt.want {
			t.Errorf("LineControl(%v, %v) = 0x%02X, want 0x%02X", tt.p, tt.s, got, tt.want)
		}
		p, s := splitLineControl(got)
		if p != tt.p || s != tt.s {
			t.Errorf("splitLineControl(0x%02X) = %v, %v", got, p, s)
		}
	}
}
