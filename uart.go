package iuu

import "fmt"

// BaudRate is the two-byte value the virtual UART is programmed with.
// The high byte selects the timer 1 clock source (0..3) and the low byte
// is the timer reload value, so the constants below are not arbitrary.
type BaudRate uint16

const (
	Baud2400   BaudRate = 0x0398
	Baud9600   BaudRate = 0x0298
	Baud19200  BaudRate = 0x0164
	Baud28800  BaudRate = 0x0198
	Baud38400  BaudRate = 0x01B2
	Baud57600  BaudRate = 0x0030
	Baud115200 BaudRate = 0x0098
)

// Timer 1 clock sources, indexed by the source selector.
var timerSourceHz = [...]uint32{24000000, 6000000, 2000000, 500000}

// Source returns the timer clock source selector.
func (b BaudRate) Source() byte { return byte(b >> 8) }

// Reload returns the timer reload value.
func (b BaudRate) Reload() byte { return byte(b) }

// Valid reports whether the source selector names an existing timer clock.
func (b BaudRate) Valid() bool { return int(b.Source()) < len(timerSourceHz) }

// Actual returns the bit rate the device produces for b, truncated toward
// zero the same way the firmware SDK reports it.
func (b BaudRate) Actual() uint32 {
	if !b.Valid() {
		return 0
	}
	src := float32(timerSourceHz[b.Source()])
	return uint32((src / (float32(256) - float32(b.Reload()))) / float32(2.0))
}

func (b BaudRate) String() string {
	switch b {
	case Baud2400:
		return "2400"
	case Baud9600:
		return "9600"
	case Baud19200:
		return "19200"
	case Baud28800:
		return "28800"
	case Baud38400:
		return "38400"
	case Baud57600:
		return "57600"
	case Baud115200:
		return "115200"
	default:
		return fmt.Sprintf("custom(0x%04X)", uint16(b))
	}
}

// BaudRateFor maps a standard bit rate to its encoded value.
func BaudRateFor(rate int) (BaudRate, error) {
	switch rate {
	case 2400:
		return Baud2400, nil
	case 9600:
		return Baud9600, nil
	case 19200:
		return Baud19200, nil
	case 28800:
		return Baud28800, nil
	case 38400:
		return Baud38400, nil
	case 57600:
		return Baud57600, nil
	case 115200:
		return Baud115200, nil
	default:
		return 0, invalidParam(OpUARTEscape, "baud rate", rate)
	}
}

// Custom baud limits accepted by CustomBaud.
const (
	MinCustomBaud = 1200
	MaxCustomBaud = 230400
)

// CustomBaud computes the timer source and reload for an arbitrary bit rate
// and returns the rate the device will actually run at. The reload is
// computed in float32 and truncated toward zero.
func CustomBaud(baud uint32) (BaudRate, uint32, error) {
	if baud < MinCustomBaud || baud > MaxCustomBaud {
		return 0, 0, invalidParam(OpUARTEscape, "baud rate", baud)
	}

	var source byte
	switch {
	case baud > 46875:
		source = 0
	case baud > 11718:
		source = 1
	case baud > 3906:
		source = 2
	default:
		source = 3
	}

	hz := float32(timerSourceHz[source])
	reload := byte(256 - int(byte(hz/(float32(2.0)*float32(baud)))))

	b := BaudRate(uint16(source)<<8 | uint16(reload))
	return b, b.Actual(), nil
}

// Parity is the UART parity code. It occupies the low three bits of the
// line-control byte.
type Parity byte

const (
	ParityNone  Parity = 0x00
	ParityEven  Parity = 0x01
	ParityOdd   Parity = 0x02
	ParityMark  Parity = 0x03
	ParitySpace Parity = 0x04
)

func (p Parity) Valid() bool { return p <= ParitySpace }

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	default:
		return fmt.Sprintf("Parity(%d)", byte(p))
	}
}

// StopBits is the UART stop-bit code. It occupies the high nibble of the
// line-control byte.
type StopBits byte

const (
	TwoStopBits StopBits = 0x00
	OneStopBit  StopBits = 0x20
)

func (s StopBits) Valid() bool { return s == TwoStopBits || s == OneStopBit }

func (s StopBits) String() string {
	switch s {
	case TwoStopBits:
		return "2"
	case OneStopBit:
		return "1"
	default:
		return fmt.Sprintf("StopBits(0x%02X)", byte(s))
	}
}

// LineControl packs parity and stop bits the way the firmware expects.
func LineControl(p Parity, s StopBits) byte {
	return byte(s)&0xF0 | byte(p)&0x07
}

// splitLineControl is the inverse of LineControl.
func splitLineControl(b byte) (Parity, StopBits) {
	return Parity(b & 0x0F), StopBits(b & 0xF0)
}
