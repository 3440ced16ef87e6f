package iuu

import "fmt"

// PacingMode selects how extra guard time is produced between bytes sent
// through the virtual UART.
type PacingMode int

const (
	// PaceNone sends the data in as few transmit frames as possible.
	PaceNone PacingMode = iota
	// PaceNOPs follows every byte with Value no-operation bytes.
	PaceNOPs
	// PaceMillis follows every byte with a wait of Value milliseconds.
	PaceMillis
	// PaceMicros follows every byte with a wait of Value*10 microseconds.
	PaceMicros
)

func (m PacingMode) String() string {
	switch m {
	case PaceNone:
		return "none"
	case PaceNOPs:
		return "nop"
	case PaceMillis:
		return "ms"
	case PaceMicros:
		return "us"
	default:
		return fmt.Sprintf("PacingMode(%d)", int(m))
	}
}

// ParsePacingMode is the inverse of PacingMode.String.
func ParsePacingMode(s string) (PacingMode, error) {
	switch s {
	case "", "none":
		return PaceNone, nil
	case "nop":
		return PaceNOPs, nil
	case "ms":
		return PaceMillis, nil
	case "us":
		return PaceMicros, nil
	default:
		return 0, invalidParam(OpUARTEscape, "pacing mode", s)
	}
}

// Pacing is an inter-byte timing strategy.
type Pacing struct {
	Mode  PacingMode
	Value byte
}

// Expand turns data into the command stream that transmits it with the
// requested pacing. The result is meant to be sent as one write.
func (p Pacing) Expand(data []byte) ([]byte, error) {
	switch p.Mode {
	case PaceNone:
		return expandPlain(data), nil
	case PaceNOPs:
		return PadWithNOPs(data, int(p.Value)), nil
	case PaceMillis:
		return PadWithMillis(data, p.Value), nil
	case PaceMicros:
		return PadWithMicros(data, p.Value), nil
	default:
		return nil, invalidParam(OpUARTEscape, "pacing mode", int(p.Mode))
	}
}

// ExpandedLen returns len(Expand(data)) without building it.
func (p Pacing) ExpandedLen(n int) int {
	switch p.Mode {
	case PaceNOPs:
		return n * (4 + int(p.Value))
	case PaceMillis, PaceMicros:
		return n * 6
	default:
		frames := (n + MaxTransmit - 1) / MaxTransmit
		return n + 3*frames
	}
}

func expandPlain(data []byte) []byte {
	out := make([]byte, 0, Pacing{}.ExpandedLen(len(data)))
	for len(data) > 0 {
		n := min(len(data), MaxTransmit)
		out = append(out, byte(OpUARTEscape), EscTransmit, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return out
}

// PadWithNOPs sends each byte in its own transmit frame followed by nops
// no-operation bytes.
func PadWithNOPs(data []byte, nops int) []byte {
	if nops < 0 {
		nops = 0
	}
	out := make([]byte, 0, len(data)*(4+nops))
	for _, b := range data {
		out = append(out, byte(OpUARTEscape), EscTransmit, 0x01, b)
		for range nops {
			out = append(out, byte(OpNoOperation))
		}
	}
	return out
}

// PadWithMillis sends each byte in its own transmit frame followed by a
// wait of ms milliseconds.
func PadWithMillis(data []byte, ms byte) []byte {
	return padWithWait(data, OpWaitMillis, ms)
}

// PadWithMicros sends each byte in its own transmit frame followed by a
// wait of count*10 microseconds.
func PadWithMicros(data []byte, count byte) []byte {
	return padWithWait(data, OpWaitMicros, count)
}

func padWithWait(data []byte, op Opcode, count byte) []byte {
	out := make([]byte, 0, len(data)*6)
	for _, b := range data {
		out = append(out, byte(OpUARTEscape), EscTransmit, 0x01, b, byte(op), count)
	}
	return out
}
