package iuu

import (
	"fmt"
	"strings"
)

// MaxATRLength is the ISO7816 upper bound for an Answer To Reset,
// initial character included.
const MaxATRLength = 88

// Initial characters (TS) as read by a UART without convention handling.
const (
	TSDirect  = 0x3B
	TSInverse = 0x3F
	// TSInverseRaw is the inverse convention TS as the virtual UART
	// delivers it.
	TSInverseRaw = 0x03
)

// inverseToDirect maps an inverse convention byte, as sampled by the
// UART, to its direct convention value.
var inverseToDirect = [256]byte{
	0xFF, 0x7F, 0xBF, 0x3F, 0xDF, 0x5F, 0x9F, 0x1F,
	0xEF, 0x6F, 0xAF, 0x2F, 0xCF, 0x4F, 0x8F, 0x0F,
	0xF7, 0x77, 0xB7, 0x37, 0xD7, 0x57, 0x97, 0x17,
	0xE7, 0x67, 0xA7, 0x27, 0xC7, 0x47, 0x87, 0x07,
	0xFB, 0x7B, 0xBB, 0x3B, 0xDB, 0x5B, 0x9B, 0x1B,
	0xEB, 0x6B, 0xAB, 0x2B, 0xCB, 0x4B, 0x8B, 0x0B,
	0xF3, 0x73, 0xB3, 0x33, 0xD3, 0x53, 0x93, 0x13,
	0xE3, 0x63, 0xA3, 0x23, 0xC3, 0x43, 0x83, 0x03,
	0xFD, 0x7D, 0xBD, 0x3D, 0xDD, 0x5D, 0x9D, 0x1D,
	0xED, 0x6D, 0xAD, 0x2D, 0xCD, 0x4D, 0x8D, 0x0D,
	0xF5, 0x75, 0xB5, 0x35, 0xD5, 0x55, 0x95, 0x15,
	0xE5, 0x65, 0xA5, 0x25, 0xC5, 0x45, 0x85, 0x05,
	0xF9, 0x79, 0xB9, 0x39, 0xD9, 0x59, 0x99, 0x19,
	0xE9, 0x69, 0xA9, 0x29, 0xC9, 0x49, 0x89, 0x09,
	0xF1, 0x71, 0xB1, 0x31, 0xD1, 0x51, 0x91, 0x11,
	0xE1, 0x61, 0xA1, 0x21, 0xC1, 0x41, 0x81, 0x01,
	0xFE, 0x7E, 0xBE, 0x3E, 0xDE, 0x5E, 0x9E, 0x1E,
	0xEE, 0x6E, 0xAE, 0x2E, 0xCE, 0x4E, 0x8E, 0x0E,
	0xF6, 0x76, 0xB6, 0x36, 0xD6, 0x56, 0x96, 0x16,
	0xE6, 0x66, 0xA6, 0x26, 0xC6, 0x46, 0x86, 0x06,
	0xFA, 0x7A, 0xBA, 0x3A, 0xDA, 0x5A, 0x9A, 0x1A,
	0xEA, 0x6A, 0xAA, 0x2A, 0xCA, 0x4A, 0x8A, 0x0A,
	0xF2, 0x72, 0xB2, 0x32, 0xD2, 0x52, 0x92, 0x12,
	0xE2, 0x62, 0xA2, 0x22, 0xC2, 0x42, 0x82, 0x02,
	0xFC, 0x7C, 0xBC, 0x3C, 0xDC, 0x5C, 0x9C, 0x1C,
	0xEC, 0x6C, 0xAC, 0x2C, 0xCC, 0x4C, 0x8C, 0x0C,
	0xF4, 0x74, 0xB4, 0x34, 0xD4, 0x54, 0x94, 0x14,
	0xE4, 0x64, 0xA4, 0x24, 0xC4, 0x44, 0x84, 0x04,
	0xF8, 0x78, 0xB8, 0x38, 0xD8, 0x58, 0x98, 0x18,
	0xE8, 0x68, 0xA8, 0x28, 0xC8, 0x48, 0x88, 0x08,
	0xF0, 0x70, 0xB0, 0x30, 0xD0, 0x50, 0x90, 0x10,
	0xE0, 0x60, 0xA0, 0x20, 0xC0, 0x40, 0x80, 0x00,
}

// InverseToDirect converts a single byte from inverse to direct
// convention.
func InverseToDirect(b byte) byte { return inverseToDirect[b] }

// DecodeATR normalizes atr to direct convention in place. A buffer whose
// first byte is the raw inverse marker has every byte translated; any
// other buffer is left untouched. Buffers longer than MaxATRLength are
// rejected without modification.
func DecodeATR(atr []byte) error {
	if len(atr) > MaxATRLength {
		return &ProtocolError{Op: OpUARTRX, Expected: MaxATRLength, Actual: len(atr), Err: ErrATRTooLong}
	}
	if len(atr) == 0 || atr[0] != TSInverseRaw {
		return nil
	}
	for i, b := range atr {
		atr[i] = inverseToDirect[b]
	}
	return nil
}

// ATR is the structure of a direct convention Answer To Reset.
type ATR struct {
	Raw []byte
	TS  byte
	T0  byte
	// Interface bytes per group, indexed TA=0, TB=1, TC=2, TD=3. A nil
	// entry was absent.
	Interface  [][4]*byte
	Historical []byte
	// TCK is present unless only T=0 is indicated.
	TCK       *byte
	Protocols []int
}

// ParseATR splits a direct convention ATR into its characters.
func ParseATR(raw []byte) (*ATR, error) {
	if len(raw) > MaxATRLength {
		return nil, &ProtocolError{Op: OpUARTRX, Expected: MaxATRLength, Actual: len(raw), Err: ErrATRTooLong}
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedATR, len(raw))
	}
	a := &ATR{Raw: raw, TS: raw[0], T0: raw[1]}
	if a.TS != TSDirect && a.TS != TSInverse {
		return nil, fmt.Errorf("%w: initial character 0x%02X", ErrMalformedATR, a.TS)
	}

	pos := 2
	y := a.T0 >> 4
	needTCK := false
	for {
		var group [4]*byte
		for i := range 4 {
			if y&(1<<i) == 0 {
				continue
			}
			if pos >= len(raw) {
				return nil, fmt.Errorf("%w: truncated interface bytes", ErrMalformedATR)
			}
			v := raw[pos]
			group[i] = &v
			pos++
		}
		a.Interface = append(a.Interface, group)
		if group[3] == nil {
			break
		}
		proto := int(*group[3] & 0x0F)
		a.Protocols = append(a.Protocols, proto)
		if proto != 0 {
			needTCK = true
		}
		y = *group[3] >> 4
	}
	if len(a.Protocols) == 0 {
		a.Protocols = []int{0}
	}

	k := int(a.T0 & 0x0F)
	if pos+k > len(raw) {
		return nil, fmt.Errorf("%w: truncated historical bytes", ErrMalformedATR)
	}
	a.Historical = raw[pos : pos+k]
	pos += k

	if needTCK {
		if pos >= len(raw) {
			return nil, fmt.Errorf("%w: missing TCK", ErrMalformedATR)
		}
		tck := raw[pos]
		a.TCK = &tck
		var x byte
		for _, b := range raw[1 : pos+1] {
			x ^= b
		}
		if x != 0 {
			return nil, fmt.Errorf("%w: TCK mismatch", ErrMalformedATR)
		}
		pos++
	}
	if pos != len(raw) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedATR, len(raw)-pos)
	}
	return a, nil
}

// Inverse reports whether the card announced inverse convention.
func (a *ATR) Inverse() bool { return a.TS == TSInverse }

// ExtraGuardTime returns TC1, the extra guard time in etus, or zero when
// the card does not specify one.
func (a *ATR) ExtraGuardTime() byte {
	if len(a.Interface) == 0 || a.Interface[0][2] == nil {
		return 0
	}
	return *a.Interface[0][2]
}

// Hex formats b as space separated upper-case hex pairs.
func Hex(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}
