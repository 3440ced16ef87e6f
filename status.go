package iuu

import (
	"bytes"
	"strings"
)

// Status is the device state register.
type Status byte

const (
	StatusFullCard    Status = 0x01 // card in the full size slot
	StatusVerifyError Status = 0x02
	StatusMiniCard    Status = 0x04 // card in the mini (SIM) slot
)

func (s Status) FullCardInserted() bool { return s&StatusFullCard != 0 }
func (s Status) VerifyError() bool      { return s&StatusVerifyError != 0 }
func (s Status) MiniCardInserted() bool { return s&StatusMiniCard != 0 }

// CardPresent reports whether either slot holds a card.
func (s Status) CardPresent() bool { return s.FullCardInserted() || s.MiniCardInserted() }

func (s Status) String() string {
	var parts []string
	if s.FullCardInserted() {
		parts = append(parts, "full-card")
	}
	if s.MiniCardInserted() {
		parts = append(parts, "mini-card")
	}
	if s.VerifyError() {
		parts = append(parts, "verify-error")
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, "|")
}

// cString returns b up to its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
