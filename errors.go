package iuu

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	ErrTransport         = errors.New("transport failure")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrTimeout           = errors.New("transfer timed out")
	ErrSessionClosed     = errors.New("session is closed")

	// Device discovery errors
	ErrDeviceNotFound       = errors.New("IUU device not found")
	ErrUSBInfoNotAvailable  = errors.New("USB device information not available")
	ErrEndpointNotAvailable = errors.New("bulk endpoint not available")

	// ATR errors
	ErrATRTooLong   = errors.New("ATR exceeds ISO7816 maximum length")
	ErrMalformedATR = errors.New("malformed ATR")
)

// TransportError reports a failed write or read on the bulk pipe.
// The device state after a timed out transfer is unknown.
type TransportError struct {
	Op      Opcode
	Read    bool
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	dir := "write"
	if e.Read {
		dir = "read"
	}
	if e.Timeout {
		return fmt.Sprintf("%s: %s timed out: %v", e.Op, dir, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Op, dir, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	return e.Timeout && target == ErrTimeout
}

// ParameterError reports an out-of-range argument. It is always returned
// before anything is written to the transport.
type ParameterError struct {
	Op    Opcode
	Param string
	Value any
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %v", e.Op, e.Param, e.Value)
}

func (e *ParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// ProtocolError reports a response whose length or shape does not match
// what the opcode guarantees.
type ProtocolError struct {
	Op       Opcode
	Expected int
	Actual   int
	Err      error // optional detail, e.g. ErrATRTooLong
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (limit %d bytes, got %d)", e.Op, e.Err, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: expected %d bytes, got %d", e.Op, e.Expected, e.Actual)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocolViolation }

func invalidParam(op Opcode, param string, value any) error {
	return &ParameterError{Op: op, Param: param, Value: value}
}

// errorKind names the taxonomy bucket of err for logs and metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrProtocolViolation):
		return "protocol"
	case errors.Is(err, ErrSessionClosed):
		return "closed"
	default:
		return "other"
	}
}
