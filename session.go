package iuu

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transport is a bulk pipe pair to one device. Both calls block until they
// complete or the transport's fixed timeout expires. Read returns at most
// n bytes.
type Transport interface {
	Write(p []byte) error
	Read(n int) ([]byte, error)
	Close() error
}

// Session issues commands to one device. It serializes every write and its
// response read, so it is safe to share, but the protocol has no request
// identifiers: a call that times out leaves the device in an unknown state
// and the session should be closed and reopened.
type Session struct {
	mu     sync.Mutex
	t      Transport
	cfg    Config
	log    *zap.Logger
	closed bool
}

// NewSession wraps t. The session takes ownership of t and closes it on
// Close.
func NewSession(t Transport, opts ...Option) (*Session, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	return &Session{t: t, cfg: cfg, log: cfg.Logger}, nil
}

// Close closes the transport. Further calls return ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.t.Close()
}

// Exec sends c and returns the response ResponseLength(c) announces.
// Parameters are validated before anything is written.
func (s *Session) Exec(c Command) ([]byte, error) {
	frame, err := Encode(c)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchangeLocked(c.Opcode(), frame, ResponseLength(c))
}

// Write sends raw bytes without interpretation.
func (s *Session) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.exchangeLocked(Opcode(p[0]), p, 0)
	return err
}

// Read reads up to n raw bytes.
func (s *Session) Read(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	b, err := s.t.Read(n)
	if err != nil {
		return b, s.transportErr(OpNoOperation, true, err)
	}
	return b, nil
}

func (s *Session) exchangeLocked(op Opcode, frame []byte, want int) ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	start := time.Now()
	resp, read, err := s.transfer(op, frame, want)
	elapsed := time.Since(start)
	s.cfg.Metrics.observe(op, len(frame), read, elapsed, err)

	if err != nil {
		s.log.Warn("command failed",
			zap.Stringer("op", op),
			zap.String("kind", errorKind(err)),
			zap.Int("written", len(frame)),
			zap.Int("read", read),
			zap.Error(err),
		)
		return nil, err
	}
	if ce := s.log.Check(zap.DebugLevel, "round trip"); ce != nil {
		ce.Write(
			zap.Stringer("op", op),
			zap.String("frame", Hex(frame)),
			zap.Int("read", read),
			zap.Duration("elapsed", elapsed),
		)
	}
	return resp, nil
}

func (s *Session) transfer(op Opcode, frame []byte, want int) ([]byte, int, error) {
	if err := s.t.Write(frame); err != nil {
		return nil, 0, s.transportErr(op, false, err)
	}

	switch {
	case want == 0:
		return nil, 0, nil
	case want == LengthPrefixed:
		hdr, err := s.readExact(op, 1)
		if err != nil {
			return nil, len(hdr), err
		}
		n := int(hdr[0])
		if n == 0 {
			return []byte{}, 1, nil
		}
		body, err := s.readExact(op, n)
		return body, 1 + len(body), err
	default:
		b, err := s.readExact(op, want)
		return b, len(b), err
	}
}

func (s *Session) readExact(op Opcode, n int) ([]byte, error) {
	b, err := s.t.Read(n)
	if err != nil {
		return nil, s.transportErr(op, true, err)
	}
	if len(b) != n {
		return b, &ProtocolError{Op: op, Expected: n, Actual: len(b)}
	}
	return b, nil
}

func (s *Session) transportErr(op Opcode, read bool, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Read: read, Timeout: isTimeout(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func (s *Session) simple(op Opcode) error {
	_, err := s.Exec(Simple{Op: op})
	return err
}

// NoOperation round trips a no-op, useful as a liveness check.
func (s *Session) NoOperation() error { return s.simple(OpNoOperation) }

// FirmwareVersion returns the firmware version string.
func (s *Session) FirmwareVersion() (string, error) {
	b, err := s.Exec(Simple{Op: OpGetFirmwareVersion})
	return cString(b), err
}

// ProductName returns the product name string.
func (s *Session) ProductName() (string, error) {
	b, err := s.Exec(Simple{Op: OpGetProductName})
	return cString(b), err
}

// LoaderVersion returns the boot loader version string.
func (s *Session) LoaderVersion() (string, error) {
	b, err := s.Exec(Simple{Op: OpGetLoaderVersion})
	return cString(b), err
}

// Status reads the state register.
func (s *Session) Status() (Status, error) {
	b, err := s.Exec(Simple{Op: OpGetStateRegister})
	if err != nil {
		return 0, err
	}
	return Status(b[0]), nil
}

// SetLED sets the status LED color and blink frequency.
func (s *Session) SetLED(r, g, b uint16, blink byte) error {
	_, err := s.Exec(SetLED{Red: r, Green: g, Blue: b, Blink: blink})
	return err
}

// SetVCC selects the card supply voltage.
func (s *Session) SetVCC(v VCC) error {
	_, err := s.Exec(SetVCC{Level: v})
	return err
}

// SetRST drives the card RST line active.
func (s *Session) SetRST() error { return s.simple(OpRSTSet) }

// ClearRST releases the card RST line.
func (s *Session) ClearRST() error { return s.simple(OpRSTClear) }

// SetClock programs the card clock and returns the registers used.
// Zero turns the clock output off.
func (s *Session) SetClock(freq int) (ClockSolution, error) {
	sol, err := Synthesize(freq)
	if err != nil {
		return sol, err
	}
	frame, err := sol.Frame()
	if err != nil {
		return sol, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.exchangeLocked(OpUARTWriteI2C, frame, 0)
	return sol, err
}

// DefaultResetWait holds RST long enough for the ATR to have started
// (40000 etus at 9600 baud).
const DefaultResetWait = 12

// ResetCard drains the UART and then pulses RST for wait milliseconds in
// a single write.
func (s *Session) ResetCard(wait byte) error {
	frame, err := EncodeAll(Simple{Op: OpRSTSet}, Wait{Count: wait}, Simple{Op: OpRSTClear})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(); err != nil {
		return err
	}
	_, err = s.exchangeLocked(OpRSTSet, frame, 0)
	return err
}

// UARTOn enables the virtual UART at 9600 baud, even parity, one stop bit
// and drains anything already received.
func (s *Session) UARTOn() error {
	frame, err := Encode(UARTEnable{Baud: Baud9600, Parity: ParityEven, StopBits: OneStopBit})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.exchangeLocked(OpUARTEnable, frame, 0); err != nil {
		return err
	}
	return s.flushLocked()
}

// UARTEnable enables the virtual UART with the given settings.
func (s *Session) UARTEnable(b BaudRate, p Parity, sb StopBits) error {
	_, err := s.Exec(UARTEnable{Baud: b, Parity: p, StopBits: sb})
	return err
}

// UARTOff disables the virtual UART.
func (s *Session) UARTOff() error { return s.simple(OpUARTDisable) }

// UARTSet changes the settings of the enabled UART.
func (s *Session) UARTSet(b BaudRate, p Parity, sb StopBits) error {
	_, err := s.Exec(UARTChange{Baud: b, Parity: p, StopBits: sb})
	return err
}

// UARTSetCustom programs an arbitrary bit rate and returns the rate the
// device actually runs at.
func (s *Session) UARTSetCustom(baud uint32, p Parity, sb StopBits) (uint32, error) {
	b, actual, err := CustomBaud(baud)
	if err != nil {
		return 0, err
	}
	if err := s.UARTSet(b, p, sb); err != nil {
		return 0, err
	}
	return actual, nil
}

// UARTFlush drains the receive buffer.
func (s *Session) UARTFlush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// The firmware may refill the buffer once while the first read drains,
// so it is emptied twice.
func (s *Session) flushLocked() error {
	for range 2 {
		if _, err := s.exchangeLocked(OpUARTRX, []byte{byte(OpUARTRX)}, LengthPrefixed); err != nil {
			return err
		}
	}
	return nil
}

// UARTReceive returns whatever the UART has buffered, possibly nothing.
func (s *Session) UARTReceive() ([]byte, error) {
	return s.Exec(Simple{Op: OpUARTRX})
}

// ReadATR receives the card's answer to reset and converts it to direct
// convention.
func (s *Session) ReadATR() ([]byte, error) {
	atr, err := s.UARTReceive()
	if err != nil {
		return nil, err
	}
	if len(atr) > s.cfg.MaxATRLength {
		return nil, &ProtocolError{Op: OpUARTRX, Expected: s.cfg.MaxATRLength, Actual: len(atr), Err: ErrATRTooLong}
	}
	if err := DecodeATR(atr); err != nil {
		return nil, err
	}
	return atr, nil
}

// Transmit sends data through the UART, one frame per write of at most
// MaxTransmit bytes.
func (s *Session) Transmit(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(data) > 0 {
		n := min(len(data), MaxTransmit)
		frame, err := Encode(UARTTransmit{Data: data[:n]})
		if err != nil {
			return err
		}
		if _, err := s.exchangeLocked(OpUARTEscape, frame, 0); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// TransmitPaced sends data with extra guard time between bytes, as one
// write.
func (s *Session) TransmitPaced(data []byte, p Pacing) error {
	if p.Mode == PaceNone {
		return s.Transmit(data)
	}
	frame, err := p.Expand(data)
	if err != nil {
		return err
	}
	if len(frame) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.exchangeLocked(OpUARTEscape, frame, 0)
	return err
}

// UARTTrap toggles RST, waits wait*10 ms and sends cmd.
func (s *Session) UARTTrap(wait, cmd byte) error {
	_, err := s.Exec(UARTTrap{Wait: wait, Cmd: cmd})
	return err
}

// UARTBreak holds I/O low, toggles RST, waits wait*10 ms and sends cmd.
func (s *Session) UARTBreak(wait, cmd byte) error {
	_, err := s.Exec(UARTTrap{Break: true, Wait: wait, Cmd: cmd})
	return err
}

// EEPROM

func (s *Session) EEPROMOn() error  { return s.simple(OpEEPROMOn) }
func (s *Session) EEPROMOff() error { return s.simple(OpEEPROMOff) }

// EEPROMWrite writes one byte at an 8-bit address.
func (s *Session) EEPROMWrite(ctrl, addr, data byte) error {
	_, err := s.Exec(EEPROMWrite{Ctrl: ctrl, Addr: uint16(addr), Data: data})
	return err
}

// EEPROMWriteX writes one byte at a 16-bit address.
func (s *Session) EEPROMWriteX(ctrl byte, addr uint16, data byte) error {
	_, err := s.Exec(EEPROMWrite{Ctrl: ctrl, Addr: addr, Wide: true, Data: data})
	return err
}

// EEPROMWritePage writes an 8, 16, 32 or 64 byte page.
func (s *Session) EEPROMWritePage(ctrl byte, addr uint16, page []byte) error {
	_, err := s.Exec(EEPROMPageWrite{Ctrl: ctrl, Addr: addr, Data: page})
	return err
}

// EEPROMRead reads one byte at an 8-bit address.
func (s *Session) EEPROMRead(ctrl, addr byte) (byte, error) {
	b, err := s.Exec(EEPROMRead{Ctrl: ctrl, Addr: uint16(addr)})
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// EEPROMReadX reads one byte at a 16-bit address.
func (s *Session) EEPROMReadX(ctrl byte, addr uint16) (byte, error) {
	b, err := s.Exec(EEPROMRead{Ctrl: ctrl, Addr: addr, Wide: true})
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// EEPROMReadBlock reads n bytes starting at an 8-bit address.
func (s *Session) EEPROMReadBlock(ctrl, addr, n byte) ([]byte, error) {
	return s.Exec(EEPROMBlockRead{Ctrl: ctrl, Addr: uint16(addr), Count: n})
}

// EEPROMReadBlockX reads n bytes starting at a 16-bit address.
func (s *Session) EEPROMReadBlockX(ctrl byte, addr uint16, n byte) ([]byte, error) {
	return s.Exec(EEPROMBlockRead{Ctrl: ctrl, Addr: addr, Wide: true, Count: n})
}

// AVR. Every program or data access advances the device program counter.

func (s *Session) AVROn() error       { return s.simple(OpAVROn) }
func (s *Session) AVROff() error      { return s.simple(OpAVROff) }
func (s *Session) AVROneClock() error { return s.simple(OpAVROneClock) }
func (s *Session) AVRReset() error    { return s.simple(OpAVRReset) }
func (s *Session) AVRResetPC() error  { return s.simple(OpAVRResetPC) }
func (s *Session) AVRIncPC() error    { return s.simple(OpAVRIncPC) }

func (s *Session) AVRIncNPC(n byte) error {
	_, err := s.Exec(ByteCommand{Op: OpAVRIncNPC, Arg: n})
	return err
}

func (s *Session) AVRProgWrite(word [2]byte) error {
	_, err := s.Exec(WordCommand{Op: OpAVRProgWrite, Word: word})
	return err
}

// AVRProgWriteN writes len(words)/2 consecutive program words.
func (s *Session) AVRProgWriteN(words []byte) error {
	_, err := s.Exec(AVRProgWriteN{Words: words})
	return err
}

func (s *Session) AVRProgRead() ([2]byte, error) {
	return s.word(Simple{Op: OpAVRProgRead})
}

// AVRProgReadN reads n program words.
func (s *Session) AVRProgReadN(n byte) ([]byte, error) {
	return s.Exec(ByteCommand{Op: OpAVRProgReadN, Arg: n})
}

func (s *Session) AVRDataWrite(b byte) error {
	_, err := s.Exec(ByteCommand{Op: OpAVRDataWrite, Arg: b})
	return err
}

func (s *Session) AVRDataRead() (byte, error) {
	b, err := s.Exec(Simple{Op: OpAVRDataRead})
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// AVRDataReadN reads n data bytes.
func (s *Session) AVRDataReadN(n byte) ([]byte, error) {
	return s.Exec(ByteCommand{Op: OpAVRDataReadN, Arg: n})
}

// PIC

func (s *Session) PICOn() error    { return s.simple(OpPICOn) }
func (s *Session) PICOff() error   { return s.simple(OpPICOff) }
func (s *Session) PICReset() error { return s.simple(OpPICReset) }
func (s *Session) PICIncPC() error { return s.simple(OpPICIncPC) }

func (s *Session) PICIncNPC(n byte) error {
	_, err := s.Exec(ByteCommand{Op: OpPICIncNPC, Arg: n})
	return err
}

// PICCmd sends a raw PIC programming instruction.
func (s *Session) PICCmd(cmd byte) error {
	_, err := s.Exec(ByteCommand{Op: OpPICCmd, Arg: cmd})
	return err
}

// PICCmdLoad sends an instruction with its data word.
func (s *Session) PICCmdLoad(cmd byte, word [2]byte) error {
	_, err := s.Exec(PICCmdLoad{Cmd: cmd, Word: word})
	return err
}

// PICCmdRead sends an instruction and returns the one byte reply.
func (s *Session) PICCmdRead(cmd byte) (byte, error) {
	b, err := s.Exec(ByteCommand{Op: OpPICCmdRead, Arg: cmd})
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Session) PICProgWrite(word [2]byte) error {
	_, err := s.Exec(WordCommand{Op: OpPICProgWrite, Word: word})
	return err
}

func (s *Session) PICProgRead() ([2]byte, error) {
	return s.word(Simple{Op: OpPICProgRead})
}

// PICProgReadN reads n program words.
func (s *Session) PICProgReadN(n byte) ([]byte, error) {
	return s.Exec(ByteCommand{Op: OpPICProgReadN, Arg: n})
}

func (s *Session) PICDataWrite(word [2]byte) error {
	_, err := s.Exec(WordCommand{Op: OpPICDataWrite, Word: word})
	return err
}

func (s *Session) PICDataRead() ([2]byte, error) {
	return s.word(Simple{Op: OpPICDataRead})
}

func (s *Session) word(c Command) ([2]byte, error) {
	b, err := s.Exec(c)
	if err != nil {
		return [2]byte{}, err
	}
	return [2]byte{b[0], b[1]}, nil
}
