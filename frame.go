package iuu

import (
	"fmt"
)

// Command is one device command frame. AppendFrame validates the typed
// parameters and appends the opcode and payload to dst. It never returns a
// partially appended frame.
type Command interface {
	Opcode() Opcode
	AppendFrame(dst []byte) ([]byte, error)
}

// Encode returns the wire bytes of c.
func Encode(c Command) ([]byte, error) {
	return c.AppendFrame(nil)
}

// EncodeAll concatenates the frames of cmds. The protocol allows several
// commands in one bulk write; the device executes them in order.
func EncodeAll(cmds ...Command) ([]byte, error) {
	var out []byte
	for _, c := range cmds {
		var err error
		if out, err = c.AppendFrame(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Opcodes whose frame is the opcode byte alone.
var simpleOps = map[Opcode]bool{
	OpNoOperation:        true,
	OpGetFirmwareVersion: true,
	OpGetProductName:     true,
	OpGetStateRegister:   true,
	OpGetLoaderVersion:   true,
	OpRSTSet:             true,
	OpRSTClear:           true,
	OpUARTDisable:        true,
	OpUARTRX:             true,
	OpEEPROMOn:           true,
	OpEEPROMOff:          true,
	OpAVROn:              true,
	OpAVROff:             true,
	OpAVROneClock:        true,
	OpAVRReset:           true,
	OpAVRResetPC:         true,
	OpAVRIncPC:           true,
	OpAVRProgRead:        true,
	OpAVRDataRead:        true,
	OpPICOn:              true,
	OpPICOff:             true,
	OpPICReset:           true,
	OpPICIncPC:           true,
	OpPICProgRead:        true,
	OpPICDataRead:        true,
}

// Opcodes followed by exactly one argument byte.
var byteOps = map[Opcode]bool{
	OpAVRIncNPC:    true,
	OpAVRProgReadN: true,
	OpAVRDataReadN: true,
	OpAVRDataWrite: true,
	OpPICCmd:       true,
	OpPICCmdRead:   true,
	OpPICIncNPC:    true,
	OpPICProgReadN: true,
}

// Opcodes followed by one two-byte word, copied verbatim.
var wordOps = map[Opcode]bool{
	OpAVRProgWrite: true,
	OpPICProgWrite: true,
	OpPICDataWrite: true,
}

// Simple is a command without payload.
type Simple struct {
	Op Opcode
}

func (c Simple) Opcode() Opcode { return c.Op }

func (c Simple) AppendFrame(dst []byte) ([]byte, error) {
	if !simpleOps[c.Op] {
		return dst, invalidParam(c.Op, "opcode", fmt.Sprintf("0x%02X", byte(c.Op)))
	}
	return append(dst, byte(c.Op)), nil
}

// ByteCommand is a command with a single argument byte, such as a count or
// a PIC instruction.
type ByteCommand struct {
	Op  Opcode
	Arg byte
}

func (c ByteCommand) Opcode() Opcode { return c.Op }

func (c ByteCommand) AppendFrame(dst []byte) ([]byte, error) {
	if !byteOps[c.Op] {
		return dst, invalidParam(c.Op, "opcode", fmt.Sprintf("0x%02X", byte(c.Op)))
	}
	return append(dst, byte(c.Op), c.Arg), nil
}

// WordCommand writes one program or data word. The word is sent in the
// order given.
type WordCommand struct {
	Op   Opcode
	Word [2]byte
}

func (c WordCommand) Opcode() Opcode { return c.Op }

func (c WordCommand) AppendFrame(dst []byte) ([]byte, error) {
	if !wordOps[c.Op] {
		return dst, invalidParam(c.Op, "opcode", fmt.Sprintf("0x%02X", byte(c.Op)))
	}
	return append(dst, byte(c.Op), c.Word[0], c.Word[1]), nil
}

// Wait makes the device pause between the commands of one write.
// With Micros set Count is in units of 10us, otherwise milliseconds.
type Wait struct {
	Micros bool
	Count  byte
}

func (c Wait) Opcode() Opcode {
	if c.Micros {
		return OpWaitMicros
	}
	return OpWaitMillis
}

func (c Wait) AppendFrame(dst []byte) ([]byte, error) {
	return append(dst, byte(c.Opcode()), c.Count), nil
}

// SetLED drives the RGB status LED. Color channels are sent low byte
// first; Blink is the blinking frequency.
type SetLED struct {
	Red, Green, Blue uint16
	Blink            byte
}

func (SetLED) Opcode() Opcode { return OpSetLED }

func (c SetLED) AppendFrame(dst []byte) ([]byte, error) {
	return append(dst, byte(OpSetLED),
		byte(c.Red), byte(c.Red>>8),
		byte(c.Green), byte(c.Green>>8),
		byte(c.Blue), byte(c.Blue>>8),
		c.Blink,
	), nil
}

// VCC is the card supply voltage (ISO7816 contact C1).
type VCC byte

const (
	VCC5V  VCC = 0x00
	VCC3V3 VCC = 0x01
)

func (v VCC) Valid() bool { return v == VCC5V || v == VCC3V3 }

func (v VCC) String() string {
	switch v {
	case VCC5V:
		return "5.0V"
	case VCC3V3:
		return "3.3V"
	default:
		return fmt.Sprintf("VCC(%d)", byte(v))
	}
}

// SetVCC selects the card supply voltage.
type SetVCC struct {
	Level VCC
}

func (SetVCC) Opcode() Opcode { return OpSetVCC }

func (c SetVCC) AppendFrame(dst []byte) ([]byte, error) {
	if !c.Level.Valid() {
		return dst, invalidParam(OpSetVCC, "vcc level", byte(c.Level))
	}
	return append(dst, byte(OpSetVCC), byte(c.Level)), nil
}

// UARTEnable powers up the virtual UART with the given line settings.
type UARTEnable struct {
	Baud     BaudRate
	Parity   Parity
	StopBits StopBits
}

func (UARTEnable) Opcode() Opcode { return OpUARTEnable }

func (c UARTEnable) AppendFrame(dst []byte) ([]byte, error) {
	if err := validateLine(OpUARTEnable, c.Baud, c.Parity, c.StopBits); err != nil {
		return dst, err
	}
	return append(dst, byte(OpUARTEnable), byte(c.Baud>>8), byte(c.Baud), LineControl(c.Parity, c.StopBits)), nil
}

// UARTChange reprograms the line settings of an enabled UART. Custom baud
// rates from CustomBaud use the same frame.
type UARTChange struct {
	Baud     BaudRate
	Parity   Parity
	StopBits StopBits
}

func (UARTChange) Opcode() Opcode { return OpUARTEscape }

func (c UARTChange) AppendFrame(dst []byte) ([]byte, error) {
	if err := validateLine(OpUARTEscape, c.Baud, c.Parity, c.StopBits); err != nil {
		return dst, err
	}
	return append(dst, byte(OpUARTEscape), EscChange, byte(c.Baud>>8), byte(c.Baud), LineControl(c.Parity, c.StopBits)), nil
}

// UARTNoOp is the escaped no-operation of the virtual UART.
type UARTNoOp struct{}

func (UARTNoOp) Opcode() Opcode { return OpUARTEscape }

func (UARTNoOp) AppendFrame(dst []byte) ([]byte, error) {
	return append(dst, byte(OpUARTEscape), EscNoOperation), nil
}

func validateLine(op Opcode, b BaudRate, p Parity, s StopBits) error {
	if !b.Valid() {
		return invalidParam(op, "baud rate", b)
	}
	if !p.Valid() {
		return invalidParam(op, "parity", byte(p))
	}
	if !s.Valid() {
		return invalidParam(op, "stop bits", byte(s))
	}
	return nil
}

// MaxTransmit is the largest payload one UART transmit frame can carry.
const MaxTransmit = 255

// UARTTransmit sends Data to the card through the virtual UART.
type UARTTransmit struct {
	Data []byte
}

func (UARTTransmit) Opcode() Opcode { return OpUARTEscape }

func (c UARTTransmit) AppendFrame(dst []byte) ([]byte, error) {
	if len(c.Data) > MaxTransmit {
		return dst, invalidParam(OpUARTEscape, "transmit length", len(c.Data))
	}
	dst = append(dst, byte(OpUARTEscape), EscTransmit, byte(len(c.Data)))
	return append(dst, c.Data...), nil
}

// UARTTrap toggles RST, waits Wait*10 ms and sends Cmd on the I/O line.
// With Break set the I/O line is held low first.
type UARTTrap struct {
	Break bool
	Wait  byte
	Cmd   byte
}

func (c UARTTrap) Opcode() Opcode {
	if c.Break {
		return OpUARTTrapBreak
	}
	return OpUARTTrap
}

func (c UARTTrap) AppendFrame(dst []byte) ([]byte, error) {
	return append(dst, byte(c.Opcode()), c.Wait, c.Cmd), nil
}

// I2CWrite relays one register write to an I2C device on the board.
// Address is the 7-bit bus address.
type I2CWrite struct {
	Address  byte
	Register byte
	Value    byte
}

func (I2CWrite) Opcode() Opcode { return OpUARTWriteI2C }

func (c I2CWrite) AppendFrame(dst []byte) ([]byte, error) {
	if c.Address > 0x7F {
		return dst, invalidParam(OpUARTWriteI2C, "i2c address", c.Address)
	}
	return append(dst, byte(OpUARTWriteI2C), c.Address<<1, c.Register, c.Value), nil
}

// EEPROMWrite writes one byte. Wide selects the 16-bit address variant;
// otherwise Addr must fit in 8 bits.
type EEPROMWrite struct {
	Ctrl byte
	Addr uint16
	Wide bool
	Data byte
}

func (c EEPROMWrite) Opcode() Opcode {
	if c.Wide {
		return OpEEPROMWriteX
	}
	return OpEEPROMWrite
}

func (c EEPROMWrite) AppendFrame(dst []byte) ([]byte, error) {
	op := c.Opcode()
	if !c.Wide && c.Addr > 0xFF {
		return dst, invalidParam(op, "address", c.Addr)
	}
	dst = appendEEPROMAddr(append(dst, byte(op), c.Ctrl), c.Addr, c.Wide)
	return append(dst, c.Data), nil
}

// EEPROMPageWrite writes a whole page. The page size picks the opcode:
// 8 and 16 byte pages take an 8-bit address, 32 and 64 byte pages a
// 16-bit one.
type EEPROMPageWrite struct {
	Ctrl byte
	Addr uint16
	Data []byte
}

func (c EEPROMPageWrite) Opcode() Opcode {
	switch len(c.Data) {
	case 8:
		return OpEEPROMWrite8
	case 16:
		return OpEEPROMWrite16
	case 32:
		return OpEEPROMWriteX32
	case 64:
		return OpEEPROMWriteX64
	default:
		return OpEEPROMWrite8
	}
}

func (c EEPROMPageWrite) AppendFrame(dst []byte) ([]byte, error) {
	op := c.Opcode()
	n := len(c.Data)
	if n != 8 && n != 16 && n != 32 && n != 64 {
		return dst, invalidParam(op, "page size", n)
	}
	wide := n >= 32
	if !wide && c.Addr > 0xFF {
		return dst, invalidParam(op, "address", c.Addr)
	}
	dst = appendEEPROMAddr(append(dst, byte(op), c.Ctrl), c.Addr, wide)
	return append(dst, c.Data...), nil
}

// EEPROMRead reads one byte.
type EEPROMRead struct {
	Ctrl byte
	Addr uint16
	Wide bool
}

func (c EEPROMRead) Opcode() Opcode {
	if c.Wide {
		return OpEEPROMReadX
	}
	return OpEEPROMRead
}

func (c EEPROMRead) AppendFrame(dst []byte) ([]byte, error) {
	op := c.Opcode()
	if !c.Wide && c.Addr > 0xFF {
		return dst, invalidParam(op, "address", c.Addr)
	}
	return appendEEPROMAddr(append(dst, byte(op), c.Ctrl), c.Addr, c.Wide), nil
}

// EEPROMBlockRead reads Count consecutive bytes.
type EEPROMBlockRead struct {
	Ctrl  byte
	Addr  uint16
	Wide  bool
	Count byte
}

func (c EEPROMBlockRead) Opcode() Opcode {
	if c.Wide {
		return OpEEPROMBlockReadX
	}
	return OpEEPROMBlockRead
}

func (c EEPROMBlockRead) AppendFrame(dst []byte) ([]byte, error) {
	op := c.Opcode()
	if !c.Wide && c.Addr > 0xFF {
		return dst, invalidParam(op, "address", c.Addr)
	}
	dst = appendEEPROMAddr(append(dst, byte(op), c.Ctrl), c.Addr, c.Wide)
	return append(dst, c.Count), nil
}

// EEPROM addresses go out low byte first.
func appendEEPROMAddr(dst []byte, addr uint16, wide bool) []byte {
	if wide {
		return append(dst, byte(addr), byte(addr>>8))
	}
	return append(dst, byte(addr))
}

// PICCmdLoad sends a PIC instruction followed by its data word.
type PICCmdLoad struct {
	Cmd  byte
	Word [2]byte
}

func (PICCmdLoad) Opcode() Opcode { return OpPICCmdLoad }

func (c PICCmdLoad) AppendFrame(dst []byte) ([]byte, error) {
	return append(dst, byte(OpPICCmdLoad), c.Cmd, c.Word[0], c.Word[1]), nil
}

// MaxProgWords is the largest number of words one AVR burst write carries.
const MaxProgWords = 255

// AVRProgWriteN writes consecutive program words. The frame carries no
// count: the device consumes the rest of the write.
type AVRProgWriteN struct {
	Words []byte
}

func (AVRProgWriteN) Opcode() Opcode { return OpAVRProgWriteN }

func (c AVRProgWriteN) AppendFrame(dst []byte) ([]byte, error) {
	n := len(c.Words)
	if n == 0 || n%2 != 0 || n > 2*MaxProgWords {
		return dst, invalidParam(OpAVRProgWriteN, "word data length", n)
	}
	dst = append(dst, byte(OpAVRProgWriteN))
	return append(dst, c.Words...), nil
}

// DecodeFrame parses the command at the start of b and returns it with the
// number of bytes consumed. AVRProgWriteN consumes the remainder of b.
func DecodeFrame(b []byte) (Command, int, error) {
	if len(b) == 0 {
		return nil, 0, &ProtocolError{Op: OpNoOperation, Expected: 1, Actual: 0}
	}
	op := Opcode(b[0])

	need := func(n int) error {
		if len(b) < n {
			return &ProtocolError{Op: op, Expected: n, Actual: len(b)}
		}
		return nil
	}

	switch {
	case simpleOps[op]:
		return Simple{Op: op}, 1, nil
	case byteOps[op]:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		return ByteCommand{Op: op, Arg: b[1]}, 2, nil
	case wordOps[op]:
		if err := need(3); err != nil {
			return nil, 0, err
		}
		return WordCommand{Op: op, Word: [2]byte{b[1], b[2]}}, 3, nil
	}

	switch op {
	case OpWaitMicros, OpWaitMillis:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		return Wait{Micros: op == OpWaitMicros, Count: b[1]}, 2, nil

	case OpSetLED:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return SetLED{
			Red:   uint16(b[1]) | uint16(b[2])<<8,
			Green: uint16(b[3]) | uint16(b[4])<<8,
			Blue:  uint16(b[5]) | uint16(b[6])<<8,
			Blink: b[7],
		}, 8, nil

	case OpSetVCC:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		c := SetVCC{Level: VCC(b[1])}
		if !c.Level.Valid() {
			return nil, 0, invalidParam(op, "vcc level", b[1])
		}
		return c, 2, nil

	case OpUARTEnable:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		p, s := splitLineControl(b[3])
		c := UARTEnable{Baud: BaudRate(uint16(b[1])<<8 | uint16(b[2])), Parity: p, StopBits: s}
		if err := validateLine(op, c.Baud, c.Parity, c.StopBits); err != nil {
			return nil, 0, err
		}
		return c, 4, nil

	case OpUARTEscape:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		switch b[1] {
		case EscNoOperation:
			return UARTNoOp{}, 2, nil
		case EscChange:
			if err := need(5); err != nil {
				return nil, 0, err
			}
			p, s := splitLineControl(b[4])
			c := UARTChange{Baud: BaudRate(uint16(b[2])<<8 | uint16(b[3])), Parity: p, StopBits: s}
			if err := validateLine(op, c.Baud, c.Parity, c.StopBits); err != nil {
				return nil, 0, err
			}
			return c, 5, nil
		case EscTransmit:
			if err := need(3); err != nil {
				return nil, 0, err
			}
			n := 3 + int(b[2])
			if err := need(n); err != nil {
				return nil, 0, err
			}
			return UARTTransmit{Data: append([]byte(nil), b[3:n]...)}, n, nil
		default:
			return nil, 0, fmt.Errorf("%w: %s: unknown escape sub-operation 0x%02X", ErrProtocolViolation, op, b[1])
		}

	case OpUARTTrap, OpUARTTrapBreak:
		if err := need(3); err != nil {
			return nil, 0, err
		}
		return UARTTrap{Break: op == OpUARTTrapBreak, Wait: b[1], Cmd: b[2]}, 3, nil

	case OpUARTWriteI2C:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return I2CWrite{Address: b[1] >> 1, Register: b[2], Value: b[3]}, 4, nil

	case OpEEPROMWrite:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return EEPROMWrite{Ctrl: b[1], Addr: uint16(b[2]), Data: b[3]}, 4, nil

	case OpEEPROMWriteX:
		if err := need(5); err != nil {
			return nil, 0, err
		}
		return EEPROMWrite{Ctrl: b[1], Addr: le16(b[2:]), Wide: true, Data: b[4]}, 5, nil

	case OpEEPROMWrite8, OpEEPROMWrite16:
		size := 8
		if op == OpEEPROMWrite16 {
			size = 16
		}
		if err := need(3 + size); err != nil {
			return nil, 0, err
		}
		return EEPROMPageWrite{Ctrl: b[1], Addr: uint16(b[2]), Data: append([]byte(nil), b[3:3+size]...)}, 3 + size, nil

	case OpEEPROMWriteX32, OpEEPROMWriteX64:
		size := 32
		if op == OpEEPROMWriteX64 {
			size = 64
		}
		if err := need(4 + size); err != nil {
			return nil, 0, err
		}
		return EEPROMPageWrite{Ctrl: b[1], Addr: le16(b[2:]), Data: append([]byte(nil), b[4:4+size]...)}, 4 + size, nil

	case OpEEPROMRead:
		if err := need(3); err != nil {
			return nil, 0, err
		}
		return EEPROMRead{Ctrl: b[1], Addr: uint16(b[2])}, 3, nil

	case OpEEPROMReadX:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return EEPROMRead{Ctrl: b[1], Addr: le16(b[2:]), Wide: true}, 4, nil

	case OpEEPROMBlockRead:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return EEPROMBlockRead{Ctrl: b[1], Addr: uint16(b[2]), Count: b[3]}, 4, nil

	case OpEEPROMBlockReadX:
		if err := need(5); err != nil {
			return nil, 0, err
		}
		return EEPROMBlockRead{Ctrl: b[1], Addr: le16(b[2:]), Wide: true, Count: b[4]}, 5, nil

	case OpPICCmdLoad:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return PICCmdLoad{Cmd: b[1], Word: [2]byte{b[2], b[3]}}, 4, nil

	case OpAVRProgWriteN:
		c := AVRProgWriteN{Words: append([]byte(nil), b[1:]...)}
		if n := len(c.Words); n == 0 || n%2 != 0 || n > 2*MaxProgWords {
			return nil, 0, &ProtocolError{Op: op, Expected: n + n%2, Actual: n}
		}
		return c, len(b), nil
	}

	return nil, 0, fmt.Errorf("%w: unknown opcode 0x%02X", ErrProtocolViolation, byte(op))
}

// DecodeFrames splits a concatenated write into its commands.
func DecodeFrames(b []byte) ([]Command, error) {
	var cmds []Command
	for len(b) > 0 {
		c, n, err := DecodeFrame(b)
		if err != nil {
			return cmds, err
		}
		cmds = append(cmds, c)
		b = b[n:]
	}
	return cmds, nil
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// LengthPrefixed is the ResponseLength of commands whose reply starts
// with a one byte length.
const LengthPrefixed = -1

// ResponseLength returns how many bytes the device sends back for c.
func ResponseLength(c Command) int {
	switch c := c.(type) {
	case Simple:
		switch c.Op {
		case OpGetFirmwareVersion, OpGetLoaderVersion:
			return 4
		case OpGetProductName:
			return 16
		case OpGetStateRegister, OpAVRDataRead:
			return 1
		case OpAVRProgRead, OpPICProgRead, OpPICDataRead:
			return 2
		case OpUARTRX:
			return LengthPrefixed
		}
	case ByteCommand:
		switch c.Op {
		case OpAVRProgReadN, OpPICProgReadN:
			return 2 * int(c.Arg)
		case OpAVRDataReadN:
			return int(c.Arg)
		case OpPICCmdRead:
			return 1
		}
	case EEPROMRead:
		return 1
	case EEPROMBlockRead:
		return int(c.Count)
	}
	return 0
}
