package iuu

//go:generate go tool stringer -type=Opcode -trimprefix=Op

// Opcode is the first byte of every command frame.
type Opcode byte

// General device commands.
const (
	OpNoOperation        Opcode = 0x00
	OpGetFirmwareVersion Opcode = 0x01
	OpGetProductName     Opcode = 0x02
	OpGetStateRegister   Opcode = 0x03
	OpSetLED             Opcode = 0x04
	OpWaitMicros         Opcode = 0x05 // count is in units of 10us
	OpWaitMillis         Opcode = 0x06
	OpGetLoaderVersion   Opcode = 0x50
	OpRSTSet             Opcode = 0x52
	OpRSTClear           Opcode = 0x53
	OpSetVCC             Opcode = 0x59
)

// Virtual UART (Phoenix interface) commands.
const (
	OpUARTEnable    Opcode = 0x49
	OpUARTDisable   Opcode = 0x4A
	OpUARTWriteI2C  Opcode = 0x4C
	OpUARTTrap      Opcode = 0x54
	OpUARTRX        Opcode = 0x56
	OpUARTTrapBreak Opcode = 0x5B
	OpUARTEscape    Opcode = 0x5E
)

// Sub-operations following OpUARTEscape.
const (
	EscNoOperation byte = 0x00
	EscChange      byte = 0x02 // baud, parity and stop bits
	EscTransmit    byte = 0x04 // length-prefixed transmit
)

// EEPROM commands. The X variants take a 16-bit address.
const (
	OpEEPROMOn         Opcode = 0x37
	OpEEPROMOff        Opcode = 0x38
	OpEEPROMWrite      Opcode = 0x39
	OpEEPROMWriteX     Opcode = 0x3A
	OpEEPROMWrite8     Opcode = 0x3B
	OpEEPROMWrite16    Opcode = 0x3C
	OpEEPROMWriteX32   Opcode = 0x3D
	OpEEPROMWriteX64   Opcode = 0x3E
	OpEEPROMRead       Opcode = 0x3F
	OpEEPROMReadX      Opcode = 0x40
	OpEEPROMBlockRead  Opcode = 0x41
	OpEEPROMBlockReadX Opcode = 0x42
)

// AVR card commands. Every program/data access advances the device-side
// program counter.
const (
	OpAVROn         Opcode = 0x21
	OpAVROff        Opcode = 0x22
	OpAVROneClock   Opcode = 0x23
	OpAVRReset      Opcode = 0x24
	OpAVRResetPC    Opcode = 0x25
	OpAVRIncPC      Opcode = 0x26
	OpAVRIncNPC     Opcode = 0x27
	OpAVRProgWrite  Opcode = 0x28
	OpAVRProgRead   Opcode = 0x29
	OpAVRProgReadN  Opcode = 0x2A
	OpAVRDataWrite  Opcode = 0x2B
	OpAVRDataRead   Opcode = 0x2C
	OpAVRDataReadN  Opcode = 0x2D
	OpAVRProgWriteN Opcode = 0x2E
)

// PIC card commands.
const (
	OpPICCmd       Opcode = 0x0A
	OpPICCmdLoad   Opcode = 0x0B
	OpPICCmdRead   Opcode = 0x0C
	OpPICOn        Opcode = 0x0D
	OpPICOff       Opcode = 0x0E
	OpPICIncPC     Opcode = 0x0F
	OpPICIncNPC    Opcode = 0x10
	OpPICProgWrite Opcode = 0x11
	OpPICProgRead  Opcode = 0x12
	OpPICProgReadN Opcode = 0x13
	OpPICDataWrite Opcode = 0x14
	OpPICDataRead  Opcode = 0x15
	OpPICReset     Opcode = 0x16
)
