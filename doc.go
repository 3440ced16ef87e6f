// Package iuu speaks the command protocol of the WBE Infinity USB Unlimited
// smart card and microcontroller programmer.
//
// Every operation is a fixed-layout command frame written to a bulk USB
// endpoint, optionally followed by a fixed or length-prefixed response. The
// package encodes and decodes those frames, programs the on-board clock
// synthesizer, paces UART traffic for cards that need extra guard time and
// normalizes inverse convention ATRs.
//
// # Basic Usage
//
// Find a programmer, open it and read its identity:
//
//	devices, err := iuu.ListDevices()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dev, err := iuu.SelectDevice(devices, "", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t, err := iuu.OpenUSB(dev)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := iuu.NewSession(t, iuu.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	name, _ := s.ProductName()
//	fw, _ := s.FirmwareVersion()
//
// # Reading an ATR
//
//	_ = s.SetVCC(iuu.VCC5V)
//	_, _ = s.SetClock(3579000)
//	_ = s.UARTOn()
//	_ = s.ResetCard(iuu.DefaultResetWait)
//	atr, err := s.ReadATR()
//
// # Frames Without a Device
//
// The codec, the synthesizer and the pacing encoder are pure:
//
//	frame, _ := iuu.Encode(iuu.UARTChange{Baud: iuu.Baud9600, Parity: iuu.ParityEven, StopBits: iuu.OneStopBit})
//	sol, _ := iuu.Synthesize(4000000)
//	paced := iuu.PadWithMillis([]byte{0xA0, 0xA4}, 2)
//
// # Error Handling
//
// Errors are classified and checked with errors.Is:
//
//	if errors.Is(err, iuu.ErrTimeout) {
//	    // device state unknown, close and reopen
//	}
//	var pe *iuu.ProtocolError
//	if errors.As(err, &pe) {
//	    fmt.Println(pe.Expected, pe.Actual)
//	}
//
// Parameter errors are always returned before anything reaches the device.
// No call is retried.
//
// # Platform Support
//
// The USB transport and discovery use Linux usbfs and sysfs. Everything else
// is portable and any Transport implementation can drive a Session.
package iuu
