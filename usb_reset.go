package iuu

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ReenumerationDelay is how long a reset device typically takes to show
// up on the bus again.
const ReenumerationDelay = 2 * time.Second

// ResetDevice performs a USB port reset of the device
// This can recover a programmer left in an unknown state by a timed out
// transfer.
//
// Requirements:
// - write access to the usbfs node (typically root or a udev rule)
//
// Returns:
// - nil if reset successful
// - ErrUSBInfoNotAvailable if the bus or device number is unknown
// - error if the reset ioctl fails
func ResetDevice(info DeviceInfo, opts ...USBOption) error {
	cfg := DefaultUSBConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return err
		}
	}
	if info.Bus == 0 || info.Address == 0 {
		return ErrUSBInfoNotAvailable
	}

	path := devicePath(cfg.DevRoot, info)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer unix.Close(fd)

	if err := ioctlPtr(fd, usbdevfsReset, nil); err != nil {
		return fmt.Errorf("usb reset failed: %w", err)
	}
	return nil
}

// ResetDeviceBySerial resets the programmer with the given serial number
// Useful when bus addresses change after re-plugging
func ResetDeviceBySerial(serial string, opts ...USBOption) error {
	devices, err := ListDevices()
	if err != nil {
		return err
	}
	info, err := SelectDevice(devices, serial, 0)
	if err != nil {
		return err
	}
	return ResetDevice(info, opts...)
}
