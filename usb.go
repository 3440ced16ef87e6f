package iuu

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// usbfs request structures, laid out as in linux/usbdevice_fs.h
type usbfsCtrlTransfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
	Timeout     uint32 // ms
	Data        unsafe.Pointer
}

type usbfsBulkTransfer struct {
	Endpoint uint32
	Length   uint32
	Timeout  uint32 // ms
	Data     unsafe.Pointer
}

type usbfsIoctl struct {
	Interface int32
	Code      int32
	Data      unsafe.Pointer
}

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | 'U'<<8 | nr
}

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

var (
	usbdevfsControl          = ioc(iocRead|iocWrite, 0, unsafe.Sizeof(usbfsCtrlTransfer{}))
	usbdevfsBulk             = ioc(iocRead|iocWrite, 2, unsafe.Sizeof(usbfsBulkTransfer{}))
	usbdevfsClaimInterface   = ioc(iocRead, 15, unsafe.Sizeof(uint32(0)))
	usbdevfsReleaseInterface = ioc(iocRead, 16, unsafe.Sizeof(uint32(0)))
	usbdevfsIoctl            = ioc(iocRead|iocWrite, 18, unsafe.Sizeof(usbfsIoctl{}))
	usbdevfsReset            = ioc(iocNone, 20, 0)
	usbdevfsDisconnect       = ioc(iocNone, 22, 0)
)

// Vendor request that must precede any bulk command.
const (
	ctsRequestType = 0x03
	ctsRequest     = 0x02
	ctsValue       = 0x02
	ctsTimeout     = time.Second
)

// USBTransport is a Transport over Linux usbfs.
type USBTransport struct {
	mu     sync.Mutex
	fd     int
	cfg    USBConfig
	info   DeviceInfo
	epIn   byte
	epOut  byte
	closed bool
}

// Ensure USBTransport implements Transport at compile time
var _ Transport = (*USBTransport)(nil)

// newUSBTransport resolves the endpoints and interface used for info.
func newUSBTransport(info DeviceInfo, cfg USBConfig) (*USBTransport, error) {
	t := &USBTransport{cfg: cfg, info: info, epIn: cfg.EndpointIn, epOut: cfg.EndpointOut}
	if t.epIn == 0 {
		t.epIn = info.EndpointIn
	}
	if t.epOut == 0 {
		t.epOut = info.EndpointOut
	}
	if t.epIn == 0 || t.epOut == 0 {
		return nil, ErrEndpointNotAvailable
	}
	t.info.Interface = int(cfg.Interface)
	t.info.EndpointIn, t.info.EndpointOut = t.epIn, t.epOut
	return t, nil
}

// OpenUSB opens the device node for info, claims its interface and
// raises the clear to send signal.
func OpenUSB(info DeviceInfo, opts ...USBOption) (*USBTransport, error) {
	cfg := DefaultUSBConfig()
	if info.Interface != 0 {
		cfg.Interface = uint32(info.Interface)
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	t, err := newUSBTransport(info, cfg)
	if err != nil {
		return nil, err
	}

	path := devicePath(cfg.DevRoot, info)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	t.fd = fd

	if err := t.claim(); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := t.control(ctsRequestType, ctsRequest, ctsValue, 0, ctsTimeout); err != nil {
		t.release()
		unix.Close(fd)
		return nil, fmt.Errorf("clear to send: %w", err)
	}
	return t, nil
}

func devicePath(root string, info DeviceInfo) string {
	return filepath.Join(root, fmt.Sprintf("%03d", info.Bus), fmt.Sprintf("%03d", info.Address))
}

// claim takes the interface, detaching a bound kernel driver if needed.
func (t *USBTransport) claim() error {
	iface := t.cfg.Interface
	err := ioctlPtr(t.fd, usbdevfsClaimInterface, unsafe.Pointer(&iface))
	if errors.Is(err, unix.EBUSY) {
		req := usbfsIoctl{Interface: int32(iface), Code: int32(usbdevfsDisconnect)}
		if derr := ioctlPtr(t.fd, usbdevfsIoctl, unsafe.Pointer(&req)); derr == nil {
			err = ioctlPtr(t.fd, usbdevfsClaimInterface, unsafe.Pointer(&iface))
		}
	}
	if err != nil {
		return fmt.Errorf("claim interface %d: %w", iface, err)
	}
	return nil
}

func (t *USBTransport) release() error {
	iface := t.cfg.Interface
	return ioctlPtr(t.fd, usbdevfsReleaseInterface, unsafe.Pointer(&iface))
}

func (t *USBTransport) control(reqType, req uint8, value, index uint16, timeout time.Duration) error {
	ctrl := usbfsCtrlTransfer{
		RequestType: reqType,
		Request:     req,
		Value:       value,
		Index:       index,
		Timeout:     uint32(timeout / time.Millisecond),
	}
	_, err := ioctlRet(t.fd, usbdevfsControl, unsafe.Pointer(&ctrl))
	return err
}

func (t *USBTransport) bulk(ep byte, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	req := usbfsBulkTransfer{
		Endpoint: uint32(ep),
		Length:   uint32(len(buf)),
		Timeout:  uint32(t.cfg.Timeout / time.Millisecond),
		Data:     unsafe.Pointer(&buf[0]),
	}
	n, err := ioctlRet(t.fd, usbdevfsBulk, unsafe.Pointer(&req))
	runtime.KeepAlive(buf)
	return n, err
}

// Write sends p on the bulk OUT endpoint.
func (t *USBTransport) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrSessionClosed
	}
	n, err := t.bulk(t.epOut, p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(p))
	}
	return nil
}

// Read receives up to n bytes from the bulk IN endpoint.
func (t *USBTransport) Read(n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrSessionClosed
	}
	buf := make([]byte, n)
	got, err := t.bulk(t.epIn, buf)
	if err != nil {
		return nil, err
	}
	return buf[:got], nil
}

// Close releases the interface, resets the device and closes the node.
func (t *USBTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var errs []error
	if err := t.release(); err != nil {
		errs = append(errs, fmt.Errorf("release interface: %w", err))
	}
	if err := ioctlPtr(t.fd, usbdevfsReset, nil); err != nil {
		errs = append(errs, fmt.Errorf("reset: %w", err))
	}
	if err := unix.Close(t.fd); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Info returns the device this transport was opened on, with the
// interface and endpoints actually in use.
func (t *USBTransport) Info() DeviceInfo { return t.info }

func ioctlRet(fd int, req uintptr, arg unsafe.Pointer) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return int(r), errno
	}
	return int(r), nil
}

func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, err := ioctlRet(fd, req, arg)
	return err
}
