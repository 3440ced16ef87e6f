package iuu

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// USB identifiers of the Infinity USB Unlimited.
const (
	VendorID  = 0x104F
	ProductID = 0x0004
)

// DefaultSysfsRoot is where the kernel lists USB devices.
const DefaultSysfsRoot = "/sys/bus/usb/devices"

// DeviceInfo describes one attached programmer
type DeviceInfo struct {
	Name         string // sysfs device name, e.g. "1-1.2"
	Bus          int
	Address      int
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Serial       string
	Interface    int
	EndpointIn   byte
	EndpointOut  byte
}

func (d DeviceInfo) String() string {
	s := fmt.Sprintf("%03d/%03d %04x:%04x", d.Bus, d.Address, d.VendorID, d.ProductID)
	if d.Serial != "" {
		s += " serial=" + d.Serial
	}
	return s
}

// ListDevices returns the attached programmers in bus order
func ListDevices() ([]DeviceInfo, error) {
	return ListDevicesIn(DefaultSysfsRoot)
}

// ListDevicesIn scans a sysfs USB device directory
func ListDevicesIn(root string) ([]DeviceInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var devices []DeviceInfo
	for _, entry := range entries {
		name := entry.Name()
		// Interfaces ("1-1:1.0") and root hubs ("usb1") are skipped
		if strings.Contains(name, ":") || strings.HasPrefix(name, "usb") {
			continue
		}
		info, ok := readDeviceInfo(filepath.Join(root, name))
		if !ok || info.VendorID != VendorID || info.ProductID != ProductID {
			continue
		}
		info.Name = name
		devices = append(devices, info)
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Bus != devices[j].Bus {
			return devices[i].Bus < devices[j].Bus
		}
		return devices[i].Address < devices[j].Address
	})
	return devices, nil
}

// SelectDevice picks a device by serial number, or by index when serial
// is empty.
func SelectDevice(devices []DeviceInfo, serial string, index int) (DeviceInfo, error) {
	if serial != "" {
		for _, d := range devices {
			if d.Serial == serial {
				return d, nil
			}
		}
		return DeviceInfo{}, fmt.Errorf("%w: serial %s", ErrDeviceNotFound, serial)
	}
	if index < 0 || index >= len(devices) {
		return DeviceInfo{}, fmt.Errorf("%w: index %d of %d", ErrDeviceNotFound, index, len(devices))
	}
	return devices[index], nil
}

func readDeviceInfo(dir string) (DeviceInfo, bool) {
	vid, err := strconv.ParseUint(readSysfsFile(filepath.Join(dir, "idVendor")), 16, 16)
	if err != nil {
		return DeviceInfo{}, false
	}
	pid, err := strconv.ParseUint(readSysfsFile(filepath.Join(dir, "idProduct")), 16, 16)
	if err != nil {
		return DeviceInfo{}, false
	}

	info := DeviceInfo{
		VendorID:     uint16(vid),
		ProductID:    uint16(pid),
		Manufacturer: readSysfsFile(filepath.Join(dir, "manufacturer")),
		Product:      readSysfsFile(filepath.Join(dir, "product")),
		Serial:       readSysfsFile(filepath.Join(dir, "serial")),
	}
	info.Bus, _ = strconv.Atoi(readSysfsFile(filepath.Join(dir, "busnum")))
	info.Address, _ = strconv.Atoi(readSysfsFile(filepath.Join(dir, "devnum")))
	readEndpoints(dir, &info)
	return info, true
}

// readEndpoints records the first interface exposing a bulk IN and a bulk
// OUT endpoint.
func readEndpoints(dir string, info *DeviceInfo) {
	base := filepath.Base(dir)
	ifaces, _ := filepath.Glob(filepath.Join(dir, base+":*"))
	sort.Strings(ifaces)

	for _, iface := range ifaces {
		var in, out byte
		eps, _ := filepath.Glob(filepath.Join(iface, "ep_*"))
		for _, ep := range eps {
			if readSysfsFile(filepath.Join(ep, "type")) != "Bulk" {
				continue
			}
			addr, err := strconv.ParseUint(readSysfsFile(filepath.Join(ep, "bEndpointAddress")), 16, 8)
			if err != nil {
				continue
			}
			switch readSysfsFile(filepath.Join(ep, "direction")) {
			case "in":
				if in == 0 {
					in = byte(addr)
				}
			case "out":
				if out == 0 {
					out = byte(addr)
				}
			}
		}
		if in != 0 && out != 0 {
			n, _ := strconv.ParseUint(readSysfsFile(filepath.Join(iface, "bInterfaceNumber")), 16, 8)
			info.Interface = int(n)
			info.EndpointIn = in
			info.EndpointOut = out
			return
		}
	}
}

// readSysfsFile returns the trimmed content of a sysfs attribute, or ""
func readSysfsFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
