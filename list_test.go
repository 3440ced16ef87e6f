package iuu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeSysfs creates files below dir, creating parents as needed.
func writeSysfs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

// mockProgrammer lays out a programmer with one vendor interface holding a
// bulk endpoint pair and an interrupt endpoint.
func mockProgrammer(t *testing.T, root, name, bus, dev, serial string) {
	t.Helper()
	iface := name + ":1.0"
	writeSysfs(t, filepath.Join(root, name), map[string]string{
		"idVendor":     "104f",
		"idProduct":    "0004",
		"manufacturer": "WBE",
		"product":      "Infinity USB Unlimited",
		"serial":       serial,
		"busnum":       bus,
		"devnum":       dev,

		iface + "/bInterfaceNumber":       "00",
		iface + "/ep_81/type":             "Interrupt",
		iface + "/ep_81/direction":        "in",
		iface + "/ep_81/bEndpointAddress": "81",
		iface + "/ep_82/type":             "Bulk",
		iface + "/ep_82/direction":        "in",
		iface + "/ep_82/bEndpointAddress": "82",
		iface + "/ep_01/type":             "Bulk",
		iface + "/ep_01/direction":        "out",
		iface + "/ep_01/bEndpointAddress": "01",
	})
}

func TestListDevicesIn(t *testing.T) {
	root := t.TempDir()

	mockProgrammer(t, root, "3-1", "3", "2", "B")
	mockProgrammer(t, root, "1-4.2", "1", "9", "A")
	mockProgrammer(t, root, "1-1", "1", "5", "C")

	// Unrelated device, root hub and a stray interface entry
	writeSysfs(t, filepath.Join(root, "1-2"), map[string]string{
		"idVendor": "0403", "idProduct": "6001", "busnum": "1", "devnum": "3",
	})
	writeSysfs(t, filepath.Join(root, "usb1"), map[string]string{
		"idVendor": "104f", "idProduct": "0004",
	})
	writeSysfs(t, filepath.Join(root, "1-1:1.0"), map[string]string{
		"idVendor": "104f", "idProduct": "0004",
	})

	devices, err := ListDevicesIn(root)
	if err != nil {
		t.Fatalf("ListDevicesIn() error = %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("ListDevicesIn() found %d devices, want 3: %v", len(devices), devices)
	}

	wantOrder := []string{"1-1", "1-4.2", "3-1"}
	for i, name := range wantOrder {
		if devices[i].Name != name {
			t.Errorf("devices[%d].Name = %q, want %q", i, devices[i].Name, name)
		}
	}

	d := devices[0]
	if d.Bus != 1 || d.Address != 5 || d.Serial != "C" {
		t.Errorf("devices[0] = %+v", d)
	}
	if d.VendorID != VendorID || d.ProductID != ProductID {
		t.Errorf("IDs = %04x:%04x", d.VendorID, d.ProductID)
	}
	if d.Product != "Infinity USB Unlimited" || d.Manufacturer != "WBE" {
		t.Errorf("strings = %q %q", d.Manufacturer, d.Product)
	}
	if d.EndpointIn != 0x82 || d.EndpointOut != 0x01 || d.Interface != 0 {
		t.Errorf("endpoints = in 0x%02x out 0x%02x iface %d", d.EndpointIn, d.EndpointOut, d.Interface)
	}
	if got, want := d.String(), "001/005 104f:0004 serial=C"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestListDevicesInMissingRoot(t *testing.T) {
	if _, err := ListDevicesIn(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ListDevicesIn() should fail on a missing directory")
	}
}

func TestReadEndpointsSkipsIncompleteInterface(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2-1")
	writeSysfs(t, dir, map[string]string{
		"2-1:1.0/bInterfaceNumber":       "00",
		"2-1:1.0/ep_81/type":             "Bulk",
		"2-1:1.0/ep_81/direction":        "in",
		"2-1:1.0/ep_81/bEndpointAddress": "81",
		"2-1:1.1/bInterfaceNumber":       "01",
		"2-1:1.1/ep_83/type":             "Bulk",
		"2-1:1.1/ep_83/direction":        "in",
		"2-1:1.1/ep_83/bEndpointAddress": "83",
		"2-1:1.1/ep_04/type":             "Bulk",
		"2-1:1.1/ep_04/direction":        "out",
		"2-1:1.1/ep_04/bEndpointAddress": "04",
	})

	var info DeviceInfo
	readEndpoints(dir, &info)
	if info.Interface != 1 || info.EndpointIn != 0x83 || info.EndpointOut != 0x04 {
		t.Errorf("readEndpoints() = iface %d in 0x%02x out 0x%02x, want 1 0x83 0x04",
			info.Interface, info.EndpointIn, info.EndpointOut)
	}
}

func TestSelectDevice(t *testing.T) {
	devices := []DeviceInfo{
		{Name: "1-1", Serial: "A"},
		{Name: "1-2", Serial: "B"},
	}

	tests := []struct {
		name    string
		serial  string
		index   int
		want    string
		wantErr bool
	}{
		{name: "first", want: "1-1"},
		{name: "by index", index: 1, want: "1-2"},
		{name: "by serial", serial: "B", index: 0, want: "1-2"},
		{name: "unknown serial", serial: "Z", wantErr: true},
		{name: "index out of range", index: 2, wantErr: true},
		{name: "negative index", index: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectDevice(devices, tt.serial, tt.index)
			if tt.wantErr {
				if !errors.Is(err, ErrDeviceNotFound) {
					t.Errorf("SelectDevice() error = %v, want ErrDeviceNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectDevice() error = %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("SelectDevice() = %q, want %q", got.Name, tt.want)
			}
		})
	}

	if _, err := SelectDevice(nil, "", 0); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("SelectDevice(nil) error = %v", err)
	}
}
