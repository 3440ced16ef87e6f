package iuu

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"512ms (default)", 512 * time.Millisecond, false},
		{"1ms", time.Millisecond, false},
		{"5s", 5 * time.Second, false},
		{"0 (blocking not allowed)", 0, true},
		{"-100ms (negative)", -100 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultUSBConfig()
			err := WithTimeout(tt.timeout)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err == nil && config.Timeout != tt.timeout {
				t.Errorf("Timeout = %v, want %v", config.Timeout, tt.timeout)
			}
		})
	}
}

func TestWithEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		in, out byte
		wantErr bool
	}{
		{"typical", 0x82, 0x01, false},
		{"same number", 0x81, 0x01, false},
		{"in without direction bit", 0x02, 0x01, true},
		{"out with direction bit", 0x82, 0x81, true},
		{"swapped", 0x01, 0x82, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultUSBConfig()
			err := WithEndpoints(tt.in, tt.out)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithEndpoints(0x%02x, 0x%02x) error = %v, wantErr %v", tt.in, tt.out, err, tt.wantErr)
			}
			if err == nil && (config.EndpointIn != tt.in || config.EndpointOut != tt.out) {
				t.Errorf("endpoints = 0x%02x 0x%02x", config.EndpointIn, config.EndpointOut)
			}
		})
	}
}

func TestWithMaxATRLength(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{2, false},
		{33, false},
		{MaxATRLength, false},
		{1, true},
		{0, true},
		{MaxATRLength + 1, true},
	}

	for _, tt := range tests {
		config := DefaultConfig()
		err := WithMaxATRLength(tt.n)(&config)
		if (err != nil) != tt.wantErr {
			t.Errorf("WithMaxATRLength(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("WithMaxATRLength(%d) error = %v, want ErrInvalidParameter", tt.n, err)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Logger == nil || cfg.Metrics != nil || cfg.MaxATRLength != MaxATRLength {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}

	if err := WithLogger(nil)(&cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("WithLogger(nil) error = %v", err)
	}
	l := zap.NewExample()
	if err := WithLogger(l)(&cfg); err != nil || cfg.Logger != l {
		t.Errorf("WithLogger() error = %v", err)
	}

	usb := DefaultUSBConfig()
	if usb.Timeout != DefaultTimeout || usb.DevRoot != "/dev/bus/usb" || usb.Interface != 0 {
		t.Errorf("DefaultUSBConfig() = %+v", usb)
	}
	if err := WithDevRoot("/tmp/usb")(&usb); err != nil || usb.DevRoot != "/tmp/usb" {
		t.Errorf("WithDevRoot() error = %v", err)
	}
	if err := WithInterface(2)(&usb); err != nil || usb.Interface != 2 {
		t.Errorf("WithInterface() error = %v", err)
	}
}

func TestNewSessionRejectsInvalidOption(t *testing.T) {
	if _, err := NewSession(newMockTransport(), WithMaxATRLength(1)); err == nil {
		t.Error("NewSession() accepted invalid option")
	}
}
