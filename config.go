package iuu

import (
	"time"

	"go.uber.org/zap"
)

// Config holds the configuration for a Session
type Config struct {
	Logger       *zap.Logger
	Metrics      *Metrics
	MaxATRLength int
}

// Option is a functional option for configuring a Session
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Logger:       zap.NewNop(),
		MaxATRLength: MaxATRLength,
	}
}

// WithLogger sets the logger used for round trip tracing
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return invalidParam(OpNoOperation, "logger", nil)
		}
		c.Logger = l
		return nil
	}
}

// WithMetrics records every round trip in m
func WithMetrics(m *Metrics) Option {
	return func(c *Config) error {
		c.Metrics = m
		return nil
	}
}

// WithMaxATRLength lowers the ATR length accepted by ReadATR
func WithMaxATRLength(n int) Option {
	return func(c *Config) error {
		if n < 2 || n > MaxATRLength {
			return invalidParam(OpUARTRX, "max ATR length", n)
		}
		c.MaxATRLength = n
		return nil
	}
}

// DefaultTimeout matches the bulk transfer timeout of the vendor SDK
const DefaultTimeout = 512 * time.Millisecond

// USBConfig holds the configuration for a USB transport
type USBConfig struct {
	Timeout     time.Duration
	Interface   uint32
	EndpointIn  byte // zero means taken from DeviceInfo
	EndpointOut byte
	DevRoot     string
}

// USBOption is a functional option for configuring a USB transport
type USBOption func(*USBConfig) error

// DefaultUSBConfig returns a configuration with sensible defaults
func DefaultUSBConfig() USBConfig {
	return USBConfig{
		Timeout:   DefaultTimeout,
		Interface: 0,
		DevRoot:   "/dev/bus/usb",
	}
}

// WithTimeout sets the bulk transfer timeout
func WithTimeout(d time.Duration) USBOption {
	return func(c *USBConfig) error {
		if d <= 0 {
			return invalidParam(OpNoOperation, "timeout", d)
		}
		c.Timeout = d
		return nil
	}
}

// WithInterface sets the USB interface number to claim
func WithInterface(n uint32) USBOption {
	return func(c *USBConfig) error {
		c.Interface = n
		return nil
	}
}

// WithEndpoints overrides the bulk endpoint addresses
func WithEndpoints(in, out byte) USBOption {
	return func(c *USBConfig) error {
		if in&0x80 == 0 || out&0x80 != 0 {
			return invalidParam(OpNoOperation, "endpoints", [2]byte{in, out})
		}
		c.EndpointIn = in
		c.EndpointOut = out
		return nil
	}
}

// WithDevRoot sets the usbfs directory holding the device nodes
func WithDevRoot(dir string) USBOption {
	return func(c *USBConfig) error {
		c.DevRoot = dir
		return nil
	}
}
