package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/allbin/go-iuu"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iuu.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Timeout != iuu.DefaultTimeout {
		t.Errorf("Device.Timeout = %v, want %v", cfg.Device.Timeout, iuu.DefaultTimeout)
	}
	if cfg.Device.SysfsRoot != iuu.DefaultSysfsRoot || cfg.Device.DevRoot != "/dev/bus/usb" {
		t.Errorf("Device roots = %q %q", cfg.Device.SysfsRoot, cfg.Device.DevRoot)
	}
	if cfg.Card.Clock != 3579000 || cfg.Card.Baud != 9600 || cfg.Card.ResetWait != iuu.DefaultResetWait {
		t.Errorf("Card = %+v", cfg.Card)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.File.Filename != "" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Listen != "" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
device:
  serial: "A1B2"
  timeout: 2s
card:
  vcc: 3.3V
  clock: 4000000
  pacing: ms
  pacingValue: 3
logging:
  level: debug
  file:
    filename: /tmp/iuu.log
metrics:
  listen: ":9100"
`)

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Serial != "A1B2" || cfg.Device.Timeout != 2*time.Second {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Card.Clock != 4000000 || cfg.Card.Parity != "even" {
		t.Errorf("Card = %+v", cfg.Card)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.File.Filename != "/tmp/iuu.log" || cfg.Logging.File.MaxSizeMB != 10 {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Listen != ":9100" {
		t.Errorf("Metrics.Listen = %q", cfg.Metrics.Listen)
	}

	vcc, err := cfg.Card.VCCLevel()
	if err != nil || vcc != iuu.VCC3V3 {
		t.Errorf("VCCLevel() = %v, %v", vcc, err)
	}
	p, err := cfg.Card.PacingSpec()
	if err != nil || p != (iuu.Pacing{Mode: iuu.PaceMillis, Value: 3}) {
		t.Errorf("PacingSpec() = %+v, %v", p, err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("IUU_CARD_CLOCK", "6000000")
	t.Setenv("IUU_DEVICE_SERIAL", "ENV")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Card.Clock != 6000000 {
		t.Errorf("Card.Clock = %d, want 6000000", cfg.Card.Clock)
	}
	if cfg.Device.Serial != "ENV" {
		t.Errorf("Device.Serial = %q, want ENV", cfg.Device.Serial)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("Load() should fail for a missing explicit file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "card: [unterminated\n")
		if _, err := Load(New(), path); err == nil {
			t.Error("Load() should fail for malformed yaml")
		}
	})
}

func TestCardConfigParsers(t *testing.T) {
	tests := []struct {
		name    string
		card    CardConfig
		wantErr bool
	}{
		{"defaults", CardConfig{VCC: "5V", Parity: "even", StopBits: 1, Pacing: "none"}, false},
		{"3v3 odd two stop", CardConfig{VCC: "3V3", Parity: "o", StopBits: 2, Pacing: "nop", PacingValue: 4}, false},
		{"bad vcc", CardConfig{VCC: "12V", Parity: "even", StopBits: 1}, true},
		{"bad parity", CardConfig{VCC: "5V", Parity: "weird", StopBits: 1}, true},
		{"bad stop bits", CardConfig{VCC: "5V", Parity: "none", StopBits: 3}, true},
		{"bad pacing", CardConfig{VCC: "5V", Parity: "none", StopBits: 1, Pacing: "slow"}, true},
		{"pacing value too large", CardConfig{VCC: "5V", Parity: "none", StopBits: 1, Pacing: "ms", PacingValue: 300}, true},
		{"reset wait 255", CardConfig{VCC: "5V", Parity: "none", StopBits: 1, ResetWait: 255}, false},
		{"reset wait too large", CardConfig{VCC: "5V", Parity: "none", StopBits: 1, ResetWait: 256}, true},
		{"negative reset wait", CardConfig{VCC: "5V", Parity: "none", StopBits: 1, ResetWait: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if _, e := tt.card.VCCLevel(); e != nil {
				err = e
			}
			if _, e := tt.card.ParityCode(); e != nil {
				err = e
			}
			if _, e := tt.card.StopBitCode(); e != nil {
				err = e
			}
			if _, e := tt.card.PacingSpec(); e != nil {
				err = e
			}
			if _, e := tt.card.ResetWaitMillis(); e != nil {
				err = e
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeviceConfigUSBOptions(t *testing.T) {
	opts := DeviceConfig{DevRoot: "/tmp/usb", Timeout: time.Second}.USBOptions()

	cfg := iuu.DefaultUSBConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			t.Fatalf("option error = %v", err)
		}
	}
	if cfg.DevRoot != "/tmp/usb" || cfg.Timeout != time.Second {
		t.Errorf("USBConfig = %+v", cfg)
	}
}
