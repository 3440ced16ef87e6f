package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/config"
	"gopkg.in/yaml.v3"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"3579000", 3579000, false},
		{"3.579M", 3579000, false},
		{"4.9152MHz", 4915200, false},
		{"750k", 750000, false},
		{"0", 0, false},
		{"-1", 0, true},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFrequency(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFrequency(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFrequency(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClockReport(t *testing.T) {
	sol, err := iuu.Synthesize(3579000)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	r, err := newClockReport(sol)
	if err != nil {
		t.Fatalf("newClockReport() error = %v", err)
	}
	if !r.Preset || r.Output != 3579000 || len(r.Registers) != 11 || r.XDRV != "0x00" {
		t.Errorf("report = %+v", r)
	}
	if !strings.HasPrefix(r.Frame, "4C D2 09 20 4C D2 0C 64") {
		t.Errorf("Frame = %s", r.Frame)
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeClockReport(&buf, "text", r); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "3579000 Hz requested, 3579000 Hz output (preset)") {
			t.Errorf("text output:\n%s", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeClockReport(&buf, "yaml", r); err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("yaml.Unmarshal() error = %v\n%s", err, buf.String())
		}
		if got["target"] != 3579000 || got["preset"] != true {
			t.Errorf("yaml output:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeClockReport(&buf, "json", r); err != nil {
			t.Fatal(err)
		}
		var got clockReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal() error = %v", err)
		}
		if got.Div != 100 || got.P != 1193 || got.Q != 40 {
			t.Errorf("json output:\n%s", buf.String())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		off, _ := iuu.Synthesize(0)
		r, err := newClockReport(off)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Disabled || r.Frame != "4C D2 09 00" || r.XDRV != "" {
			t.Errorf("report = %+v", r)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		if err := writeClockReport(&bytes.Buffer{}, "xml", r); err == nil {
			t.Error("writeClockReport() accepted xml")
		}
	})
}

func TestATRReport(t *testing.T) {
	a, err := iuu.ParseATR([]byte{0x3B, 0x53, 0x11, 0x02, 0x41, 0x42, 0x43})
	if err != nil {
		t.Fatalf("ParseATR() error = %v", err)
	}
	r := newATRReport(a)
	if r.Convention != "direct" || r.ExtraGuardTime != 2 || r.Historical != "41 42 43" {
		t.Errorf("report = %+v", r)
	}
	if len(r.Characters) != 5 || r.Characters[2].Name != "TA1" || r.Characters[3].Name != "TC1" {
		t.Errorf("characters = %+v", r.Characters)
	}

	var buf bytes.Buffer
	if err := writeATRReport(&buf, "text", a); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "ATR: 3B 53 11 02 41 42 43") || !strings.Contains(buf.String(), "extra guard time 2 etu") {
		t.Errorf("text output:\n%s", buf.String())
	}
}

func TestParseLEDColor(t *testing.T) {
	tests := []struct {
		in      string
		want    [3]uint16
		wantErr bool
	}{
		{"green", [3]uint16{0, 0xFFFF, 0}, false},
		{"OFF", [3]uint16{}, false},
		{"0,8000,0xFFFF", [3]uint16{0, 8000, 0xFFFF}, false},
		{"1,2", [3]uint16{}, true},
		{"1,2,70000", [3]uint16{}, true},
		{"purple", [3]uint16{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, g, b, err := parseLEDColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLEDColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && [3]uint16{r, g, b} != tt.want {
				t.Errorf("parseLEDColor(%q) = %v, want %v", tt.in, [3]uint16{r, g, b}, tt.want)
			}
		})
	}
}

func TestParseSignalState(t *testing.T) {
	for _, s := range []string{"high", "ON", "1", "true"} {
		if v, err := parseSignalState(s); err != nil || !v {
			t.Errorf("parseSignalState(%q) = %v, %v", s, v, err)
		}
	}
	for _, s := range []string{"low", "off", "0", "False"} {
		if v, err := parseSignalState(s); err != nil || v {
			t.Errorf("parseSignalState(%q) = %v, %v", s, v, err)
		}
	}
	if _, err := parseSignalState("maybe"); err == nil {
		t.Error("parseSignalState(maybe) should fail")
	}
}

type chunkReceiver struct {
	chunks [][]byte
	done   func()
}

func (r *chunkReceiver) UARTReceive() ([]byte, error) {
	if len(r.chunks) == 0 {
		r.done()
		return nil, nil
	}
	b := r.chunks[0]
	r.chunks = r.chunks[1:]
	return b, nil
}

func TestCardLine(t *testing.T) {
	card := config.CardConfig{VCC: "3.3V", Clock: 4000000, ResetWait: 12, Baud: 9600, Parity: "even", StopBits: 1, Pacing: "nop", PacingValue: 2}

	line, err := cardLine(card)
	if err != nil {
		t.Fatalf("cardLine() error = %v", err)
	}
	if line.VCC != iuu.VCC3V3 || line.ResetWait != 12 || line.Pacing != (iuu.Pacing{Mode: iuu.PaceNOPs, Value: 2}) {
		t.Errorf("cardLine() = %+v", line)
	}

	card.ResetWait = 300
	if _, err := cardLine(card); err == nil {
		t.Error("cardLine() should reject a reset wait above 255 ms")
	}
}

func TestCaptureLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &chunkReceiver{chunks: [][]byte{{0x3B, 0x00}, {}, {0x90, 0x00}}, done: cancel}
	var out, console bytes.Buffer
	n, err := captureLoop(ctx, r, &out, time.Millisecond, &console)
	if err != nil {
		t.Fatalf("captureLoop() error = %v", err)
	}
	if n != 4 || !bytes.Equal(out.Bytes(), []byte{0x3B, 0x00, 0x90, 0x00}) {
		t.Errorf("captured %d bytes: % X", n, out.Bytes())
	}
	if lines := strings.Count(console.String(), "\n"); lines != 2 {
		t.Errorf("console lines = %d:\n%s", lines, console.String())
	}
}

type statusSequence struct {
	seq  []iuu.Status
	done func()
}

func (s *statusSequence) Status() (iuu.Status, error) {
	st := s.seq[0]
	if len(s.seq) > 1 {
		s.seq = s.seq[1:]
	} else {
		s.done()
	}
	return st, nil
}

func TestMonitorCard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := &statusSequence{
		seq:  []iuu.Status{0, 0, iuu.StatusMiniCard, iuu.StatusMiniCard, 0},
		done: cancel,
	}
	var changes []string
	err := monitorCard(ctx, dev, time.Millisecond, func(_ iuu.Status, change string) {
		changes = append(changes, change)
	})
	if err != nil {
		t.Fatalf("monitorCard() error = %v", err)
	}
	want := []string{"card state empty", "card inserted (mini-card)", "card removed"}
	if strings.Join(changes, ";") != strings.Join(want, ";") {
		t.Errorf("changes = %q, want %q", changes, want)
	}
}

func TestDeviceTable(t *testing.T) {
	devices := []iuu.DeviceInfo{
		{Name: "1-1", Bus: 1, Address: 5, Serial: "ABC123", Product: "Infinity USB", EndpointIn: 0x82, EndpointOut: 0x01},
		{Name: "3-1", Bus: 3, Address: 2},
	}
	view := deviceTable(devices).View()
	for _, want := range []string{"ABC123", "001/005", "82/01", "003/002"} {
		if !strings.Contains(view, want) {
			t.Errorf("table missing %q:\n%s", want, view)
		}
	}
}
