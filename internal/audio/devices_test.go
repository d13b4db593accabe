// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

var (
	testMic = &portaudio.DeviceInfo{
		Name:                    "USB Mic",
		MaxInputChannels:        2,
		DefaultSampleRate:       48000,
		DefaultLowInputLatency:  3 * time.Millisecond,
		DefaultHighInputLatency: 12 * time.Millisecond,
		HostApi:                 &portaudio.HostApiInfo{Name: "Core Audio"},
	}
	testSpeakers = &portaudio.DeviceInfo{
		Name:              "Speakers",
		MaxOutputChannels: 2,
		DefaultSampleRate: 44100,
	}
)

// stubPortAudio replaces the PortAudio device queries for the duration of
// the test.
func stubPortAudio(t *testing.T, devices []*portaudio.DeviceInfo, def *portaudio.DeviceInfo) {
	t.Helper()
	origDevices, origDefault := paLibDevicesFunc, paLibDefaultInputDeviceFunc
	t.Cleanup(func() {
		paLibDevicesFunc, paLibDefaultInputDeviceFunc = origDevices, origDefault
	})

	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return devices, nil }
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		if def == nil {
			return nil, errors.New("mock: no default input")
		}
		return def, nil
	}
}

func setupPortAudio(t *testing.T) {
	t.Helper()
	if err := Initialize(); err != nil {
		t.Skipf("PortAudio unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := Terminate(); err != nil {
			t.Errorf("Failed to terminate PortAudio: %v", err)
		}
	})
}

func TestHostDevices(t *testing.T) {
	stubPortAudio(t, []*portaudio.DeviceInfo{testSpeakers, testMic}, testMic)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
	}

	mic := devices[1]
	if !mic.DefaultInput || !mic.CanCapture() || mic.HostAPI != "Core Audio" {
		t.Errorf("unexpected mic %+v", mic)
	}
	if devices[0].DefaultInput || devices[0].CanCapture() {
		t.Errorf("speakers reported as input: %+v", devices[0])
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, errors.New("mock error")
	}

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDevice(t *testing.T) {
	stubPortAudio(t, []*portaudio.DeviceInfo{testSpeakers, testMic}, testMic)

	tests := []struct {
		name    string
		id      int
		want    *portaudio.DeviceInfo
		wantErr string
	}{
		{"Default", -1, testMic, ""},
		{"ByID", 1, testMic, ""},
		{"OutputOnly", 0, nil, "does not support input"},
		{"TooLarge", 2, nil, "invalid device ID"},
		{"Negative", -2, nil, "invalid device ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InputDevice(tt.id)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("InputDevice(%d) error = %v, want %q", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("InputDevice(%d) error = %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("InputDevice(%d) = %s, want %s", tt.id, got.Name, tt.want.Name)
			}
		})
	}
}

func TestInputDevice_paDefaultInputDeviceError(t *testing.T) {
	stubPortAudio(t, []*portaudio.DeviceInfo{testSpeakers}, nil)

	_, err := InputDevice(-1)
	if err == nil || !strings.Contains(err.Error(), "no default input device") {
		t.Errorf("expected default device error, got %v", err)
	}

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices should tolerate a missing default: %v", err)
	}
	if devices[0].DefaultInput {
		t.Error("no device should be marked as default input")
	}
}

func TestErrorInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()
	paLibInitialize = func() error { return errors.New("mock init error") }

	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected init error, got %v", err)
	}
	if _, err := GetDevices(); err == nil {
		t.Error("GetDevices should fail when PortAudio cannot initialise")
	}
}

func TestErrorTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()
	paLibTerminate = func() error { return errors.New("mock terminate error") }

	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock terminate error") {
		t.Errorf("expected terminate error, got %v", err)
	}
}

func TestNilDevices(t *testing.T) {
	stubPortAudio(t, nil, nil)

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("paDevices error: %v", err)
	}
	if devices == nil {
		t.Error("paDevices returned nil instead of an empty slice")
	}
}

func TestListDevices(t *testing.T) {
	var buf bytes.Buffer
	ListDevices(&buf, []Device{
		newDevice(0, testSpeakers, testMic.Name),
		newDevice(1, testMic, testMic.Name),
	})

	out := buf.String()
	for _, want := range []string{
		"[0] Speakers (Output)",
		"[1] USB Mic (Input) [default input]",
		"Host API: Core Audio",
		"Default sample rate: 48000 Hz",
		"Latency: Low=3.00ms, High=12.00ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestDeviceType(t *testing.T) {
	tests := []struct {
		in, out int
		want    string
	}{
		{2, 2, "Input/Output"},
		{1, 0, "Input"},
		{0, 2, "Output"},
		{0, 0, "Unknown"},
	}
	for _, tt := range tests {
		d := Device{MaxInputChannels: tt.in, MaxOutputChannels: tt.out}
		if got := d.Type(); got != tt.want {
			t.Errorf("Type(%d in, %d out) = %s, want %s", tt.in, tt.out, got, tt.want)
		}
	}
}

func TestHostDevicesLive(t *testing.T) {
	setupPortAudio(t)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) == 0 {
		t.Skip("No audio devices found on system")
	}
	for i, d := range devices {
		if d.Name == "" {
			t.Errorf("Device %d has empty name", i)
		}
	}
}
