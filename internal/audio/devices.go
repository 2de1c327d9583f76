// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"audioviz/internal/config"
)

// Indirections over the PortAudio library so device handling can be tested
// without audio hardware.
var (
	paLibInitialize             = portaudio.Initialize
	paLibTerminate              = portaudio.Terminate
	paLibDevicesFunc            = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
	paDevicesFunc               = paDevices
)

// DeviceInfo describes one host audio device.
type DeviceInfo struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
	IsDefaultInput    bool
}

// Kind returns "Input", "Output" or "Input/Output".
func (d DeviceInfo) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return ""
	}
}

// Initialize sets up the PortAudio subsystem. Pair every successful call
// with Terminate.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// HostDevices lists every device PortAudio reports. PortAudio must be
// initialized.
func HostDevices() ([]DeviceInfo, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	var defaultName string
	if def, err := paLibDefaultInputDeviceFunc(); err == nil && def != nil {
		defaultName = def.Name
	}

	devices := make([]DeviceInfo, len(infos))
	for i, info := range infos {
		d := DeviceInfo{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			LowInputLatency:   info.DefaultLowInputLatency,
			HighInputLatency:  info.DefaultHighInputLatency,
			IsDefaultInput:    info.Name == defaultName && info.MaxInputChannels > 0,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices[i] = d
	}
	return devices, nil
}

// ListDevices initializes PortAudio, lists the host devices and shuts it
// down again. It is meant for one-off commands.
func ListDevices() (devices []DeviceInfo, err error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, Terminate())
	}()
	return HostDevices()
}

// InputDevice returns the PortAudio device for deviceID. config.MinDeviceID
// selects the system default input.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	if deviceID == config.MinDeviceID {
		return paLibDefaultInputDeviceFunc()
	}

	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if devices[deviceID].MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) does not support input", deviceID, devices[deviceID].Name)
	}
	return devices[deviceID], nil
}

func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		return []*portaudio.DeviceInfo{}, nil
	}
	return devices, nil
}
