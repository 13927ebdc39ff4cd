package audio

import (
	"fmt"
	"time"

	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/wav"
)

// PortAudioDriver implements Driver using PortAudio
type PortAudioDriver struct {
	config Config
	stream *portaudio.Stream
	buffer []int16
	mu     sync.Mutex
	open   bool
}

// NewPortAudioDriver creates a new PortAudio driver
func NewPortAudioDriver() (*PortAudioDriver, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &PortAudioDriver{
		buffer: make([]int16, 0, 1024*1024),
	}, nil
}

// ListDevices returns a list of available audio input devices
func (d *PortAudioDriver) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		// no default is fine, just don't mark one
		defaultInput = nil
	}

	var result []Device
	for i, dev := range devices {
		if dev.MaxInputChannels > 0 {
			isDefault := defaultInput != nil && dev.Name == defaultInput.Name
			result = append(result, Device{
				ID:        i,
				Name:      dev.Name,
				IsDefault: isDefault,
			})
		}
	}

	return result, nil
}

// Open acquires the configured device and starts the capture stream.
// Every failure is classified DeviceUnavailable; permission questions
// are answered before Open by the permissions package.
func (d *PortAudioDriver) Open(config Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return fault.New(fault.DeviceUnavailable, "capture stream already open")
	}

	device, err := d.resolveDevice(config.DeviceID)
	if err != nil {
		return fault.Wrap(fault.DeviceUnavailable, "no usable input device", err)
	}

	var latency time.Duration
	switch config.Latency {
	case LowLatency:
		latency = device.DefaultLowInputLatency
	default:
		latency = device.DefaultHighInputLatency
	}

	streamParams := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: config.Channels,
			Latency:  latency,
		},
		SampleRate:      float64(config.SampleRate),
		FramesPerBuffer: 1024,
	}

	stream, err := portaudio.OpenStream(streamParams, d.callback)
	if err != nil {
		return fault.Wrap(fault.DeviceUnavailable, fmt.Sprintf("failed to open stream on %q", device.Name), err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fault.Wrap(fault.DeviceUnavailable, fmt.Sprintf("failed to start stream on %q", device.Name), err)
	}

	d.buffer = d.buffer[:0]
	d.stream = stream
	d.config = config
	d.open = true

	return nil
}

func (d *PortAudioDriver) resolveDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == -1 {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}

	device := devices[deviceID]
	if device.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("device %q (ID: %d) has no input channels", device.Name, deviceID)
	}
	return device, nil
}

// callback is called by PortAudio when audio data is available
func (d *PortAudioDriver) callback(in []int16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		d.buffer = append(d.buffer, in...)
	}
}

// Snapshot returns a copy of the most recent n captured samples
func (d *PortAudioDriver) Snapshot(n int) []int16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open || len(d.buffer) == 0 || n <= 0 {
		return nil
	}

	start := len(d.buffer) - n
	if start < 0 {
		start = 0
	}
	out := make([]int16, len(d.buffer)-start)
	copy(out, d.buffer[start:])
	return out
}

// Finalize stops the stream and returns the whole take as a clip.
// The stream stays allocated until Release.
func (d *PortAudioDriver) Finalize() (Clip, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return Clip{}, fault.New(fault.DeviceUnavailable, "no open capture stream")
	}

	if err := d.stream.Stop(); err != nil {
		return Clip{}, fault.Wrap(fault.DeviceUnavailable, "failed to stop stream", err)
	}
	d.open = false

	clip := Clip{
		PCM: wav.Bytes(d.buffer),
		Format: wav.Format{
			SampleRate:    d.config.SampleRate,
			Channels:      d.config.Channels,
			BitsPerSample: 16,
		},
	}

	return clip, nil
}

// Release closes the stream unconditionally. Safe in every state.
func (d *PortAudioDriver) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open && d.stream != nil {
		d.stream.Stop()
		d.open = false
	}
	if d.stream != nil {
		d.stream.Close()
		d.stream = nil
	}
}

// Close releases the stream and terminates PortAudio
func (d *PortAudioDriver) Close() error {
	d.Release()

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}
