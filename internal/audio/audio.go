// Package audio owns microphone capture. A Driver acquires exclusive
// access to one input device per recording turn, exposes the live
// sample window for level analysis, and finalizes the take into a WAV
// clip for upload.
package audio

import (
	"time"

	"github.com/vaani-app/vaani/internal/wav"
)

// Device represents an audio input device
type Device struct {
	ID        int
	Name      string
	IsDefault bool
}

// LatencyMode defines the latency priority
type LatencyMode int

const (
	// LowLatency prioritizes low latency (real-time)
	LowLatency LatencyMode = iota
	// HighStability prioritizes stability (larger buffer)
	HighStability
)

// Config holds audio configuration
type Config struct {
	DeviceID   int
	SampleRate int
	Channels   int
	Latency    LatencyMode
}

// DefaultConfig returns the default capture configuration:
// 16kHz mono, the format the voice backend expects for uploads
func DefaultConfig() Config {
	return Config{
		DeviceID:   -1, // -1 means use default device
		SampleRate: 16000,
		Channels:   1,
		Latency:    HighStability,
	}
}

// Clip is one finished recording take
type Clip struct {
	PCM    []byte
	Format wav.Format
}

// WAV returns the clip wrapped in a WAV container
func (c Clip) WAV() []byte {
	return wav.Encode(c.PCM, c.Format)
}

// Duration returns the clip's play time
func (c Clip) Duration() time.Duration {
	return c.Format.Duration(len(c.PCM))
}

// Empty reports whether the clip holds no audio
func (c Clip) Empty() bool {
	return len(c.PCM) == 0
}

// Driver is the interface for audio capture. Open acquires the device
// and starts the stream; Finalize stops it and hands back the take;
// Release tears the stream down and is safe to call in any state, any
// number of times.
type Driver interface {
	// ListDevices returns a list of available audio input devices
	ListDevices() ([]Device, error)

	// Open acquires the configured device and starts capturing
	Open(config Config) error

	// Snapshot returns a copy of the most recent n captured samples.
	// It returns fewer when less audio has arrived, nil when idle.
	Snapshot(n int) []int16

	// Finalize stops the stream and returns everything captured since Open
	Finalize() (Clip, error)

	// Release closes the stream unconditionally. Idempotent.
	Release()

	// Close releases the driver and the audio host API
	Close() error
}
