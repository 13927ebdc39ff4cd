package app

import (
	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/fault"
)

// noDriver stands in when PortAudio could not initialize. The app
// keeps its settings and status surfaces; every capture attempt
// reports the original failure as a device fault.
type noDriver struct {
	reason error
}

func (d *noDriver) ListDevices() ([]audio.Device, error) {
	return nil, d.reason
}

func (d *noDriver) Open(audio.Config) error {
	return fault.Wrap(fault.DeviceUnavailable, "audio driver unavailable", d.reason)
}

func (d *noDriver) Snapshot(int) []int16 { return nil }

func (d *noDriver) Finalize() (audio.Clip, error) {
	return audio.Clip{}, fault.Wrap(fault.DeviceUnavailable, "audio driver unavailable", d.reason)
}

func (d *noDriver) Release() {}

func (d *noDriver) Close() error { return nil }
