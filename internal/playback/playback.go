// Package playback turns base64 WAV payloads from the backend into
// sound on the default output device.
package playback

import (
	"bytes"
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/wav"
)

const (
	// DefaultSampleRate matches the rate the backend synthesizes at,
	// so the common case plays without conversion.
	DefaultSampleRate = 24000
	DefaultChannels   = 1

	pollInterval = 10 * time.Millisecond
)

// The output device context can only be opened once per process, so it
// is shared by every Service. The first Play that reaches the device
// fixes the process-wide output format.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// Service plays finished clips. Clips whose format differs from the
// output format are remixed and resampled before they reach the device.
type Service struct {
	sampleRate int
	channels   int
}

// New creates a playback service targeting the given output format.
// Zero values fall back to the defaults.
func New(sampleRate, channels int) *Service {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	return &Service{sampleRate: sampleRate, channels: channels}
}

// Play decodes audioBase64 and plays it to completion. It returns when
// playback has ended naturally, the payload turned out to be empty, or
// ctx was canceled. The player is released on every path.
func (s *Service) Play(ctx context.Context, audioBase64 string) error {
	pcm, format, err := DecodeBase64(audioBase64)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		// header-only payloads end naturally right away
		return nil
	}

	samples, err := toInt16(pcm, format.BitsPerSample)
	if err != nil {
		return err
	}
	samples, err = remix(samples, format.Channels, s.channels)
	if err != nil {
		return err
	}
	if format.SampleRate != s.sampleRate {
		samples, err = resample(samples, format.SampleRate, s.sampleRate, s.channels)
		if err != nil {
			return err
		}
	}
	if len(samples) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	device, err := s.context()
	if err != nil {
		return err
	}

	player := device.NewPlayer(bytes.NewReader(wav.Bytes(samples)))
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			player.Close()
			return ctx.Err()
		case <-ticker.C:
			if err := player.Err(); err != nil {
				player.Close()
				return fault.Wrap(fault.PlaybackError, "playback device", err)
			}
			if !player.IsPlaying() {
				if err := player.Close(); err != nil {
					return fault.Wrap(fault.PlaybackError, "release player", err)
				}
				return nil
			}
		}
	}
}

// DecodeBase64 decodes a base64 WAV payload into PCM and its format.
func DecodeBase64(audioBase64 string) ([]byte, wav.Format, error) {
	var f wav.Format

	data, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return nil, f, fault.Wrap(fault.DecodeError, "payload is not valid base64", err)
	}

	pcm, f, err := wav.Decode(data)
	if err != nil {
		return nil, f, fault.Wrap(fault.DecodeError, "payload is not playable audio", err)
	}
	return pcm, f, nil
}

func (s *Service) context() (*oto.Context, error) {
	otoOnce.Do(func() {
		c, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   s.sampleRate,
			ChannelCount: s.channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = c
	})
	if otoErr != nil {
		return nil, fault.Wrap(fault.PlaybackError, "open playback device", otoErr)
	}
	return otoCtx, nil
}

func toInt16(pcm []byte, bits int) ([]int16, error) {
	switch bits {
	case 16:
		return wav.Samples(pcm), nil
	case 8:
		// 8-bit WAV is unsigned with a midpoint of 128
		out := make([]int16, len(pcm))
		for i, b := range pcm {
			out[i] = (int16(b) - 128) << 8
		}
		return out, nil
	}
	return nil, fault.Newf(fault.DecodeError, "unsupported bit depth %d", bits)
}

func remix(samples []int16, from, to int) ([]int16, error) {
	switch {
	case from == to:
		return samples, nil
	case from == 2 && to == 1:
		out := make([]int16, len(samples)/2)
		for i := range out {
			out[i] = int16((int32(samples[2*i]) + int32(samples[2*i+1])) / 2)
		}
		return out, nil
	case from == 1 && to == 2:
		out := make([]int16, len(samples)*2)
		for i, s := range samples {
			out[2*i] = s
			out[2*i+1] = s
		}
		return out, nil
	}
	return nil, fault.Newf(fault.DecodeError, "unsupported channel layout %d", from)
}

func resample(samples []int16, fromRate, toRate, channels int) ([]int16, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fault.Wrap(fault.PlaybackError, "create resampler", err)
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s) / 32768.0
	}

	output, err := rs.Process(input)
	if err != nil {
		return nil, fault.Wrap(fault.PlaybackError, "resample clip", err)
	}

	out := make([]int16, len(output))
	for i, v := range output {
		switch {
		case v > 1.0:
			out[i] = 32767
		case v < -1.0:
			out[i] = -32768
		default:
			out[i] = int16(v * 32767.0)
		}
	}
	return out, nil
}
