// Package wav encodes and decodes minimal RIFF/WAVE containers around
// 16-bit PCM audio. It covers exactly what the capture and playback
// paths need; it is not a general WAV library.
package wav

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Format describes the PCM layout inside a WAV container
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// BytesPerFrame returns the size of one sample frame across all channels
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitsPerSample / 8
}

// Duration returns the play time of pcmLen bytes of audio in this format
func (f Format) Duration(pcmLen int) time.Duration {
	bpf := f.BytesPerFrame()
	if bpf == 0 || f.SampleRate == 0 {
		return 0
	}
	frames := pcmLen / bpf
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Encode wraps raw PCM data in a 44-byte WAV header
func Encode(pcm []byte, f Format) []byte {
	dataLen := len(pcm)
	byteRate := f.SampleRate * f.Channels * f.BitsPerSample / 8
	blockAlign := f.Channels * f.BitsPerSample / 8

	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.BitsPerSample))

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	copy(buf[44:], pcm)

	return buf
}

// Decode parses a WAV container and returns the PCM payload and its
// format. Chunks other than fmt and data are skipped. Only uncompressed
// PCM (format tag 1) is accepted. A data chunk whose declared size
// overruns the buffer is clamped to the bytes actually present, since
// streaming writers patch the size field after the fact and sometimes
// never do.
func Decode(data []byte) ([]byte, Format, error) {
	var f Format

	if len(data) < 12 {
		return nil, f, fmt.Errorf("wav: %d bytes is too short for a RIFF header", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, f, fmt.Errorf("wav: missing RIFF/WAVE magic")
	}

	var pcm []byte
	haveFmt := false
	haveData := false

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			if id == "data" {
				size = len(data) - body
			} else {
				return nil, f, fmt.Errorf("wav: chunk %q extends past end of data", id)
			}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, f, fmt.Errorf("wav: fmt chunk is %d bytes, need 16", size)
			}
			tag := binary.LittleEndian.Uint16(data[body : body+2])
			if tag != 1 {
				return nil, f, fmt.Errorf("wav: unsupported format tag %d, only PCM is supported", tag)
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
			haveData = true
		}

		// chunks are word-aligned
		off = body + size + (size & 1)
	}

	if !haveFmt {
		return nil, f, fmt.Errorf("wav: no fmt chunk")
	}
	if !haveData {
		return nil, f, fmt.Errorf("wav: no data chunk")
	}
	if f.Channels == 0 || f.SampleRate == 0 || f.BitsPerSample == 0 {
		return nil, f, fmt.Errorf("wav: invalid format %d Hz, %d ch, %d bit", f.SampleRate, f.Channels, f.BitsPerSample)
	}

	return pcm, f, nil
}

// Samples converts 16-bit little-endian PCM bytes to int16 samples.
// A trailing odd byte is ignored.
func Samples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
	}
	return out
}

// Bytes converts int16 samples to 16-bit little-endian PCM bytes
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}
