// Package level turns the live capture stream into a normalized
// loudness feed for meters and status consumers. Each tick it reads
// the most recent samples, computes byte-scaled frequency magnitudes
// the way a Web Audio analyser does, and averages them into a single
// value in [0,1].
package level

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	// FFTSize is the number of time-domain samples per transform
	FFTSize = 256
	// Bins is the number of frequency bins the transform yields
	Bins = FFTSize / 2

	// magnitudes in dB are clamped to this range, then scaled to 0..255
	minDecibels = -100.0
	maxDecibels = -30.0

	// exponential averaging of successive magnitude frames inside the
	// transform; the loudness values themselves are not smoothed
	smoothingTimeConstant = 0.8

	// DefaultRefresh is the sampling cadence when none is configured
	DefaultRefresh = 33 * time.Millisecond
)

// Sample is one loudness measurement
type Sample struct {
	Time  time.Time
	Level float64
}

// SampleSource exposes the most recent captured samples.
// The audio capture driver satisfies it.
type SampleSource interface {
	Snapshot(n int) []int16
}

// Analyzer produces loudness samples on a fixed cadence. It is
// restartable: Stop joins the loop and a later Start begins a fresh
// sequence with cleared transform state.
type Analyzer struct {
	refresh time.Duration
	window  [FFTSize]float64

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce *sync.Once
	smoothed [Bins]float64
}

// NewAnalyzer creates an analyzer with the given sampling cadence
func NewAnalyzer(refresh time.Duration) *Analyzer {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	a := &Analyzer{refresh: refresh}
	for i := range a.window {
		// Hamming window
		a.window[i] = 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(i)/float64(FFTSize-1))
	}
	return a
}

// Start begins sampling src and returns the loudness channel. The
// channel is unbuffered and closed when the analyzer stops, so a value
// read from it was measured while the loop was live.
func (a *Analyzer) Start(src SampleSource) (<-chan Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil, fmt.Errorf("analyzer already running")
	}

	for i := range a.smoothed {
		a.smoothed[i] = 0
	}

	out := make(chan Sample)
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	a.stopOnce = &sync.Once{}
	a.running = true

	go a.run(src, out, a.stop, a.done)

	return out, nil
}

func (a *Analyzer) run(src SampleSource, out chan<- Sample, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	ticker := time.NewTicker(a.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s := Sample{Time: now, Level: a.Measure(src)}
			select {
			case out <- s:
			case <-stop:
				return
			}
		}
	}
}

// Stop cancels the sampling loop and waits for it to exit. After Stop
// returns no further sample is delivered; the channel from Start is
// closed. The analyzer stays "running" until the loop has fully
// drained, so Start cannot overlap two loops.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	once, stop, done := a.stopOnce, a.stop, a.done
	a.mu.Unlock()

	once.Do(func() { close(stop) })
	<-done

	a.mu.Lock()
	if a.done == done {
		a.running = false
	}
	a.mu.Unlock()
}

// Running reports whether the sampling loop is live
func (a *Analyzer) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Measure computes one loudness value from the source's current
// sample window: mean of the byte-scaled frequency magnitudes,
// normalized to [0,1]. Silence measures exactly 0. Direct callers must
// not mix Measure with a running Start loop.
func (a *Analyzer) Measure(src SampleSource) float64 {
	bins := a.byteFrequencyData(src.Snapshot(FFTSize))

	sum := 0
	for _, b := range bins {
		sum += int(b)
	}
	return float64(sum) / float64(len(bins)) / 255.0
}

// byteFrequencyData windows the most recent samples, transforms them,
// and maps each bin's power in dB onto 0..255 over [minDecibels,
// maxDecibels]. Short snapshots are aligned to the end of the window.
func (a *Analyzer) byteFrequencyData(samples []int16) [Bins]byte {
	var re, im [FFTSize]float64

	if len(samples) > FFTSize {
		samples = samples[len(samples)-FFTSize:]
	}
	off := FFTSize - len(samples)
	for i, s := range samples {
		re[off+i] = float64(s) / 32768.0 * a.window[off+i]
	}

	fft(re[:], im[:])

	var out [Bins]byte
	for k := 0; k < Bins; k++ {
		mag := math.Hypot(re[k], im[k]) / FFTSize

		sm := smoothingTimeConstant*a.smoothed[k] + (1.0-smoothingTimeConstant)*mag
		a.smoothed[k] = sm

		db := 20.0 * math.Log10(sm)
		v := 255.0 * (db - minDecibels) / (maxDecibels - minDecibels)
		if v < 0 || math.IsNaN(v) {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out[k] = byte(v)
	}

	return out
}
