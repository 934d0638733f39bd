package osc

import (
	"fmt"
	"math"
)

type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

func (w Waveform) String() string {
	switch w {
	case WaveSaw:
		return "saw"
	case WaveSquare:
		return "square"
	case WaveTriangle:
		return "triangle"
	default:
		return "sine"
	}
}

// ParseWaveform maps a config name to a Waveform.
func ParseWaveform(name string) (Waveform, error) {
	switch name {
	case "sine", "":
		return WaveSine, nil
	case "saw":
		return WaveSaw, nil
	case "square":
		return WaveSquare, nil
	case "triangle":
		return WaveTriangle, nil
	}
	return WaveSine, fmt.Errorf("unknown waveform %q", name)
}

// Oscillator is a phase accumulator. Frequency is passed per sample so a
// pitch automation can sweep it without phase jumps.
type Oscillator struct {
	waveform Waveform
	phase    float64 // [0, 1)
}

func New(w Waveform) *Oscillator {
	return &Oscillator{waveform: w}
}

// Sample returns the current value in [-1, 1] and advances the phase by
// freqHz/sampleRate. Returns 0 without advancing if either is not positive.
func (o *Oscillator) Sample(freqHz, sampleRate float64) float64 {
	if freqHz <= 0 || sampleRate <= 0 {
		return 0
	}
	var v float64
	switch o.waveform {
	case WaveSaw:
		v = 1.0 - 2.0*o.phase
	case WaveSquare:
		if o.phase < 0.5 {
			v = 1.0
		} else {
			v = -1.0
		}
	case WaveTriangle:
		if o.phase < 0.5 {
			v = 4.0*o.phase - 1.0
		} else {
			v = 3.0 - 4.0*o.phase
		}
	default:
		v = math.Sin(2 * math.Pi * o.phase)
	}

	o.phase += freqHz / sampleRate
	o.phase -= math.Floor(o.phase)
	return v
}

func (o *Oscillator) Phase() float64 { return o.phase }

// Reset zeros the phase.
func (o *Oscillator) Reset() {
	o.phase = 0
}
