// Package tempo converts beat positions to elapsed seconds through a BPM
// automation.
package tempo

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cbegin/automation-go"
)

// Map is a BPM curve over beats. Elapsed time is 60 times the time integral
// of the curve, so tempo ramps of any shape convert exactly.
type Map struct {
	bpm *automation.Automation
	log zerolog.Logger
}

type Option func(*Map)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Map) { m.log = l }
}

// New builds a map over a copy of bpm. It fails unless every BPM value is
// strictly positive.
func New(bpm *automation.Automation, opts ...Option) (*Map, error) {
	m := &Map{bpm: bpm.Clone(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	if bpm.SegmentCount() == 0 {
		return nil, fmt.Errorf("tempo: %w: empty tempo curve", automation.ErrUndefinedTimeIntegral)
	}
	if lo := bpm.YMin(); !(lo > 0) {
		return nil, fmt.Errorf("tempo: %w: minimum bpm %g", automation.ErrUndefinedTimeIntegral, lo)
	}
	m.log.Debug().
		Float64("beats", m.bpm.Length()).
		Float64("min_bpm", m.bpm.YMin()).
		Float64("max_bpm", m.bpm.YMax()).
		Msg("tempo map ready")
	return m, nil
}

// Seconds overwrites each beat position in beats with its time in seconds
// from beat 0. Past the end of the curve the last BPM holds.
func (m *Map) Seconds(beats []float64, sorted bool) error {
	if err := m.bpm.TimeIntegrals(beats, sorted); err != nil {
		return err
	}
	for i := range beats {
		beats[i] *= 60
	}
	return nil
}

// seconds is Seconds for callers inside the package. New rejected every curve
// the time integral is undefined for, and the map's copy never changes.
func (m *Map) seconds(beats []float64, sorted bool) {
	if err := m.Seconds(beats, sorted); err != nil {
		panic(fmt.Sprintf("tempo: map lost its positive curve: %v", err))
	}
}

// SecondsAt returns the time of a single beat position.
func (m *Map) SecondsAt(beat float64) float64 {
	buf := [1]float64{beat}
	m.seconds(buf[:], true)
	return buf[0]
}

// BPMAt returns the tempo at a beat position.
func (m *Map) BPMAt(beat float64) float64 {
	return m.bpm.ValueAt(beat)
}

// BeatTimes returns the times of beats 0 through n-1.
func (m *Map) BeatTimes(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	m.seconds(out, true)
	return out
}

// BeatTimesBefore returns the times of every whole beat that starts before
// seconds. The beat count doubles until a beat lands at or past seconds;
// the last BPM holds past the curve, so that always happens.
func (m *Map) BeatTimesBefore(seconds float64) []float64 {
	if !(seconds > 0) {
		return nil
	}
	n := max(minBeatBatch, int(m.bpm.Length())+1)
	times := m.BeatTimes(n)
	for times[n-1] < seconds {
		n *= 2
		times = m.BeatTimes(n)
	}
	return times[:sort.SearchFloat64s(times, seconds)]
}

// minBeatBatch is the first beat count BeatTimesBefore tries.
const minBeatBatch = 16

// Beats returns the curve length in beats.
func (m *Map) Beats() float64 { return m.bpm.Length() }

// Duration returns the seconds spanned by the curve.
func (m *Map) Duration() float64 {
	return m.SecondsAt(m.bpm.Length())
}
