// Package automation maps a position (time or beat) to a parameter value
// through a gapless sequence of closed-form segments starting at x = 0.
//
// Each segment answers four queries analytically: value, derivative,
// integral from the segment start, and time integral (the integral of
// 1/value, which turns a tempo curve into elapsed time). An Automation
// stitches the per-segment answers together, carrying running integrals
// across segment boundaries, and evaluates whole buffers of positions in
// place. Sorted buffers take a fast path that consumes the buffer left to
// right with one short binary search per segment.
//
// At a boundary the segment to the right wins; past the end the value holds
// at the last y2, the derivative is 0 and the integrals extend linearly.
package automation

import (
	"fmt"
	"math"
	"slices"
)

// Automation is an ordered, x-contiguous sequence of segments. It is not
// safe for concurrent mutation; read-only queries on distinct buffers may
// run concurrently.
type Automation struct {
	segments []Segment
}

// New returns an automation laid out from the given segments in order. Only
// their lengths matter; every x1 is reassigned.
func New(segments ...Segment) *Automation {
	a := &Automation{segments: slices.Clone(segments)}
	a.relayout()
	return a
}

// SegmentCount returns the number of segments.
func (a *Automation) SegmentCount() int { return len(a.segments) }

// Length returns the x2 of the last segment, or 0 when empty.
func (a *Automation) Length() float64 {
	if len(a.segments) == 0 {
		return 0
	}
	return a.segments[len(a.segments)-1].X2()
}

// Segments returns a copy of the segment sequence.
func (a *Automation) Segments() []Segment {
	return slices.Clone(a.segments)
}

// Clone returns an independent copy.
func (a *Automation) Clone() *Automation {
	return &Automation{segments: slices.Clone(a.segments)}
}

func (a *Automation) checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: index %d, %d segments", ErrIndexOutOfBounds, i, len(a.segments))
	}
	return nil
}

// Segment returns a copy of the i-th segment.
func (a *Automation) Segment(i int) (Segment, error) {
	if err := a.checkIndex(i, len(a.segments)); err != nil {
		return Segment{}, err
	}
	return a.segments[i], nil
}

// SetSegment replaces the i-th segment.
func (a *Automation) SetSegment(i int, s Segment) error {
	if err := a.checkIndex(i, len(a.segments)); err != nil {
		return err
	}
	a.segments[i] = s
	a.relayout()
	Logger().Debug().Int("index", i).Stringer("segment", s).Msg("automation: set segment")
	return nil
}

// InsertSegment inserts s before index i; i == SegmentCount() appends.
func (a *Automation) InsertSegment(i int, s Segment) error {
	if err := a.checkIndex(i, len(a.segments)+1); err != nil {
		return err
	}
	a.segments = slices.Insert(a.segments, i, s)
	a.relayout()
	Logger().Debug().Int("index", i).Stringer("segment", s).Msg("automation: insert segment")
	return nil
}

// RemoveSegment deletes the i-th segment.
func (a *Automation) RemoveSegment(i int) error {
	if err := a.checkIndex(i, len(a.segments)); err != nil {
		return err
	}
	a.segments = slices.Delete(a.segments, i, i+1)
	a.relayout()
	Logger().Debug().Int("index", i).Msg("automation: remove segment")
	return nil
}

// RemoveSegmentIf deletes every segment for which pred returns true and
// reports how many were removed.
func (a *Automation) RemoveSegmentIf(pred func(Segment) bool) int {
	n := len(a.segments)
	a.segments = slices.DeleteFunc(a.segments, pred)
	removed := n - len(a.segments)
	a.relayout()
	Logger().Debug().Int("removed", removed).Msg("automation: remove segments")
	return removed
}

// AppendSegment adds s after the last segment.
func (a *Automation) AppendSegment(s Segment) {
	a.segments = append(a.segments, s)
	a.relayout()
	Logger().Debug().Int("index", len(a.segments)-1).Stringer("segment", s).Msg("automation: append segment")
}

// relayout restores contiguity: each x1 becomes the previous x2, starting
// at 0, and every length is kept.
func (a *Automation) relayout() {
	x := 0.0
	for i := range a.segments {
		a.segments[i].x1 = x
		x = a.segments[i].X2()
	}
}

// YMin returns the smallest value over all segments, +Inf when empty.
func (a *Automation) YMin() float64 {
	m := math.Inf(1)
	for _, s := range a.segments {
		m = math.Min(m, s.YMin())
	}
	return m
}

// YMax returns the largest value over all segments, -Inf when empty.
func (a *Automation) YMax() float64 {
	m := math.Inf(-1)
	for _, s := range a.segments {
		m = math.Max(m, s.YMax())
	}
	return m
}

// ScaleX stretches the automation along x by f. A negative factor mirrors
// every segment and reverses their order so x stays ascending from 0. On
// error nothing changes.
func (a *Automation) ScaleX(f float64) error {
	if f == 0 {
		err := fmt.Errorf("%w: x factor 0", ErrDegenerateScale)
		Logger().Debug().Err(err).Msg("automation: scale rejected")
		return err
	}
	scaled := slices.Clone(a.segments)
	for i := range scaled {
		if err := scaled[i].ScaleX(f); err != nil {
			Logger().Debug().Err(err).Int("index", i).Msg("automation: scale rejected")
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	if f < 0 {
		slices.Reverse(scaled)
	}
	a.segments = scaled
	a.relayout()
	return nil
}

// ScaleY multiplies every value by f. On error nothing changes.
func (a *Automation) ScaleY(f float64) error {
	return a.eachY(func(s *Segment) error { return s.ScaleY(f) })
}

// TranslateY shifts every value by dy. On error nothing changes.
func (a *Automation) TranslateY(dy float64) error {
	return a.eachY(func(s *Segment) error { return s.TranslateY(dy) })
}

func (a *Automation) eachY(op func(*Segment) error) error {
	next := slices.Clone(a.segments)
	for i := range next {
		if err := op(&next[i]); err != nil {
			Logger().Debug().Err(err).Int("index", i).Msg("automation: y transform rejected")
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	a.segments = next
	return nil
}

func (a *Automation) ValueAt(x float64) float64 {
	buf := [1]float64{x}
	a.Values(buf[:], true)
	return buf[0]
}

func (a *Automation) DerivativeAt(x float64) float64 {
	buf := [1]float64{x}
	a.Derivatives(buf[:], true)
	return buf[0]
}

func (a *Automation) IntegralAt(x float64) float64 {
	buf := [1]float64{x}
	a.Integrals(buf[:], true)
	return buf[0]
}

func (a *Automation) TimeIntegralAt(x float64) (float64, error) {
	buf := [1]float64{x}
	if err := a.TimeIntegrals(buf[:], true); err != nil {
		return 0, err
	}
	return buf[0], nil
}
