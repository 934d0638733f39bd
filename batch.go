package automation

import (
	"fmt"
	"slices"
	"sort"
)

// maxSearchSteps bounds the per-position segment search of the unsorted
// path.
const maxSearchSteps = 50

// Values overwrites each position in buf with the automation's value there.
// Pass sorted when buf is known to be non-decreasing; otherwise it is
// checked. A sorted hint on an unsorted buffer gives unspecified results.
func (a *Automation) Values(buf []float64, sorted bool) {
	a.evaluate(queryValue, buf, sorted)
}

// Derivatives overwrites each position in buf with the slope there. At a
// boundary the right segment's slope is used; past the end it is 0.
func (a *Automation) Derivatives(buf []float64, sorted bool) {
	a.evaluate(queryDerivative, buf, sorted)
}

// Integrals overwrites each position x in buf with the integral of the
// automation from 0 to x.
func (a *Automation) Integrals(buf []float64, sorted bool) {
	a.evaluate(queryIntegral, buf, sorted)
}

// TimeIntegrals overwrites each position x in buf with the integral of
// 1/value from 0 to x. It fails before writing anything unless the
// automation is non-empty and YMin() > 0.
func (a *Automation) TimeIntegrals(buf []float64, sorted bool) error {
	if len(a.segments) == 0 {
		return fmt.Errorf("%w: empty automation", ErrUndefinedTimeIntegral)
	}
	if m := a.YMin(); !(m > 0) {
		return fmt.Errorf("%w: automation minimum %g", ErrUndefinedTimeIntegral, m)
	}
	a.evaluate(queryTimeIntegral, buf, sorted)
	return nil
}

func (a *Automation) evaluate(q query, buf []float64, sorted bool) {
	if len(buf) == 0 {
		return
	}
	if len(a.segments) == 0 {
		clear(buf)
		return
	}
	if sorted || slices.IsSorted(buf) {
		a.evaluateSorted(q, buf)
		return
	}
	a.evaluateUnsorted(q, buf)
}

// searchKey is the coordinate used to pick a segment. Negative positions
// fall into the first segment of non-zero length; evaluation still uses the
// raw position.
func searchKey(x float64) float64 {
	return max(x, 0)
}

// evaluateSorted walks segments left to right with a cursor into buf. Each
// segment owns the run of positions below its x2, found by binary search in
// the unconsumed suffix, and fills that run through a sub-slice of buf.
func (a *Automation) evaluateSorted(q query, buf []float64) {
	var acc float64 // integral over every segment fully left of the cursor
	j := 0
	for i := range a.segments {
		if j == len(buf) {
			return
		}
		s := a.segments[i]
		x2 := s.X2()
		if searchKey(buf[j]) >= x2 {
			if q.accumulates() {
				acc += s.span(q)
			}
			continue
		}
		rest := buf[j:]
		n := sort.Search(len(rest), func(k int) bool { return searchKey(rest[k]) >= x2 })
		run := rest[:n]
		s.eval(q, run)
		if q.accumulates() {
			for k := range run {
				run[k] += acc
			}
			acc += s.span(q)
		}
		j += n
	}
	a.extrapolate(q, buf[j:], acc)
}

// evaluateUnsorted locates every position independently. Integral kinds
// add the prefix sum of the segments before the located one, accumulated in
// the same order as the sorted path so both paths agree exactly.
func (a *Automation) evaluateUnsorted(q query, buf []float64) {
	n := len(a.segments)
	shapes := make([]shape, n)
	for i, s := range a.segments {
		shapes[i] = s.shape()
	}
	var prefix []float64
	if q.accumulates() {
		prefix = make([]float64, n+1)
		for i, s := range a.segments {
			prefix[i+1] = prefix[i] + s.span(q)
		}
	}
	for k, x := range buf {
		i := a.locate(x)
		if i == n {
			var acc float64
			if prefix != nil {
				acc = prefix[n]
			}
			a.extrapolate(q, buf[k:k+1], acc)
			continue
		}
		shapes[i].fill(q, buf[k:k+1])
		if prefix != nil {
			buf[k] += prefix[i]
		}
	}
}

// locate returns the index of the first segment whose x2 exceeds x, or
// SegmentCount() when x is at or past the end.
func (a *Automation) locate(x float64) int {
	key := searchKey(x)
	lo, hi := 0, len(a.segments)
	for step := 0; lo < hi && step < maxSearchSteps; step++ {
		mid := int(uint(lo+hi) >> 1)
		if a.segments[mid].X2() > key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// extrapolate fills positions at or past the end. acc is the integral over
// the whole automation for the integral kinds.
func (a *Automation) extrapolate(q query, buf []float64, acc float64) {
	if len(buf) == 0 {
		return
	}
	end := a.Length()
	y2 := a.segments[len(a.segments)-1].Y2()
	switch q {
	case queryValue:
		for i := range buf {
			buf[i] = y2
		}
	case queryDerivative:
		clear(buf)
	case queryIntegral:
		for i, x := range buf {
			buf[i] = (x-end)*y2 + acc
		}
	case queryTimeIntegral:
		for i, x := range buf {
			buf[i] = (x-end)/y2 + acc
		}
	}
}
