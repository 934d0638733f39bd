package automation

import (
	"fmt"
	"math"
)

// Kind identifies the closed-form shape of a Segment.
type Kind uint8

const (
	// KindConstant holds y1 == y2 == c. It is the zero Kind, so the zero
	// Segment is a constant 0 of length 0.
	KindConstant Kind = iota
	// KindLinear interpolates linearly from y1 to y2.
	KindLinear
	// KindExponential interpolates exponentially through (mid, yc).
	KindExponential
	// KindQuadratic is the parabola through (x1,y1), (mid,yc), (x2,y2).
	KindQuadratic
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindLinear:
		return "linear"
	case KindExponential:
		return "exponential"
	case KindQuadratic:
		return "quadratic"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Segment is one analytic piece of an automation, valid over [x1, x2).
//
// Segment is a value type. The authoritative extent is the pair (x1,
// length); x2 is always derived as x1 + length, so a container can move a
// segment by rewriting x1 without touching its length.
type Segment struct {
	kind   Kind
	x1     float64
	length float64
	y1, y2 float64
	yc     float64 // value at the midpoint; exponential and quadratic only
}

// NewConstant returns a segment holding c over [x1, x2]. A zero length is
// allowed.
func NewConstant(x1, x2, c float64) (Segment, error) {
	if err := checkFinite(x1, x2, c); err != nil {
		return Segment{}, err
	}
	if x2 < x1 {
		return Segment{}, fmt.Errorf("%w: x2 %g < x1 %g", ErrInvalidBounds, x2, x1)
	}
	return Segment{kind: KindConstant, x1: x1, length: x2 - x1, y1: c, y2: c, yc: c}, nil
}

// NewLinear returns a segment interpolating linearly from (x1,y1) to (x2,y2).
func NewLinear(x1, y1, x2, y2 float64) (Segment, error) {
	s, err := newSpanning(KindLinear, x1, y1, x2, y2)
	if err != nil {
		return Segment{}, err
	}
	s.yc = y1 + (y2-y1)/2
	return s, nil
}

// NewExponential returns a segment interpolating exponentially from (x1,y1)
// to (x2,y2) through the control value yc at the midpoint. yc must lie
// strictly between y1 and y2; yc equal to the arithmetic mean degenerates to
// a straight line, yc equal to the geometric mean gives a curve that is
// linear in log space.
func NewExponential(x1, y1, x2, y2, yc float64) (Segment, error) {
	s, err := newSpanning(KindExponential, x1, y1, x2, y2)
	if err != nil {
		return Segment{}, err
	}
	if err := checkFinite(yc); err != nil {
		return Segment{}, err
	}
	if err := checkExponentialControl(y1, y2, yc); err != nil {
		return Segment{}, err
	}
	s.yc = yc
	return s, nil
}

// NewQuadratic returns the parabola through (x1,y1), ((x1+x2)/2,yc) and
// (x2,y2). yc is unconstrained; the curve may overshoot the endpoints.
func NewQuadratic(x1, y1, x2, y2, yc float64) (Segment, error) {
	s, err := newSpanning(KindQuadratic, x1, y1, x2, y2)
	if err != nil {
		return Segment{}, err
	}
	if err := checkFinite(yc); err != nil {
		return Segment{}, err
	}
	s.yc = yc
	return s, nil
}

func newSpanning(kind Kind, x1, y1, x2, y2 float64) (Segment, error) {
	if err := checkFinite(x1, y1, x2, y2); err != nil {
		return Segment{}, err
	}
	if x2 < x1 {
		return Segment{}, fmt.Errorf("%w: x2 %g < x1 %g", ErrInvalidBounds, x2, x1)
	}
	if x2 == x1 {
		return Segment{}, fmt.Errorf("%w: %s segment cannot have zero length", ErrInvalidBounds, kind)
	}
	return Segment{kind: kind, x1: x1, length: x2 - x1, y1: y1, y2: y2}, nil
}

func checkFinite(vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value %g", ErrInvalidParameter, v)
		}
	}
	return nil
}

func checkExponentialControl(y1, y2, yc float64) error {
	if yc <= math.Min(y1, y2) || yc >= math.Max(y1, y2) {
		return fmt.Errorf("%w: control %g outside (%g, %g)", ErrInvalidParameter, yc, math.Min(y1, y2), math.Max(y1, y2))
	}
	return nil
}

func (s Segment) Kind() Kind         { return s.kind }
func (s Segment) X1() float64        { return s.x1 }
func (s Segment) X2() float64        { return s.x1 + s.length }
func (s Segment) Length() float64    { return s.length }
func (s Segment) Y1() float64        { return s.y1 }
func (s Segment) Y2() float64        { return s.y2 }
func (s Segment) DeltaY() float64    { return s.y2 - s.y1 }
func (s Segment) Clone() Segment     { return s }
func (s Segment) zeroLengthOK() bool { return s.kind == KindConstant }

// YC returns the value at the midpoint: the control value for exponential
// and quadratic segments, the mean of the endpoints for linear ones and c
// for constants.
func (s Segment) YC() float64 { return s.yc }

// SetLength resizes the segment, keeping x1.
func (s *Segment) SetLength(length float64) error {
	if math.IsNaN(length) || math.IsInf(length, 0) || length < 0 {
		return fmt.Errorf("%w: length %g", ErrInvalidBounds, length)
	}
	if length == 0 && !s.zeroLengthOK() {
		return fmt.Errorf("%w: %s segment cannot have zero length", ErrInvalidBounds, s.kind)
	}
	s.length = length
	return nil
}

func (s Segment) String() string {
	switch s.kind {
	case KindConstant:
		return fmt.Sprintf("constant[%g,%g] %g", s.x1, s.X2(), s.y1)
	case KindLinear:
		return fmt.Sprintf("linear[%g,%g] %g->%g", s.x1, s.X2(), s.y1, s.y2)
	default:
		return fmt.Sprintf("%s[%g,%g] %g->%g @%g", s.kind, s.x1, s.X2(), s.y1, s.y2, s.yc)
	}
}

// YMin returns the minimum value the segment takes over [x1, x2].
func (s Segment) YMin() float64 {
	switch s.kind {
	case KindConstant:
		return s.y1
	case KindQuadratic:
		return s.quadratic().ymin(s.y1, s.y2)
	default:
		return math.Min(s.y1, s.y2)
	}
}

// YMax returns the maximum value the segment takes over [x1, x2].
func (s Segment) YMax() float64 {
	switch s.kind {
	case KindConstant:
		return s.y1
	case KindQuadratic:
		return s.quadratic().ymax(s.y1, s.y2)
	default:
		return math.Max(s.y1, s.y2)
	}
}

// TranslateX moves the segment by dx along x.
func (s *Segment) TranslateX(dx float64) {
	s.x1 += dx
}

// TranslateY shifts every y value by dy. It fails, leaving the segment
// unchanged, when rounding would push an exponential control value onto an
// endpoint.
func (s *Segment) TranslateY(dy float64) error {
	t := *s
	t.y1 += dy
	t.y2 += dy
	t.yc += dy
	if t.kind == KindExponential {
		if err := checkExponentialControl(t.y1, t.y2, t.yc); err != nil {
			return err
		}
	}
	*s = t
	return nil
}

// ScaleX maps the segment onto its image under x -> f*x. A negative factor
// mirrors the segment, so y1 and y2 swap to keep x ascending; the midpoint
// maps onto itself and yc is kept.
func (s *Segment) ScaleX(f float64) error {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: x factor %g", ErrDegenerateScale, f)
	}
	t := *s
	if f < 0 {
		t.x1 = s.X2() * f
		t.y1, t.y2 = s.y2, s.y1
	} else {
		t.x1 = s.x1 * f
	}
	t.length = s.length * math.Abs(f)
	if t.length == 0 && s.length != 0 && !t.zeroLengthOK() {
		return fmt.Errorf("%w: %s segment collapsed scaling by %g", ErrDegenerateScale, s.kind, f)
	}
	*s = t
	return nil
}

// ScaleY multiplies every y value by f. Exponential segments reject factors
// that would collapse the control value onto an endpoint, including 0.
func (s *Segment) ScaleY(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: y factor %g", ErrDegenerateScale, f)
	}
	t := *s
	t.y1 *= f
	t.y2 *= f
	t.yc *= f
	if t.kind == KindExponential {
		if err := checkExponentialControl(t.y1, t.y2, t.yc); err != nil {
			return fmt.Errorf("%w: y factor %g collapses exponential control", ErrDegenerateScale, f)
		}
	}
	*s = t
	return nil
}

// Values overwrites each position in buf with the segment's value there.
func (s Segment) Values(buf []float64) { s.eval(queryValue, buf) }

// Derivatives overwrites each position in buf with the slope there.
func (s Segment) Derivatives(buf []float64) { s.eval(queryDerivative, buf) }

// Integrals overwrites each position x in buf with the integral of the
// segment from x1 to x.
func (s Segment) Integrals(buf []float64) { s.eval(queryIntegral, buf) }

// TimeIntegrals overwrites each position x in buf with the integral of
// 1/value from x1 to x. It fails without touching buf unless YMin() > 0.
func (s Segment) TimeIntegrals(buf []float64) error {
	if m := s.YMin(); !(m > 0) {
		return fmt.Errorf("%w: segment minimum %g", ErrUndefinedTimeIntegral, m)
	}
	s.eval(queryTimeIntegral, buf)
	return nil
}

func (s Segment) ValueAt(x float64) float64 {
	buf := [1]float64{x}
	s.Values(buf[:])
	return buf[0]
}

func (s Segment) DerivativeAt(x float64) float64 {
	buf := [1]float64{x}
	s.Derivatives(buf[:])
	return buf[0]
}

func (s Segment) IntegralAt(x float64) float64 {
	buf := [1]float64{x}
	s.Integrals(buf[:])
	return buf[0]
}

func (s Segment) TimeIntegralAt(x float64) (float64, error) {
	buf := [1]float64{x}
	if err := s.TimeIntegrals(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

type query uint8

const (
	queryValue query = iota
	queryDerivative
	queryIntegral
	queryTimeIntegral
)

func (q query) String() string {
	switch q {
	case queryValue:
		return "value"
	case queryDerivative:
		return "derivative"
	case queryIntegral:
		return "integral"
	default:
		return "time integral"
	}
}

// accumulates reports whether results of q add up across segments.
func (q query) accumulates() bool {
	return q == queryIntegral || q == queryTimeIntegral
}

// shape is a segment with its per-query constants folded in. fill
// overwrites buf in place; every implementation loops over a concrete type.
type shape interface {
	fill(q query, buf []float64)
}

func (s Segment) shape() shape {
	switch s.kind {
	case KindLinear:
		return s.linear()
	case KindExponential:
		return s.exponential()
	case KindQuadratic:
		return s.quadratic()
	default:
		return s.constant()
	}
}

// eval runs q over buf without the time-integral precondition; callers
// check it once for the whole batch.
func (s Segment) eval(q query, buf []float64) {
	switch s.kind {
	case KindLinear:
		s.linear().fill(q, buf)
	case KindExponential:
		s.exponential().fill(q, buf)
	case KindQuadratic:
		s.quadratic().fill(q, buf)
	default:
		s.constant().fill(q, buf)
	}
}

// span returns q evaluated at x2: the segment's full contribution to a
// running integral.
func (s Segment) span(q query) float64 {
	buf := [1]float64{s.X2()}
	s.eval(q, buf[:])
	return buf[0]
}
