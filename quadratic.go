package automation

import "math"

// quadraticShape evaluates the parabola in local coordinates u = x - x1:
//
//	value(u) = y1 + b*u + a*u²
//
// where a = d/(2L²) with d = 4y1 + 4y2 - 8yc, and b = (4yc - 3y1 - y2)/L.
// In absolute coordinates the derivative is (d*x + n)/L²; the local form
// avoids cancellation when x1 is far from zero.
type quadraticShape struct {
	x1, y1 float64
	length float64
	a, b   float64
}

func (s Segment) quadratic() quadraticShape {
	l := s.length
	d := 4*s.y1 + 4*s.y2 - 8*s.yc
	return quadraticShape{
		x1:     s.x1,
		y1:     s.y1,
		length: l,
		a:      d / (2 * l * l),
		b:      (4*s.yc - 3*s.y1 - s.y2) / l,
	}
}

func (k quadraticShape) value(x float64) float64 {
	u := x - k.x1
	return k.y1 + u*(k.b+k.a*u)
}

func (k quadraticShape) derivative(x float64) float64 {
	return k.b + 2*k.a*(x-k.x1)
}

func (k quadraticShape) integral(x float64) float64 {
	u := x - k.x1
	return u * (k.y1 + u*(k.b/2+k.a*u/3))
}

// vertex returns the local position of the extremum and whether it lies
// strictly inside (0, L).
func (k quadraticShape) vertex() (float64, bool) {
	if k.a == 0 {
		return 0, false
	}
	u := -k.b / (2 * k.a)
	return u, 0 < u && u < k.length
}

func (k quadraticShape) ymin(y1, y2 float64) float64 {
	m := math.Min(y1, y2)
	if k.a <= 0 {
		return m
	}
	if u, ok := k.vertex(); ok {
		return math.Min(m, k.value(k.x1+u))
	}
	return m
}

func (k quadraticShape) ymax(y1, y2 float64) float64 {
	m := math.Max(y1, y2)
	if k.a >= 0 {
		return m
	}
	if u, ok := k.vertex(); ok {
		return math.Max(m, k.value(k.x1+u))
	}
	return m
}

type reciprocalForm uint8

const (
	reciprocalConstant reciprocalForm = iota
	reciprocalLinear
	reciprocalRational
	reciprocalArctan
	reciprocalArtanh
)

// quadraticReciprocal integrates 1/(a*u² + b*u + y1) from 0. With
// D = 2*y1 + b*u and q = b² - 4*a*y1 the antiderivatives are
//
//	q < 0:  2*atan2(u*s, D)/s    s = sqrt(-q)
//	q = 0:  2*u/D
//	q > 0:  2*atanh(u*s/D)/s     s = sqrt(q)
//
// which stay finite wherever the parabola is positive on [0, u], however
// close it comes to a root. The form is picked once per batch.
type quadraticReciprocal struct {
	x1, y1 float64
	b      float64
	form   reciprocalForm
	s      float64
}

func (k quadraticShape) reciprocal() quadraticReciprocal {
	r := quadraticReciprocal{x1: k.x1, y1: k.y1, b: k.b}
	if k.a == 0 {
		if k.b == 0 {
			r.form = reciprocalConstant
			return r
		}
		r.form = reciprocalLinear
		return r
	}
	q := k.b*k.b - 4*k.a*k.y1
	switch {
	case q < 0:
		r.form = reciprocalArctan
		r.s = math.Sqrt(-q)
	case q > 0:
		r.form = reciprocalArtanh
		r.s = math.Sqrt(q)
	default:
		r.form = reciprocalRational
	}
	return r
}

func (r quadraticReciprocal) at(x float64) float64 {
	u := x - r.x1
	switch r.form {
	case reciprocalConstant:
		return u / r.y1
	case reciprocalLinear:
		return math.Log1p(r.b*u/r.y1) / r.b
	}
	d := 2*r.y1 + r.b*u
	switch r.form {
	case reciprocalArctan:
		return 2 * math.Atan2(u*r.s, d) / r.s
	case reciprocalArtanh:
		return 2 * math.Atanh(u*r.s/d) / r.s
	default:
		return 2 * u / d
	}
}

func (k quadraticShape) fill(q query, buf []float64) {
	switch q {
	case queryValue:
		for i, x := range buf {
			buf[i] = k.value(x)
		}
	case queryDerivative:
		for i, x := range buf {
			buf[i] = k.derivative(x)
		}
	case queryIntegral:
		for i, x := range buf {
			buf[i] = k.integral(x)
		}
	case queryTimeIntegral:
		r := k.reciprocal()
		for i, x := range buf {
			buf[i] = r.at(x)
		}
	}
}
