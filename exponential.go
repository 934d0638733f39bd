package automation

import "math"

// Control points this close to the arithmetic mean are treated as a line;
// the exponential form has a 1/(1-2p) singularity there. The same bound,
// relative to the smaller endpoint, selects the pure exponential time
// integral.
const exponentialEps = 1e-8

// exponentialShape evaluates
//
//	value(u) = c1*(base^u - 1) + y1,  u = x - x1
//
// with p = (yc-y1)/(y2-y1), base = (1/p - 1)^(2/L) and c1 = p²/(1-2p)*(y2-y1).
// k holds ln(base).
type exponentialShape struct {
	x1, y1 float64
	c1, k  float64
	b      float64 // y1 - c1, the asymptote of value as base^u -> 0
	flat   bool
	pure   bool
	line   linearShape
}

func (s Segment) exponential() exponentialShape {
	k := exponentialShape{x1: s.x1, y1: s.y1}
	p := (s.yc - s.y1) / (s.y2 - s.y1)
	if math.Abs(p-0.5) < exponentialEps {
		k.flat = true
		k.line = newLinearShape(s.x1, s.y1, s.y2, s.length)
		return k
	}
	k.c1 = p * p / (1 - 2*p) * (s.y2 - s.y1)
	k.k = 2 * math.Log(1/p-1) / s.length
	k.b = s.y1 - k.c1
	k.pure = math.Abs(k.b) < exponentialEps*math.Min(math.Abs(s.y1), math.Abs(s.y2))
	return k
}

func (k exponentialShape) value(x float64) float64 {
	return k.c1*math.Expm1(k.k*(x-k.x1)) + k.y1
}

func (k exponentialShape) derivative(x float64) float64 {
	return k.c1 * k.k * math.Exp(k.k*(x-k.x1))
}

func (k exponentialShape) integral(x float64) float64 {
	u := x - k.x1
	return k.c1*(math.Expm1(k.k*u)/k.k-u) + k.y1*u
}

// timeIntegral is the antiderivative of 1/(c1*e^(ku) + b):
//
//	(u - ln(value(u)/y1)/k) / b
//
// which divides by zero when yc is the geometric mean of y1 and y2 (b == 0,
// value(u) = c1*e^(ku)); that case integrates e^(-ku)/c1 directly.
func (k exponentialShape) timeIntegral(x float64) float64 {
	u := x - k.x1
	if k.pure {
		return -math.Expm1(-k.k*u) / (k.c1 * k.k)
	}
	return (u - math.Log1p(k.c1*math.Expm1(k.k*u)/k.y1)/k.k) / k.b
}

func (k exponentialShape) fill(q query, buf []float64) {
	if k.flat {
		k.line.fill(q, buf)
		return
	}
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
		for i, x := range buf {
			buf[i] = k.timeIntegral(x)
		}
	}
}
