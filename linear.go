package automation

import "math"

type linearShape struct {
	x1, y1 float64
	m      float64
}

func (s Segment) linear() linearShape {
	return newLinearShape(s.x1, s.y1, s.y2, s.length)
}

func newLinearShape(x1, y1, y2, length float64) linearShape {
	return linearShape{x1: x1, y1: y1, m: (y2 - y1) / length}
}

func (k linearShape) value(x float64) float64 {
	return (x-k.x1)*k.m + k.y1
}

func (k linearShape) integral(x float64) float64 {
	u := x - k.x1
	return k.y1*u + k.m*u*u/2
}

func (k linearShape) timeIntegral(x float64) float64 {
	u := x - k.x1
	if k.m == 0 {
		return u / k.y1
	}
	// ln(m*u + y1) - ln(y1), without cancelling for small m*u or small m.
	return math.Log1p(k.m*u/k.y1) / k.m
}

func (k linearShape) fill(q query, buf []float64) {
	switch q {
	case queryValue:
		for i, x := range buf {
			buf[i] = k.value(x)
		}
	case queryDerivative:
		for i := range buf {
			buf[i] = k.m
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
