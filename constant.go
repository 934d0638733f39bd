package automation

type constantShape struct {
	x1, c float64
}

func (s Segment) constant() constantShape {
	return constantShape{x1: s.x1, c: s.y1}
}

func (k constantShape) fill(q query, buf []float64) {
	switch q {
	case queryValue:
		for i := range buf {
			buf[i] = k.c
		}
	case queryDerivative:
		clear(buf)
	case queryIntegral:
		for i, x := range buf {
			buf[i] = k.c * (x - k.x1)
		}
	case queryTimeIntegral:
		for i, x := range buf {
			buf[i] = (x - k.x1) / k.c
		}
	}
}
