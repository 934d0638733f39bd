package automation

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mixed is a positive automation using every shape, including a zero-length
// constant in the middle.
func mixed(t testing.TB) *Automation {
	return New(
		mustSegment(t)(NewConstant(0, 1.5, 2)),
		mustSegment(t)(NewLinear(0, 2, 2, 6)),
		mustSegment(t)(NewExponential(0, 6, 3, 1, 4.5)),
		mustSegment(t)(NewConstant(0, 0, 3)),
		mustSegment(t)(NewQuadratic(0, 1, 4, 1, 3)),
		mustSegment(t)(NewExponential(0, 1, 1, 4, 2)),
		mustSegment(t)(NewQuadratic(0, 4, 2, 4, 1)),
	)
}

type batchFunc func(a *Automation, buf []float64, sorted bool) error

type pointFunc func(a *Automation, x float64) (float64, error)

var batchQueries = []struct {
	name  string
	batch batchFunc
	point pointFunc
}{
	{
		"values",
		func(a *Automation, buf []float64, sorted bool) error { a.Values(buf, sorted); return nil },
		func(a *Automation, x float64) (float64, error) { return a.ValueAt(x), nil },
	},
	{
		"derivatives",
		func(a *Automation, buf []float64, sorted bool) error { a.Derivatives(buf, sorted); return nil },
		func(a *Automation, x float64) (float64, error) { return a.DerivativeAt(x), nil },
	},
	{
		"integrals",
		func(a *Automation, buf []float64, sorted bool) error { a.Integrals(buf, sorted); return nil },
		func(a *Automation, x float64) (float64, error) { return a.IntegralAt(x), nil },
	},
	{
		"time integrals",
		func(a *Automation, buf []float64, sorted bool) error { return a.TimeIntegrals(buf, sorted) },
		func(a *Automation, x float64) (float64, error) { return a.TimeIntegralAt(x) },
	},
}

// positions returns random positions over [-1, length+2] plus every segment
// boundary, in random order.
func positions(a *Automation, n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	xs := make([]float64, 0, n+2*a.SegmentCount())
	for _, s := range a.Segments() {
		xs = append(xs, s.X1(), s.X2())
	}
	for len(xs) < cap(xs) {
		xs = append(xs, -1+rng.Float64()*(a.Length()+3))
	}
	rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
	return xs
}

func TestBatchMatchesPointwiseExactly(t *testing.T) {
	a := mixed(t)
	xs := positions(a, 500, 1)
	sortedXs := slices.Sorted(slices.Values(xs))

	for _, q := range batchQueries {
		t.Run(q.name, func(t *testing.T) {
			cases := []struct {
				name   string
				in     []float64
				sorted bool
			}{
				{"unsorted", xs, false},
				{"sorted hint", sortedXs, true},
				{"sorted detected", sortedXs, false},
			}
			for _, c := range cases {
				t.Run(c.name, func(t *testing.T) {
					buf := slices.Clone(c.in)
					require.NoError(t, q.batch(a, buf, c.sorted))
					for i, x := range c.in {
						want, err := q.point(a, x)
						require.NoError(t, err)
						if want != buf[i] {
							t.Fatalf("x=%v: batch %v, pointwise %v", x, buf[i], want)
						}
					}
				})
			}
		})
	}
}

func TestBatchDuplicatesAndBoundaries(t *testing.T) {
	a := holdThenRamp(t)
	buf := []float64{4, 4, 4, 8, 8, 0, 0}
	a.Values(buf, false)
	assert.Equal(t, []float64{60, 60, 60, 40, 40, 60, 60}, buf)

	buf = []float64{0, 0, 4, 4, 8, 8}
	a.Derivatives(buf, true)
	assert.Equal(t, []float64{0, 0, -5, -5, 0, 0}, buf)
}

func TestBatchIntegralsContinuousAcrossBoundaries(t *testing.T) {
	a := mixed(t)
	for _, s := range a.Segments() {
		x := s.X2()
		left := a.IntegralAt(x - 1e-9)
		right := a.IntegralAt(x)
		assert.InDelta(t, left, right, 1e-7, "integral at %g", x)

		tl, err := a.TimeIntegralAt(x - 1e-9)
		require.NoError(t, err)
		tr, err := a.TimeIntegralAt(x)
		require.NoError(t, err)
		assert.InDelta(t, tl, tr, 1e-7, "time integral at %g", x)
	}
}

func TestBatchIntegralsMatchQuadrature(t *testing.T) {
	a := mixed(t)
	end := a.Length()
	buf := []float64{end / 3, end / 2, end, end + 1}
	a.Integrals(buf, true)
	for i, x := range []float64{end / 3, end / 2, end, end + 1} {
		// Simpson across kinks converges slowly; integrate segment by segment.
		var want float64
		for _, s := range a.Segments() {
			if s.X1() >= x {
				break
			}
			hi := min(s.X2(), x)
			if hi > s.X1() {
				want += simpson(s.ValueAt, s.X1(), hi, 2000)
			}
		}
		if x > end {
			want += (x - end) * 4
		}
		assert.InDelta(t, want, buf[i], 1e-7, "x=%g", x)
	}
}

func TestBatchEmptyBuffer(t *testing.T) {
	a := mixed(t)
	a.Values(nil, false)
	assert.NoError(t, a.TimeIntegrals([]float64{}, true))
}

func TestLocateBounds(t *testing.T) {
	a := holdThenRamp(t)
	assert.Equal(t, 0, a.locate(-3))
	assert.Equal(t, 0, a.locate(3.99))
	assert.Equal(t, 1, a.locate(4))
	assert.Equal(t, 2, a.locate(8))
}

func BenchmarkValuesSorted(b *testing.B) {
	a := mixed(b)
	xs := slices.Sorted(slices.Values(positions(a, 4096, 2)))
	buf := make([]float64, len(xs))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(buf, xs)
		a.Values(buf, true)
	}
}

func BenchmarkValuesUnsorted(b *testing.B) {
	a := mixed(b)
	xs := positions(a, 4096, 2)
	buf := make([]float64, len(xs))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(buf, xs)
		a.Values(buf, false)
	}
}

func BenchmarkTimeIntegralsSorted(b *testing.B) {
	a := mixed(b)
	xs := slices.Sorted(slices.Values(positions(a, 4096, 3)))
	buf := make([]float64, len(xs))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(buf, xs)
		if err := a.TimeIntegrals(buf, true); err != nil {
			b.Fatal(err)
		}
	}
}
