package curvetext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/automation-go"
)

func TestParseHoldThenRamp(t *testing.T) {
	a, err := Parse("c4:60 l4:>40")
	require.NoError(t, err)
	require.Equal(t, 2, a.SegmentCount())
	assert.Equal(t, 8.0, a.Length())
	assert.Equal(t, 60.0, a.ValueAt(2))
	assert.InDelta(t, 50, a.ValueAt(6), 1e-12)
	assert.Equal(t, 40.0, a.ValueAt(10))
}

func TestParseShapes(t *testing.T) {
	a, err := Parse(`
		; swell then settle
		l2:0>1      ; fade in
		e2:60>80@70
		q4:>80@100  ; overshoot
		C1:5
		L1:9
	`)
	require.NoError(t, err)
	require.Equal(t, 5, a.SegmentCount())

	kinds := []automation.Kind{
		automation.KindLinear,
		automation.KindExponential,
		automation.KindQuadratic,
		automation.KindConstant,
		automation.KindLinear,
	}
	for i, want := range kinds {
		s, err := a.Segment(i)
		require.NoError(t, err)
		assert.Equal(t, want, s.Kind(), "segment %d", i)
	}

	q, err := a.Segment(2)
	require.NoError(t, err)
	assert.Equal(t, 80.0, q.Y1(), "start continues from previous end")
	assert.Equal(t, 100.0, q.YC())
	assert.InDelta(t, 100, a.ValueAt(6), 1e-9)

	last, err := a.Segment(4)
	require.NoError(t, err)
	assert.Equal(t, 5.0, last.Y1())
	assert.Equal(t, 9.0, last.Y2())
}

func TestParseEmpty(t *testing.T) {
	a, err := Parse("  ; nothing here\n")
	require.NoError(t, err)
	assert.Zero(t, a.SegmentCount())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		is   error
	}{
		{"unknown kind", "c1:2 x1:2", "unknown segment kind 'x' at 5", nil},
		{"missing colon", "l4 60", "expected ':' after length at 2", nil},
		{"bad number", "c1:6o", `invalid number "6o" at 3`, nil},
		{"no start", "l4:40", "missing start value at 3", nil},
		{"no start marker", "e2:>40@20", "missing start value at 3", nil},
		{"missing control", "c1:1 e2:>4", "expected '@' control value at", nil},
		{"trailing junk", "c1:1:2", "unexpected ':' at 4", nil},
		{"control out of range", "e2:1>4@5", "segment at 0", automation.ErrInvalidParameter},
		{"zero length ramp", "c1:1 l0:>2", "segment at 5", automation.ErrInvalidBounds},
		{"negative length", "c-1:3", "segment at 0", automation.ErrInvalidBounds},
		{"infinite value", "c1:inf", "segment at 0", automation.ErrInvalidParameter},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	in := "c4:60 l4:>40 e2:>80@50 q3:10>20@-5 c0:7 l1.5:3>3"
	a, err := Parse(in)
	require.NoError(t, err)
	assert.Equal(t, in, Format(a))

	b, err := Parse(Format(a))
	require.NoError(t, err)
	assert.Equal(t, a.Segments(), b.Segments())
}

func TestFormatExplicitStarts(t *testing.T) {
	first, err := automation.NewLinear(0, 1, 2, 3)
	require.NoError(t, err)
	second, err := automation.NewExponential(0, 10, 1, 20, 12)
	require.NoError(t, err)
	assert.Equal(t, "l2:1>3 e1:10>20@12", Format(automation.New(first, second)))
}
