package automation

import "errors"

// Error kinds returned by the engine. Callers match them with errors.Is; the
// returned errors wrap these with the offending values.
var (
	// ErrInvalidBounds reports x2 < x1, a negative length, or a zero length
	// on a shape that cannot have one.
	ErrInvalidBounds = errors.New("automation: invalid segment bounds")
	// ErrInvalidParameter reports a shape parameter outside its domain, such
	// as an exponential control point outside (min(y1,y2), max(y1,y2)).
	ErrInvalidParameter = errors.New("automation: invalid segment parameter")
	// ErrIndexOutOfBounds reports a structural index outside the sequence.
	ErrIndexOutOfBounds = errors.New("automation: index out of bounds")
	// ErrDegenerateScale reports a scale that would collapse a segment.
	ErrDegenerateScale = errors.New("automation: degenerate scale")
	// ErrUndefinedTimeIntegral reports a time integral over a function whose
	// minimum is not strictly positive.
	ErrUndefinedTimeIntegral = errors.New("automation: time integral undefined")
)
