// Package effects holds stereo processors applied after the oscillator.
package effects

// MaxFeedback bounds the echo feedback so the tail always decays.
const MaxFeedback = 0.95

// Echo is a stereo feedback delay. The wet level is passed with every frame
// so an automation lane can sweep it; the buffers keep filling while the mix
// is 0, so raising it brings back the recent tail.
type Echo struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	cross      float32
}

// NewEcho creates an echo of delayMs milliseconds, at least one frame.
// cross moves that share of the feedback to the opposite channel.
func NewEcho(sampleRate int, delayMs float64, feedback, cross float32) *Echo {
	frames := max(1, int(delayMs*float64(sampleRate)/1000))
	return &Echo{
		bufL:     make([]float32, frames),
		bufR:     make([]float32, frames),
		feedback: clamp(feedback, 0, MaxFeedback),
		cross:    clamp(cross, 0, 1),
	}
}

// Frames is the delay length in frames.
func (e *Echo) Frames() int { return len(e.bufL) }

// Process mixes one frame with the tail at wet level mix, clamped to 0..1.
func (e *Echo) Process(l, r, mix float32) (float32, float32) {
	tapL, tapR := e.bufL[e.pos], e.bufR[e.pos]
	keep, swap := e.feedback*(1-e.cross), e.feedback*e.cross
	e.bufL[e.pos] = l + tapL*keep + tapR*swap
	e.bufR[e.pos] = r + tapR*keep + tapL*swap
	if e.pos++; e.pos == len(e.bufL) {
		e.pos = 0
	}
	mix = clamp(mix, 0, 1)
	return l + (tapL-l)*mix, r + (tapR-r)*mix
}

func (e *Echo) Reset() {
	clear(e.bufL)
	clear(e.bufR)
	e.pos = 0
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
