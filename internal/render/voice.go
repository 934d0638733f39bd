// Package render turns automation lanes into audio: a gain lane and a pitch
// lane drive an oscillator, an optional tempo map adds a click on every beat,
// and an optional echo follows a wet-mix lane.
package render

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cbegin/automation-go"
	"github.com/cbegin/automation-go/internal/effects"
	"github.com/cbegin/automation-go/internal/osc"
	"github.com/cbegin/automation-go/internal/tempo"
)

const (
	DefaultGain          = 1.0
	DefaultPitchHz       = 440.0
	DefaultControlPeriod = 64

	clickHz      = 1760.0
	clickSeconds = 0.012
	clickLevel   = 0.35
)

// Lanes are the automations a voice follows. Gain, pitch and echo run over
// seconds; nil lanes hold DefaultGain, DefaultPitchHz and Options.Echo.Mix.
// A nil Tempo means no clicks. Echo only matters when Options.Echo enables
// the effect.
type Lanes struct {
	Gain  *automation.Automation
	Pitch *automation.Automation
	Echo  *automation.Automation
	Tempo *tempo.Map
}

type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
	EventBeat
)

func (k EventKind) String() string {
	switch k {
	case EventLoopCompleted:
		return "loop completed"
	case EventPlaybackEnded:
		return "playback ended"
	case EventBeat:
		return "beat"
	}
	return "unknown"
}

// Event is reported through Options.OnEvent. Beat is set for EventBeat.
type Event struct {
	Kind EventKind
	Beat int
}

type Options struct {
	SampleRate    int
	Seconds       float64
	ControlPeriod int // samples between lane evaluations; 0 means DefaultControlPeriod
	Waveform      osc.Waveform
	Volume        float64
	Loop          bool
	Echo          EchoOptions
	OnEvent       func(Event)
	Logger        zerolog.Logger
}

// EchoOptions configures the feedback delay after the oscillator. A zero
// DelayMs leaves it out.
type EchoOptions struct {
	DelayMs  float64
	Feedback float64 // clamped to 0..effects.MaxFeedback
	Cross    float64 // share of feedback sent to the other channel
	Mix      float64 // wet level while Lanes.Echo is nil
}

func (e EchoOptions) enabled() bool { return e.DelayMs > 0 }

var (
	errSampleRate = errors.New("render: sample rate must be positive")
	errSeconds    = errors.New("render: duration must be positive")
)

func (o *Options) normalize() error {
	if o.SampleRate <= 0 {
		return errSampleRate
	}
	if !(o.Seconds > 0) {
		return errSeconds
	}
	if o.ControlPeriod <= 0 {
		o.ControlPeriod = DefaultControlPeriod
	}
	if o.Volume < 0 {
		o.Volume = 0
	}
	return nil
}

func (o Options) totalFrames() int64 {
	return int64(math.Round(o.Seconds * float64(o.SampleRate)))
}

// ticksFor returns how many control ticks cover frames [f0, f0+n),
// including the tick after the last frame so every frame can interpolate.
func (o Options) ticksFor(f0, n int64) (k0 int64, count int) {
	p := int64(o.ControlPeriod)
	k0 = f0 / p
	k1 := (f0+n-1)/p + 1
	return k0, int(k1 - k0 + 1)
}

// sampleLane writes lane values at control ticks k0, k0+1, ... into buf
// through the sorted batch path.
func sampleLane(a *automation.Automation, def float64, buf []float64, k0 int64, o Options) {
	if a == nil {
		for i := range buf {
			buf[i] = def
		}
		return
	}
	step := float64(o.ControlPeriod) / float64(o.SampleRate)
	for i := range buf {
		buf[i] = float64(k0+int64(i)) * step
	}
	a.Values(buf, true)
}

// beatTimes returns the click times within the first seconds of m.
func beatTimes(m *tempo.Map, seconds float64) []float64 {
	if m == nil {
		return nil
	}
	return m.BeatTimesBefore(seconds)
}

// controls holds lane values at consecutive control ticks. mix is only
// read when the synth has an echo.
type controls struct {
	gain, pitch, mix []float64
}

// sample fills c with count ticks from k0, reusing its buffers.
func (c *controls) sample(lanes Lanes, o Options, k0 int64, count int) {
	c.gain = grow(c.gain, count)
	c.pitch = grow(c.pitch, count)
	sampleLane(lanes.Gain, DefaultGain, c.gain, k0, o)
	sampleLane(lanes.Pitch, DefaultPitchHz, c.pitch, k0, o)
	if o.Echo.enabled() {
		c.mix = grow(c.mix, count)
		sampleLane(lanes.Echo, o.Echo.Mix, c.mix, k0, o)
	}
}

// synth renders frames from control values. It owns the oscillator phases,
// the click envelope and the echo so both realtime and offline paths sound
// the same.
type synth struct {
	opts      Options
	tone      *osc.Oscillator
	click     *osc.Oscillator
	clickLeft int
	clickLen  int
	beats     []float64
	nextBeat  int
	echo      *effects.Echo
}

func newSynth(o Options) *synth {
	s := &synth{
		opts:     o,
		tone:     osc.New(o.Waveform),
		click:    osc.New(osc.WaveSine),
		clickLen: max(1, int(clickSeconds*float64(o.SampleRate))),
	}
	if o.Echo.enabled() {
		s.echo = effects.NewEcho(o.SampleRate, o.Echo.DelayMs, float32(o.Echo.Feedback), float32(o.Echo.Cross))
	}
	return s
}

func (s *synth) restart() {
	s.tone.Reset()
	s.click.Reset()
	s.clickLeft = 0
	s.nextBeat = 0
	if s.echo != nil {
		s.echo.Reset()
	}
}

// seekBeats skips beats before frame f, used after lanes are swapped
// mid-playback.
func (s *synth) seekBeats(f int64) {
	t := float64(f) / float64(s.opts.SampleRate)
	s.nextBeat = 0
	for s.nextBeat < len(s.beats) && s.beats[s.nextBeat] < t {
		s.nextBeat++
	}
}

// render fills dst with stereo frames starting at frame f0. c holds control
// values from tick k0.
func (s *synth) render(dst []float32, f0, k0 int64, c *controls, volume float64) {
	p := int64(s.opts.ControlPeriod)
	sr := float64(s.opts.SampleRate)
	for i := 0; i+1 < len(dst); i += 2 {
		f := f0 + int64(i/2)
		k := f/p - k0
		frac := float64(f%p) / float64(p)
		g := lerp(c.gain, k, frac)
		hz := lerp(c.pitch, k, frac)

		for s.nextBeat < len(s.beats) && s.beats[s.nextBeat]*sr <= float64(f) {
			if s.opts.OnEvent != nil {
				s.opts.OnEvent(Event{Kind: EventBeat, Beat: s.nextBeat})
			}
			s.nextBeat++
			s.clickLeft = s.clickLen
			s.click.Reset()
		}

		v := g * s.tone.Sample(hz, sr)
		if s.clickLeft > 0 {
			env := float64(s.clickLeft) / float64(s.clickLen)
			v += clickLevel * env * s.click.Sample(clickHz, sr)
			s.clickLeft--
		}
		l := float32(v * volume)
		r := l
		if s.echo != nil {
			l, r = s.echo.Process(l, r, float32(lerp(c.mix, k, frac)))
		}
		dst[i], dst[i+1] = l, r
	}
}

func lerp(ticks []float64, k int64, frac float64) float64 {
	return ticks[k] + (ticks[k+1]-ticks[k])*frac
}

// Voice is a realtime Source. Lanes and volume may change while it plays.
type Voice struct {
	mu       sync.Mutex
	opts     Options
	lanes    Lanes
	synth    *synth
	frame    int64
	total    int64
	volume   float64
	ctl      controls
	finished atomic.Bool
	tap      func([]float32)
}

func NewVoice(lanes Lanes, opts Options) (*Voice, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	v := &Voice{
		opts:   opts,
		lanes:  lanes,
		synth:  newSynth(opts),
		total:  max(opts.totalFrames(), 1),
		volume: opts.Volume,
	}
	v.synth.beats = beatTimes(lanes.Tempo, opts.Seconds)
	return v, nil
}

// SetLanes swaps the lanes. Playback continues from the current position.
func (v *Voice) SetLanes(lanes Lanes) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lanes = lanes
	v.synth.beats = beatTimes(lanes.Tempo, v.opts.Seconds)
	v.synth.seekBeats(v.frame)
	v.opts.Logger.Debug().Int64("frame", v.frame).Int("beats", len(v.synth.beats)).Msg("lanes swapped")
}

func (v *Voice) SetVolume(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = max(volume, 0)
}

func (v *Voice) Finished() bool { return v.finished.Load() }

// Fill renders the next len(dst)/2 frames. After the last frame of a
// non-looping voice it writes silence.
func (v *Voice) Fill(dst []float32) {
	v.mu.Lock()
	defer v.mu.Unlock()

	all := dst
	for len(dst) >= 2 {
		if v.frame >= v.total {
			if !v.opts.Loop {
				clear(dst)
				if !v.finished.Swap(true) && v.opts.OnEvent != nil {
					v.opts.OnEvent(Event{Kind: EventPlaybackEnded})
				}
				break
			}
			v.frame = 0
			v.synth.restart()
			if v.opts.OnEvent != nil {
				v.opts.OnEvent(Event{Kind: EventLoopCompleted})
			}
		}
		n := min(int64(len(dst)/2), v.total-v.frame)
		v.fillBlock(dst[:2*n])
		dst = dst[2*n:]
		v.frame += n
	}
	if v.tap != nil {
		v.tap(all)
	}
}

func (v *Voice) fillBlock(dst []float32) {
	n := int64(len(dst) / 2)
	k0, count := v.opts.ticksFor(v.frame, n)
	v.ctl.sample(v.lanes, v.opts, k0, count)
	v.synth.render(dst, v.frame, k0, &v.ctl, v.volume)
}

func grow(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
