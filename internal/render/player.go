package render

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cbegin/automation-go/internal/audio"
	"github.com/cbegin/automation-go/internal/osc"
)

// watchBuffer is the capacity of a Watch channel.
const watchBuffer = 8

type PlayerOption func(*playerSettings)

type playerSettings struct {
	loop          bool
	tap           func([]float32)
	waveform      osc.Waveform
	controlPeriod int
	echo          EchoOptions
	latency       time.Duration
	log           zerolog.Logger
}

func WithLoopPlayback(enabled bool) PlayerOption {
	return func(s *playerSettings) { s.loop = enabled }
}

// WithSampleTap receives every stereo block handed to the audio device.
// It runs on the audio goroutine and must not block.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(s *playerSettings) { s.tap = tap }
}

func WithWaveform(w osc.Waveform) PlayerOption {
	return func(s *playerSettings) { s.waveform = w }
}

// WithControlPeriod sets how many samples pass between lane evaluations.
func WithControlPeriod(samples int) PlayerOption {
	return func(s *playerSettings) { s.controlPeriod = samples }
}

// WithEcho adds the feedback delay; Lanes.Echo then drives its wet level.
func WithEcho(e EchoOptions) PlayerOption {
	return func(s *playerSettings) { s.echo = e }
}

// WithLatency sets the device buffer; zero keeps the backend default.
func WithLatency(d time.Duration) PlayerOption {
	return func(s *playerSettings) { s.latency = d }
}

func WithLogger(l zerolog.Logger) PlayerOption {
	return func(s *playerSettings) { s.log = l }
}

// session is one Play call: its voice and the device player reading it.
type session struct {
	voice  *Voice
	output *audio.Player
}

// Player renders lanes in real time to the system audio device.
type Player struct {
	sampleRate int
	settings   playerSettings

	mu     sync.Mutex
	volume float64
	cur    *session
	ended  chan struct{} // closed when the current session ends

	watchMu sync.Mutex
	watch   chan Event
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("render: player sample rate must be positive")
	}
	s := playerSettings{
		waveform:      osc.WaveSine,
		controlPeriod: DefaultControlPeriod,
		log:           zerolog.Nop(),
	}
	for _, o := range opts {
		o(&s)
	}
	return &Player{sampleRate: sampleRate, settings: s, volume: 1}, nil
}

// Play starts lanes from the beginning for the given number of seconds,
// replacing whatever was playing.
func (p *Player) Play(lanes Lanes, seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ended := make(chan struct{})
	voice, err := NewVoice(lanes, Options{
		SampleRate:    p.sampleRate,
		Seconds:       seconds,
		ControlPeriod: p.settings.controlPeriod,
		Waveform:      p.settings.waveform,
		Volume:        p.volume,
		Loop:          p.settings.loop,
		Echo:          p.settings.echo,
		OnEvent:       func(ev Event) { p.dispatch(ev, ended) },
		Logger:        p.settings.log,
	})
	if err != nil {
		return err
	}
	voice.tap = p.settings.tap
	out, err := audio.NewPlayer(p.sampleRate, voice,
		audio.WithBlockFrames(blockFrames(voice.opts.ControlPeriod)),
		audio.WithBufferSize(p.settings.latency),
	)
	if err != nil {
		return err
	}

	if prev := p.cur; prev != nil {
		_ = prev.output.Stop()
	}
	p.release()
	p.cur = &session{voice: voice, output: out}
	p.ended = ended
	out.Play()
	p.settings.log.Info().
		Float64("seconds", seconds).
		Bool("loop", p.settings.loop).
		Msg("playback started")
	return nil
}

// blockFrames is the device block size rounded down to whole control
// periods, so each Fill samples the lanes over the same number of ticks.
func blockFrames(period int) int {
	return max(1, audio.DefaultBlockFrames/period) * period
}

// release closes the pending end channel. Callers hold p.mu.
func (p *Player) release() {
	if p.ended != nil {
		close(p.ended)
		p.ended = nil
	}
}

func (p *Player) current() *session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

// SetLanes replaces the lanes of the running playback in place.
func (p *Player) SetLanes(lanes Lanes) {
	if s := p.current(); s != nil {
		s.voice.SetLanes(lanes)
	}
}

// dispatch is the voice's event hook. It runs on the audio goroutine; the end
// of a replaced session leaves the current one alone.
func (p *Player) dispatch(ev Event, ended chan struct{}) {
	p.publish(ev)
	if ev.Kind == EventPlaybackEnded {
		p.mu.Lock()
		if p.ended == ended {
			p.release()
		}
		p.mu.Unlock()
	}
}

func (p *Player) publish(ev Event) {
	p.watchMu.Lock()
	ch := p.watch
	p.watchMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
		p.settings.log.Debug().Stringer("event", ev.Kind).Msg("watch channel full, event dropped")
	}
}

func (p *Player) Pause() {
	if s := p.current(); s != nil {
		s.output.Pause()
	}
}

func (p *Player) Resume() {
	if s := p.current(); s != nil {
		s.output.Play()
	}
}

// Stop ends playback, releases any Wait and publishes EventPlaybackEnded.
func (p *Player) Stop() error {
	p.mu.Lock()
	s := p.cur
	if s == nil {
		p.mu.Unlock()
		return nil
	}
	p.cur = nil
	err := s.output.Stop()
	p.release()
	p.mu.Unlock()
	p.settings.log.Debug().Int64("rendered_frames", s.output.Rendered()).Msg("playback stopped")

	p.publish(Event{Kind: EventPlaybackEnded})
	return err
}

// Wait blocks until the current playback ends; with looping that is the next
// Stop. It returns at once when nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	ended := p.ended
	p.mu.Unlock()
	if ended != nil {
		<-ended
	}
}

// Watch returns a channel of beats, loop completions and the end of playback.
// Events are dropped while the channel is full, and only the latest Watch
// channel is served.
func (p *Player) Watch() <-chan Event {
	ch := make(chan Event, watchBuffer)
	p.watchMu.Lock()
	p.watch = ch
	p.watchMu.Unlock()
	return ch
}

// SetMasterVolume scales the output; negative values clamp to 0.
func (p *Player) SetMasterVolume(volume float64) {
	volume = max(volume, 0)
	p.mu.Lock()
	p.volume = volume
	s := p.cur
	p.mu.Unlock()
	// Voice events are emitted under the voice lock and take p.mu.
	if s != nil {
		s.voice.SetVolume(volume)
	}
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// PlaybackPosition is the device's output position in frames, 0 when idle.
func (p *Player) PlaybackPosition() int64 {
	s := p.current()
	if s == nil {
		return 0
	}
	return int64(s.output.Position().Seconds() * float64(p.sampleRate))
}
