// Package audio feeds interleaved float32 stereo frames to the ebiten audio
// backend.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

const (
	bytesPerFrame = 8 // two float32 channels

	// DefaultBlockFrames is the source block size when none is configured.
	DefaultBlockFrames = 512
)

// Source fills dst with interleaved stereo samples.
type Source interface {
	Fill(dst []float32)
}

// Finisher is a Source that can end. The block during which Finished turns
// true is the last one the stream delivers.
type Finisher interface {
	Source
	Finished() bool
}

// Stream is the io.Reader the F32 backend pulls from. The source is always
// asked for whole blocks of the same size; bytes of a block the reader did
// not take are served by the next Read.
type Stream struct {
	mu      sync.Mutex
	source  Source
	block   []float32
	encoded []byte
	pending []byte
	ended   bool
	frames  atomic.Int64
}

func NewStream(source Source, blockFrames int) *Stream {
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}
	return &Stream{
		source:  source,
		block:   make([]float32, 2*blockFrames),
		encoded: make([]byte, 0, blockFrames*bytesPerFrame),
	}
}

// Read fills p completely unless the source has finished, in which case it
// returns what is left with io.EOF.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for n < len(p) {
		if len(s.pending) == 0 {
			if s.ended {
				break
			}
			s.next()
		}
		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	if s.ended && len(s.pending) == 0 {
		return n, io.EOF
	}
	return n, nil
}

// next renders and encodes one block. pending is empty when it runs, so the
// encoded buffer can be reused.
func (s *Stream) next() {
	s.source.Fill(s.block)
	buf := s.encoded[:0]
	for _, v := range s.block {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	s.encoded, s.pending = buf, buf
	s.frames.Add(int64(len(s.block) / 2))
	if f, ok := s.source.(Finisher); ok && f.Finished() {
		s.ended = true
	}
}

// Frames returns how many frames the source has rendered. Whole blocks are
// rendered ahead of the reader and the backend buffers further, so this runs
// ahead of what is audible.
func (s *Stream) Frames() int64 { return s.frames.Load() }

// device is the process-wide audio context. ebiten allows one per process,
// so every later caller must ask for the same rate.
var device struct {
	once sync.Once
	ctx  *ebitaudio.Context
	rate int
}

func deviceContext(sampleRate int) (*ebitaudio.Context, error) {
	device.once.Do(func() {
		device.rate = sampleRate
		device.ctx = ebitaudio.NewContext(sampleRate)
	})
	if device.rate != sampleRate {
		return nil, fmt.Errorf("audio: device already running at %d Hz (requested %d Hz)", device.rate, sampleRate)
	}
	return device.ctx, nil
}

type Option func(*settings)

type settings struct {
	blockFrames int
	bufferSize  time.Duration
}

// WithBlockFrames sets how many frames the source renders per Fill.
func WithBlockFrames(n int) Option {
	return func(s *settings) { s.blockFrames = n }
}

// WithBufferSize sets the backend buffer, trading latency for robustness.
// Zero keeps the backend default.
func WithBufferSize(d time.Duration) Option {
	return func(s *settings) { s.bufferSize = d }
}

// Player plays one Source on the audio device.
type Player struct {
	out     *ebitaudio.Player
	stream  *Stream
	stopped atomic.Bool
}

func NewPlayer(sampleRate int, source Source, opts ...Option) (*Player, error) {
	var s settings
	for _, o := range opts {
		o(&s)
	}
	ctx, err := deviceContext(sampleRate)
	if err != nil {
		return nil, err
	}
	stream := NewStream(source, s.blockFrames)
	out, err := ctx.NewPlayerF32(stream)
	if err != nil {
		return nil, err
	}
	if s.bufferSize > 0 {
		out.SetBufferSize(s.bufferSize)
	}
	return &Player{out: out, stream: stream}, nil
}

func (p *Player) Play()           { p.out.Play() }
func (p *Player) Pause()          { p.out.Pause() }
func (p *Player) IsPlaying() bool { return p.out.IsPlaying() }

// Position returns what the listener currently hears.
func (p *Player) Position() time.Duration { return p.out.Position() }

// Rendered returns how many frames the source has produced so far.
func (p *Player) Rendered() int64 { return p.stream.Frames() }

// Stop releases the device player. Calls after the first are no-ops.
func (p *Player) Stop() error {
	if p.stopped.Swap(true) {
		return nil
	}
	p.out.Pause()
	return p.out.Close()
}
