package render

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// renderChunk is the number of frames synthesized between cancellation
// checks.
const renderChunk = 1 << 14

// Render synthesizes opts.Seconds of lanes into interleaved stereo samples.
// The lanes are sampled at control rate concurrently, then the oscillator
// runs over the whole buffer. Loop and OnEvent beat reporting behave as for
// a single non-looping pass.
func Render(ctx context.Context, lanes Lanes, opts Options) ([]float32, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	start := time.Now()
	frames := max(opts.totalFrames(), 1)
	_, ticks := opts.ticksFor(0, frames)
	c := &controls{
		gain:  make([]float64, ticks),
		pitch: make([]float64, ticks),
	}
	var beats []float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		sampleLane(lanes.Gain, DefaultGain, c.gain, 0, opts)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		sampleLane(lanes.Pitch, DefaultPitchHz, c.pitch, 0, opts)
		return nil
	})
	if opts.Echo.enabled() {
		c.mix = make([]float64, ticks)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sampleLane(lanes.Echo, opts.Echo.Mix, c.mix, 0, opts)
			return nil
		})
	}
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		beats = beatTimes(lanes.Tempo, opts.Seconds)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := newSynth(opts)
	s.beats = beats
	out := make([]float32, 2*frames)
	for f := int64(0); f < frames; f += renderChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(renderChunk, frames-f)
		s.render(out[2*f:2*(f+n)], f, 0, c, opts.Volume)
	}
	opts.Logger.Info().
		Int64("frames", frames).
		Int("control_ticks", ticks).
		Int("beats", len(beats)).
		Bool("echo", s.echo != nil).
		Dur("took", time.Since(start)).
		Msg("render complete")
	return out, nil
}

// EncodeWAVFloat32LE wraps interleaved samples in a RIFF/WAVE container
// with IEEE float format.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	const headerSize = 44
	dataSize := len(samples) * 4
	out := make([]byte, headerSize+dataSize)
	le := binary.LittleEndian

	copy(out[0:], "RIFF")
	le.PutUint32(out[4:], uint32(headerSize-8+dataSize))
	copy(out[8:], "WAVE")

	copy(out[12:], "fmt ")
	le.PutUint32(out[16:], 16)
	le.PutUint16(out[20:], 3) // WAVE_FORMAT_IEEE_FLOAT
	le.PutUint16(out[22:], uint16(channels))
	le.PutUint32(out[24:], uint32(sampleRate))
	le.PutUint32(out[28:], uint32(sampleRate*channels*4))
	le.PutUint16(out[32:], uint16(channels*4))
	le.PutUint16(out[34:], 32)

	copy(out[36:], "data")
	le.PutUint32(out[40:], uint32(dataSize))
	for i, v := range samples {
		le.PutUint32(out[headerSize+i*4:], math.Float32bits(v))
	}
	return out
}
