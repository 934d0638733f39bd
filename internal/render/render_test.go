package render

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/automation-go"
	"github.com/cbegin/automation-go/internal/curvetext"
	"github.com/cbegin/automation-go/internal/osc"
	"github.com/cbegin/automation-go/internal/tempo"
)

func curve(t *testing.T, text string) *automation.Automation {
	t.Helper()
	a, err := curvetext.Parse(text)
	require.NoError(t, err)
	return a
}

func testOptions() Options {
	return Options{
		SampleRate:    8000,
		Seconds:       0.5,
		ControlPeriod: 32,
		Waveform:      osc.WaveSquare,
		Volume:        1,
	}
}

func peak(samples []float32) float64 {
	var m float64
	for _, s := range samples {
		m = math.Max(m, math.Abs(float64(s)))
	}
	return m
}

func TestRenderLength(t *testing.T) {
	out, err := Render(context.Background(), Lanes{}, testOptions())
	require.NoError(t, err)
	assert.Len(t, out, 2*4000)
	for i := 0; i+1 < len(out); i += 2 {
		require.Equal(t, out[i], out[i+1], "left and right match")
	}
	assert.InDelta(t, 1, peak(out), 1e-9, "square at default gain")
}

func TestRenderFollowsGainLane(t *testing.T) {
	opts := testOptions()
	lanes := Lanes{Gain: curve(t, "c0.25:0 c0.25:0.5")}
	out, err := Render(context.Background(), lanes, opts)
	require.NoError(t, err)

	half := len(out) / 2
	// The control tick straddling the step interpolates; skip one period.
	guard := 2 * opts.ControlPeriod
	assert.Zero(t, peak(out[:half-guard]))
	assert.InDelta(t, 0.5, peak(out[half+guard:]), 1e-6)
}

func TestRenderPitchSweepCrossings(t *testing.T) {
	opts := testOptions()
	opts.Waveform = osc.WaveSaw
	opts.Seconds = 1
	// 100 Hz held, so exactly 100 saw resets in one second.
	out, err := Render(context.Background(), Lanes{Pitch: curve(t, "c1:100")}, opts)
	require.NoError(t, err)
	resets := 0
	for i := 2; i < len(out); i += 2 {
		if out[i] > out[i-2]+1 {
			resets++
		}
	}
	assert.InDelta(t, 100, resets, 1)
}

func TestRenderBeatEvents(t *testing.T) {
	bpm, err := tempo.New(curve(t, "c8:240"))
	require.NoError(t, err)
	opts := testOptions()
	opts.Seconds = 1
	var beats []int
	opts.OnEvent = func(ev Event) {
		if ev.Kind == EventBeat {
			beats = append(beats, ev.Beat)
		}
	}
	_, err = Render(context.Background(), Lanes{Tempo: bpm, Gain: curve(t, "c1:0")}, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, beats, "240 bpm gives a beat every 0.25 s")
}

func TestRenderClickIsAudibleOverSilence(t *testing.T) {
	bpm, err := tempo.New(curve(t, "c4:120"))
	require.NoError(t, err)
	opts := testOptions()
	out, err := Render(context.Background(), Lanes{Tempo: bpm, Gain: curve(t, "c1:0")}, opts)
	require.NoError(t, err)
	clickFrames := int(clickSeconds * float64(opts.SampleRate))
	assert.Greater(t, peak(out[:2*clickFrames]), 0.1)
	assert.Zero(t, peak(out[2*clickFrames+2:]))
}

func TestRenderEchoFollowsMixLane(t *testing.T) {
	opts := testOptions()
	// A 50 ms burst, then silence; the echo repeats it 100 ms (800 frames) later.
	lanes := Lanes{Gain: curve(t, "c0.05:1 c0.45:0")}
	plain, err := Render(context.Background(), lanes, opts)
	require.NoError(t, err)

	opts.Echo = EchoOptions{DelayMs: 100}
	lanes.Echo = curve(t, "c0.5:0")
	dry, err := Render(context.Background(), lanes, opts)
	require.NoError(t, err)
	assert.Equal(t, plain, dry, "a zero mix lane passes the signal through")

	lanes.Echo = curve(t, "c0.5:1")
	wet, err := Render(context.Background(), lanes, opts)
	require.NoError(t, err)
	assert.Zero(t, peak(wet[:2*800]))
	assert.InDelta(t, 1, peak(wet[2*800:2*1200]), 1e-6)
	assert.Zero(t, peak(wet[2*1300:]))

	lanes.Echo = nil
	opts.Echo.Mix = 1
	held, err := Render(context.Background(), lanes, opts)
	require.NoError(t, err)
	assert.Equal(t, wet, held, "a nil lane holds EchoOptions.Mix")
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Render(ctx, Lanes{}, testOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderRejectsBadOptions(t *testing.T) {
	opts := testOptions()
	opts.SampleRate = 0
	_, err := Render(context.Background(), Lanes{}, opts)
	assert.ErrorIs(t, err, errSampleRate)

	opts = testOptions()
	opts.Seconds = 0
	_, err = Render(context.Background(), Lanes{}, opts)
	assert.ErrorIs(t, err, errSeconds)
}

func TestVoiceMatchesOfflineRender(t *testing.T) {
	bpm, err := tempo.New(curve(t, "l4:100>200"))
	require.NoError(t, err)
	lanes := Lanes{
		Gain:  curve(t, "l0.2:0>1 e0.3:>0.1@0.3"),
		Pitch: curve(t, "e0.5:200>800@300"),
		Echo:  curve(t, "l0.5:0>0.8"),
		Tempo: bpm,
	}
	opts := testOptions()
	opts.Echo = EchoOptions{DelayMs: 30, Feedback: 0.4, Cross: 0.3}
	want, err := Render(context.Background(), lanes, opts)
	require.NoError(t, err)

	v, err := NewVoice(lanes, opts)
	require.NoError(t, err)
	got := make([]float32, 0, len(want))
	for _, block := range []int{1, 7, 100, 333, 1024, 4096} {
		buf := make([]float32, 2*block)
		v.Fill(buf)
		got = append(got, buf...)
	}
	require.GreaterOrEqual(t, len(got), len(want))
	assert.Equal(t, want, got[:len(want)])
	assert.True(t, v.Finished())
	assert.Zero(t, peak(got[len(want):]))
}

func TestVoiceLoops(t *testing.T) {
	opts := testOptions()
	opts.Seconds = 0.01 // 80 frames
	opts.Loop = true
	loops := 0
	opts.OnEvent = func(ev Event) {
		if ev.Kind == EventLoopCompleted {
			loops++
		}
	}
	v, err := NewVoice(Lanes{}, opts)
	require.NoError(t, err)
	v.Fill(make([]float32, 2*250))
	assert.Equal(t, 3, loops)
	assert.False(t, v.Finished())
}

func TestVoiceSetLanesAndVolume(t *testing.T) {
	opts := testOptions()
	v, err := NewVoice(Lanes{Gain: curve(t, "c1:0")}, opts)
	require.NoError(t, err)
	buf := make([]float32, 2*256)
	v.Fill(buf)
	assert.Zero(t, peak(buf))

	v.SetLanes(Lanes{Gain: curve(t, "c1:1")})
	v.SetVolume(0.25)
	buf = make([]float32, 2*256)
	v.Fill(buf)
	assert.InDelta(t, 0.25, peak(buf[2*opts.ControlPeriod:]), 1e-6)

	var tapped int
	v.tap = func(b []float32) { tapped += len(b) }
	v.Fill(buf)
	assert.Equal(t, len(buf), tapped)
}

func TestBlockFramesAlignToControlPeriod(t *testing.T) {
	assert.Equal(t, 512, blockFrames(64))
	assert.Equal(t, 500, blockFrames(100))
	assert.Equal(t, 2000, blockFrames(2000), "a period longer than the default block")
}

func TestEncodeWAVFloat32LE(t *testing.T) {
	wav := EncodeWAVFloat32LE([]float32{0.5, -0.5}, 48000, 2)
	require.Len(t, wav, 52)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(wav[20:]))
	assert.Equal(t, uint32(48000*2*4), binary.LittleEndian.Uint32(wav[28:]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(wav[40:]))
	assert.Equal(t, float32(-0.5), math.Float32frombits(binary.LittleEndian.Uint32(wav[48:])))
}

func TestPlayerMasterVolumeRuntimeAPI(t *testing.T) {
	pl, err := NewPlayer(48000, WithWaveform(osc.WaveTriangle), WithControlPeriod(128))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pl.MasterVolume())
	pl.SetMasterVolume(0.35)
	assert.Equal(t, 0.35, pl.MasterVolume())
	pl.SetMasterVolume(-2)
	assert.Zero(t, pl.MasterVolume())
	assert.Zero(t, pl.PlaybackPosition())
	assert.NoError(t, pl.Stop())
	pl.Wait()

	_, err = NewPlayer(0)
	assert.Error(t, err)
}
