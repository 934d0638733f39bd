package osc

import (
	"math"
	"testing"
)

func TestTriangleShape(t *testing.T) {
	o := New(WaveTriangle)
	sr := 100.0 // 100 samples per cycle at 1 Hz
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = o.Sample(1, sr)
	}
	if math.Abs(samples[0]+1) > 1e-9 {
		t.Errorf("triangle at phase 0: got %f, want -1", samples[0])
	}
	if math.Abs(samples[25]) > 1e-9 {
		t.Errorf("triangle at phase 0.25: got %f, want 0", samples[25])
	}
	if math.Abs(samples[50]-1) > 1e-9 {
		t.Errorf("triangle at phase 0.5: got %f, want 1", samples[50])
	}
}

func TestSineQuarterCycle(t *testing.T) {
	o := New(WaveSine)
	var v float64
	for i := 0; i <= 25; i++ {
		v = o.Sample(1, 100)
	}
	if math.Abs(v-1) > 1e-9 {
		t.Errorf("sine at phase 0.25: got %f, want 1", v)
	}
}

func TestSquareAndSaw(t *testing.T) {
	sq := New(WaveSquare)
	if v := sq.Sample(2, 100); v != 1 {
		t.Errorf("square first half: got %f, want 1", v)
	}
	for i := 1; i < 30; i++ {
		sq.Sample(2, 100)
	}
	if v := sq.Sample(2, 100); v != -1 {
		t.Errorf("square second half: got %f, want -1", v)
	}

	saw := New(WaveSaw)
	if v := saw.Sample(1, 100); v != 1 {
		t.Errorf("saw at phase 0: got %f, want 1", v)
	}
}

func TestSweepKeepsPhaseContinuous(t *testing.T) {
	o := New(WaveSine)
	for i := 0; i < 1000; i++ {
		o.Sample(220+float64(i), 48000)
		if p := o.Phase(); p < 0 || p >= 1 {
			t.Fatalf("phase %f out of [0,1) at sample %d", p, i)
		}
	}
}

func TestSilentWhenFrequencyInvalid(t *testing.T) {
	o := New(WaveSquare)
	if v := o.Sample(0, 48000); v != 0 {
		t.Errorf("zero frequency: got %f, want 0", v)
	}
	if o.Phase() != 0 {
		t.Errorf("phase advanced on zero frequency")
	}
	o.Sample(1000, 48000)
	o.Reset()
	if o.Phase() != 0 {
		t.Errorf("reset: phase = %f", o.Phase())
	}
}

func TestParseWaveform(t *testing.T) {
	for _, name := range []string{"sine", "saw", "square", "triangle"} {
		w, err := ParseWaveform(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if w.String() != name {
			t.Errorf("round trip %q -> %q", name, w.String())
		}
	}
	if _, err := ParseWaveform("organ"); err == nil {
		t.Error("expected error for unknown waveform")
	}
}
