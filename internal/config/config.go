// Package config loads render documents: output settings plus the gain,
// pitch and tempo automation lanes and an optional echo with its mix lane.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/automation-go"
	"github.com/cbegin/automation-go/internal/curvetext"
)

var validate = validator.New()

// Segment is one structured lane segment. A missing y1 continues from the
// previous segment's end value. Constants use c.
type Segment struct {
	Kind   string   `yaml:"kind" validate:"oneof=constant linear exponential quadratic"`
	Length float64  `yaml:"length" validate:"gte=0"`
	Y1     *float64 `yaml:"y1,omitempty"`
	Y2     float64  `yaml:"y2,omitempty"`
	YC     float64  `yaml:"yc,omitempty"`
	C      float64  `yaml:"c,omitempty"`
}

// Lane is an automation written either as curve notation or as a segment
// list, not both.
type Lane struct {
	Curve    string    `yaml:"curve,omitempty" validate:"required_without=Segments,excluded_with=Segments"`
	Segments []Segment `yaml:"segments,omitempty" validate:"required_without=Curve,excluded_with=Curve,dive"`
}

// Echo is the feedback delay after the oscillator. Mix is its wet level over
// seconds and must stay within 0..1.
type Echo struct {
	DelayMs  float64 `yaml:"delay_ms" validate:"gt=0,lte=2000"`
	Feedback float64 `yaml:"feedback" validate:"gte=0,lt=1"`
	Cross    float64 `yaml:"cross,omitempty" validate:"gte=0,lte=1"`
	Mix      *Lane   `yaml:"mix" validate:"required"`
}

// Config is a render document. Gain and pitch lanes run over seconds, the
// tempo lane over beats; a nil lane falls back to the renderer's default.
type Config struct {
	SampleRate    int     `yaml:"sample_rate" validate:"gt=0"`
	ControlPeriod int     `yaml:"control_period" validate:"gt=0"` // samples per lane tick
	Seconds       float64 `yaml:"seconds" validate:"gt=0"`
	Waveform      string  `yaml:"waveform" validate:"oneof=sine saw square triangle"`
	Volume        float64 `yaml:"volume" validate:"gte=0"`
	Loop          bool    `yaml:"loop,omitempty"`

	Gain  *Lane `yaml:"gain,omitempty"`
	Pitch *Lane `yaml:"pitch,omitempty"`
	Tempo *Lane `yaml:"tempo,omitempty"`
	Echo  *Echo `yaml:"echo,omitempty"`
}

func Default() *Config {
	return &Config{
		SampleRate:    48000,
		ControlPeriod: 64,
		Seconds:       4,
		Waveform:      "sine",
		Volume:        0.5,
		Gain:          &Lane{Curve: "l0.25:0>1 c3.25:1 l0.5:>0"},
		Pitch:         &Lane{Curve: "e4:220>440@300"},
		Tempo:         &Lane{Curve: "l8:90>150"},
		Echo: &Echo{
			DelayMs:  375,
			Feedback: 0.35,
			Cross:    0.5,
			Mix:      &Lane{Curve: "c2:0 l2:>0.4"},
		},
	}
}

// Load reads a YAML document. Scalar settings missing from the file keep
// their defaults; lanes and the echo missing from the file are left nil.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	c.Gain, c.Pitch, c.Tempo, c.Echo = nil, nil, nil, nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks field constraints, then builds every lane so malformed
// curves are reported before rendering starts.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	lanes := []laneCheck{
		{"gain", c.Gain, false, false},
		{"pitch", c.Pitch, true, false},
		{"tempo", c.Tempo, true, false},
	}
	if c.Echo != nil {
		lanes = append(lanes, laneCheck{"echo mix", c.Echo.Mix, false, true})
	}
	for _, l := range lanes {
		if l.lane == nil {
			continue
		}
		a, err := l.lane.Automation()
		if err != nil {
			return fmt.Errorf("%s lane: %w", l.name, err)
		}
		if l.positive && !(a.YMin() > 0) {
			return fmt.Errorf("%s lane: %w", l.name, errNonPositive)
		}
		if l.unit && (a.YMin() < 0 || a.YMax() > 1) {
			return fmt.Errorf("%s lane: %w", l.name, errOutsideUnit)
		}
	}
	return nil
}

// laneCheck names a lane and the value range it must keep.
type laneCheck struct {
	name     string
	lane     *Lane
	positive bool // strictly above zero
	unit     bool // within 0..1
}

var (
	errNonPositive = errors.New("values must stay above zero")
	errOutsideUnit = errors.New("values must stay within 0..1")
)

// Automation builds the lane.
func (l *Lane) Automation() (*automation.Automation, error) {
	if l.Curve != "" {
		return curvetext.Parse(l.Curve)
	}
	segs := make([]automation.Segment, 0, len(l.Segments))
	prev, havePrev := 0.0, false
	for i, s := range l.Segments {
		seg, err := s.build(prev, havePrev)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segs = append(segs, seg)
		prev, havePrev = seg.Y2(), true
	}
	return automation.New(segs...), nil
}

func (s Segment) build(prev float64, havePrev bool) (automation.Segment, error) {
	if s.Kind == "constant" {
		return automation.NewConstant(0, s.Length, s.C)
	}
	y1 := prev
	if s.Y1 != nil {
		y1 = *s.Y1
	} else if !havePrev {
		return automation.Segment{}, fmt.Errorf("%s segment needs y1", s.Kind)
	}
	switch s.Kind {
	case "linear":
		return automation.NewLinear(0, y1, s.Length, s.Y2)
	case "exponential":
		return automation.NewExponential(0, y1, s.Length, s.Y2, s.YC)
	default:
		return automation.NewQuadratic(0, y1, s.Length, s.Y2, s.YC)
	}
}
