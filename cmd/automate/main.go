package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cbegin/automation-go"
	"github.com/cbegin/automation-go/internal/config"
	"github.com/cbegin/automation-go/internal/osc"
	"github.com/cbegin/automation-go/internal/render"
	"github.com/cbegin/automation-go/internal/tempo"
)

// app carries state shared by every subcommand.
type app struct {
	logLevel   string
	configPath string
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:   "automate",
		Short: "Evaluate, render and play parameter automation curves",
		Long: `automate works with piecewise automation curves written in compact
notation, e.g. "c4:60 l4:>40 e2:>80@50". It prints value, slope and
integral tables, converts tempo curves to beat times, and renders gain and
pitch lanes to audio through an optional echo.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(a.logLevel)
			if err != nil {
				return err
			}
			a.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
				Level(level).
				With().Timestamp().Logger()
			automation.SetLogger(&a.log)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "render document (YAML); built-in defaults when empty")

	root.AddCommand(newEvalCmd(a), newTempoCmd(a), newRenderCmd(a), newPlayCmd(a))
	return root
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		return config.Default(), nil
	}
	c, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("path", a.configPath).Msg("config loaded")
	return c, nil
}

// lanes builds the render lanes and options of a config.
func (a *app) lanes(c *config.Config) (render.Lanes, render.Options, error) {
	var lanes render.Lanes
	var err error
	if c.Gain != nil {
		if lanes.Gain, err = c.Gain.Automation(); err != nil {
			return lanes, render.Options{}, err
		}
	}
	if c.Pitch != nil {
		if lanes.Pitch, err = c.Pitch.Automation(); err != nil {
			return lanes, render.Options{}, err
		}
	}
	if c.Tempo != nil {
		bpm, err := c.Tempo.Automation()
		if err != nil {
			return lanes, render.Options{}, err
		}
		if lanes.Tempo, err = tempo.New(bpm, tempo.WithLogger(a.log)); err != nil {
			return lanes, render.Options{}, err
		}
	}
	var echo render.EchoOptions
	if c.Echo != nil {
		if lanes.Echo, err = c.Echo.Mix.Automation(); err != nil {
			return lanes, render.Options{}, err
		}
		echo = render.EchoOptions{DelayMs: c.Echo.DelayMs, Feedback: c.Echo.Feedback, Cross: c.Echo.Cross}
	}
	wave, err := osc.ParseWaveform(c.Waveform)
	if err != nil {
		return lanes, render.Options{}, err
	}
	return lanes, render.Options{
		SampleRate:    c.SampleRate,
		Seconds:       c.Seconds,
		ControlPeriod: c.ControlPeriod,
		Waveform:      wave,
		Volume:        c.Volume,
		Loop:          c.Loop,
		Echo:          echo,
		Logger:        a.log,
	}, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
		log.Error().Err(err).Msg("automate failed")
		os.Exit(1)
	}
}
