package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/automation-go/internal/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the configured lanes to a float WAV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadConfig()
			if err != nil {
				return err
			}
			lanes, opts, err := a.lanes(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			samples, err := render.Render(ctx, lanes, opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, render.EncodeWAVFloat32LE(samples, opts.SampleRate, 2), 0644); err != nil {
				return err
			}
			a.log.Info().Str("path", out).Int("frames", len(samples)/2).Msg("wrote wav")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "automation.wav", "output WAV path")
	return cmd
}

func newPlayCmd(a *app) *cobra.Command {
	var (
		loop    bool
		loops   int
		latency time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the configured lanes on the default audio device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("loop") {
				c.Loop = loop
			}
			lanes, opts, err := a.lanes(c)
			if err != nil {
				return err
			}
			pl, err := render.NewPlayer(opts.SampleRate,
				render.WithLoopPlayback(opts.Loop),
				render.WithWaveform(opts.Waveform),
				render.WithControlPeriod(opts.ControlPeriod),
				render.WithEcho(opts.Echo),
				render.WithLatency(latency),
				render.WithLogger(a.log),
			)
			if err != nil {
				return err
			}
			pl.SetMasterVolume(opts.Volume)
			ch := pl.Watch()
			if err := pl.Play(lanes, opts.Seconds); err != nil {
				return err
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			// The end event can be dropped when the watch channel is full.
			done := make(chan struct{})
			go func() {
				pl.Wait()
				close(done)
			}()

			loopCount := 0
			for {
				select {
				case <-interrupt:
					return pl.Stop()
				case <-done:
					fmt.Fprintln(cmd.OutOrStdout(), "playback completed")
					return nil
				case ev := <-ch:
					switch ev.Kind {
					case render.EventBeat:
						a.log.Debug().Int("beat", ev.Beat).Msg("beat")
					case render.EventLoopCompleted:
						loopCount++
						fmt.Fprintf(cmd.OutOrStdout(), "loop %d completed\n", loopCount)
						if loops > 0 && loopCount >= loops {
							return pl.Stop()
						}
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&loop, "loop", false, "loop playback (overrides the config)")
	cmd.Flags().IntVar(&loops, "loops", 0, "when looping, stop after N loops (0 = until interrupted)")
	cmd.Flags().DurationVar(&latency, "latency", 0, "audio device buffer, e.g. 50ms (0 = backend default)")
	return cmd
}
