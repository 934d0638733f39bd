package main

import (
	"errors"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cbegin/automation-go/internal/curvetext"
	"github.com/cbegin/automation-go/internal/tempo"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		curve    string
		points   int
		from, to float64
		unsorted bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Print value, derivative, integral and time integral along a curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auto, err := curvetext.Parse(curve)
			if err != nil {
				return err
			}
			if points < 1 {
				return errors.New("--points must be at least 1")
			}
			if !cmd.Flags().Changed("to") {
				to = auto.Length()
			}
			xs := make([]float64, points)
			for i := range xs {
				if points == 1 {
					xs[i] = from
					continue
				}
				xs[i] = from + float64(i)*(to-from)/float64(points-1)
			}
			if unsorted {
				slices.Reverse(xs)
			}
			sorted := !unsorted

			vals := slices.Clone(xs)
			ders := slices.Clone(xs)
			ints := slices.Clone(xs)
			tis := slices.Clone(xs)
			auto.Values(vals, sorted)
			auto.Derivatives(ders, sorted)
			auto.Integrals(ints, sorted)
			tiErr := auto.TimeIntegrals(tis, sorted)
			if tiErr != nil {
				a.log.Warn().Err(tiErr).Msg("time integral column omitted")
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "x\tvalue\tderivative\tintegral\ttime integral\t")
			for i, x := range xs {
				ti := "-"
				if tiErr == nil {
					ti = fmt.Sprintf("%.6g", tis[i])
				}
				fmt.Fprintf(w, "%.6g\t%.6g\t%.6g\t%.6g\t%s\t\n", x, vals[i], ders[i], ints[i], ti)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&curve, "curve", "c1:1", "curve notation")
	cmd.Flags().IntVar(&points, "points", 9, "number of evenly spaced positions")
	cmd.Flags().Float64Var(&from, "from", 0, "first position")
	cmd.Flags().Float64Var(&to, "to", 0, "last position (default: curve length)")
	cmd.Flags().BoolVar(&unsorted, "unsorted", false, "evaluate positions in descending order through the unsorted path")
	return cmd
}

func newTempoCmd(a *app) *cobra.Command {
	var (
		curve string
		beats int
	)
	cmd := &cobra.Command{
		Use:   "tempo",
		Short: "Print the time of each beat under a BPM curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bpm, err := curvetext.Parse(curve)
			if err != nil {
				return err
			}
			m, err := tempo.New(bpm, tempo.WithLogger(a.log))
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("beats") {
				beats = int(m.Beats()) + 1
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "beat\tbpm\tseconds\t")
			for i, t := range m.BeatTimes(beats) {
				fmt.Fprintf(w, "%d\t%.6g\t%.6f\t\n", i, m.BPMAt(float64(i)), t)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "curve spans %g beats in %.6f s\n", m.Beats(), m.Duration())
			return err
		},
	}
	cmd.Flags().StringVar(&curve, "curve", "c4:120", "BPM curve notation over beats")
	cmd.Flags().IntVar(&beats, "beats", 0, "number of beats to list (default: whole curve)")
	return cmd
}
