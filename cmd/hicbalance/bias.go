package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/hicbalance/bias"
	"github.com/katalvlaran/hicbalance/correct"
	"github.com/katalvlaran/hicbalance/guard"
	"github.com/katalvlaran/hicbalance/matrix"
	"github.com/katalvlaran/hicbalance/progress"
)

func newBiasCmd(g *globalFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "bias MATRIX",
		Short: "Print the genome-wide bias vector, one value per line",
		Long: `Compute the Knight-Ruiz bias vector of the whole matrix and print it to stdout.

By default sparse rows are stripped and retried on failure; excluded bins get
bias 0. With --raw the solver runs once and any failure is reported as is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.load(cmd)
			if err != nil {
				return err
			}
			a, err := readMatrix(args[0])
			if err != nil {
				return err
			}
			obs := progress.NewLogrus(log, logrus.Fields{"input": args[0]})
			opts, err := c.Options(
				[]bias.Option{bias.WithObserver(obs)},
				[]guard.Option{guard.WithRetryObserver(obs)},
			)
			if err != nil {
				return err
			}

			var x []float64
			if raw {
				x, err = correct.SolveBias(cmd.Context(), a, opts...)
			} else {
				var res *correct.Result
				if res, err = correct.Correct(cmd.Context(), a, nil, opts...); err == nil {
					x = res.Bias
				}
			}
			if err != nil {
				return err
			}

			return matrix.WriteVector(cmd.OutOrStdout(), x)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "single solve without sparse-row recovery")

	return cmd
}
