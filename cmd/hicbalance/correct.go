package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/hicbalance/config"
	"github.com/katalvlaran/hicbalance/correct"
	"github.com/katalvlaran/hicbalance/genome"
	"github.com/katalvlaran/hicbalance/matrix"
	"github.com/katalvlaran/hicbalance/progress"
)

func newCorrectCmd(g *globalFlags) *cobra.Command {
	var (
		blocksPath string
		outDir     string
	)
	cmd := &cobra.Command{
		Use:   "correct MATRIX",
		Short: "Balance a contact matrix and write bias vectors and corrected matrices",
		Long: `Balance a dense contact matrix (one row per line, tab or space separated).

Without chromosome blocks the whole matrix is balanced at once. With --blocks
(or "blocks" in the config file) every diagonal chromosome block is balanced
independently and inter-chromosome contacts are left untouched.

Output files in --out:
  bias.tsv, corrected.tsv            genome-wide results
  <unit>.bias.tsv, <unit>.corrected.tsv  one pair per balanced unit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.load(cmd)
			if err != nil {
				return err
			}
			blocks, err := loadBlocks(blocksPath, c)
			if err != nil {
				return err
			}
			a, err := readMatrix(args[0])
			if err != nil {
				return err
			}
			if err = os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			obs := progress.NewLogrus(log, logrus.Fields{"input": filepath.Base(args[0])})
			opts, err := c.Options(nil, nil)
			if err != nil {
				return err
			}
			opts = append(opts,
				correct.WithObservers(func(unit string) correct.Observer {
					return obs.With(logrus.Fields{"unit": unit})
				}),
				correct.WithSink(newDirSink(outDir)),
			)

			log.WithFields(logrus.Fields{
				"bins":      a.Rows(),
				"blocks":    len(blocks),
				"tolerance": c.Tolerance,
				"precision": c.Precision,
			}).Info("balancing")
			res, err := correct.Correct(cmd.Context(), a, blocks, opts...)
			if err != nil {
				return err
			}
			logResult(res)

			if err = writeVectorFile(filepath.Join(outDir, "bias.tsv"), res.Bias); err != nil {
				return err
			}
			return writeMatrixFile(filepath.Join(outDir, "corrected.tsv"), res.Corrected)
		},
	}
	cmd.Flags().StringVarP(&blocksPath, "blocks", "b", "", `chromosome blocks file ("name begin end" per line)`)
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")

	return cmd
}

// loadBlocks prefers the blocks file over blocks from the config.
func loadBlocks(path string, c config.Config) ([]genome.Block, error) {
	if path == "" {
		return c.Blocks, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return genome.ParseBlocks(f)
}

func logResult(res *correct.Result) {
	for name, rec := range res.Records {
		log.WithFields(logrus.Fields{
			"unit":     name,
			"retries":  rec.Len(),
			"excluded": rec.Excluded(),
		}).Info("unit balanced")
	}
	entry := log.WithFields(logrus.Fields{
		"mode":     res.Mode.String(),
		"excluded": len(res.Excluded()),
	})
	if !res.Symmetric {
		entry.Warn("corrected matrix is not symmetric")
		return
	}
	entry.Info("balancing done")
}

func readMatrix(path string) (*matrix.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := matrix.ReadText(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
