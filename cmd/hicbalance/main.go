// Command hicbalance balances Hi-C contact matrices with the Knight–Ruiz
// algorithm.
//
//	hicbalance correct contacts.tsv --blocks chroms.txt --out balanced/
//	hicbalance bias contacts.tsv > bias.tsv
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/hicbalance/config"
)

var log = logrus.New()

// globalFlags are shared by every subcommand; set values override the config file.
type globalFlags struct {
	configPath    string
	logLevel      string
	tol           float64
	delta         float64
	upperDelta    float64
	maxRetries    int
	maxIterations int
	precision     string
	policy        string
	workers       int
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "hicbalance",
		Short:         "Knight-Ruiz balancing of Hi-C contact matrices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	def := config.Default()
	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&g.logLevel, "log-level", def.LogLevel, "log level (debug, info, warn, error)")
	pf.Float64Var(&g.tol, "tol", def.Tolerance, "convergence tolerance")
	pf.Float64Var(&g.delta, "delta", def.Delta, "lower trust-region bound")
	pf.Float64Var(&g.upperDelta, "upper-delta", def.UpperDelta, "upper trust-region bound")
	pf.IntVar(&g.maxRetries, "max-retries", def.MaxRetries, "maximum sparse-row removals")
	pf.IntVar(&g.maxIterations, "max-iterations", def.MaxIterations, "outer iteration cap (0 = unbounded)")
	pf.StringVar(&g.precision, "precision", def.Precision, "accumulation precision (double, extended)")
	pf.StringVar(&g.policy, "policy", def.Policy, "sparse-row ranking (lowest-sum, fewest-nonzero)")
	pf.IntVarP(&g.workers, "workers", "j", def.Workers, "concurrent chromosome solves")

	root.AddCommand(newCorrectCmd(g), newBiasCmd(g))

	return root
}

// load reads the config file and applies every flag the user set explicitly.
func (g *globalFlags) load(cmd *cobra.Command) (config.Config, error) {
	c, err := config.Load(g.configPath)
	if err != nil {
		return c, err
	}
	fl := cmd.Flags()
	if fl.Changed("log-level") {
		c.LogLevel = g.logLevel
	}
	if fl.Changed("tol") {
		c.Tolerance = g.tol
	}
	if fl.Changed("delta") {
		c.Delta = g.delta
	}
	if fl.Changed("upper-delta") {
		c.UpperDelta = g.upperDelta
	}
	if fl.Changed("max-retries") {
		c.MaxRetries = g.maxRetries
	}
	if fl.Changed("max-iterations") {
		c.MaxIterations = g.maxIterations
	}
	if fl.Changed("precision") {
		c.Precision = g.precision
	}
	if fl.Changed("policy") {
		c.Policy = g.policy
	}
	if fl.Changed("workers") {
		c.Workers = g.workers
	}
	if err = c.Validate(); err != nil {
		return c, err
	}

	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return c, err
	}
	log.SetLevel(lvl)

	return c, nil
}

func main() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("hicbalance failed")
		stop()
		os.Exit(1)
	}
}
