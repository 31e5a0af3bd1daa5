// Package config loads the YAML run configuration of the hicbalance CLI and
// turns it into orchestrator options.
//
// Example:
//
//	tolerance: 1e-6
//	delta: 0.1
//	upper_delta: 3
//	max_retries: 50
//	precision: extended
//	workers: 4
//	log_level: debug
//	blocks:
//	  - {name: chr1, begin: 0, end: 250}
//	  - {name: chr2, begin: 250, end: 493}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/hicbalance/bias"
	"github.com/katalvlaran/hicbalance/correct"
	"github.com/katalvlaran/hicbalance/genome"
	"github.com/katalvlaran/hicbalance/guard"
)

// ErrInvalid reports a configuration value outside its domain.
var ErrInvalid = errors.New("config: invalid value")

// Config mirrors the YAML document. Zero values are filled from Default.
type Config struct {
	Tolerance     float64        `yaml:"tolerance"`
	Delta         float64        `yaml:"delta"`
	UpperDelta    float64        `yaml:"upper_delta"`
	MaxRetries    int            `yaml:"max_retries"`
	MaxIterations int            `yaml:"max_iterations"`
	Precision     string         `yaml:"precision"`
	Policy        string         `yaml:"policy"`
	Workers       int            `yaml:"workers"`
	LogLevel      string         `yaml:"log_level"`
	Blocks        []genome.Block `yaml:"blocks"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Tolerance:     bias.DefaultTolerance,
		Delta:         bias.DefaultDelta,
		UpperDelta:    bias.DefaultUpperDelta,
		MaxRetries:    guard.DefaultMaxRetries,
		MaxIterations: bias.DefaultMaxIterations,
		Precision:     bias.DefaultPrecision.String(),
		Policy:        guard.LowestSum.String(),
		Workers:       runtime.NumCPU(),
		LogLevel:      "info",
	}
}

// Load reads a YAML file over Default(). An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Decode(bytes.NewReader(raw))
}

// Decode parses YAML from r over Default() and validates it.
// Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks ranges that can be checked without a matrix.
func (c Config) Validate() error {
	switch {
	case c.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance %g", ErrInvalid, c.Tolerance)
	case c.Delta < 0 || c.Delta >= 1:
		return fmt.Errorf("%w: delta %g", ErrInvalid, c.Delta)
	case c.UpperDelta <= 1:
		return fmt.Errorf("%w: upper_delta %g", ErrInvalid, c.UpperDelta)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries %d", ErrInvalid, c.MaxRetries)
	case c.MaxIterations < 0:
		return fmt.Errorf("%w: max_iterations %d", ErrInvalid, c.MaxIterations)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	if _, err := bias.ParsePrecision(c.Precision); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := guard.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Options converts c into orchestrator options. extra solver and guard
// options (observers) are appended after the configured ones.
func (c Config) Options(solverExtra []bias.Option, guardExtra []guard.Option) ([]correct.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	prec, _ := bias.ParsePrecision(c.Precision)
	pol, _ := guard.ParsePolicy(c.Policy)

	solverOpts := append([]bias.Option{
		bias.WithTolerance(c.Tolerance),
		bias.WithBounds(c.Delta, c.UpperDelta),
		bias.WithMaxIterations(c.MaxIterations),
		bias.WithPrecision(prec),
	}, solverExtra...)
	guardOpts := append([]guard.Option{
		guard.WithMaxRetries(c.MaxRetries),
		guard.WithPolicy(pol),
	}, guardExtra...)

	return []correct.Option{
		correct.WithSolverOptions(solverOpts...),
		correct.WithGuardOptions(guardOpts...),
		correct.WithWorkers(c.Workers),
	}, nil
}
