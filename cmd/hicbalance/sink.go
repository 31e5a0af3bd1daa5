package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/katalvlaran/hicbalance/correct"
	"github.com/katalvlaran/hicbalance/matrix"
)

// dirSink writes every unit as <name>.bias.tsv and <name>.corrected.tsv.
// The pair is written to temporary names first and renamed together, so a
// reader never sees a bias file without its matrix.
type dirSink struct {
	dir string
}

func newDirSink(dir string) *dirSink { return &dirSink{dir: dir} }

func (s *dirSink) Store(ctx context.Context, u correct.Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if u.Name == "" || u.Name == "." || u.Name == ".." || strings.ContainsAny(u.Name, `/\`) {
		return fmt.Errorf("unit name %q cannot be used as a file name", u.Name)
	}
	biasPath := filepath.Join(s.dir, u.Name+".bias.tsv")
	matPath := filepath.Join(s.dir, u.Name+".corrected.tsv")

	if err := writeVectorFile(biasPath+".tmp", u.Bias); err != nil {
		return err
	}
	if err := writeMatrixFile(matPath+".tmp", u.Corrected); err != nil {
		os.Remove(biasPath + ".tmp")
		return err
	}
	if err := os.Rename(matPath+".tmp", matPath); err != nil {
		os.Remove(biasPath + ".tmp")
		os.Remove(matPath + ".tmp")
		return err
	}
	if err := os.Rename(biasPath+".tmp", biasPath); err != nil {
		os.Remove(biasPath + ".tmp")
		os.Remove(matPath)
		return err
	}
	return nil
}

func writeVectorFile(path string, x []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = matrix.WriteVector(f, x); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeMatrixFile(path string, m matrix.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = matrix.WriteText(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
