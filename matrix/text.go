// SPDX-License-Identifier: MIT

// Package matrix - plain-text interchange.
//
// Format: one matrix row per line, values separated by tabs or spaces.
// Blank lines and lines starting with '#' are ignored. Every row must have
// the same number of fields.

package matrix

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	ctxReadText  = "ReadText"
	ctxWriteText = "WriteText"
)

// ReadText parses a dense matrix from r.
// Errors: ErrInvalidDimensions (no rows), ErrDimensionMismatch (ragged rows),
// ErrNaNInf, or a strconv error wrapped with the line number.
// Complexity: O(r*c).
func ReadText(r io.Reader) (*Dense, error) {
	var (
		data       []float64
		rows, cols int
		line       int
		sc         = bufio.NewScanner(r)
	)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024) // genome-wide rows are long
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%s: line %d has %d fields, want %d: %w",
				ctxReadText, line, len(fields), cols, ErrDimensionMismatch)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d: %w", ctxReadText, line, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ctxReadText, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%s: %w", ctxReadText, ErrInvalidDimensions)
	}
	m, err := NewDenseFromData(rows, cols, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ctxReadText, err)
	}
	if err = ValidateFinite(m); err != nil {
		return nil, fmt.Errorf("%s: %w", ctxReadText, err)
	}

	return m, nil
}

// WriteText writes m as tab-separated rows using the shortest exact
// representation of every value.
func WriteText(w io.Writer, m Matrix) error {
	d, err := AsDense(m)
	if err != nil {
		return fmt.Errorf("%s: %w", ctxWriteText, err)
	}
	bw := bufio.NewWriter(w)
	var (
		i, j int
		buf  []byte
	)
	for i = 0; i < d.r; i++ {
		buf = buf[:0]
		for j = 0; j < d.c; j++ {
			if j > 0 {
				buf = append(buf, '\t')
			}
			buf = strconv.AppendFloat(buf, d.data[i*d.c+j], 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err = bw.Write(buf); err != nil {
			return fmt.Errorf("%s: %w", ctxWriteText, err)
		}
	}

	return bw.Flush()
}

// WriteVector writes one value per line.
func WriteVector(w io.Writer, x []float64) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	for _, v := range x {
		buf = strconv.AppendFloat(buf[:0], v, 'g', -1, 64)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("WriteVector: %w", err)
		}
	}

	return bw.Flush()
}
