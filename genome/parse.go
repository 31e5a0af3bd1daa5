package genome

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrSyntax reports a malformed block line.
var ErrSyntax = errors.New("genome: malformed block line")

// ParseBlocks reads one block per line: "name begin end", separated by tabs
// or spaces. Blank lines and lines starting with '#' are skipped. Blocks are
// returned in file order; use ValidatePartition to check them.
func ParseBlocks(r io.Reader) ([]Block, error) {
	var (
		out  []Block
		line int
		sc   = bufio.NewScanner(r)
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: want 3 fields, got %d: %w", line, len(fields), ErrSyntax)
		}
		begin, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: begin %q: %w", line, fields[1], ErrSyntax)
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: end %q: %w", line, fields[2], ErrSyntax)
		}
		out = append(out, Block{Name: fields[0], Begin: begin, End: end})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("genome: read blocks: %w", err)
	}

	return out, nil
}
