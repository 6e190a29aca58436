// Package dimacs parses the DIMACS CNF format (spec.md §6): comment lines
// starting with 'c', a single header "p cnf N M", and clauses as
// whitespace-separated signed integers terminated by 0.
package dimacs

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cdclsat/driftwood/sat"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Writer receives the variables and clauses of a parsed instance. *sat.Solver
// satisfies it directly.
type Writer interface {
	AddVariable() sat.Variable
	AddClause([]sat.Literal) error
}

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", filename)
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %q as gzip", filename)
		}
	}
	return rc, nil
}

// LoadDIMACS parses filename and feeds its variables and clauses to w.
// Malformed clause lines are collected into a multierror.Error so a single
// parse reports every problem it found rather than stopping at the first
// one (spec.md §7's "surfaced to caller" parser-error policy); a malformed
// header is still immediately fatal since nothing downstream can proceed
// without a variable count.
func LoadDIMACS(filename string, gzipped bool, w Writer) error {
	rc, err := reader(filename, gzipped)
	if err != nil {
		return err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	nVars, nClauses, err := parseHeader(scanner)
	if err != nil {
		return err
	}

	for i := 0; i < nVars; i++ {
		w.AddVariable()
	}

	var result *multierror.Error
	litBuffer := make([]sat.Literal, 0, 32)

	for nClauses > 0 && scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == 'c' {
			continue
		}

		litBuffer = litBuffer[:0]
		parts := strings.Fields(line)
		malformed := false
		for _, p := range parts {
			x, err := strconv.Atoi(p)
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "parsing clause literal %q", p))
				malformed = true
				break
			}
			if x == 0 {
				continue
			}
			litBuffer = append(litBuffer, sat.LiteralFromDimacs(x))
		}
		if malformed {
			nClauses--
			continue
		}

		if err := w.AddClause(litBuffer); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "adding clause"))
		}
		nClauses--
	}

	if err := scanner.Err(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "scanning instance"))
	}

	return result.ErrorOrNil()
}

func parseHeader(scanner *bufio.Scanner) (nVars, nClauses int, err error) {
	for {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, 0, errors.Wrap(err, "reading header")
			}
			return 0, 0, errors.New("header line not found")
		}
		line := scanner.Text()
		if line == "" || line[0] == 'c' {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 || parts[0] != "p" || parts[1] != "cnf" {
			return 0, 0, errors.Errorf("malformed header line %q", line)
		}
		nVars, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, errors.Wrap(err, "parsing variable count")
		}
		nClauses, err = strconv.Atoi(parts[3])
		if err != nil {
			return 0, 0, errors.Wrap(err, "parsing clause count")
		}
		return nVars, nClauses, nil
	}
}
