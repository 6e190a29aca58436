// Package parsers loads DIMACS CNF instances and ".cnf.models" fixtures
// using the external github.com/rhartert/dimacs builder-pattern reader,
// for use by the package's integration tests.
package parsers

import (
	"compress/gzip"
	"io"
	"os"

	"github.com/rhartert/dimacs"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/cdclsat/driftwood/sat"
)

// SATSolver is the subset of *sat.Solver's incremental API a DIMACS loader
// needs.
type SATSolver interface {
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

// LoadDIMACS parses the DIMACS CNF file and loads its CNF formula in the
// given SAT solver.
func LoadDIMACS(filename string, gzipped bool, solver SATSolver) error {
	rc, err := reader(filename, gzipped)
	if err != nil {
		return err
	}
	defer rc.Close()

	b := &builder{solver: solver}
	if err := dimacs.ReadBuilder(rc, b); err != nil {
		return errors.Wrapf(err, "loading %q", filename)
	}
	return b.errs.ErrorOrNil()
}

// builder wraps the solver to implement dimacs.Builder, accumulating
// per-clause errors into a multierror rather than aborting the parse on the
// first one.
type builder struct {
	solver SATSolver
	errs   *multierror.Error
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return errors.Errorf("unsupported problem type %q", problem)
	}
	for i := 0; i < nVars; i++ {
		b.solver.AddVariable()
	}
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	clause := make([]sat.Literal, len(tmpClause))
	for i, l := range tmpClause {
		clause[i] = sat.LiteralFromDimacs(l)
	}
	if err := b.solver.AddClause(clause); err != nil {
		b.errs = multierror.Append(b.errs, errors.Wrap(err, "adding clause"))
	}
	return nil
}

func (b *builder) Comment(_ string) error {
	return nil // ignore comments
}

// ReadModels returns the list of models (if any) contained in the given
// ".cnf.models" fixture file, one model per non-comment clause-shaped line.
func ReadModels(filename string) ([][]bool, error) {
	rc, err := reader(filename, false)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b := &modelBuilder{}
	if err := dimacs.ReadBuilder(rc, b); err != nil {
		return nil, errors.Wrapf(err, "reading models from %q", filename)
	}

	return b.models, nil
}

// modelBuilder wraps dimacs.Builder to collect one model per clause-shaped
// line, since the models fixture format reuses DIMACS clause syntax without
// a problem line.
type modelBuilder struct {
	models [][]bool
}

func (b *modelBuilder) Problem(problem string, nVars int, nClauses int) error {
	return errors.New("model files should not have a problem line")
}

func (b *modelBuilder) Comment(_ string) error {
	return nil // ignore comments
}

func (b *modelBuilder) Clause(tmpClause []int) error {
	model := make([]bool, len(tmpClause))
	for i, l := range tmpClause {
		model[i] = l > 0
	}
	b.models = append(b.models, model)
	return nil
}
