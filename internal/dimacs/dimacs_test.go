package dimacs

import (
	"testing"

	"github.com/cdclsat/driftwood/sat"
	"github.com/google/go-cmp/cmp"
)

type instance struct {
	Variables int
	Clauses   [][]sat.Literal
}

func (i *instance) AddVariable() sat.Variable {
	v := sat.Variable(i.Variables)
	i.Variables++
	return v
}

func (i *instance) AddClause(tmpClause []sat.Literal) error {
	clause := make([]sat.Literal, len(tmpClause))
	copy(clause, tmpClause)
	i.Clauses = append(i.Clauses, clause)
	return nil
}

var want = instance{
	Variables: 3,
	Clauses: [][]sat.Literal{
		{0, 2, 4},
		{0, 2, 5},
		{0, 3, 4},
		{1, 2, 4},
		{1, 3, 4},
		{1, 2, 5},
		{0, 3, 5},
		{1, 3, 5},
	},
}

func TestLoadDIMACS_cnf(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance.cnf", false, &got)

	if gotErr != nil {
		t.Errorf("LoadDIMACS(): want no error, got %s", gotErr)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadDIMACS(): mismatch (+want, -got):\n%s", diff)
	}
}

func TestLoadDIMACS_gzip(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance.cnf.gz", true, &got)

	if gotErr != nil {
		t.Errorf("LoadDIMACS(): want no error, got %s", gotErr)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadDIMACS(): mismatch (+want, -got):\n%s", diff)
	}
}

func TestLoadDIMACS_noFile(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("", false, &got)

	if gotErr == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

func TestLoadDIMACS_gzip_notGzipFile(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance.cnf", true, &got)

	if gotErr == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

func TestLoadDIMACS_malformedLiteral(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/malformed.cnf", false, &got)

	if gotErr == nil {
		t.Errorf("LoadDIMACS(): want error for malformed literal, got none")
	}
}
