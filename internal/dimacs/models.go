package dimacs

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseModels reads a ".cnf.models" fixture: one line per expected model,
// each a DIMACS-style literal list (sign encodes truth, magnitude encodes
// 1-indexed variable) terminated by 0. Nothing in this module calls it; the
// sat integration tests read their model fixtures with parsers.ReadModels.
func ParseModels(filename string) ([][]bool, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", filename)
	}
	defer file.Close()

	var models [][]bool
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		literals := strings.Fields(line)
		model := make([]bool, 0, len(literals))

		for _, ls := range literals {
			if ls == "0" {
				continue
			}
			l, err := strconv.Atoi(ls)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing literal %q", ls)
			}
			model = append(model, l > 0)
		}

		models = append(models, model)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning models file")
	}

	return models, nil
}
