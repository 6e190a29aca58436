package sat

import (
	"io/ioutil"
	"time"

	"github.com/ghodss/yaml"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures a Solver's heuristics, resource limits, and optional
// observability hooks. The zero value is not valid; construct with
// DefaultOptions and override individual fields.
type Options struct {
	// Branching selects the decision heuristic (spec.md §4.6).
	Branching BranchingPolicy `json:"branching"`
	VSIDSDecay float64        `json:"vsidsDecay"`
	PhaseSaving bool          `json:"phaseSaving"`

	// Restart selects the restart schedule.
	Restart      RestartPolicy `json:"restart"`
	LubyUnit     int64         `json:"lubyUnit"`
	GlucoseK     float64       `json:"glucoseK"`

	// ClauseDecay is the per-conflict decay applied to learnt-clause
	// activity (spec.md §4.2).
	ClauseDecay float64 `json:"clauseDecay"`

	// ReduceEvery triggers a Reduce pass at the first return to decision
	// level 0 once N conflicts have passed since the last one.
	ReduceEvery int `json:"reduceEvery"`
	// PersistThreshold is the LBD at/below which a learnt clause survives
	// reduction indefinitely (spec.md §4.2).
	PersistThreshold int `json:"persistThreshold"`

	// InprocessEvery triggers a C8 inprocessing epoch every N restarts; 0
	// disables inprocessing entirely.
	InprocessEvery int  `json:"inprocessEvery"`
	Subsumption    bool `json:"subsumption"`
	VariableElim   bool `json:"variableElim"`
	ElimMaxGrowth  int  `json:"elimMaxGrowth"`

	// MaxConflicts bounds the search; 0 means unbounded.
	MaxConflicts int64 `json:"maxConflicts"`
	// Timeout bounds wall-clock search time; 0 means unbounded. Checked
	// cooperatively at conflict boundaries per spec.md §5.
	Timeout time.Duration `json:"timeout"`

	// DRATPath, if non-empty, opens a TextSink at that path via the CLI
	// layer; the Solver itself only needs a Sink value (see WithSink).
	DRATPath string `json:"dratPath"`

	// Logger receives structured solver events (reductions and
	// inprocessing passes). A nil Logger installs hclog.NewNullLogger().
	Logger hclog.Logger `json:"-"`

	// Registry, if non-nil, causes the Solver to register its Prometheus
	// collectors (see metrics.go) on construction.
	Registry *prometheus.Registry `json:"-"`

	// sinkOverride is set via WithSink; it is unexported because the DRAT
	// sink is wired up by the CLI driver, not by a config file.
	sinkOverride Sink
}

// BranchingPolicy selects the decision-variable heuristic.
type BranchingPolicy int

const (
	BranchingVSIDS BranchingPolicy = iota
	BranchingLRB
)

// DefaultOptions returns the configuration the command-line driver uses
// absent an explicit config file: VSIDS branching with phase saving,
// Glucose dynamic restarts, and inprocessing enabled every 4 restarts.
func DefaultOptions() Options {
	return Options{
		Branching:        BranchingVSIDS,
		VSIDSDecay:       0.95,
		PhaseSaving:      true,
		Restart:          RestartGlucose,
		LubyUnit:         100,
		GlucoseK:         0.8,
		ClauseDecay:      0.999,
		ReduceEvery:      2000,
		PersistThreshold: 3,
		InprocessEvery:   4,
		Subsumption:      true,
		VariableElim:     true,
		ElimMaxGrowth:    16,
		Logger:           hclog.NewNullLogger(),
	}
}

// LoadOptionsYAML reads a YAML config file (via ghodss/yaml, which maps YAML
// onto JSON struct tags) layered on top of DefaultOptions.
func LoadOptionsYAML(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return opts, errors.Wrap(err, "reading solver config")
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.Wrap(err, "parsing solver config")
	}
	return opts, nil
}
