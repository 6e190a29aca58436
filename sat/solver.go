package sat

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Status is the result of a Solve call, using the IPASIR/SAT-competition
// exit-code convention spec.md §6 requires.
type Status int

const (
	// StatusUnknown is returned when search was interrupted or timed out
	// before reaching a verdict (also the exit code for a standalone binary
	// per spec.md §6).
	StatusUnknown Status = 0
	// StatusSAT means the formula (under the current assumptions) is
	// satisfiable; Val reports the model.
	StatusSAT Status = 10
	// StatusUnsat means the formula (under the current assumptions) is
	// unsatisfiable; Failed reports the assumption subset responsible.
	StatusUnsat Status = 20
)

func (s Status) String() string {
	switch s {
	case StatusSAT:
		return "SAT"
	case StatusUnsat:
		return "UNSAT"
	default:
		return "UNKNOWN"
	}
}

// LearnCallback is invoked for every learnt clause of length <= the
// registered max length (spec.md §6, set_learn).
type LearnCallback func(lits []Literal)

// Solver is a single incremental CDCL instance (C1-C8 wired together).
// Grounded on the teacher's Solver (rhartert-yass/internal/sat/solver.go)
// for the overall shape, generalized to the handle-based Arena/ClauseDB of
// this package and the fuller feature set SPEC_FULL.md adds (inprocessing,
// portfolio folding, DRAT, metrics).
type Solver struct {
	opts Options

	nVars  int
	assigns []LBool // indexed by Variable

	trail *Trail
	db    *ClauseDB
	order brancher
	restarter restarter
	inproc *inprocessor

	seenVar stamp

	// Scratch buffers reused across Propagate/analyze calls to avoid
	// per-conflict allocation.
	tmpLearnt      []Literal
	tmpReason      []Literal
	minimizeStack  []Literal
	minimizeMarked []Variable
	touchedLearnts []ClauseRef
	tmpWatchers    []Watcher
	lbdScratch     stamp

	// buildLits accumulates literals across successive Add(lit) calls until
	// the terminating 0 (spec.md §6's incremental "add" operation).
	buildLits []Literal

	assumptions   []Literal
	failedAssumps map[Literal]bool

	conflicts     int64
	restarts      int64
	reductions    int64
	conflictsSinceReduce int64
	restartsSinceInprocess int64

	status Status
	model  []LBool // valid only right after a StatusSAT result

	unsat bool // true once the empty clause has been derived; sticky (B2/S6)

	sink    Sink
	metrics *metrics
	log     hclog.Logger

	terminate   func() bool
	learnCB     LearnCallback
	learnMaxLen int

	deadline time.Time
}

// NewSolver constructs an empty Solver (no variables, no clauses) ready for
// incremental use.
func NewSolver(opts Options) *Solver {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	sink := opts.sink()

	s := &Solver{
		opts:          opts,
		trail:         newTrail(),
		db:            newClauseDB(sink),
		failedAssumps: map[Literal]bool{},
		sink:          sink,
		metrics:       newMetrics(opts.Registry),
		log:           opts.Logger,
		learnMaxLen:   -1,
	}
	s.inproc = newInprocessor(s.db, 0)
	s.db.clauseDecay = opts.ClauseDecay

	switch opts.Branching {
	case BranchingLRB:
		s.order = newLRBOrder(opts.PhaseSaving)
	default:
		s.order = newVSIDSOrder(opts.VSIDSDecay, opts.PhaseSaving)
	}

	switch opts.Restart {
	case RestartLuby:
		s.restarter = newLubyRestarter(opts.LubyUnit)
	default:
		s.restarter = newGlucoseRestarter(opts.GlucoseK)
	}

	if opts.Timeout > 0 {
		s.deadline = timeNow().Add(opts.Timeout)
	}

	return s
}

// sink is a small accessor so NewSolver can pick up a caller-supplied Sink
// via Options without growing the exported Options surface; the CLI layer
// sets it with WithSink before NewSolver is called.
func (o *Options) sink() Sink {
	if o.sinkOverride != nil {
		return o.sinkOverride
	}
	return NopSink{}
}

// WithSink returns a copy of o with its DRAT sink set to the given value
// (e.g. a TextSink opened on Options.DRATPath by the CLI driver).
func (o Options) WithSink(sink Sink) Options {
	o.sinkOverride = sink
	return o
}

// NumVariables returns the number of variables registered so far.
func (s *Solver) NumVariables() int { return s.nVars }

// AddVariable registers a new boolean variable and returns it. Variable
// count only ever grows over a Solver's lifetime.
func (s *Solver) AddVariable() Variable {
	v := Variable(s.nVars)
	s.nVars++

	s.assigns = append(s.assigns, Unknown)
	s.trail.growTo(s.nVars)
	s.db.growTo(s.nVars)
	s.seenVar.Expand()
	s.lbdScratch.Expand()
	s.order.addVar()
	s.inproc.growTo(s.nVars)

	return v
}

// growToVar lazily registers every variable up to and including v, mirroring
// ipasir's implicit-growth convention for add()/assume() calls that mention
// a variable for the first time.
func (s *Solver) growToVar(v Variable) {
	for Variable(s.nVars) <= v {
		s.AddVariable()
	}
}

func (s *Solver) litValue(l Literal) LBool {
	v := s.assigns[l.Var()]
	if v == Unknown {
		return Unknown
	}
	if l.IsPositive() {
		return v
	}
	return v.Opposite()
}

func (s *Solver) varValue(v Variable) LBool { return s.assigns[v] }

// enqueue records l as assigned true (with the given reason, or NoClauseRef
// for a decision/assumption) on both the trail and the assignment array.
// Callers must only invoke it for currently-unassigned variables.
func (s *Solver) enqueue(l Literal, reason ClauseRef) {
	s.assigns[l.Var()] = Lift(l.IsPositive())
	s.trail.push(l, reason)
	s.order.onAssign(l.Var(), s.conflicts)
}

func (s *Solver) bumpVarActivity(v Variable) { s.order.onConflictBump(v) }

// backjump undoes every assignment above level, updating the brancher's
// phase-saving/LRB bookkeeping for each (spec.md invariant I6).
func (s *Solver) backjump(level int) {
	undone := s.trail.popTo(level)
	for _, l := range undone {
		v := l.Var()
		value := s.assigns[v]
		s.assigns[v] = Unknown
		s.order.onUnassign(v, value, s.conflicts)
	}
}

// Add appends a DIMACS-encoded literal (1-indexed, signed) to the clause
// currently being built; lit == 0 terminates the clause and inserts it,
// per spec.md §6. Variables are registered on demand.
func (s *Solver) Add(lit int) error {
	if lit == 0 {
		lits := s.buildLits
		s.buildLits = nil
		return s.insertClause(lits)
	}
	l := LiteralFromDimacs(lit)
	s.growToVar(l.Var())
	s.buildLits = append(s.buildLits, l)
	return nil
}

// AddClause is a convenience wrapper that inserts a complete clause in one
// call, equivalent to calling Add for each literal followed by Add(0).
func (s *Solver) AddClause(lits []Literal) error {
	for _, l := range lits {
		s.growToVar(l.Var())
	}
	return s.insertClause(lits)
}

func (s *Solver) insertClause(lits []Literal) error {
	if s.unsat {
		return nil // sticky UNSAT: further adds are no-ops (spec.md S6)
	}
	res := s.db.addInputClause(lits, s.litValue)
	switch {
	case res.unsat:
		s.unsat = true
		_ = s.sink.AddClause(nil) // DRAT: derive the empty clause
		return nil
	case res.isUnit:
		if s.litValue(res.unitLit) == False {
			s.unsat = true
			return nil
		}
		if s.litValue(res.unitLit) == Unknown {
			s.enqueue(res.unitLit, NoClauseRef)
		}
	}
	return nil
}

// Assume registers a single-call assumption literal; cleared after Solve
// returns, per spec.md §6.
func (s *Solver) Assume(lit int) {
	l := LiteralFromDimacs(lit)
	s.growToVar(l.Var())
	s.assumptions = append(s.assumptions, l)
}

// Val reports the truth value of v's literal after a SAT result: a positive
// value means true, negative means false. Calling it outside a SAT result
// is a contract violation (spec.md §7).
func (s *Solver) Val(v Variable) int {
	if s.status != StatusSAT {
		panic(wrapError(KindContractViolation, ErrContractViolation, "Val called without a SAT result"))
	}
	if s.model[v] == True {
		return int(v) + 1
	}
	return -(int(v) + 1)
}

// Failed reports whether the assumption literal lit was part of the final
// unsatisfiable core. Calling it outside an UNSAT result is a contract
// violation.
func (s *Solver) Failed(lit int) bool {
	if s.status != StatusUnsat {
		panic(wrapError(KindContractViolation, ErrContractViolation, "Failed called without an UNSAT result"))
	}
	return s.failedAssumps[LiteralFromDimacs(lit)]
}

// Release closes the Solver's DRAT sink (flushing and writing the
// end-of-proof marker); the rest of its state is left as it is. The
// instance must not be used afterwards.
func (s *Solver) Release() error {
	return s.sink.Close()
}

// SetTerminate installs a cooperative termination callback polled at
// conflict boundaries; when it returns true, Solve exits with
// StatusUnknown (spec.md §5/§6).
func (s *Solver) SetTerminate(cb func() bool) { s.terminate = cb }

// SetLearn installs a callback invoked for every learnt clause of length at
// most maxLen (a negative maxLen means unbounded), per spec.md §6.
func (s *Solver) SetLearn(cb LearnCallback, maxLen int) {
	s.learnCB = cb
	s.learnMaxLen = maxLen
}

// shouldTerminate checks the cooperative termination flag and the
// wall-clock deadline, the two conditions spec.md §5 requires to be polled
// at conflict boundaries.
func (s *Solver) shouldTerminate() bool {
	if s.terminate != nil && s.terminate() {
		return true
	}
	if !s.deadline.IsZero() && !s.deadline.After(timeNow()) {
		return true
	}
	return false
}

// timeNow is split out so tests can substitute a deterministic clock if
// ever needed; production code always uses the wall clock.
var timeNow = time.Now
