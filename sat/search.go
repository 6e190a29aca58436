package sat

// Solve runs the core CDCL loop to a verdict or an interruption, per
// spec.md §6. Assumptions are cleared on return, whatever the result.
func (s *Solver) Solve() Status {
	s.model = nil
	s.failedAssumps = map[Literal]bool{}

	status := s.search()
	s.status = status
	s.assumptions = nil
	// Undo every decision, assumption levels included, so that clauses added
	// before the next call are checked against root-level values only.
	s.backjump(0)
	return status
}

// search is the C7 state machine: Propagating/Conflict/Decide/Restart/
// Reduce/InprocessingGate/SAT/UNSAT, wired over propagate.go, analyze.go,
// db.go, order.go and restart.go. Grounded on the teacher's Solver.Solve
// main loop (rhartert-yass/internal/sat/solver.go), extended with
// assumptions, reduction/restart/inprocessing scheduling, and DRAT/metrics
// hooks that loop never had.
func (s *Solver) search() Status {
	if s.unsat {
		return StatusUnsat
	}

	for {
		conflict := s.Propagate()
		if s.metrics != nil {
			s.metrics.propagations.Add(float64(s.trail.Len()))
		}

		if conflict != NoClauseRef {
			if s.trail.Level() == 0 {
				s.unsat = true
				return StatusUnsat
			}

			learnt, backjumpLevel, touched := s.analyze(conflict)
			s.conflicts++
			s.conflictsSinceReduce++
			if s.metrics != nil {
				s.metrics.conflicts.Inc()
			}

			lbd := s.trail.ComputeLBD(learnt, &s.lbdScratch)
			s.restarter.onConflict(lbd, s.trail.Len())
			s.db.RecomputeLBDs(touched, s.trail, &s.lbdScratch)
			s.db.decayActivity()
			s.order.decay()

			if s.learnCB != nil && (s.learnMaxLen < 0 || len(learnt) <= s.learnMaxLen) {
				s.learnCB(append([]Literal(nil), learnt...))
			}

			// If backjumpLevel lands at or below an already-decided
			// assumption's level, redeciding that assumption next may now
			// find it forced false; the decide phase below detects that via
			// analyzeFinal rather than needing special handling here.
			s.backjump(backjumpLevel)

			if len(learnt) == 1 {
				_ = s.sink.AddClause(learnt)
				s.enqueue(learnt[0], NoClauseRef)
			} else {
				ref := s.db.addLearntClause(learnt, s.trail, &s.lbdScratch)
				s.enqueue(learnt[0], ref)
				if s.metrics != nil {
					s.metrics.learnts.Inc()
					s.metrics.learntSize.Observe(float64(len(learnt)))
				}
			}

			if s.shouldTerminate() {
				return StatusUnknown
			}
			continue
		}

		if s.shouldTerminate() {
			return StatusUnknown
		}
		if s.opts.MaxConflicts > 0 && s.conflicts >= s.opts.MaxConflicts {
			return StatusUnknown
		}

		if s.trail.Level() == 0 {
			s.db.Simplify(s.litValue)

			if s.opts.ReduceEvery > 0 && s.conflictsSinceReduce >= int64(s.opts.ReduceEvery) {
				s.reductions++
				s.conflictsSinceReduce = 0
				n := s.db.Reduce(s.trail, s.opts.PersistThreshold)
				if s.metrics != nil {
					s.metrics.reductions.Inc()
				}
				s.log.Debug("reduced clause database", "removed", n)
			}
		}

		if s.trail.Level() > 0 && s.restarter.shouldRestart() {
			if g, ok := s.restarter.(*glucoseRestarter); !ok || !g.blockRestart(s.trail.Len()) {
				s.backjump(0)
				s.restarter.onRestart()
				s.restarts++
				s.restartsSinceInprocess++
				if s.metrics != nil {
					s.metrics.restarts.Inc()
				}

				if s.opts.InprocessEvery > 0 && s.restartsSinceInprocess >= int64(s.opts.InprocessEvery) {
					s.runInprocessing()
					s.restartsSinceInprocess = 0
				}
				continue
			}
		}

		status, done := s.decide()
		if done {
			return status
		}
	}
}

// decide implements spec.md §6's assumption-first decision policy, ported
// from MiniSat's well-known pickBranchLit/assumption handling: each
// registered assumption is pushed as its own decision level, in order,
// before falling back to the brancher. An assumption already satisfied by
// propagation still consumes a decision level (with nothing enqueued) so
// the trail's level stays in lockstep with the assumption index; one
// already falsified triggers failed-assumption extraction and UNSAT.
func (s *Solver) decide() (status Status, done bool) {
	for s.trail.Level() < len(s.assumptions) {
		lit := s.assumptions[s.trail.Level()]
		switch s.litValue(lit) {
		case False:
			s.analyzeFinal(lit)
			return StatusUnsat, true
		case True:
			s.trail.NewDecisionLevel()
			continue
		default:
			s.trail.NewDecisionLevel()
			s.enqueue(lit, NoClauseRef)
			return StatusUnknown, false
		}
	}

	if s.trail.Len() == s.nVars {
		s.model = s.buildModel()
		return StatusSAT, true
	}

	lit := s.order.nextDecision(s)
	s.trail.NewDecisionLevel()
	s.enqueue(lit, NoClauseRef)
	return StatusUnknown, false
}

// analyzeFinal computes the failed-assumption set when lit -- an assumption
// about to be decided -- is already assigned false. It walks the trail
// backwards from the literals responsible for that assignment, down to the
// first decision level, collecting lit itself and every assumption decision
// along the implication graph, as MiniSat's analyzeFinal does.
func (s *Solver) analyzeFinal(lit Literal) {
	s.failedAssumps = map[Literal]bool{lit: true}
	s.seenVar.Clear()

	if s.trail.Level() == 0 {
		return
	}

	assumptionSet := make(map[Literal]bool, len(s.assumptions))
	for _, a := range s.assumptions {
		assumptionSet[a] = true
	}

	s.seenVar.Add(int(lit.Var()))
	for i := s.trail.Len() - 1; i >= s.trail.levelMarks[0]; i-- {
		l := s.trail.At(i)
		v := l.Var()
		if !s.seenVar.Contains(int(v)) {
			continue
		}
		reason := s.trail.ReasonOf(v)
		if reason == NoClauseRef {
			if assumptionSet[l] {
				s.failedAssumps[l] = true
			}
			continue
		}
		for _, q := range s.db.Clause(reason).Literals()[1:] {
			s.seenVar.Add(int(q.Var()))
		}
	}
}

// buildModel snapshots the current assignment into a per-variable model,
// setting any variable still unassigned to true, then reconstructs every
// eliminated variable's value from the elimination log (spec.md §4.7).
// decide only reports SAT once every variable is on the trail, so a
// variable that appears in no clause (spec.md boundary B4) carries the
// brancher's phase, like any other.
func (s *Solver) buildModel() []LBool {
	model := make([]LBool, s.nVars)
	copy(model, s.assigns)
	for v := range model {
		if model[v] == Unknown {
			model[v] = True
		}
	}
	s.inproc.ReconstructEliminated(model)
	return model
}

// runInprocessing performs one C8 epoch: subsumption/self-subsuming
// resolution and bounded variable elimination over the occurrence index,
// followed by an arena reorganisation if enough of it has gone stale.
// Only ever called from search() at decision level 0 with an empty
// propagation queue, per spec.md §4.7.
func (s *Solver) runInprocessing() {
	if !s.opts.Subsumption && !s.opts.VariableElim {
		return
	}

	s.db.EnableOccurrenceIndex()

	if s.opts.Subsumption {
		removed, strengthened := s.inproc.Subsume()
		s.log.Debug("subsumption pass", "removed", removed, "strengthened", strengthened)
	}
	if s.opts.VariableElim {
		s.inproc.maxGrowth = s.opts.ElimMaxGrowth
		n := s.inproc.EliminateCandidates()
		s.log.Debug("variable elimination pass", "eliminated", n)
	}

	s.db.DisableOccurrenceIndex()

	if s.db.arena.LiveFraction() < 0.5 {
		s.reorganiseArena()
	}
}

// reorganiseArena compacts the clause arena and applies the resulting
// relocation map to every ClauseRef-holding structure (spec.md's ownership
// graph: the arena is the sole owner, every other holder stores a handle
// that must be rewritten together in one pass).
func (s *Solver) reorganiseArena() {
	live := make([]ClauseRef, 0, len(s.db.constraints)+len(s.db.learnts))
	live = append(live, s.db.constraints...)
	live = append(live, s.db.learnts...)

	reloc := s.db.arena.Reorganise(live)
	s.db.relocate(reloc)
	s.trail.relocate(reloc)

	if s.metrics != nil {
		s.metrics.reorganises.Inc()
	}
}
