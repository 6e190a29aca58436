package sat

// Propagate runs two-watched-literal boolean constraint propagation (C5)
// until either the propagation queue is empty or a conflict is found. It
// returns the conflicting clause, or NoClauseRef if a fixpoint was reached.
//
// Ported from the teacher's Solver.Propagate / Clause.Propagate
// (rhartert-yass/internal/sat/solver.go, clauses.go) and restructured
// around ClauseRef handles, with the binary-clause fast path spec.md's
// ordering guarantee calls for added ahead of the generic watch loop.
func (s *Solver) Propagate() ClauseRef {
	for {
		l, ok := s.trail.nextPending()
		if !ok {
			return NoClauseRef
		}

		if conflict := s.propagateBinary(l); conflict != NoClauseRef {
			s.trail.resetHead()
			return conflict
		}

		if conflict := s.propagateGeneral(l); conflict != NoClauseRef {
			s.trail.resetHead()
			return conflict
		}
	}
}

// propagateBinary checks the compact binary-clause index for l: every entry
// (ref, other) means "¬l ∨ other" is a binary clause, so if other is false
// this is an immediate conflict and if other is unassigned it is forced
// true. This amortises the most common unit derivations (spec.md §4.4).
func (s *Solver) propagateBinary(l Literal) ClauseRef {
	for _, e := range s.db.binary[l] {
		switch s.litValue(e.Other) {
		case True:
			continue
		case False:
			return e.Ref
		default:
			// Keep the forced literal first in its reason clause, where
			// reasonLiterals and analyzeFinal look for it.
			if lits := s.db.Clause(e.Ref).Literals(); lits[0] != e.Other {
				lits[0], lits[1] = lits[1], lits[0]
			}
			s.enqueue(e.Other, e.Ref)
		}
	}
	return NoClauseRef
}

// propagateGeneral walks l's general (size > 2) watch list, per spec.md's
// five-step contract:
//  1. if the cached blocker is true, keep the watcher and move on;
//  2. otherwise ensure literals[1] is ¬l, and keep the watcher if the other
//     watched literal, literals[0], is true;
//  3. scan literals[2:] for a non-false replacement to watch;
//  4. if none exists and literals[0] is false, this clause conflicts;
//  5. otherwise literals[0] is unassigned -- enqueue it.
func (s *Solver) propagateGeneral(l Literal) ClauseRef {
	ws := s.db.watchers[l]
	s.tmpWatchers = append(s.tmpWatchers[:0], ws...)
	s.db.watchers[l] = ws[:0]

	for i := 0; i < len(s.tmpWatchers); i++ {
		w := s.tmpWatchers[i]
		if s.litValue(w.Blocker) == True {
			s.db.watchers[l] = append(s.db.watchers[l], w)
			continue
		}

		c := s.db.Clause(w.Ref)
		lits := c.Literals()

		// Canonicalize so that literals[1] is the literal that just became
		// false (¬l); literals[0] is the clause's other watched literal,
		// untouched by this event.
		opp := l.Opposite()
		if lits[0] == opp {
			lits[0], lits[1] = lits[1], lits[0]
		}

		if s.litValue(lits[0]) == True {
			s.db.watch(w.Ref, l, lits[0])
			continue
		}

		if c.searchFrom >= len(lits) {
			c.searchFrom = 2
		}

		found := -1
		for k := c.searchFrom; k < len(lits); k++ {
			if s.litValue(lits[k]) != False {
				found = k
				break
			}
		}
		if found < 0 {
			for k := 2; k < c.searchFrom; k++ {
				if s.litValue(lits[k]) != False {
					found = k
					break
				}
			}
		}

		if found >= 0 {
			c.searchFrom = found + 1
			lits[1], lits[found] = lits[found], lits[1]
			s.db.watch(w.Ref, lits[1].Opposite(), lits[0])
			continue
		}

		// No replacement: literals[1] (== ¬l) stays watched, so the clause
		// is unit on literals[0] -- or a conflict if literals[0] is false.
		s.db.watch(w.Ref, l, lits[0])
		if s.litValue(lits[0]) == False {
			// Conflict: copy back the remaining, not-yet-processed watchers
			// before returning (spec.md's post-conflict invariant).
			s.db.watchers[l] = append(s.db.watchers[l], s.tmpWatchers[i+1:]...)
			return w.Ref
		}
		s.enqueue(lits[0], w.Ref)
	}

	return NoClauseRef
}
