package sat

// analyze implements first-UIP conflict analysis (C6), grounded on the
// teacher's Solver.analyze (rhartert-yass/internal/sat/solver.go) but
// extended with minimization, explicit LBD scoring, and a note of which
// learnt clauses were resolved against (for the "dynamic nblevel" LBD
// recompute in db.go).
//
// It returns the learnt clause (asserting literal first), the backjump
// level, and the list of clauses touched during resolution.
func (s *Solver) analyze(conflict ClauseRef) (learnt []Literal, backjumpLevel int, touched []ClauseRef) {
	s.seenVar.Clear()
	pathCount := 0

	s.tmpLearnt = s.tmpLearnt[:0]
	s.tmpLearnt = append(s.tmpLearnt, NoLiteral) // reserved for the asserting literal

	s.touchedLearnts = s.touchedLearnts[:0]

	nextIdx := s.trail.Len() - 1
	p := NoLiteral
	currentClause := conflict

	for {
		c := s.db.Clause(currentClause)
		if c.IsLearnt() {
			s.db.bumpActivity(currentClause)
			s.touchedLearnts = append(s.touchedLearnts, currentClause)
		}

		for _, q := range s.reasonLiterals(c, p) {
			v := q.Var()
			if s.seenVar.Contains(int(v)) {
				continue
			}
			s.seenVar.Add(int(v))
			s.bumpVarActivity(v)

			lvl := s.trail.LevelOf(v)
			if lvl == 0 {
				continue
			}
			if lvl == s.trail.Level() {
				pathCount++
				continue
			}
			s.tmpLearnt = append(s.tmpLearnt, q.Opposite())
			if lvl > backjumpLevel {
				backjumpLevel = lvl
			}
		}

		// Find the next seen literal walking backwards on the trail; that
		// variable's reason becomes the next clause to resolve against.
		var v Variable
		for {
			p = s.trail.At(nextIdx)
			nextIdx--
			v = p.Var()
			if s.seenVar.Contains(int(v)) {
				break
			}
		}
		currentClause = s.trail.ReasonOf(v)

		pathCount--
		if pathCount <= 0 {
			break
		}
	}

	s.tmpLearnt[0] = p.Opposite()
	s.minimize()

	// The backjump level is taken over the minimized clause: the highest
	// level among its non-asserting literals, or 0 for a unit clause.
	backjumpLevel = 0
	if len(s.tmpLearnt) > 1 {
		// Put a literal at the second-highest level in position 1 so that
		// the clause watches it (spec.md §4.5 step 6).
		maxIdx, maxLvl := 1, -1
		for i := 1; i < len(s.tmpLearnt); i++ {
			lvl := s.trail.LevelOf(s.tmpLearnt[i].Var())
			if lvl > maxLvl {
				maxLvl = lvl
				maxIdx = i
			}
		}
		s.tmpLearnt[1], s.tmpLearnt[maxIdx] = s.tmpLearnt[maxIdx], s.tmpLearnt[1]
		backjumpLevel = maxLvl
	}

	return s.tmpLearnt, backjumpLevel, s.touchedLearnts
}

// reasonLiterals returns the literals that explain either a conflict
// (fromLit == NoLiteral, meaning "explain why this clause is false") or an
// assignment (the clause's reason for fromLit having been forced true).
// Mirrors Clause.explainConflict/explainAssign in the teacher.
func (s *Solver) reasonLiterals(c *Clause, fromLit Literal) []Literal {
	lits := c.Literals()
	if fromLit == NoLiteral {
		s.tmpReason = s.tmpReason[:0]
		for _, l := range lits {
			s.tmpReason = append(s.tmpReason, l.Opposite())
		}
		return s.tmpReason
	}
	s.tmpReason = s.tmpReason[:0]
	for _, l := range lits[1:] {
		s.tmpReason = append(s.tmpReason, l.Opposite())
	}
	return s.tmpReason
}

// minimize removes literals from s.tmpLearnt (after position 0) that are
// "redundant": every literal of their reason clause is either already in
// the learnt clause or transitively redundant. Level-0 literals are always
// excluded from the check since they can never block minimization
// (spec.md §4.5 step 5). Variables marked by a successful check stay marked
// in seenVar, so later checks in the same analysis treat them as covered
// without exploring them again.
func (s *Solver) minimize() {
	out := s.tmpLearnt[:1]
	for _, l := range s.tmpLearnt[1:] {
		if !s.literalIsRedundant(l) {
			out = append(out, l)
		}
	}
	s.tmpLearnt = out
}

// literalIsRedundant performs the bounded recursive redundancy check: l is
// redundant if it was forced by a reason clause whose other literals are
// all either seen (already implicated in the learnt clause) or themselves
// redundant. A failed exploration must not leave its seenVar marks behind:
// minimize() calls this once per learnt literal within the same analyze()
// call, and a variable wrongly left marked Seen by one failed call would
// make a later call treat it as already covered, silently dropping a
// literal the learnt clause still needs. Every variable newly marked while
// exploring this call is tracked in s.minimizeMarked and unmarked on any
// failing return, mirroring MiniSat's analyze_toclear.
func (s *Solver) literalIsRedundant(l Literal) bool {
	reason := s.trail.ReasonOf(l.Var())
	if reason == NoClauseRef {
		return false // decision/assumption literal: never redundant
	}

	s.minimizeStack = append(s.minimizeStack[:0], l)
	s.minimizeMarked = s.minimizeMarked[:0]

	for len(s.minimizeStack) > 0 {
		cur := s.minimizeStack[len(s.minimizeStack)-1]
		s.minimizeStack = s.minimizeStack[:len(s.minimizeStack)-1]

		curReason := s.trail.ReasonOf(cur.Var())
		if curReason == NoClauseRef {
			s.unmarkMinimizeScratch()
			return false
		}

		for _, q := range s.reasonLiterals(s.db.Clause(curReason), cur) {
			qv := q.Var()
			if s.trail.LevelOf(qv) == 0 || s.seenVar.Contains(int(qv)) {
				continue
			}
			if s.trail.ReasonOf(qv) == NoClauseRef {
				s.unmarkMinimizeScratch()
				return false
			}
			s.seenVar.Add(int(qv))
			s.minimizeMarked = append(s.minimizeMarked, qv)
			s.minimizeStack = append(s.minimizeStack, q)
		}
	}

	return true
}

// unmarkMinimizeScratch reverts the seenVar marks literalIsRedundant added
// during the call that just failed.
func (s *Solver) unmarkMinimizeScratch() {
	for _, v := range s.minimizeMarked {
		s.seenVar.Remove(int(v))
	}
	s.minimizeMarked = s.minimizeMarked[:0]
}
