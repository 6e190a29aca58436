package sat

import "testing"

func newPropagateTestSolver(nVars int) *Solver {
	s := NewSolver(DefaultOptions())
	for i := 0; i < nVars; i++ {
		s.AddVariable()
	}
	return s
}

func TestPropagateBinaryForcesUnit(t *testing.T) {
	s := newPropagateTestSolver(2)
	if err := s.AddClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)}); err != nil {
		t.Fatalf("AddClause: %v", err)
	}

	s.trail.NewDecisionLevel()
	s.enqueue(NegativeLiteral(0), NoClauseRef)

	if conflict := s.Propagate(); conflict != NoClauseRef {
		t.Fatalf("Propagate() returned a conflict, want none")
	}
	if s.varValue(1) != True {
		t.Fatalf("var 1 = %v, want True (forced by the binary fast path)", s.varValue(1))
	}
}

func TestPropagateBinaryConflict(t *testing.T) {
	s := newPropagateTestSolver(2)
	if err := s.AddClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)}); err != nil {
		t.Fatalf("AddClause: %v", err)
	}
	c2 := s.db.addInputClause([]Literal{PositiveLiteral(0), NegativeLiteral(1)}, s.litValue)
	if !c2.hasRef {
		t.Fatalf("second fixture clause did not produce a ref")
	}

	s.trail.NewDecisionLevel()
	s.enqueue(NegativeLiteral(0), NoClauseRef)

	conflict := s.Propagate()
	if conflict == NoClauseRef {
		t.Fatalf("Propagate() found no conflict, want the second binary clause")
	}
	if conflict != c2.ref {
		t.Fatalf("Propagate() conflict = %v, want the second clause %v", conflict, c2.ref)
	}
}

func TestPropagateGeneralFindsReplacementWatchWithoutForcing(t *testing.T) {
	s := newPropagateTestSolver(3)
	if err := s.AddClause([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)}); err != nil {
		t.Fatalf("AddClause: %v", err)
	}

	s.trail.NewDecisionLevel()
	s.enqueue(NegativeLiteral(0), NoClauseRef)

	if conflict := s.Propagate(); conflict != NoClauseRef {
		t.Fatalf("Propagate() returned a conflict, want none")
	}
	if s.varValue(1) != Unknown || s.varValue(2) != Unknown {
		t.Fatalf("vars 1/2 = %v/%v, want both Unknown (watch should have moved to var 2 instead of forcing anything)", s.varValue(1), s.varValue(2))
	}
}

func TestPropagateGeneralForcesUnitWhenNoReplacementLeft(t *testing.T) {
	s := newPropagateTestSolver(3)
	if err := s.AddClause([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)}); err != nil {
		t.Fatalf("AddClause: %v", err)
	}

	// Push both of the clause's originally-watched literals false before
	// ever calling Propagate, so a single pass has to both move the watch
	// off var 0 onto var 2 (still free at that instant) and then, while
	// processing var 1, find no replacement watch and force var 2 true, the
	// only literal left unassigned once 0 and 1 are both false.
	s.trail.NewDecisionLevel()
	s.enqueue(NegativeLiteral(0), NoClauseRef)
	s.trail.NewDecisionLevel()
	s.enqueue(NegativeLiteral(1), NoClauseRef)

	if conflict := s.Propagate(); conflict != NoClauseRef {
		t.Fatalf("Propagate() returned a conflict, want none")
	}
	if s.varValue(2) != True {
		t.Fatalf("var 2 = %v, want True (the clause's only remaining literal)", s.varValue(2))
	}
}

func TestPropagateGeneralConflict(t *testing.T) {
	s := newPropagateTestSolver(3)
	if err := s.AddClause([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)}); err != nil {
		t.Fatalf("AddClause: %v", err)
	}

	// Push all three literals false before Propagate ever runs, so the
	// clause's watch structure is still in its pristine post-insertion
	// state when the first watcher fires and finds every candidate
	// replacement already false.
	s.trail.NewDecisionLevel()
	s.enqueue(NegativeLiteral(0), NoClauseRef)
	s.trail.NewDecisionLevel()
	s.enqueue(NegativeLiteral(1), NoClauseRef)
	s.trail.NewDecisionLevel()
	s.enqueue(NegativeLiteral(2), NoClauseRef)

	if conflict := s.Propagate(); conflict == NoClauseRef {
		t.Fatalf("Propagate() found no conflict, want one")
	}
}
