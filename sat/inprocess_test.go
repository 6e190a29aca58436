package sat

import "testing"

func newInprocessTestDB(nVars int) *ClauseDB {
	db := newClauseDB(NopSink{})
	db.growTo(nVars)
	return db
}

func addTestClause(db *ClauseDB, lits []Literal) ClauseRef {
	ref := db.arena.Allocate(lits, false)
	db.finishInsert(ref, lits, false)
	db.constraints = append(db.constraints, ref)
	return ref
}

func TestSubsumeRemovesSubsumedClause(t *testing.T) {
	db := newInprocessTestDB(4)
	// A = {0, 1} subsumes B = {0, 1, 2}: every literal of A occurs in B.
	addTestClause(db, []Literal{PositiveLiteral(0), PositiveLiteral(1)})
	b := addTestClause(db, []Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)})

	db.EnableOccurrenceIndex()
	ip := newInprocessor(db, 4)

	removed, strengthened := ip.Subsume()
	if removed != 1 {
		t.Fatalf("Subsume() removed = %d, want 1", removed)
	}
	if strengthened != 0 {
		t.Fatalf("Subsume() strengthened = %d, want 0", strengthened)
	}
	if !db.Clause(b).isDeleted() {
		t.Fatalf("subsumed clause B was not removed")
	}
}

func TestSubsumeStrengthensViaSelfSubsumption(t *testing.T) {
	db := newInprocessTestDB(4)
	// A = {0, 1}; B = {0, !1, 2}. A and B resolve on var 1 to {0, 2}, which
	// is exactly B with its occurrence of !1 stripped (self-subsumption).
	addTestClause(db, []Literal{PositiveLiteral(0), PositiveLiteral(1)})
	b := addTestClause(db, []Literal{PositiveLiteral(0), NegativeLiteral(1), PositiveLiteral(2)})
	// A decoy clause on var 1's positive occurrence, so the pivot search
	// (rarest literal of A) settles on literal 0 -- the one A and B actually
	// share -- rather than literal 1, whose occurrence list doesn't include
	// B at all (B holds !1, not 1).
	addTestClause(db, []Literal{PositiveLiteral(1), PositiveLiteral(3)})

	db.EnableOccurrenceIndex()
	ip := newInprocessor(db, 4)

	removed, strengthened := ip.Subsume()
	if strengthened != 1 {
		t.Fatalf("Subsume() strengthened = %d, want 1 (removed=%d)", strengthened, removed)
	}

	lits := db.Clause(b).Literals()
	if len(lits) != 2 {
		t.Fatalf("strengthened clause has %d literals, want 2: %v", len(lits), lits)
	}
	for _, l := range lits {
		if l == NegativeLiteral(1) {
			t.Fatalf("strengthened clause still contains the resolved-out literal: %v", lits)
		}
	}
}

// TestSubsumeStrengthenMigratesWatches checks the watch-structure side of
// self-subsumption: B shrinks from 3 literals (general watch scheme) to 2
// (binary scheme), so its original general watch entries must be gone and
// it must be findable through the binary index on its two surviving
// literals, or propagation would scan it with stale assumptions about which
// positions are watched.
func TestSubsumeStrengthenMigratesWatches(t *testing.T) {
	db := newInprocessTestDB(4)
	addTestClause(db, []Literal{PositiveLiteral(0), PositiveLiteral(1)})
	b := addTestClause(db, []Literal{PositiveLiteral(0), NegativeLiteral(1), PositiveLiteral(2)})
	addTestClause(db, []Literal{PositiveLiteral(1), PositiveLiteral(3)})

	db.EnableOccurrenceIndex()
	ip := newInprocessor(db, 4)
	ip.Subsume()

	for _, w := range db.watchers[PositiveLiteral(1)] {
		if w.Ref == b {
			t.Fatalf("stale general watcher for B survives on P(1)")
		}
	}
	for _, w := range db.watchers[NegativeLiteral(0)] {
		if w.Ref == b {
			t.Fatalf("stale general watcher for B survives on !0")
		}
	}

	found := false
	for _, e := range db.binary[NegativeLiteral(0)] {
		if e.Ref == b {
			found = true
			if e.Other != PositiveLiteral(2) {
				t.Fatalf("binary watch on !0 has Other = %v, want P(2)", e.Other)
			}
		}
	}
	if !found {
		t.Fatalf("B is not registered in the binary index on !0 after shrinking to 2 literals")
	}

	found = false
	for _, e := range db.binary[NegativeLiteral(2)] {
		if e.Ref == b {
			found = true
			if e.Other != PositiveLiteral(0) {
				t.Fatalf("binary watch on !2 has Other = %v, want P(0)", e.Other)
			}
		}
	}
	if !found {
		t.Fatalf("B is not registered in the binary index on !2 after shrinking to 2 literals")
	}
}

func TestEliminateVariableResolvesAwayVariable(t *testing.T) {
	db := newInprocessTestDB(3)
	// v=0 occurs positively in {0,1} and negatively in {!0,2}; resolving
	// gives {1,2}, and v=0 disappears from the database entirely.
	addTestClause(db, []Literal{PositiveLiteral(0), PositiveLiteral(1)})
	addTestClause(db, []Literal{NegativeLiteral(0), PositiveLiteral(2)})

	db.EnableOccurrenceIndex()
	ip := newInprocessor(db, 3)

	ok, _ := ip.EliminateVariable(Variable(0))
	if !ok {
		t.Fatalf("EliminateVariable(0) = false, want true")
	}
	if !ip.eliminated[0] {
		t.Fatalf("variable 0 not marked eliminated")
	}
	if len(db.occ[PositiveLiteral(0)]) != 0 || len(db.occ[NegativeLiteral(0)]) != 0 {
		t.Fatalf("eliminated variable still occurs in the occurrence index")
	}

	found := false
	for _, ref := range db.constraints {
		c := db.Clause(ref)
		if c.isDeleted() {
			continue
		}
		lits := c.Literals()
		if len(lits) == 2 {
			has1, has2 := false, false
			for _, l := range lits {
				if l == PositiveLiteral(1) {
					has1 = true
				}
				if l == PositiveLiteral(2) {
					has2 = true
				}
			}
			if has1 && has2 {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("resolvent {1, 2} was not inserted")
	}
}

func TestEliminateVariableReconstructsModel(t *testing.T) {
	db := newInprocessTestDB(3)
	addTestClause(db, []Literal{PositiveLiteral(0), PositiveLiteral(1)})
	addTestClause(db, []Literal{NegativeLiteral(0), PositiveLiteral(2)})

	db.EnableOccurrenceIndex()
	ip := newInprocessor(db, 3)
	if ok, _ := ip.EliminateVariable(Variable(0)); !ok {
		t.Fatalf("EliminateVariable(0) = false, want true")
	}

	// The only remaining clause, the resolvent {1, 2}, does not mention var
	// 0, so it is satisfied regardless of its value; reconstruction should
	// still leave var 0 with a definite (non-Unknown) value.
	model := []LBool{Unknown, True, True}
	ip.ReconstructEliminated(model)
	if model[0] == Unknown {
		t.Fatalf("ReconstructEliminated left var 0 Unknown")
	}
}

func TestEliminateCandidatesEliminatesSeededVariable(t *testing.T) {
	db := newInprocessTestDB(3)
	// Eliminating var 0 produces the resolvent {1, 2}; the worklist should
	// pick var 0 up from its seeded pass over every live variable and
	// eliminate it without a flat, single-pass loop having to be retried.
	addTestClause(db, []Literal{PositiveLiteral(0), PositiveLiteral(1)})
	addTestClause(db, []Literal{NegativeLiteral(0), PositiveLiteral(2)})

	db.EnableOccurrenceIndex()
	ip := newInprocessor(db, 3)

	n := ip.EliminateCandidates()
	if n == 0 {
		t.Fatalf("EliminateCandidates() eliminated 0 variables, want at least 1")
	}
	if !ip.eliminated[0] {
		t.Fatalf("var 0 should have been eliminated")
	}
}
