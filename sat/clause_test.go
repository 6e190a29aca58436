package sat

import "testing"

func TestClauseStrengthenRemovesLiteralAndUpdatesAbstraction(t *testing.T) {
	c := newClauseLiterals([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)}, false)
	before := c.abstraction

	c.strengthen(PositiveLiteral(1))

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	for _, l := range c.Literals() {
		if l == PositiveLiteral(1) {
			t.Fatalf("strengthened literal still present: %v", c.Literals())
		}
	}
	if c.abstraction == before {
		t.Fatalf("abstraction was not recomputed after strengthen")
	}
}

func TestSubsumesAbstraction(t *testing.T) {
	a := newClauseLiterals([]Literal{PositiveLiteral(0), PositiveLiteral(1)}, false)
	b := newClauseLiterals([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)}, false)
	c := newClauseLiterals([]Literal{PositiveLiteral(3), PositiveLiteral(4)}, false)

	if !subsumesAbstraction(a.abstraction, b.abstraction) {
		t.Fatalf("a's signature should be a subset of b's")
	}
	if subsumesAbstraction(a.abstraction, c.abstraction) {
		t.Fatalf("disjoint-variable clauses should not pass the abstraction filter")
	}
}

func TestClauseProtectedFlag(t *testing.T) {
	c := newClauseLiterals([]Literal{PositiveLiteral(0), PositiveLiteral(1)}, true)
	if !c.IsLearnt() {
		t.Fatalf("IsLearnt() = false, want true")
	}
	if c.isProtected() {
		t.Fatalf("new clause should not start protected")
	}
	c.setProtected()
	if !c.isProtected() {
		t.Fatalf("setProtected() did not take effect")
	}
	c.clearProtected()
	if c.isProtected() {
		t.Fatalf("clearProtected() did not take effect")
	}
}
