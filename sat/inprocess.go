package sat

// inprocessor runs the C8 passes (subsumption/self-subsuming resolution and
// bounded variable elimination) between search episodes. It only ever runs
// at decision level 0 with an empty propagation queue (spec.md §4.7); the
// search controller (search.go's InprocessingGate state) is the sole caller.
//
// Grounded on original_source/src/candy/core/clauses/SubsumptionClause.h for
// the signature-abstraction subsumption filter, and on the variable
// elimination pass described alongside it in the same source tree.
type inprocessor struct {
	db   *ClauseDB
	nVar int

	eliminated []bool
	elimLog    []elimRecord

	maxGrowth int
}

// elimRecord is one entry of the elimination log: the eliminated variable and
// the resolvents removed in its place, replayed in reverse at the end of
// search to reconstruct a satisfying value for v (spec.md §4.7).
type elimRecord struct {
	v       Variable
	posLits [][]Literal // clauses that contained v positively
	negLits [][]Literal // clauses that contained ¬v
}

func newInprocessor(db *ClauseDB, nVar int) *inprocessor {
	return &inprocessor{db: db, nVar: nVar, eliminated: make([]bool, nVar), maxGrowth: 16}
}

func (ip *inprocessor) growTo(nVar int) {
	for len(ip.eliminated) < nVar {
		ip.eliminated = append(ip.eliminated, false)
	}
	ip.nVar = nVar
}

// allClauses returns every currently live clause ref (input + learnt),
// snapshotted so the subsumption/SSR passes below can mutate db.constraints
// and db.learnts as they go without disturbing their own iteration.
func (ip *inprocessor) allClauses() []ClauseRef {
	refs := make([]ClauseRef, 0, len(ip.db.constraints)+len(ip.db.learnts))
	refs = append(refs, ip.db.constraints...)
	refs = append(refs, ip.db.learnts...)
	return refs
}

// Subsume runs one pass of subsumption elimination and self-subsuming
// resolution over the occurrence index, which must already be enabled.
// Returns the number of clauses removed by subsumption and the number
// strengthened by SSR.
func (ip *inprocessor) Subsume() (removed, strengthened int) {
	refs := ip.allClauses()

	for _, a := range refs {
		ca := ip.db.Clause(a)
		if ca.isDeleted() {
			continue
		}
		litsA := ca.Literals()
		if len(litsA) == 0 {
			continue
		}

		// Candidate B clauses: every clause occurring alongside A's rarest
		// literal (fewest occurrences) is scanned; this bounds the amount of
		// work per A without missing any real subsumption (every B
		// subsumable by A must share at least one literal with A).
		pivot := litsA[0]
		for _, l := range litsA {
			if len(ip.db.occ[l]) < len(ip.db.occ[pivot]) {
				pivot = l
			}
		}

		candidates := append([]ClauseRef(nil), ip.db.occ[pivot]...)
		for _, b := range candidates {
			if b == a {
				continue
			}
			cb := ip.db.Clause(b)
			if cb.isDeleted() {
				continue
			}
			litsB := cb.Literals()
			if len(litsB) < len(litsA) {
				continue
			}
			if !subsumesAbstraction(ca.abstraction, cb.abstraction) {
				continue
			}

			if ok, negated := trySubsume(litsA, litsB); ok {
				if negated == NoLiteral {
					ip.db.remove(b)
					removed++
				} else {
					oldLits := append([]Literal(nil), litsB...)

					ip.db.unwatchClause(b, oldLits)
					ip.db.removeOccurrence(b, oldLits)
					cb.strengthen(negated)
					newLits := cb.Literals()

					// Emit the strengthened clause before retiring the
					// original one: a DRAT checker validates this ADD by
					// RUP against the proof state as it stood when emitted,
					// which still needs the old clause present.
					if ip.db.sink != nil {
						_ = ip.db.sink.AddClause(newLits)
						_ = ip.db.sink.DeleteClause(oldLits)
					}
					ip.db.watchClause(b, newLits)
					ip.db.addOccurrence(b)
					strengthened++
				}
			}
		}
	}

	return removed, strengthened
}

// trySubsume checks whether A subsumes B (every literal of A occurs in B,
// in which case ok=true, negated=NoLiteral) or whether A self-subsumes B
// with exactly one literal p of A occurring negated in B (ok=true,
// negated=p.Opposite(), the literal actually present in B that must be
// removed to complete the resolution).
func trySubsume(litsA, litsB []Literal) (ok bool, negated Literal) {
	bSet := make(map[Literal]bool, len(litsB))
	for _, l := range litsB {
		bSet[l] = true
	}

	negated = NoLiteral
	for _, p := range litsA {
		if bSet[p] {
			continue
		}
		if bSet[p.Opposite()] && negated == NoLiteral {
			negated = p.Opposite()
			continue
		}
		return false, NoLiteral
	}
	return true, negated
}

// EliminateVariable attempts to eliminate v by resolution, per spec.md §4.7:
// a candidate if |occ(v)| * |occ(¬v)| is at most (|occ(v)| + |occ(¬v)|) times
// the configured growth bound and the non-tautological resolvents number at
// most |occ(v)| + |occ(¬v)| plus that bound (the length of each resolvent
// is not limited), and no resolvent is empty. Returns true if v was eliminated,
// along with the neighbouring variables (those co-occurring with v in a
// removed clause) whose occurrence lists just changed and so are worth
// reconsidering as elimination candidates themselves.
func (ip *inprocessor) EliminateVariable(v Variable) (eliminated bool, neighbors []Variable) {
	if ip.eliminated[v] {
		return false, nil
	}
	pos := PositiveLiteral(int(v))
	neg := NegativeLiteral(int(v))

	posRefs := append([]ClauseRef(nil), ip.db.occ[pos]...)
	negRefs := append([]ClauseRef(nil), ip.db.occ[neg]...)

	if len(posRefs) == 0 || len(negRefs) == 0 {
		return false, nil // pure literal or unused: nothing to resolve
	}
	if len(posRefs)*len(negRefs) > (len(posRefs)+len(negRefs))*ip.maxGrowth {
		return false, nil
	}

	type resolvent struct{ lits []Literal }
	var resolvents []resolvent

	for _, pr := range posRefs {
		for _, nr := range negRefs {
			lits, tautology := resolve(ip.db.Clause(pr).Literals(), ip.db.Clause(nr).Literals(), v)
			if tautology {
				continue
			}
			if len(lits) == 0 {
				// An empty resolvent means the formula is unsatisfiable: v is
				// not eliminated and its clauses stay in place.
				return false, nil
			}
			resolvents = append(resolvents, resolvent{lits: lits})
		}
	}

	before := len(posRefs) + len(negRefs)
	if len(resolvents) > before+ip.maxGrowth {
		return false, nil
	}

	neighborSet := map[Variable]bool{}
	rec := elimRecord{v: v}
	for _, r := range posRefs {
		lits := ip.db.Clause(r).Literals()
		rec.posLits = append(rec.posLits, append([]Literal(nil), lits...))
		for _, l := range lits {
			if l.Var() != v {
				neighborSet[l.Var()] = true
			}
		}
	}
	for _, r := range negRefs {
		lits := ip.db.Clause(r).Literals()
		rec.negLits = append(rec.negLits, append([]Literal(nil), lits...))
		for _, l := range lits {
			if l.Var() != v {
				neighborSet[l.Var()] = true
			}
		}
	}
	ip.elimLog = append(ip.elimLog, rec)

	// Insert the resolvents before removing their antecedents: a DRAT
	// checker validates each ADD by RUP against the clause set as it stood
	// at that point in the proof, so posRefs/negRefs must still be present
	// when the resolvents are emitted.
	for _, res := range resolvents {
		ref := ip.db.arena.Allocate(res.lits, false)
		ip.db.finishInsert(ref, res.lits, false)
		ip.db.constraints = append(ip.db.constraints, ref)
	}

	for _, r := range posRefs {
		ip.db.remove(r)
	}
	for _, r := range negRefs {
		ip.db.remove(r)
	}

	ip.eliminated[v] = true

	neighbors = make([]Variable, 0, len(neighborSet))
	for nv := range neighborSet {
		neighbors = append(neighbors, nv)
	}
	return true, neighbors
}

// EliminateCandidates runs bounded variable elimination to a fixpoint over a
// worklist of candidate variables, seeded with every non-eliminated variable.
// Each successful elimination re-enqueues its neighbours, since removing v's
// clauses changes their occurrence lists and may expose new elimination
// opportunities that a single flat pass over 0..nVar would miss.
func (ip *inprocessor) EliminateCandidates() (eliminated int) {
	queued := make([]bool, ip.nVar)
	q := NewQueue[Variable](ip.nVar)
	for v := 0; v < ip.nVar; v++ {
		if !ip.eliminated[Variable(v)] {
			q.Push(Variable(v))
			queued[v] = true
		}
	}

	for !q.IsEmpty() {
		v := q.Pop()
		queued[v] = false

		ok, neighbors := ip.EliminateVariable(v)
		if !ok {
			continue
		}
		eliminated++
		for _, nv := range neighbors {
			if !ip.eliminated[nv] && !queued[nv] {
				q.Push(nv)
				queued[nv] = true
			}
		}
	}
	return eliminated
}

// resolve produces the resolvent of two clauses on variable v (one
// containing v positively, the other negatively), reporting tautology=true
// if the result contains both a literal and its opposite.
func resolve(a, b []Literal, v Variable) (lits []Literal, tautology bool) {
	seen := map[Literal]bool{}
	out := make([]Literal, 0, len(a)+len(b)-2)
	for _, l := range a {
		if l.Var() == v {
			continue
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, l := range b {
		if l.Var() == v {
			continue
		}
		if seen[l.Opposite()] {
			return nil, true
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, false
}

// ReconstructEliminated assigns a satisfying value to every eliminated
// variable by scanning the elimination log in reverse, picking the phase
// that satisfies every clause removed for that variable. model indexes by
// Variable and is mutated in place.
func (ip *inprocessor) ReconstructEliminated(model []LBool) {
	for i := len(ip.elimLog) - 1; i >= 0; i-- {
		rec := ip.elimLog[i]
		model[rec.v] = reconstructValue(rec, model)
	}
}

func reconstructValue(rec elimRecord, model []LBool) LBool {
	satisfied := func(clauses [][]Literal) bool {
		for _, lits := range clauses {
			ok := false
			for _, l := range lits {
				v := l.Var()
				val := model[v]
				if l.Var() == rec.v {
					continue
				}
				if (val == True) == l.IsPositive() && val != Unknown {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		}
		return true
	}

	// Setting v true satisfies every clause that had v positively (the
	// negative-occurrence clauses only need their *other* literals, already
	// assigned, to be checked).
	if satisfied(rec.negLits) {
		return True
	}
	return False
}
