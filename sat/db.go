package sat

import (
	"sort"

	"github.com/pkg/errors"
)

// Watcher is a record in a literal's watch list: the watched clause plus a
// blocker literal that, when already true, lets propagation skip
// dereferencing the clause entirely (spec.md §4.4 step 1).
type Watcher struct {
	Ref     ClauseRef
	Blocker Literal
}

// binEntry is one record of the compact binary-clause side index (spec.md
// §3 "Watch lists" / §4.4 "binary clauses are checked through the compact
// binary index before the generic watch loop").
type binEntry struct {
	Ref   ClauseRef
	Other Literal
}

// ClauseDB owns every live clause (input and learnt), classifies them, and
// maintains the watch lists, the binary-clause side index, and (when
// inprocessing is active) a full literal-occurrence index. This is C3.
type ClauseDB struct {
	arena *Arena
	sink  Sink

	constraints []ClauseRef // input clauses, and all unit/binary clauses
	learnts     []ClauseRef

	watchers [][]Watcher // indexed by Literal
	binary   [][]binEntry

	occEnabled bool
	occ        [][]ClauseRef // indexed by Literal, only maintained while occEnabled

	clauseInc   float64
	clauseDecay float64
}

func newClauseDB(sink Sink) *ClauseDB {
	return &ClauseDB{
		arena:       NewArena(),
		sink:        sink,
		clauseInc:   1,
		clauseDecay: 0.999,
	}
}

func (db *ClauseDB) growTo(nVars int) {
	for len(db.watchers) < 2*nVars {
		db.watchers = append(db.watchers, nil)
		db.binary = append(db.binary, nil)
		db.occ = append(db.occ, nil)
	}
}

// Clause dereferences ref. It is a thin, allocation-free accessor used
// everywhere the rest of the package needs clause contents.
func (db *ClauseDB) Clause(ref ClauseRef) *Clause { return db.arena.Get(ref) }

func (db *ClauseDB) watch(ref ClauseRef, watchLit, blocker Literal) {
	db.watchers[watchLit] = append(db.watchers[watchLit], Watcher{Ref: ref, Blocker: blocker})
}

func (db *ClauseDB) unwatch(ref ClauseRef, watchLit Literal) {
	ws := db.watchers[watchLit]
	j := 0
	for i := range ws {
		if ws[i].Ref != ref {
			ws[j] = ws[i]
			j++
		}
	}
	db.watchers[watchLit] = ws[:j]
}

func (db *ClauseDB) watchBinary(ref ClauseRef, watchLit, other Literal) {
	db.binary[watchLit] = append(db.binary[watchLit], binEntry{Ref: ref, Other: other})
}

func (db *ClauseDB) unwatchBinary(ref ClauseRef, watchLit Literal) {
	bs := db.binary[watchLit]
	j := 0
	for i := range bs {
		if bs[i].Ref != ref {
			bs[j] = bs[i]
			j++
		}
	}
	db.binary[watchLit] = bs[:j]
}

func (db *ClauseDB) addOccurrence(ref ClauseRef) {
	if !db.occEnabled {
		return
	}
	for _, l := range db.Clause(ref).Literals() {
		db.occ[l] = append(db.occ[l], ref)
	}
}

func (db *ClauseDB) removeOccurrence(ref ClauseRef, lits []Literal) {
	if !db.occEnabled {
		return
	}
	for _, l := range lits {
		os := db.occ[l]
		j := 0
		for i := range os {
			if os[i] != ref {
				os[j] = os[i]
				j++
			}
		}
		db.occ[l] = os[:j]
	}
}

// EnableOccurrenceIndex builds the full literal-occurrence index used by C8
// inprocessing. It is only ever active at decision level 0 with an empty
// propagation queue (see search.go's InprocessingGate state).
func (db *ClauseDB) EnableOccurrenceIndex() {
	if db.occEnabled {
		return
	}
	db.occEnabled = true
	for _, ref := range db.constraints {
		db.addOccurrence(ref)
	}
	for _, ref := range db.learnts {
		db.addOccurrence(ref)
	}
}

// DisableOccurrenceIndex drops the occurrence index outside inprocessing
// epochs so ordinary search does not pay its maintenance cost.
func (db *ClauseDB) DisableOccurrenceIndex() {
	db.occEnabled = false
	for i := range db.occ {
		db.occ[i] = nil
	}
}

// addResult communicates what happened when inserting a candidate clause:
// whether it was stored (and as what ref), immediately satisfied the
// problem (ok but no ref), or proved the formula UNSAT (empty clause).
type addResult struct {
	ref     ClauseRef
	hasRef  bool
	unsat   bool
	unitLit Literal
	isUnit  bool
}

// addInputClause inserts an input (non-learnt) clause, performing the
// simplification spec.md's Clause section requires: drop literals false at
// the root level, detect tautologies and duplicate literals, detect a
// clause already satisfied at the root, and detect the unit and
// empty-clause boundary cases (B1/B2). litValue reports the current
// root-level value of a literal (Unknown if unassigned).
func (db *ClauseDB) addInputClause(lits []Literal, litValue func(Literal) LBool) addResult {
	work := append([]Literal(nil), lits...)
	seen := map[Literal]bool{}

	k := 0
	for _, l := range work {
		if seen[l] {
			continue
		}
		if seen[l.Opposite()] {
			return addResult{} // tautology: always satisfied, nothing to add
		}
		switch litValue(l) {
		case True:
			return addResult{} // already satisfied at the root
		case False:
			continue // drop a root-false literal
		}
		seen[l] = true
		work[k] = l
		k++
	}
	work = work[:k]

	switch len(work) {
	case 0:
		return addResult{unsat: true}
	case 1:
		return addResult{isUnit: true, unitLit: work[0]}
	default:
		ref := db.arena.Allocate(work, false)
		db.finishInsert(ref, work, false)
		db.constraints = append(db.constraints, ref)
		return addResult{ref: ref, hasRef: true}
	}
}

// addLearntClause inserts a clause produced by conflict analysis. literals[0]
// is the asserting literal; literals[1] (if present) is the literal with the
// backjump level, per spec.md §4.5.
func (db *ClauseDB) addLearntClause(lits []Literal, trail *Trail, lbdScratch *stamp) ClauseRef {
	if len(lits) == 1 {
		return NoClauseRef // unit learnt clauses are enqueued directly, not stored
	}
	ref := db.arena.Allocate(lits, true)
	db.finishInsert(ref, lits, true)

	c := db.Clause(ref)
	c.setLBD(trail.ComputeLBD(lits, lbdScratch))
	c.setProtected()
	db.learnts = append(db.learnts, ref)
	return ref
}

// watchClause installs the two-watched-literal records for lits, picking
// the binary side index for size-2 clauses and the general watch lists
// otherwise. Every path that gives a clause its watched positions --
// finishInsert, and any inprocessing mutation that changes which literals
// occupy positions 0/1 -- must go through this (and its unwatchClause
// counterpart) to keep the watch structures and the clause's literal slice
// in lockstep.
func (db *ClauseDB) watchClause(ref ClauseRef, lits []Literal) {
	if len(lits) == 2 {
		db.watchBinary(ref, lits[0].Opposite(), lits[1])
		db.watchBinary(ref, lits[1].Opposite(), lits[0])
	} else {
		db.watch(ref, lits[0].Opposite(), lits[1])
		db.watch(ref, lits[1].Opposite(), lits[0])
	}
}

// unwatchClause removes the watch records installed by watchClause for lits
// (the clause's literals as they stood before any in-place mutation).
func (db *ClauseDB) unwatchClause(ref ClauseRef, lits []Literal) {
	if len(lits) == 2 {
		db.unwatchBinary(ref, lits[0].Opposite())
		db.unwatchBinary(ref, lits[1].Opposite())
	} else {
		db.unwatch(ref, lits[0].Opposite())
		db.unwatch(ref, lits[1].Opposite())
	}
}

func (db *ClauseDB) finishInsert(ref ClauseRef, lits []Literal, learnt bool) {
	db.watchClause(ref, lits)
	db.addOccurrence(ref)
	if db.sink != nil {
		_ = db.sink.AddClause(lits)
	}
}

// remove detaches ref from the watch structures and marks it deleted in the
// arena, emitting a DRAT deletion record. Per spec.md §4.2, callers must
// guarantee ref is not currently serving as a reason on the trail.
func (db *ClauseDB) remove(ref ClauseRef) {
	c := db.Clause(ref)
	lits := append([]Literal(nil), c.Literals()...)

	db.unwatchClause(ref, lits)
	db.removeOccurrence(ref, lits)
	db.arena.Deallocate(ref)

	if db.sink != nil {
		_ = db.sink.DeleteClause(lits)
	}
}

func (db *ClauseDB) bumpActivity(ref ClauseRef) {
	c := db.Clause(ref)
	c.activity += db.clauseInc
	if c.activity > 1e100 {
		db.clauseInc *= 1e-100
		for _, r := range db.learnts {
			db.Clause(r).activity *= 1e-100
		}
	}
}

func (db *ClauseDB) decayActivity() { db.clauseInc *= db.clauseDecay }

// locked reports whether ref is currently the reason clause of its first
// literal's variable -- such a clause must never be deleted by Reduce.
func (db *ClauseDB) locked(ref ClauseRef, trail *Trail) bool {
	c := db.Clause(ref)
	if len(c.Literals()) == 0 {
		return false
	}
	v := c.Literals()[0].Var()
	return trail.ReasonOf(v) == ref
}

// Reduce implements spec.md §4.2's reduction policy: roughly half of the
// learnt clauses with LBD above persistThreshold and size > 2 are removed,
// preferring the highest LBD (ties broken by lowest activity). Clauses
// marked protected survive one cycle; locked (reason) clauses are never
// touched. Must only be called at decision level 0.
func (db *ClauseDB) Reduce(trail *Trail, persistThreshold int) int {
	type cand struct {
		ref ClauseRef
		lbd int
		act float64
	}
	keep := make([]ClauseRef, 0, len(db.learnts))
	candidates := make([]cand, 0, len(db.learnts))

	for _, ref := range db.learnts {
		c := db.Clause(ref)
		if db.locked(ref, trail) {
			keep = append(keep, ref)
			continue
		}
		if c.isProtected() {
			c.clearProtected()
			keep = append(keep, ref)
			continue
		}
		if c.Len() <= 2 || c.LBD() <= persistThreshold {
			keep = append(keep, ref)
			continue
		}
		candidates = append(candidates, cand{ref: ref, lbd: c.LBD(), act: c.activity})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].lbd != candidates[j].lbd {
			return candidates[i].lbd > candidates[j].lbd
		}
		return candidates[i].act < candidates[j].act
	})

	half := len(candidates) / 2
	removed := 0
	for i, c := range candidates {
		if i < half {
			db.remove(c.ref)
			removed++
		} else {
			keep = append(keep, c.ref)
		}
	}

	db.learnts = keep
	return removed
}

// RecomputeLBDs re-scores touched learnt clauses after a conflict analysis
// that resolved against them; a new LBD is only accepted if lower than the
// previous one (the "dynamic nblevel" trick, spec.md §4.2).
func (db *ClauseDB) RecomputeLBDs(touched []ClauseRef, trail *Trail, scratch *stamp) {
	for _, ref := range touched {
		c := db.Clause(ref)
		if !c.IsLearnt() || c.isDeleted() {
			continue
		}
		newLBD := trail.ComputeLBD(c.Literals(), scratch)
		if newLBD < c.LBD() {
			c.setLBD(newLBD)
			if newLBD <= 2 {
				c.setProtected()
			}
		}
	}
}

// Simplify removes input/learnt clauses satisfied at decision level 0 and
// strengthens clauses containing level-0 false literals. Must only be
// called at decision level 0 with an empty propagation queue.
func (db *ClauseDB) Simplify(litValue func(Literal) LBool) {
	db.simplifySlice(&db.constraints, litValue)
	db.simplifySlice(&db.learnts, litValue)
}

func (db *ClauseDB) simplifySlice(refs *[]ClauseRef, litValue func(Literal) LBool) {
	out := (*refs)[:0]
	for _, ref := range *refs {
		c := db.Clause(ref)
		lits := c.Literals()

		satisfied := false
		changed := false
		for _, l := range lits {
			switch litValue(l) {
			case True:
				satisfied = true
			case False:
				changed = true
			}
		}
		if satisfied {
			db.remove(ref)
			continue
		}
		if !changed {
			out = append(out, ref)
			continue
		}

		// The watched positions (0, 1) may be among the literals being
		// dropped, so the old watch records must come off before the
		// literal slice is compacted and new ones go on after, the same
		// way remove/finishInsert bracket every other literal-slice
		// mutation.
		oldLits := append([]Literal(nil), lits...)
		db.unwatchClause(ref, oldLits)
		db.removeOccurrence(ref, oldLits)

		k := 0
		for _, l := range lits {
			if litValue(l) == False {
				continue
			}
			lits[k] = l
			k++
		}
		c.literals = lits[:k]
		c.recomputeAbstraction()

		db.watchClause(ref, c.literals)
		db.addOccurrence(ref)
		out = append(out, ref)
	}
	*refs = out
}

// relocate rewrites every ClauseRef this database holds outside the arena
// itself -- constraints/learnts lists, watch lists, the binary index, and
// the occurrence index -- through reloc, after an Arena.Reorganise. This is
// the "apply the relocation map in one explicit pass" step spec.md's
// ownership-graph design notes call for.
func (db *ClauseDB) relocate(reloc map[ClauseRef]ClauseRef) {
	relocSlice := func(refs []ClauseRef) []ClauseRef {
		out := refs[:0]
		for _, ref := range refs {
			if newRef, ok := reloc[ref]; ok {
				out = append(out, newRef)
			}
		}
		return out
	}

	db.constraints = relocSlice(db.constraints)
	db.learnts = relocSlice(db.learnts)

	for i := range db.watchers {
		ws := db.watchers[i][:0]
		for _, w := range db.watchers[i] {
			if newRef, ok := reloc[w.Ref]; ok {
				w.Ref = newRef
				ws = append(ws, w)
			}
		}
		db.watchers[i] = ws
	}

	for i := range db.binary {
		bs := db.binary[i][:0]
		for _, b := range db.binary[i] {
			if newRef, ok := reloc[b.Ref]; ok {
				b.Ref = newRef
				bs = append(bs, b)
			}
		}
		db.binary[i] = bs
	}

	if db.occEnabled {
		for i := range db.occ {
			db.occ[i] = relocSlice(db.occ[i])
		}
	}
}

// ErrEmptyClause names the unconditional top-level conflict of a clause
// that simplifies to empty (spec.md boundary B2). No function in this
// package returns it: the Solver records that case in its sticky UNSAT flag
// and AddClause returns nil.
var ErrEmptyClause = errors.New("clause simplifies to the empty clause")
