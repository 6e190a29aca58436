package sat

import (
	"github.com/rhartert/yagh"
)

// brancher selects the next decision variable and tracks phase-saved
// polarity. VSIDS and LRB (spec.md §4.6) are both implementations.
type brancher interface {
	addVar()
	onConflictBump(v Variable) // called for every variable touched during analysis
	onAssign(v Variable, conflictCount int64)
	onUnassign(v Variable, value LBool, conflictCount int64)
	nextDecision(s *Solver) Literal
	decay()
}

// -----------------------------------------------------------------------
// VSIDS
// -----------------------------------------------------------------------

// vsidsOrder maintains per-variable scores in a max-heap (restricted to
// unassigned variables) keyed on score, exactly as spec.md §4.6 describes.
// Ported from the teacher's VarOrder (rhartert-yass/internal/sat/ordering.go),
// which is itself built on the same yagh.IntMap heap this keeps using.
type vsidsOrder struct {
	heap *yagh.IntMap[float64]

	scores  []float64
	inc     float64
	decayBy float64

	phases      []LBool
	phaseSaving bool
}

func newVSIDSOrder(decay float64, phaseSaving bool) *vsidsOrder {
	return &vsidsOrder{
		heap:        yagh.New[float64](0),
		inc:         1,
		decayBy:     decay,
		phaseSaving: phaseSaving,
	}
}

func (o *vsidsOrder) addVar() {
	v := len(o.scores)
	o.scores = append(o.scores, 0)
	o.phases = append(o.phases, Unknown)
	o.heap.GrowBy(1)
	o.heap.Put(v, 0)
}

func (o *vsidsOrder) onConflictBump(v Variable) {
	newScore := o.scores[v] + o.inc
	o.scores[v] = newScore
	if o.heap.Contains(int(v)) {
		o.heap.Put(int(v), -newScore)
	}
	if newScore > 1e100 {
		o.rescale()
	}
}

func (o *vsidsOrder) rescale() {
	o.inc *= 1e-100
	for v, sc := range o.scores {
		newScore := sc * 1e-100
		o.scores[v] = newScore
		if o.heap.Contains(v) {
			o.heap.Put(v, -newScore)
		}
	}
}

func (o *vsidsOrder) decay() {
	o.inc /= o.decayBy
	if o.inc > 1e100 {
		o.rescale()
	}
}

func (o *vsidsOrder) onAssign(v Variable, _ int64) {
	// VSIDS needs no per-assignment bookkeeping; scores only change on
	// conflict (onConflictBump).
}

func (o *vsidsOrder) onUnassign(v Variable, value LBool, _ int64) {
	if o.phaseSaving {
		o.phases[v] = value
	}
	o.heap.Put(int(v), -o.scores[v])
}

func (o *vsidsOrder) nextDecision(s *Solver) Literal {
	for {
		next, ok := o.heap.Pop()
		if !ok {
			panic("nextDecision called with no unassigned variable left")
		}
		v := Variable(next.Elem)
		if s.varValue(v) != Unknown {
			continue
		}
		switch o.phases[v] {
		case False:
			return NegativeLiteral(next.Elem)
		default:
			return PositiveLiteral(next.Elem)
		}
	}
}

// -----------------------------------------------------------------------
// LRB (learning rate branching)
// -----------------------------------------------------------------------

// lrbOrder implements spec.md §4.6's LRB scheme: each variable's score is an
// exponential moving average of its "reward" (participation in conflicts
// per unit of time spent assigned), with the EMA step size annealed from
// 0.4 down to 0.06 as conflicts accumulate.
type lrbOrder struct {
	heap *yagh.IntMap[float64]

	scores       []float64
	participated []int64
	assignedAt   []int64

	phases      []LBool
	phaseSaving bool

	alpha      float64
	alphaFloor float64
}

func newLRBOrder(phaseSaving bool) *lrbOrder {
	return &lrbOrder{
		heap:       yagh.New[float64](0),
		alpha:      0.4,
		alphaFloor: 0.06,
		phaseSaving: phaseSaving,
	}
}

func (o *lrbOrder) addVar() {
	o.scores = append(o.scores, 0)
	o.participated = append(o.participated, 0)
	o.assignedAt = append(o.assignedAt, 0)
	o.phases = append(o.phases, Unknown)
	o.heap.GrowBy(1)
	o.heap.Put(len(o.scores)-1, 0)
}

// onConflictBump marks that v participated in the conflict currently being
// analyzed; the actual EMA update happens on unassignment, when the
// participation interval is known (spec.md: "on un-assignment compute a
// reward = participation / interval").
func (o *lrbOrder) onConflictBump(v Variable) {
	o.participated[v]++
}

func (o *lrbOrder) onAssign(v Variable, conflictCount int64) {
	o.assignedAt[v] = conflictCount
	o.participated[v] = 0
}

func (o *lrbOrder) onUnassign(v Variable, value LBool, conflictCount int64) {
	interval := conflictCount - o.assignedAt[v]
	if interval > 0 {
		reward := float64(o.participated[v]) / float64(interval)
		o.scores[v] = (1-o.alpha)*o.scores[v] + o.alpha*reward
	}
	if o.phaseSaving {
		o.phases[v] = value
	}
	o.heap.Put(int(v), -o.scores[v])

	if o.alpha > o.alphaFloor {
		o.alpha -= 1e-6
		if o.alpha < o.alphaFloor {
			o.alpha = o.alphaFloor
		}
	}
}

func (o *lrbOrder) decay() {} // LRB anneals alpha on unassignment instead.

func (o *lrbOrder) nextDecision(s *Solver) Literal {
	for {
		next, ok := o.heap.Pop()
		if !ok {
			panic("nextDecision called with no unassigned variable left")
		}
		v := Variable(next.Elem)
		if s.varValue(v) != Unknown {
			continue
		}
		switch o.phases[v] {
		case False:
			return NegativeLiteral(next.Elem)
		default:
			return PositiveLiteral(next.Elem)
		}
	}
}
