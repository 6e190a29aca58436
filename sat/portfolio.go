package sat

import (
	"sync"

	uuid "github.com/hashicorp/go-uuid"
)

// GlobalArena is the shared clause pool portfolio-mode instances fold
// learnt clauses into, per spec.md §5. Every registered participant owns a
// private Solver/Arena pair and writes to it unlocked; GlobalArena itself is
// guarded by a single mutex and only ever touched through Fold/Import.
//
// Grounded on original_source/src/candy/core/clauses/GlobalClauseAllocator.h,
// whose readiness barrier this corrects: the source computes "everybody
// ready" by AND-reducing into a bool initialised to false, which collapses
// the conjunction to false on every call (spec.md §9's flagged bug). Here,
// ready is tracked per participant ID and "all ready" is a genuine
// conjunction over the registered set.
type GlobalArena struct {
	mu sync.Mutex

	arena *Arena

	participants map[string]bool // participant ID -> registered
	ready        map[string]bool // participant ID -> ready since last reorganise

	sharedRefs []ClauseRef // refs into arena, exposed to Import callers
}

// NewGlobalArena returns an empty, unregistered GlobalArena.
func NewGlobalArena() *GlobalArena {
	return &GlobalArena{
		arena:        NewArena(),
		participants: map[string]bool{},
		ready:        map[string]bool{},
	}
}

// Register enrolls a new portfolio participant and returns its ID, generated
// with go-uuid so participants can be registered concurrently without
// coordinating on an integer counter.
func (g *GlobalArena) Register() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.participants[id] = true
	return id, nil
}

// Unregister removes a participant, e.g. when a portfolio member's Solver is
// released. A missing participant can no longer block the readiness
// barrier.
func (g *GlobalArena) Unregister(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.participants, id)
	delete(g.ready, id)
}

// Fold copies lits (one instance's freshly learnt clauses, already filtered
// for shareability by the caller) into the global arena and marks the
// calling participant ready. If every registered participant has signalled
// ready since the last reorganisation, Fold performs the reorganisation
// itself and returns the relocation map so the caller can translate any
// ClauseRefs it was already holding into the global arena.
func (g *GlobalArena) Fold(id string, lits [][]Literal) (relocation map[ClauseRef]ClauseRef, reorganised bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, cl := range lits {
		ref := g.arena.Allocate(cl, false)
		g.sharedRefs = append(g.sharedRefs, ref)
	}

	g.ready[id] = true

	if !g.allReadyLocked() {
		return nil, false
	}

	relocation = g.arena.Reorganise(g.sharedRefs)
	live := g.sharedRefs[:0]
	for _, ref := range g.sharedRefs {
		if newRef, ok := relocation[ref]; ok {
			live = append(live, newRef)
		}
	}
	g.sharedRefs = live

	// The barrier rule (spec.md §5): pages retired by this reorganisation
	// may only be freed because every registered participant has signalled
	// readiness since they were last retired -- which is exactly the
	// condition allReadyLocked just confirmed. Reset readiness for the next
	// barrier.
	for k := range g.ready {
		delete(g.ready, k)
	}

	return relocation, true
}

// allReadyLocked reports whether every currently registered participant has
// folded since the last reorganisation. Unlike the source this corrects
// (spec.md §9), the conjunction starts true and is only narrowed by an
// actual unready participant, so an empty participant set or a fully ready
// one both correctly report true.
func (g *GlobalArena) allReadyLocked() bool {
	for id := range g.participants {
		if !g.ready[id] {
			return false
		}
	}
	return true
}

// Import returns a snapshot of every clause currently in the global arena,
// for a participant to pull into its own private Arena. Duplicate filtering
// against clauses the participant already holds is the caller's
// responsibility (spec.md §5's "Ordering" note: no cross-instance ordering
// is assumed, and duplicates may be filtered by signature).
func (g *GlobalArena) Import() [][]Literal {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([][]Literal, 0, len(g.sharedRefs))
	for _, ref := range g.sharedRefs {
		c := g.arena.Get(ref)
		if c.isDeleted() {
			continue
		}
		out = append(out, append([]Literal(nil), c.Literals()...))
	}
	return out
}
