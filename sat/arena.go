package sat

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ClauseRef is a handle into an Arena. Holders (watch lists, trail reasons,
// the binary/occurrence indexes) store ClauseRefs rather than *Clause so
// that an Arena.Reorganise can relocate clauses without chasing down every
// holder individually — callers apply the returned relocation map in one
// explicit pass, per spec.md's ownership-graph design notes.
type ClauseRef uint32

// NoClauseRef is the largest ClauseRef value. Handles are slot indices
// counted up from 0, so a real allocation would only reach it after 2^32-1
// clauses in one arena generation.
const NoClauseRef ClauseRef = 1<<32 - 1

// pageCapacity bounds the number of clauses placed in one page before a new
// page is started. Candy's ClauseAllocatorPage bounds pages by byte size
// (~32MiB); idiomatic Go arenas of GC-managed structs are more naturally
// bounded by element count, so this is the Go-native analogue of that same
// "fixed-size slab" contract (see original_source/.../ClauseAllocatorPage.h).
const pageCapacity = 16384

type arenaPage struct {
	clauses []Clause
	live    int
}

func newArenaPage() *arenaPage {
	return &arenaPage{clauses: make([]Clause, 0, pageCapacity)}
}

type clauseSlot struct {
	page *arenaPage
	idx  int
}

// Arena is a bump allocator over fixed-size pages, per spec.md C2. Clauses
// are placed contiguously within a page (append-only); Deallocate only marks
// a clause deleted. Space is reclaimed in bulk by Reorganise, which copies
// every live clause into a fresh page set.
//
// freedPages recycles the backing arrays of retired pages through an LRU
// cache (bounded so a burst of reorganisations cannot pin arbitrary amounts
// of stale memory) instead of letting each one fall to the garbage collector
// and forcing a fresh make() on the next page.
type Arena struct {
	pages []*arenaPage
	slots []clauseSlot
	cur   *arenaPage

	freedPages *lru.Cache[int, *arenaPage]
	nextPageID int
}

// NewArena returns an empty Arena ready to allocate clauses.
func NewArena() *Arena {
	cache, _ := lru.New[int, *arenaPage](8)
	a := &Arena{freedPages: cache}
	a.cur = a.newPage()
	return a
}

func (a *Arena) newPage() *arenaPage {
	id := a.nextPageID
	a.nextPageID++
	if p, ok := a.freedPages.Get(id % 8); ok && len(p.clauses) == 0 {
		a.freedPages.Remove(id % 8)
		return p
	}
	// The new page becomes a.cur; Allocate appends it to a.pages once full.
	return newArenaPage()
}

// Allocate copies lits into a freshly bump-allocated clause slot and returns
// its handle. It never fails except by (fatal, unrecoverable) out-of-memory,
// matching spec.md's contract -- Go's allocator surfaces that as a runtime
// fatal error rather than a returned one, so Allocate has no error return.
func (a *Arena) Allocate(lits []Literal, learnt bool) ClauseRef {
	if len(a.cur.clauses) == cap(a.cur.clauses) {
		a.pages = append(a.pages, a.cur)
		a.cur = a.newPage()
	}
	a.cur.clauses = append(a.cur.clauses, *newClauseLiterals(lits, learnt))
	a.cur.live++

	ref := ClauseRef(len(a.slots))
	a.slots = append(a.slots, clauseSlot{page: a.cur, idx: len(a.cur.clauses) - 1})
	return ref
}

// Get returns the clause held at ref. A deallocated clause is still
// returned (marked deleted, with no literals) until the next Reorganise;
// Get panics only if ref lies beyond the slots allocated so far, a contract
// violation per spec.md §7.3.
func (a *Arena) Get(ref ClauseRef) *Clause {
	slot := a.slots[ref]
	return &slot.page.clauses[slot.idx]
}

// Deallocate marks the clause deleted. The backing storage is only reclaimed
// during the next Reorganise.
func (a *Arena) Deallocate(ref ClauseRef) {
	slot := a.slots[ref]
	c := &slot.page.clauses[slot.idx]
	if c.isDeleted() {
		return
	}
	c.status |= statusDeleted
	c.literals = nil
	slot.page.live--
}

// LiveFraction reports the fraction of allocated clause slots across all
// pages that are still live. The search controller uses this to decide when
// a Reorganise is worth the copy (see search.go's inprocessing gate).
func (a *Arena) LiveFraction() float64 {
	total, live := 0, 0
	for _, p := range a.pages {
		total += len(p.clauses)
		live += p.live
	}
	if a.cur != nil {
		total += len(a.cur.clauses)
		live += a.cur.live
	}
	if total == 0 {
		return 1
	}
	return float64(live) / float64(total)
}

// Reorganise copies every clause in liveRefs into a fresh page set and
// returns a map from old handle to new handle. Callers must apply the
// relocation map to every structure that stores ClauseRefs (watch lists,
// trail reasons, binary/occurrence indexes) before touching the arena
// again -- holding a stale ClauseRef past this point is undefined.
//
// Retired pages are handed off to the recycle cache so their backing arrays
// can be reused by future allocations instead of immediately falling to the
// garbage collector.
func (a *Arena) Reorganise(liveRefs []ClauseRef) map[ClauseRef]ClauseRef {
	oldSlots := a.slots
	oldPages := a.pages
	if a.cur != nil {
		oldPages = append(oldPages, a.cur)
	}

	relocation := make(map[ClauseRef]ClauseRef, len(liveRefs))

	a.pages = nil
	a.slots = nil
	a.nextPageID = 0
	a.cur = newArenaPage()

	for _, old := range liveRefs {
		src := &oldSlots[old].page.clauses[oldSlots[old].idx]
		if src.isDeleted() {
			continue
		}

		if len(a.cur.clauses) == cap(a.cur.clauses) {
			a.pages = append(a.pages, a.cur)
			a.cur = newArenaPage()
		}
		a.cur.clauses = append(a.cur.clauses, *src)
		a.cur.live++

		newRef := ClauseRef(len(a.slots))
		a.slots = append(a.slots, clauseSlot{page: a.cur, idx: len(a.cur.clauses) - 1})
		relocation[old] = newRef
	}

	// Old pages are handed to the recycle cache so their backing arrays can
	// be reused by newPage instead of immediately falling to the garbage
	// collector. Pages are keyed by a small rotating bucket rather than their
	// retired identity since only the backing capacity is worth keeping.
	for i, p := range oldPages {
		p.clauses = p.clauses[:0]
		p.live = 0
		a.freedPages.Add(i%8, p)
	}

	return relocation
}
