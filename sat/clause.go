package sat

import "strings"

// status is a small bitmask of per-clause flags, grounded on the teacher's
// statusMask field (rhartert-yass/sat/clauses.go) and on the Candy
// solver's deleted/frozen clause flags (original_source/src/candy/core/Clause.h).
type status uint8

const (
	statusDeleted   status = 1 << 0
	statusLearnt    status = 1 << 1
	statusProtected status = 1 << 2 // survives one reduction cycle regardless of LBD/activity
)

// maxLBD is the saturation point for the LBD (glue) score. Clauses rarely
// reach it; saturating keeps the field a fixed, small size as required by
// spec's "small bit-field" attribute.
const maxLBD = 1<<16 - 1

// Clause is an ordered sequence of literals stored in an Arena page. Order is
// significant: literals[0] and literals[1] are the two watched literals.
//
// A Clause is never read directly by callers outside the package; all access
// goes through a ClauseRef so that an Arena.Reorganise can relocate the
// backing storage without invalidating references held by watch lists,
// trail reasons, or the occurrence index (see arena.go).
type Clause struct {
	literals []Literal

	activity float64
	lbd      uint16
	status   status

	// abstraction is a 32-bit signature (bitset of var mod 32) used by C8's
	// subsumption filter. It must be recomputed whenever literals change;
	// centralizing that here (vs. the "unsafe to modify in place" abstraction
	// in the original source) keeps it from ever drifting silently.
	abstraction uint32

	// searchFrom speeds up finding a new literal to watch by resuming the
	// scan where the last replacement was found, instead of rescanning from
	// literals[2] every time (mirrors the teacher's prevPos field).
	searchFrom int
}

func newClauseLiterals(lits []Literal, learnt bool) *Clause {
	c := &Clause{
		literals:   append([]Literal(nil), lits...),
		searchFrom: 2,
	}
	if learnt {
		c.status |= statusLearnt
	}
	c.recomputeAbstraction()
	return c
}

// IsLearnt reports whether the clause was derived by conflict analysis
// rather than supplied as part of the input formula.
func (c *Clause) IsLearnt() bool { return c.status&statusLearnt != 0 }

func (c *Clause) isDeleted() bool { return c.status&statusDeleted != 0 }

func (c *Clause) isProtected() bool { return c.status&statusProtected != 0 }

func (c *Clause) setProtected()   { c.status |= statusProtected }
func (c *Clause) clearProtected() { c.status &^= statusProtected }

// LBD returns the clause's literal block distance (glue score).
func (c *Clause) LBD() int { return int(c.lbd) }

func (c *Clause) setLBD(v int) {
	if v > maxLBD {
		v = maxLBD
	}
	c.lbd = uint16(v)
}

// Len returns the number of literals currently in the clause.
func (c *Clause) Len() int { return len(c.literals) }

// Literals returns the clause's literal slice itself, not a copy.
// Propagation reorders it in place, which leaves the abstraction valid; a
// caller that changes which literals it holds must recompute the
// abstraction afterwards (strengthen and simplifySlice do, via
// Clause.recomputeAbstraction), see the Open Question in spec.md about the
// original source's "unsafe to modify in place" subsumption abstraction.
func (c *Clause) Literals() []Literal { return c.literals }

func (c *Clause) recomputeAbstraction() {
	var abs uint32
	for _, l := range c.literals {
		abs |= l.signature()
	}
	c.abstraction = abs
}

// strengthen removes literal p from the clause (self-subsuming resolution,
// C8) and keeps the signature abstraction consistent.
func (c *Clause) strengthen(p Literal) {
	k := 0
	for _, l := range c.literals {
		if l != p {
			c.literals[k] = l
			k++
		}
	}
	c.literals = c.literals[:k]
	c.recomputeAbstraction()
}

// subsumesAbstraction is the cheap signature-only pre-filter from spec
// §4.7: A can only subsume B if (absA &^ absB) == 0.
func subsumesAbstraction(absA, absB uint32) bool {
	return absA&^absB == 0
}

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "()"
	}
	sb := strings.Builder{}
	sb.WriteByte('(')
	for i, l := range c.literals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(l.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
