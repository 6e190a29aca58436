package sat

// RestartPolicy selects when the search controller (C7) should force a
// restart (backjump to level 0), per spec.md §4.6.
type RestartPolicy int

const (
	// RestartLuby restarts after the k-th restart when the Luby sequence at
	// index k, times a unit interval, conflicts have occurred since the
	// last restart.
	RestartLuby RestartPolicy = iota
	// RestartGlucose tracks short/long moving averages of learnt-clause LBD
	// and forces a restart when the short-term average degrades enough
	// relative to the long-term one (the "Glucose" dynamic restart).
	RestartGlucose
)

// restarter decides, after every conflict, whether the search controller
// should transition to the Restart state.
type restarter interface {
	onConflict(lbd int, trailLen int)
	shouldRestart() bool
	onRestart()
}

// lubyRestarter implements the Luby restart sequence: u_1=1, u_2=1, u_3=2,
// u_4=1, u_5=1, u_6=2, u_7=4, ... (doubling runs of the prior sequence with
// one new term appended), scaled by a unit interval.
type lubyRestarter struct {
	unit      int64
	conflicts int64
	restarts  int64
}

func newLubyRestarter(unit int64) *lubyRestarter {
	return &lubyRestarter{unit: unit}
}

// luby returns the 0-indexed k-th term of the Luby sequence (k=0 -> 1,
// k=1 -> 1, k=2 -> 2, k=3 -> 1, ...), via the standard finite-subsequence
// search: find the run of the form 2^seq-1 containing k, then recurse into
// it. No array is retained between calls; each lookup is O(log k).
func (r *lubyRestarter) luby(k int64) int64 {
	size, seq := int64(1), int64(0)
	for size < k+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != k {
		size = (size - 1) / 2
		seq--
		k %= size
	}
	return int64(1) << uint(seq)
}

func (r *lubyRestarter) onConflict(lbd int, trailLen int) { r.conflicts++ }

func (r *lubyRestarter) shouldRestart() bool {
	return r.conflicts >= r.unit*r.luby(r.restarts)
}

func (r *lubyRestarter) onRestart() {
	r.restarts++
	r.conflicts = 0
}

// glucoseRestarter implements spec.md's "Glucose dynamic" policy: short and
// long moving averages of conflict-clause LBD, restarting when the short
// average exceeds K times the long one, with a block on restarting while
// the trail is growing faster than its long-run average (to avoid
// restarting in the middle of genuine progress).
type glucoseRestarter struct {
	short EMA
	long  EMA

	K float64 // trigger ratio, default ~0.8 as a divisor: short/long > 1/K... see shouldRestart

	trailAvg    EMA
	blockFactor float64

	conflictsSinceRestart int64
	minConflicts          int64
}

func newGlucoseRestarter(k float64) *glucoseRestarter {
	return &glucoseRestarter{
		short:        NewEMA(0.98),   // ~50-conflict effective window
		long:         NewEMA(0.9998), // ~5000-conflict effective window
		K:            k,
		trailAvg:     NewEMA(0.999),
		blockFactor:  1.4,
		minConflicts: 50,
	}
}

func (r *glucoseRestarter) onConflict(lbd int, trailLen int) {
	r.conflictsSinceRestart++
	r.short.Add(float64(lbd))
	r.long.Add(float64(lbd))
	r.trailAvg.Add(float64(trailLen))
}

func (r *glucoseRestarter) shouldRestart() bool {
	if r.conflictsSinceRestart < r.minConflicts {
		return false
	}
	if r.long.Val() == 0 {
		return false
	}
	return r.short.Val() > r.long.Val()*(1/r.K)
}

// blockRestart reports whether a pending restart should be deferred because
// recent trail growth is outpacing the long-run average -- i.e. the search
// is making unusually good progress right now (spec.md §4.6).
func (r *glucoseRestarter) blockRestart(trailLen int) bool {
	return float64(trailLen) > r.trailAvg.Val()*r.blockFactor
}

func (r *glucoseRestarter) onRestart() {
	r.conflictsSinceRestart = 0
}
