package sat

import "testing"

func TestLubySequence(t *testing.T) {
	// The canonical Luby sequence: 1,1,2,1,1,2,4,1,1,2,1,1,2,4,8,...
	want := []int64{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}

	r := newLubyRestarter(1)
	for k, w := range want {
		if got := r.luby(int64(k)); got != w {
			t.Fatalf("luby(%d) = %d, want %d", k, got, w)
		}
	}
}

func TestLubyRestarterShouldRestart(t *testing.T) {
	r := newLubyRestarter(10)
	for i := int64(0); i < 10; i++ {
		if r.shouldRestart() {
			t.Fatalf("shouldRestart() returned true after %d conflicts, unit*luby(0)=10", i)
		}
		r.onConflict(0, 0)
	}
	if !r.shouldRestart() {
		t.Fatalf("shouldRestart() = false after reaching unit*luby(0) conflicts")
	}

	r.onRestart()
	if r.conflicts != 0 {
		t.Fatalf("onRestart() did not reset the conflict counter")
	}
	if r.restarts != 1 {
		t.Fatalf("onRestart() did not advance the restart counter")
	}
}

func TestGlucoseRestarterRequiresMinimumConflicts(t *testing.T) {
	r := newGlucoseRestarter(0.8)
	for i := 0; i < int(r.minConflicts-1); i++ {
		r.onConflict(100, 10) // wildly high LBD, would otherwise trigger a restart
		if r.shouldRestart() {
			t.Fatalf("shouldRestart() = true before minConflicts reached")
		}
	}
}

func TestGlucoseRestarterTriggersOnDegradedShortTermLBD(t *testing.T) {
	r := newGlucoseRestarter(0.8)

	for i := 0; i < 100; i++ {
		r.onConflict(2, 10) // settle the long-run average at a low LBD
	}
	if r.shouldRestart() {
		t.Fatalf("shouldRestart() = true while short and long averages agree")
	}

	for i := 0; i < 10; i++ {
		r.onConflict(50, 10) // a burst of much higher LBD conflicts
	}
	if !r.shouldRestart() {
		t.Fatalf("shouldRestart() = false after a sustained LBD spike")
	}
}

func TestGlucoseRestarterBlockRestart(t *testing.T) {
	r := newGlucoseRestarter(0.8)
	for i := 0; i < 100; i++ {
		r.onConflict(2, 10)
	}
	if r.blockRestart(11) {
		t.Fatalf("blockRestart() = true for a trail only slightly above average")
	}
	if !r.blockRestart(100) {
		t.Fatalf("blockRestart() = false for a trail far above the long-run average")
	}
}
