package sat

import "testing"

func TestResetSetAddContainsClear(t *testing.T) {
	var rs ResetSet
	rs.GrowTo(4)

	if rs.Contains(0) || rs.Contains(3) {
		t.Fatalf("a freshly grown ResetSet should contain nothing")
	}

	rs.Add(1)
	rs.Add(3)
	if !rs.Contains(1) || !rs.Contains(3) {
		t.Fatalf("Add() did not take effect")
	}
	if rs.Contains(0) || rs.Contains(2) {
		t.Fatalf("Contains() reported an element that was never added")
	}

	rs.Clear()
	if rs.Contains(1) || rs.Contains(3) {
		t.Fatalf("Clear() did not remove previously added elements")
	}

	rs.Add(0)
	if !rs.Contains(0) {
		t.Fatalf("Add() after Clear() did not take effect")
	}
}

func TestResetSetExpand(t *testing.T) {
	var rs ResetSet
	rs.Expand()
	rs.Expand()
	rs.Add(1)
	if !rs.Contains(1) {
		t.Fatalf("Add() after Expand() did not take effect")
	}
	if rs.Contains(0) {
		t.Fatalf("Contains() reported an element that was never added")
	}
}

func TestResetSetClearSurvivesTimestampOverflow(t *testing.T) {
	var rs ResetSet
	rs.GrowTo(2)
	rs.Add(0)

	for i := 0; i < 1<<16+1; i++ {
		rs.Clear()
	}
	if rs.Contains(0) {
		t.Fatalf("an element added before many Clear() calls must not resurface after timestamp wraparound")
	}

	rs.Add(1)
	if !rs.Contains(1) {
		t.Fatalf("Add() after timestamp wraparound did not take effect")
	}
}

func TestResetSetRemove(t *testing.T) {
	var rs ResetSet
	rs.GrowTo(3)
	rs.Clear()

	rs.Add(0)
	rs.Add(1)
	rs.Remove(0)

	if rs.Contains(0) {
		t.Fatalf("Remove() did not take effect")
	}
	if !rs.Contains(1) {
		t.Fatalf("Remove() of one element must not affect another within the same generation")
	}

	rs.Add(0)
	if !rs.Contains(0) {
		t.Fatalf("Add() after Remove() within the same generation did not take effect")
	}
}
