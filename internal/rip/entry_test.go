package rip

import (
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func TestUpdateSameNextHopAlwaysRefreshes(t *testing.T) {
	clock := newTestClock()
	e := NewRoutingTableEntry(clock, 2, 3)
	clock.advance(EntryTimeout - time.Second)

	reason := e.Update(2, 3)
	if reason == "" {
		t.Fatal("expected a keepalive refresh, got no change")
	}
	if e.ShouldBeginDeletion() {
		t.Error("entry should not need deletion right after a keepalive refresh")
	}
}

func TestUpdateStrictlyBetterMetricAdopted(t *testing.T) {
	clock := newTestClock()
	e := NewRoutingTableEntry(clock, 2, 5)
	if reason := e.Update(3, 2); reason == "" {
		t.Fatal("expected strictly better metric to be adopted")
	}
	if e.NextHop != 3 || e.Metric != 2 {
		t.Errorf("got next-hop=%d metric=%d, want 3/2", e.NextHop, e.Metric)
	}
}

func TestUpdateEqualMetricTieBreakRequiresHalfwayExpiry(t *testing.T) {
	clock := newTestClock()
	e := NewRoutingTableEntry(clock, 2, 3)

	if reason := e.Update(4, 3); reason != "" {
		t.Errorf("tie-break adopted too early: %q", reason)
	}

	clock.advance(EntryTimeout/2 + time.Second)
	if reason := e.Update(4, 3); reason == "" {
		t.Error("expected tie-break to adopt the alternate next-hop past halfway")
	}
	if e.NextHop != 4 {
		t.Errorf("NextHop = %d, want 4", e.NextHop)
	}
}

func TestUpdateWorseMetricIgnored(t *testing.T) {
	clock := newTestClock()
	e := NewRoutingTableEntry(clock, 2, 2)
	if reason := e.Update(3, 5); reason != "" {
		t.Errorf("worse metric via a different next-hop should be ignored, got %q", reason)
	}
	if e.NextHop != 2 || e.Metric != 2 {
		t.Errorf("entry mutated despite no-change rule: %+v", e)
	}
}

func TestDeletionLifecycle(t *testing.T) {
	clock := newTestClock()
	e := NewRoutingTableEntry(clock, 2, 3)

	if e.ShouldBeginDeletion() {
		t.Fatal("fresh entry should not need deletion yet")
	}

	clock.advance(EntryTimeout + time.Second)
	if !e.ShouldBeginDeletion() {
		t.Fatal("expired entry should begin deletion")
	}
	e.BeginDeletion()
	if e.Metric != InfiniteMetric {
		t.Errorf("metric after BeginDeletion = %d, want %d", e.Metric, InfiniteMetric)
	}
	if !e.InDeletion() {
		t.Error("entry should report InDeletion after BeginDeletion")
	}
	if e.ShouldDelete() {
		t.Fatal("should not be deletable before garbage collection timer elapses")
	}

	clock.advance(GarbageCollection + time.Second)
	if !e.ShouldDelete() {
		t.Error("expected entry to be deletable after garbage collection timer elapses")
	}
}

func TestRecoveryFromDeletionClearsDeletionTimer(t *testing.T) {
	clock := newTestClock()
	e := NewRoutingTableEntry(clock, 2, 3)
	clock.advance(EntryTimeout + time.Second)
	e.BeginDeletion()

	e.Update(4, 2)
	if e.InDeletion() {
		t.Error("a recovered route (metric < 16) should leave the deletion phase")
	}
	if e.ShouldDelete() {
		t.Error("a recovered route should not be deletable")
	}
}
