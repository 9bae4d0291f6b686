package rip

import "time"

// RoutingTableEntry is a single destination's routing-table state: the neighbour
// it is reached through, its metric, and the two timers that drive its
// deletion lifecycle.
type RoutingTableEntry struct {
	NextHop uint16
	Metric  uint32

	timeUpdateDue   time.Time
	timeDeletionDue time.Time
	inDeletion      bool

	clock Clock
}

// NewRoutingTableEntry creates an Active entry learned via nextHop at
// metric, with its update timer running from now.
func NewRoutingTableEntry(clock Clock, nextHop uint16, metric uint32) *RoutingTableEntry {
	return &RoutingTableEntry{
		NextHop:       nextHop,
		Metric:        metric,
		timeUpdateDue: clock.Now().Add(EntryTimeout),
		clock:         clock,
	}
}

// Update applies the four-step update rule and returns a short reason
// string describing what happened, or "" if nothing changed.
func (e *RoutingTableEntry) Update(newNextHop uint16, newMetric uint32) string {
	switch {
	case newNextHop == e.NextHop:
		if newMetric != e.Metric {
			e.Metric = newMetric
			e.refreshTimers()
			return "metric changed via existing next-hop"
		}
		e.refreshTimers()
		return "keepalive"
	case newMetric < e.Metric:
		e.NextHop = newNextHop
		e.Metric = newMetric
		e.refreshTimers()
		return "strictly better metric"
	case newMetric == e.Metric && newMetric != InfiniteMetric && e.pastHalfway():
		e.NextHop = newNextHop
		e.refreshTimers()
		return "equal-metric tie-break"
	default:
		return ""
	}
}

func (e *RoutingTableEntry) refreshTimers() {
	e.timeUpdateDue = e.clock.Now().Add(EntryTimeout)
	if e.Metric < InfiniteMetric {
		e.timeDeletionDue = time.Time{}
		e.inDeletion = false
	}
}

func (e *RoutingTableEntry) pastHalfway() bool {
	return e.timeUpdateDue.Sub(e.clock.Now()) <= EntryTimeout/2
}

// ShouldBeginDeletion reports whether this entry must transition from
// Active to the Deletion phase.
func (e *RoutingTableEntry) ShouldBeginDeletion() bool {
	if e.inDeletion {
		return false
	}
	now := e.clock.Now()
	return e.Metric >= InfiniteMetric || !now.Before(e.timeUpdateDue)
}

// BeginDeletion moves an Active entry into the Deletion phase. Callers
// must check ShouldBeginDeletion first; it is not re-checked here.
func (e *RoutingTableEntry) BeginDeletion() {
	e.Metric = InfiniteMetric
	e.timeDeletionDue = e.clock.Now().Add(GarbageCollection)
	e.inDeletion = true
}

// InDeletion reports whether this entry is currently in the deletion
// phase (metric 16, awaiting removal).
func (e *RoutingTableEntry) InDeletion() bool { return e.inDeletion }

// ShouldDelete reports whether a Deletion-phase entry's garbage
// collection timer has elapsed and it should be removed from the table.
func (e *RoutingTableEntry) ShouldDelete() bool {
	return e.inDeletion && !e.clock.Now().Before(e.timeDeletionDue)
}

// NextDeadline returns the next instant at which this entry requires
// attention: its update-due time if Active, its deletion-due time if
// in Deletion.
func (e *RoutingTableEntry) NextDeadline() time.Time {
	if e.inDeletion {
		return e.timeDeletionDue
	}
	return e.timeUpdateDue
}
