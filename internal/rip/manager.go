package rip

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Neighbor is a configured output: the port and advertised metric of
// the direct link to a router-id.
type Neighbor struct {
	RouterID uint16
	Port     int
	Metric   uint32
}

// Sender dispatches an already-encoded packet to a neighbour's input
// port on loopback. internal/transport provides the production
// implementation; tests can fake it.
type Sender interface {
	SendTo(port int, data []byte) error
}

// poisonedReverse selects poisoned reverse vs plain split-horizon.
// It is a compile-time policy, matching the source daemon's build-time
// flag, not something reconfigured per run.
const poisonedReverse = true

// Manager owns one router's routing table and drives its periodic and
// triggered update schedule. It has no knowledge of sockets or the
// event loop; the driver feeds it datagrams through
// Manager.IncomingMessage, runs Manager.SendAnyUpdates once per tick,
// asks Manager.NextTimeout how long it may block, and reads the table
// snapshots through Manager.String and Manager.TableList.
type Manager struct {
	routerID  uint16
	neighbors map[uint16]Neighbor
	table     map[uint16]*RoutingTableEntry

	clock    Clock
	sender   Sender
	log      *zap.Logger
	recorder Recorder

	nextPeriodicUpdate  time.Time
	nextTriggeredUpdate time.Time
	triggeredPending    bool
}

// NewManager constructs a Manager for routerID with the given
// neighbour set. clock, sender and log are required collaborators,
// passed explicitly rather than resolved from a global; a nil recorder
// is replaced by NopRecorder.
func NewManager(routerID uint16, neighbors map[uint16]Neighbor, clock Clock, sender Sender, log *zap.Logger, recorder Recorder) *Manager {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Manager{
		routerID:  routerID,
		neighbors: neighbors,
		table:     make(map[uint16]*RoutingTableEntry),
		clock:     clock,
		sender:    sender,
		log:       log,
		recorder:  recorder,
		// Due immediately: a fresh router announces itself to its
		// neighbours on its very first loop tick. Jitter only applies
		// from the second cycle onward, once sendResponseMessages
		// reschedules it.
		nextPeriodicUpdate: clock.Now(),
	}
}

// IncomingMessage decodes and processes one received datagram.
func (m *Manager) IncomingMessage(data []byte) {
	packet, err := Decode(data)
	if err != nil {
		m.log.Debug("dropping malformed packet", zap.Error(err))
		m.recorder.PacketDropped()
		return
	}
	m.recorder.PacketReceived()
	for i := 0; i < packet.Dropped; i++ {
		m.recorder.EntryDropped()
	}

	neighbor, ok := m.neighbors[packet.SenderID]
	if !ok {
		m.log.Debug("dropping packet from unconfigured sender", zap.Uint16("sender", packet.SenderID))
		return
	}

	// Refresh the direct link itself, even if the packet carries no
	// entry back to us.
	m.addToTable(packet.SenderID, packet.SenderID, neighbor.Metric)

	for _, e := range packet.Entries {
		metric := neighbor.Metric + e.Metric
		if metric > InfiniteMetric {
			metric = InfiniteMetric
		}
		m.addToTable(e.RouterID, packet.SenderID, metric)
	}
}

func (m *Manager) addToTable(dest, nextHop uint16, metric uint32) {
	if dest == m.routerID {
		return
	}
	if existing, ok := m.table[dest]; ok {
		existing.Update(nextHop, metric)
		return
	}
	if metric >= InfiniteMetric {
		return
	}
	m.table[dest] = NewRoutingTableEntry(m.clock, nextHop, metric)
}

// SendAnyUpdates runs one loop tick's worth of lifecycle and schedule
// bookkeeping: entry expiry/garbage collection, then periodic or
// triggered sends as due.
func (m *Manager) SendAnyUpdates() {
	var toDelete []uint16
	for dest, e := range m.table {
		switch {
		case e.ShouldDelete():
			toDelete = append(toDelete, dest)
			m.triggeredPending = true
		case e.ShouldBeginDeletion():
			e.BeginDeletion()
			m.triggeredPending = true
		}
	}
	for _, dest := range toDelete {
		delete(m.table, dest)
	}
	m.recorder.TableSize(len(m.table))

	now := m.clock.Now()
	duePeriodic := !now.Before(m.nextPeriodicUpdate)
	dueTriggered := m.triggeredPending && !now.Before(m.nextTriggeredUpdate)
	if duePeriodic || dueTriggered {
		m.sendResponseMessages(dueTriggered && !duePeriodic)
	}
}

func (m *Manager) sendResponseMessages(triggered bool) {
	for _, n := range m.neighbors {
		for _, packet := range m.buildPackets(n.RouterID) {
			data := Encode(m.routerID, packet)
			if err := m.sender.SendTo(n.Port, data); err != nil {
				m.log.Debug("send failed", zap.Int("port", n.Port), zap.Error(err))
			}
		}
		m.recorder.UpdateSent(triggered)
	}
	now := m.clock.Now()
	m.nextPeriodicUpdate = now.Add(periodicJitter())
	m.triggeredPending = false
	m.nextTriggeredUpdate = now.Add(triggeredJitter())
}

// buildPackets assembles the sequence of wire packets to send to
// peerID, starting a new packet once the current one holds 25 entries
// (the leading poisoned-reverse self-entry counts toward those 25).
func (m *Manager) buildPackets(peerID uint16) [][]Entry {
	var packets [][]Entry
	current := []Entry{{RouterID: peerID, Metric: InfiniteMetric}}

	flush := func() {
		packets = append(packets, current)
		current = nil
	}

	appendEntry := func(e Entry) {
		if len(current) >= 25 {
			flush()
		}
		current = append(current, e)
	}

	dests := make([]uint16, 0, len(m.table))
	for dest := range m.table {
		dests = append(dests, dest)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })

	for _, dest := range dests {
		e := m.table[dest]
		if e.NextHop == peerID {
			if !poisonedReverse {
				continue
			}
			appendEntry(Entry{RouterID: dest, Metric: InfiniteMetric})
			continue
		}
		appendEntry(Entry{RouterID: dest, Metric: e.Metric})
	}
	flush()
	return packets
}

// NextTimeout returns how long the driver may block before this
// Manager needs attention again: never negative.
func (m *Manager) NextTimeout() time.Duration {
	now := m.clock.Now()
	earliest := m.nextPeriodicUpdate
	if m.triggeredPending && m.nextTriggeredUpdate.Before(earliest) {
		earliest = m.nextTriggeredUpdate
	}
	for _, e := range m.table {
		if d := e.NextDeadline(); d.Before(earliest) {
			earliest = d
		}
	}
	if earliest.Before(now) {
		return 0
	}
	return earliest.Sub(now)
}

// tableRow is one row of the human- and machine-readable table
// snapshots.
type tableRow struct {
	Destination uint16 `json:"destination"`
	NextHop     uint16 `json:"next_hop"`
	Metric      uint32 `json:"metric"`
	Deleting    bool   `json:"deletion_in_progress"`
}

func (m *Manager) rows() []tableRow {
	rows := make([]tableRow, 0, len(m.table))
	for dest, e := range m.table {
		rows = append(rows, tableRow{dest, e.NextHop, e.Metric, e.InDeletion()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Destination < rows[j].Destination })
	return rows
}

// String renders the human-readable table snapshot.
func (m *Manager) String() string {
	s := fmt.Sprintf("router %d routing table:\n", m.routerID)
	for _, r := range m.rows() {
		s += fmt.Sprintf("  %d via %d metric %d%s\n", r.Destination, r.NextHop, r.Metric, deletingSuffix(r.Deleting))
	}
	return s
}

func deletingSuffix(deleting bool) string {
	if deleting {
		return " (deleting)"
	}
	return ""
}

// TableList renders the table as the JSON array
// [destination, next_hop, metric, deletion_in_progress] the
// --autotesting flag emits once per second.
func (m *Manager) TableList() ([]byte, error) {
	rows := m.rows()
	out := make([][4]interface{}, len(rows))
	for i, r := range rows {
		out[i] = [4]interface{}{r.Destination, r.NextHop, r.Metric, r.Deleting}
	}
	return json.Marshal(out)
}
