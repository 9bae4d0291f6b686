// Package rip implements the RIP v2-variant wire codec, routing table
// entry lifecycle, and manager described by the daemon's routing core.
package rip

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/jchubb/ripd/stream"
)

const (
	command = 2
	version = 2

	minRouterID = 1
	maxRouterID = 64000

	// InfiniteMetric marks a route unreachable.
	InfiniteMetric = 16

	headerLength = 4
	entryLength  = 20

	minPacketLength = headerLength + entryLength
	maxPacketLength = headerLength + 25*entryLength

	addressFamily = 2
)

// Entry is one destination advertisement carried by a Packet.
type Entry struct {
	RouterID uint16
	Metric   uint32
}

// Packet is a decoded, header-valid RIP message. Entries that failed
// per-entry validation have already been dropped by Decode; Dropped
// records how many so callers can report it (e.g. for metrics).
type Packet struct {
	SenderID uint16
	Entries  []Entry
	Dropped  int
}

// Encode renders a packet to its wire bytes. Callers are expected to
// have already kept Entries within [1, 25]; Encode itself does not
// re-derive that limit, since Manager.buildPackets is the producer and
// already enforces it.
func Encode(senderID uint16, entries []Entry) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(command)
	buf.WriteByte(version)
	writeUint16(buf, senderID)

	for _, e := range entries {
		writeUint16(buf, addressFamily)
		writeUint16(buf, 0)
		writeUint32(buf, uint32(e.RouterID))
		buf.Write(make([]byte, 8))
		writeUint32(buf, e.Metric)
	}
	return buf.Bytes()
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	buf.Write(b)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	buf.Write(b)
}

// Decode validates the header and returns a Packet whose Entries are
// exactly those individual 20-byte records that passed validation;
// malformed entries are silently dropped, not surfaced as errors.
// A header failure rejects the whole datagram.
func Decode(b []byte) (*Packet, error) {
	n := len(b)
	if n < minPacketLength || n > maxPacketLength {
		return nil, fmt.Errorf("rip: packet length %d out of range [%d, %d]", n, minPacketLength, maxPacketLength)
	}
	if (n-headerLength)%entryLength != 0 {
		return nil, fmt.Errorf("rip: packet length %d not header + N*%d", n, entryLength)
	}

	buf := bytes.NewBuffer(b)
	cmd := stream.ReadByte(buf)
	ver := stream.ReadByte(buf)
	senderID := stream.ReadUint16(buf)

	if cmd != command {
		return nil, fmt.Errorf("rip: bad command %d", cmd)
	}
	if ver != version {
		return nil, fmt.Errorf("rip: bad version %d", ver)
	}
	if senderID < minRouterID || senderID > maxRouterID {
		return nil, fmt.Errorf("rip: sender router-id %d out of range [%d, %d]", senderID, minRouterID, maxRouterID)
	}

	count := (n - headerLength) / entryLength
	entries := make([]Entry, 0, count)
	dropped := 0
	for i := 0; i < count; i++ {
		raw := stream.ReadBytes(entryLength, buf)
		if e, ok := decodeEntry(raw); ok {
			entries = append(entries, e)
		} else {
			dropped++
		}
	}
	return &Packet{SenderID: senderID, Entries: entries, Dropped: dropped}, nil
}

func decodeEntry(raw []byte) (Entry, bool) {
	buf := bytes.NewBuffer(raw)
	family := stream.ReadUint16(buf)
	mustBeZero1 := stream.ReadUint16(buf)
	destID := stream.ReadUint32(buf)
	mustBeZero2 := stream.ReadBytes(8, buf)
	metric := stream.ReadUint32(buf)

	if family != addressFamily {
		return Entry{}, false
	}
	if mustBeZero1 != 0 {
		return Entry{}, false
	}
	for _, b := range mustBeZero2 {
		if b != 0 {
			return Entry{}, false
		}
	}
	if destID < minRouterID || destID > maxRouterID {
		return Entry{}, false
	}
	if metric < 1 || metric > InfiniteMetric {
		return Entry{}, false
	}
	return Entry{RouterID: uint16(destID), Metric: metric}, true
}
