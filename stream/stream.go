// Package stream provides small byte-buffer reading helpers used by
// the RIP wire codec to pull fixed-width fields off a decoded
// datagram.
package stream

import (
	"bytes"
	"encoding/binary"
)

// ReadBytes reads n bytes from the byte buffer and returns it.
func ReadBytes(n int, buf *bytes.Buffer) []byte {
	bs := make([]byte, n)
	for i := range bs {
		bs[i], _ = buf.ReadByte()
	}
	return bs
}

// ReadByte reads a single byte off the given byte buffer and returns it.
func ReadByte(buf *bytes.Buffer) byte {
	return ReadBytes(1, buf)[0]
}

// ReadUint16 reads 2 bytes off the buffer and returns it as a uint16.
func ReadUint16(buf *bytes.Buffer) uint16 {
	return binary.BigEndian.Uint16(ReadBytes(2, buf))
}

// ReadUint32 reads 4 bytes off the buffer and returns it as a uint32.
func ReadUint32(buf *bytes.Buffer) uint32 {
	return binary.BigEndian.Uint32(ReadBytes(4, buf))
}
