package protocol

import "fmt"

// AckCode is a variable-length acknowledgement code read from the
// device. The ROM answers every host action with a 4-7 byte ASCII tag;
// the raw bytes are kept right-aligned in a uint64 so tags of any width
// compare against the constants in this package.
type AckCode struct {
	value  uint64
	length uint8
}

// AckFromBytes parses an ACK from a raw bulk IN transfer. At most the
// first 8 bytes are significant.
func AckFromBytes(b []byte) AckCode {
	n := len(b)
	if n > 8 {
		n = 8
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(b[i])
	}
	return AckCode{value: v, length: uint8(n)}
}

// AckFromU32 builds a 4-byte ACK from a constant.
func AckFromU32(v uint32) AckCode {
	return AckCode{value: uint64(v), length: 4}
}

// AckFromU64 builds an ACK from a constant, deriving the width from the
// number of significant bytes.
func AckFromU64(v uint64) AckCode {
	length := uint8(1)
	for x := v >> 8; x != 0; x >>= 8 {
		length++
	}
	return AckCode{value: v, length: length}
}

// Value returns the raw right-aligned value.
func (a AckCode) Value() uint64 { return a.value }

// Len returns the tag width in bytes.
func (a AckCode) Len() int { return int(a.length) }

// Empty reports whether no bytes were received.
func (a AckCode) Empty() bool { return a.length == 0 }

// Bytes returns the significant tag bytes in wire order.
func (a AckCode) Bytes() []byte {
	b := make([]byte, a.length)
	for i := range b {
		b[i] = byte(a.value >> (8 * uint(a.length-1-uint8(i))))
	}
	return b
}

// ASCII renders the tag for display; non-printable bytes become '.'.
func (a AckCode) ASCII() string {
	b := a.Bytes()
	for i, c := range b {
		if c < 0x20 || c > 0x7E {
			b[i] = '.'
		}
	}
	return string(b)
}

// Matches32 reports whether this ACK carries the given 4-byte tag.
func (a AckCode) Matches32(expected uint32) bool {
	return a.length >= 4 && a.value&0xFFFFFFFF == uint64(expected)
}

// Matches64 reports whether this ACK equals a wider tag constant.
func (a AckCode) Matches64(expected uint64) bool {
	return a.value == expected
}

// IsError reports whether the tag is a device-reported error ("ER??").
func (a AckCode) IsError() bool {
	if a.length < 4 {
		return false
	}
	b := a.Bytes()
	return b[0] == 'E' && b[1] == 'R'
}

func (a AckCode) String() string {
	return fmt.Sprintf("%s (0x%0*X)", a.ASCII(), int(a.length)*2, a.value)
}
