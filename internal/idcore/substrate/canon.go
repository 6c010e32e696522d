package substrate

import "encoding/binary"

// Canon builds the canonical, deterministic byte encoding used as the
// input to every content hash in idcore.
// It is a pure append-only byte builder: UTF-8 text and byte slices are
// length-prefixed so no field's content can bleed into its neighbor's
// length, fixed-width integers are big-endian, and "field absent" is
// written as a distinct marker byte from "field present but empty" so a
// present-but-zero-length field never collides with an absent one.
//
// The same Canon encoding is used both to compute a hash at construction
// time and to recompute it at verification time; it is an internal
// wire format, not required to match the JSON persisted on disk.
type Canon struct {
	buf []byte
}

const (
	markerAbsent  byte = 0x00
	markerPresent byte = 0x01
)

// NewCanon returns an empty canonical encoder.
func NewCanon() *Canon { return &Canon{} }

// Bytes returns the accumulated canonical encoding.
func (c *Canon) Bytes() []byte { return c.buf }

// String appends a UTF-8 string, length-prefixed with a big-endian
// uint32 byte count.
func (c *Canon) String(s string) *Canon {
	return c.rawBytes([]byte(s))
}

// RawBytes appends an arbitrary byte slice, length-prefixed the same way
// as String.
func (c *Canon) RawBytes(b []byte) *Canon {
	return c.rawBytes(b)
}

func (c *Canon) rawBytes(b []byte) *Canon {
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(b)))
	c.buf = append(c.buf, lb[:]...)
	c.buf = append(c.buf, b...)
	return c
}

// Uint64 appends a big-endian fixed-width uint64 — used for timestamps
// and other unsigned integer fields.
func (c *Canon) Uint64(v uint64) *Canon {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	c.buf = append(c.buf, b[:]...)
	return c
}

// Uint32 appends a big-endian fixed-width uint32.
func (c *Canon) Uint32(v uint32) *Canon {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	c.buf = append(c.buf, b[:]...)
	return c
}

// Byte appends a single raw byte — used for short enum tags.
func (c *Canon) Byte(b byte) *Canon {
	c.buf = append(c.buf, b)
	return c
}

// OptionalString appends an absent/present marker followed by the string
// when present, so a nil field is never confused with an empty one.
func (c *Canon) OptionalString(s *string) *Canon {
	if s == nil {
		return c.Byte(markerAbsent)
	}
	c.Byte(markerPresent)
	return c.String(*s)
}

// OptionalUint64 appends an absent/present marker followed by the value
// when present.
func (c *Canon) OptionalUint64(v *uint64) *Canon {
	if v == nil {
		return c.Byte(markerAbsent)
	}
	c.Byte(markerPresent)
	return c.Uint64(*v)
}

// StringList appends a count-prefixed sequence of length-prefixed
// strings, preserving order (order is semantically meaningful for
// capability pattern lists and action references).
func (c *Canon) StringList(items []string) *Canon {
	c.Uint32(uint32(len(items)))
	for _, s := range items {
		c.String(s)
	}
	return c
}
