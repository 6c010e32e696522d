// Package clock supplies the injectable time source every timestamped
// operation in idcore requires: receipts, rotations, and grant issuance
// and revocation all take a clock rather than reading a process-wide wall
// clock, so tests can pin timestamps. Grant verification takes the
// current time as an explicit argument instead.
package clock

import "time"

// Clock returns the current time as unsigned microseconds since the Unix
// epoch, the timestamp representation used throughout idcore.
type Clock interface {
	NowMicros() uint64
}

// System is the real wall-clock implementation, backed by time.Now.
type System struct{}

// NowMicros implements Clock.
func (System) NowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

// Fixed is a Clock that always returns the same instant, for tests that
// need deterministic, non-decreasing timestamps.
type Fixed uint64

// NowMicros implements Clock.
func (f Fixed) NowMicros() uint64 { return uint64(f) }
