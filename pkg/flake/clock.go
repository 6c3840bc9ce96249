package flake

import "time"

// Clock reports the current time in milliseconds since the Unix epoch.
type Clock interface {
	NowMs() int64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

// NowMs calls f.
func (f ClockFunc) NowMs() int64 { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(func() int64 { return time.Now().UnixMilli() })

// TickClock returns a clock that only advances in whole multiples of tick,
// truncating the readings of base.
func TickClock(base Clock, tick time.Duration) Clock {
	step := tick.Milliseconds()
	if step <= 1 {
		return base
	}
	return ClockFunc(func() int64 {
		now := base.NowMs()
		r := now % step
		if r < 0 {
			r += step
		}
		return now - r
	})
}

// FixedClock returns a clock frozen at ms.
func FixedClock(ms int64) Clock {
	return ClockFunc(func() int64 { return ms })
}
