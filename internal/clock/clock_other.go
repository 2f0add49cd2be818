//go:build !linux

package clock

import "time"

func wallNow() Instant {
	now := time.Now()
	return Instant{Sec: now.Unix(), Nsec: int64(now.Nanosecond())}
}
