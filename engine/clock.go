package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies event timestamps in microseconds.
type Clock interface {
	NowMicros() uint64
}

type SystemClock struct{}

func (SystemClock) NowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

// FixedClock returns a settable instant, for tests and replays.
type FixedClock struct {
	micros uint64
}

func NewFixedClock(micros uint64) *FixedClock {
	return &FixedClock{micros: micros}
}

func (c *FixedClock) NowMicros() uint64 {
	return atomic.LoadUint64(&c.micros)
}

func (c *FixedClock) Set(micros uint64) {
	atomic.StoreUint64(&c.micros, micros)
}
