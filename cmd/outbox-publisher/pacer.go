package main

import (
	"math/rand/v2"
	"time"
)

// pacer spaces out polls: idle between empty batches, doubling after each
// failure until ceiling. Waits carry up to 250ms of jitter so replicas
// started together drift apart.
type pacer struct {
	idle    time.Duration
	ceiling time.Duration
	current time.Duration
}

func newPacer(idle, ceiling time.Duration) *pacer {
	return &pacer{idle: idle, ceiling: ceiling, current: idle}
}

func (p *pacer) reset() time.Duration {
	p.current = p.idle
	return jitter(p.idle)
}

func (p *pacer) failed() time.Duration {
	p.current = min(p.current*2, p.ceiling)
	return jitter(p.current)
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(250*time.Millisecond)
}
