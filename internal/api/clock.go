package api

import "time"

// Clock abstracts wall-clock reads and sleeping so pacing and cooldown logic
// are testable without real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// pacer enforces a minimum interval between the starts of consecutive calls.
// Time already spent in a call's round-trip counts toward the budget, so the
// cost per call is max(0, minInterval - elapsed), not a flat delay.
type pacer struct {
	clock       Clock
	minInterval time.Duration
	lastStart   time.Time
}

func newPacer(clock Clock, minInterval time.Duration) *pacer {
	return &pacer{clock: clock, minInterval: minInterval}
}

// waitTurn blocks until the pacing budget allows the next call to start, then
// marks the call as started. The budget is consumed even when the call that
// follows fails.
func (p *pacer) waitTurn() {
	if !p.lastStart.IsZero() {
		elapsed := p.clock.Now().Sub(p.lastStart)
		if wait := p.minInterval - elapsed; wait > 0 {
			p.clock.Sleep(wait)
		}
	}
	p.lastStart = p.clock.Now()
}
