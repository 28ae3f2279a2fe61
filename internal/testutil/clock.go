package testutil

import (
	"fmt"
	"sync"
	"time"
)

// SaoPaulo is a fixed UTC-3 zone. Reminder times are wall-clock times, so
// tests that run outside UTC catch "HH:mm" values rendered in the wrong zone.
var SaoPaulo = time.FixedZone("BRT", -3*60*60)

// StubClock is a plant.Clock the test moves by hand.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock is the default reminder clock: Monday 2024-01-15 10:30 UTC.
// A weekly plant watered twice is due Thursday the 18th.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

// MonthEndClock sits on the evening of 2024-02-28 in SaoPaulo, where the
// UTC date is already the 29th. Intervals roll over into March through the
// leap day.
func MonthEndClock() *StubClock {
	return NewStubClock(time.Date(2024, 2, 28, 22, 0, 0, 0, SaoPaulo))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward, e.g. past a reminder's due time before a
// dispatch.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator hands out notification ids "notification-1", "notification-2", ...
type StubIDGenerator struct {
	mu   sync.Mutex
	next int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("notification-%d", g.next)
}
