package testutil

import (
	"fmt"
	"sync"
	"time"

	"talentflow/internal/talentflow"
)

// Epoch is the instant FixedClock starts at.
var Epoch = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// StubClock is a talentflow.Clock under test control. With a non-zero step
// every Now call advances it, so consecutive writes get distinct timestamps.
type StubClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func FixedClock() *StubClock {
	return &StubClock{now: Epoch}
}

// SteppingClock starts at Epoch and moves forward by step after each Now.
func SteppingClock(step time.Duration) *StubClock {
	return &StubClock{now: Epoch, step: step}
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Peek returns the time the next Now call will report without moving.
func (c *StubClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *StubClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// StubID is the n-th id handed out by a StubIDGenerator. Ids have the shape
// of the UUIDs the real generator makes.
func StubID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

// StubIDGenerator hands out StubID(1), StubID(2), ...
type StubIDGenerator struct {
	mu     sync.Mutex
	issued int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return StubID(g.issued)
}

// Issued reports how many ids have been handed out.
func (g *StubIDGenerator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.issued
}

var (
	_ talentflow.Clock       = (*StubClock)(nil)
	_ talentflow.IDGenerator = (*StubIDGenerator)(nil)
)
