package talentflow

import (
	"math/rand/v2"
	"sync"
)

// Fault is the error reported for an operation a FaultPolicy failed. It
// matches ErrSimulatedFault.
type Fault struct {
	Operation string
	Message   string
}

func (f *Fault) Error() string {
	if f.Message == "" {
		return f.Operation + ": " + ErrSimulatedFault.Error()
	}
	return f.Message
}

func (f *Fault) Is(target error) bool { return target == ErrSimulatedFault }

// FaultPolicy decides whether an operation should fail artificially.
// It is consulted before any mutation, so a fault never leaves partial writes.
type FaultPolicy interface {
	ShouldFault(operation string) bool
}

// RandomFaults fails each operation independently with probability Rate.
type RandomFaults struct {
	Rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomFaults creates a RandomFaults drawing from rng. A nil rng uses
// a randomly seeded source.
func NewRandomFaults(rate float64, rng *rand.Rand) *RandomFaults {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomFaults{Rate: rate, rng: rng}
}

func (f *RandomFaults) ShouldFault(string) bool {
	if f.Rate <= 0 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < f.Rate
}

// NeverFault never fails.
type NeverFault struct{}

func (NeverFault) ShouldFault(string) bool { return false }

// AlwaysFault always fails. Use in tests to force the fault branch.
type AlwaysFault struct{}

func (AlwaysFault) ShouldFault(string) bool { return true }
