package talentflow

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
)

func TestFaultPolicies(t *testing.T) {
	if (NeverFault{}).ShouldFault("reorder") {
		t.Error("NeverFault faulted")
	}
	if !(AlwaysFault{}).ShouldFault("reorder") {
		t.Error("AlwaysFault did not fault")
	}
	if NewRandomFaults(0, nil).ShouldFault("reorder") {
		t.Error("RandomFaults{Rate: 0} faulted")
	}
	if !NewRandomFaults(1, nil).ShouldFault("reorder") {
		t.Error("RandomFaults{Rate: 1} did not fault")
	}
}

func TestRandomFaults_Rate(t *testing.T) {
	f := NewRandomFaults(0.1, rand.New(rand.NewPCG(1, 1)))

	faults := 0
	const n = 10000
	for range n {
		if f.ShouldFault("reorder") {
			faults++
		}
	}
	if faults < 800 || faults > 1200 {
		t.Errorf("faulted %d of %d, want about 10%%", faults, n)
	}
}

func TestFault_MatchesErrSimulatedFault(t *testing.T) {
	var err error = &Fault{Operation: "reorder", Message: "Reorder failed"}
	if !errors.Is(err, ErrSimulatedFault) {
		t.Error("Fault does not match ErrSimulatedFault")
	}
	if !errors.Is(fmt.Errorf("moving job: %w", err), ErrSimulatedFault) {
		t.Error("wrapped Fault does not match ErrSimulatedFault")
	}
	if errors.Is(err, ErrStorage) {
		t.Error("Fault matches ErrStorage")
	}
	if err.Error() != "Reorder failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := (&Fault{Operation: "reorder"}).Error(); got != "reorder: simulated fault" {
		t.Errorf("Error() without message = %q", got)
	}
}
