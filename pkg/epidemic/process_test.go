package epidemic

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/dd0wney/adapnet/pkg/network"
)

func newTestRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 99))
}

func cycle4(t *testing.T) *network.Graph {
	t.Helper()
	g, err := network.FromEdges(4, []network.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 3, B: 0}})
	if err != nil {
		t.Fatalf("FromEdges failed: %v", err)
	}
	return g
}

// TestTransmit_CycleScenario tests a single pass at rate 1 on a 4-cycle
func TestTransmit_CycleScenario(t *testing.T) {
	g := cycle4(t)
	pop := NewPopulation(4)
	pop.Infect(0, 1)

	infected := Transmit(g, pop, 1.0, newTestRNG(1))

	if infected != 2 {
		t.Errorf("new infections = %d, want 2", infected)
	}
	for _, i := range []int{1, 3} {
		if !pop.IsInfectious(i) {
			t.Errorf("node %d should be infectious", i)
		}
		if pop.Duration[i] != 0 {
			t.Errorf("node %d duration = %d, want 0 until advance", i, pop.Duration[i])
		}
	}
	if !pop.IsSusceptible(2) {
		t.Error("node 2 should remain susceptible after one pass")
	}
}

func TestTransmit_ZeroRateAndZeroDuration(t *testing.T) {
	g := cycle4(t)

	pop := NewPopulation(4)
	pop.Infect(0, 3)
	if n := Transmit(g, pop, 0, newTestRNG(2)); n != 0 {
		t.Errorf("rate 0 infected %d nodes", n)
	}

	// A node infected this step (duration 0) does not transmit
	fresh := NewPopulation(4)
	fresh.Infect(0, 0)
	if n := Transmit(g, fresh, 1, newTestRNG(2)); n != 0 {
		t.Errorf("duration-0 node infected %d nodes", n)
	}
}

// TestAdvanceAndRecover_Lifecycle tests recovery at duration 6
func TestAdvanceAndRecover_Lifecycle(t *testing.T) {
	pop := NewPopulation(2)
	pop.Infect(0, 1)

	for step := 2; step <= DefaultRecoveryDuration; step++ {
		infectious, recovered := AdvanceAndRecover(pop, DefaultRecoveryDuration)
		if infectious != 1 || recovered != 0 {
			t.Fatalf("step %d: infectious=%d recovered=%d", step, infectious, recovered)
		}
		if pop.Duration[0] != step {
			t.Fatalf("duration = %d, want %d", pop.Duration[0], step)
		}
		if err := pop.Validate(DefaultRecoveryDuration); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
	}

	infectious, recovered := AdvanceAndRecover(pop, DefaultRecoveryDuration)
	if infectious != 0 || recovered != 1 {
		t.Fatalf("final advance: infectious=%d recovered=%d", infectious, recovered)
	}
	if !pop.IsSusceptible(0) || pop.Duration[0] != 0 {
		t.Errorf("node 0 = %v/%d, want susceptible/0", pop.Status[0], pop.Duration[0])
	}
}

func TestSeed(t *testing.T) {
	pop := NewPopulation(20)
	pop.Infect(3, 2)

	seeded, err := Seed(pop, DefaultSeedCount, newTestRNG(4))
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if seeded != DefaultSeedCount {
		t.Errorf("seeded = %d, want %d", seeded, DefaultSeedCount)
	}
	if pop.InfectiousCount() != DefaultSeedCount+1 {
		t.Errorf("infectious = %d, want %d", pop.InfectiousCount(), DefaultSeedCount+1)
	}
	if pop.Duration[3] != 2 {
		t.Error("seeding touched an already infectious node")
	}
	for i := range pop.Status {
		if i != 3 && pop.IsInfectious(i) && pop.Duration[i] != 1 {
			t.Errorf("seeded node %d duration = %d, want 1", i, pop.Duration[i])
		}
	}
}

func TestSeed_Exhausted(t *testing.T) {
	pop := NewPopulation(3)
	pop.Infect(0, 1)

	seeded, err := Seed(pop, 5, newTestRNG(1))
	if !errors.Is(err, network.ErrExhaustedSearch) {
		t.Fatalf("Seed error = %v, want ErrExhaustedSearch", err)
	}
	if seeded != 2 || pop.InfectiousCount() != 3 {
		t.Errorf("seeded=%d infectious=%d, want 2 and 3", seeded, pop.InfectiousCount())
	}
}

func TestPopulation_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		dur    int
	}{
		{"susceptible with duration", Susceptible, 2},
		{"infectious with zero duration", Infectious, 0},
		{"infectious past recovery", Infectious, 6},
		{"unknown status", Status(7), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pop := NewPopulation(1)
			pop.Status[0] = tt.status
			pop.Duration[0] = tt.dur
			if err := pop.Validate(DefaultRecoveryDuration); !errors.Is(err, ErrInconsistentState) {
				t.Errorf("Validate error = %v, want ErrInconsistentState", err)
			}
		})
	}
}

func TestPrevalence(t *testing.T) {
	pop := NewPopulation(8)
	pop.Infect(1, 1)
	pop.Infect(5, 4)
	if got := pop.Prevalence(); got != 0.25 {
		t.Errorf("Prevalence = %v, want 0.25", got)
	}
	if got := NewPopulation(0).Prevalence(); got != 0 {
		t.Errorf("empty Prevalence = %v, want 0", got)
	}
}
