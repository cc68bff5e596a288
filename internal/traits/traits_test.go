package traits

import (
	"math"
	"testing"
)

func TestEvolveClampsExtremeDrive(t *testing.T) {
	v := Evolve(DefaultVector(), 1e9, DefaultConfig())
	for i, trait := range v.Values() {
		if trait > TraitMax {
			t.Fatalf("trait %d = %v exceeds TraitMax under extreme drive", i, trait)
		}
		if trait < TraitMin {
			t.Fatalf("trait %d = %v below TraitMin", i, trait)
		}
	}
}

func TestEvolveClampsNegativeOvershoot(t *testing.T) {
	v := Vector{Curiosity: 0.01, Resilience: 0.01, Openness: 0.01, ProcessingSpeed: 0.01}
	cfg := DefaultConfig()
	cfg.DecayBeta = 500 // beta*trait overwhelms the value
	out := Evolve(v, 0, cfg)
	for i, trait := range out.Values() {
		if trait != TraitMin {
			t.Fatalf("trait %d = %v, want floor %v", i, trait, TraitMin)
		}
	}
}

func TestEvolveNaNDriveFloorsTraits(t *testing.T) {
	out := Evolve(DefaultVector(), math.NaN(), DefaultConfig())
	for i, trait := range out.Values() {
		if math.IsNaN(trait) {
			t.Fatalf("trait %d is NaN", i)
		}
	}
}

func TestDecayPullsTowardZeroWithoutDrive(t *testing.T) {
	v := DefaultVector()
	cfg := DefaultConfig()
	for i := 0; i < 50; i++ {
		next := Evolve(v, 0, cfg)
		for j := range next.Values() {
			if next.Values()[j] > v.Values()[j] {
				t.Fatalf("iteration %d: trait %d grew without drive", i, j)
			}
		}
		v = next
	}
	if v.Curiosity > 0.01 {
		t.Fatalf("curiosity = %v after 50 undriven steps, expected near zero", v.Curiosity)
	}
}

func TestEvolveExactUpdate(t *testing.T) {
	cfg := DefaultConfig()
	v := DefaultVector()
	out := Evolve(v, 0.4, cfg)

	want := 0.5 + cfg.WeightCuriosity*0.4 - cfg.DecayBeta*0.5
	if math.Abs(out.Curiosity-want) > 1e-12 {
		t.Fatalf("curiosity = %.12f, want %.12f", out.Curiosity, want)
	}
	want = 0.5 + cfg.WeightProcessingSpeed*0.4 - cfg.DecayBeta*0.5
	if math.Abs(out.ProcessingSpeed-want) > 1e-12 {
		t.Fatalf("processing_speed = %.12f, want %.12f", out.ProcessingSpeed, want)
	}
}

func TestEvolveIsDeterministic(t *testing.T) {
	v := Vector{Curiosity: 0.7, Resilience: 0.3, Openness: 1.1, ProcessingSpeed: 0.05}
	a := Evolve(v, 0.33, DefaultConfig())
	b := Evolve(v, 0.33, DefaultConfig())
	if a != b {
		t.Fatalf("same inputs produced different vectors: %+v vs %+v", a, b)
	}
}

func TestDriveSaturatesAttention(t *testing.T) {
	if d := Drive(1e12, 1); d > 1 {
		t.Fatalf("drive = %v, attention saturation must cap at retention", d)
	}
	if d := Drive(math.Inf(1), 0.5); d != 0.5 {
		t.Fatalf("drive = %v for infinite attention, want retention 0.5", d)
	}
	if d := Drive(-3, 1); d != 0 {
		t.Fatalf("drive = %v for negative attention, want 0", d)
	}
	if d := Drive(1, 2); d != 0.5 {
		t.Fatalf("drive = %v, retention must clamp to 1", d)
	}
	if d := Drive(1, math.NaN()); d != 0 {
		t.Fatalf("drive = %v for NaN retention, want 0", d)
	}
}
