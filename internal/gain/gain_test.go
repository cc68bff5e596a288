package gain

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/neurocore/internal/buffer"
)

func TestNewPipelineStartsAtUnity(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	g := p.Snapshot()
	if g.Input != 1 || g.Processing != 1 || g.Output != 1 {
		t.Fatalf("initial gains %+v, want all unity", g)
	}
	if g.Combined() != 1 {
		t.Fatalf("combined = %v, want 1", g.Combined())
	}
}

func TestAdjustTruncatesStep(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	applied := p.Adjust(StageInput, 0.3)
	if math.Abs(applied-0.05) > 1e-12 {
		t.Fatalf("applied = %v, want step truncated to 0.05", applied)
	}
	applied = p.Adjust(StageInput, -0.3)
	if math.Abs(applied+0.05) > 1e-12 {
		t.Fatalf("applied = %v, want step truncated to -0.05", applied)
	}
}

func TestAdjustClampsToBounds(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	// Walk the processing gain to the ceiling.
	for i := 0; i < 40; i++ {
		p.Adjust(StageProcessing, 0.05)
	}
	if g := p.Snapshot().Processing; g != 2.0 {
		t.Fatalf("processing gain = %v, want ceiling 2.0", g)
	}
	if applied := p.Adjust(StageProcessing, 0.05); applied != 0 {
		t.Fatalf("applied = %v at ceiling, want 0", applied)
	}

	// And down to the floor.
	for i := 0; i < 60; i++ {
		p.Adjust(StageProcessing, -0.05)
	}
	if g := p.Snapshot().Processing; g != 0.5 {
		t.Fatalf("processing gain = %v, want floor 0.5", g)
	}
}

func TestAdjustUnknownStageIsNoop(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	if applied := p.Adjust(Stage(99), 0.05); applied != 0 {
		t.Fatalf("applied = %v for unknown stage, want 0", applied)
	}
	if p.Snapshot().Combined() != 1 {
		t.Fatal("unknown stage adjustment moved a gain")
	}
}

func TestApplyMultipliesByCombinedGain(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	p.Adjust(StageInput, 0.05)       // 1.05
	p.Adjust(StageProcessing, -0.05) // 0.95
	combined := p.Snapshot().Combined()

	buf := &buffer.Buffer{
		Samples:    [][]float64{{1, -2, 0.5}},
		SampleRate: 256,
	}
	out := p.Apply(buf)
	for i, v := range buf.Samples[0] {
		want := v * combined
		if math.Abs(out.Samples[0][i]-want) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, out.Samples[0][i], want)
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	p.Adjust(StageOutput, 0.05)

	buf := &buffer.Buffer{
		Samples:    [][]float64{{3}},
		SampleRate: 256,
	}
	p.Apply(buf)
	if buf.Samples[0][0] != 3 {
		t.Fatal("Apply mutated the input buffer")
	}
}

func TestStageNames(t *testing.T) {
	for stage, want := range map[Stage]string{
		StageInput:      "input",
		StageProcessing: "processing",
		StageOutput:     "output",
		Stage(7):        "unknown",
	} {
		if got := stage.String(); got != want {
			t.Fatalf("Stage(%d).String() = %q, want %q", stage, got, want)
		}
	}
}
