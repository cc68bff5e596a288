package filter

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/buffer"
)

func noisySine(channels, window int, noiseStd float64, seed int64) *buffer.Buffer {
	rng := rand.New(rand.NewSource(seed))
	b := &buffer.Buffer{
		Samples:    make([][]float64, channels),
		SampleRate: 256,
		Timestamp:  time.Unix(0, 0).UTC(),
	}
	for c := range b.Samples {
		row := make([]float64, window)
		for i := range row {
			row[i] = math.Sin(2*math.Pi*10*float64(i)/256) + rng.NormFloat64()*noiseStd
		}
		b.Samples[c] = row
	}
	return b
}

func TestPassthroughWhenRNonPositive(t *testing.T) {
	for _, r := range []float64{0, -1} {
		d := NewDenoiser(Config{ProcessNoise: 0.05, MeasurementNoise: r})
		raw := noisySine(4, 128, 0.5, 1)
		out, m := d.Apply(raw)

		if !m.Passthrough {
			t.Fatalf("R=%g: expected passthrough", r)
		}
		for c := range raw.Samples {
			for i := range raw.Samples[c] {
				if out.Samples[c][i] != raw.Samples[c][i] {
					t.Fatalf("R=%g: sample (%d,%d) altered", r, c, i)
				}
			}
		}
	}
}

func TestPassthroughDoesNotMutateInput(t *testing.T) {
	d := NewDenoiser(Config{MeasurementNoise: 0})
	raw := noisySine(2, 32, 0.5, 2)
	want := raw.Samples[0][5]
	out, _ := d.Apply(raw)
	out.Samples[0][5] = 99

	if raw.Samples[0][5] != want {
		t.Fatal("Apply mutated the caller's buffer")
	}
}

func TestNoiseReductionOnNoisySignal(t *testing.T) {
	d := NewDenoiser(DefaultConfig())
	raw := noisySine(4, 1024, 0.8, 3)
	out, m := d.Apply(raw)

	if m.Passthrough {
		t.Fatal("unexpected passthrough")
	}
	if m.NoiseReductionDB <= 0 {
		t.Fatalf("expected positive noise reduction, got %.4f dB", m.NoiseReductionDB)
	}
	if m.NoiseReductionDB > 60 {
		t.Fatalf("noise reduction %.4f exceeds clamp", m.NoiseReductionDB)
	}
	if out.Channels() != raw.Channels() || out.Window() != raw.Window() {
		t.Fatal("filtered buffer changed shape")
	}
}

func TestMetricsAlwaysFinite(t *testing.T) {
	d := NewDenoiser(DefaultConfig())

	// Constant signal: raw variance 0, the dB ratio must still be finite.
	b := &buffer.Buffer{
		Samples:    [][]float64{{1, 1, 1, 1, 1, 1, 1, 1}},
		SampleRate: 256,
	}
	_, m := d.Apply(b)
	for name, v := range map[string]float64{
		"noise_reduction_db": m.NoiseReductionDB,
		"signal_quality_db":  m.SignalQualityDB,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s is non-finite: %v", name, v)
		}
		if v < 0 || v > 60 {
			t.Fatalf("%s out of [0, 60]: %v", name, v)
		}
	}
}

func TestFilterSmoothsTowardSignal(t *testing.T) {
	d := NewDenoiser(DefaultConfig())
	raw := noisySine(1, 2048, 1.0, 4)
	out, _ := d.Apply(raw)

	// Mean squared error against the clean sine should shrink.
	var rawErr, filtErr float64
	for i := range raw.Samples[0] {
		clean := math.Sin(2 * math.Pi * 10 * float64(i) / 256)
		dr := raw.Samples[0][i] - clean
		df := out.Samples[0][i] - clean
		rawErr += dr * dr
		filtErr += df * df
	}
	if filtErr >= rawErr {
		t.Fatalf("filtered error %.4f not below raw error %.4f", filtErr, rawErr)
	}
}

func TestStatePersistsAcrossWindows(t *testing.T) {
	d := NewDenoiser(DefaultConfig())
	first := noisySine(2, 256, 0.5, 5)
	d.Apply(first)

	if len(d.estimate) != 2 || !d.primed[0] {
		t.Fatal("estimator state not primed after first window")
	}
	est := d.estimate[0]

	second := noisySine(2, 256, 0.5, 6)
	d.Apply(second)
	if d.estimate[0] == est {
		t.Fatal("estimator state did not advance on second window")
	}
}
