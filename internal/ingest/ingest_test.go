package ingest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/buffer"
)

func TestSyntheticSourceAdvancesMonotonically(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	src := NewSyntheticSource(DefaultSyntheticConfig(), start)

	var last time.Time
	for i := 0; i < 5; i++ {
		buf, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if err := buf.Validate(); err != nil {
			t.Fatalf("window %d invalid: %v", i, err)
		}
		if i > 0 && !buf.Timestamp.After(last) {
			t.Fatalf("window %d timestamp %v not after %v", i, buf.Timestamp, last)
		}
		last = buf.Timestamp
	}

	// 1024 samples at 256 Hz is a 4-second cadence.
	if got := last.Sub(start); got != 16*time.Second {
		t.Fatalf("5 windows span %v, want 16s between first and last", got)
	}
}

func TestSyntheticSourceDeterministicForSeed(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	cfg := DefaultSyntheticConfig()

	a, err := NewSyntheticSource(cfg, start).Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	b, err := NewSyntheticSource(cfg, start).Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	for c := range a.Samples {
		for i := range a.Samples[c] {
			if a.Samples[c][i] != b.Samples[c][i] {
				t.Fatalf("sample (%d,%d) differs across same-seed sources", c, i)
			}
		}
	}
}

func TestSyntheticSourcePureTone(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.NoiseStd = 0
	src := NewSyntheticSource(cfg, time.Unix(0, 0).UTC())

	buf, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	want := math.Sin(2 * math.Pi * cfg.ToneHz * 3 / cfg.SampleRate)
	if buf.Samples[0][3] != want {
		t.Fatalf("sample = %v, want pure tone value %v", buf.Samples[0][3], want)
	}
}

func TestSyntheticSourceHonorsContext(t *testing.T) {
	src := NewSyntheticSource(DefaultSyntheticConfig(), time.Now().UTC())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFrameToBuffer(t *testing.T) {
	f := Frame{
		TimestampMs: 1_700_000_000_000,
		SampleRate:  256,
		Samples:     [][]float64{{1, 2}, {3, 4}},
	}
	buf, err := f.ToBuffer()
	if err != nil {
		t.Fatalf("to buffer: %v", err)
	}
	if buf.Timestamp != time.UnixMilli(1_700_000_000_000).UTC() {
		t.Fatalf("timestamp = %v", buf.Timestamp)
	}
	if buf.Channels() != 2 || buf.Window() != 2 {
		t.Fatalf("shape = %dx%d", buf.Channels(), buf.Window())
	}
}

func TestFrameToBufferValidates(t *testing.T) {
	f := Frame{SampleRate: 256, Samples: [][]float64{{1, math.NaN()}}}
	if _, err := f.ToBuffer(); !errors.Is(err, buffer.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
}
