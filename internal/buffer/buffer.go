// Package buffer defines the raw multi-channel sample window handed to the
// processing core and its validation rules.
package buffer

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// #region errors

var (
	// ErrShapeMismatch indicates an empty buffer or ragged channel rows.
	ErrShapeMismatch = errors.New("buffer shape mismatch")
	// ErrNonFinite indicates a NaN or Inf sample value.
	ErrNonFinite = errors.New("non-finite sample value")
	// ErrNonMonotonic indicates a timestamp older than the last accepted one.
	ErrNonMonotonic = errors.New("non-monotonic timestamp")
)

// #endregion errors

// #region buffer

// Buffer is a fixed-size window of multi-channel samples. The core treats it
// as read-only input; every transform produces a fresh Buffer.
type Buffer struct {
	Samples    [][]float64 // channel-major, shape (channels, window)
	SampleRate float64     // Hz
	Timestamp  time.Time   // monotonic per session
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.Samples)
}

// Window returns the per-channel sample count, 0 for an empty buffer.
func (b *Buffer) Window() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Clone returns a deep copy sharing no sample storage with the receiver.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Samples:    make([][]float64, len(b.Samples)),
		SampleRate: b.SampleRate,
		Timestamp:  b.Timestamp,
	}
	for i, ch := range b.Samples {
		row := make([]float64, len(ch))
		copy(row, ch)
		out.Samples[i] = row
	}
	return out
}

// #endregion buffer

// #region validate

// Validate checks shape, sample-rate sanity, and sample finiteness.
func (b *Buffer) Validate() error {
	if b.Channels() == 0 || b.Window() == 0 {
		return fmt.Errorf("%w: %d channels, %d samples", ErrShapeMismatch, b.Channels(), b.Window())
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %.2f", ErrShapeMismatch, b.SampleRate)
	}
	window := b.Window()
	for i, ch := range b.Samples {
		if len(ch) != window {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", ErrShapeMismatch, i, len(ch), window)
		}
		for j, v := range ch {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: channel %d sample %d", ErrNonFinite, i, j)
			}
		}
	}
	return nil
}

// #endregion validate
