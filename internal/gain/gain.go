// Package gain implements the three-stage multiplicative gain chain tuned
// by optimizer feedback. The chain is strictly feed-forward: gains adjusted
// after cycle N first touch the raw input of tick N+1.
package gain

import (
	"github.com/danielpatrickdp/neurocore/internal/buffer"
)

// #region stages

// Stage identifies one of the three ordered gain stages.
type Stage int

const (
	StageInput Stage = iota
	StageProcessing
	StageOutput
)

// String returns the stage name used in logs and tick records.
func (s Stage) String() string {
	switch s {
	case StageInput:
		return "input"
	case StageProcessing:
		return "processing"
	case StageOutput:
		return "output"
	}
	return "unknown"
}

// #endregion stages

// #region config

// Config bounds gain values and per-cycle adjustment steps.
type Config struct {
	Min     float64 // lower clamp on every stage gain
	Max     float64 // upper clamp on every stage gain
	MaxStep float64 // largest adjustment a single cycle may apply
}

// DefaultConfig returns the standard clamp bounds.
func DefaultConfig() Config {
	return Config{Min: 0.5, Max: 2.0, MaxStep: 0.05}
}

// #endregion config

// #region gains

// Gains is an immutable snapshot of the three stage multipliers.
type Gains struct {
	Input      float64 `json:"input"`
	Processing float64 `json:"processing"`
	Output     float64 `json:"output"`
}

// Combined returns the product applied to a sample passing all three stages.
func (g Gains) Combined() float64 {
	return g.Input * g.Processing * g.Output
}

// #endregion gains

// #region pipeline

// Pipeline holds the current stage gains. It is owned by one user pipeline
// and mutated only by optimizer feedback between ticks, so it carries no
// lock of its own.
type Pipeline struct {
	config Config
	gains  Gains
}

// NewPipeline creates a pipeline with all gains at unity.
func NewPipeline(config Config) *Pipeline {
	return &Pipeline{
		config: config,
		gains:  Gains{Input: 1, Processing: 1, Output: 1},
	}
}

// Snapshot returns the current gains.
func (p *Pipeline) Snapshot() Gains {
	return p.gains
}

// Adjust applies a bounded step to one stage. Steps beyond MaxStep are
// truncated, and the resulting gain is clamped to [Min, Max]. Returns the
// step actually applied.
func (p *Pipeline) Adjust(stage Stage, step float64) float64 {
	if step > p.config.MaxStep {
		step = p.config.MaxStep
	}
	if step < -p.config.MaxStep {
		step = -p.config.MaxStep
	}

	var g *float64
	switch stage {
	case StageInput:
		g = &p.gains.Input
	case StageProcessing:
		g = &p.gains.Processing
	case StageOutput:
		g = &p.gains.Output
	default:
		return 0
	}

	before := *g
	next := before + step
	if next < p.config.Min {
		next = p.config.Min
	}
	if next > p.config.Max {
		next = p.config.Max
	}
	*g = next
	return next - before
}

// Apply multiplies a fresh copy of buf by the combined gain. The input
// buffer is never mutated.
func (p *Pipeline) Apply(buf *buffer.Buffer) *buffer.Buffer {
	out := buf.Clone()
	combined := p.gains.Combined()
	for _, ch := range out.Samples {
		for i := range ch {
			ch[i] *= combined
		}
	}
	return out
}

// #endregion pipeline
