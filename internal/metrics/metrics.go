// Package metrics derives the per-tick neural state metrics from band
// powers and the filtered buffer.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/danielpatrickdp/neurocore/internal/buffer"
	"github.com/danielpatrickdp/neurocore/internal/filter"
	"github.com/danielpatrickdp/neurocore/internal/spectral"
)

// ErrNonFinite indicates a derived metric was NaN or Inf; the tick must be
// rejected upstream, never propagated.
var ErrNonFinite = errors.New("non-finite metric")

// attentionEps prevents division by zero when alpha and theta are both ~0.
const attentionEps = 1e-9

// #region neural-metrics

// NeuralMetrics is the per-tick metric set emitted in every SessionTick.
type NeuralMetrics struct {
	Coherence          float64 `json:"coherence"`           // [0, 1]
	AttentionIndex     float64 `json:"attention_index"`     // >= 0, unbounded above
	LearningEfficiency float64 `json:"learning_efficiency"` // [0, 1]
	SignalQualityDB    float64 `json:"signal_quality_db"`
	NoiseReductionDB   float64 `json:"noise_reduction_db"`
}

// #endregion neural-metrics

// #region calculator

// Calculator derives NeuralMetrics. It keeps a short rolling window of
// attention values so learning efficiency can reward temporal stability.
type Calculator struct {
	windowSize int
	attention  []float64
}

// NewCalculator creates a calculator with the given stability window size.
// windowSize <= 0 falls back to 8 ticks.
func NewCalculator(windowSize int) *Calculator {
	if windowSize <= 0 {
		windowSize = 8
	}
	return &Calculator{windowSize: windowSize}
}

// Derive computes the metric set for one tick. The filtered buffer feeds
// inter-channel coherence; filter telemetry passes through.
func (c *Calculator) Derive(bands spectral.BandPowers, filtered *buffer.Buffer, fm filter.Metrics) (NeuralMetrics, error) {
	attention := bands.Beta / (bands.Alpha + bands.Theta + attentionEps)
	coherence := interChannelCoherence(filtered)

	c.attention = append(c.attention, attention)
	if len(c.attention) > c.windowSize {
		c.attention = c.attention[1:]
	}
	efficiency := stabilityScore(c.attention)

	m := NeuralMetrics{
		Coherence:          coherence,
		AttentionIndex:     attention,
		LearningEfficiency: efficiency,
		SignalQualityDB:    fm.SignalQualityDB,
		NoiseReductionDB:   fm.NoiseReductionDB,
	}
	if err := m.validate(); err != nil {
		return NeuralMetrics{}, err
	}
	return m, nil
}

// Reset clears the rolling attention window (session teardown).
func (c *Calculator) Reset() {
	c.attention = c.attention[:0]
}

func (m NeuralMetrics) validate() error {
	for name, v := range map[string]float64{
		"coherence":           m.Coherence,
		"attention_index":     m.AttentionIndex,
		"learning_efficiency": m.LearningEfficiency,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s", ErrNonFinite, name)
		}
	}
	if m.AttentionIndex < 0 {
		return fmt.Errorf("%w: attention_index negative", ErrNonFinite)
	}
	return nil
}

// #endregion calculator

// #region coherence

// interChannelCoherence measures how strongly channels move together:
// the mean absolute correlation of each channel against the channel-mean
// signal, clamped to [0, 1]. Single-channel buffers score 1.
func interChannelCoherence(buf *buffer.Buffer) float64 {
	if buf == nil || buf.Channels() == 0 || buf.Window() == 0 {
		return 0
	}
	if buf.Channels() == 1 {
		return 1
	}

	n := buf.Window()
	mean := make([]float64, n)
	for _, ch := range buf.Samples {
		for i, v := range ch {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(buf.Channels())
	}

	var total float64
	for _, ch := range buf.Samples {
		total += math.Abs(correlation(ch, mean))
	}
	return clamp01(total / float64(buf.Channels()))
}

// correlation computes the Pearson correlation of two equal-length series.
// Returns 0 when either series is constant.
func correlation(a, b []float64) float64 {
	n := float64(len(a))
	if n == 0 {
		return 0
	}
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return 0
	}
	return cov / denom
}

// #endregion coherence

// #region stability

// stabilityScore maps the variance of the recent attention series to [0, 1]
// through a saturating transform: low variance over the rolling window
// means the learner is tracking steadily.
func stabilityScore(series []float64) float64 {
	if len(series) < 2 {
		return 0.5 // neutral until the window fills
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(len(series))
	var variance float64
	for _, v := range series {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(series))
	return clamp01(1 / (1 + variance))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion stability
