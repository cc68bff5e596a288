// Package filter implements the adaptive per-channel denoiser that runs
// ahead of feature extraction. Each channel carries its own 1-D recursive
// estimator state; channels share nothing and are smoothed in parallel.
package filter

import (
	"math"
	"sync"

	"github.com/danielpatrickdp/neurocore/internal/buffer"
)

// #region denoiser

// Denoiser smooths multi-channel sample windows with a scalar recursive
// estimator per channel. State persists across windows for the lifetime of
// a session so the estimate does not re-converge on every tick.
type Denoiser struct {
	config   Config
	estimate []float64
	variance []float64
	primed   []bool
}

// NewDenoiser creates a denoiser with the given noise configuration.
func NewDenoiser(config Config) *Denoiser {
	return &Denoiser{config: config}
}

// #endregion denoiser

// #region apply

// Apply produces a freshly allocated filtered copy of raw plus telemetry.
// If R <= 0 the input passes through unaltered (no estimator update).
func (d *Denoiser) Apply(raw *buffer.Buffer) (*buffer.Buffer, Metrics) {
	out := raw.Clone()

	if d.config.MeasurementNoise <= 0 {
		return out, Metrics{NoiseReductionDB: 0, SignalQualityDB: 0, Passthrough: true}
	}

	d.ensureChannels(raw.Channels())

	var wg sync.WaitGroup
	for c := range out.Samples {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			d.smoothChannel(c, out.Samples[c])
		}(c)
	}
	wg.Wait()

	rawVar := meanVariance(raw.Samples)
	filtVar := meanVariance(out.Samples)
	residVar := residualVariance(raw.Samples, out.Samples)

	return out, Metrics{
		NoiseReductionDB: clampDB(ratioDB(rawVar, filtVar)),
		SignalQualityDB:  clampDB(ratioDB(filtVar, residVar)),
	}
}

// smoothChannel runs the predict/update recursion in place over one channel.
func (d *Denoiser) smoothChannel(c int, samples []float64) {
	est := d.estimate[c]
	p := d.variance[c]
	if !d.primed[c] && len(samples) > 0 {
		est = samples[0]
		p = d.config.MeasurementNoise
		d.primed[c] = true
	}

	q := d.config.ProcessNoise
	r := d.config.MeasurementNoise
	for i, z := range samples {
		p += q
		gain := p / (p + r)
		est += gain * (z - est)
		p *= 1 - gain
		samples[i] = est
	}

	d.estimate[c] = est
	d.variance[c] = p
}

// ensureChannels resizes per-channel state when the channel count changes.
func (d *Denoiser) ensureChannels(n int) {
	if len(d.estimate) == n {
		return
	}
	d.estimate = make([]float64, n)
	d.variance = make([]float64, n)
	d.primed = make([]bool, n)
}

// #endregion apply

// #region helpers

// meanVariance averages the per-channel sample variance.
func meanVariance(channels [][]float64) float64 {
	if len(channels) == 0 {
		return 0
	}
	var total float64
	for _, ch := range channels {
		total += sliceVariance(ch)
	}
	return total / float64(len(channels))
}

// residualVariance averages the variance of (raw - filtered) per channel.
func residualVariance(raw, filtered [][]float64) float64 {
	if len(raw) == 0 {
		return 0
	}
	var total float64
	for c := range raw {
		diff := make([]float64, len(raw[c]))
		for i := range diff {
			diff[i] = raw[c][i] - filtered[c][i]
		}
		total += sliceVariance(diff)
	}
	return total / float64(len(raw))
}

func sliceVariance(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean := sum / float64(len(v))
	var variance float64
	for _, x := range v {
		d := x - mean
		variance += d * d
	}
	return variance / float64(len(v))
}

// ratioDB converts a variance ratio to decibels with an epsilon floor so a
// zero denominator never yields Inf or NaN.
func ratioDB(num, den float64) float64 {
	const eps = 1e-12
	return 10 * math.Log10(num/(den+eps)+eps)
}

// clampDB bounds a dB figure to [0, 60].
func clampDB(db float64) float64 {
	if math.IsNaN(db) || db < 0 {
		return 0
	}
	if db > 60 {
		return 60
	}
	return db
}

// #endregion helpers
