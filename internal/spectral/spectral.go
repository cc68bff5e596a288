// Package spectral turns a filtered sample window into per-band power for
// the five fixed EEG bands. Power is estimated with Hann-windowed Goertzel
// accumulation at each DFT bin inside a band, which keeps the dependency
// surface flat while honoring the non-negativity invariant.
package spectral

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/neurocore/internal/buffer"
)

// #region bands

// Band identifies one of the five fixed frequency ranges.
type Band string

const (
	BandDelta Band = "delta" // 0.5-4 Hz
	BandTheta Band = "theta" // 4-8 Hz
	BandAlpha Band = "alpha" // 8-12 Hz
	BandBeta  Band = "beta"  // 12-30 Hz
	BandGamma Band = "gamma" // 30-100 Hz
)

// bandRange is a half-open frequency interval [Lo, Hi).
type bandRange struct {
	Name Band
	Lo   float64
	Hi   float64
}

// bandRanges fixes the evaluation order; iteration order of the output is
// irrelevant to consumers but stable here for reproducibility.
var bandRanges = []bandRange{
	{BandDelta, 0.5, 4},
	{BandTheta, 4, 8},
	{BandAlpha, 8, 12},
	{BandBeta, 12, 30},
	{BandGamma, 30, 100},
}

// #endregion bands

// #region band-powers

// BandPowers holds the channel-aggregate power per band. All five bands are
// populated on every extraction; values are non-negative.
type BandPowers struct {
	Delta float64 `json:"delta"`
	Theta float64 `json:"theta"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Get returns the power for a named band.
func (bp BandPowers) Get(b Band) float64 {
	switch b {
	case BandDelta:
		return bp.Delta
	case BandTheta:
		return bp.Theta
	case BandAlpha:
		return bp.Alpha
	case BandBeta:
		return bp.Beta
	case BandGamma:
		return bp.Gamma
	}
	return 0
}

// Total returns the summed power across all five bands.
func (bp BandPowers) Total() float64 {
	return bp.Delta + bp.Theta + bp.Alpha + bp.Beta + bp.Gamma
}

// #endregion band-powers

// #region extract

// Extract computes per-band power averaged across channels. The buffer is
// read-only input; no state is carried between calls.
func Extract(buf *buffer.Buffer) (BandPowers, error) {
	if buf.Channels() == 0 || buf.Window() == 0 {
		return BandPowers{}, fmt.Errorf("%w: empty buffer", buffer.ErrShapeMismatch)
	}

	n := buf.Window()
	window := hannWindow(n)
	nyquist := buf.SampleRate / 2
	channels := float64(buf.Channels())

	var out BandPowers
	windowed := make([]float64, n)

	for _, ch := range buf.Samples {
		for i := range ch {
			windowed[i] = ch[i] * window[i]
		}
		for _, br := range bandRanges {
			hi := math.Min(br.Hi, nyquist)
			if hi <= br.Lo {
				continue
			}
			p := bandPower(windowed, buf.SampleRate, br.Lo, hi)
			switch br.Name {
			case BandDelta:
				out.Delta += p / channels
			case BandTheta:
				out.Theta += p / channels
			case BandAlpha:
				out.Alpha += p / channels
			case BandBeta:
				out.Beta += p / channels
			case BandGamma:
				out.Gamma += p / channels
			}
		}
	}

	return out, nil
}

// bandPower sums Goertzel power at each DFT bin inside [lo, hi). When the
// window is too short to place a bin in the band, the band center is used
// so short windows still report a finite, non-negative value.
func bandPower(samples []float64, rate, lo, hi float64) float64 {
	n := float64(len(samples))
	resolution := rate / n

	kLo := int(math.Ceil(lo / resolution))
	kHi := int(math.Floor((hi - 1e-9) / resolution))
	if kLo < 1 {
		kLo = 1
	}

	var power float64
	bins := 0
	for k := kLo; k <= kHi; k++ {
		power += goertzel(samples, float64(k)/n)
		bins++
	}
	if bins == 0 {
		power = goertzel(samples, (lo+hi)/2/rate)
		bins = 1
	}
	return power / float64(bins)
}

// goertzel evaluates single-bin DFT power at normalized frequency f in
// cycles per sample. Output is |X|^2 scaled by 1/N^2.
func goertzel(samples []float64, f float64) float64 {
	coeff := 2 * math.Cos(2*math.Pi*f)
	var s0, s1, s2 float64
	for _, x := range samples {
		s0 = x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	n := float64(len(samples))
	power := (s1*s1 + s2*s2 - coeff*s1*s2) / (n * n)
	if power < 0 {
		power = 0 // guard rounding at band edges
	}
	return power
}

// hannWindow returns an n-point Hann window.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// #endregion extract
