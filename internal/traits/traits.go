// Package traits maintains the per-user latent trait vector and its
// discrete-time evolution rule. Evolve is a pure function: given the same
// vector, drive, and config it always produces the same result.
package traits

import "math"

// #region vector

// TraitMax caps every trait value; TraitMin floors it.
const (
	TraitMin = 0.0
	TraitMax = 1.5
)

// Vector is the fixed-length ordered trait set for one user.
type Vector struct {
	Curiosity       float64 `json:"curiosity"`
	Resilience      float64 `json:"resilience"`
	Openness        float64 `json:"openness"`
	ProcessingSpeed float64 `json:"processing_speed"`
}

// DefaultVector returns the neutral baseline for a new user.
func DefaultVector() Vector {
	return Vector{
		Curiosity:       0.5,
		Resilience:      0.5,
		Openness:        0.5,
		ProcessingSpeed: 0.5,
	}
}

// Values returns the traits in fixed order.
func (v Vector) Values() [4]float64 {
	return [4]float64{v.Curiosity, v.Resilience, v.Openness, v.ProcessingSpeed}
}

// #endregion vector

// #region config

// Config holds the per-trait reinforcement weights and the shared decay
// constant beta. Weights are fixed coefficients, not learned.
type Config struct {
	WeightCuriosity       float64
	WeightResilience      float64
	WeightOpenness        float64
	WeightProcessingSpeed float64
	DecayBeta             float64 // regression toward zero absent reinforcement
}

// DefaultConfig returns the standard evolution coefficients.
func DefaultConfig() Config {
	return Config{
		WeightCuriosity:       0.30,
		WeightResilience:      0.22,
		WeightOpenness:        0.26,
		WeightProcessingSpeed: 0.18,
		DecayBeta:             0.11,
	}
}

// #endregion config

// #region drive

// Drive combines attention and outcome retention into the single scalar
// that pushes trait evolution. Attention saturates via x/(1+x) so extreme
// indices cannot blow up the update; retention is clamped to [0, 1].
func Drive(attentionIndex, retention float64) float64 {
	if attentionIndex < 0 || math.IsNaN(attentionIndex) {
		attentionIndex = 0
	}
	if math.IsInf(attentionIndex, 1) {
		return clampRetention(retention)
	}
	return (attentionIndex / (1 + attentionIndex)) * clampRetention(retention)
}

func clampRetention(r float64) float64 {
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// #endregion drive

// #region evolve

// Evolve applies one first-order update per trait:
//
//	trait' = clamp(trait + weight*drive - beta*trait, TraitMin, TraitMax)
//
// The clamp is enforced unconditionally so adversarial drive values can
// never push a trait out of range.
func Evolve(v Vector, drive float64, config Config) Vector {
	return Vector{
		Curiosity:       step(v.Curiosity, config.WeightCuriosity, drive, config.DecayBeta),
		Resilience:      step(v.Resilience, config.WeightResilience, drive, config.DecayBeta),
		Openness:        step(v.Openness, config.WeightOpenness, drive, config.DecayBeta),
		ProcessingSpeed: step(v.ProcessingSpeed, config.WeightProcessingSpeed, drive, config.DecayBeta),
	}
}

func step(trait, weight, drive, beta float64) float64 {
	next := trait + weight*drive - beta*trait
	if math.IsNaN(next) || next < TraitMin {
		return TraitMin
	}
	if next > TraitMax {
		return TraitMax
	}
	return next
}

// #endregion evolve
