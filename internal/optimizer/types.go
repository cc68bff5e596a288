package optimizer

import (
	"time"

	"github.com/danielpatrickdp/neurocore/internal/metrics"
	"github.com/danielpatrickdp/neurocore/internal/spectral"
)

// #region stage

// Stage enumerates the four cycle stages in strict order.
type Stage string

const (
	StageExperienceCapture  Stage = "experience_capture"
	StageReflectiveAnalysis Stage = "reflective_analysis"
	StageConceptualization  Stage = "conceptualization"
	StageExperimentation    Stage = "experimentation"
)

// Next returns the successor stage; Experimentation wraps back to
// ExperienceCapture. There is no terminal stage.
func (s Stage) Next() Stage {
	switch s {
	case StageExperienceCapture:
		return StageReflectiveAnalysis
	case StageReflectiveAnalysis:
		return StageConceptualization
	case StageConceptualization:
		return StageExperimentation
	default:
		return StageExperienceCapture
	}
}

// #endregion stage

// #region parameters

// Parameters is the flat tuning map the loop evolves across cycles.
type Parameters map[string]float64

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DefaultParameters returns the neutral starting point for a new session.
func DefaultParameters() Parameters {
	return Parameters{
		"learning_rate_multiplier": 1.0,
		"difficulty_multiplier":    0.95,
		"novelty_bias":             0.75,
		"pace_multiplier":          1.0,
	}
}

// #endregion parameters

// #region state

// State is the cross-cycle persisted optimizer state. The terminal
// parameters of a completed cycle seed the next one; nothing else survives
// a cycle besides the trait vector and experience memory.
type State struct {
	CycleID   string     `json:"cycle_id"`
	Stage     Stage      `json:"stage"`
	Params    Parameters `json:"current_parameters"`
	LastScore float64    `json:"last_score"`
}

// #endregion state

// #region config

// Config holds the loop's fixed tuning constants.
type Config struct {
	AttentionThreshold float64 // sustained-drop detection threshold
	DropStreak         int     // consecutive ticks below threshold to flag a drop
	ScoreTolerance     float64 // max relative regression Experimentation accepts
	GainStep           float64 // per-cycle gain adjustment magnitude
	ScoreWindow        int     // efficiency window used for cycle scoring
}

// DefaultConfig returns the standard loop constants.
func DefaultConfig() Config {
	return Config{
		AttentionThreshold: 0.6,
		DropStreak:         3,
		ScoreTolerance:     0.02,
		GainStep:           0.05,
		ScoreWindow:        8,
	}
}

// #endregion config

// #region inputs-outputs

// StageInput is what one tick feeds into the loop.
type StageInput struct {
	Metrics   metrics.NeuralMetrics
	Bands     spectral.BandPowers
	Retention float64 // latest outcome retention in [0, 1]
	Now       time.Time
}

// Insights is the ReflectiveAnalysis output consumed downstream in the
// same cycle.
type Insights struct {
	AttentionDrop     bool    `json:"attention_drop"`
	DropStreak        int     `json:"drop_streak"`
	MetricCorrelation float64 `json:"metric_correlation"`
	Drive             float64 `json:"drive"`
}

// GainAdjustment is a proposed bounded step for one gain stage.
type GainAdjustment struct {
	Stage string  `json:"stage"`
	Step  float64 `json:"step"`
}

// StepResult reports what one Step call did.
type StepResult struct {
	CycleID         string           `json:"cycle_id"`
	Stage           Stage            `json:"stage"` // stage that just executed
	CycleComplete   bool             `json:"cycle_complete"`
	Accepted        bool             `json:"accepted"` // candidate committed
	NoOp            bool             `json:"no_op"`    // candidate rejected, prior params kept
	Failed          bool             `json:"failed"`
	Reason          string           `json:"reason,omitempty"`
	Score           float64          `json:"score"`
	Insights        Insights         `json:"insights"`
	GainAdjustments []GainAdjustment `json:"gain_adjustments,omitempty"`
}

// #endregion inputs-outputs
