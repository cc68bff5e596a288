// Package optimizer implements the four-stage autonomous adaptation cycle
// as an explicit finite-state machine: ExperienceCapture →
// ReflectiveAnalysis → Conceptualization → Experimentation → back. One
// stage executes per tick; a full cycle spans four ticks. A failed stage
// never corrupts persisted state: the loop keeps the last known-good
// parameters and resumes at ExperienceCapture.
package optimizer

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/danielpatrickdp/neurocore/internal/memory"
	"github.com/danielpatrickdp/neurocore/internal/metrics"
	"github.com/danielpatrickdp/neurocore/internal/spectral"
	"github.com/danielpatrickdp/neurocore/internal/traits"
	"github.com/google/uuid"
)

// ErrCycleFailed marks a cycle aborted by malformed input.
var ErrCycleFailed = errors.New("optimization cycle failed")

// #region loop

// Loop is the per-user optimization state machine.
type Loop struct {
	config   Config
	traitCfg traits.Config
	mem      *memory.Store

	state  State
	traits traits.Vector

	// rolling series across ticks, shared by reflection and scoring
	attnSeries []float64
	effSeries  []float64
	dropStreak int

	// cycle-scoped scratch, reset when a cycle completes or fails
	captured        []metrics.NeuralMetrics
	insights        Insights
	candidate       Parameters
	candidateTraits traits.Vector

	failStreak int
}

// NewLoop creates a loop in ExperienceCapture with default parameters.
// tv is the user's persisted trait vector; mem the user's experience store.
func NewLoop(config Config, traitCfg traits.Config, tv traits.Vector, mem *memory.Store) *Loop {
	return &Loop{
		config:   config,
		traitCfg: traitCfg,
		mem:      mem,
		traits:   tv,
		state: State{
			CycleID: uuid.New().String(),
			Stage:   StageExperienceCapture,
			Params:  DefaultParameters(),
		},
	}
}

// State returns a snapshot of the cross-cycle state.
func (l *Loop) State() State {
	s := l.state
	s.Params = l.state.Params.Clone()
	return s
}

// Traits returns the current committed trait vector.
func (l *Loop) Traits() traits.Vector {
	return l.traits
}

// ConsecutiveFailures returns the current failed-cycle streak.
func (l *Loop) ConsecutiveFailures() int {
	return l.failStreak
}

// #endregion loop

// #region step

// Step executes the current stage with this tick's input and advances the
// machine. Errors mark the cycle failed (prior parameters retained, stage
// reset to ExperienceCapture) and are reported, not propagated as panics.
func (l *Loop) Step(input StageInput) (StepResult, error) {
	stage := l.state.Stage
	result := StepResult{CycleID: l.state.CycleID, Stage: stage}

	// Every tick feeds the rolling series before stage work runs: the
	// sustained-drop detector counts consecutive ticks, not consecutive
	// capture stages.
	err := l.observe(input)
	if err == nil {
		switch stage {
		case StageExperienceCapture:
			l.captured = append(l.captured, input.Metrics)
		case StageReflectiveAnalysis:
			err = l.reflect(input)
		case StageConceptualization:
			err = l.conceptualize()
		case StageExperimentation:
			result = l.experiment(result)
		default:
			err = fmt.Errorf("unknown stage %q", stage)
		}
	}

	if err != nil {
		l.failCycle()
		result.Failed = true
		result.Reason = err.Error()
		log.Printf("[OPT] cycle %s failed at %s: %v", result.CycleID, stage, err)
		return result, fmt.Errorf("%w: %v", ErrCycleFailed, err)
	}

	l.failStreak = 0
	result.Insights = l.insights

	if stage == StageExperimentation {
		result.CycleComplete = true
		l.beginCycle()
	} else {
		l.state.Stage = stage.Next()
	}
	return result, nil
}

// failCycle discards cycle scratch and resumes at ExperienceCapture with a
// fresh cycle ID. Committed parameters and traits are untouched.
func (l *Loop) failCycle() {
	l.failStreak++
	l.beginCycle()
}

// beginCycle resets cycle-scoped scratch for the next cycle.
func (l *Loop) beginCycle() {
	l.state.CycleID = uuid.New().String()
	l.state.Stage = StageExperienceCapture
	l.captured = l.captured[:0]
	l.candidate = nil
	l.insights = Insights{}
}

// #endregion step

// #region observe

// observe validates one tick's input and appends it to the rolling
// attention/efficiency windows, keeping the sustained-drop streak current.
// It runs on every tick regardless of stage, so a drop spanning a cycle
// boundary is counted the same as one inside a single stage.
func (l *Loop) observe(input StageInput) error {
	m := input.Metrics
	for name, v := range map[string]float64{
		"attention_index":     m.AttentionIndex,
		"learning_efficiency": m.LearningEfficiency,
		"coherence":           m.Coherence,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite %s", name)
		}
	}
	for _, band := range []spectral.Band{
		spectral.BandDelta, spectral.BandTheta, spectral.BandAlpha,
		spectral.BandBeta, spectral.BandGamma,
	} {
		if p := input.Bands.Get(band); math.IsNaN(p) || p < 0 {
			return fmt.Errorf("invalid %s band power %v", band, p)
		}
	}

	l.attnSeries = appendBounded(l.attnSeries, m.AttentionIndex, l.config.ScoreWindow)
	l.effSeries = appendBounded(l.effSeries, m.LearningEfficiency, l.config.ScoreWindow)
	if m.AttentionIndex < l.config.AttentionThreshold {
		l.dropStreak++
	} else {
		l.dropStreak = 0
	}
	return nil
}

// #endregion observe

// #region reflect

// reflect computes pattern insights and the trait-evolution drive scalar.
func (l *Loop) reflect(input StageInput) error {
	if len(l.captured) == 0 {
		return errors.New("no captured metrics")
	}

	retention := input.Retention
	if retention <= 0 && l.mem != nil {
		// Fall back to the decayed historical signal, squashed to [0, 1].
		retention = math.Tanh(l.mem.AggregateScore(input.Now) / 10)
	}

	l.insights = Insights{
		AttentionDrop:     l.dropStreak >= l.config.DropStreak,
		DropStreak:        l.dropStreak,
		MetricCorrelation: seriesCorrelation(l.attnSeries, l.effSeries),
		Drive:             traits.Drive(meanOf(l.attnSeries), retention),
	}
	return nil
}

// #endregion reflect

// #region conceptualize

// conceptualize evolves the trait vector and derives candidate parameters
// from it through fixed formulas. Nothing is committed yet.
func (l *Loop) conceptualize() error {
	l.candidateTraits = traits.Evolve(l.traits, l.insights.Drive, l.traitCfg)
	t := l.candidateTraits
	l.candidate = Parameters{
		"learning_rate_multiplier": 0.8 + t.Curiosity*0.4,
		"difficulty_multiplier":    0.7 + t.Resilience*0.5,
		"novelty_bias":             0.5 + t.Openness*0.5,
		"pace_multiplier":          0.8 + t.ProcessingSpeed*0.4,
	}
	return nil
}

// #endregion conceptualize

// #region experiment

// experiment scores the candidate against the previous cycle's score and
// commits only when the result does not regress beyond tolerance.
func (l *Loop) experiment(result StepResult) StepResult {
	score := l.scoreCandidate()
	result.Score = score

	floor := l.state.LastScore * (1 - l.config.ScoreTolerance)
	if l.state.LastScore > 0 && score < floor {
		result.NoOp = true
		result.Reason = fmt.Sprintf("score %.4f regresses past %.4f, keeping parameters", score, floor)
		log.Printf("[OPT] cycle %s no-op: %s", result.CycleID, result.Reason)
		return result
	}

	l.state.Params = l.candidate.Clone()
	l.traits = l.candidateTraits
	l.state.LastScore = score
	result.Accepted = true
	result.Reason = fmt.Sprintf("committed parameters, score %.4f", score)
	result.GainAdjustments = l.proposeGains()
	return result
}

// scoreCandidate runs the lightweight internal model: mean learning
// efficiency over the recent window, nudged by how far the candidate moves
// the learning rate from its committed value.
func (l *Loop) scoreCandidate() float64 {
	base := meanOf(l.effSeries)
	if l.candidate == nil {
		return base
	}
	shift := l.candidate["learning_rate_multiplier"] - l.state.Params["learning_rate_multiplier"]
	return base * (1 + 0.02*math.Tanh(shift))
}

// proposeGains turns this cycle's observations into bounded gain steps.
// An attention drop pulls the input stage up to recover signal; a rising
// efficiency trend nudges the processing stage the same direction.
func (l *Loop) proposeGains() []GainAdjustment {
	var out []GainAdjustment
	if l.insights.AttentionDrop {
		out = append(out, GainAdjustment{Stage: "input", Step: l.config.GainStep})
	}
	if trend := seriesTrend(l.effSeries); trend > 0 {
		out = append(out, GainAdjustment{Stage: "processing", Step: l.config.GainStep})
	} else if trend < 0 {
		out = append(out, GainAdjustment{Stage: "processing", Step: -l.config.GainStep})
	}
	return out
}

// #endregion experiment
