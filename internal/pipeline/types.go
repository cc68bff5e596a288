package pipeline

import (
	"log"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/compliance"
	"github.com/danielpatrickdp/neurocore/internal/gain"
	"github.com/danielpatrickdp/neurocore/internal/metrics"
	"github.com/danielpatrickdp/neurocore/internal/optimizer"
	"github.com/danielpatrickdp/neurocore/internal/spectral"
	"github.com/danielpatrickdp/neurocore/internal/traits"
)

// #region session-tick

// OptimizationSummary is the per-tick slice of optimizer state included in
// every SessionTick.
type OptimizationSummary struct {
	CycleID       string          `json:"cycle_id"`
	Stage         optimizer.Stage `json:"stage"`
	CycleComplete bool            `json:"cycle_complete"`
	Accepted      bool            `json:"accepted"`
	NoOp          bool            `json:"no_op"`
	Failed        bool            `json:"failed"`
	LastScore     float64         `json:"last_score"`
}

// SessionTick is the record emitted for every successful tick. Its field
// set is the contract downstream consumers depend on; shape changes break
// dashboards and analytics.
type SessionTick struct {
	SessionID    string                 `json:"session_id"`
	Seq          int64                  `json:"seq"`
	Timestamp    time.Time              `json:"timestamp"`
	Bands        spectral.BandPowers    `json:"band_powers"`
	Metrics      metrics.NeuralMetrics  `json:"metrics"`
	Traits       traits.Vector          `json:"traits"`
	Gains        gain.Gains             `json:"gains"`
	Optimization OptimizationSummary    `json:"optimization"`
	Compliance   compliance.AuditResult `json:"compliance"`
	Meta         map[string]string      `json:"meta,omitempty"` // post-anonymization
}

// #endregion session-tick

// #region emitter

// Emitter is the outbound notification collaborator.
type Emitter interface {
	EmitTick(tick SessionTick)
	EmitWarning(sessionID, reason string)
}

// LogEmitter writes ticks and warnings to the process log. It is the
// default collaborator when no downstream consumer is wired.
type LogEmitter struct{}

// EmitTick logs a one-line tick summary.
func (LogEmitter) EmitTick(tick SessionTick) {
	log.Printf("[PIPE] tick %d session=%s attn=%.3f eff=%.3f coh=%.3f stage=%s risk=%s",
		tick.Seq, tick.SessionID,
		tick.Metrics.AttentionIndex, tick.Metrics.LearningEfficiency, tick.Metrics.Coherence,
		tick.Optimization.Stage, tick.Compliance.RiskLevel)
}

// EmitWarning logs an escalated warning.
func (LogEmitter) EmitWarning(sessionID, reason string) {
	log.Printf("[PIPE] WARNING session=%s: %s", sessionID, reason)
}

// #endregion emitter
