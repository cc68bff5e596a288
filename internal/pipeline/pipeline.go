// Package pipeline runs the per-user tick loop: validate → gain → filter →
// extract → metrics → optimize → compliance → emit. One Session owns one
// user's mutable state; sessions for different users share nothing and run
// fully in parallel.
package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/buffer"
	"github.com/danielpatrickdp/neurocore/internal/compliance"
	"github.com/danielpatrickdp/neurocore/internal/config"
	"github.com/danielpatrickdp/neurocore/internal/filter"
	"github.com/danielpatrickdp/neurocore/internal/gain"
	"github.com/danielpatrickdp/neurocore/internal/memory"
	"github.com/danielpatrickdp/neurocore/internal/metrics"
	"github.com/danielpatrickdp/neurocore/internal/optimizer"
	"github.com/danielpatrickdp/neurocore/internal/spectral"
	"github.com/danielpatrickdp/neurocore/internal/store"
	"github.com/danielpatrickdp/neurocore/internal/traits"
	"github.com/google/uuid"
)

// #region errors

var (
	// ErrTickTimeout marks a tick aborted for exceeding its hard budget.
	ErrTickTimeout = errors.New("tick exceeded hard timeout")
	// ErrTickRejected marks a tick dropped for malformed input; prior state
	// is unchanged.
	ErrTickRejected = errors.New("tick rejected")
)

// failureEscalation is the consecutive-failure streak that surfaces a
// warning through the emitter.
const failureEscalation = 3

// #endregion errors

// #region options

// Options wires a Session. Store may be nil (no persistence); Emitter nil
// falls back to LogEmitter.
type Options struct {
	Config    config.Config
	UserID    string
	SessionID string
	Meta      map[string]string // caller-supplied session metadata, audited on every tick
	Store     *store.Store
	Emitter   Emitter
}

// #endregion options

// #region session

// Session is one user's processing pipeline.
type Session struct {
	opts Options

	denoiser   *filter.Denoiser
	calculator *metrics.Calculator
	mem        *memory.Store
	loop       *optimizer.Loop
	gains      *gain.Pipeline
	gate       *compliance.Gate

	lastTimestamp time.Time
	seq           int64
	lastRetention float64
	traitVersion  string // parent lineage for persisted snapshots
	warned        bool
}

// NewSession builds a session from configuration, rehydrating traits and
// experience from the store when one is wired.
func NewSession(opts Options) (*Session, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.New().String()
	}
	if opts.Emitter == nil {
		opts.Emitter = LogEmitter{}
	}

	mem := memory.NewStore(cfg.MemoryCapacity, cfg.DecayLambda)
	tv := traits.DefaultVector()
	traitVersion := ""

	if opts.Store != nil && opts.UserID != "" {
		if rec, err := opts.Store.LoadTraits(opts.UserID); err == nil {
			tv = rec.Vector
			traitVersion = rec.VersionID
		} else if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[PIPE] load traits for %s: %v", opts.UserID, err)
		}
		if records, err := opts.Store.LoadExperience(opts.UserID, cfg.MemoryCapacity); err == nil {
			for _, rec := range records {
				mem.Record(rec)
			}
		} else {
			log.Printf("[PIPE] load experience for %s: %v", opts.UserID, err)
		}
	}

	traitCfg := traits.DefaultConfig()
	traitCfg.DecayBeta = cfg.TraitDecayBeta

	optCfg := optimizer.DefaultConfig()
	optCfg.AttentionThreshold = cfg.AttentionThreshold
	optCfg.ScoreTolerance = cfg.ScoreTolerance
	optCfg.GainStep = cfg.GainStep

	return &Session{
		opts: opts,
		denoiser: filter.NewDenoiser(filter.Config{
			ProcessNoise:     cfg.FilterQ,
			MeasurementNoise: cfg.FilterR,
		}),
		calculator: metrics.NewCalculator(optCfg.ScoreWindow),
		mem:        mem,
		loop:       optimizer.NewLoop(optCfg, traitCfg, tv, mem),
		gains: gain.NewPipeline(gain.Config{
			Min: cfg.GateMin, Max: cfg.GateMax, MaxStep: cfg.GainStep,
		}),
		gate: compliance.NewGate(compliance.Config{
			SensitiveFields:  cfg.SensitiveFields,
			QuasiIdentifiers: cfg.QuasiIdentifiers,
			Standards:        cfg.ComplianceStandard,
		}),
		traitVersion: traitVersion,
	}, nil
}

// Memory exposes the session's experience store for reporting collaborators.
func (s *Session) Memory() *memory.Store {
	return s.mem
}

// Traits returns the current committed trait vector.
func (s *Session) Traits() traits.Vector {
	return s.loop.Traits()
}

// Gains returns the current gain snapshot.
func (s *Session) Gains() gain.Gains {
	return s.gains.Snapshot()
}

// #endregion session

// #region process

// Process runs one tick. The raw buffer is read-only input; all deadline
// checks happen before the optimizer commits anything, so an aborted tick
// never leaves half-applied state.
func (s *Session) Process(ctx context.Context, raw *buffer.Buffer) (SessionTick, error) {
	deadline := time.Now().Add(time.Duration(s.opts.Config.TickTimeoutMs) * time.Millisecond)

	if err := s.validate(raw); err != nil {
		s.audit("rejected", err.Error(), "")
		return SessionTick{}, fmt.Errorf("%w: %v", ErrTickRejected, err)
	}

	// Gains committed by earlier cycles apply to this tick's raw input:
	// the chain is feed-forward, never retroactive.
	boosted := s.gains.Apply(raw)
	filtered, fm := s.denoiser.Apply(boosted)

	if err := s.checkBudget(ctx, deadline); err != nil {
		s.audit("rejected", err.Error(), "")
		return SessionTick{}, err
	}

	bands, err := spectral.Extract(filtered)
	if err != nil {
		s.audit("rejected", err.Error(), "")
		return SessionTick{}, fmt.Errorf("%w: %v", ErrTickRejected, err)
	}

	m, err := s.calculator.Derive(bands, filtered, fm)
	if err != nil {
		s.audit("rejected", err.Error(), "")
		return SessionTick{}, fmt.Errorf("%w: %v", ErrTickRejected, err)
	}

	if err := s.checkBudget(ctx, deadline); err != nil {
		s.audit("rejected", err.Error(), "")
		return SessionTick{}, err
	}

	summary := s.optimize(m, bands, raw.Timestamp)

	tick, err := s.emit(raw.Timestamp, bands, m, summary)
	if err != nil {
		return SessionTick{}, err
	}

	s.lastTimestamp = raw.Timestamp
	s.seq++
	return tick, nil
}

// validate enforces shape, finiteness, and per-user timestamp ordering.
// Out-of-order buffers are rejected, never reordered.
func (s *Session) validate(raw *buffer.Buffer) error {
	if err := raw.Validate(); err != nil {
		return err
	}
	if s.seq > 0 && raw.Timestamp.Before(s.lastTimestamp) {
		return fmt.Errorf("%w: %s before %s",
			buffer.ErrNonMonotonic, raw.Timestamp.Format(time.RFC3339Nano),
			s.lastTimestamp.Format(time.RFC3339Nano))
	}
	return nil
}

// checkBudget aborts the tick when the context is done or the hard budget
// is spent. Prior parameters stay in force; the loop proceeds to the next
// tick rather than blocking.
func (s *Session) checkBudget(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTickTimeout, err)
	}
	if time.Now().After(deadline) {
		return ErrTickTimeout
	}
	return nil
}

// optimize advances the loop one stage and applies any accepted gain
// feedback for the next tick. Cycle failures are non-fatal; three in a row
// escalate to the notification collaborator.
func (s *Session) optimize(m metrics.NeuralMetrics, bands spectral.BandPowers, ts time.Time) OptimizationSummary {
	result, err := s.loop.Step(optimizer.StageInput{
		Metrics:   m,
		Bands:     bands,
		Retention: s.lastRetention,
		Now:       ts,
	})
	if err != nil {
		streak := s.loop.ConsecutiveFailures()
		if streak >= failureEscalation && !s.warned {
			s.opts.Emitter.EmitWarning(s.opts.SessionID,
				fmt.Sprintf("%d consecutive optimization cycle failures", streak))
			s.warned = true
		}
	} else {
		s.warned = false
	}

	for _, adj := range result.GainAdjustments {
		applied := s.gains.Adjust(gainStage(adj.Stage), adj.Step)
		if applied != 0 {
			log.Printf("[PIPE] gain %s %+.3f → %.3f", adj.Stage, applied, s.gains.Snapshot().Combined())
		}
	}

	if result.Accepted && s.opts.Store != nil && s.opts.UserID != "" {
		rec, err := s.opts.Store.SaveTraits(s.opts.UserID, s.loop.Traits(), s.traitVersion)
		if err != nil {
			log.Printf("[PIPE] persist traits: %v", err)
		} else {
			s.traitVersion = rec.VersionID
		}
	}

	state := s.loop.State()
	return OptimizationSummary{
		CycleID:       result.CycleID,
		Stage:         result.Stage,
		CycleComplete: result.CycleComplete,
		Accepted:      result.Accepted,
		NoOp:          result.NoOp,
		Failed:        result.Failed,
		LastScore:     state.LastScore,
	}
}

func gainStage(name string) gain.Stage {
	switch name {
	case "input":
		return gain.StageInput
	case "output":
		return gain.StageOutput
	default:
		return gain.StageProcessing
	}
}

// #endregion process

// #region emit

// emit audits the outgoing record, anonymizes direct identifiers, and
// publishes the tick. A record still non-compliant after its one
// anonymization pass is suppressed entirely.
func (s *Session) emit(ts time.Time, bands spectral.BandPowers, m metrics.NeuralMetrics, summary OptimizationSummary) (SessionTick, error) {
	meta := make(map[string]string, len(s.opts.Meta))
	for k, v := range s.opts.Meta {
		meta[k] = v
	}

	audit := s.gate.Audit(meta)
	if !audit.Compliant {
		reaudit, err := s.gate.Anonymize(meta, audit)
		if err != nil {
			s.audit("suppressed", err.Error(), complianceJSON(reaudit))
			log.Printf("[GATE] tick %d suppressed: %v", s.seq, err)
			return SessionTick{}, err
		}
		// Keep the pre-anonymization violations visible in the emitted
		// audit so downstream knows the fields were transformed.
		reaudit.Violations = audit.Violations
		audit = reaudit
	}

	tick := SessionTick{
		SessionID:    s.opts.SessionID,
		Seq:          s.seq,
		Timestamp:    ts,
		Bands:        bands,
		Metrics:      m,
		Traits:       s.loop.Traits(),
		Gains:        s.gains.Snapshot(),
		Optimization: summary,
		Compliance:   audit,
		Meta:         meta,
	}

	s.opts.Emitter.EmitTick(tick)
	s.audit("emitted", "", complianceJSON(audit))
	return tick, nil
}

// audit writes one tick-audit row when a store is wired.
func (s *Session) audit(decision, reason, complianceJSON string) {
	if s.opts.Store == nil {
		return
	}
	err := s.opts.Store.LogTickAudit(store.TickAudit{
		UserID:         s.opts.UserID,
		SessionID:      s.opts.SessionID,
		Seq:            s.seq,
		Decision:       decision,
		Reason:         reason,
		ComplianceJSON: complianceJSON,
	})
	if err != nil {
		log.Printf("[PIPE] audit log: %v", err)
	}
}

func complianceJSON(a compliance.AuditResult) string {
	data, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	return string(data)
}

// #endregion emit

// #region outcome

// RecordOutcome stores a completed-session outcome in experience memory
// (and the durable log when wired) and updates the retention signal the
// next reflection stage consumes.
func (s *Session) RecordOutcome(rec memory.ExperienceRecord) {
	if rec.SessionID == "" {
		rec.SessionID = s.opts.SessionID
	}
	s.mem.Record(rec)
	s.lastRetention = rec.OutcomeScore
	if s.opts.Store != nil && s.opts.UserID != "" {
		if err := s.opts.Store.RecordExperience(s.opts.UserID, rec); err != nil {
			log.Printf("[PIPE] persist experience: %v", err)
		}
	}
}

// Close persists the final trait snapshot. The session must not be used
// after Close.
func (s *Session) Close() error {
	s.calculator.Reset()
	if s.opts.Store == nil || s.opts.UserID == "" {
		return nil
	}
	rec, err := s.opts.Store.SaveTraits(s.opts.UserID, s.loop.Traits(), s.traitVersion)
	if err != nil {
		return fmt.Errorf("persist final traits: %w", err)
	}
	s.traitVersion = rec.VersionID
	return nil
}

// #endregion outcome
