package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/compliance"
	"github.com/danielpatrickdp/neurocore/internal/ingest"
	"github.com/danielpatrickdp/neurocore/internal/pipeline"
)

// #region result

// Result captures the outcome of replaying one window.
type Result struct {
	Seq      int     `json:"seq"`
	Decision string  `json:"decision"` // "emitted" | "rejected" | "suppressed"
	Reason   string  `json:"reason,omitempty"`
	Stage    string  `json:"stage,omitempty"`
	Score    float64 `json:"score"`
}

// Summary aggregates a replay run.
type Summary struct {
	Results    []Result `json:"results"`
	Emitted    int      `json:"emitted"`
	Rejected   int      `json:"rejected"`
	Suppressed int      `json:"suppressed"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// #endregion result

// #region harness

// nullEmitter swallows ticks so replay output stays on the harness path.
type nullEmitter struct{}

func (nullEmitter) EmitTick(pipeline.SessionTick) {}
func (nullEmitter) EmitWarning(_, _ string)       {}

// Run replays every fixture window through a fresh session and compares
// against the fixture's expected results when present.
func Run(ctx context.Context, f *Fixture) (Summary, error) {
	sess, err := pipeline.NewSession(pipeline.Options{
		Config:    f.Config.ToConfig(),
		SessionID: "replay",
		Meta:      f.Meta,
		Emitter:   nullEmitter{},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("replay session: %w", err)
	}

	start := time.Unix(0, 0).UTC()
	var summary Summary

	for i, w := range f.Windows {
		src := ingest.NewSyntheticSource(ingest.SyntheticConfig{
			Channels:   w.Channels,
			Window:     w.Window,
			SampleRate: w.SampleRate,
			ToneHz:     w.ToneHz,
			NoiseStd:   w.NoiseStd,
			Seed:       w.Seed,
		}, start)
		buf := src.Generate(start.Add(time.Duration(w.OffsetMs) * time.Millisecond))

		res := Result{Seq: i}
		tick, err := sess.Process(ctx, buf)
		switch {
		case err == nil:
			res.Decision = "emitted"
			res.Stage = string(tick.Optimization.Stage)
			res.Score = tick.Optimization.LastScore
			summary.Emitted++
		case errors.Is(err, compliance.ErrBlocked):
			res.Decision = "suppressed"
			res.Reason = err.Error()
			summary.Suppressed++
		default:
			res.Decision = "rejected"
			res.Reason = err.Error()
			summary.Rejected++
		}
		summary.Results = append(summary.Results, res)
	}

	for _, exp := range f.Expected {
		if exp.Seq < 0 || exp.Seq >= len(summary.Results) {
			summary.Mismatches = append(summary.Mismatches,
				fmt.Sprintf("expected seq %d out of range", exp.Seq))
			continue
		}
		got := summary.Results[exp.Seq].Decision
		if got != exp.Decision {
			summary.Mismatches = append(summary.Mismatches,
				fmt.Sprintf("seq %d: expected %s, got %s", exp.Seq, exp.Decision, got))
		}
	}
	return summary, nil
}

// #endregion harness
