// Package replay runs recorded sessions through the full pipeline
// deterministically, for regression checks and offline tuning review.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/neurocore/internal/config"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string            `json:"description"`
	Config      FixtureConfig     `json:"config"`
	Meta        map[string]string `json:"meta,omitempty"`
	Windows     []FixtureWindow   `json:"windows"`
	Expected    []ExpectedResult  `json:"expected_results,omitempty"`
}

// FixtureConfig overrides a subset of the runtime configuration. Zero
// values fall back to defaults.
type FixtureConfig struct {
	FilterQ            float64 `json:"filter_q"`
	FilterR            float64 `json:"filter_r"`
	DecayLambda        float64 `json:"decay_lambda"`
	TraitDecayBeta     float64 `json:"trait_decay_beta"`
	AttentionThreshold float64 `json:"attention_threshold"`
	ScoreTolerance     float64 `json:"score_tolerance"`
}

// FixtureWindow describes one synthetic sample window. OffsetMs orders the
// windows; an offset earlier than the prior window exercises the
// monotonic-rejection path.
type FixtureWindow struct {
	OffsetMs   int64   `json:"offset_ms"`
	Channels   int     `json:"channels"`
	Window     int     `json:"window"`
	SampleRate float64 `json:"sample_rate"`
	ToneHz     float64 `json:"tone_hz"`
	NoiseStd   float64 `json:"noise_std"`
	Seed       int64   `json:"seed"`
}

// ExpectedResult captures the expected pipeline decision per window.
type ExpectedResult struct {
	Seq      int    `json:"seq"`
	Decision string `json:"decision"` // "emitted" | "rejected" | "suppressed"
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Windows) == 0 {
		return nil, fmt.Errorf("fixture %s: no windows", path)
	}
	return &f, nil
}

// ToConfig applies the fixture overrides to the default configuration.
func (fc FixtureConfig) ToConfig() config.Config {
	cfg := config.Default()
	if fc.FilterQ != 0 {
		cfg.FilterQ = fc.FilterQ
	}
	if fc.FilterR != 0 {
		cfg.FilterR = fc.FilterR
	}
	if fc.DecayLambda != 0 {
		cfg.DecayLambda = fc.DecayLambda
	}
	if fc.TraitDecayBeta != 0 {
		cfg.TraitDecayBeta = fc.TraitDecayBeta
	}
	if fc.AttentionThreshold != 0 {
		cfg.AttentionThreshold = fc.AttentionThreshold
	}
	if fc.ScoreTolerance != 0 {
		cfg.ScoreTolerance = fc.ScoreTolerance
	}
	// Replay runs are not latency-bound; a generous budget keeps results
	// deterministic on slow machines.
	cfg.TickTimeoutMs = 1000
	return cfg
}

// #endregion fixture-loader
