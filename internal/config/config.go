// Package config loads the static runtime parameters supplied at startup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region config

// Config is the full set of recognized startup parameters.
type Config struct {
	DecayLambda        float64  `yaml:"decay_lambda"`        // experience decay constant
	TraitDecayBeta     float64  `yaml:"trait_decay_beta"`    // trait regression constant
	FilterQ            float64  `yaml:"filter_q"`            // process noise
	FilterR            float64  `yaml:"filter_r"`            // measurement noise; <= 0 disables filtering
	GateMin            float64  `yaml:"gate_min"`            // gain clamp lower bound
	GateMax            float64  `yaml:"gate_max"`            // gain clamp upper bound
	GainStep           float64  `yaml:"gain_step"`           // per-cycle gain adjustment bound
	AttentionThreshold float64  `yaml:"attention_threshold"` // sustained-drop threshold
	ScoreTolerance     float64  `yaml:"score_tolerance"`     // experimentation regression tolerance
	MemoryCapacity     int      `yaml:"memory_capacity"`     // experience store bound
	TickTimeoutMs      int      `yaml:"tick_timeout_ms"`     // per-tick hard budget
	ComplianceStandard []string `yaml:"compliance_standards"`
	SensitiveFields    []string `yaml:"sensitive_fields"`
	QuasiIdentifiers   []string `yaml:"quasi_identifiers"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		DecayLambda:        0.07,
		TraitDecayBeta:     0.11,
		FilterQ:            0.05,
		FilterR:            0.25,
		GateMin:            0.5,
		GateMax:            2.0,
		GainStep:           0.05,
		AttentionThreshold: 0.6,
		ScoreTolerance:     0.02,
		MemoryCapacity:     10_000,
		TickTimeoutMs:      5,
		ComplianceStandard: []string{"GDPR", "HIPAA"},
		SensitiveFields:    []string{"email", "ssn", "medical_record", "patient_id", "date_of_birth"},
		QuasiIdentifiers:   []string{"name", "phone", "zip", "address"},
	}
}

// #endregion config

// #region load

// Load reads a YAML file over the defaults. An empty path returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects parameter sets the core cannot run with.
func (c Config) Validate() error {
	if c.DecayLambda <= 0 {
		return fmt.Errorf("decay_lambda must be positive, got %g", c.DecayLambda)
	}
	if c.TraitDecayBeta < 0 || c.TraitDecayBeta >= 1 {
		return fmt.Errorf("trait_decay_beta must be in [0, 1), got %g", c.TraitDecayBeta)
	}
	if c.FilterQ < 0 {
		// Negative process noise drives the estimator variance negative.
		return fmt.Errorf("filter_q must be non-negative, got %g", c.FilterQ)
	}
	if c.GateMin <= 0 || c.GateMax <= c.GateMin {
		return fmt.Errorf("gate bounds invalid: min=%g max=%g", c.GateMin, c.GateMax)
	}
	if c.GainStep <= 0 {
		return fmt.Errorf("gain_step must be positive, got %g", c.GainStep)
	}
	if c.ScoreTolerance < 0 || c.ScoreTolerance >= 1 {
		return fmt.Errorf("score_tolerance must be in [0, 1), got %g", c.ScoreTolerance)
	}
	if c.MemoryCapacity <= 0 {
		return fmt.Errorf("memory_capacity must be positive, got %d", c.MemoryCapacity)
	}
	if c.TickTimeoutMs <= 0 {
		return fmt.Errorf("tick_timeout_ms must be positive, got %d", c.TickTimeoutMs)
	}
	return nil
}

// #endregion load
