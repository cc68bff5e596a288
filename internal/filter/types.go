package filter

// #region config

// Config holds the process and measurement noise parameters for the
// per-channel recursive estimator.
type Config struct {
	ProcessNoise     float64 // Q: how fast the underlying signal is allowed to move
	MeasurementNoise float64 // R: expected sensor noise; <= 0 disables filtering
}

// DefaultConfig returns noise parameters tuned for consumer EEG hardware.
func DefaultConfig() Config {
	return Config{
		ProcessNoise:     0.05,
		MeasurementNoise: 0.25,
	}
}

// #endregion config

// #region metrics

// Metrics reports per-window filter telemetry.
type Metrics struct {
	NoiseReductionDB float64 // 10*log10(var(raw)/var(filtered)), clamped to [0, 60]
	SignalQualityDB  float64 // post-filter signal-to-residual estimate, clamped to [0, 60]
	Passthrough      bool    // true when R <= 0 disabled filtering
}

// #endregion metrics
