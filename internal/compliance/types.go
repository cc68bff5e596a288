package compliance

// #region severity

// Severity grades a single field violation.
type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// RiskLevel grades the overall record.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// #endregion severity

// #region violation

// Violation flags one offending field.
type Violation struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
}

// AuditResult is produced fresh per audited record; it is an audit trail
// artifact, never domain state.
type AuditResult struct {
	Compliant  bool        `json:"compliant"`
	Violations []Violation `json:"violations,omitempty"`
	RiskLevel  RiskLevel   `json:"risk_level"`
}

// #endregion violation

// #region config

// Config lists the field patterns the gate scans for. Patterns match
// case-insensitively against field names; direct identifiers additionally
// match well-known value shapes (email addresses, national IDs).
type Config struct {
	SensitiveFields  []string // direct identifiers: CRITICAL, block until anonymized
	QuasiIdentifiers []string // WARNING, flagged but passed through
	Standards        []string // compliance standards in force, recorded in audits
}

// DefaultConfig returns the standard field lists.
func DefaultConfig() Config {
	return Config{
		SensitiveFields:  []string{"email", "ssn", "medical_record", "patient_id", "date_of_birth"},
		QuasiIdentifiers: []string{"name", "phone", "zip", "address"},
		Standards:        []string{"GDPR", "HIPAA"},
	}
}

// #endregion config
