// Package compliance implements the final pre-emission checkpoint: every
// outgoing record is scanned for sensitive fields, anonymized when a direct
// identifier is found, and re-audited before it may leave the core.
package compliance

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrBlocked marks a record still non-compliant after its one anonymization
// pass; the tick must be suppressed, not emitted degraded.
var ErrBlocked = errors.New("record blocked by compliance gate")

// emailPattern catches raw email addresses appearing as field values.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// #region gate

// Gate audits outgoing record fields against the configured identifier
// lists.
type Gate struct {
	config Config
}

// NewGate creates a gate with the given configuration.
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Audit scans record fields. Direct-identifier matches are CRITICAL and
// make the result non-compliant; quasi-identifier matches are WARNING and
// pass through flagged. Violations are reported in sorted field order so
// audits are deterministic.
func (g *Gate) Audit(record map[string]string) AuditResult {
	return g.audit(record, nil)
}

// audit scans record fields, skipping the CRITICAL check for fields the
// caller just rewrote. Anonymization is tracked explicitly per pass, never
// inferred from value shape, so a real identifier that happens to look
// like a hash token still triggers.
func (g *Gate) audit(record map[string]string, rewritten map[string]bool) AuditResult {
	var violations []Violation

	for _, field := range sortedKeys(record) {
		value := record[field]
		switch {
		case !rewritten[field] && g.isSensitive(field, value):
			violations = append(violations, Violation{Field: field, Severity: SeverityCritical})
		case g.isQuasi(field):
			violations = append(violations, Violation{Field: field, Severity: SeverityWarning})
		}
	}

	return AuditResult{
		Compliant:  !hasCritical(violations),
		Violations: violations,
		RiskLevel:  riskOf(violations),
	}
}

// isSensitive matches direct identifiers by field name or value shape.
func (g *Gate) isSensitive(field, value string) bool {
	lower := strings.ToLower(field)
	for _, pattern := range g.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return emailPattern.MatchString(value)
}

func (g *Gate) isQuasi(field string) bool {
	lower := strings.ToLower(field)
	for _, pattern := range g.config.QuasiIdentifiers {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// #endregion gate

// #region anonymize

// Anonymize replaces every CRITICAL field in record with a deterministic
// 16-character hash token, then re-audits with exactly those fields
// exempted. The input map is mutated in place (the record is already owned
// by the emission path). Returns ErrBlocked when the record is still
// non-compliant after the single permitted pass.
func (g *Gate) Anonymize(record map[string]string, audit AuditResult) (AuditResult, error) {
	rewritten := make(map[string]bool, len(audit.Violations))
	for _, v := range audit.Violations {
		if v.Severity != SeverityCritical {
			continue
		}
		record[v.Field] = AnonymizeValue(record[v.Field])
		rewritten[v.Field] = true
	}

	reaudit := g.audit(record, rewritten)
	if !reaudit.Compliant {
		fields := make([]string, 0, len(reaudit.Violations))
		for _, v := range reaudit.Violations {
			if v.Severity == SeverityCritical {
				fields = append(fields, v.Field)
			}
		}
		return reaudit, fmt.Errorf("%w: fields %v", ErrBlocked, fields)
	}
	return reaudit, nil
}

// AnonymizeValue maps a value to its stable 16-hex-character token.
// The same input always yields the same token.
func AnonymizeValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}

// #endregion anonymize

// #region helpers

func hasCritical(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// riskOf grades the record from its violation set.
func riskOf(violations []Violation) RiskLevel {
	criticals := 0
	warnings := 0
	for _, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			criticals++
		case SeverityWarning:
			warnings++
		}
	}
	switch {
	case criticals > 1:
		return RiskCritical
	case criticals == 1:
		return RiskHigh
	case warnings > 0:
		return RiskMedium
	default:
		return RiskLow
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// #endregion helpers
