package store

import (
	"time"

	"github.com/danielpatrickdp/neurocore/internal/traits"
)

// #region trait-record

// TraitRecord is a versioned snapshot of one user's trait vector.
type TraitRecord struct {
	VersionID string
	UserID    string
	ParentID  string
	Vector    traits.Vector
	CreatedAt time.Time
}

// #endregion trait-record

// #region tick-audit

// TickAudit is one row of the session-tick audit trail: what the pipeline
// decided for a tick and why. Compliance results are stored as JSON.
type TickAudit struct {
	UserID         string
	SessionID      string
	Seq            int64
	Decision       string // "emitted" | "rejected" | "suppressed"
	Reason         string
	ComplianceJSON string
	CreatedAt      time.Time
}

// #endregion tick-audit
