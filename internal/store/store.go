// Package store is the persistent storage collaborator: SQLite-backed
// trait snapshots with lineage, the durable experience log, and the
// session-tick audit trail.
package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/memory"
	"github.com/danielpatrickdp/neurocore/internal/traits"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS trait_versions (
	version_id  TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	parent_id   TEXT,
	vector      BLOB NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES trait_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_traits (
	user_id     TEXT PRIMARY KEY,
	version_id  TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES trait_versions(version_id)
);

CREATE TABLE IF NOT EXISTS experience_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	ts          TEXT NOT NULL,
	intensity   REAL NOT NULL,
	outcome     REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_experience_user ON experience_log(user_id, id);

CREATE TABLE IF NOT EXISTS tick_audit (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id          TEXT NOT NULL,
	session_id       TEXT NOT NULL,
	seq              INTEGER NOT NULL,
	decision         TEXT NOT NULL,
	reason           TEXT,
	compliance_json  TEXT,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tick_audit_user ON tick_audit(user_id, id);
`

// #endregion schema

// #region store-struct

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region traits

// SaveTraits inserts a new trait version for the user and moves the active
// pointer, atomically.
func (s *Store) SaveTraits(userID string, v traits.Vector, parentID string) (TraitRecord, error) {
	rec := TraitRecord{
		VersionID: uuid.New().String(),
		UserID:    userID,
		ParentID:  parentID,
		Vector:    v,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return TraitRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentPtr interface{}
	if parentID != "" {
		parentPtr = parentID
	}

	_, err = tx.Exec(
		`INSERT INTO trait_versions (version_id, user_id, parent_id, vector, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.VersionID, userID, parentPtr, encodeTraits(v), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return TraitRecord{}, fmt.Errorf("insert trait version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_traits (user_id, version_id) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET version_id = excluded.version_id`,
		userID, rec.VersionID,
	)
	if err != nil {
		return TraitRecord{}, fmt.Errorf("set active traits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return TraitRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// LoadTraits reads the user's active trait snapshot. Returns sql.ErrNoRows
// wrapped when the user has no persisted traits yet.
func (s *Store) LoadTraits(userID string) (TraitRecord, error) {
	var versionID string
	err := s.db.QueryRow(
		`SELECT version_id FROM active_traits WHERE user_id = ?`, userID,
	).Scan(&versionID)
	if err != nil {
		return TraitRecord{}, fmt.Errorf("get active traits for %s: %w", userID, err)
	}
	return s.TraitVersion(versionID)
}

// TraitVersion retrieves a specific trait snapshot by ID.
func (s *Store) TraitVersion(versionID string) (TraitRecord, error) {
	var rec TraitRecord
	var parentID sql.NullString
	var blob []byte
	var createdStr string

	err := s.db.QueryRow(
		`SELECT version_id, user_id, parent_id, vector, created_at
		 FROM trait_versions WHERE version_id = ?`, versionID,
	).Scan(&rec.VersionID, &rec.UserID, &parentID, &blob, &createdStr)
	if err != nil {
		return TraitRecord{}, fmt.Errorf("get trait version %s: %w", versionID, err)
	}
	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	rec.Vector = decodeTraits(blob)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// RollbackTraits points the user's active snapshot at a prior version.
func (s *Store) RollbackTraits(userID, versionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM trait_versions WHERE version_id = ? AND user_id = ?`,
		versionID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check trait version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("trait version %s not found for user %s", versionID, userID)
	}
	_, err = s.db.Exec(
		`UPDATE active_traits SET version_id = ? WHERE user_id = ?`, versionID, userID,
	)
	if err != nil {
		return fmt.Errorf("rollback traits: %w", err)
	}
	return nil
}

// #endregion traits

// #region experience

// RecordExperience appends one experience record to the durable log.
func (s *Store) RecordExperience(userID string, rec memory.ExperienceRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO experience_log (user_id, session_id, ts, intensity, outcome)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, rec.SessionID, rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Intensity, rec.OutcomeScore,
	)
	if err != nil {
		return fmt.Errorf("insert experience: %w", err)
	}
	return nil
}

// LoadExperience returns up to limit most recent records, oldest first,
// ready to rehydrate a memory.Store after restart.
func (s *Store) LoadExperience(userID string, limit int) ([]memory.ExperienceRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, ts, intensity, outcome FROM
		   (SELECT id, session_id, ts, intensity, outcome FROM experience_log
		    WHERE user_id = ? ORDER BY id DESC LIMIT ?)
		 ORDER BY id ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load experience: %w", err)
	}
	defer rows.Close()

	var records []memory.ExperienceRecord
	for rows.Next() {
		var rec memory.ExperienceRecord
		var ts string
		if err := rows.Scan(&rec.SessionID, &ts, &rec.Intensity, &rec.OutcomeScore); err != nil {
			return nil, fmt.Errorf("scan experience: %w", err)
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion experience

// #region tick-audit

// LogTickAudit writes one audit row for an emitted, rejected, or
// suppressed tick.
func (s *Store) LogTickAudit(entry TickAudit) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO tick_audit (user_id, session_id, seq, decision, reason, compliance_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.SessionID, entry.Seq, entry.Decision,
		nullIfEmpty(entry.Reason), nullIfEmpty(entry.ComplianceJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log tick audit: %w", err)
	}
	return nil
}

// RecentTicks returns the most recent audit rows for a user, newest first.
func (s *Store) RecentTicks(userID string, limit int) ([]TickAudit, error) {
	rows, err := s.db.Query(
		`SELECT user_id, session_id, seq, decision, reason, compliance_json, created_at
		 FROM tick_audit WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent ticks: %w", err)
	}
	defer rows.Close()

	var out []TickAudit
	for rows.Next() {
		var t TickAudit
		var reason, compliance sql.NullString
		var createdStr string
		if err := rows.Scan(&t.UserID, &t.SessionID, &t.Seq, &t.Decision, &reason, &compliance, &createdStr); err != nil {
			return nil, fmt.Errorf("scan tick audit: %w", err)
		}
		if reason.Valid {
			t.Reason = reason.String
		}
		if compliance.Valid {
			t.ComplianceJSON = compliance.String
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, t)
	}
	return out, rows.Err()
}

// #endregion tick-audit

// #region vector-encoding

func encodeTraits(v traits.Vector) []byte {
	vals := v.Values()
	buf := make([]byte, len(vals)*8)
	for i, f := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeTraits(b []byte) traits.Vector {
	var vals [4]float64
	for i := range vals {
		if i*8+8 <= len(b) {
			vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
		}
	}
	return traits.Vector{
		Curiosity:       vals[0],
		Resilience:      vals[1],
		Openness:        vals[2],
		ProcessingSpeed: vals[3],
	}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion vector-encoding
