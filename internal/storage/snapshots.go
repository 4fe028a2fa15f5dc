package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"apifp/internal/errors"
	"apifp/internal/fingerprint"
	"apifp/internal/surface"
)

// fixed width so that created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Snapshot is the header of a stored surface
type Snapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Backend    string    `json:"backend"`
	Source     string    `json:"source"`
	Algorithm  string    `json:"algorithm"`
	Digest     string    `json:"digest"`
	EntryCount int       `json:"entryCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SnapshotMeta describes where a surface being saved came from
type SnapshotMeta struct {
	Name    string
	Backend string
	Source  string
}

// SaveSnapshot stores s under a new ID. Names may repeat; lookups by name
// resolve to the most recent snapshot.
func (db *DB) SaveSnapshot(ctx context.Context, meta SnapshotMeta, s *surface.Surface) (*Snapshot, error) {
	if meta.Name == "" {
		return nil, errors.Newf(errors.InputInvalid, "snapshot name is required")
	}
	snap := &Snapshot{
		ID:         uuid.New().String(),
		Name:       meta.Name,
		Backend:    meta.Backend,
		Source:     meta.Source,
		Algorithm:  string(s.Algorithm()),
		Digest:     s.Digest().String(),
		EntryCount: s.Len(),
		CreatedAt:  time.Now().UTC(),
	}

	err := db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, name, backend, source, algorithm, digest, entry_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, snap.ID, snap.Name, snap.Backend, snap.Source, snap.Algorithm, snap.Digest, snap.EntryCount,
			snap.CreatedAt.Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO snapshot_entries (snapshot_id, doc_id, fingerprint) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare entry insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range s.Entries() {
			if _, err := stmt.ExecContext(ctx, snap.ID, e.ID, e.Fingerprint.Serialize()); err != nil {
				return fmt.Errorf("failed to insert entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	db.logger.Info("Saved snapshot", "id", snap.ID, "name", snap.Name, "entries", snap.EntryCount)
	return snap, nil
}

// GetSnapshot resolves idOrName to a snapshot header
func (db *DB) GetSnapshot(ctx context.Context, idOrName string) (*Snapshot, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, backend, source, algorithm, digest, entry_count, created_at
		FROM snapshots
		WHERE id = ? OR name = ?
		ORDER BY id = ? DESC, created_at DESC, rowid DESC
		LIMIT 1
	`, idOrName, idOrName, idOrName)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewWithFixes(errors.SnapshotNotFound, "no snapshot named "+idOrName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snap, nil
}

// LoadSnapshot reads a stored surface, recomputing every fingerprint from
// its identifier. Any mismatch fails with SNAPSHOT_CORRUPT.
func (db *DB) LoadSnapshot(ctx context.Context, idOrName string) (*Snapshot, *surface.Surface, error) {
	snap, err := db.GetSnapshot(ctx, idOrName)
	if err != nil {
		return nil, nil, err
	}
	alg, err := fingerprint.ParseAlgorithm(snap.Algorithm)
	if err != nil {
		return nil, nil, errors.NewWithFixes(errors.SnapshotCorrupt, "snapshot "+snap.ID+" has an unknown algorithm", err)
	}
	h, err := fingerprint.NewHasher(alg)
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.conn.QueryContext(ctx, "SELECT doc_id, fingerprint FROM snapshot_entries WHERE snapshot_id = ?", snap.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	s := surface.New(alg)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		f, err := fingerprint.FromBytes(raw)
		if err != nil {
			return nil, nil, errors.NewWithFixes(errors.SnapshotCorrupt, "bad fingerprint for "+id, err)
		}
		if err := surface.VerifyInto(s, h, id, f); err != nil {
			return nil, nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read entries: %w", err)
	}

	if s.Len() != snap.EntryCount || s.Digest().String() != snap.Digest {
		return nil, nil, errors.NewWithFixes(errors.SnapshotCorrupt,
			fmt.Sprintf("snapshot %s holds %d entries with digest %s, header says %d and %s",
				snap.ID, s.Len(), s.Digest(), snap.EntryCount, snap.Digest), nil)
	}
	return snap, s, nil
}

// ListSnapshots returns every snapshot header, newest first
func (db *DB) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, backend, source, algorithm, digest, entry_count, created_at
		FROM snapshots
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes the snapshot idOrName resolves to, with its entries
func (db *DB) DeleteSnapshot(ctx context.Context, idOrName string) (*Snapshot, error) {
	snap, err := db.GetSnapshot(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	err = db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_entries WHERE snapshot_id = ?", snap.ID); err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", snap.ID); err != nil {
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	db.logger.Info("Deleted snapshot", "id", snap.ID, "name", snap.Name)
	return snap, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var snap Snapshot
	var createdAt string
	err := row.Scan(&snap.ID, &snap.Name, &snap.Backend, &snap.Source, &snap.Algorithm, &snap.Digest, &snap.EntryCount, &createdAt)
	if err != nil {
		return nil, err
	}
	snap.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	return &snap, nil
}
