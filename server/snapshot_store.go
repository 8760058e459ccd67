package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tilewm/wm"
)

// Current schema version - bump when the stored document shape changes.
const snapshotSchemaVersion = 1

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created INTEGER NOT NULL,         -- UnixNano
    doc TEXT NOT NULL                 -- JSON wm.Snapshot
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created);
`

var ErrNoSnapshot = errors.New("server: no stored snapshot")

// SnapshotStore persists layout snapshots to sqlite so workspace
// names, root orientations and the active workspace survive a server
// restart.
type SnapshotStore struct {
	db *sql.DB
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("server: open snapshot db: %w", err)
	}
	s := &SnapshotStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SnapshotStore) migrate() error {
	if _, err := s.db.Exec(snapshotSchema); err != nil {
		return fmt.Errorf("server: snapshot schema: %w", err)
	}
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, snapshotSchemaVersion)
		return err
	case err != nil:
		return err
	case version != snapshotSchemaVersion:
		// Older documents are not worth carrying across versions;
		// start over.
		if _, err := s.db.Exec(`DELETE FROM snapshots`); err != nil {
			return err
		}
		_, err = s.db.Exec(`UPDATE schema_version SET version = ?`, snapshotSchemaVersion)
		return err
	}
	return nil
}

// Save appends one snapshot, keeping only the newest few rows.
func (s *SnapshotStore) Save(snap *wm.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(
		`INSERT INTO snapshots (created, doc) VALUES (?, ?)`,
		time.Now().UnixNano(), string(doc),
	); err != nil {
		return fmt.Errorf("server: save snapshot: %w", err)
	}
	_, err = s.db.Exec(`DELETE FROM snapshots WHERE id NOT IN
        (SELECT id FROM snapshots ORDER BY created DESC LIMIT 8)`)
	return err
}

// LoadLatest returns the most recent stored snapshot.
func (s *SnapshotStore) LoadLatest() (*wm.Snapshot, error) {
	var doc string
	err := s.db.QueryRow(`SELECT doc FROM snapshots ORDER BY created DESC LIMIT 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	var snap wm.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return nil, fmt.Errorf("server: decode snapshot: %w", err)
	}
	return &snap, nil
}

// Count reports stored snapshot rows, for tests and diagnostics.
func (s *SnapshotStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Restore rebuilds the recorded workspaces from the latest snapshot
// onto the live tree, matching outputs by name. Views are never
// resurrected; their surfaces died with the previous run.
func (s *SnapshotStore) Restore(tree *wm.Tree) error {
	snap, err := s.LoadLatest()
	if err != nil {
		return err
	}
	byName := map[string]wm.NodeID{}
	for _, oid := range tree.Outputs() {
		byName[tree.Node(oid).Name] = oid
	}
	for _, outSnap := range snap.Outputs {
		oid, ok := byName[outSnap.Name]
		if !ok {
			continue
		}
		if err := tree.RestoreOutput(oid, outSnap); err != nil {
			return err
		}
	}
	return nil
}
