// Package sqlite keeps a ledger of issued flake ids in a SQLite file.
//
// Ids are stored as 16-byte blobs in the primary key. SQLite compares blobs
// with memcmp, so key order is id order and a time range maps to a key range.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rexliu/flake/pkg/flake"
)

// ErrDuplicateID indicates an id that is already in the ledger.
var ErrDuplicateID = errors.New("sqlite: duplicate id")

// Store owns the SQLite ledger for a profile.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Path returns the underlying SQLite file path.
func (s *Store) Path() string {
	return s.path
}

// Open initializes a SQLite database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Init ensures pragmas and schema are configured.
func (s *Store) Init(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("nil store")
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmas {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return s.applySchema(ctx)
}

func (s *Store) applySchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES ('schemaVersion','1');`,
		`CREATE TABLE IF NOT EXISTS ids (
			id BLOB PRIMARY KEY CHECK (length(id) = 16),
			ts INTEGER NOT NULL,
			node INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		) WITHOUT ROWID;`,
		`CREATE INDEX IF NOT EXISTS idx_ids_node ON ids(node, ts);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Put records ids atomically. The whole batch is rejected with
// ErrDuplicateID if any id is already present.
func (s *Store) Put(ctx context.Context, ids ...flake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO ids(id, ts, node, seq, recorded_at) VALUES(?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	recorded := s.now().UnixMilli()
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, id, id.Timestamp(), id.NodeValue(), int64(id.Sequence()), recorded)
		if err := wrapRowsAffected(res, err); err != nil {
			tx.Rollback()
			if errors.Is(err, errNoRows) {
				return fmt.Errorf("%w: %s", ErrDuplicateID, id)
			}
			return err
		}
	}
	return tx.Commit()
}

// Has reports whether id is in the ledger.
func (s *Store) Has(ctx context.Context, id flake.ID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM ids WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of recorded ids.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ids`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Range returns ids with timestamps in [from, to), in id order. A limit of
// zero or less returns every match. Ids with negative timestamps are outside
// every range.
func (s *Store) Range(ctx context.Context, from, to time.Time, limit int) ([]flake.ID, error) {
	var zeroNode [6]byte
	lo := flake.Compose(clampMs(from), zeroNode, 0)
	hi := flake.Compose(clampMs(to), zeroNode, 0)
	query := `SELECT id FROM ids WHERE id >= ? AND id < ? ORDER BY id`
	args := []any{lo, hi}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []flake.ID
	for rows.Next() {
		var id flake.ID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func clampMs(t time.Time) int64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return ms
}

var errNoRows = errors.New("no rows affected")

func wrapRowsAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return errNoRows
	}
	return nil
}
