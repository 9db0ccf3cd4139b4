// Package store is the SQLite-backed persistence layer httpsrv uses to
// cache decoded grammars by content hash and to keep an append-only audit
// log of parse attempts, following server/dao/sqlite/sqlite.go's
// database/sql-over-modernc.org/sqlite style.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"

	"github.com/sablefin/parsevm/grammar"
	"github.com/sablefin/parsevm/loader"
)

// ErrNotFound is returned when a lookup by ID or hash matches no row.
var ErrNotFound = errors.New("not found")

// GrammarRecord is one cached, decoded grammar.
type GrammarRecord struct {
	ID        uuid.UUID
	Hash      string
	RawBytes  []byte
	CreatedAt time.Time
}

// ParseAttempt is one row of the parse audit log.
type ParseAttempt struct {
	ID         uuid.UUID
	GrammarID  uuid.UUID
	ByteCount  int64
	Status     string
	FinishedAt time.Time
}

// Store is the store package's single entry point: a handle on the on-disk
// SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the SQLite database under dataDir.
func Open(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "parsevm.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapDBError(err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS grammars (
			id TEXT PRIMARY KEY,
			hash TEXT UNIQUE NOT NULL,
			raw_bytes BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS parse_attempts (
			id TEXT PRIMARY KEY,
			grammar_id TEXT NOT NULL REFERENCES grammars(id),
			byte_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			finished_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// HashGrammar returns the content hash used to dedupe grammar uploads.
func HashGrammar(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// PutGrammar stores raw (a loader.Container-encoded blob), returning the
// existing record if one with the same content hash is already cached.
func (s *Store) PutGrammar(raw []byte) (GrammarRecord, error) {
	hash := HashGrammar(raw)

	if existing, err := s.GrammarByHash(hash); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return GrammarRecord{}, err
	}

	rec := GrammarRecord{ID: uuid.New(), Hash: hash, RawBytes: raw, CreatedAt: time.Now()}
	_, err := s.db.Exec(
		`INSERT INTO grammars (id, hash, raw_bytes, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID.String(), rec.Hash, rec.RawBytes, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return GrammarRecord{}, wrapDBError(err)
	}
	return rec, nil
}

// GrammarByID fetches a cached grammar by its store-assigned ID.
func (s *Store) GrammarByID(id uuid.UUID) (GrammarRecord, error) {
	return s.scanGrammarRow(s.db.QueryRow(
		`SELECT id, hash, raw_bytes, created_at FROM grammars WHERE id = ?`, id.String()))
}

// GrammarByHash fetches a cached grammar by its content hash.
func (s *Store) GrammarByHash(hash string) (GrammarRecord, error) {
	return s.scanGrammarRow(s.db.QueryRow(
		`SELECT id, hash, raw_bytes, created_at FROM grammars WHERE hash = ?`, hash))
}

func (s *Store) scanGrammarRow(row *sql.Row) (GrammarRecord, error) {
	var rec GrammarRecord
	var idStr string
	var created int64

	err := row.Scan(&idStr, &rec.Hash, &rec.RawBytes, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GrammarRecord{}, ErrNotFound
		}
		return GrammarRecord{}, wrapDBError(err)
	}

	rec.ID, err = uuid.Parse(idStr)
	if err != nil {
		return GrammarRecord{}, fmt.Errorf("corrupt grammar id %q: %w", idStr, err)
	}
	rec.CreatedAt = time.Unix(created, 0)
	return rec, nil
}

// GrammarHandle pairs a decoded grammar with the cache record it came from.
type GrammarHandle struct {
	Record  GrammarRecord
	Grammar *grammar.Grammar
}

// LoadGrammar is a convenience wrapper that fetches a GrammarRecord and
// decodes it with the loader package.
func (s *Store) LoadGrammar(id uuid.UUID) (*GrammarHandle, error) {
	rec, err := s.GrammarByID(id)
	if err != nil {
		return nil, err
	}
	g, err := loader.Decode(rec.RawBytes)
	if err != nil {
		return nil, fmt.Errorf("decode cached grammar %s: %w", id, err)
	}
	return &GrammarHandle{Record: rec, Grammar: g}, nil
}

// LogParseAttempt appends one row to the parse audit log.
func (s *Store) LogParseAttempt(grammarID uuid.UUID, byteCount int64, status string) (ParseAttempt, error) {
	pa := ParseAttempt{ID: uuid.New(), GrammarID: grammarID, ByteCount: byteCount, Status: status, FinishedAt: time.Now()}
	_, err := s.db.Exec(
		`INSERT INTO parse_attempts (id, grammar_id, byte_count, status, finished_at) VALUES (?, ?, ?, ?, ?)`,
		pa.ID.String(), pa.GrammarID.String(), pa.ByteCount, pa.Status, pa.FinishedAt.Unix(),
	)
	if err != nil {
		return ParseAttempt{}, wrapDBError(err)
	}
	return pa, nil
}

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return fmt.Errorf("constraint violation: %w", err)
		}
		return fmt.Errorf("%s: %w", sqlite.ErrorCodeString[sqliteErr.Code()], err)
	}
	return err
}
