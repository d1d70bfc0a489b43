// Package store persists papers in SQLite with a capacity bound and
// least-recently-accessed eviction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/paper"
)

// StorageError wraps any persistence failure. Callers may assume the
// operation did not partially apply: every mutation runs inside a single
// transaction.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	authors         TEXT NOT NULL DEFAULT '',
	summary         TEXT NOT NULL DEFAULT '',
	published       TIMESTAMP,
	link            TEXT NOT NULL DEFAULT '',
	pdf_link        TEXT NOT NULL DEFAULT '',
	categories      TEXT NOT NULL DEFAULT '',
	relevance_score REAL,
	relevance_reason TEXT NOT NULL DEFAULT '',
	sent            INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL,
	last_accessed   TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published);
CREATE INDEX IF NOT EXISTS idx_papers_last_accessed ON papers(last_accessed);
`

// evictionOrder ranks rows for removal: never-accessed rows first, then
// least recently accessed, ties broken by insertion time.
const evictionOrder = `
ORDER BY
	CASE WHEN last_accessed IS NULL THEN 0 ELSE 1 END,
	last_accessed ASC,
	created_at ASC`

// Store is a capacity-bounded paper repository. Mutations are serialized
// through a single writer mutex so concurrent runs cannot overshoot the
// capacity by each observing a stale row count.
type Store struct {
	db      *sqlx.DB
	maxSize int
	logger  *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// Open connects to the SQLite database at path and ensures the schema
// exists. maxSize <= 0 disables eviction (unbounded storage).
func Open(path string, maxSize int, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, storageErr("open", err)
	}
	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under the store's own serialized mutations.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storageErr("init schema", err)
	}

	return &Store{
		db:      db,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// MaxSize reports the configured capacity bound (0 = unbounded).
func (s *Store) MaxSize() int { return s.maxSize }

// Exists reports whether a paper with the given id is stored. When
// present its last_accessed timestamp is refreshed, which protects the
// row from near-term eviction. Never creates a row.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, storageErr("exists", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowxContext(ctx, `SELECT 1 FROM papers WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storageErr("exists", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE papers SET last_accessed = ? WHERE id = ?`, s.now(), id); err != nil {
		return false, storageErr("exists: touch", err)
	}
	if err := tx.Commit(); err != nil {
		return false, storageErr("exists: commit", err)
	}
	return true, nil
}

// AddOrUpdate upserts a paper. Inserting a new row into a full store
// first evicts enough rows, in eviction order, to make room; the
// eviction and the insert commit as one transaction. Updates refresh
// last_accessed and overwrite the score, reason and sent flag.
func (s *Store) AddOrUpdate(ctx context.Context, p *paper.Paper, sent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("add", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowxContext(ctx, `SELECT 1 FROM papers WHERE id = ?`, p.ID).Scan(&one)
	exists := err == nil
	if err != nil && err != sql.ErrNoRows {
		return storageErr("add: lookup", err)
	}

	if !exists && s.maxSize > 0 {
		if err := s.evictForInsert(ctx, tx); err != nil {
			return err
		}
	}

	now := s.now()
	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE papers
			SET relevance_score = ?, relevance_reason = ?, sent = ?, last_accessed = ?
			WHERE id = ?`,
			p.RelevanceScore, p.RelevanceReason, sent, now, p.ID)
	} else {
		// New rows start with NULL last_accessed; they are the first
		// eviction candidates until something reads them back.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO papers
			(id, title, authors, summary, published, link, pdf_link, categories,
			 relevance_score, relevance_reason, sent, created_at, last_accessed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
			p.ID, p.Title, strings.Join(p.Authors, ", "), p.Summary, p.Published,
			p.Link, p.PDFLink, strings.Join(p.Categories, ", "),
			p.RelevanceScore, p.RelevanceReason, sent, now)
	}
	if err != nil {
		return storageErr("add: write", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("add: commit", err)
	}
	return nil
}

// evictForInsert removes enough rows to fit one more without exceeding
// the capacity bound. Runs inside the caller's transaction.
func (s *Store) evictForInsert(ctx context.Context, tx *sqlx.Tx) error {
	var count int
	if err := tx.QueryRowxContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&count); err != nil {
		return storageErr("evict: count", err)
	}

	deficit := count + 1 - s.maxSize
	if deficit <= 0 {
		return nil
	}

	rows, err := tx.QueryxContext(ctx,
		`SELECT id, title FROM papers `+evictionOrder+` LIMIT ?`, deficit)
	if err != nil {
		return storageErr("evict: select", err)
	}
	defer rows.Close()

	var ids, titles []string
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return storageErr("evict: scan", err)
		}
		ids = append(ids, id)
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return storageErr("evict: select", err)
	}
	rows.Close()

	query, args, err := sqlx.In(`DELETE FROM papers WHERE id IN (?)`, ids)
	if err != nil {
		return storageErr("evict: delete", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return storageErr("evict: delete", err)
	}

	s.logger.Info("evicted least recently accessed papers",
		zap.Int("count", len(ids)),
		zap.Strings("titles", titles))
	return nil
}

// ListRecent returns papers published at or after since, most recent
// first, touching last_accessed on every returned row. limit <= 0 means
// no limit.
func (s *Store) ListRecent(ctx context.Context, since time.Time, limit int) ([]paper.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, title, authors, summary, published, link, pdf_link, categories,
		       relevance_score, relevance_reason, sent, created_at, last_accessed
		FROM papers
		WHERE published >= ?
		ORDER BY published DESC`
	args := []interface{}{since}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()

	var papers []paper.Paper
	var ids []interface{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, storageErr("list: scan", err)
		}
		papers = append(papers, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list", err)
	}
	rows.Close()

	if len(ids) > 0 {
		query, args, err := sqlx.In(`UPDATE papers SET last_accessed = ? WHERE id IN (?)`, s.now(), ids)
		if err != nil {
			return nil, storageErr("list: touch", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, storageErr("list: touch", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("list: commit", err)
	}
	return papers, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(r rowScanner) (paper.Paper, error) {
	var (
		p            paper.Paper
		authors      string
		categories   string
		published    sql.NullTime
		score        sql.NullFloat64
		lastAccessed sql.NullTime
	)
	err := r.Scan(&p.ID, &p.Title, &authors, &p.Summary, &published, &p.Link,
		&p.PDFLink, &categories, &score, &p.RelevanceReason, &p.Sent,
		&p.CreatedAt, &lastAccessed)
	if err != nil {
		return paper.Paper{}, err
	}
	if authors != "" {
		p.Authors = strings.Split(authors, ", ")
	}
	if categories != "" {
		p.Categories = strings.Split(categories, ", ")
	}
	if published.Valid {
		p.Published = published.Time
	}
	if score.Valid {
		p.RelevanceScore = &score.Float64
	}
	if lastAccessed.Valid {
		p.LastAccessed = &lastAccessed.Time
	}
	return p, nil
}
