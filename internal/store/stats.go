package store

import (
	"context"
	"database/sql"
	"time"
)

// OldestPaper is one entry of the eviction front: the next candidates
// to be removed when the store is full.
type OldestPaper struct {
	Title        string     `json:"title"`
	LastAccessed *time.Time `json:"last_accessed"`
}

// Stats summarizes the store contents.
type Stats struct {
	Total          int           `json:"total"`
	Sent           int           `json:"sent"`
	Unsent         int           `json:"unsent"`
	NeverAccessed  int           `json:"never_accessed"`
	MaxStorageSize int           `json:"max_storage_size"`
	OldestPapers   []OldestPaper `json:"oldest_papers"`
}

// Stats returns storage counters and the five papers closest to
// eviction. Read-only: does not touch last_accessed.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{MaxStorageSize: s.maxSize}

	err := s.db.QueryRowxContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&stats.Total)
	if err != nil {
		return Stats{}, storageErr("stats", err)
	}
	err = s.db.QueryRowxContext(ctx, `SELECT COUNT(*) FROM papers WHERE sent != 0`).Scan(&stats.Sent)
	if err != nil {
		return Stats{}, storageErr("stats", err)
	}
	stats.Unsent = stats.Total - stats.Sent

	err = s.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM papers WHERE last_accessed IS NULL`).Scan(&stats.NeverAccessed)
	if err != nil {
		return Stats{}, storageErr("stats", err)
	}

	rows, err := s.db.QueryxContext(ctx,
		`SELECT title, last_accessed FROM papers `+evictionOrder+` LIMIT 5`)
	if err != nil {
		return Stats{}, storageErr("stats: oldest", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			op OldestPaper
			la sql.NullTime
		)
		if err := rows.Scan(&op.Title, &la); err != nil {
			return Stats{}, storageErr("stats: oldest", err)
		}
		if la.Valid {
			op.LastAccessed = &la.Time
		}
		stats.OldestPapers = append(stats.OldestPapers, op)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, storageErr("stats: oldest", err)
	}
	return stats, nil
}
