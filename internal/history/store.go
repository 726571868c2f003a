// Package history records pipeline runs. Backed by a JSON file by
// default and by Postgres when a DSN is configured; reads go through a
// small LRU so the list endpoint does not hit the backend per request.
package history

import (
	"database/sql"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Run

	schemaOnce sync.Once
	schemaErr  error

	runCache *lru.Cache[string, Run]
}

// New opens a file-backed store at path.
func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]Run),
	}
}

// NewPostgres opens a Postgres-backed store through the pgx driver.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Run](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, runCache: cache}, nil
}

// NewFromEnv prefers Postgres when dsn is set and falls back to the
// file backend when the connection cannot be established.
func NewFromEnv(path, dsn string) *Store {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

// Add records a run.
func (s *Store) Add(run Run) error {
	if s == nil {
		return nil
	}
	run = normalizeRun(run)
	if run.RunID == "" {
		return nil
	}
	if s.db != nil {
		err := s.addDB(run)
		if err == nil && s.runCache != nil {
			s.runCache.Add(run.RunID, run)
		}
		return err
	}
	return s.addFile(run)
}

// Get returns one run by id.
func (s *Store) Get(runID string) (Run, bool) {
	if s == nil {
		return Run{}, false
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return Run{}, false
	}
	if s.db != nil {
		if s.runCache != nil {
			if cached, ok := s.runCache.Get(runID); ok {
				return cached, true
			}
		}
		run, ok := s.getDB(runID)
		if ok && s.runCache != nil {
			s.runCache.Add(runID, run)
		}
		return run, ok
	}
	return s.getFile(runID)
}

// ListRecent returns up to limit runs, newest first.
func (s *Store) ListRecent(limit int) []Run {
	if s == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}
	if s.db != nil {
		return s.listRecentDB(limit)
	}
	return s.listRecentFile(limit)
}
