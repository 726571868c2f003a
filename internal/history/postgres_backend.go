package history

import (
	"log"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS revamp_runs (
    run_id     TEXT PRIMARY KEY,
    url        TEXT NOT NULL,
    status     TEXT NOT NULL,
    before_score INTEGER NOT NULL,
    after_score  INTEGER NOT NULL,
    error      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS revamp_runs_created_at_idx ON revamp_runs (created_at DESC);
`

func (s *Store) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(runsSchema)
	})
	return s.schemaErr
}

func (s *Store) addDB(run Run) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
INSERT INTO revamp_runs (run_id, url, status, before_score, after_score, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id) DO UPDATE SET
    url = EXCLUDED.url,
    status = EXCLUDED.status,
    before_score = EXCLUDED.before_score,
    after_score = EXCLUDED.after_score,
    error = EXCLUDED.error,
    created_at = EXCLUDED.created_at`,
		run.RunID, run.URL, run.Status, run.Before, run.After, run.Error, run.CreatedAt)
	return err
}

func (s *Store) getDB(runID string) (Run, bool) {
	if err := s.ensureSchema(); err != nil {
		return Run{}, false
	}
	var run Run
	err := s.db.QueryRow(`
SELECT run_id, url, status, before_score, after_score, error, created_at
FROM revamp_runs WHERE run_id = $1`, runID).
		Scan(&run.RunID, &run.URL, &run.Status, &run.Before, &run.After, &run.Error, &run.CreatedAt)
	if err != nil {
		return Run{}, false
	}
	return run, true
}

func (s *Store) listRecentDB(limit int) []Run {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`
SELECT run_id, url, status, before_score, after_score, error, created_at
FROM revamp_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		log.Printf("history: list: %v", err)
		return nil
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.URL, &run.Status, &run.Before, &run.After, &run.Error, &run.CreatedAt); err != nil {
			log.Printf("history: scan: %v", err)
			continue
		}
		runs = append(runs, run)
	}
	return runs
}
