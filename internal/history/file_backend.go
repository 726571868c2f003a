package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// The file backend keeps every run in memory behind a mutex and
// persists the whole set as one JSON document on each write. Fine for
// a local CLI; the Postgres backend exists for anything shared.

type fileDoc struct {
	Runs []Run `json:"runs"`
}

func (s *Store) loadFile() {
	s.loadOnce.Do(func() {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var doc fileDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return
		}
		s.mu.Lock()
		for _, r := range doc.Runs {
			s.byID[r.RunID] = r
		}
		s.mu.Unlock()
	})
}

func (s *Store) addFile(run Run) error {
	s.loadFile()
	s.mu.Lock()
	s.byID[run.RunID] = run
	doc := fileDoc{Runs: make([]Run, 0, len(s.byID))}
	for _, r := range s.byID {
		doc.Runs = append(doc.Runs, r)
	}
	s.mu.Unlock()

	sort.Slice(doc.Runs, func(i, j int) bool {
		return doc.Runs[i].CreatedAt.Before(doc.Runs[j].CreatedAt)
	})
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("history: mkdir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("history: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("history: rename: %w", err)
	}
	return nil
}

func (s *Store) getFile(runID string) (Run, bool) {
	s.loadFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.byID[runID]
	return run, ok
}

func (s *Store) listRecentFile(limit int) []Run {
	s.loadFile()
	s.mu.RLock()
	runs := make([]Run, 0, len(s.byID))
	for _, r := range s.byID {
		runs = append(runs, r)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs
}
