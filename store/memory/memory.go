// Package memory provides an in-memory run store for tests and local
// experimentation. Same insert-only contract as the SQLite store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clearport/surety-engine/service"
)

type Store struct {
	mu   sync.RWMutex
	runs map[string]*service.Run
}

func New() *Store {
	return &Store{runs: make(map[string]*service.Run)}
}

func (s *Store) SaveRun(_ context.Context, run *service.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already stored", run.ID)
	}
	s.runs[run.ID] = run
	return nil
}

func (s *Store) GetRun(_ context.Context, id string) (*service.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, service.ErrRunNotFound
	}
	return run, nil
}

func (s *Store) ListRuns(_ context.Context) ([]service.RunHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	headers := make([]service.RunHeader, 0, len(s.runs))
	for _, run := range s.runs {
		headers = append(headers, run.Header())
	}
	sort.Slice(headers, func(i, j int) bool {
		return headers[i].CreatedAt.After(headers[j].CreatedAt)
	})
	return headers, nil
}

func (s *Store) Close() error { return nil }
