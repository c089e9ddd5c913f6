package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pdcoea/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	runOrder    []string
	sweeps      map[string]model.SweepRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.runOrder = nil
	s.sweeps = make(map[string]model.SweepRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	if _, exists := s.runs[run.ID]; !exists {
		s.runOrder = append(s.runOrder, run.ID)
	}
	run.Trace = append([]model.GenerationStats(nil), run.Trace...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type indexedRun struct {
		run model.RunRecord
		idx int
	}
	indexed := make([]indexedRun, 0, len(s.runOrder))
	for i, id := range s.runOrder {
		indexed = append(indexed, indexedRun{run: s.runs[id], idx: i})
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].run.CreatedAtUTC == indexed[j].run.CreatedAtUTC {
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].run.CreatedAtUTC > indexed[j].run.CreatedAtUTC
	})
	if limit > 0 && len(indexed) > limit {
		indexed = indexed[:limit]
	}

	runs := make([]model.RunRecord, 0, len(indexed))
	for _, item := range indexed {
		runs = append(runs, item.run)
	}
	return runs, nil
}

func (s *MemoryStore) SaveSweep(_ context.Context, sweep model.SweepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.sweeps[sweep.ID] = sweep
	return nil
}

func (s *MemoryStore) GetSweep(_ context.Context, id string) (model.SweepRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sweep, ok := s.sweeps[id]
	return sweep, ok, nil
}
