package storage

import (
	"context"
	"sync"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

// MemoryStore keeps the latest limit snapshots and commands of each run.
type MemoryStore struct {
	limit int

	mu        sync.RWMutex
	snapshots map[string]*ring[robot.SensorSnapshot]
	commands  map[string]*ring[robot.AppliedCommand]
}

func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		limit:     limit,
		snapshots: make(map[string]*ring[robot.SensorSnapshot]),
		commands:  make(map[string]*ring[robot.AppliedCommand]),
	}
}

func (s *MemoryStore) Init(context.Context) error {
	return nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, runID string, snapshot robot.SensorSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.snapshots[runID]
	if !ok {
		r = newRing[robot.SensorSnapshot](s.limit)
		s.snapshots[runID] = r
	}
	r.push(snapshot)
	return nil
}

func (s *MemoryStore) SaveCommand(_ context.Context, runID string, applied robot.AppliedCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.commands[runID]
	if !ok {
		r = newRing[robot.AppliedCommand](s.limit)
		s.commands[runID] = r
	}
	r.push(applied)
	return nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, runID string, limit int) ([]robot.SensorSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[runID].latest(limit), nil
}

func (s *MemoryStore) ListCommands(_ context.Context, runID string, limit int) ([]robot.AppliedCommand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commands[runID].latest(limit), nil
}

// ring holds the last cap(buf) items pushed. A nil ring is empty.
type ring[T any] struct {
	buf   []T
	start int
	n     int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(item T) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = item
		r.n++
		return
	}
	r.buf[r.start] = item
	r.start = (r.start + 1) % len(r.buf)
}

// latest returns up to limit of the newest items, oldest first. A limit <= 0
// returns everything held.
func (r *ring[T]) latest(limit int) []T {
	if r == nil {
		return []T{}
	}
	n := r.n
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, 0, n)
	for i := r.n - n; i < r.n; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}
