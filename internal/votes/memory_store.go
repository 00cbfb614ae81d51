package votes

import (
	"context"
	"fmt"
	"sync"
)

type memoryVote struct {
	voter  uint
	target Target
	dir    Direction
}

type memoryState struct {
	votes    []memoryVote
	counters map[Target]Tally
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		votes:    make([]memoryVote, len(s.votes)),
		counters: make(map[Target]Tally, len(s.counters)),
	}
	copy(c.votes, s.votes)
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

// MemoryStore is an in-process Store. Transactions run on a copy of the
// state that replaces the original only when fn succeeds, and are fully
// serialized with each other.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{counters: make(map[Target]Tally)}}
}

// Put registers a target with initial counters.
func (m *MemoryStore) Put(t Target, tally Tally) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.counters[t] = tally
}

// Remove drops a target and every ledger row pointing at it.
func (m *MemoryStore) Remove(t Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.counters, t)
	kept := m.state.votes[:0]
	for _, v := range m.state.votes {
		if v.target != t {
			kept = append(kept, v)
		}
	}
	m.state.votes = kept
}

// Rows counts ledger rows for (voter, target) regardless of direction.
func (m *MemoryStore) Rows(voter uint, t Target) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.state.votes {
		if v.voter == voter && v.target == t {
			n++
		}
	}
	return n
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(l Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryLedger{state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *MemoryStore) FindVote(ctx context.Context, voter uint, t Target) (Direction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memoryLedger{state: m.state}).FindVote(ctx, voter, t)
}

func (m *MemoryStore) InsertVote(ctx context.Context, voter uint, t Target, d Direction) error {
	return m.InTx(ctx, func(l Ledger) error { return l.InsertVote(ctx, voter, t, d) })
}

func (m *MemoryStore) DeleteVotes(ctx context.Context, voter uint, t Target, d Direction) (int64, error) {
	var n int64
	err := m.InTx(ctx, func(l Ledger) error {
		var err error
		n, err = l.DeleteVotes(ctx, voter, t, d)
		return err
	})
	return n, err
}

func (m *MemoryStore) LoadCounters(ctx context.Context, t Target) (Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memoryLedger{state: m.state}).LoadCounters(ctx, t)
}

func (m *MemoryStore) PersistCounters(ctx context.Context, t Target, tally Tally) error {
	return m.InTx(ctx, func(l Ledger) error { return l.PersistCounters(ctx, t, tally) })
}

type memoryLedger struct {
	state *memoryState
}

func (l *memoryLedger) FindVote(_ context.Context, voter uint, t Target) (Direction, error) {
	for _, v := range l.state.votes {
		if v.voter == voter && v.target == t {
			return v.dir, nil
		}
	}
	return None, nil
}

func (l *memoryLedger) InsertVote(_ context.Context, voter uint, t Target, d Direction) error {
	if _, ok := l.state.counters[t]; !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, t)
	}
	l.state.votes = append(l.state.votes, memoryVote{voter: voter, target: t, dir: d})
	return nil
}

func (l *memoryLedger) DeleteVotes(_ context.Context, voter uint, t Target, d Direction) (int64, error) {
	var removed int64
	kept := make([]memoryVote, 0, len(l.state.votes))
	for _, v := range l.state.votes {
		if v.voter == voter && v.target == t && v.dir == d {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	l.state.votes = kept
	return removed, nil
}

func (l *memoryLedger) LoadCounters(_ context.Context, t Target) (Tally, error) {
	tally, ok := l.state.counters[t]
	if !ok {
		return Tally{}, fmt.Errorf("%w: %s", ErrTargetNotFound, t)
	}
	return tally, nil
}

func (l *memoryLedger) PersistCounters(_ context.Context, t Target, tally Tally) error {
	if _, ok := l.state.counters[t]; !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, t)
	}
	l.state.counters[t] = tally
	return nil
}
