package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"subboard/internal/votes"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKarma struct {
	mu      sync.Mutex
	totals  map[uint]int
	batches int
	fail    bool
}

func newMemoryKarma() *memoryKarma { return &memoryKarma{totals: make(map[uint]int)} }

func (m *memoryKarma) AddKarma(_ context.Context, deltas map[uint]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	m.batches++
	for id, d := range deltas {
		m.totals[id] += d
	}
	return nil
}

func (m *memoryKarma) total(id uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[id]
}

func voteEvent(voter, owner uint, from, to votes.Direction) votes.Event {
	tr := votes.Next(from, to)
	return votes.Event{Voter: voter, OwnerID: owner, Result: votes.Result{Transition: tr}}
}

func TestKarmaService_FlushesOnTick(t *testing.T) {
	sink := newMemoryKarma()
	clock := clockwork.NewFakeClock()
	svc := NewKarmaService(sink, 500*time.Millisecond, clock, nil)
	svc.Start()
	defer svc.Stop()

	svc.VoteApplied(voteEvent(1, 9, votes.None, votes.Up))
	svc.VoteApplied(voteEvent(2, 9, votes.Down, votes.Up))

	require.Eventually(t, func() bool {
		clock.Advance(500 * time.Millisecond)
		return sink.total(9) == 3
	}, time.Second, 5*time.Millisecond)
}

func TestKarmaService_IgnoresSelfVotes(t *testing.T) {
	sink := newMemoryKarma()
	svc := NewKarmaService(sink, time.Hour, clockwork.NewFakeClock(), nil)
	svc.Start()

	svc.VoteApplied(voteEvent(9, 9, votes.None, votes.Up))
	svc.VoteApplied(voteEvent(3, 0, votes.None, votes.Up))
	svc.VoteApplied(voteEvent(3, 9, votes.Up, votes.Up))
	svc.Stop()

	assert.Equal(t, -1, sink.total(9))
	assert.Zero(t, sink.total(0))
}

func TestKarmaService_StopDrainsQueue(t *testing.T) {
	sink := newMemoryKarma()
	svc := NewKarmaService(sink, time.Hour, clockwork.NewFakeClock(), nil)
	svc.Start()

	for voter := uint(1); voter <= 10; voter++ {
		svc.VoteApplied(voteEvent(voter, 42, votes.None, votes.Down))
	}
	svc.Stop()
	svc.Stop()

	assert.Equal(t, -10, sink.total(42))
}

func TestKarmaService_FlushesFullBatch(t *testing.T) {
	sink := newMemoryKarma()
	svc := NewKarmaService(sink, time.Hour, clockwork.NewFakeClock(), nil)
	svc.Start()
	defer svc.Stop()

	for owner := uint(1); owner <= karmaBatchSize; owner++ {
		svc.VoteApplied(voteEvent(1000, owner, votes.None, votes.Up))
	}

	require.Eventually(t, func() bool { return sink.total(karmaBatchSize) == 1 }, time.Second, 5*time.Millisecond)
}

func TestKarmaService_FlushFailureIsLogged(t *testing.T) {
	sink := newMemoryKarma()
	sink.fail = true
	svc := NewKarmaService(sink, time.Hour, clockwork.NewFakeClock(), nil)
	svc.Start()

	svc.VoteApplied(voteEvent(1, 2, votes.None, votes.Up))
	svc.Stop()

	assert.Zero(t, sink.total(2))
}
