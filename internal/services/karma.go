package services

import (
	"context"
	"sync"
	"time"

	"subboard/internal/votes"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const karmaBatchSize = 50

// KarmaSink persists accumulated karma deltas per user.
type KarmaSink interface {
	AddKarma(ctx context.Context, deltas map[uint]int) error
}

type karmaDelta struct {
	userID uint
	delta  int
}

// KarmaService folds score changes on a user's posts and comments into the
// user's karma. Updates are queued and written in batches.
type KarmaService struct {
	sink     KarmaSink
	queue    chan karmaDelta // deltas not yet written
	interval time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewKarmaService(sink KarmaSink, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) *KarmaService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KarmaService{
		sink:     sink,
		queue:    make(chan karmaDelta, 1000), // buffered so voting never waits on the worker
		interval: interval,
		clock:    clock,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background worker.
func (s *KarmaService) Start() {
	go s.worker()
}

// VoteApplied implements votes.Observer. Votes on one's own items do not
// change karma.
func (s *KarmaService) VoteApplied(ev votes.Event) {
	if ev.OwnerID == 0 || ev.OwnerID == ev.Voter || ev.Result.Transition.ScoreDelta == 0 {
		return
	}
	d := karmaDelta{userID: ev.OwnerID, delta: ev.Result.Transition.ScoreDelta}
	select {
	case s.queue <- d:
	default:
		// queue full, drop this delta
		s.logger.Warn("karma queue full, dropping update",
			zap.Uint("user_id", d.userID), zap.Int("delta", d.delta))
	}
}

// Stop flushes everything queued so far and waits for the worker to exit.
func (s *KarmaService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *KarmaService) worker() {
	defer close(s.done)

	// merge per user, then write as one batch
	pending := make(map[uint]int)
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case d := <-s.queue:
			pending[d.userID] += d.delta
			if len(pending) >= karmaBatchSize {
				s.flush(pending)
				pending = make(map[uint]int)
			}
		case <-ticker.Chan():
			if len(pending) > 0 {
				s.flush(pending)
				pending = make(map[uint]int)
			}
		case <-s.stop:
			for {
				select {
				case d := <-s.queue:
					pending[d.userID] += d.delta
				default:
					s.flush(pending)
					return
				}
			}
		}
	}
}

func (s *KarmaService) flush(pending map[uint]int) {
	if len(pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sink.AddKarma(ctx, pending); err != nil {
		s.logger.Warn("failed to flush karma", zap.Int("users", len(pending)), zap.Error(err))
		return
	}
	s.logger.Debug("karma flushed", zap.Int("users", len(pending)))
}
