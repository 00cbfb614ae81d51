package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subboard/internal/logging"
	"subboard/internal/models"
	"subboard/internal/platform/retry"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Result is what a committed vote leaves behind.
type Result struct {
	Tally
	Vote       Direction  `json:"vote"`
	Transition Transition `json:"-"`
}

// Event is delivered to observers after a vote commits.
type Event struct {
	Voter   uint
	OwnerID uint
	Target  Target
	Result  Result
}

// Observer is notified of committed, non-noop votes. VoteApplied runs on the
// voting goroutine and must not block.
type Observer interface {
	VoteApplied(ev Event)
}

type Service struct {
	store     Store
	locker    Locker
	logger    *zap.Logger
	metrics   *Metrics
	observers []Observer
	clock     clockwork.Clock
	policy    retry.Policy
}

type Option func(*Service)

func WithLocker(l Locker) Option         { return func(s *Service) { s.locker = l } }
func WithLogger(l *zap.Logger) Option    { return func(s *Service) { s.logger = l } }
func WithMetrics(m *Metrics) Option      { return func(s *Service) { s.metrics = m } }
func WithObserver(o Observer) Option     { return func(s *Service) { s.observers = append(s.observers, o) } }
func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }

// WithRetry sets how often a conflicting vote is retried from a fresh read.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		s.policy.MaxAttempts = attempts
		s.policy.InitialBackoff = backoff
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		locker: NewKeyedMutex(),
		logger: zap.NewNop(),
		clock:  clockwork.NewRealClock(),
		policy: retry.Policy{MaxAttempts: 3, InitialBackoff: 10 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.policy.Clock = s.clock
	return s
}

// ApplyVote runs the vote state machine for voter on target. On success the
// target's in-memory counters are refreshed from the committed tally; on
// failure nothing is committed.
func (s *Service) ApplyVote(ctx context.Context, voter uint, target models.HasVotableState, requested Direction) (Result, error) {
	t, err := TargetOf(target)
	if err != nil {
		s.recordFailure("invalid_target")
		return Result{}, err
	}
	if !requested.Valid() {
		s.recordFailure("invalid_direction")
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidDirection, string(requested))
	}

	start := s.clock.Now()
	log := logging.WithTarget(logging.WithUser(s.logger, voter), t.TypeCode, t.ID)

	unlock, err := s.locker.Lock(ctx, lockKey(voter, t))
	if err != nil {
		s.recordFailure("lock")
		return Result{}, fmt.Errorf("acquire vote lock: %w", err)
	}
	defer unlock()

	policy := s.policy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		if s.metrics != nil {
			s.metrics.Conflicts.Inc()
		}
		log.Debug("vote conflict, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
	}

	res, err := retry.Do(ctx, policy, classify, func() (Result, error) {
		var out Result
		err := s.store.InTx(ctx, func(l Ledger) error {
			var err error
			out, err = s.apply(ctx, l, voter, t, requested)
			return err
		})
		return out, err
	})
	if s.metrics != nil {
		s.metrics.Duration.Observe(s.clock.Since(start).Seconds())
	}
	if err != nil {
		s.recordFailure(failureReason(err))
		if errors.Is(err, ErrStorageUnavailable) {
			log.Error("vote failed", zap.Error(err))
		} else {
			log.Info("vote rejected", zap.Error(err))
		}
		return Result{}, err
	}

	state := target.VotableState()
	state.Votes, state.Score = res.Votes, res.Score

	if res.Transition.IsNoop() {
		return res, nil
	}
	if s.metrics != nil {
		s.metrics.Applied.WithLabelValues(res.Transition.Label()).Inc()
	}
	ev := Event{Voter: voter, OwnerID: state.UserID, Target: t, Result: res}
	for _, o := range s.observers {
		o.VoteApplied(ev)
	}
	return res, nil
}

// GetVote returns voter's active direction on target, or None.
func (s *Service) GetVote(ctx context.Context, voter uint, target models.HasVotableState) (Direction, error) {
	t, err := TargetOf(target)
	if err != nil {
		return None, err
	}
	return s.store.FindVote(ctx, voter, t)
}

// Seed gives a freshly created item its author's upvote using the caller's
// transactional ledger, so the item and its first vote commit together.
func (s *Service) Seed(ctx context.Context, l Ledger, author uint, target models.HasVotableState) (Result, error) {
	t, err := TargetOf(target)
	if err != nil {
		return Result{}, err
	}
	res, err := s.apply(ctx, l, author, t, Up)
	if err != nil {
		return Result{}, err
	}
	state := target.VotableState()
	state.Votes, state.Score = res.Votes, res.Score
	return res, nil
}

// apply performs one read-decide-write pass against l. It must run inside a
// transaction: any error aborts the whole pass.
func (s *Service) apply(ctx context.Context, l Ledger, voter uint, t Target, requested Direction) (Result, error) {
	counters, err := l.LoadCounters(ctx, t)
	if err != nil {
		return Result{}, err
	}
	current, err := l.FindVote(ctx, voter, t)
	if err != nil {
		return Result{}, err
	}

	tr := Next(current, requested)
	if tr.IsNoop() {
		return Result{Tally: counters, Vote: current, Transition: tr}, nil
	}

	if current != None {
		removed, err := l.DeleteVotes(ctx, voter, t, current)
		if err != nil {
			return Result{}, err
		}
		if removed == 0 {
			return Result{}, fmt.Errorf("%w: %s vote on %s vanished", ErrVoteConflict, current, t)
		}
	}
	if tr.To != None {
		// duplicates of the new direction must not survive the insert
		if _, err := l.DeleteVotes(ctx, voter, t, tr.To); err != nil {
			return Result{}, err
		}
		if err := l.InsertVote(ctx, voter, t, tr.To); err != nil {
			return Result{}, err
		}
	}

	next := Tally{Votes: counters.Votes + tr.VoteDelta, Score: counters.Score + tr.ScoreDelta}
	if next.Votes < 0 {
		return Result{}, fmt.Errorf("%w: vote count of %s would drop below zero", ErrVoteConflict, t)
	}
	if err := l.PersistCounters(ctx, t, next); err != nil {
		return Result{}, err
	}
	return Result{Tally: next, Vote: tr.To, Transition: tr}, nil
}

func classify(err error) retry.Action {
	if errors.Is(err, ErrVoteConflict) {
		return retry.Retry
	}
	return retry.Stop
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrVoteConflict):
		return "conflict"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage"
	case errors.Is(err, ErrTargetNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "other"
}

func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.Failures.WithLabelValues(reason).Inc()
	}
}
