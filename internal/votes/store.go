package votes

import (
	"context"
	"fmt"

	"subboard/internal/models"
)

// Target identifies a votable row.
type Target struct {
	ID       uint
	TypeCode string
}

// TargetOf extracts the target of a votable entity and validates its type code.
func TargetOf(v models.HasVotableState) (Target, error) {
	code := v.VotableTypeCode()
	if !models.ValidTypeCode(code) {
		return Target{}, fmt.Errorf("%w: got %q", ErrInvalidTargetType, code)
	}
	return Target{ID: v.VotableID(), TypeCode: code}, nil
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.TypeCode, t.ID)
}

// Tally is the cached (votes, score) pair of a target.
type Tally struct {
	Votes int `json:"votes"`
	Score int `json:"score"`
}

// Ledger is the persistence surface the state machine runs against.
// DeleteVotes removes every matching row and reports how many it removed.
type Ledger interface {
	FindVote(ctx context.Context, voter uint, t Target) (Direction, error)
	InsertVote(ctx context.Context, voter uint, t Target, d Direction) error
	DeleteVotes(ctx context.Context, voter uint, t Target, d Direction) (int64, error)
	// LoadCounters reads the target's counters; transactional ledgers lock the row.
	LoadCounters(ctx context.Context, t Target) (Tally, error)
	PersistCounters(ctx context.Context, t Target, tally Tally) error
}

// Store is a Ledger that can run a group of ledger calls atomically.
// If fn returns an error nothing it did is committed.
type Store interface {
	Ledger
	InTx(ctx context.Context, fn func(l Ledger) error) error
}
