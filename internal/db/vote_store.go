package db

import (
	"context"
	"errors"
	"fmt"

	"subboard/internal/models"
	"subboard/internal/votes"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// votableTables maps a type code to the table holding its counters.
var votableTables = map[string]string{
	models.TypeCodePost:    "posts",
	models.TypeCodeComment: "comments",
}

// VoteStore is the postgres votes.Store: the votes table is the ledger and
// the votes/score columns of posts and comments are the counters.
type VoteStore struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewVoteStore(gdb *gorm.DB, clock clockwork.Clock) *VoteStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &VoteStore{db: gdb, clock: clock}
}

// Bind returns a ledger running on tx, for callers that already hold a
// transaction.
func (s *VoteStore) Bind(tx *gorm.DB) votes.Ledger {
	return &voteLedger{db: tx, clock: s.clock}
}

func (s *VoteStore) InTx(ctx context.Context, fn func(l votes.Ledger) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.Bind(tx))
	})
	return classify("transaction", err)
}

func (s *VoteStore) FindVote(ctx context.Context, voter uint, t votes.Target) (votes.Direction, error) {
	return s.Bind(s.db).FindVote(ctx, voter, t)
}

func (s *VoteStore) InsertVote(ctx context.Context, voter uint, t votes.Target, d votes.Direction) error {
	return s.Bind(s.db).InsertVote(ctx, voter, t, d)
}

func (s *VoteStore) DeleteVotes(ctx context.Context, voter uint, t votes.Target, d votes.Direction) (int64, error) {
	return s.Bind(s.db).DeleteVotes(ctx, voter, t, d)
}

func (s *VoteStore) LoadCounters(ctx context.Context, t votes.Target) (votes.Tally, error) {
	return s.Bind(s.db).LoadCounters(ctx, t)
}

func (s *VoteStore) PersistCounters(ctx context.Context, t votes.Target, tally votes.Tally) error {
	return s.Bind(s.db).PersistCounters(ctx, t, tally)
}

// VotesByTargets returns voter's direction for every listed target of one
// type that has a vote.
func (s *VoteStore) VotesByTargets(ctx context.Context, voter uint, typeCode string, ids []uint) (map[uint]votes.Direction, error) {
	out := make(map[uint]votes.Direction, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", voter, typeCode, ids).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, classify("list votes", err)
	}
	for _, r := range rows {
		if _, seen := out[r.TargetID]; !seen {
			out[r.TargetID] = votes.Direction(r.Type)
		}
	}
	return out, nil
}

type voteLedger struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func (l *voteLedger) FindVote(ctx context.Context, voter uint, t votes.Target) (votes.Direction, error) {
	var types []string
	err := l.db.WithContext(ctx).Model(&models.Vote{}).
		Where("user_id = ? AND target_id = ? AND target_type = ?", voter, t.ID, t.TypeCode).
		Order("id").
		Limit(1).
		Pluck("type", &types).Error
	if err != nil {
		return votes.None, classify("find vote", err)
	}
	if len(types) == 0 {
		return votes.None, nil
	}
	return votes.Direction(types[0]), nil
}

func (l *voteLedger) InsertVote(ctx context.Context, voter uint, t votes.Target, d votes.Direction) error {
	row := models.Vote{UserID: voter, TargetID: t.ID, TargetType: t.TypeCode, Type: string(d)}
	return classify("insert vote", l.db.WithContext(ctx).Create(&row).Error)
}

func (l *voteLedger) DeleteVotes(ctx context.Context, voter uint, t votes.Target, d votes.Direction) (int64, error) {
	res := l.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ? AND target_type = ? AND type = ?", voter, t.ID, t.TypeCode, string(d)).
		Delete(&models.Vote{})
	if res.Error != nil {
		return 0, classify("delete votes", res.Error)
	}
	return res.RowsAffected, nil
}

func (l *voteLedger) LoadCounters(ctx context.Context, t votes.Target) (votes.Tally, error) {
	table, err := tableFor(t)
	if err != nil {
		return votes.Tally{}, err
	}
	var tally votes.Tally
	res := l.db.WithContext(ctx).Table(table).
		Select("votes", "score").
		Where("id = ?", t.ID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scan(&tally)
	if res.Error != nil {
		return votes.Tally{}, classify("load counters", res.Error)
	}
	if res.RowsAffected == 0 {
		return votes.Tally{}, fmt.Errorf("%w: %s", votes.ErrTargetNotFound, t)
	}
	return tally, nil
}

func (l *voteLedger) PersistCounters(ctx context.Context, t votes.Target, tally votes.Tally) error {
	table, err := tableFor(t)
	if err != nil {
		return err
	}
	res := l.db.WithContext(ctx).Table(table).
		Where("id = ?", t.ID).
		UpdateColumns(map[string]any{
			"votes":      tally.Votes,
			"score":      tally.Score,
			"updated_on": l.clock.Now().UTC(),
		})
	if res.Error != nil {
		return classify("persist counters", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", votes.ErrTargetNotFound, t)
	}
	return nil
}

func tableFor(t votes.Target) (string, error) {
	table, ok := votableTables[t.TypeCode]
	if !ok {
		return "", fmt.Errorf("%w: %s", votes.ErrTargetNotFound, t)
	}
	return table, nil
}

// classify turns driver errors into vote errors: serialization failures and
// deadlocks become ErrVoteConflict, anything else a StorageError. Errors
// that are already classified pass through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		votes.ErrVoteConflict, votes.ErrStorageUnavailable, votes.ErrTargetNotFound,
		votes.ErrInvalidTargetType, votes.ErrInvalidDirection,
		context.Canceled, context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s: %s", votes.ErrVoteConflict, op, pgErr.Message)
		}
	}
	return &votes.StorageError{Op: op, Err: err}
}
