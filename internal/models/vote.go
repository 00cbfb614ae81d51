package models

// Vote is one ledger row: a single user's direction on a single target.
// Rows are only inserted or deleted, never updated; a change of direction is
// a delete followed by an insert. The composite index serves the
// (user, target, type) point lookup done on every vote.
type Vote struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index:idx_vote_lookup,priority:1" json:"user_id"`
	User       User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TargetID   uint   `gorm:"not null;index:idx_vote_lookup,priority:2" json:"target_id"`
	TargetType string `gorm:"size:1;not null;index:idx_vote_lookup,priority:3" json:"target_type"`
	Type       string `gorm:"size:1;not null" json:"type"` // "u" or "d"
}
