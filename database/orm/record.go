package orm

import "time"

// Record holds the columns shared by every addressed table. Address is the
// deterministic identity of the row and Version guards concurrent writers.
type Record struct {
	Address   string `gorm:"primaryKey;size:64"`
	Version   uint64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Base exposes the shared columns of an addressed row.
func (r *Record) Base() *Record {
	return r
}

// Addressed is implemented by every table embedding Record.
type Addressed interface {
	Base() *Record
}

// Tables lists every model managed by the migrations.
func Tables() []any {
	return []any{
		&MarketConfig{},
		&Idea{},
		&StakePosition{},
		&Proposal{},
		&Milestone{},
		&VoteRecord{},
		&Escrow{},
		&Reputation{},
		&Vault{},
		&Wallet{},
		&Event{},
		&RelayStatus{},
	}
}
