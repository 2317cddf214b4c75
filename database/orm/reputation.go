package orm

// Reputation is a gorm table definition represents the participation
// counters of a wallet.
type Reputation struct {
	Record
	Wallet              string `gorm:"size:64;uniqueIndex;not null"`
	ProposalsWon        uint64 `gorm:"not null"`
	MilestonesCompleted uint64 `gorm:"not null"`
	SupportCount        uint64 `gorm:"not null"`
	SupportAmountTotal  uint64 `gorm:"not null"`
}
