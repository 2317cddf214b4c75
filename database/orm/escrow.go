package orm

// EscrowStatus represents the lifecycle of a milestone escrow.
type EscrowStatus uint8

const (
	EscrowActive EscrowStatus = iota
	EscrowPaused
	EscrowFinished
	EscrowCancelled
)

// String returns the string of escrow status
func (s EscrowStatus) String() string {
	switch s {
	case EscrowActive:
		return "ACTIVE"
	case EscrowPaused:
		return "PAUSED"
	case EscrowFinished:
		return "FINISHED"
	case EscrowCancelled:
		return "CANCELLED"
	default:
		return "unknown"
	}
}

// Escrow is a gorm table definition represents the custody of the
// winning proposal's funds.
type Escrow struct {
	Record
	Idea           string       `gorm:"size:64;uniqueIndex;not null"`
	Proposal       string       `gorm:"size:64;not null"`
	Builder        string       `gorm:"size:64;not null"`
	Vault          string       `gorm:"size:64;not null"`
	ReleasedAmount uint64       `gorm:"not null"`
	Status         EscrowStatus `gorm:"not null"`
}
