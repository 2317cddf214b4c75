package orm

// StakeStatus represents whether a stake position still holds funds.
type StakeStatus uint8

const (
	StakeActive StakeStatus = iota
	StakeRefunded
)

// String returns the string of stake status
func (s StakeStatus) String() string {
	switch s {
	case StakeActive:
		return "ACTIVE"
	case StakeRefunded:
		return "REFUNDED"
	default:
		return "unknown"
	}
}

// StakePosition is a gorm table definition represents a supporter's
// contribution ledger entry for one idea.
type StakePosition struct {
	Record
	Idea         string      `gorm:"size:64;index;not null"`
	Supporter    string      `gorm:"size:64;index;not null"`
	AmountStaked uint64      `gorm:"not null"`
	Status       StakeStatus `gorm:"not null"`
}
