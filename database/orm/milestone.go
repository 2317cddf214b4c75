package orm

// MilestoneStatus represents the progress of one milestone.
type MilestoneStatus uint8

const (
	MilestonePending MilestoneStatus = iota
	MilestoneSubmittedProof
	MilestoneApproved
	MilestoneFailed
)

// String returns the string of milestone status
func (s MilestoneStatus) String() string {
	switch s {
	case MilestonePending:
		return "PENDING"
	case MilestoneSubmittedProof:
		return "SUBMITTED_PROOF"
	case MilestoneApproved:
		return "APPROVED"
	case MilestoneFailed:
		return "FAILED"
	default:
		return "unknown"
	}
}

// Milestone is a gorm table definition represents one entry of a
// proposal's payment schedule. ProofURI stays nil until the builder
// submits proof.
type Milestone struct {
	Record
	Proposal   string          `gorm:"size:64;uniqueIndex:idx_proposal_milestone;not null"`
	Index      uint8           `gorm:"column:idx;uniqueIndex:idx_proposal_milestone"`
	Amount     uint64          `gorm:"not null"`
	DeadlineTs int64           `gorm:"not null"`
	ProofURI   *string         `gorm:"size:200"`
	Status     MilestoneStatus `gorm:"not null"`
}

// Proof returns the proof pointer and whether one was submitted.
func (m *Milestone) Proof() (string, bool) {
	if m.ProofURI == nil {
		return "", false
	}
	return *m.ProofURI, true
}
