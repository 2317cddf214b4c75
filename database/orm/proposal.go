package orm

const (
	// MaxMilestones bounds the milestone schedule of a proposal.
	MaxMilestones = 3
	// MaxURI bounds every metadata and proof pointer.
	MaxURI = 200
)

// ProposalStatus represents the lifecycle of a builder proposal.
type ProposalStatus uint8

const (
	ProposalSubmitted ProposalStatus = iota
	ProposalAccepted
	ProposalRejected
	ProposalCancelled
	ProposalCompleted
)

var proposalStatusValue = map[ProposalStatus]string{
	ProposalSubmitted: "SUBMITTED",
	ProposalAccepted:  "ACCEPTED",
	ProposalRejected:  "REJECTED",
	ProposalCancelled: "CANCELLED",
	ProposalCompleted: "COMPLETED",
}

// String returns the string of proposal status
func (s ProposalStatus) String() string {
	if _, ok := proposalStatusValue[s]; !ok {
		return "unknown"
	}

	return proposalStatusValue[s]
}

// Proposal is a gorm table definition represents a builder's bid
// against an idea.
type Proposal struct {
	Record
	ProposalID     uint64         `gorm:"not null"`
	Idea           string         `gorm:"size:64;index;not null"`
	Builder        string         `gorm:"size:64;index;not null"`
	MetadataURI    string         `gorm:"size:200"`
	RequestedTotal uint64         `gorm:"not null"`
	Status         ProposalStatus `gorm:"not null"`
	VoteCount      uint64         `gorm:"not null"`
	MilestoneCount uint8          `gorm:"not null"`

	Milestones []*Milestone `gorm:"foreignKey:Proposal;references:Address"`
}
